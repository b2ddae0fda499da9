package fbxbuilder

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	fbxVersion = 7400
	fbxCreator = "FBX SDK/FBX Plugins version 2013.3 build=20121223"
)

var fbxFileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// Header is stamped into the document. Zero Created gives the unix epoch,
// so identical scenes export byte identical files.
type Header struct {
	Vendor      string
	Application string
	Version     string
	Created     time.Time
}

var DefaultHeader = Header{
	Vendor:      "mogaika",
	Application: "saturn_viewer",
	Version:     "1.0",
}

type FBXBuilder struct {
	f      *fbx.FBX
	cache  map[string]interface{}
	lastId int64
	files  map[string][]byte

	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string) *FBXBuilder {
	return NewFBXBuilderWithHeader(filename, DefaultHeader)
}

func NewFBXBuilderWithHeader(filename string, h Header) *FBXBuilder {
	f := &FBXBuilder{
		f:           fbx.NewFBX(fbxVersion),
		cache:       make(map[string]interface{}),
		files:       make(map[string][]byte),
		lastId:      1000000,
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	created := h.Created.UTC()
	if h.Created.IsZero() {
		created = time.Unix(0, 0).UTC()
	}

	f.Root().AddNodes(
		headerExtension(filename, h, created),
		bfbx73.FileId(fbxFileId),
		bfbx73.CreationTime(created.Format("2006-01-02 15:04:05:000")),
		bfbx73.Creator(fbxCreator),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		bfbx73.Definitions().AddNodes(
			bfbx73.Version(100),
			bfbx73.Count(1),
			bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)),
		),
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return f
}

func headerExtension(filename string, h Header, created time.Time) *fbx.Node {
	info := bfbx73.Properties70().AddNodes(
		bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
	)
	stamp := created.Format("02/01/2006 15:04:05.000")
	for _, group := range []string{"Original", "LastSaved"} {
		info.AddNodes(
			bfbx73.P(group, "Compound", "", ""),
			bfbx73.P(group+"|ApplicationVendor", "KString", "", "", h.Vendor),
			bfbx73.P(group+"|ApplicationName", "KString", "", "", h.Application),
			bfbx73.P(group+"|ApplicationVersion", "KString", "", "", h.Version),
			bfbx73.P(group+"|DateTime_GMT", "DateTime", "", "", stamp),
		)
		if group == "Original" {
			info.AddNodes(bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)))
		}
	}

	meta := bfbx73.MetaData().AddNodes(
		bfbx73.Version(100),
		bfbx73.Title(h.Application),
		bfbx73.Subject(""),
		bfbx73.Author(h.Vendor),
		bfbx73.Keywords(""),
		bfbx73.Revision(h.Version),
		bfbx73.Comment(""),
	)

	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(fbxVersion),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(int32(created.Year())),
			bfbx73.Month(int32(created.Month())),
			bfbx73.Day(int32(created.Day())),
			bfbx73.Hour(int32(created.Hour())),
			bfbx73.Minute(int32(created.Minute())),
			bfbx73.Second(int32(created.Second())),
			bfbx73.Millisecond(0),
		),
		bfbx73.Creator(fbxCreator),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			meta,
			info,
		),
	)
}

// y up, z front, right handed, 1 unit = 1 cm
func globalSettings() *fbx.Node {
	props := bfbx73.Properties70()
	for _, axis := range []struct {
		name  string
		value int32
	}{
		{"UpAxis", 1}, {"UpAxisSign", 1},
		{"FrontAxis", 2}, {"FrontAxisSign", 1},
		{"CoordAxis", 0}, {"CoordAxisSign", 1},
		{"OriginalUpAxis", 1}, {"OriginalUpAxisSign", 1},
	} {
		props.AddNodes(bfbx73.P(axis.name, "int", "Integer", "", axis.value))
	}
	props.AddNodes(
		bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
		bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
		bfbx73.P("AmbientColor", "ColorRGB", "Color", "", float64(0), float64(0), float64(0)),
	)
	return bfbx73.GlobalSettings().AddNodes(bfbx73.Version(1000), props)
}

// property templates of object types the exporter emits
var templates = map[string]func() *fbx.Node{
	"Model": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxNode").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("QuaternionInterpolate", "enum", "", "", int32(0)),
			bfbx73.P("Show", "bool", "", "", int32(1)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
			bfbx73.P("Visibility Inheritance", "Visibility Inheritance", "", "", int32(1)),
		))
	},
	"Material": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxSurfacePhong").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("ShadingModel", "KString", "", "", "Phong"),
			bfbx73.P("EmissiveColor", "Color", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("SpecularColor", "Color", "", "A", float64(0.2), float64(0.2), float64(0.2)),
			bfbx73.P("Shininess", "Number", "", "A", float64(20)),
			bfbx73.P("Opacity", "Number", "", "A", float64(1)),
		))
	},
	"Geometry": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxMesh").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
			bfbx73.P("Primary Visibility", "bool", "", "", int32(1)),
			bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
			bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
		))
	},
	"NodeAttribute": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxNull").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("Size", "double", "Number", "", float64(100)),
			bfbx73.P("Look", "enum", "", "", int32(1)),
		))
	},
}

// finishDefinitions writes one ObjectType per kind of object added so far
func (f *FBXBuilder) finishDefinitions() {
	counts := make(map[string]int32)
	for _, object := range f.objects.Nodes {
		counts[object.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	definitions := f.Root().GetNode("Definitions")
	total := int32(1)
	for _, name := range names {
		total += counts[name]

		var objectType *fbx.Node
		for _, ot := range definitions.GetNodes("ObjectType") {
			if ot.Properties[0].(string) == name {
				objectType = ot
			}
		}
		if objectType == nil {
			objectType = bfbx73.ObjectType(name)
			if template, ok := templates[name]; ok {
				objectType.AddNodes(bfbx73.Count(0), template())
			}
			definitions.AddNode(objectType)
		}
		objectType.GetOrAddNode(bfbx73.Count(0)).Properties[0] = counts[name]
	}
	definitions.GetOrAddNode(bfbx73.Count(0)).Properties[0] = total
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

func (f *FBXBuilder) AddCache(key string, v interface{}) {
	f.cache[key] = v
}

func (f *FBXBuilder) GetCached(key string) interface{} {
	return f.cache[key]
}

func (f *FBXBuilder) GetCachedOr(key string, create func() interface{}) interface{} {
	if v, ok := f.cache[key]; ok {
		return v
	}
	v := create()
	f.cache[key] = v
	return v
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }

// Write encodes the document. fbx.Write needs to seek, so it goes through a temp file.
func (f *FBXBuilder) Write(w io.Writer) error {
	f.finishDefinitions()

	tmp, err := os.CreateTemp("", "saturn.*.fbx")
	if err != nil {
		return errors.Wrapf(err, "Can't create temp file")
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := fbx.Write(tmp, f.f); err != nil {
		return errors.Wrapf(err, "Can't encode fbx")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tmp)
	return err
}

// AddExportFile puts a side file next to the document in WriteZip archives
func (f *FBXBuilder) AddExportFile(name string, data []byte) {
	f.files[name] = data
}

func (f *FBXBuilder) WriteZip(w io.Writer, name string) error {
	zw := zip.NewWriter(w)

	fw, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "Can't create zip entry %q", name)
	}
	if err := f.Write(fw); err != nil {
		return errors.Wrapf(err, "Fbx exporting failed")
	}

	names := make([]string, 0, len(f.files))
	for n := range f.files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fw, err := zw.Create(n)
		if err != nil {
			return errors.Wrapf(err, "Can't create zip entry %q", n)
		}
		if _, err := fw.Write(f.files[n]); err != nil {
			return errors.Wrapf(err, "Can't write zip entry %q", n)
		}
	}
	return zw.Close()
}
