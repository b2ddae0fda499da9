package export

import (
	"bytes"
	"fmt"
	"image/png"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/utils"
	"github.com/mogaika/saturn_viewer/utils/fbxbuilder"
)

type FbxExportNode struct {
	FbxModelId int64
	FbxModel   *fbx.Node

	FbxGeometryId int64
	FbxMaterialId int64

	Node *r3d.Node
}

type FbxExporter struct {
	Nodes []*FbxExportNode
}

// FBX builds a document with one Model per scene node, connected the same way
// nodes are parented. filename only lands in the header.
func FBX(root *r3d.Node, filename string) (*fbxbuilder.FBXBuilder, *FbxExporter) {
	f := fbxbuilder.NewFBXBuilder(filename)
	fe := &FbxExporter{Nodes: make([]*FbxExportNode, 0)}

	for _, c := range root.Childs {
		fen := fe.exportNode(f, c)
		f.AddConnections(bfbx73.C("OO", fen.FbxModelId, 0))
	}
	return f, fe
}

func textureFileName(url string, taken map[string]bool) string {
	base := path.Base(url)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "texture"
	}
	name := base + ".png"
	for i := 1; taken[name]; i++ {
		name = fmt.Sprintf("%s_%d.png", base, i)
	}
	taken[name] = true
	return name
}

// AttachTextures adds every loaded texture under root to the archive of f as png.
// Textures still being fetched are skipped.
func AttachTextures(f *fbxbuilder.FBXBuilder, root *r3d.Node) error {
	taken := make(map[string]bool)
	var err error
	root.Walk(func(n *r3d.Node, _ int) bool {
		if err != nil {
			return false
		}
		var texs []*r3d.Texture
		if n.Mesh != nil && n.Mesh.Material != nil {
			texs = append(texs, n.Mesh.Material.Textures()...)
		}
		if n.Flare != nil {
			for _, e := range n.Flare.Elements {
				texs = append(texs, e.Texture)
			}
		}

		for _, tex := range texs {
			if !tex.Ready() || f.GetCached("texture:"+tex.URL) != nil {
				continue
			}
			var buf bytes.Buffer
			if err = png.Encode(&buf, tex.Image()); err != nil {
				err = errors.Wrapf(err, "Failed to encode %q", tex.URL)
				return false
			}
			name := textureFileName(tex.URL, taken)
			f.AddCache("texture:"+tex.URL, name)
			f.AddExportFile(name, buf.Bytes())
		}
		return true
	})
	return err
}

func transformProperties(n *r3d.Node) *fbx.Node {
	pos := n.Position()
	rot := utils.RadiansToDegreeV3(utils.QuatToEuler(n.Rotation()))
	scale := n.Scale()
	return bfbx73.Properties70().AddNodes(
		bfbx73.P("InheritType", "enum", "", "", int32(1)),
		bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
		bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
			float64(pos[0]), float64(pos[1]), float64(pos[2])),
		bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
			float64(rot[0]), float64(rot[1]), float64(rot[2])),
		bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A",
			float64(scale[0]), float64(scale[1]), float64(scale[2])),
	)
}

func (fe *FbxExporter) exportNode(f *fbxbuilder.FBXBuilder, n *r3d.Node) *FbxExportNode {
	fen := &FbxExportNode{
		FbxModelId: f.GenerateId(),
		Node:       n,
	}

	modelType := "Null"
	if n.Mesh != nil {
		modelType = "Mesh"
	}

	fen.FbxModel = bfbx73.Model(fen.FbxModelId, n.Name+"\x00\x01Model", modelType).AddNodes(
		bfbx73.Version(232),
		transformProperties(n),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	f.AddObjects(fen.FbxModel)

	if n.Mesh != nil {
		fen.FbxGeometryId = fe.exportGeometry(f, n.Mesh.Geometry)
		fen.FbxMaterialId = fe.exportMaterial(f, n.Name, n.Mesh.Material)
		f.AddConnections(
			bfbx73.C("OO", fen.FbxGeometryId, fen.FbxModelId),
			bfbx73.C("OO", fen.FbxMaterialId, fen.FbxModelId),
		)
	} else {
		nodeAttribute := bfbx73.NodeAttribute(f.GenerateId(), n.Name+"\x00\x01NodeAttribute", "Null").AddNodes(
			bfbx73.TypeFlags("Null"),
		)
		f.AddObjects(nodeAttribute)
		f.AddConnections(bfbx73.C("OO", nodeAttribute.Properties[0].(int64), fen.FbxModelId))
	}

	fe.Nodes = append(fe.Nodes, fen)

	for _, c := range n.Childs {
		child := fe.exportNode(f, c)
		f.AddConnections(bfbx73.C("OO", child.FbxModelId, fen.FbxModelId))
	}
	return fen
}

func (fe *FbxExporter) exportGeometry(f *fbxbuilder.FBXBuilder, g *r3d.Geometry) int64 {
	vertices := make([]float64, 0, len(g.Positions)*3)
	for _, p := range g.Positions {
		vertices = append(vertices, float64(p[0]), float64(p[1]), float64(p[2]))
	}

	// negative index closes a polygon
	indexes := make([]int32, len(g.Indices))
	uvindexes := make([]int32, len(g.Indices))
	for i, idx := range g.Indices {
		indexes[i] = int32(idx)
		uvindexes[i] = int32(idx)
		if i%3 == 2 {
			indexes[i] = -int32(idx) - 1
		}
	}

	geometryId := f.GenerateId()
	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)

	geometry := bfbx73.Geometry(geometryId, "\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	if len(g.Normals) == len(g.Positions) {
		normals := make([]float64, 0, len(g.Normals)*3)
		for _, n := range g.Normals {
			normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
		}
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	if len(g.UVs) == len(g.Positions) {
		uv := make([]float64, 0, len(g.UVs)*2)
		for _, t := range g.UVs {
			uv = append(uv, float64(t[0]), float64(t[1]))
		}
		geometry.AddNode(
			bfbx73.LayerElementUV(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByPolygonVertex"),
				bfbx73.ReferenceInformationType("IndexToDirect"),
				bfbx73.UV(uv),
				bfbx73.UVIndex(uvindexes),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementUV"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	geometry.AddNode(
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		),
	)
	geometryLayer.AddNode(
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	f.AddObjects(geometry)
	return geometryId
}

func (fe *FbxExporter) exportMaterial(f *fbxbuilder.FBXBuilder, name string, m *r3d.Material) int64 {
	shading := "lambert"
	if m.Shading == r3d.ShadingPhong {
		shading = "phong"
	}

	c := m.Color
	e := m.Emissive
	s := m.Specular
	props := bfbx73.Properties70().AddNodes(
		bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
		bfbx73.P("DiffuseColor", "Color", "", "A", float64(c[0]), float64(c[1]), float64(c[2])),
		bfbx73.P("EmissiveColor", "Color", "", "A", float64(e[0]), float64(e[1]), float64(e[2])),
		bfbx73.P("SpecularColor", "Color", "", "A", float64(s[0]), float64(s[1]), float64(s[2])),
		bfbx73.P("Shininess", "double", "Number", "", float64(m.Shininess)),
		bfbx73.P("Emissive", "Vector3D", "Vector", "", float64(e[0]), float64(e[1]), float64(e[2])),
		bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(c[0]), float64(c[1]), float64(c[2])),
		bfbx73.P("Opacity", "double", "Number", "", float64(m.Opacity)),
	)
	// remote images are not embedded, keep their urls as user properties
	for _, tex := range []struct {
		prop string
		t    *r3d.Texture
	}{{"MapUrl", m.Map}, {"BumpMapUrl", m.BumpMap}} {
		if tex.t != nil {
			props.AddNode(bfbx73.P(tex.prop, "KString", "", "U", tex.t.URL))
		}
	}

	materialId := f.GenerateId()
	f.AddObjects(bfbx73.Material(materialId, name+"\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel(shading),
		bfbx73.MultiLayer(0),
		props,
	))
	return materialId
}
