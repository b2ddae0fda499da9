package export

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"image"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/saturn_viewer/config"
	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/tableau"
	"github.com/mogaika/saturn_viewer/utils"
)

const testTextureURL = "http://localhost/textures/rock.jpg"

type testScene struct {
	scene *r3d.Scene
	pivot *r3d.Node
	box   *r3d.Node
	ball  *r3d.Node
}

func newTestScene() *testScene {
	s := r3d.NewScene()
	tex := r3d.NewTexture(testTextureURL)

	boxMat := r3d.NewMaterial(r3d.ShadingPhong, utils.NewColorFloatHex(0xff8000))
	boxMat.Map = tex
	ballMat := r3d.NewMaterial(r3d.ShadingLambert, utils.NewColorFloatHex(0xffffff))
	ballMat.Map = tex

	ts := &testScene{
		scene: s,
		pivot: s.NewPivot("pivot", mgl32.Vec3{10, 0, 0}),
		box:   s.NewMeshNode("box", &r3d.Mesh{Geometry: r3d.BoxGeometry(2), Material: boxMat}),
		ball:  s.NewMeshNode("ball", &r3d.Mesh{Geometry: r3d.SphereGeometry(1, 8, 6), Material: ballMat}),
	}
	ts.pivot.MustAdd(ts.box, ts.ball)
	s.Root.MustAdd(
		ts.pivot,
		s.NewCameraNode("camera", r3d.NewPerspectiveCamera(45, 800, 600, 1, 1000)),
		s.NewLightNode("light", r3d.NewPointLight(utils.NewColorFloatHex(0xffffff), 1.5, 0, 1)),
	)
	return ts
}

func TestGLTF(t *testing.T) {
	ts := newTestScene()

	doc, err := GLTF(ts.scene.Root)
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 5)
	assert.Len(t, doc.Scenes[0].Nodes, 3)
	assert.Len(t, doc.Meshes, 2)
	assert.Len(t, doc.Materials, 2)
	assert.Len(t, doc.Images, 1, "shared texture is exported once")
	assert.Len(t, doc.Textures, 1)
	assert.Len(t, doc.Cameras, 1)

	pivot := doc.Nodes[doc.Scenes[0].Nodes[0]]
	assert.Equal(t, "pivot", pivot.Name)
	assert.Equal(t, [3]float32{10, 0, 0}, pivot.Translation)
	assert.Equal(t, [3]float32{1, 1, 1}, pivot.Scale)
	require.Len(t, pivot.Children, 2)

	box := doc.Nodes[pivot.Children[0]]
	assert.Equal(t, "box", box.Name)
	require.NotNil(t, box.Mesh)
	prim := doc.Meshes[*box.Mesh].Primitives[0]
	assert.Contains(t, prim.Attributes, "POSITION")
	assert.Contains(t, prim.Attributes, "NORMAL")
	assert.Contains(t, prim.Attributes, "TEXCOORD_0")
	require.NotNil(t, prim.Indices)
	assert.Equal(t, uint32(len(ts.box.Mesh.Geometry.Indices)), doc.Accessors[*prim.Indices].Count)

	assert.Equal(t, testTextureURL, doc.Images[0].URI)
	material := doc.Materials[*prim.Material]
	require.NotNil(t, material.PBRMetallicRoughness.BaseColorTexture)
	assert.Equal(t, uint32(0), material.PBRMetallicRoughness.BaseColorTexture.Index)

	light := doc.Nodes[doc.Scenes[0].Nodes[2]]
	extras, ok := light.Extras.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, extras, "light")
}

func TestGLTFEncoding(t *testing.T) {
	ts := newTestScene()

	enc, err := Prepare(ts.scene.Root, "gltf", "scene")
	require.NoError(t, err)
	var text bytes.Buffer
	require.NoError(t, enc(&text))
	assert.True(t, bytes.HasPrefix(bytes.TrimSpace(text.Bytes()), []byte("{")))
	assert.Contains(t, text.String(), "base64")
	assert.Contains(t, text.String(), testTextureURL)

	enc, err = Prepare(ts.scene.Root, "glb", "scene")
	require.NoError(t, err)
	var bin bytes.Buffer
	require.NoError(t, enc(&bin))
	assert.True(t, bytes.HasPrefix(bin.Bytes(), []byte("glTF")))
}

func TestPrepareFormats(t *testing.T) {
	ts := newTestScene()
	prefixes := map[string]string{
		"gltf": "{",
		"glb":  "glTF",
		"fbx":  "Kaydara FBX Binary",
		"zip":  "PK",
		"obj":  "# saturn_viewer scene",
	}
	require.Len(t, Formats, len(prefixes))
	for _, format := range Formats {
		enc, err := Prepare(ts.scene.Root, format, "")
		require.NoError(t, err, format)
		var buf bytes.Buffer
		require.NoError(t, enc(&buf), format)
		assert.True(t, bytes.HasPrefix(bytes.TrimSpace(buf.Bytes()), []byte(prefixes[format])), format)
	}

	_, err := Prepare(ts.scene.Root, "dae", "scene")
	assert.Error(t, err)
}

func TestFBX(t *testing.T) {
	ts := newTestScene()

	f, fe := FBX(ts.scene.Root, "scene.fbx")
	require.Len(t, fe.Nodes, 5)

	meshes := 0
	for _, n := range fe.Nodes {
		assert.NotZero(t, n.FbxModelId)
		if n.Node.Mesh != nil {
			meshes++
			assert.NotZero(t, n.FbxGeometryId)
			assert.NotZero(t, n.FbxMaterialId)
		}
	}
	assert.Equal(t, 2, meshes)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("Kaydara FBX Binary")))
}

func TestFBXZip(t *testing.T) {
	ts := newTestScene()
	ts.box.Mesh.Material.Map.Attach(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	ts.ball.Mesh.Material.BumpMap = r3d.NewTexture("http://localhost/other/rock.png")
	ts.ball.Mesh.Material.BumpMap.Attach(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	// not loaded yet
	ts.box.Mesh.Material.BumpMap = r3d.NewTexture("http://localhost/textures/pending.jpg")

	enc, err := Prepare(ts.scene.Root, "zip", "scene")
	require.NoError(t, err)
	// the scene may change after prepare
	ts.box.Mesh.Material.BumpMap.Attach(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	var buf bytes.Buffer
	require.NoError(t, enc(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"scene.fbx", "rock.png", "rock_1.png"}, names)
}

func TestOBJ(t *testing.T) {
	ts := newTestScene()

	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, ts.scene.Root))

	counts := map[string]int{}
	var firstVertex string
	var maxIndex int
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		counts[fields[0]]++
		if fields[0] == "v" && firstVertex == "" {
			firstVertex = line
		}
		if fields[0] == "f" {
			for _, f := range fields[1:] {
				var v int
				fmt.Sscanf(f, "%d", &v)
				if v > maxIndex {
					maxIndex = v
				}
			}
		}
	}
	require.NoError(t, scanner.Err())

	boxGeom, ballGeom := ts.box.Mesh.Geometry, ts.ball.Mesh.Geometry
	vertices := boxGeom.VerticesCount() + ballGeom.VerticesCount()

	assert.Equal(t, 2, counts["o"])
	assert.Equal(t, vertices, counts["v"])
	assert.Equal(t, vertices, counts["vt"])
	assert.Equal(t, vertices, counts["vn"])
	assert.Equal(t, boxGeom.TrianglesCount()+ballGeom.TrianglesCount(), counts["f"])
	assert.Equal(t, vertices, maxIndex)

	p := boxGeom.Positions[0].Add(mgl32.Vec3{10, 0, 0})
	assert.Equal(t, fmt.Sprintf("v %f %f %f", p[0], p[1], p[2]), firstVertex)
}

func TestExportTableau(t *testing.T) {
	tb, err := tableau.Build(config.Default())
	require.NoError(t, err)

	attached := tb.Scene.Attached()
	doc, err := GLTF(tb.Scene.Root)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes, len(attached)-1)

	names := make(map[string]bool)
	for _, n := range doc.Nodes {
		names[n.Name] = true
	}
	for _, name := range []string{"saturn", "rings", "enceladus", "skybox", "camera", "lensFlare"} {
		assert.True(t, names[name], name)
	}

	_, fe := FBX(tb.Scene.Root, "tableau.fbx")
	assert.Len(t, fe.Nodes, len(attached)-1)
}
