package export

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/utils/gltfutils"
)

type gltfTextureExported struct {
	TextureIndex uint32
}

type gltfExporter struct {
	cacher       *gltfutils.GLTFCacher
	samplerIndex *uint32
}

// GLTF converts the scene tree under root into a document.
// Images are referenced by their remote url.
func GLTF(root *r3d.Node) (*gltf.Document, error) {
	ge := &gltfExporter{cacher: gltfutils.NewCacher()}
	doc := ge.cacher.Doc

	for _, c := range root.Childs {
		idx, err := ge.exportNode(c)
		if err != nil {
			return nil, err
		}
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, idx)
	}
	return doc, nil
}

func (ge *gltfExporter) exportNode(n *r3d.Node) (uint32, error) {
	doc := ge.cacher.Doc
	q := n.Rotation()
	node := &gltf.Node{
		Name:        n.Name,
		Translation: n.Position(),
		Rotation:    q.V.Vec4(q.W),
		Scale:       n.Scale(),
	}
	index := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, node)

	extras := map[string]interface{}{"id": n.Id, "kind": n.Kind.String()}

	if n.Mesh != nil {
		meshIndex, err := ge.exportMesh(n.Name, n.Mesh)
		if err != nil {
			return 0, errors.Wrapf(err, "Failed to export mesh %q", n.Name)
		}
		node.Mesh = gltf.Index(meshIndex)
		if bump := n.Mesh.Material.BumpMap; bump != nil {
			extras["bumpMap"] = bump.URL
		}
	}
	if n.Camera != nil {
		node.Camera = gltf.Index(ge.exportCamera(n.Name, n.Camera))
	}
	if n.Light != nil {
		extras["light"] = lightExtras(n.Light)
	}
	if n.Flare != nil {
		extras["lensFlare"] = flareExtras(n.Flare)
	}
	node.Extras = extras

	for _, c := range n.Childs {
		childIndex, err := ge.exportNode(c)
		if err != nil {
			return 0, err
		}
		node.Children = append(node.Children, childIndex)
	}
	return index, nil
}

func vec3s(in []mgl32.Vec3) [][3]float32 {
	out := make([][3]float32, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func (ge *gltfExporter) exportMesh(name string, mesh *r3d.Mesh) (uint32, error) {
	doc := ge.cacher.Doc
	g := mesh.Geometry

	attributes := map[string]uint32{
		"POSITION": modeler.WritePosition(doc, vec3s(g.Positions)),
	}
	if len(g.Normals) == len(g.Positions) {
		attributes["NORMAL"] = modeler.WriteNormal(doc, vec3s(g.Normals))
	}
	if len(g.UVs) == len(g.Positions) {
		uvs := make([][2]float32, len(g.UVs))
		for i, uv := range g.UVs {
			uvs[i] = uv
		}
		attributes["TEXCOORD_0"] = modeler.WriteTextureCoord(doc, uvs)
	}
	indices := modeler.WriteIndices(doc, g.Indices)

	materialIndex, err := ge.exportMaterial(name, mesh.Material)
	if err != nil {
		return 0, err
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(indices),
				Attributes: attributes,
				Material:   gltf.Index(materialIndex),
			},
		},
	})
	return uint32(len(doc.Meshes) - 1), nil
}

var shadingNames = map[r3d.Shading]string{
	r3d.ShadingBasic:   "basic",
	r3d.ShadingLambert: "lambert",
	r3d.ShadingPhong:   "phong",
	r3d.ShadingSkybox:  "skybox",
}

func (ge *gltfExporter) exportMaterial(name string, m *r3d.Material) (uint32, error) {
	doc := ge.cacher.Doc

	color := new([4]float32)
	*color = [4]float32{m.Color[0], m.Color[1], m.Color[2], m.Opacity}

	gm := &gltf.Material{
		Name:        name,
		DoubleSided: m.Side == r3d.SideDouble,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: color,
		},
		EmissiveFactor: m.Emissive.RGB(),
		Extras: map[string]interface{}{
			"shading":   shadingNames[m.Shading],
			"shininess": m.Shininess,
			"backSide":  m.Side == r3d.SideBack,
		},
	}
	if m.Transparent || m.Opacity < 1 {
		gm.AlphaMode = gltf.AlphaBlend
	}

	tex := m.Map
	if tex == nil && m.CubeMap != nil {
		tex = m.CubeMap.Faces[0]
	}
	if tex != nil {
		gte := ge.cacher.GetCachedOr(tex.URL, func() interface{} {
			return ge.exportTexture(tex)
		}).(*gltfTextureExported)
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: gte.TextureIndex}
	}

	doc.Materials = append(doc.Materials, gm)
	return uint32(len(doc.Materials) - 1), nil
}

func (ge *gltfExporter) exportTexture(tex *r3d.Texture) *gltfTextureExported {
	doc := ge.cacher.Doc

	if ge.samplerIndex == nil {
		doc.Samplers = append(doc.Samplers, &gltf.Sampler{
			MagFilter: gltf.MagLinear,
			MinFilter: gltf.MinLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		})
		ge.samplerIndex = gltf.Index(uint32(len(doc.Samplers) - 1))
	}

	doc.Images = append(doc.Images, &gltf.Image{
		Name: tex.URL,
		URI:  tex.URL,
	})
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    tex.URL,
		Sampler: ge.samplerIndex,
		Source:  gltf.Index(uint32(len(doc.Images) - 1)),
	})
	return &gltfTextureExported{TextureIndex: uint32(len(doc.Textures) - 1)}
}

func (ge *gltfExporter) exportCamera(name string, c *r3d.PerspectiveCamera) uint32 {
	doc := ge.cacher.Doc
	doc.Cameras = append(doc.Cameras, &gltf.Camera{
		Name: name,
		Perspective: &gltf.Perspective{
			AspectRatio: gltfutils.Float(c.Aspect),
			Yfov:        mgl32.DegToRad(c.Fov),
			Znear:       c.Near,
			Zfar:        gltfutils.Float(c.Far),
		},
	})
	return uint32(len(doc.Cameras) - 1)
}

func lightExtras(l *r3d.Light) map[string]interface{} {
	kind := "ambient"
	if l.Kind == r3d.LightPoint {
		kind = "point"
	}
	return map[string]interface{}{
		"type":      kind,
		"color":     l.Color.RGB(),
		"intensity": l.Intensity,
		"distance":  l.Distance,
		"decay":     l.Decay,
	}
}

func flareExtras(lf *r3d.LensFlare) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(lf.Elements))
	for _, e := range lf.Elements {
		el := map[string]interface{}{
			"size":     e.Size,
			"distance": e.Distance,
			"additive": e.Blending == r3d.BlendAdditive,
			"color":    e.Color.RGB(),
		}
		if e.Texture != nil {
			el["texture"] = e.Texture.URL
		}
		result = append(result, el)
	}
	return result
}
