package tableau

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/utils"
)

type TextureInfo struct {
	URL   string `json:"url"`
	Ready bool   `json:"ready"`
}

type MeshInfo struct {
	Vertices  int           `json:"vertices"`
	Triangles int           `json:"triangles"`
	Shading   r3d.Shading   `json:"shading"`
	Opacity   float32       `json:"opacity"`
	Textures  []TextureInfo `json:"textures,omitempty"`
}

type LightInfo struct {
	Kind      r3d.LightKind    `json:"kind"`
	Color     utils.ColorFloat `json:"color"`
	Intensity float32          `json:"intensity"`
	Distance  float32          `json:"distance"`
}

type NodeInfo struct {
	Id       uint32       `json:"id"`
	Name     string       `json:"name"`
	Kind     r3d.NodeKind `json:"kind"`
	Position mgl32.Vec3   `json:"position"`
	// degrees
	Rotation mgl32.Vec3 `json:"rotation"`
	Scale    mgl32.Vec3 `json:"scale"`

	Mesh  *MeshInfo  `json:"mesh,omitempty"`
	Light *LightInfo `json:"light,omitempty"`

	Childs []*NodeInfo `json:"childs,omitempty"`

	// names from the scene root, set on the described node only
	Path []string `json:"path,omitempty"`
}

// Describe builds a json friendly copy of the subtree under n
func Describe(n *r3d.Node) *NodeInfo {
	info := describe(n)
	info.Path = n.Path()
	return info
}

func describe(n *r3d.Node) *NodeInfo {
	info := &NodeInfo{
		Id:       n.Id,
		Name:     n.Name,
		Kind:     n.Kind,
		Position: n.Position(),
		Rotation: utils.RadiansToDegreeV3(utils.QuatToEuler(n.Rotation())),
		Scale:    n.Scale(),
	}
	if n.Mesh != nil {
		info.Mesh = &MeshInfo{
			Vertices:  n.Mesh.Geometry.VerticesCount(),
			Triangles: n.Mesh.Geometry.TrianglesCount(),
			Shading:   n.Mesh.Material.Shading,
			Opacity:   n.Mesh.Material.Opacity,
		}
		for _, tex := range n.Mesh.Material.Textures() {
			info.Mesh.Textures = append(info.Mesh.Textures, TextureInfo{URL: tex.URL, Ready: tex.Ready()})
		}
	}
	if n.Light != nil {
		info.Light = &LightInfo{
			Kind:      n.Light.Kind,
			Color:     n.Light.Color,
			Intensity: n.Light.Intensity,
			Distance:  n.Light.Distance,
		}
	}
	for _, c := range n.Childs {
		info.Childs = append(info.Childs, describe(c))
	}
	return info
}
