package r3d

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/saturn_viewer/utils"
)

type Geometry struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

func (g *Geometry) VerticesCount() int  { return len(g.Positions) }
func (g *Geometry) TrianglesCount() int { return len(g.Indices) / 3 }

// Texture is an image referenced by URL. It starts empty and gets
// its image attached once, when the fetch completes.
type Texture struct {
	URL   string
	image image.Image
}

func NewTexture(url string) *Texture {
	if url == "" {
		return nil
	}
	return &Texture{URL: url}
}

func (t *Texture) Ready() bool {
	return t != nil && t.image != nil
}

func (t *Texture) Image() image.Image {
	if t == nil {
		return nil
	}
	return t.image
}

// Attach sets the image if none is set yet. Textured never goes back to untextured.
func (t *Texture) Attach(img image.Image) bool {
	if t == nil || img == nil || t.image != nil {
		return false
	}
	t.image = img
	return true
}

// CubeTexture faces order: +x, -x, +y, -y, +z, -z
type CubeTexture struct {
	Faces [6]*Texture
}

func (c *CubeTexture) Ready() bool {
	if c == nil {
		return false
	}
	for _, f := range c.Faces {
		if !f.Ready() {
			return false
		}
	}
	return true
}

type Shading uint8

const (
	ShadingBasic Shading = iota
	ShadingLambert
	ShadingPhong
	ShadingSkybox
)

type Side uint8

const (
	SideFront Side = iota
	SideBack
	SideDouble
)

type Blending uint8

const (
	BlendNormal Blending = iota
	BlendAdditive
)

type Material struct {
	Shading     Shading
	Color       utils.ColorFloat
	Emissive    utils.ColorFloat
	Specular    utils.ColorFloat
	Shininess   float32
	Opacity     float32
	Transparent bool
	Side        Side
	DepthWrite  bool

	Map     *Texture
	BumpMap *Texture
	CubeMap *CubeTexture
}

func NewMaterial(shading Shading, color utils.ColorFloat) *Material {
	return &Material{
		Shading:    shading,
		Color:      color,
		Emissive:   utils.ColorFloat{0, 0, 0, 1},
		Specular:   utils.NewColorFloatHex(0x111111),
		Shininess:  30,
		Opacity:    1,
		DepthWrite: true,
	}
}

// Textures lists every texture slot that is set
func (m *Material) Textures() []*Texture {
	result := make([]*Texture, 0, 8)
	if m.Map != nil {
		result = append(result, m.Map)
	}
	if m.BumpMap != nil {
		result = append(result, m.BumpMap)
	}
	if m.CubeMap != nil {
		for _, f := range m.CubeMap.Faces {
			if f != nil {
				result = append(result, f)
			}
		}
	}
	return result
}

type Mesh struct {
	Geometry *Geometry
	Material *Material
}

type LightKind uint8

const (
	LightAmbient LightKind = iota
	LightPoint
)

type Light struct {
	Kind      LightKind
	Color     utils.ColorFloat
	Intensity float32
	// point light range, 0 means unlimited
	Distance float32
	Decay    float32
}

func NewAmbientLight(color utils.ColorFloat) *Light {
	return &Light{Kind: LightAmbient, Color: color, Intensity: 1}
}

func NewPointLight(color utils.ColorFloat, intensity, distance, decay float32) *Light {
	return &Light{
		Kind:      LightPoint,
		Color:     color,
		Intensity: intensity,
		Distance:  distance,
		Decay:     decay,
	}
}
