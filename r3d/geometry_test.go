package r3d

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/mogaika/saturn_viewer/utils"
)

func checkIndices(t *testing.T, g *Geometry) {
	t.Helper()
	assert.Equal(t, 0, len(g.Indices)%3)
	for _, i := range g.Indices {
		if !assert.Less(t, int(i), len(g.Positions)) {
			return
		}
	}
	assert.Len(t, g.Normals, len(g.Positions))
	assert.Len(t, g.UVs, len(g.Positions))
}

func TestSphereGeometry(t *testing.T) {
	for _, test := range []struct {
		w, h, vertices, triangles int
	}{
		{64, 64, 65 * 65, 2 * 64 * 63},
		{32, 32, 33 * 33, 2 * 32 * 31},
		{3, 2, 4 * 3, 2 * 3 * 1},
		{1, 1, 4 * 3, 2 * 3 * 1},
	} {
		g := SphereGeometry(80, test.w, test.h)
		assert.Equal(t, test.vertices, g.VerticesCount(), "%dx%d", test.w, test.h)
		assert.Equal(t, test.triangles, g.TrianglesCount(), "%dx%d", test.w, test.h)
		checkIndices(t, g)
	}

	g := SphereGeometry(80, 16, 8)
	for i, p := range g.Positions {
		assert.InDelta(t, 80, p.Len(), 1e-3)
		assert.InDelta(t, 1, g.Normals[i].Len(), 1e-4)
	}
}

func TestRingGeometry(t *testing.T) {
	g := RingGeometry(1800, 3000, 64, 8, 0, 2*3.14159265)
	assert.Equal(t, 65*9, g.VerticesCount())
	assert.Equal(t, 2*64*8, g.TrianglesCount())
	checkIndices(t, g)

	for i, p := range g.Positions {
		assert.Equal(t, float32(0), p.Y())
		r := p.Len()
		assert.True(t, r >= 1800-1e-2 && r <= 3000+1e-2, "radius %v", r)
		assert.Equal(t, mgl32.Vec3{0, 1, 0}, g.Normals[i])
	}
	// u goes across the ring
	assert.Equal(t, float32(0), g.UVs[0].X())
	assert.Equal(t, float32(1), g.UVs[len(g.UVs)-1].X())
}

func TestBoxGeometry(t *testing.T) {
	g := BoxGeometry(2)
	assert.Equal(t, 24, g.VerticesCount())
	assert.Equal(t, 12, g.TrianglesCount())
	checkIndices(t, g)

	for _, p := range g.Positions {
		for _, c := range p {
			assert.InDelta(t, 1, abs32(c), 1e-6)
		}
	}

	// triangles wind counter clockwise seen from outside
	for i := 0; i < len(g.Indices); i += 3 {
		a, b, c := g.Positions[g.Indices[i]], g.Positions[g.Indices[i+1]], g.Positions[g.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		assert.True(t, n.Dot(g.Normals[g.Indices[i]]) > 0, "triangle %d", i/3)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestTextureAttach(t *testing.T) {
	assert.Nil(t, NewTexture(""))

	var none *Texture
	assert.False(t, none.Ready())
	assert.Nil(t, none.Image())
	assert.False(t, none.Attach(image.NewRGBA(image.Rect(0, 0, 1, 1))))

	tex := NewTexture("http://localhost/a.png")
	assert.False(t, tex.Ready())
	assert.False(t, tex.Attach(nil))

	first := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.True(t, tex.Attach(first))
	assert.True(t, tex.Ready())
	assert.False(t, tex.Attach(image.NewRGBA(image.Rect(0, 0, 4, 4))))
	assert.Equal(t, first, tex.Image())
}

func TestCubeTextureReady(t *testing.T) {
	var none *CubeTexture
	assert.False(t, none.Ready())

	c := &CubeTexture{}
	for i := range c.Faces {
		c.Faces[i] = NewTexture("http://localhost/face.png")
	}
	assert.False(t, c.Ready())
	for i, f := range c.Faces {
		assert.False(t, c.Ready(), "face %d", i)
		f.Attach(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	}
	assert.True(t, c.Ready())
}

func TestMaterialTextures(t *testing.T) {
	m := NewMaterial(ShadingPhong, utils.ColorFloat{1, 1, 1, 1})
	assert.Empty(t, m.Textures())
	assert.Equal(t, float32(1), m.Opacity)
	assert.True(t, m.DepthWrite)

	m.Map = NewTexture("map.jpg")
	m.BumpMap = NewTexture("bump.jpg")
	m.CubeMap = &CubeTexture{}
	m.CubeMap.Faces[2] = NewTexture("face.jpg")
	assert.Equal(t, []*Texture{m.Map, m.BumpMap, m.CubeMap.Faces[2]}, m.Textures())
}
