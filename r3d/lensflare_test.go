package r3d

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/mogaika/saturn_viewer/utils"
)

func testFlare() *LensFlare {
	white := utils.ColorFloat{1, 1, 1, 1}
	lf := NewLensFlare(NewTexture("sun.png"), 700, 0, BlendAdditive, white)
	lf.Add(NewTexture("flare2.png"), 60, 0.6, BlendAdditive)
	lf.Add(NewTexture("flare3.png"), 120, 1, BlendAdditive)
	return lf
}

func TestDefaultFlarePlacement(t *testing.T) {
	lf := testFlare()
	lf.PositionScreen = mgl32.Vec3{0.5, 0.25, 0.9}
	DefaultFlarePlacement(lf)

	// mirrored through the screen center, scaled by distance
	expected := [][2]float32{{0.5, 0.25}, {-0.1, -0.05}, {-0.5, -0.25}}
	for i, e := range lf.Elements {
		assert.InDelta(t, expected[i][0], e.X, 1e-5, "element %d", i)
		assert.InDelta(t, expected[i][1], e.Y, 1e-5, "element %d", i)
		assert.Equal(t, float32(0), e.Rotation)
	}
}

func TestFlarePlace(t *testing.T) {
	camera := NewPerspectiveCamera(45, 100, 100, 1, 1000)
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	vp := camera.ProjectionMatrix().Mul4(view)

	lf := testFlare()
	lf.Place(mgl32.Vec3{0, 0, -100}, vp)
	assert.True(t, lf.Visible)
	assert.InDelta(t, 0, lf.PositionScreen.X(), 1e-5)
	for _, e := range lf.Elements {
		assert.InDelta(t, 0, e.X, 1e-5)
		assert.InDelta(t, 0, e.Y, 1e-5)
	}

	lf.Place(mgl32.Vec3{0, 0, 100}, vp)
	assert.False(t, lf.Visible, "behind the camera")

	lf.Place(mgl32.Vec3{1000, 0, -10}, vp)
	assert.False(t, lf.Visible, "outside the view")

	lf.Place(mgl32.Vec3{0, 0, -5000}, vp)
	assert.False(t, lf.Visible, "beyond far plane")

	var called int
	lf.UpdateCallback = func(l *LensFlare) {
		called++
		for _, e := range l.Elements {
			e.Rotation = 1
		}
	}
	lf.Place(mgl32.Vec3{0, 0, -100}, vp)
	assert.Equal(t, 1, called)
	assert.Equal(t, float32(1), lf.Elements[2].Rotation)
}

func TestProjectToScreen(t *testing.T) {
	camera := NewPerspectiveCamera(90, 200, 100, 1, 1000)
	view := mgl32.Ident4()
	vp := camera.ProjectionMatrix().Mul4(view)

	ndc, ok := ProjectToScreen(mgl32.Vec3{0, 10, -10}, vp)
	assert.True(t, ok)
	assert.InDelta(t, 1, ndc.Y(), 1e-4)
	assert.InDelta(t, 0, ndc.X(), 1e-4)

	ndc, ok = ProjectToScreen(mgl32.Vec3{20, 0, -10}, vp)
	assert.True(t, ok)
	assert.InDelta(t, 1, ndc.X(), 1e-4)

	_, ok = ProjectToScreen(mgl32.Vec3{0, 0, 10}, vp)
	assert.False(t, ok)

	// w barely above zero would blow the division up
	tiny := mgl32.Ident4()
	tiny.Set(3, 3, 1e-30)
	ndc, ok = ProjectToScreen(mgl32.Vec3{1, 1, 1}, tiny)
	assert.False(t, ok)
	assert.Equal(t, mgl32.Vec3{}, ndc)
}
