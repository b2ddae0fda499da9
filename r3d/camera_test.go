package r3d

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerspectiveResize(t *testing.T) {
	c := NewPerspectiveCamera(45, 800, 600, 1, 23000)
	assert.Equal(t, float32(800)/600, c.Aspect)

	for _, size := range [][2]int{{1920, 1080}, {1, 1000}, {333, 7}} {
		require.NoError(t, c.Resize(size[0], size[1]))
		assert.Equal(t, float32(size[0])/float32(size[1]), c.Aspect)
		assert.Equal(t, size[0], c.Width)
		assert.Equal(t, size[1], c.Height)
		assert.Equal(t, float32(45), c.Fov)
		assert.Equal(t, float32(1), c.Near)
		assert.Equal(t, float32(23000), c.Far)
		assert.Equal(t, mgl32.Perspective(mgl32.DegToRad(45), c.Aspect, 1, 23000), c.ProjectionMatrix())
	}

	for _, size := range [][2]int{{0, 100}, {100, 0}, {-5, 10}} {
		err := c.Resize(size[0], size[1])
		assert.True(t, errors.Is(err, ErrInvalidSize), "%v", err)
	}
	assert.Equal(t, float32(333)/7, c.Aspect)
}

func TestOrbitLookingFrom(t *testing.T) {
	target := mgl32.Vec3{1, 2, 3}
	for _, eye := range []mgl32.Vec3{
		{1, 2, 13},
		{11, 2, 3},
		{-4, 7, -2},
	} {
		c := NewOrbitControllerLookingFrom(eye, target)
		assertVec3(t, eye, c.Position())
		assert.InDelta(t, eye.Sub(target).Len(), c.Distance, 1e-4)
	}
}

func TestOrbitZoomClamped(t *testing.T) {
	c := NewOrbitController(mgl32.Vec3{}, 1000, 0, 0)
	c.SetDistanceLimits(160, 4000)

	for _, scale := range []float32{0.5, 0.01, 100, 3, 0.9, 1e6} {
		assert.True(t, c.Zoom(scale))
		assert.True(t, c.Distance >= 160 && c.Distance <= 4000, "distance %v", c.Distance)
	}

	d := c.Distance
	assert.False(t, c.Zoom(0))
	assert.False(t, c.Zoom(-2))
	assert.Equal(t, d, c.Distance)

	c.EnableZoom = false
	assert.False(t, c.Zoom(0.5))
	assert.Equal(t, d, c.Distance)
}

func TestOrbitSetDistanceLimits(t *testing.T) {
	c := NewOrbitController(mgl32.Vec3{}, 10, 0, 0)
	c.SetDistanceLimits(100, 200)
	assert.Equal(t, float32(100), c.Distance)
	c.SetDistanceLimits(20, 50)
	assert.Equal(t, float32(50), c.Distance)
}

func TestOrbitRotate(t *testing.T) {
	c := NewOrbitController(mgl32.Vec3{}, 10, 0, 0)
	assertVec3(t, mgl32.Vec3{0, 0, 10}, c.Position())

	assert.True(t, c.Rotate(90, 0))
	assertVec3(t, mgl32.Vec3{10, 0, 0}, c.Position())

	c.Rotate(0, 500)
	assert.InDelta(t, orbitMaxPitch, c.Pitch, 1e-4)
	c.Rotate(0, -1000)
	assert.InDelta(t, orbitMinPitch, c.Pitch, 1e-4)

	c.EnableRotate = false
	yaw := c.Yaw
	assert.False(t, c.Rotate(10, 0))
	assert.Equal(t, yaw, c.Yaw)
}

func TestOrbitPan(t *testing.T) {
	c := NewOrbitController(mgl32.Vec3{}, 10, 0, 0)
	assert.True(t, c.Pan(3, 2))
	// looking down -z: right is +x, up is +y
	assertVec3(t, mgl32.Vec3{3, 2, 0}, c.Target)
	assertVec3(t, mgl32.Vec3{3, 2, 10}, c.Position())

	c.EnablePan = false
	assert.False(t, c.Pan(1, 1))
	assertVec3(t, mgl32.Vec3{3, 2, 0}, c.Target)
}

func TestOrbitRejectsOutOfLimitInput(t *testing.T) {
	inf := float32(math.Inf(1))
	nan := float32(math.NaN())
	huge := float32(1e38)

	c := NewOrbitController(mgl32.Vec3{1, 2, 3}, 10, 20, 30)
	for _, v := range []float32{inf, -inf, nan, huge, -huge} {
		assert.False(t, c.Rotate(v, 0), "rotate yaw %v", v)
		assert.False(t, c.Rotate(0, v), "rotate pitch %v", v)
		assert.False(t, c.Pan(v, 0), "pan x %v", v)
		assert.False(t, c.Pan(0, v), "pan y %v", v)
		assert.False(t, c.Zoom(v), "zoom %v", v)
	}
	assert.Equal(t, float32(30), c.Yaw)
	assert.Equal(t, float32(20), c.Pitch)
	assert.Equal(t, float32(10), c.Distance)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, c.Target)

	// unlimited distance range still keeps the result in bounds
	assert.False(t, c.Zoom(OrbitLimit))
	assert.Equal(t, float32(10), c.Distance)

	// the target cannot be walked out of range by repeated pans
	c.Target = mgl32.Vec3{OrbitLimit, 0, 0}
	c.Yaw, c.Pitch = 0, 0
	assert.False(t, c.Pan(OrbitLimit, 0))
	assert.Equal(t, mgl32.Vec3{OrbitLimit, 0, 0}, c.Target)

	assert.True(t, c.Rotate(OrbitLimit, 0))
	assert.True(t, c.Yaw > -360 && c.Yaw < 360, "yaw %v", c.Yaw)
	for _, v := range c.Position() {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}
}

func TestOrbitApply(t *testing.T) {
	s := NewScene()
	node := s.NewCameraNode("camera", NewPerspectiveCamera(45, 100, 100, 1, 100))
	s.Root.MustAdd(node)

	c := NewOrbitControllerLookingFrom(mgl32.Vec3{5, 5, 5}, mgl32.Vec3{1, 0, -1})
	require.NoError(t, c.Apply(node))
	assertVec3(t, mgl32.Vec3{5, 5, 5}, node.WorldPosition())

	// target lies straight ahead on -z in view space
	inView := mgl32.TransformCoordinate(c.Target, ViewMatrix(node))
	assertVec3(t, mgl32.Vec3{0, 0, -c.Distance}, inView)

	pivot := s.NewPivot("pivot", mgl32.Vec3{})
	assert.Equal(t, ErrPivotFixed, c.Apply(pivot))
}
