package r3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/utils"
)

var ErrInvalidSize = errors.New("surface size must be positive")

type PerspectiveCamera struct {
	Fov    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32

	// output surface size in pixels
	Width  int
	Height int

	projection mgl32.Mat4
}

func NewPerspectiveCamera(fov float32, width, height int, near, far float32) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Fov:    fov,
		Aspect: float32(width) / float32(height),
		Near:   near,
		Far:    far,
		Width:  width,
		Height: height,
	}
	c.UpdateProjectionMatrix()
	return c
}

func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.Aspect, c.Near, c.Far)
}

func (c *PerspectiveCamera) ProjectionMatrix() mgl32.Mat4 {
	return c.projection
}

// Resize sets aspect to exactly width/height and leaves everything else as is
func (c *PerspectiveCamera) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Wrapf(ErrInvalidSize, "%dx%d", width, height)
	}
	c.Width = width
	c.Height = height
	c.Aspect = float32(width) / float32(height)
	c.UpdateProjectionMatrix()
	return nil
}

// ViewMatrix of a camera node is the inverse of its world transform
func ViewMatrix(cameraNode *Node) mgl32.Mat4 {
	return cameraNode.WorldTransform().Inv()
}

const (
	orbitMinPitch = -89.9
	orbitMaxPitch = 89.9
)

// OrbitController keeps a camera on a sphere around Target.
// Angles are degrees, everything is in the space of the camera node parent.
type OrbitController struct {
	Target   mgl32.Vec3
	Distance float32
	Pitch    float32 // x rotation
	Yaw      float32 // y rotation

	MinDistance float32
	MaxDistance float32

	EnableRotate bool
	EnableZoom   bool
	EnablePan    bool
}

func NewOrbitController(target mgl32.Vec3, dist, pitch, yaw float32) *OrbitController {
	return &OrbitController{
		Target:       target,
		Distance:     dist,
		Pitch:        utils.ClampF32(pitch, orbitMinPitch, orbitMaxPitch),
		Yaw:          yaw,
		MinDistance:  0,
		MaxDistance:  float32(math.Inf(1)),
		EnableRotate: true,
		EnableZoom:   true,
		EnablePan:    true,
	}
}

// NewOrbitControllerLookingFrom places the orbit so that Position() == eye
func NewOrbitControllerLookingFrom(eye, target mgl32.Vec3) *OrbitController {
	offset := eye.Sub(target)
	dist := offset.Len()
	var pitch, yaw float32
	if dist > 0 {
		pitch = mgl32.RadToDeg(float32(math.Asin(float64(offset.Y() / dist))))
		yaw = mgl32.RadToDeg(float32(math.Atan2(float64(offset.X()), float64(offset.Z()))))
	}
	return NewOrbitController(target, dist, pitch, yaw)
}

func (c *OrbitController) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

func (c *OrbitController) Position() mgl32.Vec3 {
	return mgl32.Vec3{
		c.Distance * float32(math.Cos(float64(mgl32.DegToRad(c.Pitch)))*math.Sin(float64(mgl32.DegToRad(c.Yaw)))),
		c.Distance * float32(math.Sin(float64(mgl32.DegToRad(c.Pitch)))),
		c.Distance * float32(math.Cos(float64(mgl32.DegToRad(c.Pitch)))*math.Cos(float64(mgl32.DegToRad(c.Yaw)))),
	}.Add(c.Target)
}

// SetDistanceLimits also pulls the current distance into the new range
func (c *OrbitController) SetDistanceLimits(min, max float32) {
	c.MinDistance = min
	c.MaxDistance = max
	c.Distance = utils.ClampF32(c.Distance, c.MinDistance, c.MaxDistance)
}

// OrbitLimit bounds every input delta and the resulting target and distance.
// NaN and infinities are out of range too.
const OrbitLimit = 1e6

func inOrbitLimit(values ...float32) bool {
	for _, v := range values {
		if !(math.Abs(float64(v)) <= OrbitLimit) {
			return false
		}
	}
	return true
}

// Rotate turns the orbit by the given degrees. Deltas out of OrbitLimit are ignored.
func (c *OrbitController) Rotate(dYaw, dPitch float32) bool {
	if !c.EnableRotate || !inOrbitLimit(dYaw, dPitch) {
		return false
	}
	c.Yaw = float32(math.Mod(float64(c.Yaw)+float64(dYaw), 360))
	c.Pitch = utils.ClampF32(c.Pitch+dPitch, orbitMinPitch, orbitMaxPitch)
	return true
}

// Zoom multiplies the distance by scale, result is clamped to [MinDistance, MaxDistance]
func (c *OrbitController) Zoom(scale float32) bool {
	if !c.EnableZoom || scale <= 0 || !inOrbitLimit(scale) {
		return false
	}
	dist := utils.ClampF32(c.Distance*scale, c.MinDistance, c.MaxDistance)
	if !inOrbitLimit(dist) {
		return false
	}
	c.Distance = dist
	return true
}

// Pan shifts the target along the view plane axes.
// A shift that would move the target out of OrbitLimit is ignored.
func (c *OrbitController) Pan(dx, dy float32) bool {
	if !c.EnablePan || !inOrbitLimit(dx, dy) {
		return false
	}
	view := c.GetViewMatrix()
	// rows of the view rotation are the camera axes
	right := mgl32.Vec3{view.At(0, 0), view.At(0, 1), view.At(0, 2)}
	up := mgl32.Vec3{view.At(1, 0), view.At(1, 1), view.At(1, 2)}
	target := c.Target.Add(right.Mul(dx)).Add(up.Mul(dy))
	if !inOrbitLimit(target[:]...) {
		return false
	}
	c.Target = target
	return true
}

// Apply moves node to Position() and turns it to look at Target
func (c *OrbitController) Apply(node *Node) error {
	eye := c.Position()
	if err := node.SetPosition(eye); err != nil {
		return err
	}
	world := mgl32.LookAtV(eye, c.Target, mgl32.Vec3{0, 1, 0}).Inv()
	node.SetRotation(mgl32.Mat4ToQuat(world.Mat3().Mat4()).Normalize())
	return nil
}
