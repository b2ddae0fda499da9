package tableau

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/utils"
)

type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) vector() mgl32.Vec3 {
	switch a {
	case AxisX:
		return mgl32.Vec3{1, 0, 0}
	case AxisZ:
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}

// Spinner rotates a node around one axis by Rate radians per tick.
// The angle is derived from the tick count, so it does not drift.
type Spinner struct {
	Name string
	Node *r3d.Node
	Axis Axis
	Base float64
	Rate float64
}

func (s *Spinner) Angle(tick uint64) float64 {
	return utils.WrapAngle(s.Base + float64(tick)*s.Rate)
}

func (s *Spinner) apply(tick uint64) {
	s.Node.SetRotation(mgl32.QuatRotate(float32(s.Angle(tick)), s.Axis.vector()))
}
