package controls

import (
	"math"

	"github.com/mogaika/saturn_viewer/console"
)

type Button int

const (
	ButtonNone Button = iota
	ButtonRotate
	ButtonPan
)

// Mapper turns pointer events into orbit commands.
// It is not safe for concurrent use; call it from the goroutine that owns the target.
type Mapper struct {
	Target console.Target

	RotateSpeed float32 // degrees per pixel
	PanSpeed    float32 // scene units per pixel
	ZoomStep    float32 // distance multiplier per scroll notch

	drag       Button
	lastX      float64
	lastY      float64
	haveCursor bool
}

func NewMapper(target console.Target) *Mapper {
	return &Mapper{
		Target:      target,
		RotateSpeed: 0.25,
		PanSpeed:    1,
		ZoomStep:    0.9,
	}
}

func (m *Mapper) ButtonDown(b Button, x, y float64) {
	if m.drag != ButtonNone {
		return
	}
	m.drag = b
	m.lastX, m.lastY = x, y
	m.haveCursor = true
}

func (m *Mapper) ButtonUp(b Button) {
	if m.drag == b {
		m.drag = ButtonNone
	}
}

func (m *Mapper) Dragging() Button { return m.drag }

func (m *Mapper) Move(x, y float64) {
	if !m.haveCursor {
		m.lastX, m.lastY = x, y
		m.haveCursor = true
		return
	}
	dx, dy := float32(x-m.lastX), float32(y-m.lastY)
	m.lastX, m.lastY = x, y
	if dx == 0 && dy == 0 {
		return
	}

	switch m.drag {
	case ButtonRotate:
		m.Target.Rotate(-dx*m.RotateSpeed, dy*m.RotateSpeed)
	case ButtonPan:
		m.Target.Pan(-dx*m.PanSpeed, dy*m.PanSpeed)
	}
}

// Scroll with positive offset moves the camera closer
func (m *Mapper) Scroll(offset float64) {
	if offset == 0 {
		return
	}
	m.Target.Zoom(float32(math.Pow(float64(m.ZoomStep), offset)))
}

// Resize ignores empty framebuffers, windows report those while minimized
func (m *Mapper) Resize(width, height int) error {
	if width == 0 || height == 0 {
		return nil
	}
	return m.Target.Resize(width, height)
}

func (m *Mapper) Reset() {
	m.drag = ButtonNone
	m.Target.Reset()
}
