package tableau

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/utils"
)

// Presenter receives an immutable snapshot once per tick
type Presenter interface {
	Present(f *Frame) error
}

type PresenterFunc func(f *Frame) error

func (fn PresenterFunc) Present(f *Frame) error { return fn(f) }

type SpinnerState struct {
	Name  string  `json:"name"`
	Axis  string  `json:"axis"`
	Angle float64 `json:"angle"`
}

type CameraState struct {
	Eye        mgl32.Vec3 `json:"eye"`
	Target     mgl32.Vec3 `json:"target"`
	Distance   float32    `json:"distance"`
	View       mgl32.Mat4 `json:"view"`
	Projection mgl32.Mat4 `json:"projection"`
	Fov        float32    `json:"fov"`
	Aspect     float32    `json:"aspect"`
	Near       float32    `json:"near"`
	Far        float32    `json:"far"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
}

type NodeState struct {
	Id       uint32       `json:"id"`
	Name     string       `json:"name"`
	Kind     r3d.NodeKind `json:"kind"`
	World    mgl32.Mat4   `json:"world"`
	Textured bool         `json:"textured"`
}

type FlareElementState struct {
	Texture  string           `json:"texture"`
	Size     float32          `json:"size"`
	X        float32          `json:"x"`
	Y        float32          `json:"y"`
	Rotation float32          `json:"rotation"`
	Color    utils.ColorFloat `json:"color"`
	Opacity  float32          `json:"opacity"`
	Additive bool             `json:"additive"`
}

type FlareState struct {
	Visible        bool                `json:"visible"`
	PositionScreen mgl32.Vec3          `json:"position_screen"`
	Elements       []FlareElementState `json:"elements"`
}

// Frame is a copy of what a presenter needs to draw one tick
type Frame struct {
	Tick     uint64         `json:"tick"`
	Spinners []SpinnerState `json:"spinners"`
	Camera   CameraState    `json:"camera"`
	Nodes    []NodeState    `json:"nodes"`
	Flare    FlareState     `json:"flare"`
}

func (f *Frame) Node(name string) (NodeState, bool) {
	for _, n := range f.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return NodeState{}, false
}

func (t *Tableau) AddPresenter(p Presenter) {
	t.presenters = append(t.presenters, p)
}

// Advance applies one tick of animation
func (t *Tableau) Advance() {
	t.tick++
	for _, s := range t.Spinners {
		s.apply(t.tick)
	}
	t.Camera.UpdateProjectionMatrix()
	t.placeFlare()
}

func (t *Tableau) viewProjection() mgl32.Mat4 {
	return t.Camera.ProjectionMatrix().Mul4(r3d.ViewMatrix(t.CameraNode))
}

func (t *Tableau) placeFlare() {
	t.Flare.Place(t.FlareNode.WorldPosition(), t.viewProjection())
}

// Snapshot copies the current state into a new Frame
func (t *Tableau) Snapshot() *Frame {
	f := &Frame{
		Tick:     t.tick,
		Spinners: make([]SpinnerState, len(t.Spinners)),
	}
	for i, s := range t.Spinners {
		f.Spinners[i] = SpinnerState{Name: s.Name, Axis: s.Axis.String(), Angle: s.Angle(t.tick)}
	}

	cameraWorld := t.CameraNode.WorldTransform()
	targetWorld := mgl32.TransformCoordinate(t.Controls.Target, t.CameraPivot.WorldTransform())
	f.Camera = CameraState{
		Eye:        mgl32.TransformCoordinate(mgl32.Vec3{}, cameraWorld),
		Target:     targetWorld,
		Distance:   t.Controls.Distance,
		View:       cameraWorld.Inv(),
		Projection: t.Camera.ProjectionMatrix(),
		Fov:        t.Camera.Fov,
		Aspect:     t.Camera.Aspect,
		Near:       t.Camera.Near,
		Far:        t.Camera.Far,
		Width:      t.Camera.Width,
		Height:     t.Camera.Height,
	}

	t.Scene.Root.Walk(func(n *r3d.Node, _ int) bool {
		if n.Mesh == nil && n.Light == nil {
			return true
		}
		ns := NodeState{Id: n.Id, Name: n.Name, Kind: n.Kind, World: n.WorldTransform()}
		if n.Mesh != nil && n.Mesh.Material != nil {
			ns.Textured = texturesReady(n.Mesh.Material)
		}
		f.Nodes = append(f.Nodes, ns)
		return true
	})

	f.Flare = FlareState{
		Visible:        t.Flare.Visible,
		PositionScreen: t.Flare.PositionScreen,
		Elements:       make([]FlareElementState, len(t.Flare.Elements)),
	}
	for i, e := range t.Flare.Elements {
		es := FlareElementState{
			Size:     e.Size,
			X:        e.X,
			Y:        e.Y,
			Rotation: e.Rotation,
			Color:    e.Color,
			Opacity:  e.Opacity,
			Additive: e.Blending == r3d.BlendAdditive,
		}
		if e.Texture != nil {
			es.Texture = e.Texture.URL
		}
		f.Flare.Elements[i] = es
	}
	return f
}

func texturesReady(m *r3d.Material) bool {
	texs := m.Textures()
	if len(texs) == 0 {
		return false
	}
	for _, tex := range texs {
		if !tex.Ready() {
			return false
		}
	}
	return true
}

// Present snapshots the tableau and hands the frame to every presenter.
// The first presenter error is returned.
func (t *Tableau) Present() error {
	f := t.Snapshot()
	t.lastFrame.Store(f)
	for _, p := range t.presenters {
		if err := p.Present(f); err != nil {
			return errors.Wrapf(err, "Presenter %T failed at tick %d", p, f.Tick)
		}
	}
	return nil
}

// LastFrame is safe to call from any goroutine, nil before the first Present
func (t *Tableau) LastFrame() *Frame {
	if f, ok := t.lastFrame.Load().(*Frame); ok {
		return f
	}
	return nil
}
