package r3d

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/kamstrup/intmap"
	"github.com/pkg/errors"
)

var (
	ErrHasParent   = errors.New("node already has a parent")
	ErrIsRoot      = errors.New("root node can not be a child")
	ErrCycle       = errors.New("node is an ancestor of the target")
	ErrPivotFixed  = errors.New("pivot position is fixed after creation")
	ErrForeignNode = errors.New("node belongs to another scene")
)

type NodeKind uint8

const (
	KindGroup NodeKind = iota
	KindPivot
	KindMesh
	KindLight
	KindCamera
	KindFlare
)

var nodeKindNames = [...]string{"group", "pivot", "mesh", "light", "camera", "flare"}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "unknown"
}

func (k NodeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *NodeKind) UnmarshalText(text []byte) error {
	for i, name := range nodeKindNames {
		if name == string(text) {
			*k = NodeKind(i)
			return nil
		}
	}
	return errors.Errorf("Unknown node kind %q", text)
}

/*
local transform = T * R * S
world transform = parent world * local
*/

type Node struct {
	Id   uint32
	Name string
	Kind NodeKind

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	Parent *Node
	Childs []*Node

	Mesh   *Mesh
	Light  *Light
	Camera *PerspectiveCamera
	Flare  *LensFlare

	scene *Scene
}

func (n *Node) Position() mgl32.Vec3 { return n.position }
func (n *Node) Rotation() mgl32.Quat { return n.rotation }
func (n *Node) Scale() mgl32.Vec3    { return n.scale }
func (n *Node) IsRoot() bool         { return n.scene != nil && n.scene.Root == n }

// SetPosition moves the node. Pivots keep the position they were created with.
func (n *Node) SetPosition(p mgl32.Vec3) error {
	if n.Kind == KindPivot {
		return ErrPivotFixed
	}
	n.position = p
	return nil
}

func (n *Node) SetRotation(q mgl32.Quat) { n.rotation = q }
func (n *Node) SetScale(s mgl32.Vec3)    { n.scale = s }

// SetEuler sets rotation from radians applied in X, Y, Z order
func (n *Node) SetEuler(x, y, z float32) {
	n.rotation = mgl32.AnglesToQuat(x, y, z, mgl32.XYZ).Normalize()
}

// Add attaches child. A node has exactly one parent, the root has none.
func (n *Node) Add(child *Node) error {
	if child.scene != n.scene {
		return ErrForeignNode
	}
	if child.IsRoot() {
		return ErrIsRoot
	}
	if child.Parent != nil {
		return errors.Wrapf(ErrHasParent, "%q is a child of %q", child.Name, child.Parent.Name)
	}
	for p := n; p != nil; p = p.Parent {
		if p == child {
			return errors.Wrapf(ErrCycle, "%q into %q", child.Name, n.Name)
		}
	}
	child.Parent = n
	n.Childs = append(n.Childs, child)
	return nil
}

// MustAdd panics on invalid parenting, used by fixed scene setup code
func (n *Node) MustAdd(childs ...*Node) *Node {
	for _, c := range childs {
		if err := n.Add(c); err != nil {
			panic(err)
		}
	}
	return n
}

func (n *Node) LocalTransform() mgl32.Mat4 {
	translate := mgl32.Translate3D(n.position.X(), n.position.Y(), n.position.Z())
	rotate := n.rotation.Mat4()
	scale := mgl32.Scale3D(n.scale.X(), n.scale.Y(), n.scale.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

func (n *Node) WorldTransform() mgl32.Mat4 {
	m := n.LocalTransform()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalTransform().Mul4(m)
	}
	return m
}

func (n *Node) WorldPosition() mgl32.Vec3 {
	return mgl32.TransformCoordinate(mgl32.Vec3{}, n.WorldTransform())
}

// Path returns names from the root down to n
func (n *Node) Path() []string {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	path := make([]string, depth)
	for p := n; p != nil; p = p.Parent {
		depth--
		path[depth] = p.Name
	}
	return path
}

// Walk visits n and its descendants depth first. Returning false skips the childs.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Childs {
		c.walk(fn, depth+1)
	}
}

type Scene struct {
	Root *Node

	nodes  *intmap.Map[uint32, *Node]
	lastId uint32
}

func NewScene() *Scene {
	s := &Scene{nodes: intmap.New[uint32, *Node](64)}
	s.Root = s.NewNode("scene", KindGroup)
	return s
}

func (s *Scene) NewNode(name string, kind NodeKind) *Node {
	s.lastId++
	n := &Node{
		Id:       s.lastId,
		Name:     name,
		Kind:     kind,
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
		scene:    s,
	}
	s.nodes.Put(n.Id, n)
	return n
}

// NewPivot creates a geometry-less node whose position never changes
func (s *Scene) NewPivot(name string, position mgl32.Vec3) *Node {
	n := s.NewNode(name, KindPivot)
	n.position = position
	return n
}

func (s *Scene) NewMeshNode(name string, mesh *Mesh) *Node {
	n := s.NewNode(name, KindMesh)
	n.Mesh = mesh
	return n
}

func (s *Scene) NewLightNode(name string, light *Light) *Node {
	n := s.NewNode(name, KindLight)
	n.Light = light
	return n
}

func (s *Scene) NewCameraNode(name string, camera *PerspectiveCamera) *Node {
	n := s.NewNode(name, KindCamera)
	n.Camera = camera
	return n
}

func (s *Scene) NewFlareNode(name string, flare *LensFlare) *Node {
	n := s.NewNode(name, KindFlare)
	n.Flare = flare
	return n
}

func (s *Scene) Node(id uint32) (*Node, bool) {
	return s.nodes.Get(id)
}

func (s *Scene) Len() int {
	return s.nodes.Len()
}

// Attached reports nodes reachable from the root
func (s *Scene) Attached() []*Node {
	result := make([]*Node, 0, s.nodes.Len())
	s.Root.Walk(func(n *Node, _ int) bool {
		result = append(result, n)
		return true
	})
	return result
}
