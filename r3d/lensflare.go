package r3d

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/saturn_viewer/utils"
)

// FlareElement is one screen-space sprite. X and Y are normalized device
// coordinates recomputed every frame.
type FlareElement struct {
	Texture  *Texture
	Size     float32 // pixels
	Distance float32 // 0 at the light, 1 at the mirrored point
	Blending Blending
	Color    utils.ColorFloat
	Opacity  float32

	X, Y     float32
	Rotation float32
}

type LensFlare struct {
	Elements []*FlareElement

	// light position in normalized device coordinates
	PositionScreen mgl32.Vec3
	Visible        bool

	// replaces DefaultFlarePlacement when set
	UpdateCallback func(lf *LensFlare)
}

func NewLensFlare(texture *Texture, size, distance float32, blending Blending, color utils.ColorFloat) *LensFlare {
	lf := &LensFlare{}
	lf.AddColored(texture, size, distance, blending, color, 1)
	return lf
}

func (lf *LensFlare) Add(texture *Texture, size, distance float32, blending Blending) {
	lf.AddColored(texture, size, distance, blending, utils.ColorFloat{1, 1, 1, 1}, 1)
}

func (lf *LensFlare) AddColored(texture *Texture, size, distance float32, blending Blending, color utils.ColorFloat, opacity float32) {
	lf.Elements = append(lf.Elements, &FlareElement{
		Texture:  texture,
		Size:     size,
		Distance: distance,
		Blending: blending,
		Color:    color,
		Opacity:  opacity,
	})
}

// ProjectToScreen returns NDC of world point and false when it is behind the camera
func ProjectToScreen(world mgl32.Vec3, viewProjection mgl32.Mat4) (mgl32.Vec3, bool) {
	clip := viewProjection.Mul4x1(world.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec3{}, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	if !inOrbitLimit(ndc[:]...) {
		return mgl32.Vec3{}, false
	}
	return ndc, true
}

// Place projects the light and lays the elements out along the line through the screen center
func (lf *LensFlare) Place(world mgl32.Vec3, viewProjection mgl32.Mat4) {
	ps, inFront := ProjectToScreen(world, viewProjection)
	lf.PositionScreen = ps
	lf.Visible = inFront &&
		ps.X() >= -1 && ps.X() <= 1 &&
		ps.Y() >= -1 && ps.Y() <= 1 &&
		ps.Z() >= -1 && ps.Z() <= 1

	if lf.UpdateCallback != nil {
		lf.UpdateCallback(lf)
	} else {
		DefaultFlarePlacement(lf)
	}
}

func DefaultFlarePlacement(lf *LensFlare) {
	vecX := -lf.PositionScreen.X() * 2
	vecY := -lf.PositionScreen.Y() * 2

	for _, e := range lf.Elements {
		e.X = lf.PositionScreen.X() + vecX*e.Distance
		e.Y = lf.PositionScreen.Y() + vecY*e.Distance
		e.Rotation = 0
	}
}
