package tableau

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/saturn_viewer/config"
	"github.com/mogaika/saturn_viewer/r3d"
	"github.com/mogaika/saturn_viewer/utils"
)

/*
root
├ saturnPivot ─ saturn ─ rings
├ moonOrbitPivot ─ worldPivot ┬ cameraPivot ─ camera
│                             └ enceladus
├ ambient, sunLight, sun, skybox, lensFlare
└ <extra moon pivots> ─ <moon>
*/

// Tableau is everything the animation owns. It is mutated only by the
// goroutine driving the frame loop.
type Tableau struct {
	Config *config.Scene
	Scene  *r3d.Scene

	SaturnPivot    *r3d.Node
	MoonOrbitPivot *r3d.Node
	WorldPivot     *r3d.Node
	CameraPivot    *r3d.Node

	Saturn  *r3d.Node
	Rings   *r3d.Node
	Moon    *r3d.Node
	Skybox  *r3d.Node
	Sun     *r3d.Node
	Ambient *r3d.Node
	Light   *r3d.Node

	CameraNode *r3d.Node
	Camera     *r3d.PerspectiveCamera
	Controls   *r3d.OrbitController

	FlareNode *r3d.Node
	Flare     *r3d.LensFlare

	Spinners []*Spinner

	// fetched but not referenced by any material
	spareTextures []*r3d.Texture

	initialControls r3d.OrbitController
	tick            uint64
	presenters      []Presenter
	lastFrame       atomic.Value
}

func parseColor(name, value string) (utils.ColorFloat, error) {
	c, err := utils.ParseColorHex(value)
	if err != nil {
		return c, errors.Wrapf(err, "%s color", name)
	}
	return c, nil
}

func vec3(v config.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[1], v[2]}
}

// Build runs the one-time scene setup
func Build(cfg *config.Scene) (*Tableau, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid scene config")
	}
	t := &Tableau{Config: cfg, Scene: r3d.NewScene()}
	s := t.Scene
	root := s.Root

	saturnPos := vec3(cfg.SaturnPosition)

	t.SaturnPivot = s.NewPivot("saturnPivot", saturnPos)
	t.MoonOrbitPivot = s.NewPivot("moonOrbitPivot", saturnPos)
	t.WorldPivot = s.NewPivot("worldPivot", saturnPos.Mul(-1))
	t.CameraPivot = s.NewPivot("cameraPivot", mgl32.Vec3{0, 0, cfg.MoonRadius * cfg.CameraOffset})

	t.Camera = r3d.NewPerspectiveCamera(cfg.Camera.Fov, cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.Near, cfg.Camera.Far)
	t.CameraNode = s.NewCameraNode("camera", t.Camera)

	if err := t.buildControls(); err != nil {
		return nil, err
	}

	if err := t.buildLights(); err != nil {
		return nil, err
	}

	t.buildMoon()
	t.buildSkybox()
	t.buildSaturn()

	if err := t.buildSun(); err != nil {
		return nil, err
	}
	t.buildFlare()

	root.MustAdd(t.SaturnPivot, t.MoonOrbitPivot, t.Ambient, t.Light)
	t.MoonOrbitPivot.MustAdd(t.WorldPivot)
	t.WorldPivot.MustAdd(t.CameraPivot, t.Moon)
	t.CameraPivot.MustAdd(t.CameraNode)
	t.SaturnPivot.MustAdd(t.Saturn)
	t.Saturn.MustAdd(t.Rings)
	root.MustAdd(t.Skybox, t.Sun, t.FlareNode)

	t.Spinners = []*Spinner{
		{Name: "world", Node: t.WorldPivot, Axis: AxisY, Rate: cfg.Spin.World},
		{Name: "moonOrbit", Node: t.MoonOrbitPivot, Axis: AxisY, Rate: cfg.Spin.MoonOrbit},
		{Name: "moon", Node: t.Moon, Axis: AxisY, Base: -(8.7 * math.Pi / 17), Rate: cfg.Spin.Moon},
	}

	if err := t.buildExtraMoons(); err != nil {
		return nil, err
	}

	for _, sp := range t.Spinners {
		sp.apply(0)
	}
	t.placeFlare()
	return t, nil
}

func (t *Tableau) buildControls() error {
	offset := t.Config.MoonRadius * t.Config.CameraOffset
	t.Controls = r3d.NewOrbitControllerLookingFrom(mgl32.Vec3{}, mgl32.Vec3{0, 0, -offset})
	t.Controls.EnablePan = t.Config.Controls.EnablePan
	t.Controls.EnableZoom = t.Config.Controls.EnableZoom
	t.Controls.SetDistanceLimits(t.Config.Controls.MinDistance, t.Config.Controls.MaxDistance)
	t.initialControls = *t.Controls
	return errors.Wrapf(t.Controls.Apply(t.CameraNode), "Failed to place camera")
}

func (t *Tableau) buildLights() error {
	ambient, err := parseColor("ambient", t.Config.Ambient)
	if err != nil {
		return err
	}
	t.Ambient = t.Scene.NewLightNode("ambient", r3d.NewAmbientLight(ambient))

	lc := t.Config.Light
	color, err := parseColor("light", lc.Color)
	if err != nil {
		return err
	}
	t.Light = t.Scene.NewLightNode("sunLight", r3d.NewPointLight(color, lc.Intensity, lc.Distance, lc.Decay))
	return t.Light.SetPosition(vec3(lc.Position))
}

func (t *Tableau) buildMoon() {
	cfg := t.Config
	mat := r3d.NewMaterial(r3d.ShadingPhong, utils.NewColorFloatHex(0xffffff))
	mat.Shininess = 10
	mat.Specular = utils.NewColorFloatHex(0x000000)
	mat.Map = r3d.NewTexture(cfg.TextureURL(cfg.Textures.Moon))
	mat.BumpMap = r3d.NewTexture(cfg.TextureURL(cfg.Textures.MoonBump))

	t.Moon = t.Scene.NewMeshNode("enceladus", &r3d.Mesh{
		Geometry: r3d.SphereGeometry(cfg.MoonRadius, 128, 128),
		Material: mat,
	})
}

func (t *Tableau) buildSkybox() {
	cfg := t.Config
	cube := &r3d.CubeTexture{}
	for i := range cube.Faces {
		cube.Faces[i] = r3d.NewTexture(cfg.TextureURL(cfg.Textures.Skybox))
	}
	mat := r3d.NewMaterial(r3d.ShadingSkybox, utils.NewColorFloatHex(0xffffff))
	mat.Side = r3d.SideBack
	mat.DepthWrite = false
	mat.CubeMap = cube

	t.Skybox = t.Scene.NewMeshNode("skybox", &r3d.Mesh{
		Geometry: r3d.BoxGeometry(cfg.SkyboxSize),
		Material: mat,
	})
}

func (t *Tableau) buildSaturn() {
	cfg := t.Config
	mat := r3d.NewMaterial(r3d.ShadingLambert, utils.NewColorFloatHex(0xffffff))
	mat.Map = r3d.NewTexture(cfg.TextureURL(cfg.Textures.Saturn))
	t.Saturn = t.Scene.NewMeshNode("saturn", &r3d.Mesh{
		Geometry: r3d.SphereGeometry(cfg.SaturnRadius, 32, 32),
		Material: mat,
	})
	t.Saturn.SetEuler(0, 0, math.Pi/8)

	ringMat := r3d.NewMaterial(r3d.ShadingBasic, utils.NewColorFloatHex(0xffffff))
	ringMat.Map = r3d.NewTexture(cfg.TextureURL(cfg.Textures.Rings))
	ringMat.Side = r3d.SideDouble
	ringMat.Transparent = true
	ringMat.Opacity = 0.7
	t.Rings = t.Scene.NewMeshNode("rings", &r3d.Mesh{
		Geometry: r3d.RingGeometry(1.4*cfg.SaturnRadius, 2.5*cfg.SaturnRadius, 2*32, 5, 0, utils.TwoPi),
		Material: ringMat,
	})
}

func (t *Tableau) buildSun() error {
	sc := t.Config.Sun
	color, err := parseColor("sun", sc.Color)
	if err != nil {
		return err
	}
	mat := r3d.NewMaterial(r3d.ShadingLambert, color)
	mat.Emissive = color
	t.Sun = t.Scene.NewMeshNode("sun", &r3d.Mesh{
		Geometry: r3d.SphereGeometry(sc.Radius, 16, 16),
		Material: mat,
	})
	t.Sun.SetEuler(0, math.Pi, 0)
	return t.Sun.SetPosition(vec3(sc.Position))
}

func (t *Tableau) buildFlare() {
	cfg := t.Config
	fc := cfg.Flare
	color := utils.NewColorFloatHSL(fc.Hue, fc.Saturation, fc.Lightness+0.5)

	sun := r3d.NewTexture(cfg.TextureURL(cfg.Textures.FlareSun))
	flare3 := r3d.NewTexture(cfg.TextureURL(cfg.Textures.Flare3))
	if flare2 := r3d.NewTexture(cfg.TextureURL(cfg.Textures.Flare2)); flare2 != nil {
		t.spareTextures = append(t.spareTextures, flare2)
	}

	t.Flare = r3d.NewLensFlare(sun, 700, 0, r3d.BlendAdditive, color)
	t.Flare.Add(flare3, 60, 0.6, r3d.BlendAdditive)
	t.Flare.Add(flare3, 70, 0.7, r3d.BlendAdditive)
	t.Flare.Add(flare3, 120, 0.9, r3d.BlendAdditive)
	t.Flare.Add(flare3, 70, 1.0, r3d.BlendAdditive)
	t.Flare.UpdateCallback = flareUpdate

	t.FlareNode = t.Scene.NewFlareNode("lensFlare", t.Flare)
	// flare node is not a pivot, error is impossible
	_ = t.FlareNode.SetPosition(vec3(fc.Position))
}

func flareUpdate(lf *r3d.LensFlare) {
	r3d.DefaultFlarePlacement(lf)
	if len(lf.Elements) > 3 {
		lf.Elements[2].Y += 0.025
		lf.Elements[3].Rotation = lf.PositionScreen.X()*0.5 + mgl32.DegToRad(45)
	}
}

func (t *Tableau) buildExtraMoons() error {
	cfg := t.Config
	for i, mc := range cfg.Moons {
		name := mc.Name
		if name == "" {
			name = fmt.Sprintf("moon%d", i)
		}

		pivot := t.Scene.NewPivot(name+"Pivot", vec3(cfg.SaturnPosition))

		mat := r3d.NewMaterial(r3d.ShadingLambert, utils.NewColorFloatHex(0xffffff))
		mat.Map = r3d.NewTexture(cfg.TextureURL(mc.Texture))
		moon := t.Scene.NewMeshNode(name, &r3d.Mesh{
			Geometry: r3d.SphereGeometry(mc.Radius, 32, 32),
			Material: mat,
		})
		if err := moon.SetPosition(vec3(mc.Position)); err != nil {
			return errors.Wrapf(err, "moon %q", name)
		}

		if err := pivot.Add(moon); err != nil {
			return errors.Wrapf(err, "moon %q", name)
		}
		if err := t.Scene.Root.Add(pivot); err != nil {
			return errors.Wrapf(err, "moon %q", name)
		}
		if mc.Spin != 0 {
			t.Spinners = append(t.Spinners, &Spinner{Name: name, Node: pivot, Axis: AxisY, Rate: mc.Spin})
		}
	}
	return nil
}

// Textures lists every texture to fetch, duplicates included
func (t *Tableau) Textures() []*r3d.Texture {
	var result []*r3d.Texture
	t.Scene.Root.Walk(func(n *r3d.Node, _ int) bool {
		if n.Mesh != nil && n.Mesh.Material != nil {
			result = append(result, n.Mesh.Material.Textures()...)
		}
		if n.Flare != nil {
			for _, e := range n.Flare.Elements {
				if e.Texture != nil {
					result = append(result, e.Texture)
				}
			}
		}
		return true
	})
	return append(result, t.spareTextures...)
}

func (t *Tableau) Tick() uint64 {
	return t.tick
}

func (t *Tableau) Spinner(name string) (*Spinner, bool) {
	for _, s := range t.Spinners {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}
