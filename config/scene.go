package config

import (
	"math"

	"github.com/pkg/errors"
)

const DefaultTexturePath = "https://s3-us-west-2.amazonaws.com/s.cdpn.io/123879/"

type Vec3 [3]float32

type Camera struct {
	Fov    float32 `yaml:"fov"` // degrees, vertical
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

type Controls struct {
	EnablePan   bool    `yaml:"enable_pan"`
	EnableZoom  bool    `yaml:"enable_zoom"`
	MinDistance float32 `yaml:"min_distance"`
	MaxDistance float32 `yaml:"max_distance"`
}

type Light struct {
	Position  Vec3    `yaml:"position"`
	Color     string  `yaml:"color"`
	Intensity float32 `yaml:"intensity"`
	Distance  float32 `yaml:"distance"`
	Decay     float32 `yaml:"decay"`
}

type Sun struct {
	Position Vec3    `yaml:"position"`
	Radius   float32 `yaml:"radius"`
	Color    string  `yaml:"color"`
}

type Flare struct {
	Position   Vec3    `yaml:"position"`
	Hue        float64 `yaml:"hue"`
	Saturation float64 `yaml:"saturation"`
	Lightness  float64 `yaml:"lightness"`
}

// Spin holds per-tick rotation increments in radians
type Spin struct {
	World     float64 `yaml:"world"`
	MoonOrbit float64 `yaml:"moon_orbit"`
	Moon      float64 `yaml:"moon"`
}

type Textures struct {
	Moon     string `yaml:"moon"`
	MoonBump string `yaml:"moon_bump"`
	Saturn   string `yaml:"saturn"`
	Rings    string `yaml:"rings"`
	Skybox   string `yaml:"skybox"`
	FlareSun string `yaml:"flare_sun"`
	Flare2   string `yaml:"flare2"`
	Flare3   string `yaml:"flare3"`
}

// Moon describes an additional moon orbiting the planet on its own pivot
type Moon struct {
	Name     string  `yaml:"name"`
	Radius   float32 `yaml:"radius"`
	Position Vec3    `yaml:"position"`
	Texture  string  `yaml:"texture"`
	Spin     float64 `yaml:"spin"`
}

type Scene struct {
	TexturePath    string  `yaml:"texture_path"`
	SaturnPosition Vec3    `yaml:"saturn_position"`
	SaturnRadius   float32 `yaml:"saturn_radius"`
	MoonRadius     float32 `yaml:"moon_radius"`
	// camera pivot offset from the moon, in moon radii
	CameraOffset float32 `yaml:"camera_offset"`
	SkyboxSize   float32 `yaml:"skybox_size"`
	Ambient      string  `yaml:"ambient"`

	Camera   Camera   `yaml:"camera"`
	Controls Controls `yaml:"controls"`
	Light    Light    `yaml:"light"`
	Sun      Sun      `yaml:"sun"`
	Flare    Flare    `yaml:"flare"`
	Spin     Spin     `yaml:"spin"`
	Textures Textures `yaml:"textures"`
	Moons    []Moon   `yaml:"moons"`
}

func Default() *Scene {
	const moonRadius = 80
	return &Scene{
		TexturePath:    DefaultTexturePath,
		SaturnPosition: Vec3{3500, 0, -3500},
		SaturnRadius:   1500,
		MoonRadius:     moonRadius,
		CameraOffset:   9,
		SkyboxSize:     20000,
		Ambient:        "#222222",
		Camera: Camera{
			Fov:    45,
			Near:   1,
			Far:    23000,
			Width:  1280,
			Height: 720,
		},
		Controls: Controls{
			EnablePan:   true,
			EnableZoom:  true,
			MinDistance: moonRadius * 2,
			MaxDistance: 4000,
		},
		Light: Light{
			Position:  Vec3{-8000, 0, 0},
			Color:     "#ffffff",
			Intensity: 1,
			Distance:  10000,
			Decay:     0,
		},
		Sun: Sun{
			Position: Vec3{-11600, 0, 0},
			Radius:   100,
			Color:    "#ffff55",
		},
		Flare: Flare{
			Position:   Vec3{-11400, 100, 0},
			Hue:        0.55,
			Saturation: 0.9,
			Lightness:  0.5,
		},
		Spin: Spin{
			World:     -0.00025,
			MoonOrbit: -0.00025,
			Moon:      -0.00015,
		},
		Textures: Textures{
			Moon:     "enceladus_large.jpg",
			MoonBump: "enceladus_bump.jpg",
			Saturn:   "saturn.jpg",
			Rings:    "saturnrings.png",
			Skybox:   "test.jpg",
			FlareSun: "sun.png",
			Flare2:   "lensflare2.png",
			Flare3:   "lensflare3.png",
		},
	}
}

// TextureURL joins the texture path with name, empty name stays empty
func (s *Scene) TextureURL(name string) string {
	if name == "" {
		return ""
	}
	return s.TexturePath + name
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (v Vec3) finite() bool {
	return finite(float64(v[0]), float64(v[1]), float64(v[2]))
}

// Validate rejects values the scene cannot be built from.
// Every number must be finite, NaN never passes a range check.
func (s *Scene) Validate() error {
	if !(s.SaturnRadius > 0) || !finite(float64(s.SaturnRadius)) {
		return errors.Errorf("saturn_radius must be positive, got %v", s.SaturnRadius)
	}
	if !(s.MoonRadius > 0) || !finite(float64(s.MoonRadius)) {
		return errors.Errorf("moon_radius must be positive, got %v", s.MoonRadius)
	}
	if !finite(float64(s.CameraOffset), float64(s.SkyboxSize)) {
		return errors.Errorf("camera_offset and skybox_size must be finite, got %v and %v",
			s.CameraOffset, s.SkyboxSize)
	}
	if !(s.Camera.Fov > 0 && s.Camera.Fov < 180) {
		return errors.Errorf("camera fov must be in (0, 180), got %v", s.Camera.Fov)
	}
	if !(s.Camera.Near > 0 && s.Camera.Far > s.Camera.Near) || !finite(float64(s.Camera.Far)) {
		return errors.Errorf("camera clip planes invalid: near %v far %v", s.Camera.Near, s.Camera.Far)
	}
	if s.Camera.Width <= 0 || s.Camera.Height <= 0 {
		return errors.Errorf("camera surface size invalid: %vx%v", s.Camera.Width, s.Camera.Height)
	}
	if !(s.Controls.MinDistance >= 0 && s.Controls.MaxDistance >= s.Controls.MinDistance) ||
		!finite(float64(s.Controls.MaxDistance)) {
		return errors.Errorf("controls distance range invalid: [%v, %v]",
			s.Controls.MinDistance, s.Controls.MaxDistance)
	}

	for _, v := range []struct {
		name string
		vec  Vec3
	}{
		{"saturn_position", s.SaturnPosition},
		{"light position", s.Light.Position},
		{"sun position", s.Sun.Position},
		{"flare position", s.Flare.Position},
	} {
		if !v.vec.finite() {
			return errors.Errorf("%s must be finite, got %v", v.name, v.vec)
		}
	}
	if !finite(float64(s.Light.Intensity), float64(s.Light.Distance), float64(s.Light.Decay), float64(s.Sun.Radius)) {
		return errors.Errorf("light and sun values must be finite")
	}
	if !finite(s.Flare.Hue, s.Flare.Saturation, s.Flare.Lightness) {
		return errors.Errorf("flare color must be finite, got hsl(%v, %v, %v)",
			s.Flare.Hue, s.Flare.Saturation, s.Flare.Lightness)
	}

	for _, rate := range []float64{s.Spin.World, s.Spin.MoonOrbit, s.Spin.Moon} {
		if !finite(rate) {
			return errors.Errorf("spin rate must be finite, got %v", rate)
		}
	}
	for i, m := range s.Moons {
		if !(m.Radius > 0) || !finite(float64(m.Radius)) {
			return errors.Errorf("moon %d (%q) radius must be positive, got %v", i, m.Name, m.Radius)
		}
		if !m.Position.finite() {
			return errors.Errorf("moon %d (%q) position must be finite, got %v", i, m.Name, m.Position)
		}
		if !finite(m.Spin) {
			return errors.Errorf("moon %d (%q) spin rate must be finite, got %v", i, m.Name, m.Spin)
		}
	}
	return nil
}
