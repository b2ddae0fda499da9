package config

import (
	"bytes"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads a scene file over the defaults. Empty path gives the defaults.
func Load(path string) (*Scene, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read scene config %q", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = DecodeYAML(data, s)
	case ".hcl":
		err = DecodeHCL(path, data, s)
	default:
		err = errors.Errorf("Unknown config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid scene config %q", path)
	}
	return s, nil
}

// DecodeYAML overwrites fields present in data
func DecodeYAML(data []byte, s *Scene) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrapf(err, "Failed to decode yaml")
	}
	return nil
}

type hclCamera struct {
	Fov    *float64 `hcl:"fov,optional"`
	Near   *float64 `hcl:"near,optional"`
	Far    *float64 `hcl:"far,optional"`
	Width  *int     `hcl:"width,optional"`
	Height *int     `hcl:"height,optional"`
}

type hclControls struct {
	EnablePan   *bool    `hcl:"enable_pan,optional"`
	EnableZoom  *bool    `hcl:"enable_zoom,optional"`
	MinDistance *float64 `hcl:"min_distance,optional"`
	MaxDistance *float64 `hcl:"max_distance,optional"`
}

type hclSpin struct {
	World     *float64 `hcl:"world,optional"`
	MoonOrbit *float64 `hcl:"moon_orbit,optional"`
	Moon      *float64 `hcl:"moon,optional"`
}

type hclLight struct {
	Position  []float64 `hcl:"position,optional"`
	Color     *string   `hcl:"color,optional"`
	Intensity *float64  `hcl:"intensity,optional"`
	Distance  *float64  `hcl:"distance,optional"`
	Decay     *float64  `hcl:"decay,optional"`
}

type hclSun struct {
	Position []float64 `hcl:"position,optional"`
	Radius   *float64  `hcl:"radius,optional"`
	Color    *string   `hcl:"color,optional"`
}

type hclFlare struct {
	Position   []float64 `hcl:"position,optional"`
	Hue        *float64  `hcl:"hue,optional"`
	Saturation *float64  `hcl:"saturation,optional"`
	Lightness  *float64  `hcl:"lightness,optional"`
}

type hclTextures struct {
	Moon     *string `hcl:"moon,optional"`
	MoonBump *string `hcl:"moon_bump,optional"`
	Saturn   *string `hcl:"saturn,optional"`
	Rings    *string `hcl:"rings,optional"`
	Skybox   *string `hcl:"skybox,optional"`
	FlareSun *string `hcl:"flare_sun,optional"`
	Flare2   *string `hcl:"flare2,optional"`
	Flare3   *string `hcl:"flare3,optional"`
}

type hclMoon struct {
	Name     string    `hcl:"name,label"`
	Radius   float64   `hcl:"radius"`
	Position []float64 `hcl:"position"`
	Texture  *string   `hcl:"texture,optional"`
	Spin     *float64  `hcl:"spin,optional"`
}

type hclScene struct {
	TexturePath    *string   `hcl:"texture_path,optional"`
	SaturnPosition []float64 `hcl:"saturn_position,optional"`
	SaturnRadius   *float64  `hcl:"saturn_radius,optional"`
	MoonRadius     *float64  `hcl:"moon_radius,optional"`
	CameraOffset   *float64  `hcl:"camera_offset,optional"`
	SkyboxSize     *float64  `hcl:"skybox_size,optional"`
	Ambient        *string   `hcl:"ambient,optional"`

	Camera   *hclCamera   `hcl:"camera,block"`
	Controls *hclControls `hcl:"controls,block"`
	Light    *hclLight    `hcl:"light,block"`
	Sun      *hclSun      `hcl:"sun,block"`
	Flare    *hclFlare    `hcl:"flare,block"`
	Spin     *hclSpin     `hcl:"spin,block"`
	Textures *hclTextures `hcl:"textures,block"`
	Moons    []hclMoon    `hcl:"moon,block"`
}

func vec3(name string, v []float64) (Vec3, error) {
	if len(v) != 3 {
		return Vec3{}, errors.Errorf("%s must have 3 components, got %d", name, len(v))
	}
	return Vec3{float32(v[0]), float32(v[1]), float32(v[2])}, nil
}

func setVec3(name string, dst *Vec3, src []float64) error {
	if src == nil {
		return nil
	}
	v, err := vec3(name, src)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setF32(dst *float32, src *float64) {
	if src != nil {
		*dst = float32(*src)
	}
}

func setF64(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

// DecodeHCL overwrites fields present in data. filename is used for diagnostics.
func DecodeHCL(filename string, data []byte, s *Scene) error {
	var h hclScene
	if err := hclsimple.Decode(filename, data, nil, &h); err != nil {
		return errors.Wrapf(err, "Failed to decode hcl")
	}

	setString(&s.TexturePath, h.TexturePath)
	if err := setVec3("saturn_position", &s.SaturnPosition, h.SaturnPosition); err != nil {
		return err
	}
	setF32(&s.SaturnRadius, h.SaturnRadius)
	setF32(&s.MoonRadius, h.MoonRadius)
	setF32(&s.CameraOffset, h.CameraOffset)
	setF32(&s.SkyboxSize, h.SkyboxSize)
	setString(&s.Ambient, h.Ambient)

	if c := h.Camera; c != nil {
		setF32(&s.Camera.Fov, c.Fov)
		setF32(&s.Camera.Near, c.Near)
		setF32(&s.Camera.Far, c.Far)
		if c.Width != nil {
			s.Camera.Width = *c.Width
		}
		if c.Height != nil {
			s.Camera.Height = *c.Height
		}
	}

	if c := h.Controls; c != nil {
		if c.EnablePan != nil {
			s.Controls.EnablePan = *c.EnablePan
		}
		if c.EnableZoom != nil {
			s.Controls.EnableZoom = *c.EnableZoom
		}
		setF32(&s.Controls.MinDistance, c.MinDistance)
		setF32(&s.Controls.MaxDistance, c.MaxDistance)
	}

	if l := h.Light; l != nil {
		if err := setVec3("light position", &s.Light.Position, l.Position); err != nil {
			return err
		}
		setString(&s.Light.Color, l.Color)
		setF32(&s.Light.Intensity, l.Intensity)
		setF32(&s.Light.Distance, l.Distance)
		setF32(&s.Light.Decay, l.Decay)
	}

	if sun := h.Sun; sun != nil {
		if err := setVec3("sun position", &s.Sun.Position, sun.Position); err != nil {
			return err
		}
		setF32(&s.Sun.Radius, sun.Radius)
		setString(&s.Sun.Color, sun.Color)
	}

	if f := h.Flare; f != nil {
		if err := setVec3("flare position", &s.Flare.Position, f.Position); err != nil {
			return err
		}
		setF64(&s.Flare.Hue, f.Hue)
		setF64(&s.Flare.Saturation, f.Saturation)
		setF64(&s.Flare.Lightness, f.Lightness)
	}

	if tx := h.Textures; tx != nil {
		setString(&s.Textures.Moon, tx.Moon)
		setString(&s.Textures.MoonBump, tx.MoonBump)
		setString(&s.Textures.Saturn, tx.Saturn)
		setString(&s.Textures.Rings, tx.Rings)
		setString(&s.Textures.Skybox, tx.Skybox)
		setString(&s.Textures.FlareSun, tx.FlareSun)
		setString(&s.Textures.Flare2, tx.Flare2)
		setString(&s.Textures.Flare3, tx.Flare3)
	}

	if sp := h.Spin; sp != nil {
		setF64(&s.Spin.World, sp.World)
		setF64(&s.Spin.MoonOrbit, sp.MoonOrbit)
		setF64(&s.Spin.Moon, sp.Moon)
	}

	for _, hm := range h.Moons {
		pos, err := vec3("moon "+hm.Name+" position", hm.Position)
		if err != nil {
			return err
		}
		m := Moon{
			Name:     hm.Name,
			Radius:   float32(hm.Radius),
			Position: pos,
		}
		setString(&m.Texture, hm.Texture)
		setF64(&m.Spin, hm.Spin)
		s.Moons = append(s.Moons, m)
	}

	return nil
}
