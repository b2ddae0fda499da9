package utils

import (
	"math"

	"github.com/pkg/errors"
)

type ColorFloat [4]float32

func (c ColorFloat) RGB() [3]float32 {
	return [3]float32{c[0], c[1], c[2]}
}

// NewColorFloatHex takes 0xRRGGBB
func NewColorFloatHex(hex uint32) ColorFloat {
	return ColorFloat{
		float32((hex>>16)&0xff) / 255.0,
		float32((hex>>8)&0xff) / 255.0,
		float32(hex&0xff) / 255.0,
		1.0,
	}
}

// ParseColorHex accepts "#rrggbb" and "rrggbb"
func ParseColorHex(s string) (ColorFloat, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return ColorFloat{}, errors.Errorf("Invalid color %q", s)
	}
	var hex uint32
	for _, r := range s {
		var d uint32
		switch {
		case r >= '0' && r <= '9':
			d = uint32(r - '0')
		case r >= 'a' && r <= 'f':
			d = uint32(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = uint32(r-'A') + 10
		default:
			return ColorFloat{}, errors.Errorf("Invalid color %q", s)
		}
		hex = hex<<4 | d
	}
	return NewColorFloatHex(hex), nil
}

func hue2rgb(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*6*(2.0/3.0-t)
	}
	return p
}

// NewColorFloatHSL converts hue, saturation and lightness in [0, 1].
// Hue wraps around, saturation and lightness are clamped.
func NewColorFloatHSL(h, s, l float64) ColorFloat {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	s = math.Max(0, math.Min(1, s))
	l = math.Max(0, math.Min(1, l))

	if s == 0 {
		return ColorFloat{float32(l), float32(l), float32(l), 1}
	}

	var q float64
	if l <= 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return ColorFloat{
		float32(hue2rgb(p, q, h+1.0/3.0)),
		float32(hue2rgb(p, q, h)),
		float32(hue2rgb(p, q, h-1.0/3.0)),
		1,
	}
}
