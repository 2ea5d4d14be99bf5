package utils

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ColorFloat is a linear rgba color with components in 0..1.
type ColorFloat [4]float32

func (c ColorFloat) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

func (c ColorFloat) NRGBA() color.NRGBA {
	to8 := func(v float32) uint8 { return uint8(Clamp32(v, 0, 1)*255 + 0.5) }
	return color.NRGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])}
}

func (c ColorFloat) Scale(f float32) ColorFloat {
	return ColorFloat{c[0] * f, c[1] * f, c[2] * f, c[3]}
}

func (c ColorFloat) Add(o ColorFloat) ColorFloat {
	return ColorFloat{c[0] + o[0], c[1] + o[1], c[2] + o[2], c[3]}
}

func (c ColorFloat) Mul(o ColorFloat) ColorFloat {
	return ColorFloat{c[0] * o[0], c[1] * o[1], c[2] * o[2], c[3]}
}

// ParseHexColor accepts "#aarrggbb" and "#rrggbb".
func ParseHexColor(s string) (ColorFloat, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 6 {
		h = "ff" + h
	}
	if len(h) != 8 {
		return ColorFloat{}, errors.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return ColorFloat{}, errors.Wrapf(err, "invalid color %q", s)
	}
	return ColorFloat{
		float32((v>>16)&0xff) / 255,
		float32((v>>8)&0xff) / 255,
		float32(v&0xff) / 255,
		float32((v>>24)&0xff) / 255,
	}, nil
}

func MustParseHexColor(s string) ColorFloat {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
