package render

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Colormap maps a value in [0, 1] to a colour. Inputs outside the range
// are clamped.
type Colormap func(x float64) color.NRGBA

// stop is one anchor of a piecewise linear gradient.
type stop struct {
	pos float64
	col colorful.Color
}

// gradient interpolates linearly in RGB between stops sorted by pos.
func gradient(stops ...stop) Colormap {
	return func(x float64) color.NRGBA {
		x = clamp01(x)
		for i := 1; i < len(stops); i++ {
			lo, hi := stops[i-1], stops[i]
			if x <= hi.pos {
				t := (x - lo.pos) / (hi.pos - lo.pos)
				return toNRGBA(lo.col.BlendRgb(hi.col, t))
			}
		}
		return toNRGBA(stops[len(stops)-1].col)
	}
}

// Jet is the classic rainbow map.
var Jet = gradient(
	stop{0, colorful.Color{R: 0, G: 0, B: 0.5}},
	stop{0.125, colorful.Color{R: 0, G: 0, B: 1}},
	stop{0.375, colorful.Color{R: 0, G: 1, B: 1}},
	stop{0.625, colorful.Color{R: 1, G: 1, B: 0}},
	stop{0.875, colorful.Color{R: 1, G: 0, B: 0}},
	stop{1, colorful.Color{R: 0.5, G: 0, B: 0}},
)

// Seismic is a diverging blue-white-red map centred on 0.5.
var Seismic = gradient(
	stop{0, colorful.Color{R: 0, G: 0, B: 0.3}},
	stop{0.25, colorful.Color{R: 0, G: 0, B: 1}},
	stop{0.5, colorful.Color{R: 1, G: 1, B: 1}},
	stop{0.75, colorful.Color{R: 1, G: 0, B: 0}},
	stop{1, colorful.Color{R: 0.5, G: 0, B: 0}},
)

// Turbo is the polynomial approximation of Google's Turbo map.
func Turbo(x float64) color.NRGBA {
	x = clamp01(x)
	r := 0.13572138 + x*(4.61539260+x*(-42.66032258+x*(132.13108234+x*(-152.94239396+x*59.28637943))))
	g := 0.09140261 + x*(2.19418839+x*(4.84296658+x*(-14.18503333+x*(4.27729857+x*2.82956604))))
	b := 0.10667330 + x*(12.64194608+x*(-60.58204836+x*(110.36276771+x*(-89.90310912+x*27.34824973))))
	return toNRGBA(colorful.Color{R: r, G: g, B: b})
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Min(1, math.Max(0, x))
}
