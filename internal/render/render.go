// Package render draws raster artifacts as PNG images.
package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"strings"

	"github.com/couchcryptid/noonmap/internal/adapter/store"
	"github.com/couchcryptid/noonmap/internal/domain"
)

// Style pairs a colour map with the scaling that brings raster values to
// [0, 1].
type Style struct {
	Map   Colormap
	Scale func(v float64) float64
}

// Styles holds the style of every renderable artifact.
var Styles = map[string]Style{
	domain.ElevationFile:    {Map: Jet, Scale: func(v float64) float64 { return v / 6000 }},
	domain.NoonFile:         {Map: Jet, Scale: hoursOfDay},
	domain.SunsetFile:       {Map: Turbo, Scale: hoursOfDay},
	domain.SunriseFile:      {Map: Turbo, Scale: hoursOfDay},
	domain.TimeZoneFile:     {Map: Jet, Scale: hoursOfDay},
	domain.TimeZoneDiffFile: {Map: Seismic, Scale: func(v float64) float64 { return 0.5 + v/6 }},
}

func hoursOfDay(v float64) float64 { return v / 24 }

// ImageName returns the PNG name for a binary artifact.
func ImageName(artifact string) string {
	return strings.TrimSuffix(artifact, ".bin") + ".png"
}

// PNG writes images into the artifact store. Existing images are kept.
type PNG struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPNG returns a renderer writing next to the artifacts in st.
func NewPNG(st *store.Store, logger *slog.Logger) *PNG {
	return &PNG{store: st, logger: logger}
}

func (p *PNG) Render(name string, r domain.Raster) error {
	style, ok := Styles[name]
	if !ok {
		return fmt.Errorf("no style for %s", name)
	}
	out := ImageName(name)
	if p.store.Exists(out) {
		return nil
	}
	if _, err := p.store.WriteFile(out, func(w io.Writer) error {
		return png.Encode(w, Image(r, style))
	}); err != nil {
		return err
	}
	p.logger.Info("image written", "image", out)
	return nil
}

// Image colours a raster, north up.
func Image(r domain.Raster, style Style) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.NLon, r.NLat))
	for iy := 0; iy < r.NLat; iy++ {
		for ix, v := range r.Row(iy) {
			img.SetNRGBA(ix, iy, style.Map(style.Scale(v)))
		}
	}
	return img
}
