package elevation

import (
	"fmt"

	"github.com/couchcryptid/noonmap/internal/domain"
)

// Layout describes how a tiled elevation dataset assembles into one global
// raster. Tiles are listed row by row, north first, west to east.
type Layout struct {
	Tiles      [][]string
	RowHeights []int // pixel rows in each tile row
	ColWidths  []int // pixel columns in each tile column
}

// GlobeLayout is the NOAA GLOBE 30 arc-second dataset: 16 tiles of int16
// samples in a 4 x 4 arrangement. The first tile ships as a11g.
var GlobeLayout = Layout{
	Tiles: [][]string{
		{"a11g", "b10g", "c10g", "d10g"},
		{"e10g", "f10g", "g10g", "h10g"},
		{"i10g", "j10g", "k10g", "l10g"},
		{"m10g", "n10g", "o10g", "p10g"},
	},
	RowHeights: []int{4800, 6000, 6000, 4800},
	ColWidths:  []int{10800, 10800, 10800, 10800},
}

// Height returns the total number of pixel rows.
func (l Layout) Height() int { return sum(l.RowHeights) }

// Width returns the total number of pixel columns.
func (l Layout) Width() int { return sum(l.ColWidths) }

// TileNames returns every tile name in read order.
func (l Layout) TileNames() []string {
	var names []string
	for _, row := range l.Tiles {
		names = append(names, row...)
	}
	return names
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

// Shrink returns the layout with every tile dimension divided by div, for
// synthetic datasets that keep the real tile arrangement.
func (l Layout) Shrink(div int) (Layout, error) {
	if div <= 0 {
		return Layout{}, fmt.Errorf("%w: divisor %d", domain.ErrBadScale, div)
	}
	out := Layout{
		Tiles:      l.Tiles,
		RowHeights: make([]int, len(l.RowHeights)),
		ColWidths:  make([]int, len(l.ColWidths)),
	}
	for i, h := range l.RowHeights {
		if h%div != 0 {
			return Layout{}, fmt.Errorf("%w: tile height %d by %d", domain.ErrBadScale, h, div)
		}
		out.RowHeights[i] = h / div
	}
	for i, w := range l.ColWidths {
		if w%div != 0 {
			return Layout{}, fmt.Errorf("%w: tile width %d by %d", domain.ErrBadScale, w, div)
		}
		out.ColWidths[i] = w / div
	}
	return out, nil
}
