package elevation

import (
	"fmt"

	"github.com/couchcryptid/noonmap/internal/domain"
)

// blockAverager consumes full-width pixel rows and emits one output row for
// every sc input rows, each value the mean of an sc x sc block.
type blockAverager struct {
	sc   int
	sums []int64
	rows int
	out  []float64
}

func newBlockAverager(width, height, sc int) (*blockAverager, error) {
	if sc <= 0 || width%sc != 0 || height%sc != 0 {
		return nil, fmt.Errorf("%w: %d x %d by %d", domain.ErrBadScale, height, width, sc)
	}
	return &blockAverager{
		sc:   sc,
		sums: make([]int64, width/sc),
		out:  make([]float64, 0, (width/sc)*(height/sc)),
	}, nil
}

// addRow accumulates one row of clamped samples.
func (b *blockAverager) addRow(row []int16) {
	for x, v := range row {
		if v > 0 {
			b.sums[x/b.sc] += int64(v)
		}
	}
	b.rows++
	if b.rows%b.sc != 0 {
		return
	}
	n := float64(b.sc * b.sc)
	for i, s := range b.sums {
		b.out = append(b.out, float64(s)/n)
		b.sums[i] = 0
	}
}

// Downsample clamps negative samples to zero and block-averages an h x w
// row-major raster by sc in both directions.
func Downsample(data []int16, h, w, sc int) ([]float64, error) {
	if len(data) != h*w {
		return nil, fmt.Errorf("%w: %d samples for %d x %d", domain.ErrShapeMismatch, len(data), h, w)
	}
	b, err := newBlockAverager(w, h, sc)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		b.addRow(data[y*w : (y+1)*w])
	}
	return b.out, nil
}
