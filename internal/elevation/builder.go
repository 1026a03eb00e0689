package elevation

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/noonmap/internal/domain"
)

// Builder assembles a downsampled global elevation raster from tiles.
type Builder struct {
	source TileSource
	layout Layout
	scale  int
	logger *slog.Logger
}

// NewBuilder validates the scale against the layout.
func NewBuilder(source TileSource, layout Layout, scale int, logger *slog.Logger) (*Builder, error) {
	if len(layout.Tiles) != len(layout.RowHeights) {
		return nil, fmt.Errorf("layout has %d tile rows but %d row heights", len(layout.Tiles), len(layout.RowHeights))
	}
	for i, row := range layout.Tiles {
		if len(row) != len(layout.ColWidths) {
			return nil, fmt.Errorf("layout row %d has %d tiles but %d column widths", i, len(row), len(layout.ColWidths))
		}
	}
	if scale <= 0 || layout.Height()%scale != 0 || layout.Width()%scale != 0 {
		return nil, fmt.Errorf("%w: %d x %d by %d", domain.ErrBadScale, layout.Height(), layout.Width(), scale)
	}
	return &Builder{source: source, layout: layout, scale: scale, logger: logger}, nil
}

// Build streams every tile row through the block averager and returns the
// grid axes with the elevation raster in metres, negatives clamped to 0.
func (b *Builder) Build(ctx context.Context) (domain.Grid, domain.Raster, error) {
	width, height := b.layout.Width(), b.layout.Height()
	avg, err := newBlockAverager(width, height, b.scale)
	if err != nil {
		return domain.Grid{}, domain.Raster{}, err
	}

	row := make([]int16, width)
	for ty, names := range b.layout.Tiles {
		if err := b.readTileRow(ctx, names, b.layout.RowHeights[ty], row, avg); err != nil {
			return domain.Grid{}, domain.Raster{}, err
		}
		b.logger.Debug("tile row decoded", "row", ty, "tiles", names)
	}

	grid := domain.NewGrid(width/b.scale, height/b.scale)
	raster, err := domain.RasterFromData(grid, avg.out)
	if err != nil {
		return domain.Grid{}, domain.Raster{}, err
	}
	return grid, raster, nil
}

func (b *Builder) readTileRow(ctx context.Context, names []string, rows int, row []int16, avg *blockAverager) error {
	readers := make([]*bufio.Reader, len(names))
	for i, name := range names {
		rc, err := b.source.Open(name)
		if err != nil {
			return err
		}
		defer rc.Close()
		readers[i] = bufio.NewReaderSize(rc, 1<<16)
	}

	buf := make([]byte, 2*maxInt(b.layout.ColWidths))
	for y := 0; y < rows; y++ {
		if y%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		x0 := 0
		for i, r := range readers {
			w := b.layout.ColWidths[i]
			if _, err := io.ReadFull(r, buf[:2*w]); err != nil {
				return fmt.Errorf("read tile %s row %d: %w", names[i], y, err)
			}
			for x := 0; x < w; x++ {
				row[x0+x] = int16(binary.LittleEndian.Uint16(buf[2*x:]))
			}
			x0 += w
		}
		avg.addRow(row)
	}
	return nil
}

func maxInt(xs []int) int {
	m := 0
	for _, x := range xs {
		m = max(m, x)
	}
	return m
}
