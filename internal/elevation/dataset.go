package elevation

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/noonmap/internal/domain"
)

// Dataset is a GLOBE dataset that is only opened when a build is needed,
// so memoized runs never touch the archive. TileDir takes precedence over
// Archive when both are set.
type Dataset struct {
	Archive string
	TileDir string
	Layout  Layout
	Scale   int
	Logger  *slog.Logger
}

// Build opens the tile source and assembles the elevation raster.
func (d Dataset) Build(ctx context.Context) (domain.Grid, domain.Raster, error) {
	src, err := d.open()
	if err != nil {
		return domain.Grid{}, domain.Raster{}, err
	}
	defer src.Close()

	b, err := NewBuilder(src, d.Layout, d.Scale, d.Logger)
	if err != nil {
		return domain.Grid{}, domain.Raster{}, err
	}
	d.Logger.Info("building elevation grid", "archive", d.Archive, "tile_dir", d.TileDir, "scale", d.Scale)
	return b.Build(ctx)
}

func (d Dataset) open() (TileSource, error) {
	if d.TileDir != "" {
		return DirSource{Dir: d.TileDir}, nil
	}
	return OpenZip(d.Archive)
}
