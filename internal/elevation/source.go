package elevation

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// DownloadURL is where the GLOBE tile archive can be fetched from.
const DownloadURL = "https://www.ngdc.noaa.gov/mgg/topo/DATATILES/elev/all10g.zip"

// ErrMissingDataset is returned when the elevation archive or a tile is absent.
var ErrMissingDataset = errors.New("elevation dataset not found")

// TileSource opens raw tiles by name.
type TileSource interface {
	Open(tile string) (io.ReadCloser, error)
	Close() error
}

// ZipSource reads tiles out of the all10g.zip archive.
type ZipSource struct {
	rc    *zip.ReadCloser
	files map[string]*zip.File
}

// OpenZip opens a GLOBE archive. Members are matched by base name so both
// all10/<tile> and flat archives work.
func OpenZip(name string) (*ZipSource, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (download %s)", ErrMissingDataset, name, DownloadURL)
		}
		return nil, fmt.Errorf("open elevation archive: %w", err)
	}
	files := make(map[string]*zip.File, len(rc.File))
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files[path.Base(f.Name)] = f
	}
	return &ZipSource{rc: rc, files: files}, nil
}

func (s *ZipSource) Open(tile string) (io.ReadCloser, error) {
	f, ok := s.files[tile]
	if !ok {
		return nil, fmt.Errorf("%w: tile %s not in archive", ErrMissingDataset, tile)
	}
	return f.Open()
}

func (s *ZipSource) Close() error { return s.rc.Close() }

// DirSource reads tiles from a directory, either raw or gzip-compressed
// with a .gz suffix.
type DirSource struct {
	Dir string
}

func (s DirSource) Open(tile string) (io.ReadCloser, error) {
	p := filepath.Join(s.Dir, tile)
	if f, err := os.Open(p); err == nil {
		return f, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open tile %s: %w", tile, err)
	}

	f, err := os.Open(p + ".gz")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: tile %s in %s (download %s)", ErrMissingDataset, tile, s.Dir, DownloadURL)
		}
		return nil, fmt.Errorf("open tile %s: %w", tile, err)
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("gunzip tile %s: %w", tile, err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

func (DirSource) Close() error { return nil }

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}
