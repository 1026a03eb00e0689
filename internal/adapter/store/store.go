// Package store persists pipeline artifacts as flat native-endian float64
// files in a data directory, with an optional manifest of digests.
package store

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/noonmap/internal/domain"
)

const float64Size = 8

// ErrNotFound is returned when an artifact is absent.
var ErrNotFound = errors.New("artifact not found")

// Store reads and writes artifacts under a directory. Writes go to a temp
// file that is renamed into place, so readers never see partial files.
type Store struct {
	dir string

	mu       sync.Mutex
	manifest Manifest
}

// New opens a store rooted at dir, creating the directory if needed and
// loading an existing manifest.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	m, err := loadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, manifest: m}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute location of an artifact.
func (s *Store) Path(name string) string { return filepath.Join(s.dir, name) }

// Exists reports whether an artifact file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// WriteFile atomically writes an artifact produced by fn and returns the
// hex SHA-256 of its contents.
func (s *Store) WriteFile(name string, fn func(w io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	h := sha256.New()
	bw := bufio.NewWriterSize(io.MultiWriter(tmp, h), 1<<16)
	if err := fn(bw); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("flush %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteFloats writes values in native byte order.
func (s *Store) WriteFloats(name string, values []float64) (string, error) {
	return s.WriteFile(name, func(w io.Writer) error {
		return binary.Write(w, binary.NativeEndian, values)
	})
}

// ReadFloats reads a whole native-endian float64 artifact.
func (s *Store) ReadFloats(name string) ([]float64, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.Size()%float64Size != 0 {
		return nil, fmt.Errorf("%s: size %d is not a multiple of %d", name, info.Size(), float64Size)
	}
	values := make([]float64, info.Size()/float64Size)
	if err := binary.Read(bufio.NewReaderSize(f, 1<<16), binary.NativeEndian, values); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return values, nil
}

// ReadGrid reads the longitude and latitude axes.
func (s *Store) ReadGrid() (domain.Grid, error) {
	lon, err := s.ReadFloats(domain.LonFile)
	if err != nil {
		return domain.Grid{}, err
	}
	lat, err := s.ReadFloats(domain.LatFile)
	if err != nil {
		return domain.Grid{}, err
	}
	return domain.Grid{Lon: lon, Lat: lat}, nil
}

// ReadRaster reads an artifact and checks it against the grid.
func (s *Store) ReadRaster(name string, g domain.Grid) (domain.Raster, error) {
	values, err := s.ReadFloats(name)
	if err != nil {
		return domain.Raster{}, err
	}
	r, err := domain.RasterFromData(g, values)
	if err != nil {
		return domain.Raster{}, fmt.Errorf("%s: %w", name, err)
	}
	return r, nil
}

// Digest returns the hex SHA-256 of an artifact on disk.
func (s *Store) Digest(name string) (string, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
