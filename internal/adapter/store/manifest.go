package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/couchcryptid/noonmap/internal/domain"
)

// ManifestFile is the name of the manifest inside the data directory.
const ManifestFile = "manifest.json"

// ErrDigestMismatch is returned when an artifact no longer matches the
// digest recorded for it.
var ErrDigestMismatch = errors.New("artifact digest mismatch")

// Entry records how an artifact was produced.
type Entry struct {
	Shape     []int     `json:"shape"`
	SHA256    string    `json:"sha256"`
	CreatedAt time.Time `json:"created_at"`
}

// Manifest maps artifact names to entries.
type Manifest map[string]Entry

func loadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m := Manifest{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Record stores an entry for name, stamped with the domain clock, and
// rewrites the manifest file.
func (s *Store) Record(name string, shape []int, digest string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{Shape: shape, SHA256: digest, CreatedAt: domain.Now()}
	s.manifest[name] = e
	_, err := s.WriteFile(ManifestFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s.manifest)
	})
	return e, err
}

// Entry returns the manifest entry for name.
func (s *Store) Entry(name string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.manifest[name]
	return e, ok
}

// Verify recomputes an artifact's digest and compares it with the manifest.
// Artifacts without an entry are not checked.
func (s *Store) Verify(name string) error {
	e, ok := s.Entry(name)
	if !ok {
		return nil
	}
	got, err := s.Digest(name)
	if err != nil {
		return err
	}
	if got != e.SHA256 {
		return fmt.Errorf("%w: %s", ErrDigestMismatch, name)
	}
	return nil
}

// Snapshot returns a copy of the manifest.
func (s *Store) Snapshot() Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(Manifest, len(s.manifest))
	for k, v := range s.manifest {
		m[k] = v
	}
	return m
}
