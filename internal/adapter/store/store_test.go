package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStore_FloatsRoundTrip(t *testing.T) {
	s := newStore(t)
	values := []float64{0, -1, 12.5, 23.999, 6378160}

	digest, err := s.WriteFloats("noonDiff.bin", values)
	require.NoError(t, err)
	assert.Len(t, digest, 64)
	assert.True(t, s.Exists("noonDiff.bin"))

	info, err := os.Stat(s.Path("noonDiff.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(len(values)*8), info.Size())

	got, err := s.ReadFloats("noonDiff.bin")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(values, got))

	again, err := s.Digest("noonDiff.bin")
	require.NoError(t, err)
	assert.Equal(t, digest, again)
}

func TestStore_ReadMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.ReadFloats("elev.bin")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, s.Exists("elev.bin"))
}

func TestStore_ReadTruncated(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.WriteFile(s.Path("elev.bin"), []byte{1, 2, 3}, 0o644))
	_, err := s.ReadFloats("elev.bin")
	require.Error(t, err)
}

func TestStore_ReadRasterShape(t *testing.T) {
	s := newStore(t)
	g := domain.NewGrid(3, 2)

	_, err := s.WriteFloats(domain.LonFile, g.Lon)
	require.NoError(t, err)
	_, err = s.WriteFloats(domain.LatFile, g.Lat)
	require.NoError(t, err)
	_, err = s.WriteFloats(domain.ElevationFile, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	_, err = s.WriteFloats(domain.NoonFile, []float64{1, 2, 3})
	require.NoError(t, err)

	got, err := s.ReadGrid()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(g, got))

	r, err := s.ReadRaster(domain.ElevationFile, got)
	require.NoError(t, err)
	assert.Equal(t, 6.0, r.At(1, 2))

	_, err = s.ReadRaster(domain.NoonFile, got)
	require.ErrorIs(t, err, domain.ErrShapeMismatch)
}

func TestStore_FailedWriteLeavesNothing(t *testing.T) {
	s := newStore(t)
	boom := errors.New("boom")

	_, err := s.WriteFile("timeZone.bin", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, s.Exists("timeZone.bin"))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must be cleaned up")
}

func TestStore_ManifestRecordAndVerify(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC))
	domain.SetClock(fake)
	defer domain.SetClock(nil)

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	digest, err := s.WriteFloats("elev.bin", []float64{1, 2, 3, 4})
	require.NoError(t, err)
	e, err := s.Record("elev.bin", []int{2, 2}, digest)
	require.NoError(t, err)
	assert.Equal(t, fake.Now(), e.CreatedAt)
	require.NoError(t, s.Verify("elev.bin"))

	// A fresh store sees the persisted manifest.
	reopened, err := New(dir)
	require.NoError(t, err)
	got, ok := reopened.Entry("elev.bin")
	require.True(t, ok)
	assert.Equal(t, []int{2, 2}, got.Shape)
	assert.Equal(t, digest, got.SHA256)
	assert.True(t, got.CreatedAt.Equal(fake.Now()))

	// Tampering is detected.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "elev.bin"), make([]byte, 32), 0o644))
	require.ErrorIs(t, reopened.Verify("elev.bin"), ErrDigestMismatch)

	// Unrecorded artifacts are not checked.
	require.NoError(t, reopened.Verify("noonDiff.bin"))
}

func TestNew_BadManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{"), 0o644))
	_, err := New(dir)
	require.Error(t, err)
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := newStore(t)
	_, err := s.Record("lon.bin", []int{4}, "d1")
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap, 1)
	delete(snap, "lon.bin")

	_, ok := s.Entry("lon.bin")
	assert.True(t, ok)
}
