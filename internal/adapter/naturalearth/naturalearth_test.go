package naturalearth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Attributes(t *testing.T) {
	r := Record{Attributes: map[string]any{
		"zone":    -3.5,
		"count":   int64(8),
		"NAME":    "Lisbon  ",
		"name_en": nil,
		"bad":     "eight",
	}}

	v, err := r.Float("zone")
	require.NoError(t, err)
	assert.Equal(t, -3.5, v)

	v, err = r.Float("count")
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)

	_, err = r.Float("bad")
	require.Error(t, err)

	_, err = r.Float("missing")
	require.Error(t, err)

	assert.Equal(t, "Lisbon", r.String("NAME"))
	assert.Empty(t, r.String("name_en"))
	assert.Empty(t, r.String("missing"))
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "ne_10m_time_zones.zip"), "zone")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRead_NotAZip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "zones.zip")
	require.NoError(t, os.WriteFile(p, []byte("not a zip"), 0o644))
	_, err := Read(p, "zone")
	require.Error(t, err)
}
