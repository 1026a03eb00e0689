package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/noonmap/internal/config"
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2019, 3, 20, 12, 0, 0, 0, time.UTC)
	event := domain.ArtifactEvent{
		Name:      domain.NoonFile,
		Stage:     "noon",
		NLat:      180,
		NLon:      360,
		Min:       0.1,
		Max:       23.9,
		Mean:      12,
		SHA256:    "abc123",
		CreatedAt: now,
	}

	msg, err := serializeToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, []byte("noonDiff.bin"), msg.Key)
	assert.Contains(t, string(msg.Value), `"stage":"noon"`)
	assert.Contains(t, string(msg.Value), `"n_lat":180`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "stage", msg.Headers[0].Key)
	assert.Equal(t, []byte("noon"), msg.Headers[0].Value)
	assert.Equal(t, "created_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var decoded domain.ArtifactEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestSerializeToMessage_NaN(t *testing.T) {
	_, err := serializeToMessage(domain.ArtifactEvent{Name: "x", Mean: math.NaN()})
	require.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "raster-artifacts"}
	n := NewNotifier(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "raster-artifacts", n.writer.Topic)
	require.NoError(t, n.Close())
}
