//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/noonmap/internal/adapter/kafka"
	"github.com/couchcryptid/noonmap/internal/adapter/store"
	"github.com/couchcryptid/noonmap/internal/config"
	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/couchcryptid/noonmap/internal/ephemeris"
	"github.com/couchcryptid/noonmap/internal/observability"
	"github.com/couchcryptid/noonmap/internal/pipeline"
	"github.com/couchcryptid/noonmap/internal/timezone"
	"github.com/paulmach/orb"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-raster-artifacts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("noonmap-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// flatWorld is a sea-level elevation source on a coarse grid.
type flatWorld struct {
	nLon, nLat int
}

func (f flatWorld) Build(_ context.Context) (domain.Grid, domain.Raster, error) {
	g := domain.NewGrid(f.nLon, f.nLat)
	return g, domain.NewRaster(g), nil
}

func utcEverywhere() (timezone.Classifier, error) {
	world := orb.Polygon{orb.Ring{{-180, -90}, {180, -90}, {180, 90}, {-180, 90}, {-180, -90}}}
	return timezone.NewIndex([]domain.Zone{{Name: "UTC", Offset: 0, Geometry: world}}), nil
}

// TestNotifierPublishesArtifacts runs every stage with the Kafka notifier
// and checks one event arrives per written artifact.
func TestNotifierPublishesArtifacts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	notifier := kafka.NewNotifier(cfg, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(st, flatWorld{nLon: 12, nLat: 6}, ephemeris.NewMeeus(), utcEverywhere,
		pipeline.Options{Workers: 2, Notifier: notifier}, discardLogger(), metrics)
	require.NoError(t, p.Run(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	want := []string{
		domain.LonFile, domain.LatFile, domain.ElevationFile, domain.NoonFile,
		domain.SunsetFile, domain.SunriseFile, domain.TimeZoneFile, domain.TimeZoneDiffFile,
	}
	got := make(map[string]domain.ArtifactEvent, len(want))
	for len(got) < len(want) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read artifact event")

		var ev domain.ArtifactEvent
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		assert.Equal(t, ev.Name, string(msg.Key))

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, ev.Stage, headers["stage"])
		_, err = time.Parse(time.RFC3339, headers["created_at"])
		assert.NoError(t, err, "created_at should be valid RFC3339")

		got[ev.Name] = ev
	}

	for _, name := range want {
		ev, ok := got[name]
		require.True(t, ok, "missing event for %s", name)
		entry, ok := st.Entry(name)
		require.True(t, ok)
		assert.Equal(t, entry.SHA256, ev.SHA256, name)
	}
	assert.Equal(t, 6, got[domain.NoonFile].NLat)
	assert.Equal(t, 12, got[domain.NoonFile].NLon)
	assert.Equal(t, pipeline.StageDiff, got[domain.TimeZoneDiffFile].Stage)
}
