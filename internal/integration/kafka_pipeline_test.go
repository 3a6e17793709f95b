//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/adapter/dataset"
	"github.com/couchcryptid/sea-level-risk/internal/adapter/geojson"
	"github.com/couchcryptid/sea-level-risk/internal/adapter/kafka"
	"github.com/couchcryptid/sea-level-risk/internal/config"
	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/couchcryptid/sea-level-risk/internal/observability"
	"github.com/couchcryptid/sea-level-risk/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "test-flood-records"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("sea-level-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic so consumption order matches
// publish order.
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

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// writeFixtures lays out a dataset file and an altitude file where every
// sample lies below sea level in every decade.
func writeFixtures(t *testing.T, dir string) (datasetPath, altitudePath string) {
	t.Helper()
	temps := make(domain.TemperatureSeries)
	for y := 2006; y <= 2100; y++ {
		temps[y] = 288 + 0.02*float64(y-2012)
	}
	sea := make(domain.SeaLevelSeries)
	for y := 2006; y <= 2018; y++ {
		d := float64(y - 2012)
		sea[y] = 0.03 * d * d
	}
	data := &domain.ClimateData{Temperatures: domain.QuadrantSeries{temps, temps, temps, temps}, SeaLevels: sea}

	datasetPath = filepath.Join(dir, "datasets.json")
	f, err := os.Create(datasetPath)
	require.NoError(t, err)
	require.NoError(t, dataset.WriteJSON(f, data))
	require.NoError(t, f.Close())

	altitudePath = filepath.Join(dir, "altitudes.json")
	f, err = os.Create(altitudePath)
	require.NoError(t, err)
	require.NoError(t, dataset.WriteAltitudes(f, []domain.AltitudeSample{
		{Lat: 45.5, Lon: -134, Altitude: -5},
		{Lat: 78.5, Lon: -62, Altitude: -5},
	}))
	require.NoError(t, f.Close())
	return datasetPath, altitudePath
}

// TestPipelinePublishesToKafka runs the pipeline end to end with the Kafka
// writer and file sink, then reads the records back from the topic.
func TestPipelinePublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	dir := t.TempDir()
	datasetPath, altitudePath := writeFixtures(t, dir)

	cfg := config.New()
	cfg.KafkaEnabled = true
	cfg.KafkaBrokers = []string{broker}
	cfg.KafkaTopic = testTopic
	region, err := cfg.Region()
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	reportPath := filepath.Join(dir, "report.json")

	p := pipeline.New(
		dataset.JSONSource{Path: datasetPath},
		dataset.AltitudeFile{Path: altitudePath},
		[]pipeline.ReportLoader{writer, geojson.FileSink{Path: reportPath}},
		pipeline.Settings{
			Region:          region,
			Rows:            cfg.GridRows,
			Cols:            cfg.GridCols,
			Decades:         cfg.Decades,
			Integrator:      cfg.Integrator(),
			SinkMaxAttempts: 5,
		},
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
	require.NoError(t, p.Run(ctx))

	report := p.Latest()
	require.NotNil(t, report)
	require.Len(t, report.Records, 2*len(domain.DefaultDecades))

	written, err := geojson.ReadReport(reportPath)
	require.NoError(t, err)
	assert.Equal(t, report.Records, written.Records)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testTopic,
		Partition: 0,
		MaxWait:   500 * time.Millisecond,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	for i, want := range report.Records {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read message %d", i)

		got, err := kafka.DecodeRecord(msg)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, strconv.Itoa(want.Year), headers["year"])
		assert.Equal(t, report.GeneratedAt.Format(time.RFC3339), headers["generated_at"])
		assert.Equal(t, strconv.FormatFloat(want.Lat, 'f', -1, 64)+","+strconv.FormatFloat(want.Lon, 'f', -1, 64), string(msg.Key))
	}
}
