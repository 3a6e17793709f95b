package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/sea-level-risk/internal/config"
	"github.com/couchcryptid/sea-level-risk/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	headerYear        = "year"
	headerGeneratedAt = "generated_at"
)

// Writer publishes flood records to a Kafka topic, one message per record.
// It implements pipeline.ReportLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// LoadReport serializes every record in the report and publishes them in a
// single WriteMessages call. Records for one location share a key, so they
// land on one partition in decade order.
func (w *Writer) LoadReport(ctx context.Context, report *domain.FloodReport) error {
	if len(report.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Records))
	for i := range report.Records {
		msg, err := serializeToMessage(report.Records[i], report.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish flood records: %w", err)
	}
	w.logger.Debug("flood records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FloodRecord into a Kafka message keyed by location.
func serializeToMessage(record domain.FloodRecord, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize flood record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(locationKey(record.Lat, record.Lon)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: headerYear, Value: []byte(strconv.Itoa(record.Year))},
			{Key: headerGeneratedAt, Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}

// DecodeRecord parses a message produced by Writer.
func DecodeRecord(msg kafkago.Message) (domain.FloodRecord, error) {
	var record domain.FloodRecord
	if err := json.Unmarshal(msg.Value, &record); err != nil {
		return domain.FloodRecord{}, fmt.Errorf("decode flood record: %w", err)
	}
	return record, nil
}

func locationKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}
