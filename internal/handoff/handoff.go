// Package handoff publishes unindexed dependency records to Kafka for the
// downstream indexer.
package handoff

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/kafka-go"

	"github.com/matzehuels/locallore/pkg/errors"
	"github.com/matzehuels/locallore/pkg/harvest"
	"github.com/matzehuels/locallore/pkg/store"
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the JSON value of each published record. The unindexed set is
// store-wide, so ScannedPath names the scan that triggered the publish and
// not necessarily a project that uses the record.
type Message struct {
	Record      store.Record `json:"record"`
	ScannedPath string       `json:"scanned_path"`
	Scanned     time.Time    `json:"scanned_at"`
}

// Publisher sends one message per unindexed record after a scan.
type Publisher struct {
	writer Writer
	logger *log.Logger
}

// NewKafkaWriter returns a synchronous writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewPublisher wraps w.
func NewPublisher(w Writer, logger *log.Logger) *Publisher {
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes summary.Unindexed. Messages are keyed by identity so one
// dependency always lands on the same partition.
func (p *Publisher) Publish(ctx context.Context, summary *harvest.ScanSummary) error {
	if summary == nil || len(summary.Unindexed) == 0 {
		return nil
	}
	msgs, err := Messages(summary, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "publish %d unindexed records", len(msgs))
	}
	p.logger.Debug("published unindexed records", "path", summary.Path, "count", len(msgs))
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error { return p.writer.Close() }

// Messages converts the unindexed records of summary to Kafka messages.
func Messages(summary *harvest.ScanSummary, at time.Time) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(summary.Unindexed))
	for _, r := range summary.Unindexed {
		value, err := json.Marshal(Message{Record: r, ScannedPath: summary.Path, Scanned: at})
		if err != nil {
			return nil, err
		}
		out = append(out, kafka.Message{
			Key:   []byte(r.Identity().String()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "ecosystem", Value: []byte(r.Ecosystem)},
			},
		})
	}
	return out, nil
}
