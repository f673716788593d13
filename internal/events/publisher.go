// Package events publishes a per-run summary to Kafka for downstream
// audit consumers. Best-effort: the pipeline logs publish failures and
// moves on.
package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/rawbank/siop-reporter/internal/model"
)

// runEvent is the wire shape of one run summary.
type runEvent struct {
	RunID     string `json:"run_id"`
	Date      string `json:"date"`
	Records   int    `json:"records"`
	Skipped   int    `json:"skipped"`
	Bundles   int    `json:"bundles"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
}

// Publisher is a thin wrapper around a kafka-go Writer.
type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishRunResult emits one summary event keyed by run id.
func (p *Publisher) PublishRunResult(ctx context.Context, res model.RunResult) error {
	payload, err := json.Marshal(runEvent{
		RunID:     res.RunID,
		Date:      res.Date,
		Records:   res.TotalRecords,
		Skipped:   res.SkippedRecords,
		Bundles:   res.BundleCount,
		Delivered: res.Delivered(),
		Failed:    res.Failed(),
	})
	if err != nil {
		return err
	}

	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(res.RunID),
		Value: payload,
	})
}

func (p *Publisher) Close() error { return p.w.Close() }
