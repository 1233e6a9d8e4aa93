// Package events publishes job run notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/andresuchdata/erpsync/internal/config"
	"github.com/andresuchdata/erpsync/internal/domain"
)

const (
	defaultTopic = "erpsync.job_runs"
	writeTimeout = 5 * time.Second
)

// JobRunEvent is the message emitted once per finished job run.
type JobRunEvent struct {
	RunID      string    `json:"run_id"`
	Job        string    `json:"job"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

// FromRun builds the event of a finished run.
func FromRun(run domain.JobRun) JobRunEvent {
	ev := JobRunEvent{
		RunID:     run.ID,
		Job:       run.Job,
		Status:    run.Status,
		Rows:      run.Rows,
		StartedAt: run.StartedAt,
	}
	if run.ErrorMessage != nil {
		ev.Error = *run.ErrorMessage
	}
	if run.FinishedAt != nil {
		ev.FinishedAt = *run.FinishedAt
		ev.DurationMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	}
	return ev
}

type Publisher interface {
	Publish(ctx context.Context, ev JobRunEvent) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

type noopPublisher struct{}

// NewPublisher returns a Kafka publisher, or a noop one when no broker is
// configured.
func NewPublisher(cfg config.EventsConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		return noopPublisher{}
	}

	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}

	log.Info().Strs("brokers", cfg.Brokers).Str("topic", topic).Msg("kafka publisher enabled")
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           writeTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

// message keys by job so runs of one job keep their order on a partition.
func message(ev JobRunEvent) (kafka.Message, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode job run event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.Job),
		Value: value,
		Time:  ev.FinishedAt,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(ev.Status)},
		},
	}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, ev JobRunEvent) error {
	msg, err := message(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish job run event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

func (noopPublisher) Publish(context.Context, JobRunEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
