// Package audit is the fire-and-forget audit trail. Entries are published
// to Kafka after each mutating operation; a publish failure is logged and
// never fails the primary operation.
package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/retailpos/backoffice/internal/logging"
)

type Entry struct {
	ActorID uint           `json:"actor_id"`
	Action  string         `json:"action"`
	Details map[string]any `json:"details,omitempty"`
	At      time.Time      `json:"at"`
}

type Sink interface {
	Record(ctx context.Context, e Entry)
}

type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (s *KafkaSink) Record(ctx context.Context, e Entry) {
	l := logging.FromContext(ctx).With("sink", "audit")

	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		l.Error("audit_marshal_failed", "action", e.Action, "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(e.ActorID), 10)),
		Value: data,
	}
	if err := s.writer.WriteMessages(writeCtx, msg); err != nil {
		l.Error("audit_publish_failed", "action", e.Action, "error", err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// Nop discards entries. Used in tests and when no brokers are configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
