package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/events"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/report"
)

var (
	publishedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_report",
		Subsystem: "publisher",
		Name:      "summaries_published_total",
		Help:      "Number of summary events written to Kafka.",
	}, []string{"topic"})

	publishFailedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_report",
		Subsystem: "publisher",
		Name:      "publish_failures_total",
		Help:      "Number of summary events Kafka refused.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(publishedCounter, publishFailedCounter)
}

// Writer is the subset of KafkaProducer the SummaryPublisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// SummaryPublisher emits activity.summary_built events.
type SummaryPublisher struct {
	writer Writer
	topic  string
}

// NewSummaryPublisher constructs a SummaryPublisher writing to topic.
func NewSummaryPublisher(writer Writer, topic string) *SummaryPublisher {
	return &SummaryPublisher{writer: writer, topic: topic}
}

// Publish writes the report keyed by username.
func (p *SummaryPublisher) Publish(ctx context.Context, rep report.Report) error {
	body, err := json.Marshal(events.SummaryBuilt{
		ReportID: rep.ID,
		Username: rep.Username,
		BuiltAt:  rep.BuiltAt,
		Summary:  rep.Summary,
	})
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(rep.Username),
		Value: body,
		Time:  rep.BuiltAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.SummaryBuiltEventType)},
			{Key: "report_id", Value: []byte(rep.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, p.topic, msg); err != nil {
		publishFailedCounter.WithLabelValues(p.topic).Inc()
		return fmt.Errorf("write %s: %w", p.topic, err)
	}
	publishedCounter.WithLabelValues(p.topic).Inc()
	return nil
}
