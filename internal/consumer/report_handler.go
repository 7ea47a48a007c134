package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/events"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/report"
)

// SummaryPublisher forwards a built report to the formatter.
type SummaryPublisher interface {
	Publish(context.Context, report.Report) error
}

// RejectionRecorder stores batches that could not be turned into a report.
type RejectionRecorder interface {
	Record(context.Context, report.Rejection) error
}

// ReportHandlerOption configures a ReportHandler.
type ReportHandlerOption func(*ReportHandler)

// WithHandlerLogger overrides the logger used to report rejected batches.
func WithHandlerLogger(logger *log.Logger) ReportHandlerOption {
	return func(h *ReportHandler) {
		h.logger = logger
	}
}

// ReportHandler builds a report for every snapshot batch and publishes it. Batches that
// break the activity schema or its invariants go to the rejection log instead; they are
// acknowledged so a malformed batch never blocks the partition.
type ReportHandler struct {
	service   *report.Service
	publisher SummaryPublisher
	recorder  RejectionRecorder
	logger    *log.Logger
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(service *report.Service, publisher SummaryPublisher, recorder RejectionRecorder, opts ...ReportHandlerOption) *ReportHandler {
	h := &ReportHandler{
		service:   service,
		publisher: publisher,
		recorder:  recorder,
		logger:    log.New(log.Writer(), "[report-handler] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle implements Handler.
func (h *ReportHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.SnapshotBatchEventType {
		h.logger.Printf("skipping event_type=%s (topic=%s, offset=%d)", msg.EventType, msg.Topic, msg.Offset)
		return nil
	}

	batch, err := decodeBatch(msg.Payload)
	if err != nil {
		return h.reject(ctx, report.Rejection{
			Username:   msg.Key,
			Source:     report.SourceConsumer,
			DayIndex:   -1,
			Kind:       "schema",
			Reason:     err.Error(),
			Payload:    msg.Payload,
			RejectedAt: msg.Timestamp.UTC(),
		})
	}

	rep, err := h.service.Build(ctx, report.SourceConsumer, batch.Username, batch.Days)
	if err != nil {
		if errors.Is(err, report.ErrMissingUsername) {
			return h.reject(ctx, report.Rejection{
				Username:   msg.Key,
				Source:     report.SourceConsumer,
				DayIndex:   -1,
				Kind:       "schema",
				Reason:     err.Error(),
				Payload:    msg.Payload,
				RejectedAt: msg.Timestamp.UTC(),
			})
		}
		rejection, ok := h.service.RejectionFor(report.SourceConsumer, batch.Username, batch.Days, err)
		if !ok {
			return err
		}
		return h.reject(ctx, rejection)
	}

	if err := h.publisher.Publish(ctx, rep); err != nil {
		return fmt.Errorf("publish summary %s: %w", rep.ID, err)
	}
	return nil
}

func (h *ReportHandler) reject(ctx context.Context, rejection report.Rejection) error {
	h.logger.Printf("rejected batch (username=%s, day=%d, kind=%s): %s", rejection.Username, rejection.DayIndex, rejection.Kind, rejection.Reason)
	if err := h.recorder.Record(ctx, rejection); err != nil {
		return fmt.Errorf("record rejection: %w", err)
	}
	recordBatchRejected(rejection.Kind)
	return nil
}

func decodeBatch(payload json.RawMessage) (events.SnapshotBatch, error) {
	var batch events.SnapshotBatch
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&batch); err != nil {
		return events.SnapshotBatch{}, fmt.Errorf("decode snapshot batch: %w", err)
	}
	if batch.Days == nil {
		return events.SnapshotBatch{}, errors.New("decode snapshot batch: days is required")
	}
	return batch, nil
}
