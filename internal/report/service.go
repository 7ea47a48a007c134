// Package report turns raw activity batches into identified activity summaries.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/activity"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/observability"
)

// Sources label where a batch came from.
const (
	SourceAPI      = "api"
	SourceConsumer = "consumer"
)

// ErrMissingUsername is returned when a batch is not attributed to a player.
var ErrMissingUsername = errors.New("username is required")

// Report is an aggregated activity summary for one player.
type Report struct {
	ID       string
	Username string
	BuiltAt  time.Time
	Summary  activity.ActivitySummary
}

// Rejection records a batch refused because of a schema or invariant violation.
type Rejection struct {
	ID         int64 // assigned by the rejection log
	Username   string
	Source     string
	DayIndex   int // -1 when the failure is not tied to a single day
	Kind       string
	Reason     string
	Payload    json.RawMessage
	RejectedAt time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides report id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// Service validates and aggregates batches. Each call works on its own records, so a
// Service may be shared between goroutines.
type Service struct {
	validator *activity.Validator
	now       func() time.Time
	newID     func() string
}

// NewService constructs a Service.
func NewService(validator *activity.Validator, opts ...Option) *Service {
	s := &Service{
		validator: validator,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build validates every day and folds them into a Report. Any invalid day fails the whole
// batch; the error wraps activity.ErrSchemaViolation or activity.ErrInvariantViolation.
func (s *Service) Build(ctx context.Context, source, username string, days []json.RawMessage) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	username = strings.TrimSpace(username)
	if username == "" {
		return Report{}, ErrMissingUsername
	}

	records, err := s.validator.ValidateBatch(days)
	if err != nil {
		observability.RecordDayRejected(source, err)
		return Report{}, fmt.Errorf("validate activity of %s: %w", username, err)
	}
	observability.RecordDaysValidated(source, len(records))

	summary, err := activity.Aggregate(records)
	if err != nil {
		return Report{}, fmt.Errorf("aggregate activity of %s: %w", username, err)
	}
	observability.RecordSummaryBuilt(source, summary)

	return Report{
		ID:       s.newID(),
		Username: username,
		BuiltAt:  s.now().UTC(),
		Summary:  summary,
	}, nil
}

// RejectionFor describes a Build failure for the rejection log. It reports false when err
// is not a schema or invariant violation.
func (s *Service) RejectionFor(source, username string, days []json.RawMessage, err error) (Rejection, bool) {
	kind := activity.ViolationKind(err)
	if kind == "" {
		return Rejection{}, false
	}

	rejection := Rejection{
		Username:   strings.TrimSpace(username),
		Source:     source,
		DayIndex:   -1,
		Kind:       kind,
		Reason:     err.Error(),
		RejectedAt: s.now().UTC(),
	}

	var dayErr *activity.DayError
	if errors.As(err, &dayErr) {
		rejection.DayIndex = dayErr.Index
		rejection.Reason = dayErr.Err.Error()
		if dayErr.Index >= 0 && dayErr.Index < len(days) {
			rejection.Payload = days[dayErr.Index]
		}
	}
	return rejection, true
}
