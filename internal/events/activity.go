// Package events defines the Kafka payloads exchanged with the fetcher and the formatter.
package events

import (
	"encoding/json"
	"time"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/activity"
)

const (
	// SnapshotBatchEventType marks a batch of raw daily snapshots fetched for one player.
	SnapshotBatchEventType = "activity.snapshot_batch"
	// SummaryBuiltEventType marks an aggregated report ready for formatting.
	SummaryBuiltEventType = "activity.summary_built"
)

// SnapshotBatch carries the raw Lichess activity days for one player, as fetched.
type SnapshotBatch struct {
	Username  string            `json:"username"`
	FetchedAt time.Time         `json:"fetched_at"`
	Days      []json.RawMessage `json:"days"`
}

// SummaryBuilt is emitted once a report window has been aggregated.
type SummaryBuilt struct {
	ReportID string                   `json:"report_id"`
	Username string                   `json:"username"`
	BuiltAt  time.Time                `json:"built_at"`
	Summary  activity.ActivitySummary `json:"summary"`
}
