// Package postgres stores rejected activity batches.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/persistence"
	"github.com/Timofey28/Lichess-Telegram-Bot/internal/report"
)

const defaultListLimit = 50

// RejectionStore persists rejections in the activity_rejections table.
type RejectionStore struct {
	pool *pgxpool.Pool
}

// NewRejectionStore constructs a RejectionStore.
func NewRejectionStore(pool *pgxpool.Pool) *RejectionStore {
	return &RejectionStore{pool: pool}
}

// Record inserts one rejection.
func (s *RejectionStore) Record(ctx context.Context, rejection report.Rejection) error {
	const stmt = `INSERT INTO activity_rejections (username, source, day_index, kind, reason, payload, rejected_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := s.pool.Exec(ctx, stmt,
		rejection.Username,
		rejection.Source,
		rejection.DayIndex,
		rejection.Kind,
		rejection.Reason,
		payloadOrNull(rejection.Payload),
		rejection.RejectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert rejection: %w", err)
	}
	return nil
}

// ListRecent returns rejections newest first, optionally for one username, starting after
// cursor. A non-positive limit falls back to 50. The returned cursor is nil on the last page.
func (s *RejectionStore) ListRecent(ctx context.Context, username string, cursor *persistence.Cursor, limit int) ([]report.Rejection, *persistence.Cursor, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	args := []interface{}{username, limit}
	query := `SELECT rejection_id, username, source, day_index, kind, reason, payload, rejected_at
        FROM activity_rejections
        WHERE ($1 = '' OR username = $1)`

	if cursor != nil {
		query += ` AND (rejected_at, rejection_id) < ($3, $4)`
		args = append(args, cursor.RejectedAt, cursor.ID)
	}

	query += ` ORDER BY rejected_at DESC, rejection_id DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query rejections: %w", err)
	}
	defer rows.Close()

	results := make([]report.Rejection, 0, limit)
	for rows.Next() {
		var (
			r       report.Rejection
			payload []byte
		)
		if err := rows.Scan(&r.ID, &r.Username, &r.Source, &r.DayIndex, &r.Kind, &r.Reason, &payload, &r.RejectedAt); err != nil {
			return nil, nil, err
		}
		if len(payload) > 0 {
			r.Payload = json.RawMessage(payload)
		}
		r.RejectedAt = r.RejectedAt.UTC()
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *persistence.Cursor
	if len(results) == limit {
		last := results[len(results)-1]
		next = &persistence.Cursor{RejectedAt: last.RejectedAt, ID: last.ID}
	}
	return results, next, nil
}

func payloadOrNull(payload json.RawMessage) interface{} {
	if len(payload) == 0 || !json.Valid(payload) {
		return nil
	}
	return string(payload)
}
