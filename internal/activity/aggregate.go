package activity

import (
	"encoding/json"
	"sort"
	"time"
)

// ActivitySummary is the read-only result of folding a report window of records.
type ActivitySummary struct {
	hasRange   bool
	from       time.Time
	to         time.Time
	games      map[GameType]GameStat
	puzzles    *PuzzleStat
	inProgress *CorrespondenceInProgress
	completed  *CorrespondenceCompleted
}

// Aggregate folds records into one summary. Records are sorted by date first, so callers
// may pass them in any order; the input slice and its records are left untouched. An empty
// input yields an empty summary.
func Aggregate(records []ActivityRecord) (ActivitySummary, error) {
	summary := ActivitySummary{games: make(map[GameType]GameStat)}
	if len(records) == 0 {
		return summary, nil
	}

	sorted := append([]ActivityRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	summary.hasRange = true
	summary.from = sorted[0].Date
	summary.to = sorted[len(sorted)-1].Date

	for _, record := range sorted {
		for _, game := range record.Games {
			held, ok := summary.games[game.Type]
			if !ok {
				summary.games[game.Type] = game
				continue
			}
			merged, err := held.Merge(game)
			if err != nil {
				return ActivitySummary{}, err
			}
			summary.games[game.Type] = merged
		}

		if record.Puzzles != nil {
			next := *record.Puzzles
			if summary.puzzles != nil {
				next = summary.puzzles.Merge(next)
			}
			summary.puzzles = &next
		}

		if record.CorrespondenceInProgress != nil {
			next := *record.CorrespondenceInProgress
			if summary.inProgress != nil {
				next = summary.inProgress.Merge(next)
			}
			summary.inProgress = &next
		}

		if record.CorrespondenceCompleted != nil {
			next := *record.CorrespondenceCompleted
			if summary.completed != nil {
				next = summary.completed.Merge(next)
			}
			summary.completed = &next
		}
	}

	return summary, nil
}

// HasRange reports whether the summary covers at least one day.
func (s ActivitySummary) HasRange() bool {
	return s.hasRange
}

// From is the first day of the report window, zero when the summary has no range.
func (s ActivitySummary) From() time.Time {
	return s.from
}

// To is the last day of the report window, zero when the summary has no range.
func (s ActivitySummary) To() time.Time {
	return s.to
}

// Days is the inclusive length of the report window.
func (s ActivitySummary) Days() int {
	if !s.HasRange() {
		return 0
	}
	return int(s.to.Sub(s.from).Hours()/24) + 1
}

// Games returns the per-type stats in canonical game type order.
func (s ActivitySummary) Games() []GameStat {
	out := make([]GameStat, 0, len(s.games))
	for _, t := range gameTypeOrder {
		if g, ok := s.games[t]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Game returns the stats for one game type.
func (s ActivitySummary) Game(t GameType) (GameStat, bool) {
	g, ok := s.games[t]
	return g, ok
}

// Puzzles returns the folded puzzle stats and whether any day had puzzles.
func (s ActivitySummary) Puzzles() (PuzzleStat, bool) {
	if s.puzzles == nil {
		return PuzzleStat{}, false
	}
	return *s.puzzles, true
}

// CorrespondenceInProgress returns the folded move counts with their game refs, and whether
// any day had correspondence moves. The returned slice is a copy.
func (s ActivitySummary) CorrespondenceInProgress() (CorrespondenceInProgress, bool) {
	if s.inProgress == nil {
		return CorrespondenceInProgress{}, false
	}
	out := *s.inProgress
	out.Games = append([]CorrespondenceGameRef(nil), out.Games...)
	return out, true
}

// CorrespondenceCompleted returns the folded finished correspondence games, and whether any
// day had them. The returned slice is a copy.
func (s ActivitySummary) CorrespondenceCompleted() (CorrespondenceCompleted, bool) {
	if s.completed == nil {
		return CorrespondenceCompleted{}, false
	}
	out := *s.completed
	out.Games = append([]CorrespondenceGameRef(nil), out.Games...)
	return out, true
}

// MatchesPlayed counts live games of every type plus finished correspondence games.
func (s ActivitySummary) MatchesPlayed() int {
	total := 0
	for _, g := range s.games {
		total += g.Matches()
	}
	if s.completed != nil {
		total += s.completed.Matches()
	}
	return total
}

// IsEmpty reports whether there were neither rated games nor puzzles in the window.
func (s ActivitySummary) IsEmpty() bool {
	return len(s.games) == 0 && s.puzzles == nil
}

const dateLayout = "2006-01-02"

type summaryView struct {
	From                     string                    `json:"from_date,omitempty"`
	To                       string                    `json:"to_date,omitempty"`
	MatchesPlayed            int                       `json:"matches_played"`
	Games                    []GameStat                `json:"games"`
	Puzzles                  *PuzzleStat               `json:"puzzles,omitempty"`
	CorrespondenceInProgress *CorrespondenceInProgress `json:"correspondence_in_progress,omitempty"`
	CorrespondenceCompleted  *CorrespondenceCompleted  `json:"correspondence_completed,omitempty"`
}

// MarshalJSON renders the summary for downstream formatters.
func (s ActivitySummary) MarshalJSON() ([]byte, error) {
	view := summaryView{
		MatchesPlayed:            s.MatchesPlayed(),
		Games:                    s.Games(),
		Puzzles:                  s.puzzles,
		CorrespondenceInProgress: s.inProgress,
		CorrespondenceCompleted:  s.completed,
	}
	if s.HasRange() {
		view.From = s.from.Format(dateLayout)
		view.To = s.to.Format(dateLayout)
	}
	return json.Marshal(view)
}
