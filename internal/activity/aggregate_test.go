package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregateEmpty(t *testing.T) {
	summary, err := Aggregate(nil)
	require.NoError(t, err)
	require.False(t, summary.HasRange())
	require.True(t, summary.From().IsZero())
	require.True(t, summary.To().IsZero())
	require.Zero(t, summary.Days())
	require.Empty(t, summary.Games())
	_, ok := summary.Puzzles()
	require.False(t, ok)
	_, ok = summary.CorrespondenceInProgress()
	require.False(t, ok)
	_, ok = summary.CorrespondenceCompleted()
	require.False(t, ok)
	require.True(t, summary.IsEmpty())
}

func TestAggregateBulletScenario(t *testing.T) {
	records := []ActivityRecord{
		{Date: day(2), Games: []GameStat{{Type: GameTypeBullet, Wins: 1, Losses: 0, Draws: 1, RatingBefore: 10, RatingAfter: 12}}},
		{Date: day(1), Games: []GameStat{{Type: GameTypeBullet, Wins: 2, Losses: 1, Draws: 0, RatingBefore: 5, RatingAfter: 10}}},
	}

	summary, err := Aggregate(records)
	require.NoError(t, err)

	bullet, ok := summary.Game(GameTypeBullet)
	require.True(t, ok)
	require.Equal(t, GameStat{Type: GameTypeBullet, Wins: 3, Losses: 1, Draws: 1, RatingBefore: 5, RatingAfter: 12}, bullet)
	require.Equal(t, 5, summary.MatchesPlayed())

	require.Equal(t, day(2), records[0].Date, "input order is preserved")
	require.Equal(t, 1, records[0].Games[0].Wins, "records are not modified")
}

func TestAggregateDateRangeIgnoresInputOrder(t *testing.T) {
	orders := [][]int{{3, 1, 7, 5}, {7, 5, 3, 1}, {1, 3, 5, 7}}
	for _, order := range orders {
		records := make([]ActivityRecord, 0, len(order))
		for _, d := range order {
			records = append(records, ActivityRecord{Date: day(d)})
		}

		summary, err := Aggregate(records)
		require.NoError(t, err)
		require.Equal(t, day(1), summary.From())
		require.Equal(t, day(7), summary.To())
		require.False(t, summary.From().After(summary.To()))
		require.Equal(t, 7, summary.Days())
	}
}

func TestAggregateKeepsRangeAtZeroTime(t *testing.T) {
	record, err := NewValidator().Validate([]byte(`{"interval": {"start": -62135596800000},
		"puzzles": {"score": {"win": 1, "loss": 0, "draw": 0, "rp": {"before": 1500, "after": 1505}}}}`))
	require.NoError(t, err)
	require.True(t, record.Date.IsZero())

	summary, err := Aggregate([]ActivityRecord{record})
	require.NoError(t, err)
	require.True(t, summary.HasRange())
	require.Equal(t, 1, summary.Days())
	require.False(t, summary.IsEmpty())

	body, err := json.Marshal(summary)
	require.NoError(t, err)
	require.Contains(t, string(body), `"from_date":"0001-01-01"`)
	require.Contains(t, string(body), `"to_date":"0001-01-01"`)
}

func TestAggregateSingleRecordRoundTrip(t *testing.T) {
	record := ActivityRecord{
		Date:    day(4),
		Games:   []GameStat{{Type: GameTypeRapid, Wins: 1, RatingBefore: 1400, RatingAfter: 1408}},
		Puzzles: &PuzzleStat{Wins: 3, Losses: 1, RatingBefore: 1700, RatingAfter: 1703},
		CorrespondenceInProgress: &CorrespondenceInProgress{
			TotalMoves: 2,
			Games:      []CorrespondenceGameRef{{ID: "g1", Color: ColorWhite, OpponentUsername: "alice", OpponentRating: 1500}},
		},
		CorrespondenceCompleted: &CorrespondenceCompleted{
			Draws: 1, RatingBefore: 1600, RatingAfter: 1600,
			Games: []CorrespondenceGameRef{{ID: "g2", Color: ColorBlack, OpponentUsername: "bob", OpponentRating: 1550}},
		},
	}

	summary, err := Aggregate([]ActivityRecord{record})
	require.NoError(t, err)

	require.Equal(t, day(4), summary.From())
	require.Equal(t, day(4), summary.To())
	require.Equal(t, 1, summary.Days())
	require.Equal(t, record.Games, summary.Games())

	puzzles, ok := summary.Puzzles()
	require.True(t, ok)
	require.Equal(t, *record.Puzzles, puzzles)

	inProgress, ok := summary.CorrespondenceInProgress()
	require.True(t, ok)
	require.Equal(t, *record.CorrespondenceInProgress, inProgress)

	completed, ok := summary.CorrespondenceCompleted()
	require.True(t, ok)
	require.Equal(t, *record.CorrespondenceCompleted, completed)
}

func TestAggregateCorrespondenceCompletedScenario(t *testing.T) {
	records := []ActivityRecord{
		{Date: day(6), CorrespondenceCompleted: &CorrespondenceCompleted{
			Wins: 1, RatingBefore: 1810, RatingAfter: 1818,
			Games: []CorrespondenceGameRef{
				{ID: "a2", OpponentUsername: "alice"},
				{ID: "b1", OpponentUsername: "bob"},
			},
		}},
		{Date: day(5), CorrespondenceCompleted: &CorrespondenceCompleted{
			Losses: 1, RatingBefore: 1820, RatingAfter: 1810,
			Games: []CorrespondenceGameRef{{ID: "a1", OpponentUsername: "alice"}},
		}},
	}

	summary, err := Aggregate(records)
	require.NoError(t, err)

	completed, ok := summary.CorrespondenceCompleted()
	require.True(t, ok)
	require.Len(t, completed.Games, 2)
	require.Equal(t, "a1", completed.Games[0].ID, "alice's game comes from the earlier day")
	require.Equal(t, "bob", completed.Games[1].OpponentUsername)
	require.Equal(t, 1820, completed.RatingBefore)
	require.Equal(t, 1818, completed.RatingAfter)
	require.Len(t, records[0].CorrespondenceCompleted.Games, 2, "records are not modified")
}

func TestAggregateBucketsGamesByType(t *testing.T) {
	records := []ActivityRecord{
		{Date: day(1), Games: []GameStat{
			{Type: GameTypeBlitz, Wins: 1, RatingBefore: 1500, RatingAfter: 1508},
			{Type: GameTypeBullet, Losses: 1, RatingBefore: 1400, RatingAfter: 1392},
		}},
		{Date: day(2), Games: []GameStat{{Type: GameTypeBlitz, Draws: 2, RatingBefore: 1508, RatingAfter: 1509}}},
		{Date: day(3), Puzzles: &PuzzleStat{Wins: 1, RatingBefore: 2000, RatingAfter: 2004}},
		{Date: day(4), Puzzles: &PuzzleStat{Losses: 2, RatingBefore: 2004, RatingAfter: 1990}},
	}

	summary, err := Aggregate(records)
	require.NoError(t, err)

	games := summary.Games()
	require.Len(t, games, 2)
	require.Equal(t, GameTypeBullet, games[0].Type)
	require.Equal(t, GameStat{Type: GameTypeBlitz, Wins: 1, Draws: 2, RatingBefore: 1500, RatingAfter: 1509}, games[1])

	puzzles, ok := summary.Puzzles()
	require.True(t, ok)
	require.Equal(t, PuzzleStat{Wins: 1, Losses: 2, RatingBefore: 2000, RatingAfter: 1990}, puzzles)
	require.False(t, summary.IsEmpty())
}

func TestAggregateFromValidatedDays(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"interval": {"start": 1710115200000}, "correspondenceMoves": {"nb": 2, "games": [
			{"id": "g3", "color": "white", "url": "/g3", "opponent": {"user": "alice", "rating": 1650}},
			{"id": "g4", "color": "black", "url": "/g4", "opponent": {"user": "bob", "rating": 1700}}
		]}}`),
		json.RawMessage(`{"interval": {"start": 1710028800000}, "correspondenceMoves": {"nb": 5, "games": [
			{"id": "g1", "color": "white", "url": "/g1", "opponent": {"user": "alice", "rating": 1600}}
		]}}`),
	}

	records, err := NewValidator().ValidateBatch(raws)
	require.NoError(t, err)

	summary, err := Aggregate(records)
	require.NoError(t, err)

	inProgress, ok := summary.CorrespondenceInProgress()
	require.True(t, ok)
	require.Equal(t, 7, inProgress.TotalMoves)
	require.Equal(t, []OpponentRating{{Username: "alice", Rating: 1600}, {Username: "bob", Rating: 1700}}, inProgress.OpponentRatings())
	require.True(t, summary.IsEmpty(), "correspondence moves alone do not count as activity")
}

func TestSummaryMarshalJSON(t *testing.T) {
	summary, err := Aggregate([]ActivityRecord{
		{Date: day(1), Games: []GameStat{{Type: GameTypeBlitz, Wins: 1, RatingBefore: 1500, RatingAfter: 1508}}},
		{Date: day(3)},
	})
	require.NoError(t, err)

	body, err := json.Marshal(summary)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"from_date": "2024-03-01",
		"to_date": "2024-03-03",
		"matches_played": 1,
		"games": [{"game_type": "blitz", "wins": 1, "losses": 0, "draws": 0, "rating_before": 1500, "rating_after": 1508}]
	}`, string(body))

	empty, err := Aggregate(nil)
	require.NoError(t, err)
	body, err = json.Marshal(empty)
	require.NoError(t, err)
	require.JSONEq(t, `{"matches_played": 0, "games": []}`, string(body))
}
