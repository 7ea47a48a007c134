package activity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGameStatMergeAscending(t *testing.T) {
	day1 := GameStat{Type: GameTypeBullet, Wins: 2, Losses: 1, Draws: 0, RatingBefore: 5, RatingAfter: 10}
	day2 := GameStat{Type: GameTypeBullet, Wins: 1, Losses: 0, Draws: 1, RatingBefore: 10, RatingAfter: 12}

	merged, err := day1.Merge(day2)
	require.NoError(t, err)
	require.Equal(t, GameStat{Type: GameTypeBullet, Wins: 3, Losses: 1, Draws: 1, RatingBefore: 5, RatingAfter: 12}, merged)
	require.Equal(t, 7, merged.RatingDelta())

	// Operands are untouched.
	require.Equal(t, 2, day1.Wins)
	require.Equal(t, 10, day1.RatingAfter)
}

func TestGameStatMergeOrderSensitivity(t *testing.T) {
	day1 := GameStat{Type: GameTypeBlitz, Wins: 2, Losses: 1, RatingBefore: 1500, RatingAfter: 1520}
	day2 := GameStat{Type: GameTypeBlitz, Wins: 0, Losses: 3, Draws: 2, RatingBefore: 1520, RatingAfter: 1480}

	forward, err := day1.Merge(day2)
	require.NoError(t, err)
	backward, err := day2.Merge(day1)
	require.NoError(t, err)

	require.Equal(t, forward.Matches(), backward.Matches(), "totals do not depend on order")
	require.Equal(t, forward.Wins, backward.Wins)

	require.Equal(t, 1500, forward.RatingBefore)
	require.Equal(t, 1480, forward.RatingAfter)

	// Reverse-chronological feeding reports the wrong trajectory.
	require.Equal(t, 1520, backward.RatingBefore)
	require.Equal(t, 1520, backward.RatingAfter)
	require.NotEqual(t, forward.RatingDelta(), backward.RatingDelta())
}

func TestGameStatMergeRejectsDifferentTypes(t *testing.T) {
	_, err := GameStat{Type: GameTypeBullet}.Merge(GameStat{Type: GameTypeBlitz})
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestPuzzleStatMerge(t *testing.T) {
	merged := PuzzleStat{Wins: 4, Losses: 1, RatingBefore: 1900, RatingAfter: 1910}.
		Merge(PuzzleStat{Wins: 2, Losses: 2, RatingBefore: 1910, RatingAfter: 1905})
	require.Equal(t, PuzzleStat{Wins: 6, Losses: 3, RatingBefore: 1900, RatingAfter: 1905}, merged)
	require.Equal(t, 9, merged.Attempts())
}

func TestCorrespondenceInProgressMergeDeduplicates(t *testing.T) {
	held := CorrespondenceInProgress{
		TotalMoves: 3,
		Games: []CorrespondenceGameRef{
			{ID: "g1", OpponentUsername: "alice", OpponentRating: 1600},
			{ID: "g2", OpponentUsername: "bob", OpponentRating: 1700},
		},
	}

	self := held.Merge(held)
	require.Equal(t, 6, self.TotalMoves)
	require.Len(t, self.Games, len(held.Games), "merging with itself keeps the game list")

	seenOnly := held.Merge(CorrespondenceInProgress{
		TotalMoves: 1,
		Games:      []CorrespondenceGameRef{{ID: "g9", OpponentUsername: "bob", OpponentRating: 1750}},
	})
	require.Len(t, seenOnly.Games, 2)
	require.Equal(t, "g2", seenOnly.Games[1].ID, "first game per opponent wins")

	withNew := held.Merge(CorrespondenceInProgress{
		TotalMoves: 2,
		Games: []CorrespondenceGameRef{
			{ID: "g3", OpponentUsername: "carol"},
			{ID: "g4", OpponentUsername: "carol"},
		},
	})
	require.Equal(t, []string{"alice", "bob", "carol"}, usernames(withNew.Games))
	require.Equal(t, "g3", withNew.Games[2].ID)

	require.Len(t, held.Games, 2, "receiver is not modified")
}

func TestCorrespondenceCompletedMerge(t *testing.T) {
	dayA := CorrespondenceCompleted{
		Wins: 1, RatingBefore: 1800, RatingAfter: 1810,
		Games: []CorrespondenceGameRef{{ID: "a1", OpponentUsername: "alice"}},
	}
	dayB := CorrespondenceCompleted{
		Losses: 1, Draws: 1, RatingBefore: 1810, RatingAfter: 1802,
		Games: []CorrespondenceGameRef{
			{ID: "a2", OpponentUsername: "alice"},
			{ID: "b1", OpponentUsername: "bob"},
		},
	}

	merged := dayA.Merge(dayB)
	require.Equal(t, 3, merged.Matches())
	require.Equal(t, 1800, merged.RatingBefore)
	require.Equal(t, 1802, merged.RatingAfter)
	require.Equal(t, []string{"alice", "bob"}, usernames(merged.Games))
	require.Equal(t, "a1", merged.Games[0].ID)
}

func TestMergeCategory(t *testing.T) {
	merged, err := MergeCategory(PuzzleStat{Wins: 1}, PuzzleStat{Wins: 2})
	require.NoError(t, err)
	require.Equal(t, PuzzleStat{Wins: 3}, merged)

	_, err = MergeCategory(PuzzleStat{}, CorrespondenceCompleted{})
	require.ErrorIs(t, err, ErrInvariantViolation)

	_, err = MergeCategory(GameStat{Type: GameTypeRapid}, GameStat{Type: GameTypeClassical})
	require.ErrorIs(t, err, ErrInvariantViolation)

	_, err = MergeCategory(nil, PuzzleStat{})
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func usernames(games []CorrespondenceGameRef) []string {
	out := make([]string, 0, len(games))
	for _, g := range games {
		out = append(out, g.OpponentUsername)
	}
	return out
}
