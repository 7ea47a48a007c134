package activity

// Merges fold a later day into an earlier one. The receiver must be the chronologically
// earlier value: its RatingBefore is kept and the argument's RatingAfter wins. Feeding days
// out of order yields a wrong rating trajectory and cannot be detected here.
//
// Every merge returns a fresh value; neither operand is modified.

// Merge adds next to g. Both must share a game type.
func (g GameStat) Merge(next GameStat) (GameStat, error) {
	if g.Type != next.Type {
		return GameStat{}, invariantErr("games", "cannot merge %s stats into %s stats", next.Type, g.Type)
	}
	return GameStat{
		Type:         g.Type,
		Wins:         g.Wins + next.Wins,
		Losses:       g.Losses + next.Losses,
		Draws:        g.Draws + next.Draws,
		RatingBefore: g.RatingBefore,
		RatingAfter:  next.RatingAfter,
	}, nil
}

// Merge adds next to p.
func (p PuzzleStat) Merge(next PuzzleStat) PuzzleStat {
	return PuzzleStat{
		Wins:         p.Wins + next.Wins,
		Losses:       p.Losses + next.Losses,
		RatingBefore: p.RatingBefore,
		RatingAfter:  next.RatingAfter,
	}
}

// Merge adds next's moves to c and appends games against opponents c has not seen yet.
func (c CorrespondenceInProgress) Merge(next CorrespondenceInProgress) CorrespondenceInProgress {
	return CorrespondenceInProgress{
		TotalMoves: c.TotalMoves + next.TotalMoves,
		Games:      appendUnseenOpponents(c.Games, next.Games),
	}
}

// Merge adds next's score to c and appends games against opponents c has not seen yet.
func (c CorrespondenceCompleted) Merge(next CorrespondenceCompleted) CorrespondenceCompleted {
	return CorrespondenceCompleted{
		Wins:         c.Wins + next.Wins,
		Losses:       c.Losses + next.Losses,
		Draws:        c.Draws + next.Draws,
		RatingBefore: c.RatingBefore,
		RatingAfter:  next.RatingAfter,
		Games:        appendUnseenOpponents(c.Games, next.Games),
	}
}

// appendUnseenOpponents copies held and appends each incoming ref whose opponent is not yet
// present. The first game per opponent wins.
func appendUnseenOpponents(held, incoming []CorrespondenceGameRef) []CorrespondenceGameRef {
	out := make([]CorrespondenceGameRef, 0, len(held)+len(incoming))
	seen := make(map[string]struct{}, len(held)+len(incoming))
	for _, ref := range held {
		if _, ok := seen[ref.OpponentUsername]; ok {
			continue
		}
		seen[ref.OpponentUsername] = struct{}{}
		out = append(out, ref)
	}
	for _, ref := range incoming {
		if _, ok := seen[ref.OpponentUsername]; ok {
			continue
		}
		seen[ref.OpponentUsername] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// CategoryKind names an accumulator category.
type CategoryKind string

const (
	KindGames                    CategoryKind = "games"
	KindPuzzles                  CategoryKind = "puzzles"
	KindCorrespondenceInProgress CategoryKind = "correspondence_in_progress"
	KindCorrespondenceCompleted  CategoryKind = "correspondence_completed"
)

// Category is implemented by the four accumulator types.
type Category interface {
	Kind() CategoryKind
}

func (GameStat) Kind() CategoryKind                 { return KindGames }
func (PuzzleStat) Kind() CategoryKind               { return KindPuzzles }
func (CorrespondenceInProgress) Kind() CategoryKind { return KindCorrespondenceInProgress }
func (CorrespondenceCompleted) Kind() CategoryKind  { return KindCorrespondenceCompleted }

// MergeCategory merges two accumulators of unknown static type. Mismatched kinds and
// mismatched game types are invariant violations.
func MergeCategory(held, next Category) (Category, error) {
	if held == nil || next == nil {
		return nil, invariantErr("", "cannot merge a nil category")
	}
	if held.Kind() != next.Kind() {
		return nil, invariantErr("", "cannot merge %s into %s", next.Kind(), held.Kind())
	}
	switch h := held.(type) {
	case GameStat:
		if n, ok := next.(GameStat); ok {
			merged, err := h.Merge(n)
			if err != nil {
				return nil, err
			}
			return merged, nil
		}
	case PuzzleStat:
		if n, ok := next.(PuzzleStat); ok {
			return h.Merge(n), nil
		}
	case CorrespondenceInProgress:
		if n, ok := next.(CorrespondenceInProgress); ok {
			return h.Merge(n), nil
		}
	case CorrespondenceCompleted:
		if n, ok := next.(CorrespondenceCompleted); ok {
			return h.Merge(n), nil
		}
	}
	return nil, invariantErr("", "cannot merge %T into %T", next, held)
}
