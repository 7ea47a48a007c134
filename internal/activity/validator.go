package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultBaseURL is prefixed to the relative links Lichess reports.
const DefaultBaseURL = "https://lichess.org"

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLocation sets the time zone in which interval starts are turned into calendar dates.
func WithLocation(loc *time.Location) ValidatorOption {
	return func(v *Validator) {
		if loc != nil {
			v.location = loc
		}
	}
}

// WithBaseURL overrides the site root used to complete relative URLs.
func WithBaseURL(baseURL string) ValidatorOption {
	return func(v *Validator) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			v.baseURL = baseURL
		}
	}
}

// Validator turns raw daily payloads into ActivityRecords. It is stateless and safe for
// concurrent use.
type Validator struct {
	location *time.Location
	baseURL  string
}

// NewValidator constructs a Validator using UTC dates unless configured otherwise.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		location: time.UTC,
		baseURL:  DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate converts one raw day. Errors wrap ErrSchemaViolation or ErrInvariantViolation.
func (v *Validator) Validate(raw []byte) (ActivityRecord, error) {
	day, err := normalizeRaw(raw)
	if err != nil {
		return ActivityRecord{}, err
	}
	record, err := v.build(day)
	if err != nil {
		return ActivityRecord{}, err
	}
	return v.finalize(record), nil
}

// ValidateBatch validates every day, stopping at the first failure. The error is a *DayError
// carrying the offending index.
func (v *Validator) ValidateBatch(raws []json.RawMessage) ([]ActivityRecord, error) {
	records := make([]ActivityRecord, 0, len(raws))
	for i, raw := range raws {
		record, err := v.Validate(raw)
		if err != nil {
			return nil, &DayError{Index: i, Err: err}
		}
		records = append(records, record)
	}
	return records, nil
}

func (v *Validator) build(day canonicalDay) (ActivityRecord, error) {
	record := ActivityRecord{
		Date: calendarDate(time.UnixMilli(day.Start).In(v.location)),
	}

	if len(day.Games) > 0 {
		record.Games = make([]GameStat, 0, len(day.Games))
		for _, game := range day.Games {
			stat, err := buildGame(game)
			if err != nil {
				return ActivityRecord{}, err
			}
			record.Games = append(record.Games, stat)
		}
	}

	if day.Puzzles != nil {
		puzzles, err := buildPuzzles(day.Puzzles)
		if err != nil {
			return ActivityRecord{}, err
		}
		record.Puzzles = &puzzles
	}

	if day.Moves != nil {
		moves, err := buildInProgress(day.Moves)
		if err != nil {
			return ActivityRecord{}, err
		}
		record.CorrespondenceInProgress = &moves
	}

	if day.Ends != nil {
		ends, err := buildCompleted(day.Ends)
		if err != nil {
			return ActivityRecord{}, err
		}
		record.CorrespondenceCompleted = &ends
	}

	if err := buildPassThrough(day, &record); err != nil {
		return ActivityRecord{}, err
	}
	return record, nil
}

// finalize runs after structural validation and fills in computed fields.
func (v *Validator) finalize(record ActivityRecord) ActivityRecord {
	for i := range record.Tournaments {
		record.Tournaments[i].URL = v.baseURL + "/tournament/" + record.Tournaments[i].ID
	}
	for i := range record.Teams {
		record.Teams[i].URL = v.absoluteURL(record.Teams[i].URL)
	}
	if record.CorrespondenceInProgress != nil {
		v.completeGameURLs(record.CorrespondenceInProgress.Games)
	}
	if record.CorrespondenceCompleted != nil {
		v.completeGameURLs(record.CorrespondenceCompleted.Games)
	}
	return record
}

func (v *Validator) completeGameURLs(games []CorrespondenceGameRef) {
	for i := range games {
		games[i].URL = v.absoluteURL(games[i].URL)
	}
}

func (v *Validator) absoluteURL(u string) string {
	if strings.HasPrefix(u, "/") {
		return v.baseURL + u
	}
	return u
}

type scoreValues struct {
	win, loss, draw, before, after int
}

func (s *rawScore) values(path string) (scoreValues, error) {
	if s == nil {
		return scoreValues{}, schemaErr(path, "required")
	}
	counters := []struct {
		name  string
		value *int
	}{
		{"win", s.Win},
		{"loss", s.Loss},
		{"draw", s.Draw},
	}
	for _, c := range counters {
		if c.value == nil {
			return scoreValues{}, schemaErr(path+"."+c.name, "required")
		}
		if *c.value < 0 {
			return scoreValues{}, schemaErr(path+"."+c.name, "must not be negative, got %d", *c.value)
		}
	}
	if s.RP == nil {
		return scoreValues{}, schemaErr(path+".rp", "required")
	}
	if s.RP.Before == nil {
		return scoreValues{}, schemaErr(path+".rp.before", "required")
	}
	if s.RP.After == nil {
		return scoreValues{}, schemaErr(path+".rp.after", "required")
	}
	return scoreValues{
		win:    *s.Win,
		loss:   *s.Loss,
		draw:   *s.Draw,
		before: *s.RP.Before,
		after:  *s.RP.After,
	}, nil
}

func buildGame(game canonicalGame) (GameStat, error) {
	path := "games." + string(game.Type)
	var score rawScore
	if err := decodeStrict(game.Score, path, &score); err != nil {
		return GameStat{}, err
	}
	v, err := score.values(path)
	if err != nil {
		return GameStat{}, err
	}
	return GameStat{
		Type:         game.Type,
		Wins:         v.win,
		Losses:       v.loss,
		Draws:        v.draw,
		RatingBefore: v.before,
		RatingAfter:  v.after,
	}, nil
}

func buildPuzzles(data json.RawMessage) (PuzzleStat, error) {
	var puzzles rawPuzzles
	if err := decodeStrict(data, "puzzles", &puzzles); err != nil {
		return PuzzleStat{}, err
	}
	if puzzles.Score != nil && puzzles.Score.Draw != nil && *puzzles.Score.Draw != 0 {
		return PuzzleStat{}, invariantErr("puzzles.score.draw", "puzzles cannot be drawn, got %d", *puzzles.Score.Draw)
	}
	v, err := puzzles.Score.values("puzzles.score")
	if err != nil {
		return PuzzleStat{}, err
	}
	return PuzzleStat{
		Wins:         v.win,
		Losses:       v.loss,
		RatingBefore: v.before,
		RatingAfter:  v.after,
	}, nil
}

func buildInProgress(data json.RawMessage) (CorrespondenceInProgress, error) {
	var moves rawCorrespondenceMoves
	if err := decodeStrict(data, "correspondenceMoves", &moves); err != nil {
		return CorrespondenceInProgress{}, err
	}
	if moves.Nb == nil {
		return CorrespondenceInProgress{}, schemaErr("correspondenceMoves.nb", "required")
	}
	if *moves.Nb < 0 {
		return CorrespondenceInProgress{}, schemaErr("correspondenceMoves.nb", "must not be negative, got %d", *moves.Nb)
	}
	games, err := buildGameRefs("correspondenceMoves.games", moves.Games)
	if err != nil {
		return CorrespondenceInProgress{}, err
	}
	return CorrespondenceInProgress{TotalMoves: *moves.Nb, Games: games}, nil
}

func buildCompleted(data json.RawMessage) (CorrespondenceCompleted, error) {
	var ends rawCorrespondenceEnds
	if err := decodeStrict(data, "correspondenceEnds", &ends); err != nil {
		return CorrespondenceCompleted{}, err
	}
	v, err := ends.Score.values("correspondenceEnds.score")
	if err != nil {
		return CorrespondenceCompleted{}, err
	}
	games, err := buildGameRefs("correspondenceEnds.games", ends.Games)
	if err != nil {
		return CorrespondenceCompleted{}, err
	}
	return CorrespondenceCompleted{
		Wins:         v.win,
		Losses:       v.loss,
		Draws:        v.draw,
		RatingBefore: v.before,
		RatingAfter:  v.after,
		Games:        games,
	}, nil
}

// buildGameRefs validates every reference and keeps the first game per opponent.
func buildGameRefs(path string, raws []rawCorrespondenceGame) ([]CorrespondenceGameRef, error) {
	if raws == nil {
		return nil, schemaErr(path, "required")
	}
	refs := make([]CorrespondenceGameRef, 0, len(raws))
	for i, raw := range raws {
		ref, err := buildGameRef(fmt.Sprintf("%s[%d]", path, i), raw)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return appendUnseenOpponents(nil, refs), nil
}

func buildGameRef(path string, raw rawCorrespondenceGame) (CorrespondenceGameRef, error) {
	switch {
	case raw.ID == nil:
		return CorrespondenceGameRef{}, schemaErr(path+".id", "required")
	case raw.URL == nil:
		return CorrespondenceGameRef{}, schemaErr(path+".url", "required")
	case raw.Color == nil:
		return CorrespondenceGameRef{}, schemaErr(path+".color", "required")
	case raw.Opponent == nil:
		return CorrespondenceGameRef{}, schemaErr(path+".opponent", "required")
	case raw.Opponent.User == nil:
		return CorrespondenceGameRef{}, schemaErr(path+".opponent.user", "required")
	case raw.Opponent.Rating == nil:
		return CorrespondenceGameRef{}, schemaErr(path+".opponent.rating", "required")
	}

	color := Color(*raw.Color)
	if color != ColorWhite && color != ColorBlack {
		return CorrespondenceGameRef{}, schemaErr(path+".color", "must be white or black, got %q", *raw.Color)
	}

	return CorrespondenceGameRef{
		ID:               *raw.ID,
		Color:            color,
		URL:              *raw.URL,
		OpponentUsername: *raw.Opponent.User,
		OpponentRating:   *raw.Opponent.Rating,
	}, nil
}

func buildPassThrough(day canonicalDay, record *ActivityRecord) error {
	if day.Tournaments != nil {
		var raw rawTournaments
		if err := json.Unmarshal(day.Tournaments, &raw); err != nil {
			return schemaErr("tournaments", "%v", err)
		}
		for _, t := range raw.Best {
			record.Tournaments = append(record.Tournaments, Tournament{
				ID:          t.Tournament.ID,
				Name:        t.Tournament.Name,
				Games:       t.NbGames,
				Score:       t.Score,
				Rank:        t.Rank,
				RankPercent: t.RankPercent,
			})
		}
	}

	if day.Follows != nil {
		var raw rawFollows
		if err := json.Unmarshal(day.Follows, &raw); err != nil {
			return schemaErr("follows", "%v", err)
		}
		follows := Follows{}
		if raw.In != nil {
			follows.In = raw.In.IDs
		}
		if raw.Out != nil {
			follows.Out = raw.Out.IDs
		}
		record.Follows = &follows
	}

	if day.Teams != nil {
		var raw []rawTeam
		if err := json.Unmarshal(day.Teams, &raw); err != nil {
			return schemaErr("teams", "%v", err)
		}
		for _, t := range raw {
			record.Teams = append(record.Teams, Team{Name: t.Name, URL: t.URL})
		}
	}
	return nil
}
