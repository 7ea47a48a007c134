// Package activity validates Lichess daily activity snapshots and folds them into report summaries.
package activity

import "time"

// GameType identifies a rated Lichess performance category.
type GameType string

const (
	GameTypeUltraBullet    GameType = "ultraBullet"
	GameTypeBullet         GameType = "bullet"
	GameTypeBlitz          GameType = "blitz"
	GameTypeRapid          GameType = "rapid"
	GameTypeClassical      GameType = "classical"
	GameTypeCorrespondence GameType = "correspondence"
	GameTypeChess960       GameType = "chess960"
	GameTypeKingOfTheHill  GameType = "kingOfTheHill"
	GameTypeThreeCheck     GameType = "threeCheck"
	GameTypeAntichess      GameType = "antichess"
	GameTypeAtomic         GameType = "atomic"
	GameTypeHorde          GameType = "horde"
	GameTypeRacingKings    GameType = "racingKings"
	GameTypeCrazyhouse     GameType = "crazyhouse"
)

// gameTypeOrder is the canonical ordering used for record and summary game lists.
var gameTypeOrder = []GameType{
	GameTypeUltraBullet,
	GameTypeBullet,
	GameTypeBlitz,
	GameTypeRapid,
	GameTypeClassical,
	GameTypeCorrespondence,
	GameTypeChess960,
	GameTypeKingOfTheHill,
	GameTypeThreeCheck,
	GameTypeAntichess,
	GameTypeAtomic,
	GameTypeHorde,
	GameTypeRacingKings,
	GameTypeCrazyhouse,
}

var gameTypeRank = func() map[GameType]int {
	out := make(map[GameType]int, len(gameTypeOrder))
	for i, t := range gameTypeOrder {
		out[t] = i
	}
	return out
}()

// ParseGameType maps a Lichess perf key onto a GameType.
func ParseGameType(key string) (GameType, bool) {
	t := GameType(key)
	_, ok := gameTypeRank[t]
	return t, ok
}

// GameTypes lists every known game type in canonical order.
func GameTypes() []GameType {
	return append([]GameType(nil), gameTypeOrder...)
}

// Color is the side the player had in a correspondence game.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// GameStat holds the results of one game type.
type GameStat struct {
	Type         GameType `json:"game_type"`
	Wins         int      `json:"wins"`
	Losses       int      `json:"losses"`
	Draws        int      `json:"draws"`
	RatingBefore int      `json:"rating_before"`
	RatingAfter  int      `json:"rating_after"`
}

// Matches is the number of games played.
func (g GameStat) Matches() int {
	return g.Wins + g.Losses + g.Draws
}

// RatingDelta is the rating change over the covered period.
func (g GameStat) RatingDelta() int {
	return g.RatingAfter - g.RatingBefore
}

// PuzzleStat holds puzzle results. Puzzles cannot be drawn.
type PuzzleStat struct {
	Wins         int `json:"wins"`
	Losses       int `json:"losses"`
	RatingBefore int `json:"rating_before"`
	RatingAfter  int `json:"rating_after"`
}

// Attempts is the number of puzzles tried.
func (p PuzzleStat) Attempts() int {
	return p.Wins + p.Losses
}

// RatingDelta is the puzzle rating change over the covered period.
func (p PuzzleStat) RatingDelta() int {
	return p.RatingAfter - p.RatingBefore
}

// CorrespondenceGameRef points at one correspondence game. Opponent username is its identity.
type CorrespondenceGameRef struct {
	ID               string `json:"id"`
	Color            Color  `json:"color"`
	URL              string `json:"url"`
	OpponentUsername string `json:"opponent_username"`
	OpponentRating   int    `json:"opponent_rating"`
}

// OpponentRating pairs an opponent with the rating they had in the referenced game.
type OpponentRating struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// CorrespondenceInProgress counts moves made in ongoing correspondence games.
type CorrespondenceInProgress struct {
	TotalMoves int                     `json:"total_moves"`
	Games      []CorrespondenceGameRef `json:"games"`
}

// OpponentRatings lists the opponents in arrival order.
func (c CorrespondenceInProgress) OpponentRatings() []OpponentRating {
	return opponentRatings(c.Games)
}

// CorrespondenceCompleted holds the score of finished correspondence games.
type CorrespondenceCompleted struct {
	Wins         int                     `json:"wins"`
	Losses       int                     `json:"losses"`
	Draws        int                     `json:"draws"`
	RatingBefore int                     `json:"rating_before"`
	RatingAfter  int                     `json:"rating_after"`
	Games        []CorrespondenceGameRef `json:"games"`
}

// Matches is the number of finished games.
func (c CorrespondenceCompleted) Matches() int {
	return c.Wins + c.Losses + c.Draws
}

// RatingDelta is the correspondence rating change over the covered period.
func (c CorrespondenceCompleted) RatingDelta() int {
	return c.RatingAfter - c.RatingBefore
}

// OpponentRatings lists the opponents in arrival order.
func (c CorrespondenceCompleted) OpponentRatings() []OpponentRating {
	return opponentRatings(c.Games)
}

func opponentRatings(games []CorrespondenceGameRef) []OpponentRating {
	out := make([]OpponentRating, 0, len(games))
	for _, g := range games {
		out = append(out, OpponentRating{Username: g.OpponentUsername, Rating: g.OpponentRating})
	}
	return out
}

// Tournament is a tournament the player took part in. Not aggregated.
type Tournament struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Games       int    `json:"games"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
	RankPercent int    `json:"rank_percent"`
}

// Follows lists users that followed the player and users the player followed. Not aggregated.
type Follows struct {
	In  []string `json:"in,omitempty"`
	Out []string `json:"out,omitempty"`
}

// Team is a team the player joined. Not aggregated.
type Team struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ActivityRecord is one validated day of activity.
//
// Date is a calendar date stored as midnight UTC. Records are built once by the
// Validator and must not be modified afterwards.
type ActivityRecord struct {
	Date                     time.Time
	Games                    []GameStat
	Puzzles                  *PuzzleStat
	CorrespondenceInProgress *CorrespondenceInProgress
	CorrespondenceCompleted  *CorrespondenceCompleted
	Tournaments              []Tournament
	Follows                  *Follows
	Teams                    []Team
}

// calendarDate truncates t to its calendar date in t's location, returned as midnight UTC.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
