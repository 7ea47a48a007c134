package activity

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// knownFields is the complete set of top-level keys a day may carry.
var knownFields = map[string]struct{}{
	"interval":            {},
	"games":               {},
	"puzzles":             {},
	"correspondenceMoves": {},
	"correspondenceEnds":  {},
	"tournaments":         {},
	"follows":             {},
	"teams":               {},
}

// canonicalDay is a raw day reshaped for structural validation: the interval reduced to its
// start, the one-key-per-type game map flattened into an ordered list, and the optional
// correspondence wrapper removed. Section payloads are still undecoded.
type canonicalDay struct {
	Start       int64
	Games       []canonicalGame
	Puzzles     json.RawMessage
	Moves       json.RawMessage
	Ends        json.RawMessage
	Tournaments json.RawMessage
	Follows     json.RawMessage
	Teams       json.RawMessage
}

type canonicalGame struct {
	Type  GameType
	Score json.RawMessage
}

type rawInterval struct {
	Start *int64 `json:"start"`
	End   *int64 `json:"end"`
}

type rawRatingProgress struct {
	Before *int `json:"before"`
	After  *int `json:"after"`
}

type rawScore struct {
	Win  *int               `json:"win"`
	Loss *int               `json:"loss"`
	Draw *int               `json:"draw"`
	RP   *rawRatingProgress `json:"rp"`
}

type rawPuzzles struct {
	Score *rawScore `json:"score"`
}

type rawOpponent struct {
	User   *string `json:"user"`
	Rating *int    `json:"rating"`
}

type rawCorrespondenceGame struct {
	ID       *string      `json:"id"`
	Color    *string      `json:"color"`
	URL      *string      `json:"url"`
	Opponent *rawOpponent `json:"opponent"`
	// Descriptive fields newer API versions add; accepted and dropped.
	Variant json.RawMessage `json:"variant"`
	Speed   json.RawMessage `json:"speed"`
	Perf    json.RawMessage `json:"perf"`
	Rated   json.RawMessage `json:"rated"`
}

type rawCorrespondenceMoves struct {
	Nb    *int                    `json:"nb"`
	Games []rawCorrespondenceGame `json:"games"`
}

type rawCorrespondenceEnds struct {
	Score *rawScore               `json:"score"`
	Games []rawCorrespondenceGame `json:"games"`
}

type rawTournaments struct {
	Nb   int             `json:"nb"`
	Best []rawTournament `json:"best"`
}

type rawTournament struct {
	Tournament struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"tournament"`
	NbGames     int `json:"nbGames"`
	Score       int `json:"score"`
	Rank        int `json:"rank"`
	RankPercent int `json:"rankPercent"`
}

type rawFollowList struct {
	IDs []string `json:"ids"`
	Nb  int      `json:"nb"`
}

type rawFollows struct {
	In  *rawFollowList `json:"in"`
	Out *rawFollowList `json:"out"`
}

type rawTeam struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// normalizeRaw runs before structural validation. It enforces the top-level field set and
// reshapes the payload into a canonicalDay.
func normalizeRaw(raw []byte) (canonicalDay, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return canonicalDay{}, schemaErr("", "day must be a JSON object: %v", err)
	}
	if top == nil {
		return canonicalDay{}, schemaErr("", "day must be a JSON object")
	}

	var unknown []string
	for key := range top {
		if _, ok := knownFields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return canonicalDay{}, schemaErr("", "unrecognized fields: %s", strings.Join(unknown, ", "))
	}

	intervalRaw, ok := section(top, "interval")
	if !ok {
		return canonicalDay{}, schemaErr("interval", "required")
	}
	var interval rawInterval
	if err := decodeStrict(intervalRaw, "interval", &interval); err != nil {
		return canonicalDay{}, err
	}
	if interval.Start == nil {
		return canonicalDay{}, schemaErr("interval.start", "required")
	}

	day := canonicalDay{Start: *interval.Start}

	if gamesRaw, ok := section(top, "games"); ok {
		games, err := flattenGames(gamesRaw)
		if err != nil {
			return canonicalDay{}, err
		}
		day.Games = games
	}

	day.Puzzles, _ = section(top, "puzzles")
	day.Moves, _ = section(top, "correspondenceMoves")
	if endsRaw, ok := section(top, "correspondenceEnds"); ok {
		ends, err := unwrapCorrespondence(endsRaw)
		if err != nil {
			return canonicalDay{}, err
		}
		day.Ends = ends
	}
	day.Tournaments, _ = section(top, "tournaments")
	day.Follows, _ = section(top, "follows")
	day.Teams, _ = section(top, "teams")
	return day, nil
}

// flattenGames turns {"bullet": {...}, "blitz": {...}} into canonical-ordered entries.
func flattenGames(data json.RawMessage) ([]canonicalGame, error) {
	var byType map[string]json.RawMessage
	if err := decodeStrict(data, "games", &byType); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(byType))
	for key := range byType {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	games := make([]canonicalGame, 0, len(keys))
	for _, key := range keys {
		gameType, ok := ParseGameType(key)
		if !ok {
			return nil, schemaErr("games."+key, "unknown game type")
		}
		games = append(games, canonicalGame{Type: gameType, Score: byType[key]})
	}
	sort.SliceStable(games, func(i, j int) bool {
		return gameTypeRank[games[i].Type] < gameTypeRank[games[j].Type]
	})
	return games, nil
}

// unwrapCorrespondence accepts both {"score":..,"games":..} and the
// {"correspondence": {"score":..,"games":..}} envelope the API also emits.
func unwrapCorrespondence(data json.RawMessage) (json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, schemaErr("correspondenceEnds", "must be an object: %v", err)
	}
	if inner, ok := envelope["correspondence"]; ok && len(envelope) == 1 {
		return inner, nil
	}
	return data, nil
}

func section(top map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	value, ok := top[key]
	if !ok || isNull(value) {
		return nil, false
	}
	return value, true
}

func isNull(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeStrict decodes data into v, rejecting fields v does not declare.
func decodeStrict(data json.RawMessage, path string, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return schemaErr(path, "%v", err)
	}
	return nil
}
