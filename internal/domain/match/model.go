package match

import (
	"fmt"
	"strings"
	"time"

	"github.com/frc-sh/scores-api/internal/domain/event"
)

// Level is the tournament phase a match belongs to.
type Level string

const (
	LevelQuals    Level = "quals"
	LevelPlayoffs Level = "playoffs"
)

// ParseLevel accepts the stored representation of a match level.
func ParseLevel(value string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(value))) {
	case LevelQuals:
		return LevelQuals, nil
	case LevelPlayoffs:
		return LevelPlayoffs, nil
	default:
		return "", fmt.Errorf("unknown match level %q", value)
	}
}

// AllianceSize is the number of stations per alliance. Unassigned stations
// are recorded with team number 0.
const AllianceSize = 3

// Result is the outcome of a played match: the winning alliance's score
// (total points minus foul points) and its three team numbers.
type Result struct {
	Score        int
	WinningTeams [AllianceSize]int
	Timestamp    time.Time
}

// Match is one scheduled contest within an event. Result is nil until the
// match has been played and scored.
type Match struct {
	ID      int64
	EventID int64
	Level   Level
	Number  int
	Result  *Result
}

// ScoredMatch is a played match joined with its event, the unit the record
// scan operates on.
type ScoredMatch struct {
	Event  event.Event
	Level  Level
	Number int
	Result Result
}

// PendingEvent identifies an event whose match data is incomplete and needs
// another fetch: either no matches are stored yet, or at least one stored
// match has no result.
type PendingEvent struct {
	Year      int
	FirstCode string
}
