package usecase

import (
	"context"
	"time"

	"github.com/frc-sh/scores-api/internal/domain/match"
)

// Event type codes from the event catalog source. Only the types the
// synchronizer filters on are named here.
const (
	EventTypeUnlabeled   = -1
	EventTypeRegional    = 0
	EventTypeCmpDivision = 3
	EventTypeCmpFinals   = 4
	EventTypeOffseason   = 99
	EventTypePreseason   = 100
)

// ExternalEvent is one raw event descriptor from the event catalog source.
type ExternalEvent struct {
	Year      int
	Name      string
	ShortName string
	EventCode string
	EventType int
	// Week is 0-indexed; nil for championship events.
	Week *int
	// FirstEventCode is the join key into the match results source; nil
	// for events the source cannot cross-reference.
	FirstEventCode *string
}

// EventCatalog yields raw event descriptors per year.
type EventCatalog interface {
	ListEvents(ctx context.Context, year int) ([]ExternalEvent, error)
}

// ExternalScheduleTeam is one station assignment in a scheduled match.
// TeamNumber is 0 when the station is unassigned.
type ExternalScheduleTeam struct {
	TeamNumber int
	Station    string
}

// ExternalScheduleMatch is one entry in an event's match schedule.
type ExternalScheduleMatch struct {
	Number int
	Level  match.Level
	Teams  []ExternalScheduleTeam
	// StartTime is nil for matches the source has not scheduled yet.
	StartTime *time.Time
}

// Winning alliance codes reported by the match results source. A nil
// winning alliance represents a tie.
const (
	WinningAllianceRed  = 1
	WinningAllianceBlue = 2
)

const (
	AllianceRed  = "Red"
	AllianceBlue = "Blue"
)

// ExternalAllianceScore is one alliance's reported scoring in a match.
type ExternalAllianceScore struct {
	Alliance    string
	TotalPoints int
	FoulPoints  int
}

// ExternalMatchScore is one scored match from the match results source.
type ExternalMatchScore struct {
	Level           match.Level
	Number          int
	WinningAlliance *int
	Alliances       []ExternalAllianceScore
}

// MatchSource yields per-event schedules and score lists.
type MatchSource interface {
	GetSchedule(ctx context.Context, year int, eventCode string) ([]ExternalScheduleMatch, error)
	ListScores(ctx context.Context, year int, eventCode string, level match.Level) ([]ExternalMatchScore, error)
}
