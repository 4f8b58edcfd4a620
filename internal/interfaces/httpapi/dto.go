package httpapi

import (
	"time"

	"github.com/frc-sh/scores-api/internal/domain/record"
)

type highScoresDTO struct {
	HighScores []recordEntryDTO `json:"high_scores"`
}

type recordEntryDTO struct {
	Event         eventDTO `json:"event"`
	Match         matchDTO `json:"match"`
	Score         int      `json:"score"`
	Timestamp     string   `json:"timestamp"`
	WinningTeams  [3]int   `json:"winningTeams"`
	RecordHeldFor string   `json:"recordHeldFor"`
}

type eventDTO struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	WeekNumber int    `json:"weekNumber"`
}

type matchDTO struct {
	Number int    `json:"number"`
	Level  string `json:"level"`
}

func toHighScoresDTO(entries []record.Entry) highScoresDTO {
	items := make([]recordEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, recordEntryDTO{
			Event: eventDTO{
				Code:       entry.Match.Event.Code,
				Name:       entry.Match.Event.Name,
				WeekNumber: entry.Match.Event.WeekNumber,
			},
			Match: matchDTO{
				Number: entry.Match.Number,
				Level:  string(entry.Match.Level),
			},
			Score:         entry.Match.Result.Score,
			Timestamp:     entry.Match.Result.Timestamp.UTC().Format(time.RFC3339),
			WinningTeams:  entry.Match.Result.WinningTeams,
			RecordHeldFor: entry.HeldFor.String(),
		})
	}
	return highScoresDTO{HighScores: items}
}
