package match

import "context"

// ReplaceSummary reports what a match resynchronization changed.
type ReplaceSummary struct {
	Inserted int
	Deleted  int
	Results  int
}

// Repository exposes match persistence operations.
type Repository interface {
	// ReplaceEventMatches replaces the full match set for the event with
	// the given FIRST code: delete existing rows, insert the fetched set,
	// and upsert results for matches that carry one, in a single
	// transaction so readers never observe a half-replaced set.
	ReplaceEventMatches(ctx context.Context, year int, firstCode string, items []Match) (ReplaceSummary, error)

	// ListWithResultsByYear returns played matches for a year, optionally
	// filtered to one event code (already normalized), ordered by result
	// timestamp ascending.
	ListWithResultsByYear(ctx context.Context, year int, eventCode string) ([]ScoredMatch, error)

	// ListPending returns (year, firstCode) pairs still needing a refresh.
	ListPending(ctx context.Context) ([]PendingEvent, error)
}
