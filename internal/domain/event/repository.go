package event

import "context"

// ReplaceSummary reports what a reconciliation run changed.
type ReplaceSummary struct {
	Inserted int
	Updated  int
	Deleted  int
}

// Repository exposes event persistence operations.
type Repository interface {
	// ReplaceYear reconciles the stored catalog for one year against the
	// fetched set: upserts every item keyed by (year, code) and deletes
	// stored events whose code is absent, atomically.
	ReplaceYear(ctx context.Context, year int, items []Event) (ReplaceSummary, error)
	ListByYear(ctx context.Context, year int) ([]Event, error)
	GetByCode(ctx context.Context, year int, code string) (Event, bool, error)
}
