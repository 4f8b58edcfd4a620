// Package record derives high-score progressions from time-ordered match
// results: the subsequence of matches that each set a new all-time-high
// score, annotated with how long the record stood.
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/frc-sh/scores-api/internal/domain/match"
)

// Held is how long a record stood before being broken. The current record
// has no bound, so the zero/standing case is an explicit variant instead of
// an overloaded maximum duration.
type Held struct {
	duration time.Duration
	standing bool
}

// Bounded returns a Held for a record that was broken after d.
func Bounded(d time.Duration) Held {
	return Held{duration: d}
}

// StillStanding returns the Held for the record that has not been broken.
func StillStanding() Held {
	return Held{standing: true}
}

// IsStanding reports whether the record is still the current one.
func (h Held) IsStanding() bool {
	return h.standing
}

// Duration returns the bounded duration and true, or zero and false for a
// still-standing record.
func (h Held) Duration() (time.Duration, bool) {
	if h.standing {
		return 0, false
	}
	return h.duration, true
}

// String renders the API wire format: an ISO 8601 duration such as "PT1H30M"
// for a broken record, or the sentinel "forever" for the standing one.
func (h Held) String() string {
	if h.standing {
		return "forever"
	}

	d := h.duration
	if d == 0 {
		return "PT0S"
	}

	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := d.Seconds()

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if seconds > 0 {
		b.WriteString(strconv.FormatFloat(seconds, 'f', -1, 64))
		b.WriteByte('S')
	}
	return b.String()
}

// Entry is one record-setting match.
type Entry struct {
	Match   match.ScoredMatch
	HeldFor Held
}

// Compute scans matches, which must be ordered by result timestamp
// ascending, and returns the record-setting subsequence. A match sets a
// record only when its score strictly exceeds every prior score; ties never
// dethrone the standing record. The scan is a single forward pass and is
// deterministic for a deterministic input ordering.
func Compute(matches []match.ScoredMatch) []Entry {
	best := math.MinInt
	records := make([]match.ScoredMatch, 0)
	for _, m := range matches {
		if m.Result.Score > best {
			best = m.Result.Score
			records = append(records, m)
		}
	}

	out := make([]Entry, 0, len(records))
	for i, m := range records {
		held := StillStanding()
		if i+1 < len(records) {
			held = Bounded(records[i+1].Result.Timestamp.Sub(m.Result.Timestamp))
		}
		out = append(out, Entry{Match: m, HeldFor: held})
	}

	return out
}
