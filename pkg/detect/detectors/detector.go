// Package detectors implements the statistical pattern detectors. Each
// detector is pure over a shared read-only batch and returns its own pattern
// slice; insufficient data is an empty result, never an error.
package detectors

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/singura/singura/pkg/config"
	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
)

// Batch is the shared input of one detection pass. Built once by the engine;
// detectors must not mutate it.
type Batch struct {
	Events []events.Event

	// ByUser holds per-user copies of the event values in Events, grouped in a
	// single pass; metadata maps stay shared with Events.
	ByUser map[string][]events.Event
	// Users is ByUser's key set in sorted order, for deterministic output.
	Users []string

	Timeframe  events.ActivityTimeframe
	Thresholds config.ThresholdSet

	// Reference is the latest event timestamp. Used instead of wall-clock
	// time so equal inputs produce equal results.
	Reference time.Time
}

// NewBatch groups events per user in one pass, appending each event value to
// a new per-user slice.
func NewBatch(evs []events.Event, tf events.ActivityTimeframe, ts config.ThresholdSet) Batch {
	byUser := make(map[string][]events.Event)
	var ref time.Time
	for _, ev := range evs {
		byUser[ev.UserID] = append(byUser[ev.UserID], ev)
		if ev.Timestamp.After(ref) {
			ref = ev.Timestamp
		}
	}
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)
	return Batch{
		Events:     evs,
		ByUser:     byUser,
		Users:      users,
		Timeframe:  tf,
		Thresholds: ts,
		Reference:  ref,
	}
}

// Detector is one pattern capability.
type Detector interface {
	Name() string
	Detect(ctx context.Context, b Batch) ([]findings.ActivityPattern, error)
}

// All returns the detector set in its stable aggregation order.
func All() []Detector {
	return []Detector{
		&VelocityDetector{},
		&TimingVarianceDetector{},
		&OffHoursDetector{},
		&BatchOperationDetector{},
		&PermissionEscalationDetector{},
		&DataVolumeDetector{},
	}
}

// sortedByTime returns the user's events ordered by timestamp. The input
// slice is shared, so sorting happens on a copy of the headers only.
func sortedByTime(evs []events.Event) []events.Event {
	out := make([]events.Event, len(evs))
	copy(out, evs)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// eventIDs collects identifiers for evidence attachments.
func eventIDs(evs []events.Event) []string {
	ids := make([]string, len(evs))
	for i, ev := range evs {
		ids[i] = ev.ID
	}
	return ids
}

// dominantType returns the most frequent event type; ties resolve to the
// lexicographically smaller type for determinism.
func dominantType(evs []events.Event) events.EventType {
	counts := map[events.EventType]int{}
	for _, ev := range evs {
		counts[ev.Type]++
	}
	var best events.EventType
	bestN := -1
	for t, n := range counts {
		if n > bestN || (n == bestN && t < best) {
			best = t
			bestN = n
		}
	}
	return best
}

func newPatternID() string {
	return uuid.NewString()
}
