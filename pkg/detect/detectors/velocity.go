package detectors

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/singura/singura/pkg/config"
	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/stats"
)

// VelocityDetector flags inhuman event rates per (user, event type).
type VelocityDetector struct{}

func (d *VelocityDetector) Name() string { return "VelocityDetector" }

func (d *VelocityDetector) Detect(ctx context.Context, b Batch) ([]findings.ActivityPattern, error) {
	th := b.Thresholds.Velocity
	if th.Window <= 0 {
		// Zero window means rate zero; nothing can fire.
		return nil, nil
	}

	var out []findings.ActivityPattern
	for _, user := range b.Users {
		byType := map[events.EventType][]events.Event{}
		for _, ev := range b.ByUser[user] {
			if ev.Type == events.UnknownType {
				continue
			}
			byType[ev.Type] = append(byType[ev.Type], ev)
		}

		types := make([]events.EventType, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		// Overlapping windows across types report separately.
		for _, t := range types {
			evs := byType[t]
			if len(evs) < th.MinEvents {
				continue
			}
			sorted := sortedByTime(evs)
			count, windowEvents := maxWindowCount(sorted, th.Window)
			rate := float64(count) / th.Window.Seconds()
			limit := rateThreshold(th, t)
			if limit <= 0 || rate <= limit {
				continue
			}

			// 50 at the threshold, 100 at ten times it.
			ratio := rate / limit
			confidence := stats.Clamp(50+50*(ratio-1)/9, 50, 100)

			out = append(out, findings.ActivityPattern{
				ID:         newPatternID(),
				Type:       findings.PatternVelocity,
				DetectedAt: b.Reference,
				Confidence: confidence,
				Subject: findings.PatternSubject{
					UserID:       user,
					UserEmail:    sorted[0].UserEmail,
					ResourceType: string(sorted[0].ResourceType),
					ActionType:   string(t),
					Timestamp:    windowEvents[0].Timestamp,
				},
				Evidence: findings.Evidence{
					Description: fmt.Sprintf("%d %s events in %s (%.1f/s, limit %.1f/s)",
						count, t, th.Window, rate, limit),
					DataPoints: map[string]any{
						"eventsPerSecond": rate,
						"threshold":       limit,
						"windowSeconds":   th.Window.Seconds(),
						"eventCount":      count,
					},
					SupportingEvents: eventIDs(windowEvents),
				},
			})
		}
	}
	return out, ctx.Err()
}

// maxWindowCount slides a window over sorted events and returns the densest
// run plus the events inside it.
func maxWindowCount(sorted []events.Event, window time.Duration) (int, []events.Event) {
	best, bestLo, bestHi := 0, 0, 0
	lo := 0
	for hi := range sorted {
		for sorted[hi].Timestamp.Sub(sorted[lo].Timestamp) > window {
			lo++
		}
		if n := hi - lo + 1; n > best {
			best, bestLo, bestHi = n, lo, hi
		}
	}
	return best, sorted[bestLo : bestHi+1]
}

func rateThreshold(th config.VelocityThresholds, t events.EventType) float64 {
	switch t {
	case events.FileCreate, events.FileEdit, events.FileShare:
		return th.FilesPerSecond
	case events.FileDownload:
		return th.DownloadsPerSecond
	case events.PermissionChange:
		return th.PermissionChangesPerSecond
	case events.EmailSend:
		return th.EmailsPerSecond
	case events.ScriptExecution:
		return th.ScriptsPerSecond
	}
	return th.DefaultPerSecond
}
