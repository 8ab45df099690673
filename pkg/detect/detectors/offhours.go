package detectors

import (
	"context"
	"fmt"

	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/stats"
)

// OffHoursDetector flags users whose activity concentrates outside the
// organization's business hours.
type OffHoursDetector struct{}

func (d *OffHoursDetector) Name() string { return "OffHoursDetector" }

func (d *OffHoursDetector) Detect(ctx context.Context, b Batch) ([]findings.ActivityPattern, error) {
	th := b.Thresholds.OffHours
	if len(b.Timeframe.DaysOfWeek) == 0 {
		// No business calendar supplied; every hour counts as business time.
		return nil, nil
	}

	var out []findings.ActivityPattern
	for _, user := range b.Users {
		evs := b.ByUser[user]
		if len(evs) < th.MinEvents {
			continue
		}

		offHours := 0
		var offIDs []string
		for _, ev := range evs {
			if !b.Timeframe.Contains(ev.Timestamp) {
				offHours++
				offIDs = append(offIDs, ev.ID)
			}
		}

		pct := 100 * float64(offHours) / float64(len(evs))
		if pct < th.SuspiciousPercent {
			continue
		}

		confidence := stats.Clamp(
			100*(pct-th.SuspiciousPercent)/(th.CriticalPercent-th.SuspiciousPercent), 0, 100)

		sorted := sortedByTime(evs)
		out = append(out, findings.ActivityPattern{
			ID:         newPatternID(),
			Type:       findings.PatternOffHours,
			DetectedAt: b.Reference,
			Confidence: confidence,
			Subject: findings.PatternSubject{
				UserID:     user,
				UserEmail:  sorted[0].UserEmail,
				ActionType: string(dominantType(evs)),
				Timestamp:  sorted[0].Timestamp,
			},
			Evidence: findings.Evidence{
				Description: fmt.Sprintf("%d of %d events (%.0f%%) outside business hours %02d:00-%02d:00 %s",
					offHours, len(evs), pct, b.Timeframe.StartHour, b.Timeframe.EndHour, b.Timeframe.Timezone),
				DataPoints: map[string]any{
					"offHoursPercentage": pct,
					"offHoursCount":      offHours,
					"totalEvents":        len(evs),
				},
				SupportingEvents: offIDs,
			},
		})
	}
	return out, ctx.Err()
}
