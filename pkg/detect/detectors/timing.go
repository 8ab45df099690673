package detectors

import (
	"context"
	"fmt"

	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/stats"
)

// TimingVarianceDetector flags metronomic inter-event timing. Humans jitter;
// schedulers do not.
type TimingVarianceDetector struct{}

func (d *TimingVarianceDetector) Name() string { return "TimingVarianceDetector" }

// actionWeights sharpen confidence for action types automation favors.
var actionWeights = map[events.EventType]float64{
	events.PermissionChange: 1.25,
	events.ScriptExecution:  1.30,
	events.FileCreate:       1.20,
	events.FileEdit:         1.15,
	events.FileShare:        1.15,
	events.EmailSend:        1.10,
}

func (d *TimingVarianceDetector) Detect(ctx context.Context, b Batch) ([]findings.ActivityPattern, error) {
	th := b.Thresholds.Timing

	var out []findings.ActivityPattern
	for _, user := range b.Users {
		sorted := sortedByTime(b.ByUser[user])

		// Gaps beyond MaxInterval split the stream into sequences.
		var seq []events.Event
		flush := func() {
			if p := d.analyze(b, user, seq); p != nil {
				out = append(out, *p)
			}
			seq = nil
		}
		for _, ev := range sorted {
			if len(seq) > 0 && ev.Timestamp.Sub(seq[len(seq)-1].Timestamp) > th.MaxInterval {
				flush()
			}
			seq = append(seq, ev)
		}
		flush()
	}
	return out, ctx.Err()
}

func (d *TimingVarianceDetector) analyze(b Batch, user string, seq []events.Event) *findings.ActivityPattern {
	th := b.Thresholds.Timing
	if len(seq) < th.MinEvents+1 {
		// Need MinEvents intervals, hence one more event.
		return nil
	}

	intervals := make([]float64, 0, len(seq)-1)
	for i := 1; i < len(seq); i++ {
		intervals = append(intervals, float64(seq[i].Timestamp.Sub(seq[i-1].Timestamp).Milliseconds()))
	}

	cv := stats.CoefficientOfVariation(intervals)
	if cv >= th.SuspiciousCV {
		return nil
	}

	var confidence float64
	if cv < th.CriticalCV {
		// 100 at CV 0, 95 at the critical bound.
		confidence = 100 - 5*(cv/th.CriticalCV)
	} else {
		// 95 at the critical bound, 70 at the suspicious bound.
		confidence = 95 - 25*(cv-th.CriticalCV)/(th.SuspiciousCV-th.CriticalCV)
	}

	dom := dominantType(seq)
	if w, ok := actionWeights[dom]; ok {
		confidence *= w
	}
	confidence = stats.Clamp(confidence, 0, 100)

	return &findings.ActivityPattern{
		ID:         newPatternID(),
		Type:       findings.PatternRegularInterval,
		DetectedAt: b.Reference,
		Confidence: confidence,
		Subject: findings.PatternSubject{
			UserID:       user,
			UserEmail:    seq[0].UserEmail,
			ResourceType: string(seq[0].ResourceType),
			ActionType:   string(dom),
			Timestamp:    seq[0].Timestamp,
		},
		Evidence: findings.Evidence{
			Description: fmt.Sprintf("%d events at near-constant intervals (CV %.4f, mean gap %.0fms)",
				len(seq), cv, stats.Mean(intervals)),
			DataPoints: map[string]any{
				"coefficientOfVariation": cv,
				"meanIntervalMs":         stats.Mean(intervals),
				"stdDevMs":               stats.StdDev(intervals),
				"intervalCount":          len(intervals),
			},
			SupportingEvents: eventIDs(seq),
		},
	}
}
