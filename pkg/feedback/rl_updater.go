package feedback

import (
	"time"

	"github.com/singura/singura/pkg/config"
)

const (
	// minLabelsPerOrg is the accumulation floor before any proposal.
	minLabelsPerOrg = 50
	// maxDeltaPerCycle clips every threshold move to prevent oscillation.
	maxDeltaPerCycle = 0.25
	// learningRate scales the false-positive/false-negative imbalance into
	// a threshold adjustment.
	learningRate = 0.5
)

// Updater proposes per-tenant threshold sets from accumulated labels.
// Proposals are versioned; rollback is replacement by an earlier version.
type Updater struct {
	MinLabels int
	MaxDelta  float64
}

func NewUpdater() *Updater {
	return &Updater{MinLabels: minLabelsPerOrg, MaxDelta: maxDeltaPerCycle}
}

// Propose derives a new ThresholdSet from the current one. Returns false when
// too few labels have accumulated or the labels are balanced enough that no
// move is warranted.
func (u *Updater) Propose(labels []GroundTruthLabel, current config.ThresholdSet, now time.Time) (config.ThresholdSet, bool) {
	if len(labels) < u.MinLabels {
		return config.ThresholdSet{}, false
	}

	legit, malicious := 0, 0
	for _, l := range labels {
		switch l.Actual {
		case VerdictLegitimate:
			legit++
		case VerdictMalicious:
			malicious++
		}
	}
	total := legit + malicious
	if total == 0 {
		return config.ThresholdSet{}, false
	}

	// A surplus of legitimate labels means the detectors over-fire: loosen.
	// A surplus of malicious labels means they under-fire: tighten.
	imbalance := float64(legit-malicious) / float64(total)
	delta := imbalance * learningRate
	if delta > u.MaxDelta {
		delta = u.MaxDelta
	}
	if delta < -u.MaxDelta {
		delta = -u.MaxDelta
	}
	if delta > -0.01 && delta < 0.01 {
		return config.ThresholdSet{}, false
	}

	next := scale(current, 1+delta)
	next.Version = current.Version + 1
	next.UpdatedAt = now
	next.Source = config.SourceRLOptimized
	if !next.Valid() {
		return config.ThresholdSet{}, false
	}
	return next, true
}

// scale moves every firing bound by the same factor. Bounds where a LOWER
// value fires more often move with the factor; bounds where a lower value
// fires less often move against it.
func scale(t config.ThresholdSet, factor float64) config.ThresholdSet {
	next := t

	next.Velocity.FilesPerSecond *= factor
	next.Velocity.PermissionChangesPerSecond *= factor
	next.Velocity.EmailsPerSecond *= factor
	next.Velocity.DownloadsPerSecond *= factor
	next.Velocity.ScriptsPerSecond *= factor
	next.Velocity.DefaultPerSecond *= factor

	// CV bounds fire on values BELOW them: loosening means shrinking them,
	// so they move inversely.
	next.Timing.SuspiciousCV /= factor
	next.Timing.CriticalCV /= factor

	next.OffHours.SuspiciousPercent = capPercent(t.OffHours.SuspiciousPercent * factor)
	next.OffHours.CriticalPercent = capPercent(t.OffHours.CriticalPercent * factor)

	next.Escalation.SuspiciousVelocity *= factor

	next.DataVolume.DailyWarnBytes = int64(float64(t.DataVolume.DailyWarnBytes) * factor)
	next.DataVolume.DailyCriticalBytes = int64(float64(t.DataVolume.DailyCriticalBytes) * factor)
	next.DataVolume.AbnormalMultiplier *= factor

	return next
}

func capPercent(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
