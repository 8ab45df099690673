package detectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/stats"
)

// PermissionEscalationDetector flags users climbing the permission ladder
// faster or further than policy allows.
type PermissionEscalationDetector struct{}

func (d *PermissionEscalationDetector) Name() string { return "PermissionEscalationDetector" }

// roleLevels is the ordinal permission ladder.
var roleLevels = map[string]int{
	"read":   0,
	"viewer": 0,
	"write":  1,
	"editor": 1,
	"admin":  2,
	"share":  3,
	"owner":  4,
}

func (d *PermissionEscalationDetector) Detect(ctx context.Context, b Batch) ([]findings.ActivityPattern, error) {
	th := b.Thresholds.Escalation

	var out []findings.ActivityPattern
	for _, user := range b.Users {
		var perms []events.Event
		for _, ev := range b.ByUser[user] {
			if ev.Type == events.PermissionChange {
				perms = append(perms, ev)
			}
		}
		if len(perms) < th.MinEvents {
			continue
		}
		sorted := sortedByTime(perms)

		type step struct {
			at    time.Time
			level int
		}
		var steps []step
		for _, ev := range sorted {
			if lvl, ok := roleLevel(ev); ok {
				steps = append(steps, step{at: ev.Timestamp, level: lvl})
			}
		}
		if len(steps) < 2 {
			continue
		}

		escalations := 0
		maxJump := 0
		var escTimes []time.Time
		for i := 1; i < len(steps); i++ {
			jump := steps[i].level - steps[i-1].level
			if jump > 0 {
				escalations++
				escTimes = append(escTimes, steps[i].at)
				if jump > maxJump {
					maxJump = jump
				}
			}
		}
		if escalations == 0 {
			continue
		}

		span := steps[len(steps)-1].at.Sub(steps[0].at)
		days := span.Hours() / 24
		if days < 1 {
			days = 1
		}
		velocity := float64(escalations) / days
		monthMax := maxInWindow(escTimes, 30*24*time.Hour)

		if velocity <= th.SuspiciousVelocity &&
			maxJump < th.MaxLevelJump &&
			monthMax <= th.MaxEscalationsPerMonth {
			continue
		}

		confidence := stats.Clamp(float64(maxJump)*20+stats.Clamp(velocity*500, 0, 50), 0, 100)

		out = append(out, findings.ActivityPattern{
			ID:         newPatternID(),
			Type:       findings.PatternPermission,
			DetectedAt: b.Reference,
			Confidence: confidence,
			Subject: findings.PatternSubject{
				UserID:       user,
				UserEmail:    sorted[0].UserEmail,
				ResourceType: string(events.ResourcePermission),
				ActionType:   string(events.PermissionChange),
				Timestamp:    sorted[0].Timestamp,
			},
			Evidence: findings.Evidence{
				Description: fmt.Sprintf("%d escalations over %.1f days (max jump %d levels, %d in a 30-day window)",
					escalations, days, maxJump, monthMax),
				DataPoints: map[string]any{
					"escalationCount":    escalations,
					"maxLevelJump":       maxJump,
					"escalationVelocity": velocity,
					"windowMax":          monthMax,
				},
				SupportingEvents: eventIDs(sorted),
			},
		})
	}
	return out, ctx.Err()
}

// roleLevel extracts the granted role from event metadata.
func roleLevel(ev events.Event) (int, bool) {
	for _, key := range []string{"newRole", "new_value", "role", "permissionLevel", "permission"} {
		if raw, ok := ev.Details.Metadata[key]; ok {
			if s, ok := raw.(string); ok {
				if lvl, ok := roleLevels[strings.ToLower(s)]; ok {
					return lvl, true
				}
			}
		}
	}
	return 0, false
}

// maxInWindow returns the largest number of instants inside any sliding
// window of the given width. Input must be ordered.
func maxInWindow(times []time.Time, width time.Duration) int {
	best := 0
	lo := 0
	for hi := range times {
		for times[hi].Sub(times[lo]) > width {
			lo++
		}
		if n := hi - lo + 1; n > best {
			best = n
		}
	}
	return best
}
