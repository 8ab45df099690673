package detectors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/singura/singura/pkg/config"
	"github.com/singura/singura/pkg/events"
)

func permEvent(id, user, role string, at time.Time) events.Event {
	return events.Event{
		ID:        id,
		Timestamp: at,
		UserID:    user,
		Type:      events.PermissionChange,
		Details: events.ActionDetails{
			Action:   "change_user_access",
			Metadata: map[string]any{"newRole": role},
		},
	}
}

func TestEscalation_RapidClimbToOwner(t *testing.T) {
	// read -> write -> admin -> owner within two days.
	start := t0
	evs := []events.Event{
		permEvent("p1", "user-1", "read", start),
		permEvent("p2", "user-1", "write", start.Add(12*time.Hour)),
		permEvent("p3", "user-1", "admin", start.Add(24*time.Hour)),
		permEvent("p4", "user-1", "owner", start.Add(48*time.Hour)),
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &PermissionEscalationDetector{}
	patterns, err := d.Detect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 escalation pattern, got %d", len(patterns))
	}
	p := patterns[0]
	velocity, _ := p.Evidence.DataPoints["escalationVelocity"].(float64)
	if velocity <= 0.1 {
		t.Errorf("velocity = %v, want > suspicious threshold", velocity)
	}
	if p.Confidence <= 0 || p.Confidence > 100 {
		t.Errorf("confidence = %v out of range", p.Confidence)
	}
}

func TestEscalation_BigJumpFires(t *testing.T) {
	// read -> owner in one transition is a 4-level jump.
	evs := []events.Event{
		permEvent("p1", "user-1", "read", t0),
		permEvent("p2", "user-1", "read", t0.AddDate(0, 0, 30)),
		permEvent("p3", "user-1", "owner", t0.AddDate(0, 0, 60)),
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &PermissionEscalationDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 1 {
		t.Fatalf("expected a max-jump pattern, got %d", len(patterns))
	}
	jump, _ := patterns[0].Evidence.DataPoints["maxLevelJump"].(int)
	if jump != 4 {
		t.Errorf("maxLevelJump = %d, want 4", jump)
	}
}

func TestEscalation_SlowLegitimateGrowth(t *testing.T) {
	// One modest promotion per quarter stays quiet.
	evs := []events.Event{
		permEvent("p1", "user-1", "read", t0),
		permEvent("p2", "user-1", "write", t0.AddDate(0, 3, 0)),
		permEvent("p3", "user-1", "admin", t0.AddDate(0, 6, 0)),
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &PermissionEscalationDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("quarterly promotions must not fire, got %d patterns", len(patterns))
	}
}

func TestEscalation_BelowMinEvents(t *testing.T) {
	evs := []events.Event{
		permEvent("p1", "user-1", "read", t0),
		permEvent("p2", "user-1", "owner", t0.Add(time.Hour)),
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &PermissionEscalationDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("expected skip below min events, got %d", len(patterns))
	}
}

func TestEscalation_UnmappableRolesSkipped(t *testing.T) {
	var evs []events.Event
	for i := 0; i < 5; i++ {
		evs = append(evs, permEvent(fmt.Sprintf("p%d", i), "user-1", "custom-tier", t0.Add(time.Duration(i)*time.Hour)))
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &PermissionEscalationDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("unmappable roles must not fire, got %d patterns", len(patterns))
	}
}
