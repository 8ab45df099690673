package detectors

import (
	"context"
	"testing"
	"time"

	"github.com/singura/singura/pkg/config"
	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
)

func TestVelocity_BurstFires(t *testing.T) {
	// 100 file_create events inside one second: far beyond 10/s.
	var offsets []time.Duration
	for i := 0; i < 100; i++ {
		offsets = append(offsets, time.Duration(i)*10*time.Millisecond)
	}
	batch := NewBatch(makeEvents("user-1", events.FileCreate, offsets),
		events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &VelocityDetector{}
	patterns, err := d.Detect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 velocity pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if p.Type != findings.PatternVelocity {
		t.Errorf("type = %s, want velocity", p.Type)
	}
	if p.Confidence < 50 || p.Confidence > 100 {
		t.Errorf("confidence = %v, want within [50,100]", p.Confidence)
	}
	rate, _ := p.Evidence.DataPoints["eventsPerSecond"].(float64)
	if rate <= 10 {
		t.Errorf("eventsPerSecond = %v, want > threshold", rate)
	}
}

func TestVelocity_HumanPaceDoesNotFire(t *testing.T) {
	// One file every 30 seconds.
	var offsets []time.Duration
	for i := 0; i < 20; i++ {
		offsets = append(offsets, time.Duration(i)*30*time.Second)
	}
	batch := NewBatch(makeEvents("user-1", events.FileCreate, offsets),
		events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &VelocityDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns at human pace, got %d", len(patterns))
	}
}

func TestVelocity_ZeroWindowNeverFires(t *testing.T) {
	ts := config.DefaultThresholds()
	ts.Velocity.Window = 0

	var offsets []time.Duration
	for i := 0; i < 100; i++ {
		offsets = append(offsets, time.Duration(i)*time.Millisecond)
	}
	batch := NewBatch(makeEvents("user-1", events.FileCreate, offsets),
		events.ActivityTimeframe{}, ts)

	d := &VelocityDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("zero window must never fire, got %d patterns", len(patterns))
	}
}

func TestVelocity_SeparatePatternPerEventType(t *testing.T) {
	// Two event types both bursting in the same window report separately.
	var creates, shares []events.Event
	for i := 0; i < 60; i++ {
		creates = append(creates, events.Event{
			ID: "c" + time.Duration(i).String(), Timestamp: t0.Add(time.Duration(i) * 20 * time.Millisecond),
			UserID: "user-1", Type: events.FileCreate,
		})
		shares = append(shares, events.Event{
			ID: "s" + time.Duration(i).String(), Timestamp: t0.Add(time.Duration(i) * 20 * time.Millisecond),
			UserID: "user-1", Type: events.FileShare,
		})
	}
	batch := NewBatch(append(creates, shares...), events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &VelocityDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 2 {
		t.Fatalf("expected one pattern per event type, got %d", len(patterns))
	}
	if patterns[0].Subject.ActionType == patterns[1].Subject.ActionType {
		t.Error("expected distinct action types in the two patterns")
	}
}

func TestVelocity_BelowMinEventsSkips(t *testing.T) {
	batch := NewBatch(makeEvents("user-1", events.FileCreate,
		[]time.Duration{0, time.Millisecond, 2 * time.Millisecond}),
		events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &VelocityDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("expected skip below min events, got %d", len(patterns))
	}
}
