package detectors

import (
	"context"
	"testing"
	"time"

	"github.com/singura/singura/pkg/config"
	"github.com/singura/singura/pkg/events"
)

func weekdayFrame() events.ActivityTimeframe {
	return events.ActivityTimeframe{
		StartHour:  9,
		EndHour:    17,
		DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Timezone:   "UTC",
	}
}

func TestOffHours_NightOwlAutomation(t *testing.T) {
	// Tuesday 2025-06-10. user-2: 10 events 22:00-03:00, user-1: 2 daytime.
	night := time.Date(2025, 6, 10, 22, 0, 0, 0, time.UTC)
	var evs []events.Event
	for i := 0; i < 10; i++ {
		evs = append(evs, events.Event{
			ID:        "n" + time.Duration(i).String(),
			Timestamp: night.Add(time.Duration(i) * 29 * time.Minute),
			UserID:    "user-2",
			Type:      events.FileEdit,
		})
	}
	day := time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC)
	evs = append(evs,
		events.Event{ID: "d1", Timestamp: day, UserID: "user-1", Type: events.FileEdit},
		events.Event{ID: "d2", Timestamp: day.Add(time.Hour), UserID: "user-1", Type: events.FileEdit},
	)

	batch := NewBatch(evs, weekdayFrame(), config.DefaultThresholds())
	d := &OffHoursDetector{}
	patterns, err := d.Detect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 off-hours pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if p.Subject.UserID != "user-2" {
		t.Errorf("userId = %s, want user-2", p.Subject.UserID)
	}
	pct, _ := p.Evidence.DataPoints["offHoursPercentage"].(float64)
	if pct < 80 {
		t.Errorf("offHoursPercentage = %v, want >= 80", pct)
	}
}

func TestOffHours_BelowMinEvents(t *testing.T) {
	night := time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)
	var evs []events.Event
	for i := 0; i < 9; i++ {
		evs = append(evs, events.Event{
			ID:        "n" + time.Duration(i).String(),
			Timestamp: night.Add(time.Duration(i) * time.Minute),
			UserID:    "user-1",
			Type:      events.FileEdit,
		})
	}
	batch := NewBatch(evs, weekdayFrame(), config.DefaultThresholds())
	d := &OffHoursDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns below min events, got %d", len(patterns))
	}
}

func TestOffHours_TimezoneShiftsClassification(t *testing.T) {
	// 14:00 UTC is business time in London but 23:00 in Tokyo.
	frame := weekdayFrame()
	frame.Timezone = "Asia/Tokyo"

	noonUTC := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	var evs []events.Event
	for i := 0; i < 10; i++ {
		evs = append(evs, events.Event{
			ID:        "t" + time.Duration(i).String(),
			Timestamp: noonUTC.Add(time.Duration(i) * 3 * time.Minute),
			UserID:    "user-1",
			Type:      events.FileEdit,
		})
	}
	batch := NewBatch(evs, frame, config.DefaultThresholds())
	d := &OffHoursDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 1 {
		t.Fatalf("expected the Tokyo calendar to flag UTC-afternoon traffic, got %d patterns", len(patterns))
	}
}

func TestOffHours_WeekendCountsAsOffHours(t *testing.T) {
	// Saturday at noon is off-hours on a Mon-Fri calendar.
	saturday := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	var evs []events.Event
	for i := 0; i < 10; i++ {
		evs = append(evs, events.Event{
			ID:        "w" + time.Duration(i).String(),
			Timestamp: saturday.Add(time.Duration(i) * 7 * time.Minute),
			UserID:    "user-1",
			Type:      events.FileEdit,
		})
	}
	batch := NewBatch(evs, weekdayFrame(), config.DefaultThresholds())
	d := &OffHoursDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 1 {
		t.Fatalf("expected weekend activity to flag, got %d patterns", len(patterns))
	}
}
