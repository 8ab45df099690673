package detectors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/singura/singura/pkg/config"
	"github.com/singura/singura/pkg/events"
)

func TestBatchOperation_GeneratedNames(t *testing.T) {
	// report_001.pdf ... report_008.pdf created two seconds apart.
	var evs []events.Event
	for i := 0; i < 8; i++ {
		evs = append(evs, events.Event{
			ID:        fmt.Sprintf("b%d", i),
			Timestamp: t0.Add(time.Duration(i) * 2 * time.Second),
			UserID:    "user-1",
			Type:      events.FileCreate,
			Details: events.ActionDetails{
				Action:       "create",
				ResourceName: fmt.Sprintf("report_%03d.pdf", i+1),
			},
		})
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &BatchOperationDetector{}
	patterns, err := d.Detect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 batch pattern, got %d", len(patterns))
	}
	sim, _ := patterns[0].Evidence.DataPoints["namingSimilarity"].(float64)
	if sim < 0.99 {
		t.Errorf("similarity = %v, want ~1.0 for numeric-suffix series", sim)
	}
	if patterns[0].Confidence <= 0 || patterns[0].Confidence > 100 {
		t.Errorf("confidence = %v out of range", patterns[0].Confidence)
	}
}

func TestBatchOperation_MixedTypesDoNotFire(t *testing.T) {
	types := []events.EventType{events.FileCreate, events.FileEdit, events.FileCreate, events.FileEdit}
	var evs []events.Event
	for i, ty := range types {
		evs = append(evs, events.Event{
			ID:        fmt.Sprintf("m%d", i),
			Timestamp: t0.Add(time.Duration(i) * time.Second),
			UserID:    "user-1",
			Type:      ty,
			Details:   events.ActionDetails{ResourceName: fmt.Sprintf("doc_%d", i)},
		})
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &BatchOperationDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("mixed event types must not form a batch, got %d", len(patterns))
	}
}

func TestBatchOperation_SmallClustersIgnored(t *testing.T) {
	evs := []events.Event{
		{ID: "a", Timestamp: t0, UserID: "u", Type: events.FileCreate,
			Details: events.ActionDetails{ResourceName: "x_1"}},
		{ID: "b", Timestamp: t0.Add(time.Second), UserID: "u", Type: events.FileCreate,
			Details: events.ActionDetails{ResourceName: "x_2"}},
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &BatchOperationDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("two-event clusters must never fire, got %d", len(patterns))
	}
}

func TestBatchOperation_DissimilarNamesDoNotFire(t *testing.T) {
	names := []string{"budget.xlsx", "meeting-notes.txt", "holiday-photo.jpg", "draft.docx"}
	var evs []events.Event
	for i, n := range names {
		evs = append(evs, events.Event{
			ID:        fmt.Sprintf("d%d", i),
			Timestamp: t0.Add(time.Duration(i) * time.Second),
			UserID:    "user-1",
			Type:      events.FileCreate,
			Details:   events.ActionDetails{ResourceName: n},
		})
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &BatchOperationDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("dissimilar names must not form a batch, got %d", len(patterns))
	}
}

func TestNamingSimilarity(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		min   float64
		max   float64
	}{
		{"numeric series", []string{"export_1.csv", "export_2.csv", "export_3.csv"}, 1, 1},
		{"shared prefix", []string{"backup-alpha", "backup-beta", "backup-gamma"}, 0.5, 0.7},
		{"unrelated", []string{"alpha", "omega", "zeta"}, 0, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := namingSimilarity(tt.names)
			if got < tt.min || got > tt.max {
				t.Errorf("namingSimilarity(%v) = %v, want within [%v,%v]", tt.names, got, tt.min, tt.max)
			}
		})
	}
}
