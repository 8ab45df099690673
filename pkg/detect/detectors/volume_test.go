package detectors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/singura/singura/pkg/config"
	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
)

func downloadEvent(id, user string, at time.Time, sizeBytes int64) events.Event {
	return events.Event{
		ID:        id,
		Timestamp: at,
		UserID:    user,
		Type:      events.FileDownload,
		Details: events.ActionDetails{
			Action:   "download",
			Metadata: map[string]any{"fileSize": float64(sizeBytes)},
		},
	}
}

func TestDataVolume_ExfiltrationSpike(t *testing.T) {
	// Seven prior days of 5 MiB/day, then 50 downloads of 5 MiB today.
	today := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	const fiveMiB = 5 * 1024 * 1024

	var evs []events.Event
	for d := 1; d <= 7; d++ {
		evs = append(evs, downloadEvent(fmt.Sprintf("prior-%d", d), "user-1",
			today.AddDate(0, 0, -d), fiveMiB))
	}
	// Jittered spacing so only the volume detector is exercised.
	gaps := []int{0, 3, 8, 19, 21, 40, 47, 61, 66, 90}
	offset := 0
	for i := 0; i < 50; i++ {
		offset += gaps[i%len(gaps)] + 11
		evs = append(evs, downloadEvent(fmt.Sprintf("today-%d", i), "user-1",
			today.Add(time.Duration(offset)*time.Minute/10), fiveMiB))
	}

	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())
	d := &DataVolumeDetector{}
	patterns, err := d.Detect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 file_download pattern, got %d", len(patterns))
	}
	p := patterns[0]
	if p.Type != findings.PatternFileDownload {
		t.Errorf("type = %s, want file_download", p.Type)
	}
	if p.Confidence < 90 {
		t.Errorf("confidence = %v, want >= 90", p.Confidence)
	}
	todayBytes, _ := p.Evidence.DataPoints["todayBytes"].(float64)
	if todayBytes != float64(50*fiveMiB) {
		t.Errorf("todayBytes = %v, want %v", todayBytes, 50*fiveMiB)
	}
}

func TestDataVolume_CriticalAbsoluteBound(t *testing.T) {
	// No baseline at all, but 600 MiB in one sitting crosses the critical
	// absolute bound and lifts confidence to at least 95.
	today := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	var evs []events.Event
	for i := 0; i < 6; i++ {
		evs = append(evs, downloadEvent(fmt.Sprintf("big-%d", i), "user-1",
			today.Add(time.Duration(i)*7*time.Minute), 100*1024*1024))
	}
	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())

	d := &DataVolumeDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(patterns))
	}
	if patterns[0].Confidence < 95 {
		t.Errorf("confidence = %v, want >= 95 at critical volume", patterns[0].Confidence)
	}
}

func TestDataVolume_NormalTrafficStaysQuiet(t *testing.T) {
	today := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
	var evs []events.Event
	for d := 1; d <= 7; d++ {
		evs = append(evs, downloadEvent(fmt.Sprintf("prior-%d", d), "user-1",
			today.AddDate(0, 0, -d), 5*1024*1024))
	}
	evs = append(evs, downloadEvent("today-0", "user-1", today, 6*1024*1024))

	batch := NewBatch(evs, events.ActivityTimeframe{}, config.DefaultThresholds())
	d := &DataVolumeDetector{}
	patterns, _ := d.Detect(context.Background(), batch)
	if len(patterns) != 0 {
		t.Fatalf("expected no patterns for normal traffic, got %d", len(patterns))
	}
}

func TestDataVolume_ExtensionHeuristic(t *testing.T) {
	ev := events.Event{
		Details: events.ActionDetails{ResourceName: "quarterly.pdf"},
	}
	if got := fileSize(ev); got != 200*1024 {
		t.Errorf("fileSize(pdf) = %d, want %d", got, 200*1024)
	}
	ev = events.Event{
		Details: events.ActionDetails{ResourceName: "mystery.bin"},
	}
	if got := fileSize(ev); got != defaultFileSize {
		t.Errorf("fileSize(unknown) = %d, want default", got)
	}
	ev = events.Event{
		Details: events.ActionDetails{
			ResourceName: "quarterly.pdf",
			Metadata:     map[string]any{"size": float64(12345)},
		},
	}
	if got := fileSize(ev); got != 12345 {
		t.Errorf("fileSize(metadata) = %d, want 12345", got)
	}
}
