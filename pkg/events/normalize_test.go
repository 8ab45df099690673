package events

import (
	"testing"
	"time"
)

func TestNormalizeGoogle(t *testing.T) {
	records := []map[string]any{
		{
			"id":        map[string]any{"time": "2025-06-10T09:00:00.000Z", "uniqueQualifier": "q1"},
			"actor":     map[string]any{"email": "alice@corp.example", "profileId": "100200"},
			"ipAddress": "203.0.113.7",
			"events": []any{
				map[string]any{
					"name": "download",
					"parameters": []any{
						map[string]any{"name": "doc_title", "value": "roadmap.pdf"},
						map[string]any{"name": "doc_id", "value": "doc-1"},
					},
				},
			},
		},
		// Missing actor: dropped.
		{
			"id":     map[string]any{"time": "2025-06-10T09:01:00.000Z"},
			"events": []any{map[string]any{"name": "download"}},
		},
		// Unknown verb: coerced, still emitted.
		{
			"id":    map[string]any{"time": "2025-06-10T09:02:00.000Z", "uniqueQualifier": "q3"},
			"actor": map[string]any{"email": "alice@corp.example", "profileId": "100200"},
			"events": []any{
				map[string]any{"name": "rename_calendar"},
			},
		},
	}

	batch := Normalize(PlatformGoogle, "org-1", records)
	if len(batch.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(batch.Events))
	}
	if batch.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", batch.Dropped)
	}
	if batch.Coerced != 1 {
		t.Errorf("coerced = %d, want 1", batch.Coerced)
	}

	ev := batch.Events[0]
	if ev.Type != FileDownload {
		t.Errorf("type = %s, want file_download", ev.Type)
	}
	if ev.UserID != "100200" || ev.UserEmail != "alice@corp.example" {
		t.Errorf("actor mapping wrong: %s / %s", ev.UserID, ev.UserEmail)
	}
	if ev.Details.ResourceName != "roadmap.pdf" {
		t.Errorf("resourceName = %s", ev.Details.ResourceName)
	}
	if ev.OrganizationID != "org-1" {
		t.Errorf("organizationId = %s", ev.OrganizationID)
	}
	if !ev.Timestamp.Equal(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", ev.Timestamp)
	}
	if batch.Events[1].Type != UnknownType {
		t.Errorf("unknown verb must coerce to unknown, got %s", batch.Events[1].Type)
	}
}

func TestNormalizeSlack(t *testing.T) {
	records := []map[string]any{
		{
			"id":          "ev-1",
			"date_create": float64(1749546000),
			"action":      "file_downloaded",
			"actor": map[string]any{
				"user": map[string]any{"id": "U123", "email": "bob@corp.example"},
			},
			"entity": map[string]any{
				"file": map[string]any{"id": "F9", "name": "salaries.xlsx"},
			},
			"context": map[string]any{"ip_address": "198.51.100.4", "ua": "curl/8.0"},
		},
		// Missing action: dropped.
		{
			"id":          "ev-2",
			"date_create": float64(1749546001),
			"actor":       map[string]any{"user": map[string]any{"id": "U123"}},
		},
	}

	batch := Normalize(PlatformSlack, "org-1", records)
	if len(batch.Events) != 1 || batch.Dropped != 1 {
		t.Fatalf("events=%d dropped=%d, want 1/1", len(batch.Events), batch.Dropped)
	}
	ev := batch.Events[0]
	if ev.Type != FileDownload {
		t.Errorf("type = %s, want file_download", ev.Type)
	}
	if ev.IPAddress != "198.51.100.4" || ev.UserAgent != "curl/8.0" {
		t.Errorf("context mapping wrong: %s / %s", ev.IPAddress, ev.UserAgent)
	}
	if ev.Timestamp.Location() != time.UTC {
		t.Error("timestamps must be carried as UTC instants")
	}
}

func TestNormalizeMicrosoft(t *testing.T) {
	records := []map[string]any{
		{
			"Id":               "aad-1",
			"CreationDateTime": "2025-06-10T09:00:00Z",
			"UserId":           "carol@corp.example",
			"Operation":        "FileDownloaded",
			"ObjectId":         "sites/finance/budget.xlsx",
			"SourceFileName":   "budget.xlsx",
			"ClientIP":         "192.0.2.20",
		},
	}
	batch := Normalize(PlatformMicrosoft, "org-1", records)
	if len(batch.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(batch.Events))
	}
	if batch.Events[0].Type != FileDownload {
		t.Errorf("type = %s, want file_download", batch.Events[0].Type)
	}
}

func TestNormalizeAIFeed(t *testing.T) {
	records := []map[string]any{
		{
			"id":         "c-1",
			"timestamp":  "2025-06-10T09:00:00Z",
			"user_email": "dave@corp.example",
			"event_type": "message_sent",
			"model":      "claude-3-opus",
		},
	}
	batch := Normalize(PlatformClaude, "org-1", records)
	if len(batch.Events) != 1 || len(batch.AIActivities) != 1 {
		t.Fatalf("events=%d activities=%d, want 1/1", len(batch.Events), len(batch.AIActivities))
	}
	act := batch.AIActivities[0]
	if act.Provider != "anthropic" {
		t.Errorf("provider = %s, want anthropic", act.Provider)
	}
	if act.Model != "claude-3-opus" {
		t.Errorf("model = %s", act.Model)
	}
	if batch.Events[0].Type != AIPrompt {
		t.Errorf("type = %s, want ai_prompt", batch.Events[0].Type)
	}
}

func TestTimeframeContains(t *testing.T) {
	frame := ActivityTimeframe{
		StartHour:  9,
		EndHour:    17,
		DaysOfWeek: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Timezone:   "America/New_York",
	}

	// 14:00 UTC on a Tuesday is 10:00 in New York: business hours.
	if !frame.Contains(time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)) {
		t.Error("UTC afternoon should be NY business hours")
	}
	// 02:00 UTC on a Tuesday is 22:00 Monday in New York: off-hours.
	if frame.Contains(time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC)) {
		t.Error("UTC night should be NY off-hours")
	}
	// Saturday is always off.
	if frame.Contains(time.Date(2025, 6, 14, 15, 0, 0, 0, time.UTC)) {
		t.Error("Saturday must be off-hours")
	}
}
