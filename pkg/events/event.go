// Package events defines the canonical audit event model and the
// per-platform normalizers that produce it.
package events

import (
	"time"
)

// EventType classifies a normalized audit record.
type EventType string

const (
	FileCreate       EventType = "file_create"
	FileEdit         EventType = "file_edit"
	FileShare        EventType = "file_share"
	FileDownload     EventType = "file_download"
	PermissionChange EventType = "permission_change"
	ScriptExecution  EventType = "script_execution"
	EmailSend        EventType = "email_send"
	Login            EventType = "login"
	AIPrompt         EventType = "ai_prompt"
	// UnknownType marks records outside the closed set. They still flow
	// through the engine: the velocity and batch-operation detectors skip
	// them, while the timing and off-hours detectors count them like any
	// other event.
	UnknownType EventType = "unknown"
)

// ResourceType classifies the object an event acted on.
type ResourceType string

const (
	ResourceFile       ResourceType = "file"
	ResourceEmail      ResourceType = "email"
	ResourceCalendar   ResourceType = "calendar"
	ResourceScript     ResourceType = "script"
	ResourcePermission ResourceType = "permission"
	ResourceSession    ResourceType = "session"
	ResourceModel      ResourceType = "model"
	ResourceUnknown    ResourceType = "unknown"
)

// ActionDetails carries the action verb and free-form platform metadata.
type ActionDetails struct {
	Action       string         `json:"action"`
	ResourceName string         `json:"resourceName,omitempty"`
	Metadata     map[string]any `json:"additionalMetadata,omitempty"`
}

// Event is one normalized audit record. Immutable after creation: detectors
// receive shared slices and must never write through them.
type Event struct {
	ID             string        `json:"eventId"`
	Timestamp      time.Time     `json:"timestamp"`
	UserID         string        `json:"userId"`
	UserEmail      string        `json:"userEmail,omitempty"`
	OrganizationID string        `json:"organizationId,omitempty"`
	Type           EventType     `json:"eventType"`
	ResourceID     string        `json:"resourceId,omitempty"`
	ResourceType   ResourceType  `json:"resourceType,omitempty"`
	Details        ActionDetails `json:"actionDetails"`
	UserAgent      string        `json:"userAgent,omitempty"`
	IPAddress      string        `json:"ipAddress,omitempty"`
	Location       string        `json:"location,omitempty"`
}

// AIActivity is the secondary view emitted for records from AI platform
// compliance feeds. It rides alongside the Event, never replaces it.
type AIActivity struct {
	EventID   string    `json:"eventId"`
	Platform  Platform  `json:"platform"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	UserEmail string    `json:"userEmail,omitempty"`
}

// ActivityTimeframe defines the business-hours window used by the off-hours
// detector. Hours are in the organization's local zone.
type ActivityTimeframe struct {
	StartHour  int            `json:"startHour"`
	EndHour    int            `json:"endHour"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek"`
	Timezone   string         `json:"timezone"`
}

// Contains reports whether t falls inside the timeframe. The instant is
// shifted into the configured zone first; DST is handled by the zone itself.
func (tf ActivityTimeframe) Contains(t time.Time) bool {
	loc, err := time.LoadLocation(tf.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)

	dayOK := false
	for _, d := range tf.DaysOfWeek {
		if local.Weekday() == d {
			dayOK = true
			break
		}
	}
	if !dayOK {
		return false
	}

	h := local.Hour()
	if tf.StartHour <= tf.EndHour {
		return h >= tf.StartHour && h < tf.EndHour
	}
	// Overnight window, e.g. 22-06.
	return h >= tf.StartHour || h < tf.EndHour
}

// knownTypes is the closed event-type set accepted by the normalizer.
var knownTypes = map[EventType]bool{
	FileCreate:       true,
	FileEdit:         true,
	FileShare:        true,
	FileDownload:     true,
	PermissionChange: true,
	ScriptExecution:  true,
	EmailSend:        true,
	Login:            true,
	AIPrompt:         true,
}

// CoerceType maps arbitrary platform verbs onto the closed set, falling back
// to UnknownType.
func CoerceType(raw string) EventType {
	t := EventType(raw)
	if knownTypes[t] {
		return t
	}
	if alias, ok := typeAliases[raw]; ok {
		return alias
	}
	return UnknownType
}
