package events

import (
	"errors"
	"fmt"
	"time"
)

// Platform identifies a supported audit source.
type Platform string

const (
	PlatformGoogle    Platform = "google_workspace"
	PlatformSlack     Platform = "slack"
	PlatformMicrosoft Platform = "microsoft_365"
	PlatformChatGPT   Platform = "chatgpt_enterprise"
	PlatformClaude    Platform = "claude_enterprise"
	PlatformGemini    Platform = "gemini_enterprise"
)

// ErrInvalidEvent marks a record missing a required field. The record is
// dropped and counted; it is never silently repaired.
var ErrInvalidEvent = errors.New("invalid audit record")

// Batch is the output of one normalization pass.
type Batch struct {
	Events       []Event
	AIActivities []AIActivity

	// Dropped counts records rejected with ErrInvalidEvent.
	Dropped int
	// Coerced counts records whose event type fell outside the closed set.
	Coerced int
}

// typeAliases maps common platform verbs onto the canonical set.
var typeAliases = map[string]EventType{
	// Google admin-reports
	"create":            FileCreate,
	"edit":              FileEdit,
	"upload":            FileCreate,
	"download":          FileDownload,
	"change_user_access": PermissionChange,
	"change_acl_editors": PermissionChange,
	"shared_drive_membership_change": PermissionChange,
	"share":             FileShare,
	"login_success":     Login,
	// Slack audit
	"file_uploaded":    FileCreate,
	"file_downloaded":  FileDownload,
	"file_shared":      FileShare,
	"user_login":       Login,
	"workflow_executed": ScriptExecution,
	// Microsoft Graph activity
	"FileUploaded":          FileCreate,
	"FileModified":          FileEdit,
	"FileDownloaded":        FileDownload,
	"SharingSet":            FileShare,
	"PermissionLevelAdded":  PermissionChange,
	"UserLoggedIn":          Login,
	"Send":                  EmailSend,
	// AI platform compliance feeds
	"message_sent":       AIPrompt,
	"conversation":       AIPrompt,
	"completion_created": AIPrompt,
	"prompt":             AIPrompt,
}

// Normalize maps raw platform records onto canonical Events. It is pure over
// its inputs; transport concerns (paging, retries) belong to the caller.
// Records failing required-field validation are dropped and counted.
func Normalize(platform Platform, orgID string, records []map[string]any) Batch {
	var out Batch
	for _, rec := range records {
		ev, act, err := normalizeOne(platform, orgID, rec)
		if err != nil {
			out.Dropped++
			continue
		}
		if ev.Type == UnknownType {
			out.Coerced++
		}
		out.Events = append(out.Events, ev)
		if act != nil {
			out.AIActivities = append(out.AIActivities, *act)
		}
	}
	return out
}

func normalizeOne(platform Platform, orgID string, rec map[string]any) (Event, *AIActivity, error) {
	switch platform {
	case PlatformGoogle:
		return normalizeGoogle(orgID, rec)
	case PlatformSlack:
		return normalizeSlack(orgID, rec)
	case PlatformMicrosoft:
		return normalizeMicrosoft(orgID, rec)
	case PlatformChatGPT, PlatformClaude, PlatformGemini:
		return normalizeAIFeed(platform, orgID, rec)
	default:
		return Event{}, nil, fmt.Errorf("%w: unsupported platform %q", ErrInvalidEvent, platform)
	}
}

// normalizeGoogle maps an admin-reports activity record.
// Shape: {"id": {"time": ...}, "actor": {"email", "profileId"}, "events": [{"name", "parameters": [...]}]}.
func normalizeGoogle(orgID string, rec map[string]any) (Event, *AIActivity, error) {
	id, _ := rec["id"].(map[string]any)
	actor, _ := rec["actor"].(map[string]any)

	ts, err := parseTime(str(id, "time"))
	if err != nil {
		return Event{}, nil, err
	}
	userID := str(actor, "profileId")
	if userID == "" {
		userID = str(actor, "email")
	}
	if userID == "" {
		return Event{}, nil, fmt.Errorf("%w: missing actor", ErrInvalidEvent)
	}

	name := ""
	params := map[string]any{}
	if evs, ok := rec["events"].([]any); ok && len(evs) > 0 {
		if first, ok := evs[0].(map[string]any); ok {
			name = str(first, "name")
			if plist, ok := first["parameters"].([]any); ok {
				for _, p := range plist {
					if pm, ok := p.(map[string]any); ok {
						params[str(pm, "name")] = pm["value"]
					}
				}
			}
		}
	}
	if name == "" {
		return Event{}, nil, fmt.Errorf("%w: missing event name", ErrInvalidEvent)
	}

	resourceName, _ := params["doc_title"].(string)
	resourceID, _ := params["doc_id"].(string)

	ev := Event{
		ID:             str(id, "uniqueQualifier"),
		Timestamp:      ts.UTC(),
		UserID:         userID,
		UserEmail:      str(actor, "email"),
		OrganizationID: orgID,
		Type:           CoerceType(name),
		ResourceID:     resourceID,
		ResourceType:   resourceFor(CoerceType(name)),
		Details: ActionDetails{
			Action:       name,
			ResourceName: resourceName,
			Metadata:     params,
		},
		IPAddress: str(rec, "ipAddress"),
	}
	if ev.ID == "" {
		ev.ID = syntheticID(ev)
	}
	return ev, nil, nil
}

// normalizeSlack maps a Slack audit-logs entry.
// Shape: {"id", "date_create": unix, "action", "actor": {"user": {...}}, "entity": {"file": {...}}, "context": {...}}.
func normalizeSlack(orgID string, rec map[string]any) (Event, *AIActivity, error) {
	sec, ok := num(rec, "date_create")
	if !ok {
		return Event{}, nil, fmt.Errorf("%w: missing date_create", ErrInvalidEvent)
	}
	action := str(rec, "action")
	if action == "" {
		return Event{}, nil, fmt.Errorf("%w: missing action", ErrInvalidEvent)
	}

	actor, _ := rec["actor"].(map[string]any)
	user, _ := actor["user"].(map[string]any)
	userID := str(user, "id")
	if userID == "" {
		return Event{}, nil, fmt.Errorf("%w: missing actor user", ErrInvalidEvent)
	}

	entity, _ := rec["entity"].(map[string]any)
	file, _ := entity["file"].(map[string]any)
	context, _ := rec["context"].(map[string]any)

	ev := Event{
		ID:             str(rec, "id"),
		Timestamp:      time.Unix(int64(sec), 0).UTC(),
		UserID:         userID,
		UserEmail:      str(user, "email"),
		OrganizationID: orgID,
		Type:           CoerceType(action),
		ResourceID:     str(file, "id"),
		ResourceType:   resourceFor(CoerceType(action)),
		Details: ActionDetails{
			Action:       action,
			ResourceName: str(file, "name"),
			Metadata:     entity,
		},
		IPAddress: str(context, "ip_address"),
		UserAgent: str(context, "ua"),
	}
	if ev.ID == "" {
		ev.ID = syntheticID(ev)
	}
	return ev, nil, nil
}

// normalizeMicrosoft maps a Graph / unified audit log record.
func normalizeMicrosoft(orgID string, rec map[string]any) (Event, *AIActivity, error) {
	ts, err := parseTime(str(rec, "CreationDateTime"))
	if err != nil {
		ts, err = parseTime(str(rec, "CreationTime"))
	}
	if err != nil {
		return Event{}, nil, err
	}
	userID := str(rec, "UserId")
	if userID == "" {
		return Event{}, nil, fmt.Errorf("%w: missing UserId", ErrInvalidEvent)
	}
	op := str(rec, "Operation")
	if op == "" {
		return Event{}, nil, fmt.Errorf("%w: missing Operation", ErrInvalidEvent)
	}

	ev := Event{
		ID:             str(rec, "Id"),
		Timestamp:      ts.UTC(),
		UserID:         userID,
		UserEmail:      userID,
		OrganizationID: orgID,
		Type:           CoerceType(op),
		ResourceID:     str(rec, "ObjectId"),
		ResourceType:   resourceFor(CoerceType(op)),
		Details: ActionDetails{
			Action:       op,
			ResourceName: str(rec, "SourceFileName"),
			Metadata:     rec,
		},
		IPAddress: str(rec, "ClientIP"),
		UserAgent: str(rec, "UserAgent"),
	}
	if ev.ID == "" {
		ev.ID = syntheticID(ev)
	}
	return ev, nil, nil
}

// normalizeAIFeed maps ChatGPT/Claude/Gemini enterprise compliance exports and
// additionally emits the AIActivity view.
func normalizeAIFeed(platform Platform, orgID string, rec map[string]any) (Event, *AIActivity, error) {
	ts, err := parseTime(str(rec, "timestamp"))
	if err != nil {
		return Event{}, nil, err
	}
	userID := str(rec, "user_id")
	if userID == "" {
		userID = str(rec, "user_email")
	}
	if userID == "" {
		return Event{}, nil, fmt.Errorf("%w: missing user", ErrInvalidEvent)
	}
	action := str(rec, "event_type")
	if action == "" {
		action = str(rec, "action")
	}
	if action == "" {
		return Event{}, nil, fmt.Errorf("%w: missing event type", ErrInvalidEvent)
	}

	ev := Event{
		ID:             str(rec, "id"),
		Timestamp:      ts.UTC(),
		UserID:         userID,
		UserEmail:      str(rec, "user_email"),
		OrganizationID: orgID,
		Type:           CoerceType(action),
		ResourceID:     str(rec, "conversation_id"),
		ResourceType:   ResourceModel,
		Details: ActionDetails{
			Action:       action,
			ResourceName: str(rec, "model"),
			Metadata:     rec,
		},
	}
	if ev.ID == "" {
		ev.ID = syntheticID(ev)
	}
	act := &AIActivity{
		EventID:   ev.ID,
		Platform:  platform,
		Provider:  providerForPlatform(platform),
		Model:     str(rec, "model"),
		Timestamp: ev.Timestamp,
		UserEmail: ev.UserEmail,
	}
	return ev, act, nil
}

func providerForPlatform(p Platform) string {
	switch p {
	case PlatformChatGPT:
		return "openai"
	case PlatformClaude:
		return "anthropic"
	case PlatformGemini:
		return "google_ai"
	}
	return ""
}

func resourceFor(t EventType) ResourceType {
	switch t {
	case FileCreate, FileEdit, FileShare, FileDownload:
		return ResourceFile
	case EmailSend:
		return ResourceEmail
	case PermissionChange:
		return ResourcePermission
	case ScriptExecution:
		return ResourceScript
	case Login:
		return ResourceSession
	case AIPrompt:
		return ResourceModel
	}
	return ResourceUnknown
}

// syntheticID derives a stable identifier for sources that omit one.
func syntheticID(ev Event) string {
	return fmt.Sprintf("%s-%s-%d", ev.UserID, ev.Details.Action, ev.Timestamp.UnixMilli())
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrInvalidEvent, raw)
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
