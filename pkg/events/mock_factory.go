package events

import (
	"fmt"
	"time"
)

// MockFactory constructs synthetic event batches for tests and the review
// preview mode.
type MockFactory struct {
	Events []Event

	org  string
	base time.Time
	seq  int
}

func NewMockFactory(org string, base time.Time) *MockFactory {
	return &MockFactory{org: org, base: base}
}

// AddMetronomicBot appends count events with a fixed inter-event gap, the
// shape a scheduler leaves behind.
func (m *MockFactory) AddMetronomicBot(user string, t EventType, count int, gap time.Duration) {
	for i := 0; i < count; i++ {
		m.add(Event{
			Timestamp: m.base.Add(time.Duration(i) * gap),
			UserID:    user,
			Type:      t,
			Details:   ActionDetails{Action: string(t)},
		})
	}
}

// AddNightOwl appends count events spread through the night after the base
// instant, with uneven human-looking gaps.
func (m *MockFactory) AddNightOwl(user string, count int) {
	night := time.Date(m.base.Year(), m.base.Month(), m.base.Day(), 22, 0, 0, 0, time.UTC)
	gaps := []int{0, 31, 67, 95, 131, 166, 194, 228, 263, 291, 324, 352}
	for i := 0; i < count; i++ {
		m.add(Event{
			Timestamp: night.Add(time.Duration(gaps[i%len(gaps)]) * time.Minute),
			UserID:    user,
			Type:      FileEdit,
			Details:   ActionDetails{Action: "edit"},
		})
	}
}

// AddAIIntegration appends one script event carrying provider evidence.
func (m *MockFactory) AddAIIntegration(user, endpoint, userAgent string) {
	m.add(Event{
		Timestamp: m.base,
		UserID:    user,
		Type:      ScriptExecution,
		UserAgent: userAgent,
		Details: ActionDetails{
			Action:   "script_execution",
			Metadata: map[string]any{"endpoint": endpoint},
		},
	})
}

// AddDownloadSpree appends count downloads of sizeBytes each, minutes apart.
func (m *MockFactory) AddDownloadSpree(user string, count int, sizeBytes int64) {
	for i := 0; i < count; i++ {
		m.add(Event{
			Timestamp: m.base.Add(time.Duration(i*7) * time.Minute),
			UserID:    user,
			Type:      FileDownload,
			Details: ActionDetails{
				Action:       "download",
				ResourceName: fmt.Sprintf("export_%03d.csv", i+1),
				Metadata:     map[string]any{"fileSize": float64(sizeBytes)},
			},
		})
	}
}

// AddDailyDownloads appends one download per day for the given number of
// days preceding the base instant, building a baseline history.
func (m *MockFactory) AddDailyDownloads(user string, days int, sizeBytes int64) {
	for d := 1; d <= days; d++ {
		m.add(Event{
			Timestamp: m.base.AddDate(0, 0, -d),
			UserID:    user,
			Type:      FileDownload,
			Details: ActionDetails{
				Action:   "download",
				Metadata: map[string]any{"fileSize": float64(sizeBytes)},
			},
		})
	}
}

// AddBusinessHoursNoise appends unremarkable daytime activity for a user.
func (m *MockFactory) AddBusinessHoursNoise(user string, count int) {
	day := time.Date(m.base.Year(), m.base.Month(), m.base.Day(), 10, 0, 0, 0, time.UTC)
	gaps := []int{0, 43, 88, 140, 205, 261, 330, 384, 451, 507}
	for i := 0; i < count; i++ {
		m.add(Event{
			Timestamp: day.Add(time.Duration(gaps[i%len(gaps)]) * time.Minute),
			UserID:    user,
			Type:      FileEdit,
			Details:   ActionDetails{Action: "edit"},
		})
	}
}

func (m *MockFactory) add(ev Event) {
	m.seq++
	ev.ID = fmt.Sprintf("mock-%d", m.seq)
	ev.OrganizationID = m.org
	if ev.UserEmail == "" {
		ev.UserEmail = ev.UserID + "@example.com"
	}
	m.Events = append(m.Events, ev)
}
