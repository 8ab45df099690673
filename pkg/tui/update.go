package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/singura/singura/pkg/feedback"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case ViewStateDetail:
			return m.updateDetail(msg)
		case ViewStateHelp:
			m.state = ViewStateList
			return m, nil
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.rows) > 0 {
			m.state = ViewStateDetail
			m.detailsScroll = 0
		}
	case "?":
		m.state = ViewStateHelp
	case "c":
		return m.label(feedback.CorrectDetection)
	case "f":
		return m.label(feedback.FalsePositive)
	case "r":
		return m.label(feedback.IncorrectRisk)
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.state = ViewStateList
	case "up", "k":
		if m.detailsScroll > 0 {
			m.detailsScroll--
		}
	case "down", "j":
		m.detailsScroll++
	case "c":
		return m.label(feedback.CorrectDetection)
	case "f":
		return m.label(feedback.FalsePositive)
	}
	return m, nil
}

// label records feedback for the finding under the cursor.
func (m Model) label(t feedback.FeedbackType) (tea.Model, tea.Cmd) {
	if len(m.rows) == 0 || m.ingestor == nil {
		return m, nil
	}
	row := m.rows[m.cursor]
	_, err := m.ingestor.Ingest(feedback.AutomationFeedback{
		AutomationID:   row.ID,
		OrganizationID: m.organizationID,
		Type:           t,
		Sentiment:      sentimentFor(t),
		Reviewers:      []string{m.reviewer},
	})
	if err != nil {
		m.statusMsg = "feedback rejected: " + err.Error()
	} else {
		m.labeled[row.ID] = t
		m.statusMsg = string(t) + " recorded for " + shorten(row.ID, 12)
	}
	m.statusTime = time.Now()
	return m, nil
}

func sentimentFor(t feedback.FeedbackType) string {
	if t == feedback.CorrectDetection {
		return "positive"
	}
	return "negative"
}
