package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var body string
	switch m.state {
	case ViewStateDetail:
		body = m.viewDetail()
	case ViewStateHelp:
		body = m.viewHelp()
	default:
		body = m.viewList()
	}
	return m.viewHeader() + body + m.viewFooter()
}

func (m Model) viewHeader() string {
	risk := fmt.Sprintf("%.0f/100", m.overallRisk)
	if m.overallRisk >= 75 {
		risk = criticalStyle.Render(risk)
	} else if m.overallRisk >= 40 {
		risk = warnStyle.Render(risk)
	}
	return titleStyle.Render("SINGURA REVIEW") +
		subtle.Render(fmt.Sprintf("  org=%s  findings=%d  risk=", m.organizationID, len(m.rows))) +
		risk + "  " + m.riskMeter.ViewAs(m.overallRisk/100) + "\n\n"
}

func (m Model) viewList() string {
	s := strings.Builder{}

	if len(m.rows) == 0 {
		return subtle.Render("   No findings. System clean.\n")
	}

	header := fmt.Sprintf("  %-10s | %-18s | %-14s | %-6s | %s", "KIND", "TYPE", "USER", "CONF", "DETAIL")
	s.WriteString(dimStyle.Render(header) + "\n")
	s.WriteString(dimStyle.Render("  "+strings.Repeat("─", 70)) + "\n")

	start, end := m.calculateWindow(len(m.rows))
	for i := start; i < end; i++ {
		row := m.rows[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		mark := " "
		if _, ok := m.labeled[row.ID]; ok {
			mark = "✓"
		}

		line := fmt.Sprintf("%s %-10s | %-18s | %-14s | %5.1f | %s",
			mark, row.Kind, shorten(row.Type, 18), shorten(row.UserID, 14),
			row.Confidence, shorten(row.Detail, 40))

		switch {
		case row.Severity == "critical":
			line = criticalStyle.Render(line)
		case row.Severity == "high":
			line = warnStyle.Render(line)
		}

		if i == m.cursor {
			s.WriteString(listSelectedStyle.Render(cursor+line) + "\n")
		} else {
			s.WriteString(listNormalStyle.Render(cursor+line) + "\n")
		}
	}
	return s.String()
}

func (m Model) viewDetail() string {
	row := m.rows[m.cursor]
	s := strings.Builder{}
	s.WriteString(titleStyle.Render(row.Type) + "\n\n")
	s.WriteString(fmt.Sprintf("  ID:         %s\n", row.ID))
	s.WriteString(fmt.Sprintf("  Kind:       %s\n", row.Kind))
	s.WriteString(fmt.Sprintf("  User:       %s\n", row.UserID))
	s.WriteString(fmt.Sprintf("  Confidence: %.1f\n", row.Confidence))
	s.WriteString(fmt.Sprintf("  Severity:   %s\n", row.Severity))
	s.WriteString(fmt.Sprintf("  Detail:     %s\n", row.Detail))

	if len(row.Evidence) > 0 {
		s.WriteString("\n  Evidence:\n")
		keys := make([]string, 0, len(row.Evidence))
		for k := range row.Evidence {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.WriteString(subtle.Render(fmt.Sprintf("    %s: %v\n", k, row.Evidence[k])))
		}
	}
	return s.String()
}

func (m Model) viewHelp() string {
	return `
  ↑/↓    navigate findings
  enter  open detail view
  c      label: correct detection
  f      label: false positive
  r      label: incorrect risk
  ?      toggle this help
  q      quit
`
}

func (m Model) viewFooter() string {
	status := ""
	if m.statusMsg != "" && time.Since(m.statusTime) < 5*time.Second {
		status = statusStyle.Render("  " + m.statusMsg)
	}
	return "\n" + dimStyle.Render(fmt.Sprintf("  %d labeled · c=correct f=false-positive ?=help q=quit", len(m.labeled))) + status + "\n"
}

func (m Model) calculateWindow(total int) (int, int) {
	windowSize := m.height - 8
	if windowSize < 5 {
		windowSize = 5
	}
	start := m.cursor - windowSize/2
	if start < 0 {
		start = 0
	}
	end := start + windowSize
	if end > total {
		end = total
		start = end - windowSize
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func shorten(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
