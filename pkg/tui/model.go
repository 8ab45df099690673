// Package tui is the analyst review screen: browse a pass's findings and
// label them, feeding the feedback pipeline.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/singura/singura/pkg/feedback"
	"github.com/singura/singura/pkg/findings"
)

type ViewState int

const (
	ViewStateList ViewState = iota
	ViewStateDetail
	ViewStateHelp
)

// Row is one selectable finding.
type Row struct {
	ID         string
	Kind       string // pattern or indicator
	Type       string
	UserID     string
	Confidence float64
	Severity   findings.RiskLevel
	Detail     string
	Evidence   map[string]any
}

type Model struct {
	// data
	rows           []Row
	organizationID string
	overallRisk    float64
	riskMeter      progress.Model

	// collaborators
	ingestor *feedback.Ingestor
	reviewer string

	// state
	state    ViewState
	quitting bool
	width    int
	height   int

	// navigation
	cursor        int
	detailsScroll int

	// feedback
	labeled    map[string]feedback.FeedbackType
	statusMsg  string
	statusTime time.Time
}

// NewModel builds the review screen over one detection result.
func NewModel(orgID, reviewer string, result findings.DetectionResult, ingestor *feedback.Ingestor) Model {
	var rows []Row
	for _, p := range result.ActivityPatterns {
		rows = append(rows, Row{
			ID:         p.ID,
			Kind:       "pattern",
			Type:       string(p.Type),
			UserID:     p.Subject.UserID,
			Confidence: p.Confidence,
			Severity:   findings.RiskLevelFor(p.Confidence),
			Detail:     p.Evidence.Description,
			Evidence:   p.Evidence.DataPoints,
		})
	}
	for _, ind := range result.RiskIndicators {
		rows = append(rows, Row{
			ID:         ind.ID,
			Kind:       "indicator",
			Type:       ind.RiskType,
			Confidence: ind.Severity.Severity(),
			Severity:   ind.Severity,
			Detail:     ind.Detail,
		})
	}
	// Risk meter runs green to red across the severity range.
	meter := progress.New(progress.WithGradient("#00FF99", "#FF0055"), progress.WithoutPercentage())

	return Model{
		rows:           rows,
		organizationID: orgID,
		overallRisk:    result.OverallRisk,
		riskMeter:      meter,
		ingestor:       ingestor,
		reviewer:       reviewer,
		state:          ViewStateList,
		labeled:        make(map[string]feedback.FeedbackType),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Labeled reports how many findings received feedback this session.
func (m Model) Labeled() int {
	return len(m.labeled)
}
