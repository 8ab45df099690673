// Package report renders detection results for downstream consumers.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/singura/singura/pkg/findings"
)

// ExportItem matches the JSON structure. The CSV carries the same columns
// except the GDPR, SOX and HIPAA flags.
type ExportItem struct {
	FindingID   string  `json:"finding_id"`
	Kind        string  `json:"kind"` // pattern or indicator
	Type        string  `json:"type"`
	UserID      string  `json:"user_id,omitempty"`
	Confidence  float64 `json:"confidence"`
	Severity    string  `json:"severity,omitempty"`
	Detail      string  `json:"detail"`
	DetectedAt  string  `json:"detected_at,omitempty"`
	Mitigation  string  `json:"mitigation,omitempty"`
	GDPR        bool    `json:"gdpr"`
	SOX         bool    `json:"sox"`
	HIPAA       bool    `json:"hipaa"`
}

// GenerateCSV writes findings to a CSV file.
func GenerateCSV(result findings.DetectionResult, path string) error {
	items := extractItems(result)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"FindingID",
		"Kind",
		"Type",
		"UserID",
		"Confidence",
		"Severity",
		"Detail",
		"DetectedAt",
		"Mitigation",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, item := range items {
		record := []string{
			item.FindingID,
			item.Kind,
			item.Type,
			item.UserID,
			fmt.Sprintf("%.1f", item.Confidence),
			item.Severity,
			item.Detail,
			item.DetectedAt,
			item.Mitigation,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// GenerateJSON writes findings to a JSON file.
func GenerateJSON(result findings.DetectionResult, path string) error {
	items := extractItems(result)
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// extractItems flattens a result, sorted by confidence descending.
func extractItems(result findings.DetectionResult) []ExportItem {
	var items []ExportItem
	for _, p := range result.ActivityPatterns {
		items = append(items, ExportItem{
			FindingID:  p.ID,
			Kind:       "pattern",
			Type:       string(p.Type),
			UserID:     p.Subject.UserID,
			Confidence: p.Confidence,
			Detail:     p.Evidence.Description,
			DetectedAt: p.DetectedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, ind := range result.RiskIndicators {
		items = append(items, ExportItem{
			FindingID:  ind.ID,
			Kind:       "indicator",
			Type:       ind.RiskType,
			Confidence: ind.Severity.Severity(),
			Severity:   string(ind.Severity),
			Detail:     ind.Detail,
			Mitigation: ind.Mitigation,
			GDPR:       ind.Compliance.GDPR,
			SOX:        ind.Compliance.SOX,
			HIPAA:      ind.Compliance.HIPAA,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Confidence != items[j].Confidence {
			return items[i].Confidence > items[j].Confidence
		}
		return items[i].FindingID < items[j].FindingID
	})
	return items
}

// Summary condenses one pass for notification payloads.
type Summary struct {
	OrganizationID string
	EventsScanned  int
	PatternCount   int
	IndicatorCount int
	OverallRisk    float64
	TopDetail      string
}

// Summarize builds a Summary from a result.
func Summarize(orgID string, eventsScanned int, result findings.DetectionResult) Summary {
	s := Summary{
		OrganizationID: orgID,
		EventsScanned:  eventsScanned,
		PatternCount:   len(result.ActivityPatterns),
		IndicatorCount: len(result.RiskIndicators),
		OverallRisk:    result.OverallRisk,
	}
	if items := extractItems(result); len(items) > 0 {
		s.TopDetail = items[0].Detail
	}
	return s
}
