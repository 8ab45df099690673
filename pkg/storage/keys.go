package storage

import (
	"strings"
	"time"
)

// Export keys follow one canonical scheme so the RL training side can locate
// objects without a manifest:
//
//	ground-truth/<org>.ndjson
//	findings/<org>/<date>.json
//	pr-curves/<org>/<date>.csv

// GroundTruthKey returns the canonical key for an organization's label
// export.
func GroundTruthKey(organizationID string) string {
	return "ground-truth/" + sanitizeOrg(organizationID) + ".ndjson"
}

// FindingsKey returns the canonical key for one day's findings export.
func FindingsKey(organizationID string, at time.Time) string {
	return "findings/" + sanitizeOrg(organizationID) + "/" + at.UTC().Format("2006-01-02") + ".json"
}

// PRCurveKey returns the canonical key for an evaluator export.
func PRCurveKey(organizationID string, at time.Time) string {
	return "pr-curves/" + sanitizeOrg(organizationID) + "/" + at.UTC().Format("2006-01-02") + ".csv"
}

// sanitizeOrg keeps tenant identifiers from escaping the export prefix: path
// separators and dot runs collapse to underscores.
func sanitizeOrg(organizationID string) string {
	if organizationID == "" {
		return "default"
	}
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return r.Replace(organizationID)
}
