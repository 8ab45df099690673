package detectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/stats"
)

// BatchOperationDetector flags clusters of near-simultaneous events whose
// resource names follow a generated pattern (report_001, report_002, ...).
type BatchOperationDetector struct{}

func (d *BatchOperationDetector) Name() string { return "BatchOperationDetector" }

func (d *BatchOperationDetector) Detect(ctx context.Context, b Batch) ([]findings.ActivityPattern, error) {
	th := b.Thresholds.Batch

	var out []findings.ActivityPattern
	for _, user := range b.Users {
		sorted := sortedByTime(b.ByUser[user])

		var cluster []events.Event
		flush := func() {
			if p := d.analyze(b, user, cluster); p != nil {
				out = append(out, *p)
			}
			cluster = nil
		}
		for _, ev := range sorted {
			if len(cluster) > 0 && ev.Timestamp.Sub(cluster[len(cluster)-1].Timestamp) > th.ClusterGap {
				flush()
			}
			cluster = append(cluster, ev)
		}
		flush()
	}
	return out, ctx.Err()
}

func (d *BatchOperationDetector) analyze(b Batch, user string, cluster []events.Event) *findings.ActivityPattern {
	th := b.Thresholds.Batch
	if len(cluster) < th.MinClusterSize {
		return nil
	}

	// The whole cluster must share one event type.
	t := cluster[0].Type
	for _, ev := range cluster[1:] {
		if ev.Type != t {
			return nil
		}
	}
	if t == events.UnknownType {
		return nil
	}

	names := make([]string, 0, len(cluster))
	for _, ev := range cluster {
		if ev.Details.ResourceName != "" {
			names = append(names, ev.Details.ResourceName)
		}
	}
	if len(names) < th.MinClusterSize {
		return nil
	}
	similarity := namingSimilarity(names)
	if similarity < th.MinSimilarity {
		return nil
	}

	size := len(cluster)
	sizeFactor := 0.6 + 0.4*stats.Clamp(float64(size)/10, 0, 1)
	confidence := stats.Clamp(similarity*100*sizeFactor, 0, 100)

	return &findings.ActivityPattern{
		ID:         newPatternID(),
		Type:       findings.PatternBatchOperation,
		DetectedAt: b.Reference,
		Confidence: confidence,
		Subject: findings.PatternSubject{
			UserID:       user,
			UserEmail:    cluster[0].UserEmail,
			ResourceType: string(cluster[0].ResourceType),
			ActionType:   string(t),
			Timestamp:    cluster[0].Timestamp,
		},
		Evidence: findings.Evidence{
			Description: fmt.Sprintf("%d %s events within %s with %.0f%% naming-pattern similarity",
				size, t, th.ClusterGap, similarity*100),
			DataPoints: map[string]any{
				"clusterSize":      size,
				"namingSimilarity": similarity,
				"sampleName":       names[0],
			},
			SupportingEvents: eventIDs(cluster),
		},
	}
}

// namingSimilarity scores how template-like a name set looks: identical stems
// with numeric suffixes score 1, otherwise the shared prefix fraction.
func namingSimilarity(names []string) float64 {
	if len(names) < 2 {
		return 0
	}

	stem := stripNumericSuffix(names[0])
	allStemmed := stem != ""
	if allStemmed {
		for _, n := range names[1:] {
			if stripNumericSuffix(n) != stem {
				allStemmed = false
				break
			}
		}
	}
	if allStemmed {
		return 1
	}

	prefix := names[0]
	totalLen := 0
	for _, n := range names {
		prefix = commonPrefix(prefix, n)
		totalLen += len(n)
	}
	meanLen := float64(totalLen) / float64(len(names))
	if meanLen == 0 {
		return 0
	}
	return stats.Clamp(float64(len(prefix))/meanLen, 0, 1)
}

// stripNumericSuffix drops the file extension and a trailing digit run
// ("report_001.pdf" -> "report"). Returns "" when no digit run exists.
func stripNumericSuffix(name string) string {
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		name = name[:dot]
	}
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return ""
	}
	return strings.TrimRight(name[:i], "_- ")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
