// Package evaluation computes detection quality metrics from paired
// predictions and ground-truth labels.
package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/singura/singura/pkg/feedback"
	"github.com/singura/singura/pkg/stats"
)

// ErrInvalidInput marks empty inputs or out-of-[0,1] values.
var ErrInvalidInput = errors.New("invalid evaluator input")

// Prediction is one scored finding.
type Prediction struct {
	AutomationID string  `json:"automationId"`
	Predicted    bool    `json:"predicted"`
	Confidence   float64 `json:"confidence"`
}

// ConfusionMatrix holds the four cell counts at one threshold.
type ConfusionMatrix struct {
	TruePositives  int `json:"truePositives"`
	FalsePositives int `json:"falsePositives"`
	TrueNegatives  int `json:"trueNegatives"`
	FalseNegatives int `json:"falseNegatives"`
}

// Metrics are the derived rates at one threshold.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// PRPoint is one sample of the precision-recall curve.
type PRPoint struct {
	Threshold float64 `json:"threshold"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// PRCurveData is the full evaluator output.
type PRCurveData struct {
	Points           []PRPoint `json:"points"`
	AUC              float64   `json:"auc"`
	OptimalThreshold float64   `json:"optimalThreshold"`
	OptimalF1        float64   `json:"optimalF1"`
}

// pair is an aligned (prediction, truth) couple.
type pair struct {
	confidence float64
	actual     bool
}

// align joins predictions to ground truth by automation id. Predictions
// without a label are ignored; they never contribute to confusion counts.
func align(predictions []Prediction, truth []feedback.GroundTruthLabel) ([]pair, error) {
	if len(predictions) == 0 || len(truth) == 0 {
		return nil, fmt.Errorf("%w: empty predictions or ground truth", ErrInvalidInput)
	}
	byID := make(map[string]feedback.GroundTruthLabel, len(truth))
	for _, l := range truth {
		byID[l.AutomationID] = l
	}

	var pairs []pair
	for _, p := range predictions {
		if p.Confidence < 0 || p.Confidence > 1 || math.IsNaN(p.Confidence) {
			return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidInput, p.Confidence)
		}
		label, ok := byID[p.AutomationID]
		if !ok {
			continue
		}
		pairs = append(pairs, pair{
			confidence: p.Confidence,
			actual:     label.Actual == feedback.VerdictMalicious,
		})
	}
	return pairs, nil
}

// Confusion computes the matrix at one classification threshold: a pair is
// predicted positive when its confidence is at least the threshold.
func Confusion(predictions []Prediction, truth []feedback.GroundTruthLabel, threshold float64) (ConfusionMatrix, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return ConfusionMatrix{}, fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidInput, threshold)
	}
	pairs, err := align(predictions, truth)
	if err != nil {
		return ConfusionMatrix{}, err
	}
	var cm ConfusionMatrix
	for _, p := range pairs {
		positive := p.confidence >= threshold
		switch {
		case positive && p.actual:
			cm.TruePositives++
		case positive && !p.actual:
			cm.FalsePositives++
		case !positive && p.actual:
			cm.FalseNegatives++
		default:
			cm.TrueNegatives++
		}
	}
	return cm, nil
}

// Derive turns a confusion matrix into precision/recall/F1. With no predicted
// positives precision degrades to 1 so high-threshold PR points stay sane.
func Derive(cm ConfusionMatrix) Metrics {
	m := Metrics{Precision: 1}
	if cm.TruePositives+cm.FalsePositives > 0 {
		m.Precision = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalsePositives)
	}
	if cm.TruePositives+cm.FalseNegatives > 0 {
		m.Recall = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// PRCurve samples the curve at the supplied thresholds, or, when none are
// given, at every distinct confidence plus the {0,1} endpoints. The optimal
// threshold maximizes F1; ties break to higher precision, then higher recall.
func PRCurve(predictions []Prediction, truth []feedback.GroundTruthLabel, thresholds []float64) (PRCurveData, error) {
	pairs, err := align(predictions, truth)
	if err != nil {
		return PRCurveData{}, err
	}

	if len(thresholds) == 0 {
		thresholds = adaptiveThresholds(pairs)
	} else {
		for _, t := range thresholds {
			if t < 0 || t > 1 || math.IsNaN(t) {
				return PRCurveData{}, fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidInput, t)
			}
		}
		thresholds = append([]float64(nil), thresholds...)
	}
	sort.Float64s(thresholds)

	data := PRCurveData{Points: make([]PRPoint, 0, len(thresholds))}
	for _, t := range thresholds {
		var cm ConfusionMatrix
		for _, p := range pairs {
			positive := p.confidence >= t
			switch {
			case positive && p.actual:
				cm.TruePositives++
			case positive && !p.actual:
				cm.FalsePositives++
			case !positive && p.actual:
				cm.FalseNegatives++
			default:
				cm.TrueNegatives++
			}
		}
		m := Derive(cm)
		data.Points = append(data.Points, PRPoint{
			Threshold: t,
			Precision: m.Precision,
			Recall:    m.Recall,
			F1:        m.F1,
		})
	}

	auc := make([]stats.Point, len(data.Points))
	for i, p := range data.Points {
		auc[i] = stats.Point{X: p.Recall, Y: p.Precision}
	}
	data.AUC = stats.Clamp(stats.TrapezoidAUC(auc), 0, 1)

	best := data.Points[0]
	for _, p := range data.Points[1:] {
		if p.F1 > best.F1 ||
			(p.F1 == best.F1 && p.Precision > best.Precision) ||
			(p.F1 == best.F1 && p.Precision == best.Precision && p.Recall > best.Recall) {
			best = p
		}
	}
	data.OptimalThreshold = best.Threshold
	data.OptimalF1 = best.F1
	return data, nil
}

// adaptiveThresholds samples the confidence distribution plus the endpoints.
func adaptiveThresholds(pairs []pair) []float64 {
	set := map[float64]bool{0: true, 1: true}
	for _, p := range pairs {
		set[p.confidence] = true
	}
	out := make([]float64, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}
