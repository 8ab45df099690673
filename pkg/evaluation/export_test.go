package evaluation

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/singura/singura/pkg/feedback"
)

func TestWriteCSV_Golden(t *testing.T) {
	// Exact-binary confidences keep the export byte-stable.
	predictions := []Prediction{
		{AutomationID: "A", Predicted: true, Confidence: 1.0},
		{AutomationID: "B", Predicted: true, Confidence: 1.0},
		{AutomationID: "C", Predicted: false, Confidence: 0.0},
		{AutomationID: "D", Predicted: false, Confidence: 0.0},
	}
	truth := []feedback.GroundTruthLabel{
		{AutomationID: "A", Actual: feedback.VerdictMalicious, Confidence: 1},
		{AutomationID: "B", Actual: feedback.VerdictMalicious, Confidence: 1},
		{AutomationID: "C", Actual: feedback.VerdictLegitimate, Confidence: 1},
		{AutomationID: "D", Actual: feedback.VerdictLegitimate, Confidence: 1},
	}

	curve, err := PRCurve(predictions, truth, []float64{0, 0.5, 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, curve))

	g := goldie.New(t)
	g.Assert(t, "pr_curve", buf.Bytes())
}
