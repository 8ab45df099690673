package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteCSV renders the curve in the stable export schema: a fixed header,
// one row per point, then the summary comment lines.
func WriteCSV(w io.Writer, data PRCurveData) error {
	if _, err := fmt.Fprintln(w, "threshold,precision,recall,f1"); err != nil {
		return err
	}
	for _, p := range data.Points {
		row := fmt.Sprintf("%s,%s,%s,%s\n",
			formatFloat(p.Threshold),
			formatFloat(p.Precision),
			formatFloat(p.Recall),
			formatFloat(p.F1),
		)
		if _, err := io.WriteString(w, row); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "# AUC: %s\n# Optimal Threshold: %s\n# Optimal F1: %s\n",
		formatFloat(data.AUC),
		formatFloat(data.OptimalThreshold),
		formatFloat(data.OptimalF1),
	)
	return err
}

// GenerateCSV writes the curve to a file.
func GenerateCSV(data PRCurveData, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteCSV(f, data)
}

// GenerateJSON writes the curve as indented JSON. Round-tripping the output
// through ParseJSON yields an equal value.
func GenerateJSON(data PRCurveData, path string) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// ParseJSON reads a curve export back.
func ParseJSON(data []byte) (PRCurveData, error) {
	var out PRCurveData
	if err := json.Unmarshal(data, &out); err != nil {
		return PRCurveData{}, fmt.Errorf("failed to parse curve export: %w", err)
	}
	return out, nil
}

// formatFloat uses the shortest representation that survives a round-trip,
// keeping exports deterministic across runs.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
