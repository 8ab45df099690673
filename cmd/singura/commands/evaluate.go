package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/singura/singura/pkg/evaluation"
	"github.com/singura/singura/pkg/feedback"
)

var (
	evalPredictions string
	evalLabels      string
	evalThresholds  []float64
	evalOutCSV      string
	evalOutJSON     string
)

var EvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score predictions against ground-truth labels",
	RunE:  runEvaluate,
}

func init() {
	EvaluateCmd.Flags().StringVar(&evalPredictions, "predictions", "", "JSON array of predictions")
	EvaluateCmd.Flags().StringVar(&evalLabels, "labels", "", "NDJSON ground-truth labels")
	EvaluateCmd.Flags().Float64SliceVar(&evalThresholds, "thresholds", nil, "Explicit thresholds (default: adaptive)")
	EvaluateCmd.Flags().StringVar(&evalOutCSV, "out-csv", "", "Write the PR curve as CSV")
	EvaluateCmd.Flags().StringVar(&evalOutJSON, "out-json", "", "Write the PR curve as JSON")
	EvaluateCmd.MarkFlagRequired("predictions")
	EvaluateCmd.MarkFlagRequired("labels")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	predData, err := os.ReadFile(evalPredictions)
	if err != nil {
		return fmt.Errorf("failed to read predictions: %w", err)
	}
	var predictions []evaluation.Prediction
	if err := json.Unmarshal(predData, &predictions); err != nil {
		return fmt.Errorf("malformed predictions: %w", err)
	}

	labels, err := readLabels(evalLabels)
	if err != nil {
		return err
	}

	curve, err := evaluation.PRCurve(predictions, labels, evalThresholds)
	if err != nil {
		return err
	}

	if evalOutCSV != "" {
		if err := evaluation.GenerateCSV(curve, evalOutCSV); err != nil {
			return err
		}
	}
	if evalOutJSON != "" {
		if err := evaluation.GenerateJSON(curve, evalOutJSON); err != nil {
			return err
		}
	}
	if evalOutCSV == "" && evalOutJSON == "" {
		return evaluation.WriteCSV(os.Stdout, curve)
	}
	fmt.Printf("AUC %.4f, optimal threshold %.2f (F1 %.4f)\n",
		curve.AUC, curve.OptimalThreshold, curve.OptimalF1)
	return nil
}

func readLabels(path string) ([]feedback.GroundTruthLabel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	defer f.Close()

	var labels []feedback.GroundTruthLabel
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var l feedback.GroundTruthLabel
		if err := json.Unmarshal(line, &l); err != nil {
			return nil, fmt.Errorf("malformed label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, scanner.Err()
}
