package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/feedback"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/storage"
	"github.com/singura/singura/pkg/tui"
)

var (
	reviewResultFile string
	reviewReviewer   string
	reviewOutDir     string
	reviewPreview    bool
)

var ReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Label a detection result interactively",
	RunE:  runReview,
}

func init() {
	ReviewCmd.Flags().StringVar(&reviewResultFile, "result", "", "Detection result JSON (from `singura detect --out-json`)")
	ReviewCmd.Flags().StringVar(&reviewReviewer, "reviewer", "", "Reviewer identity recorded on each label")
	ReviewCmd.Flags().StringVar(&reviewOutDir, "out-dir", "singura-out", "Directory for the label export")
	ReviewCmd.Flags().BoolVar(&reviewPreview, "preview", false, "Review a synthetic demo pass instead of a saved result")
	ReviewCmd.MarkFlagRequired("reviewer")
}

func runReview(cmd *cobra.Command, args []string) error {
	org := flagOrg
	var result findings.DetectionResult
	switch {
	case reviewPreview:
		if org == "" {
			org = "demo-org"
		}
		demo, err := previewResult(cmd, org)
		if err != nil {
			return err
		}
		result = demo
	case reviewResultFile != "":
		data, err := os.ReadFile(reviewResultFile)
		if err != nil {
			return fmt.Errorf("failed to read result: %w", err)
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("malformed detection result: %w", err)
		}
	default:
		return fmt.Errorf("either --result or --preview is required")
	}

	ingestor := feedback.NewIngestor()
	model := tui.NewModel(org, reviewReviewer, result, ingestor)

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("review session failed: %w", err)
	}

	m, ok := final.(tui.Model)
	if !ok || m.Labeled() == 0 {
		fmt.Println("No labels recorded.")
		return nil
	}

	store := storage.NewLocalStore(reviewOutDir)
	key := storage.GroundTruthKey(org)
	count, err := feedback.ExportNDJSON(cmd.Context(), ingestor, store, key)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d labels to %s/%s\n", count, reviewOutDir, key)
	return nil
}

// previewResult runs a real detection pass over a synthetic batch so the
// review screen can be exercised without tenant data.
func previewResult(cmd *cobra.Command, org string) (findings.DetectionResult, error) {
	logger := newLogger()

	base := time.Now().UTC().Truncate(24 * time.Hour).Add(11 * time.Hour)
	factory := events.NewMockFactory(org, base)
	factory.AddMetronomicBot("svc-sync", events.FileCreate, 12, 1100*time.Millisecond)
	factory.AddNightOwl("night-automation", 10)
	factory.AddAIIntegration("dev-lead", "https://api.openai.com/v1/chat/completions", "OpenAI-Python/1.12")
	factory.AddDailyDownloads("exfil-risk", 7, 5*1024*1024)
	factory.AddDownloadSpree("exfil-risk", 50, 5*1024*1024)
	factory.AddBusinessHoursNoise("regular-user", 10)

	engine, err := buildEngine(logger)
	if err != nil {
		return findings.DetectionResult{}, err
	}
	result, _, err := engine.DetectShadowAI(cmd.Context(), factory.Events, businessHours(), org)
	return result, err
}
