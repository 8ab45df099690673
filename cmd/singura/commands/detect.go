package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/singura/singura/pkg/detect"
	"github.com/singura/singura/pkg/detect/rules"
	"github.com/singura/singura/pkg/detect/thresholds"
	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/notifier"
	"github.com/singura/singura/pkg/report"
	"github.com/singura/singura/pkg/telemetry"
	"github.com/singura/singura/pkg/version"
)

var (
	detectEventsFile string
	detectPlatform   string
	detectOutJSON    string
	detectOutCSV     string
	detectTimeout    time.Duration
)

var DetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run a detection pass over an audit-event export",
	RunE:  runDetect,
}

func init() {
	DetectCmd.Flags().StringVar(&detectEventsFile, "events", "", "NDJSON file of platform audit records (- for stdin)")
	DetectCmd.Flags().StringVar(&detectPlatform, "platform", string(events.PlatformGoogle), "Source platform of the export")
	DetectCmd.Flags().StringVar(&detectOutJSON, "out-json", "", "Write the detection result as JSON")
	DetectCmd.Flags().StringVar(&detectOutCSV, "out-csv", "", "Write flattened findings as CSV")
	DetectCmd.Flags().DurationVar(&detectTimeout, "timeout", 2*time.Minute, "Pass deadline")
	DetectCmd.MarkFlagRequired("events")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if flagJSONLogs {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

func businessHours() events.ActivityTimeframe {
	days := make([]time.Weekday, 0, len(flagWorkDays))
	for _, d := range flagWorkDays {
		days = append(days, time.Weekday(d%7))
	}
	return events.ActivityTimeframe{
		StartHour:  flagStartHour,
		EndHour:    flagEndHour,
		DaysOfWeek: days,
		Timezone:   flagTimezone,
	}
}

func buildEngine(logger *slog.Logger) (*detect.Engine, error) {
	store := thresholds.NewStore(nil, thresholds.WithLogger(logger))
	opts := []detect.Option{detect.WithLogger(logger)}
	if flagRulesFile != "" {
		ruleEngine, err := rules.NewEngine(logger)
		if err != nil {
			return nil, err
		}
		if err := ruleEngine.LoadFile(flagRulesFile); err != nil {
			return nil, err
		}
		opts = append(opts, detect.WithRules(ruleEngine))
	}
	return detect.New(store, opts...), nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(cmd.Context(), detectTimeout)
	defer cancel()

	shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, flagOtelEndpoint)
	if err != nil {
		logger.Warn("Telemetry failed", "error", err)
	} else {
		defer shutdown(context.Background())
	}

	records, err := readRecords(detectEventsFile)
	if err != nil {
		return err
	}
	batch := events.Normalize(events.Platform(detectPlatform), flagOrg, records)
	logger.Info("normalized audit export",
		"events", len(batch.Events),
		"dropped", batch.Dropped,
		"coerced", batch.Coerced,
		"ai_activities", len(batch.AIActivities),
	)

	engine, err := buildEngine(logger)
	if err != nil {
		return err
	}
	result, stats, err := engine.DetectShadowAI(ctx, batch.Events, businessHours(), flagOrg)
	if err != nil {
		return err
	}
	logger.Info("detection pass complete",
		"patterns", len(result.ActivityPatterns),
		"indicators", len(result.RiskIndicators),
		"overall_risk", result.OverallRisk,
		"duration", stats.Duration,
	)

	if detectOutJSON != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(detectOutJSON, data, 0644); err != nil {
			return err
		}
	}
	if detectOutCSV != "" {
		if err := report.GenerateCSV(result, detectOutCSV); err != nil {
			return err
		}
	}
	if detectOutJSON == "" && detectOutCSV == "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}

	if flagSlackWebhook != "" {
		slack := notifier.NewSlackClient(flagSlackWebhook, "")
		summary := report.Summarize(flagOrg, stats.EventsProcessed, result)
		if err := slack.SendDetectionReport(summary); err != nil {
			logger.Warn("Slack notification failed", "error", err)
		}
	}
	return nil
}

// readRecords parses newline-delimited JSON objects.
func readRecords(path string) ([]map[string]any, error) {
	var f *os.File
	if path == "-" {
		f = os.Stdin
	} else {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open events file: %w", err)
		}
		defer f.Close()
	}

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("malformed record: %w", err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
