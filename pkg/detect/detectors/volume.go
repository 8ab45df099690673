package detectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/stats"
)

// DataVolumeDetector flags exfiltration-scale download volume against a
// per-user rolling baseline.
type DataVolumeDetector struct{}

func (d *DataVolumeDetector) Name() string { return "DataVolumeDetector" }

// extensionSizes approximates file sizes when the platform omits them.
var extensionSizes = map[string]int64{
	".pdf":  200 * 1024,
	".doc":  150 * 1024,
	".docx": 150 * 1024,
	".xls":  120 * 1024,
	".xlsx": 120 * 1024,
	".ppt":  500 * 1024,
	".pptx": 500 * 1024,
	".csv":  80 * 1024,
	".txt":  20 * 1024,
	".zip":  5 * 1024 * 1024,
	".jpg":  2 * 1024 * 1024,
	".png":  1 * 1024 * 1024,
	".mp4":  50 * 1024 * 1024,
}

const defaultFileSize = 100 * 1024

func (d *DataVolumeDetector) Detect(ctx context.Context, b Batch) ([]findings.ActivityPattern, error) {
	th := b.Thresholds.DataVolume

	var out []findings.ActivityPattern
	for _, user := range b.Users {
		var downloads []events.Event
		for _, ev := range b.ByUser[user] {
			if ev.Type == events.FileDownload {
				downloads = append(downloads, ev)
			}
		}
		if len(downloads) == 0 {
			continue
		}

		times := make([]time.Time, len(downloads))
		sizes := make([]float64, len(downloads))
		for i, ev := range downloads {
			times[i] = ev.Timestamp
			sizes[i] = float64(fileSize(ev))
		}

		ref := times[0]
		for _, t := range times[1:] {
			if t.After(ref) {
				ref = t
			}
		}
		today := ref.UTC().Truncate(24 * time.Hour)
		baseline := stats.DailyBaseline(times, sizes, ref)

		var todayBytes float64
		todayCount := 0
		var todayEvents []events.Event
		for i, ev := range downloads {
			if ev.Timestamp.UTC().Truncate(24 * time.Hour).Equal(today) {
				todayBytes += sizes[i]
				todayCount++
				todayEvents = append(todayEvents, ev)
			}
		}
		if todayCount == 0 {
			continue
		}

		baselineHit := baseline.Days >= th.MinBaselineDays &&
			baseline.Mean > 0 &&
			todayBytes > baseline.Mean*th.AbnormalMultiplier
		criticalHit := todayBytes >= float64(th.DailyCriticalBytes)
		warnHit := todayBytes >= float64(th.DailyWarnBytes)
		countHit := todayCount >= th.FileCountThreshold

		if !baselineHit && !criticalHit && !countHit && !warnHit {
			continue
		}

		confidence := 90.0
		if criticalHit {
			// 95 at the critical bound, creeping toward 100 beyond it.
			over := stats.Clamp(todayBytes/float64(th.DailyCriticalBytes)-1, 0, 1)
			confidence = 95 + 5*over
		}
		confidence = stats.Clamp(confidence, 0, 100)

		sorted := sortedByTime(todayEvents)
		out = append(out, findings.ActivityPattern{
			ID:         newPatternID(),
			Type:       findings.PatternFileDownload,
			DetectedAt: b.Reference,
			Confidence: confidence,
			Subject: findings.PatternSubject{
				UserID:       user,
				UserEmail:    sorted[0].UserEmail,
				ResourceType: string(events.ResourceFile),
				ActionType:   string(events.FileDownload),
				Timestamp:    sorted[0].Timestamp,
			},
			Evidence: findings.Evidence{
				Description: fmt.Sprintf("%d downloads totaling %.1f MiB today (baseline %.1f MiB/day over %d days)",
					todayCount, todayBytes/(1024*1024), baseline.Mean/(1024*1024), baseline.Days),
				DataPoints: map[string]any{
					"todayBytes":        todayBytes,
					"todayFileCount":    todayCount,
					"baselineMeanBytes": baseline.Mean,
					"baselineDays":      baseline.Days,
					"multiplier":        th.AbnormalMultiplier,
				},
				SupportingEvents: eventIDs(sorted),
			},
		})
	}
	return out, ctx.Err()
}

// fileSize reads the size from metadata, falling back to the extension
// heuristic. Missing data demotes to a conservative default.
func fileSize(ev events.Event) int64 {
	for _, key := range []string{"fileSize", "size", "bytes", "doc_size"} {
		if raw, ok := ev.Details.Metadata[key]; ok {
			switch v := raw.(type) {
			case float64:
				if v > 0 {
					return int64(v)
				}
			case int:
				if v > 0 {
					return int64(v)
				}
			case int64:
				if v > 0 {
					return v
				}
			}
		}
	}
	name := strings.ToLower(ev.Details.ResourceName)
	for ext, size := range extensionSizes {
		if strings.HasSuffix(name, ext) {
			return size
		}
	}
	return defaultFileSize
}
