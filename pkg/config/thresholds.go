// Package config defines default detection thresholds and engine settings.
package config

import (
	"math"
	"time"
)

// VelocityThresholds are per-event-type rate bounds in events per second.
// Calibration constants; RL proposals may override them per organization.
type VelocityThresholds struct {
	Window                     time.Duration `mapstructure:"window"`
	MinEvents                  int           `mapstructure:"min_events"`
	FilesPerSecond             float64 `mapstructure:"files_per_second"`
	PermissionChangesPerSecond float64 `mapstructure:"permission_changes_per_second"`
	EmailsPerSecond            float64 `mapstructure:"emails_per_second"`
	DownloadsPerSecond         float64 `mapstructure:"downloads_per_second"`
	ScriptsPerSecond           float64 `mapstructure:"scripts_per_second"`
	DefaultPerSecond           float64 `mapstructure:"default_per_second"`
}

// TimingThresholds gate the regular-interval detector.
type TimingThresholds struct {
	MinEvents     int           `mapstructure:"min_events"`
	MaxInterval   time.Duration `mapstructure:"max_interval"`
	SuspiciousCV  float64       `mapstructure:"suspicious_cv"`
	CriticalCV    float64       `mapstructure:"critical_cv"`
}

// OffHoursThresholds gate the off-hours detector.
type OffHoursThresholds struct {
	SuspiciousPercent float64 `mapstructure:"suspicious_percent"`
	CriticalPercent   float64 `mapstructure:"critical_percent"`
	MinEvents         int     `mapstructure:"min_events"`
}

// BatchThresholds gate the batch-operation detector.
type BatchThresholds struct {
	ClusterGap       time.Duration `mapstructure:"cluster_gap"`
	MinClusterSize   int           `mapstructure:"min_cluster_size"`
	MinSimilarity    float64       `mapstructure:"min_similarity"`
}

// EscalationThresholds gate the permission-escalation detector.
type EscalationThresholds struct {
	MaxEscalationsPerMonth int     `mapstructure:"max_escalations_per_month"`
	MaxLevelJump           int     `mapstructure:"max_level_jump"`
	SuspiciousVelocity     float64 `mapstructure:"suspicious_velocity"`
	MinEvents              int     `mapstructure:"min_events"`
}

// DataVolumeThresholds gate the data-volume detector. Byte bounds are daily.
type DataVolumeThresholds struct {
	DailyWarnBytes     int64   `mapstructure:"daily_warn_bytes"`
	DailyCriticalBytes int64   `mapstructure:"daily_critical_bytes"`
	AbnormalMultiplier float64 `mapstructure:"abnormal_multiplier"`
	MinBaselineDays    int     `mapstructure:"min_baseline_days"`
	FileCountThreshold int     `mapstructure:"file_count_threshold"`
}

// ThresholdSource records where a threshold set came from.
type ThresholdSource string

const (
	SourceDefault     ThresholdSource = "default"
	SourceRLOptimized ThresholdSource = "rl_optimized"
)

// ThresholdSet is the full per-organization parameter set. Detectors share it
// by reference for the duration of a pass; it is replaced whole, never
// partially updated.
type ThresholdSet struct {
	Velocity   VelocityThresholds   `mapstructure:"velocity"`
	Timing     TimingThresholds     `mapstructure:"timing"`
	OffHours   OffHoursThresholds   `mapstructure:"off_hours"`
	Batch      BatchThresholds      `mapstructure:"batch"`
	Escalation EscalationThresholds `mapstructure:"escalation"`
	DataVolume DataVolumeThresholds `mapstructure:"data_volume"`

	Version   int             `mapstructure:"version"`
	UpdatedAt time.Time       `mapstructure:"updated_at"`
	Source    ThresholdSource `mapstructure:"source"`
}

// DefaultThresholds returns the shipped calibration constants.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		Velocity: VelocityThresholds{
			Window:                     5 * time.Second,
			MinEvents:                  5,
			FilesPerSecond:             10,
			PermissionChangesPerSecond: 2,
			EmailsPerSecond:            5,
			DownloadsPerSecond:         8,
			ScriptsPerSecond:           3,
			DefaultPerSecond:           10,
		},
		Timing: TimingThresholds{
			MinEvents:    5,
			MaxInterval:  10 * time.Second,
			SuspiciousCV: 0.15,
			CriticalCV:   0.05,
		},
		OffHours: OffHoursThresholds{
			SuspiciousPercent: 30,
			CriticalPercent:   60,
			MinEvents:         10,
		},
		Batch: BatchThresholds{
			ClusterGap:     10 * time.Second,
			MinClusterSize: 3,
			MinSimilarity:  0.70,
		},
		Escalation: EscalationThresholds{
			MaxEscalationsPerMonth: 2,
			MaxLevelJump:           2,
			SuspiciousVelocity:     0.1,
			MinEvents:              3,
		},
		DataVolume: DataVolumeThresholds{
			DailyWarnBytes:     100 * 1024 * 1024,
			DailyCriticalBytes: 500 * 1024 * 1024,
			AbnormalMultiplier: 3.0,
			MinBaselineDays:    7,
			FileCountThreshold: 100,
		},
		Version: 1,
		Source:  SourceDefault,
	}
}

// Valid reports whether every bound is finite and strictly positive. Invalid
// sets make the engine fall back to defaults rather than fail the pass.
func (t ThresholdSet) Valid() bool {
	positive := []float64{
		t.Velocity.FilesPerSecond,
		t.Velocity.PermissionChangesPerSecond,
		t.Velocity.EmailsPerSecond,
		t.Velocity.DownloadsPerSecond,
		t.Velocity.ScriptsPerSecond,
		t.Velocity.DefaultPerSecond,
		t.Timing.SuspiciousCV,
		t.Timing.CriticalCV,
		t.OffHours.SuspiciousPercent,
		t.OffHours.CriticalPercent,
		t.Batch.MinSimilarity,
		t.Escalation.SuspiciousVelocity,
		t.DataVolume.AbnormalMultiplier,
		float64(t.DataVolume.DailyWarnBytes),
		float64(t.DataVolume.DailyCriticalBytes),
	}
	for _, v := range positive {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	if t.Timing.MinEvents <= 0 || t.OffHours.MinEvents <= 0 || t.Escalation.MinEvents <= 0 {
		return false
	}
	if t.Batch.MinClusterSize <= 0 || t.Escalation.MaxEscalationsPerMonth <= 0 || t.Escalation.MaxLevelJump <= 0 {
		return false
	}
	if t.DataVolume.MinBaselineDays <= 0 || t.DataVolume.FileCountThreshold <= 0 {
		return false
	}
	if t.Velocity.MinEvents <= 0 || t.Velocity.Window <= 0 {
		return false
	}
	if t.Timing.MaxInterval <= 0 || t.Batch.ClusterGap <= 0 {
		return false
	}
	return t.Timing.CriticalCV < t.Timing.SuspiciousCV &&
		t.OffHours.SuspiciousPercent < t.OffHours.CriticalPercent
}
