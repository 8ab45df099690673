// Package detect is the shadow-AI detection engine: it fans a normalized
// event batch out to the pattern detectors and the provider matcher, then
// fuses their findings into one risk-scored result.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/singura/singura/pkg/detect/detectors"
	"github.com/singura/singura/pkg/detect/providers"
	"github.com/singura/singura/pkg/detect/rules"
	"github.com/singura/singura/pkg/detect/thresholds"
	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/telemetry"
)

// PassStats are the observability counters of one engine invocation. Single
// writer: the engine goroutine aggregating results.
type PassStats struct {
	EventsProcessed  int
	DetectorHits     map[string]int
	DetectorsSkipped int
	DetectorErrors   int
	SignatureCount   int
	Duration         time.Duration
}

// Engine orchestrates one detection pass per batch. Immutable after New;
// safe for concurrent passes.
type Engine struct {
	store     *thresholds.Store
	detectors []detectors.Detector
	providers *providers.Detector
	rules     *rules.Engine
	logger    *slog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger injects a logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRules attaches an operator rule set evaluated alongside the built-in
// detectors.
func WithRules(r *rules.Engine) Option {
	return func(e *Engine) { e.rules = r }
}

// WithDetectors overrides the detector set (tests).
func WithDetectors(ds []detectors.Detector) Option {
	return func(e *Engine) { e.detectors = ds }
}

// New builds an engine around a threshold store.
func New(store *thresholds.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		detectors: detectors.All(),
		providers: providers.NewDetector(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetectShadowAI runs one pass. Detectors run concurrently over the shared
// read-only batch; outputs aggregate in declaration order so equal inputs
// yield equal results. Cancellation discards all partial results.
func (e *Engine) DetectShadowAI(ctx context.Context, evs []events.Event, tf events.ActivityTimeframe, organizationID string) (findings.DetectionResult, PassStats, error) {
	start := time.Now()
	stats := PassStats{
		EventsProcessed: len(evs),
		DetectorHits:    make(map[string]int),
	}
	result := findings.DetectionResult{
		ActivityPatterns: []findings.ActivityPattern{},
		RiskIndicators:   []findings.RiskIndicator{},
	}

	ctx, span := telemetry.StartPass(ctx, organizationID, len(evs))
	defer span.End()

	set := e.store.GetFor(ctx, organizationID)
	if !set.Valid() {
		set = e.store.Defaults()
	}
	batch := detectors.NewBatch(evs, tf, set)

	// Fan out. Each detector fills its own slot; slot order is the stable
	// aggregation order (C3 declaration order, then C4, then rules).
	patternSlots := make([][]findings.ActivityPattern, len(e.detectors))
	errSlots := make([]error, len(e.detectors))
	var signatures []findings.AutomationSignature
	var sigErr error
	var ruleIndicators []findings.RiskIndicator

	var wg sync.WaitGroup
	for i, d := range e.detectors {
		wg.Add(1)
		go func(i int, d detectors.Detector) {
			defer wg.Done()
			_, span := telemetry.StartDetector(ctx, d.Name())
			defer span.End()

			ps, err := d.Detect(ctx, batch)
			if err != nil {
				span.RecordError(err)
				errSlots[i] = err
				return
			}
			patternSlots[i] = ps
			span.SetAttributes(telemetry.AttrPatternCount.Int(len(ps)))
		}(i, d)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, span := telemetry.StartDetector(ctx, e.providers.Name())
		defer span.End()
		signatures, sigErr = e.providers.Detect(ctx, evs)
		span.SetAttributes(telemetry.AttrSignatureCount.Int(len(signatures)))
	}()
	if e.rules != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, span := telemetry.StartDetector(ctx, "CustomRules")
			defer span.End()
			ruleIndicators = e.rules.Evaluate(ctx, evs)
		}()
	}
	wg.Wait()

	// Cancellation wins over any partial output.
	if err := ctx.Err(); err != nil {
		return findings.DetectionResult{ActivityPatterns: []findings.ActivityPattern{}, RiskIndicators: []findings.RiskIndicator{}}, stats, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	// Detector faults are isolated: the slot stays empty and is counted.
	for i, err := range errSlots {
		if err != nil {
			stats.DetectorErrors++
			e.logger.Warn("detector failed", "detector", e.detectors[i].Name(), "error", err)
		}
	}
	if sigErr != nil {
		stats.DetectorErrors++
		e.logger.Warn("provider detector failed", "error", sigErr)
	}

	for i, ps := range patternSlots {
		if errSlots[i] != nil {
			continue
		}
		if len(ps) == 0 {
			stats.DetectorsSkipped++
			continue
		}
		stats.DetectorHits[e.detectors[i].Name()] = len(ps)
		result.ActivityPatterns = append(result.ActivityPatterns, ps...)
	}
	stats.SignatureCount = len(signatures)

	for _, sig := range signatures {
		result.RiskIndicators = append(result.RiskIndicators, indicatorFor(sig))
	}
	result.RiskIndicators = append(result.RiskIndicators, ruleIndicators...)

	if err := checkInvariants(result); err != nil {
		faultID := uuid.NewString()
		e.logger.Error("invariant violation, pass aborted", "fault", faultID, "error", err)
		return findings.DetectionResult{ActivityPatterns: []findings.ActivityPattern{}, RiskIndicators: []findings.RiskIndicator{}}, stats, fmt.Errorf("%w: fault %s", ErrInvariant, faultID)
	}

	result.OverallRisk = fuseRisk(result)
	stats.Duration = time.Since(start)
	telemetry.RecordPassResult(span,
		len(result.ActivityPatterns), len(result.RiskIndicators),
		stats.SignatureCount, result.OverallRisk)
	return result, stats, nil
}

// fuseRisk combines the strongest pattern and the strongest indicator.
// Empty on both sides means zero risk.
func fuseRisk(r findings.DetectionResult) float64 {
	maxPattern := 0.0
	for _, p := range r.ActivityPatterns {
		if p.Confidence > maxPattern {
			maxPattern = p.Confidence
		}
	}
	maxSeverity := 0.0
	for _, ind := range r.RiskIndicators {
		if s := ind.Severity.Severity(); s > maxSeverity {
			maxSeverity = s
		}
	}
	if maxPattern == 0 && maxSeverity == 0 {
		return 0
	}
	risk := 0.6*maxPattern + 0.4*maxSeverity
	if risk > 100 {
		risk = 100
	}
	return risk
}

func checkInvariants(r findings.DetectionResult) error {
	for _, p := range r.ActivityPatterns {
		if p.Confidence < 0 || p.Confidence > 100 || p.Confidence != p.Confidence {
			return fmt.Errorf("pattern %s confidence %v out of range", p.ID, p.Confidence)
		}
	}
	return nil
}

// mitigations are the recommendation templates keyed by provider.
var mitigations = map[findings.AIProvider]string{
	findings.ProviderOpenAI:      "Review the OpenAI integration's data access; restrict or sanction the API key.",
	findings.ProviderAnthropic:   "Review the Anthropic integration's data access; restrict or sanction the API key.",
	findings.ProviderGoogleAI:    "Audit Google AI Studio / Vertex scopes granted to this account.",
	findings.ProviderCohere:      "Audit the Cohere API usage and rotate exposed keys.",
	findings.ProviderHuggingFace: "Review Hugging Face inference calls for sensitive payloads.",
	findings.ProviderReplicate:   "Review Replicate model invocations for sensitive payloads.",
	findings.ProviderMistral:     "Audit the Mistral API usage and rotate exposed keys.",
	findings.ProviderTogetherAI:  "Audit the Together AI usage and rotate exposed keys.",
}

func indicatorFor(sig findings.AutomationSignature) findings.RiskIndicator {
	mitigation, ok := mitigations[sig.Provider]
	if !ok {
		mitigation = "Identify the calling integration and confirm it is sanctioned."
	}
	detail := fmt.Sprintf("unsanctioned %s integration detected via %s", sig.Provider, sig.DetectionMethod)
	if sig.Model != "" {
		detail += fmt.Sprintf(" (model %s)", sig.Model)
	}
	return findings.RiskIndicator{
		ID:         sig.ID,
		RiskType:   "external_access",
		Severity:   sig.RiskLevel,
		Provider:   sig.Provider,
		Detail:     detail,
		Mitigation: mitigation,
		Compliance: findings.ComplianceFor(sig.RiskLevel),
	}
}
