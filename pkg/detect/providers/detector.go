package providers

import (
	"context"
	"encoding/json"
	"net"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
	"github.com/singura/singura/pkg/stats"
)

// maxContentBytes caps the content fed to signature regexes. Content is
// attacker-influenceable; anything longer is truncated before matching.
const maxContentBytes = 64 * 1024

// DetectionInput is the projection of an event the matcher scores against.
type DetectionInput struct {
	APIEndpoint string
	UserAgent   string
	Scopes      []string
	IP          string
	WebhookURL  string
	Content     string
}

// Detector matches events against the provider signature registry.
type Detector struct {
	rows []row
}

// NewDetector returns a matcher over the built-in registry.
func NewDetector() *Detector {
	return &Detector{rows: registry}
}

func (d *Detector) Name() string { return "AIProviderDetector" }

// Detect scores every event against every provider row and returns one
// deduplicated signature per (provider, user).
func (d *Detector) Detect(ctx context.Context, evs []events.Event) ([]findings.AutomationSignature, error) {
	type key struct {
		provider findings.AIProvider
		userID   string
	}
	merged := map[key]*findings.AutomationSignature{}
	var order []key

	for _, ev := range evs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		input := project(ev)
		best, ok := d.match(input)
		if !ok {
			continue
		}
		best.UserID = ev.UserID
		k := key{provider: best.Provider, userID: ev.UserID}
		existing, seen := merged[k]
		if !seen {
			sig := best
			sig.ID = uuid.NewString()
			sig.Metadata = findings.SignatureMetadata{
				FirstDetected:   ev.Timestamp,
				LastDetected:    ev.Timestamp,
				OccurrenceCount: 1,
			}
			if ev.ResourceID != "" {
				sig.Metadata.AffectedResources = []string{ev.ResourceID}
			}
			merged[k] = &sig
			order = append(order, k)
			continue
		}
		existing.Metadata.OccurrenceCount++
		if ev.Timestamp.Before(existing.Metadata.FirstDetected) {
			existing.Metadata.FirstDetected = ev.Timestamp
		}
		if ev.Timestamp.After(existing.Metadata.LastDetected) {
			existing.Metadata.LastDetected = ev.Timestamp
		}
		if ev.ResourceID != "" && !contains(existing.Metadata.AffectedResources, ev.ResourceID) {
			existing.Metadata.AffectedResources = append(existing.Metadata.AffectedResources, ev.ResourceID)
		}
		if best.Confidence > existing.Confidence {
			existing.Confidence = best.Confidence
			existing.RiskLevel = best.RiskLevel
			existing.DetectionMethod = best.DetectionMethod
		}
		if existing.Model == "" {
			existing.Model = best.Model
		}
		mergeIndicators(&existing.Indicators, best.Indicators)
	}

	out := make([]findings.AutomationSignature, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	// Stable output: by user, then provider.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Provider < out[j].Provider
	})
	return out, nil
}

// match scores one input against the registry and returns the best-scoring
// provider, if any method produced evidence.
func (d *Detector) match(input DetectionInput) (findings.AutomationSignature, bool) {
	var best findings.AutomationSignature
	bestScore := 0.0

	for _, r := range d.rows {
		scores, indicators := scoreRow(r, input)
		total := 0.0
		for _, s := range scores {
			total += s
		}
		if total == 0 {
			continue
		}
		confidence := stats.Clamp(total, 0, 100)

		// Primary method: highest accumulated score, precedence on ties.
		var primary findings.DetectionMethod
		primaryScore := -1.0
		for _, m := range methodPrecedence {
			if scores[m] > primaryScore {
				primary = m
				primaryScore = scores[m]
			}
		}

		if confidence > bestScore {
			bestScore = confidence
			best = findings.AutomationSignature{
				SignatureType:   "ai_integration",
				Provider:        r.provider,
				DetectionMethod: primary,
				Confidence:      confidence,
				RiskLevel:       findings.RiskLevelFor(confidence),
				Model:           extractModel(input.Content),
				Indicators:      indicators,
			}
		}
	}
	return best, bestScore > 0
}

// scoreRow accumulates per-method scores; hits within a method add the base
// weight once and cap there.
func scoreRow(r row, input DetectionInput) (map[findings.DetectionMethod]float64, findings.SignatureIndicators) {
	scores := map[findings.DetectionMethod]float64{}
	var ind findings.SignatureIndicators

	hit := func(m findings.DetectionMethod) {
		w := methodWeights[m]
		if scores[m]+w > w {
			scores[m] = w
			return
		}
		scores[m] += w
	}

	for _, ep := range r.endpoints {
		if (input.APIEndpoint != "" && strings.Contains(input.APIEndpoint, ep)) ||
			strings.Contains(input.Content, ep) {
			hit(findings.MethodAPIEndpoint)
			ind.Endpoints = append(ind.Endpoints, ep)
		}
	}
	for _, ua := range r.userAgents {
		if input.UserAgent != "" && strings.Contains(input.UserAgent, ua) {
			hit(findings.MethodUserAgent)
			ind.UserAgents = append(ind.UserAgents, ua)
		}
	}
	for _, scope := range r.scopes {
		for _, got := range input.Scopes {
			if got == scope {
				hit(findings.MethodOAuthScope)
				ind.Scopes = append(ind.Scopes, scope)
			}
		}
	}
	for _, wp := range r.webhookPaths {
		if input.WebhookURL != "" && strings.Contains(input.WebhookURL, wp) {
			hit(findings.MethodWebhookPattern)
			ind.WebhookURLs = append(ind.WebhookURLs, wp)
		}
	}
	if input.IP != "" {
		if ip := net.ParseIP(input.IP); ip != nil {
			for _, n := range r.ipRanges {
				if n.Contains(ip) {
					hit(findings.MethodIPRange)
					ind.IPRanges = append(ind.IPRanges, n.String())
				}
			}
		}
	}
	for _, re := range r.contentPatterns {
		if m := re.FindString(input.Content); m != "" {
			hit(findings.MethodContentSignature)
			ind.ContentSignatures = append(ind.ContentSignatures, m)
		}
	}
	return scores, ind
}

// project builds the DetectionInput view of an event. Content is the JSON
// rendering of the action details, truncated to the matcher cap.
func project(ev events.Event) DetectionInput {
	input := DetectionInput{
		UserAgent: ev.UserAgent,
		IP:        ev.IPAddress,
	}
	md := ev.Details.Metadata
	for _, key := range []string{"apiEndpoint", "endpoint", "url", "destination"} {
		if s, ok := md[key].(string); ok && s != "" {
			input.APIEndpoint = s
			break
		}
	}
	for _, key := range []string{"webhookUrl", "webhook_url"} {
		if s, ok := md[key].(string); ok && s != "" {
			input.WebhookURL = s
			break
		}
	}
	switch raw := md["scopes"].(type) {
	case []string:
		input.Scopes = raw
	case []any:
		for _, s := range raw {
			if str, ok := s.(string); ok {
				input.Scopes = append(input.Scopes, str)
			}
		}
	case string:
		input.Scopes = strings.Fields(raw)
	}

	if data, err := json.Marshal(ev.Details); err == nil {
		content := string(data)
		if len(content) > maxContentBytes {
			content = content[:maxContentBytes]
		}
		input.Content = content
	}
	return input
}

func extractModel(content string) string {
	for _, re := range modelPatterns {
		if m := re.FindString(content); m != "" {
			return m
		}
	}
	return ""
}

func mergeIndicators(dst *findings.SignatureIndicators, src findings.SignatureIndicators) {
	dst.Endpoints = union(dst.Endpoints, src.Endpoints)
	dst.UserAgents = union(dst.UserAgents, src.UserAgents)
	dst.ContentSignatures = union(dst.ContentSignatures, src.ContentSignatures)
	dst.Scopes = union(dst.Scopes, src.Scopes)
	dst.WebhookURLs = union(dst.WebhookURLs, src.WebhookURLs)
	dst.IPRanges = union(dst.IPRanges, src.IPRanges)
}

func union(dst, src []string) []string {
	for _, s := range src {
		if !contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
