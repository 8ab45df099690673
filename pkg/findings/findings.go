// Package findings defines the detection outputs: activity patterns,
// automation signatures, risk indicators and the fused result.
package findings

import (
	"time"
)

// PatternType names a statistical behavior anomaly.
type PatternType string

const (
	PatternVelocity        PatternType = "velocity"
	PatternRegularInterval PatternType = "regular_interval"
	PatternOffHours        PatternType = "off_hours"
	PatternBatchOperation  PatternType = "batch_operation"
	PatternPermission      PatternType = "permission_change"
	PatternFileDownload    PatternType = "file_download"
)

// PatternSubject identifies who and what a pattern is about.
type PatternSubject struct {
	UserID       string    `json:"userId"`
	UserEmail    string    `json:"userEmail,omitempty"`
	ResourceType string    `json:"resourceType,omitempty"`
	ActionType   string    `json:"actionType,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Evidence backs a pattern with numbers and the events that produced it.
type Evidence struct {
	Description      string         `json:"description"`
	DataPoints       map[string]any `json:"dataPoints,omitempty"`
	SupportingEvents []string       `json:"supportingEvents,omitempty"`
}

// ActivityPattern is a statistical finding about one user's behavior.
// Confidence is always within [0,100].
type ActivityPattern struct {
	ID         string         `json:"patternId"`
	Type       PatternType    `json:"patternType"`
	DetectedAt time.Time      `json:"detectedAt"`
	Confidence float64        `json:"confidence"`
	Subject    PatternSubject `json:"metadata"`
	Evidence   Evidence       `json:"evidence"`
}

// AIProvider names a known AI vendor.
type AIProvider string

const (
	ProviderOpenAI      AIProvider = "openai"
	ProviderAnthropic   AIProvider = "anthropic"
	ProviderGoogleAI    AIProvider = "google_ai"
	ProviderCohere      AIProvider = "cohere"
	ProviderHuggingFace AIProvider = "huggingface"
	ProviderReplicate   AIProvider = "replicate"
	ProviderMistral     AIProvider = "mistral"
	ProviderTogetherAI  AIProvider = "together_ai"
	ProviderUnknown     AIProvider = "unknown"
)

// DetectionMethod names how provider evidence was matched.
type DetectionMethod string

const (
	MethodAPIEndpoint      DetectionMethod = "api_endpoint"
	MethodUserAgent        DetectionMethod = "user_agent"
	MethodOAuthScope       DetectionMethod = "oauth_scope"
	MethodWebhookPattern   DetectionMethod = "webhook_pattern"
	MethodContentSignature DetectionMethod = "content_signature"
	MethodIPRange          DetectionMethod = "ip_range"
)

// RiskLevel buckets a confidence score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelFor maps a confidence score onto the severity ladder.
func RiskLevelFor(confidence float64) RiskLevel {
	switch {
	case confidence < 30:
		return RiskLow
	case confidence < 60:
		return RiskMedium
	case confidence < 90:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Severity returns the numeric weight used in risk fusion.
func (r RiskLevel) Severity() float64 {
	switch r {
	case RiskLow:
		return 25
	case RiskMedium:
		return 50
	case RiskHigh:
		return 75
	case RiskCritical:
		return 100
	}
	return 0
}

// ComplianceImpact tags the frameworks a finding touches.
type ComplianceImpact struct {
	GDPR  bool `json:"gdpr"`
	SOX   bool `json:"sox"`
	HIPAA bool `json:"hipaa"`
	PCI   bool `json:"pci"`
}

// ComplianceFor derives framework impact from a risk level. PCI is never
// auto-flagged here; that call stays with human review.
func ComplianceFor(level RiskLevel) ComplianceImpact {
	impact := ComplianceImpact{}
	if level != RiskLow {
		impact.GDPR = true
	}
	if level == RiskHigh || level == RiskCritical {
		impact.SOX = true
		impact.HIPAA = true
	}
	return impact
}

// SignatureIndicators holds the raw matched evidence.
type SignatureIndicators struct {
	Endpoints         []string `json:"endpoints,omitempty"`
	UserAgents        []string `json:"userAgents,omitempty"`
	ContentSignatures []string `json:"contentSignatures,omitempty"`
	Scopes            []string `json:"scopes,omitempty"`
	WebhookURLs       []string `json:"webhookUrls,omitempty"`
	IPRanges          []string `json:"ipRanges,omitempty"`
}

// SignatureMetadata tracks signature recurrence.
type SignatureMetadata struct {
	FirstDetected     time.Time `json:"firstDetected"`
	LastDetected      time.Time `json:"lastDetected"`
	OccurrenceCount   int       `json:"occurrenceCount"`
	AffectedResources []string  `json:"affectedResources,omitempty"`
}

// AutomationSignature is evidence that a specific AI provider is in use.
type AutomationSignature struct {
	ID              string            `json:"signatureId"`
	SignatureType   string            `json:"signatureType"` // always "ai_integration"
	Provider        AIProvider        `json:"aiProvider"`
	DetectionMethod DetectionMethod   `json:"detectionMethod"`
	Confidence      float64           `json:"confidence"`
	RiskLevel       RiskLevel         `json:"riskLevel"`
	Model           string            `json:"model,omitempty"`
	UserID          string            `json:"userId"`
	Indicators      SignatureIndicators `json:"indicators"`
	Metadata        SignatureMetadata `json:"metadata"`
}

// RiskIndicator is the actionable view derived from a signature or rule hit.
type RiskIndicator struct {
	ID         string           `json:"indicatorId"`
	RiskType   string           `json:"riskType"` // external_access, custom_rule, ...
	Severity   RiskLevel        `json:"severity"`
	Provider   AIProvider       `json:"provider,omitempty"`
	Detail     string           `json:"detail"`
	Mitigation string           `json:"mitigation,omitempty"`
	Compliance ComplianceImpact `json:"complianceImpact"`
}

// DetectionResult is the outcome of one engine pass.
type DetectionResult struct {
	ActivityPatterns []ActivityPattern `json:"activityPatterns"`
	RiskIndicators   []RiskIndicator   `json:"riskIndicators"`
	OverallRisk      float64           `json:"overallRisk"`
}
