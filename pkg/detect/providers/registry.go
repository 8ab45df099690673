// Package providers implements the AI-provider signature matcher. The
// registry is table-driven: one row per provider, matched through six
// independent detection methods.
package providers

import (
	"net"
	"regexp"

	"github.com/singura/singura/pkg/findings"
)

// methodWeights are the per-method base scores. Multiple hits within one
// method accumulate up to the method's cap (the base weight).
var methodWeights = map[findings.DetectionMethod]float64{
	findings.MethodAPIEndpoint:      40,
	findings.MethodOAuthScope:       40,
	findings.MethodUserAgent:        30,
	findings.MethodContentSignature: 30,
	findings.MethodWebhookPattern:   25,
	findings.MethodIPRange:          20,
}

// methodPrecedence breaks ties between methods with equal accumulated
// evidence; api_endpoint deliberately outranks oauth_scope.
var methodPrecedence = []findings.DetectionMethod{
	findings.MethodAPIEndpoint,
	findings.MethodOAuthScope,
	findings.MethodUserAgent,
	findings.MethodContentSignature,
	findings.MethodWebhookPattern,
	findings.MethodIPRange,
}

// row holds one provider's signature set.
type row struct {
	provider        findings.AIProvider
	endpoints       []string // substring match against API endpoints and content
	userAgents      []string // substring match
	scopes          []string // exact match
	webhookPaths    []string // substring match against webhook URLs
	ipRanges        []*net.IPNet
	contentPatterns []*regexp.Regexp
}

func cidrs(specs ...string) []*net.IPNet {
	var nets []*net.IPNet
	for _, s := range specs {
		if _, n, err := net.ParseCIDR(s); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

func rx(specs ...string) []*regexp.Regexp {
	var rxs []*regexp.Regexp
	for _, s := range specs {
		rxs = append(rxs, regexp.MustCompile(s))
	}
	return rxs
}

// registry is the built-in signature table. Patterns are RE2 and therefore
// linear-time over attacker-influenced content.
var registry = []row{
	{
		provider:   findings.ProviderOpenAI,
		endpoints:  []string{"api.openai.com", "oaiusercontent.com"},
		userAgents: []string{"OpenAI", "openai-python", "openai-node", "ChatGPT"},
		scopes:     []string{"api.openai.com/auth", "openai.api.read", "openai.api.write"},
		webhookPaths: []string{"/openai/webhook", "/v1/chat/completions"},
		ipRanges:   cidrs("104.18.0.0/16", "172.64.0.0/13"),
		contentPatterns: rx(
			`(?i)chat\.completions?`,
			`(?i)text-davinci-[0-9]+`,
			`sk-[A-Za-z0-9]{20,}`,
		),
	},
	{
		provider:   findings.ProviderAnthropic,
		endpoints:  []string{"api.anthropic.com", "claude.ai"},
		userAgents: []string{"anthropic-sdk", "Claude-Web", "anthropic-python"},
		scopes:     []string{"anthropic.api.read", "anthropic.api.write"},
		webhookPaths: []string{"/anthropic/webhook", "/v1/messages"},
		ipRanges:   cidrs("160.79.104.0/23"),
		contentPatterns: rx(
			`(?i)anthropic-version`,
			`sk-ant-[A-Za-z0-9-]{20,}`,
		),
	},
	{
		provider:   findings.ProviderGoogleAI,
		endpoints:  []string{"generativelanguage.googleapis.com", "aiplatform.googleapis.com"},
		userAgents: []string{"google-genai", "google-cloud-aiplatform"},
		scopes: []string{
			"https://www.googleapis.com/auth/generative-language",
			"https://www.googleapis.com/auth/cloud-platform",
		},
		webhookPaths:    []string{"/gemini/webhook"},
		contentPatterns: rx(`(?i)generateContent`, `(?i)geminiPro`),
	},
	{
		provider:        findings.ProviderCohere,
		endpoints:       []string{"api.cohere.ai", "api.cohere.com"},
		userAgents:      []string{"cohere-go", "cohere-python"},
		scopes:          []string{"cohere.api"},
		contentPatterns: rx(`(?i)co\.generate`, `(?i)command-r`),
	},
	{
		provider:        findings.ProviderHuggingFace,
		endpoints:       []string{"api-inference.huggingface.co", "huggingface.co/api"},
		userAgents:      []string{"huggingface_hub"},
		scopes:          []string{"huggingface.inference"},
		contentPatterns: rx(`hf_[A-Za-z0-9]{20,}`),
	},
	{
		provider:        findings.ProviderReplicate,
		endpoints:       []string{"api.replicate.com"},
		userAgents:      []string{"replicate-python", "replicate-go"},
		contentPatterns: rx(`r8_[A-Za-z0-9]{20,}`),
	},
	{
		provider:        findings.ProviderMistral,
		endpoints:       []string{"api.mistral.ai"},
		userAgents:      []string{"mistral-client", "mistralai"},
		contentPatterns: rx(`(?i)mistral-(tiny|small|medium|large)`),
	},
	{
		provider:        findings.ProviderTogetherAI,
		endpoints:       []string{"api.together.xyz", "api.together.ai"},
		userAgents:      []string{"together-python"},
		contentPatterns: rx(`(?i)togethercomputer/`),
	},
}

// modelPatterns extract concrete model names from event content.
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`gpt-4[A-Za-z0-9.\-]*`),
	regexp.MustCompile(`gpt-3\.5[A-Za-z0-9.\-]*`),
	regexp.MustCompile(`\bo[134](?:-mini|-preview)\b`),
	regexp.MustCompile(`claude-3-[a-z]+(?:-[0-9]+)?`),
	regexp.MustCompile(`claude-[0-9.]+`),
	regexp.MustCompile(`gemini-1\.5-[a-z]+`),
	regexp.MustCompile(`gemini-pro[A-Za-z0-9.\-]*`),
	regexp.MustCompile(`mistral-(?:tiny|small|medium|large)[A-Za-z0-9.\-]*`),
	regexp.MustCompile(`command-r[A-Za-z0-9.\-]*`),
	regexp.MustCompile(`llama-?[0-9][A-Za-z0-9.\-]*`),
}
