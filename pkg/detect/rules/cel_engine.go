// Package rules evaluates operator-authored CEL detection rules over
// normalized events. Rules add risk indicators; they never suppress the
// built-in detectors.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gopkg.in/yaml.v3"

	"github.com/singura/singura/pkg/events"
	"github.com/singura/singura/pkg/findings"
)

// Rule is one operator-defined detection condition.
type Rule struct {
	ID        string `json:"id" yaml:"id"`
	Condition string `json:"condition" yaml:"condition"` // CEL: "eventType == 'file_share' && user.endsWith('@contractor.example')"
	Severity  string `json:"severity" yaml:"severity"`   // low, medium, high, critical
	Detail    string `json:"detail" yaml:"detail"`
	Priority  int    `json:"priority" yaml:"priority"`
	// EventTypes narrows evaluation; empty means every event.
	EventTypes []string `json:"event_types" yaml:"event_types"`
}

// Engine holds compiled rules with a per-event-type index.
type Engine struct {
	env           *cel.Env
	programs      map[string]cel.Program
	rules         map[string]Rule
	index         map[string][]string // eventType -> []RuleID
	hitsCounter   metric.Int64Counter
	logger        *slog.Logger
}

// NewEngine initializes the CEL environment.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("eventId", decls.String),
			decls.NewVar("user", decls.String),
			decls.NewVar("eventType", decls.String),
			decls.NewVar("resourceType", decls.String),
			decls.NewVar("action", decls.String),
			decls.NewVar("resourceName", decls.String),
			decls.NewVar("metadata", decls.NewMapType(decls.String, decls.Dyn)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	meter := otel.Meter("singura/rules")
	hits, err := meter.Int64Counter("rule_hits_total",
		metric.WithDescription("Total number of custom detection rule hits"))
	if err != nil {
		slog.Warn("Failed to initialize rules metric", "error", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		env:         env,
		programs:    make(map[string]cel.Program),
		rules:       make(map[string]Rule),
		index:       make(map[string][]string),
		hitsCounter: hits,
		logger:      logger,
	}, nil
}

// LoadFile reads a YAML rule set and compiles it.
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse rules file: %w", err)
	}
	return e.Compile(doc.Rules)
}

// Compile prepares rules for execution.
func (e *Engine) Compile(rules []Rule) error {
	for _, r := range rules {
		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}

		e.programs[r.ID] = prg
		e.rules[r.ID] = r

		if len(r.EventTypes) == 0 {
			e.index["*"] = append(e.index["*"], r.ID)
		} else {
			for _, t := range r.EventTypes {
				e.index[t] = append(e.index[t], r.ID)
			}
		}
	}
	return nil
}

// Evaluate runs every event through the candidate rules for its type and
// returns one indicator per (rule, user), sorted by priority.
func (e *Engine) Evaluate(ctx context.Context, evs []events.Event) []findings.RiskIndicator {
	type hit struct {
		rule Rule
		user string
	}
	seen := map[string]bool{}
	var hits []hit

	for _, ev := range evs {
		vars := map[string]interface{}{
			"eventId":      ev.ID,
			"user":         ev.UserID,
			"eventType":    string(ev.Type),
			"resourceType": string(ev.ResourceType),
			"action":       ev.Details.Action,
			"resourceName": ev.Details.ResourceName,
			"metadata":     ev.Details.Metadata,
		}

		candidates := make([]string, 0, len(e.index[string(ev.Type)])+len(e.index["*"]))
		candidates = append(candidates, e.index[string(ev.Type)]...)
		candidates = append(candidates, e.index["*"]...)

		for _, id := range candidates {
			if seen[id+"/"+ev.UserID] {
				continue
			}
			prg, ok := e.programs[id]
			if !ok {
				continue
			}
			out, _, err := prg.Eval(vars)
			if err != nil {
				e.logger.Error("Rule evaluation failed", "rule_id", id, "error", err)
				continue
			}
			if match, ok := out.Value().(bool); ok && match {
				seen[id+"/"+ev.UserID] = true
				hits = append(hits, hit{rule: e.rules[id], user: ev.UserID})
				if e.hitsCounter != nil {
					e.hitsCounter.Add(ctx, 1, metric.WithAttributes(
						attribute.String("rule_id", id),
						attribute.String("event_type", string(ev.Type)),
					))
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].rule.Priority != hits[j].rule.Priority {
			return hits[i].rule.Priority > hits[j].rule.Priority
		}
		if hits[i].rule.ID != hits[j].rule.ID {
			return hits[i].rule.ID < hits[j].rule.ID
		}
		return hits[i].user < hits[j].user
	})

	out := make([]findings.RiskIndicator, 0, len(hits))
	for _, h := range hits {
		severity := severityFor(h.rule.Severity)
		out = append(out, findings.RiskIndicator{
			ID:         fmt.Sprintf("rule-%s-%s", h.rule.ID, h.user),
			RiskType:   "custom_rule",
			Severity:   severity,
			Detail:     fmt.Sprintf("%s (user %s)", h.rule.Detail, h.user),
			Compliance: findings.ComplianceFor(severity),
		})
	}
	return out
}

func severityFor(raw string) findings.RiskLevel {
	switch raw {
	case "low":
		return findings.RiskLow
	case "medium":
		return findings.RiskMedium
	case "high":
		return findings.RiskHigh
	case "critical":
		return findings.RiskCritical
	}
	return findings.RiskMedium
}
