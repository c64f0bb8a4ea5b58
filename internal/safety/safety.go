// Package safety flags queries that need professional guidance rather than a generated answer.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/prana/internal/models"
)

// Category names a class of risky query.
type Category string

// Rule flags a query when any of its terms appears as a whole word or phrase.
type Rule struct {
	Category Category
	Terms    []string
	Reason   string
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Gate evaluates rules in order; the first matching rule decides the verdict.
// A Gate is immutable and safe for concurrent use.
type Gate struct {
	rules []compiledRule
}

// Verdict is the gate's decision for one query.
type Verdict struct {
	IsUnsafe bool
	Category Category
	Reason   string
}

// Model converts v to the audit representation.
func (v Verdict) Model() models.SafetyVerdict {
	return models.SafetyVerdict{IsUnsafe: v.IsUnsafe, Reason: v.Reason}
}

// NewGate compiles rules. Terms are lowercased and matched literally.
func NewGate(rules ...Rule) (*Gate, error) {
	g := &Gate{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if len(r.Terms) == 0 {
			return nil, fmt.Errorf("safety rule %q has no terms", r.Category)
		}
		quoted := make([]string, len(r.Terms))
		for i, term := range r.Terms {
			quoted[i] = regexp.QuoteMeta(normalize(term))
		}
		re, err := regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("compile safety rule %q: %w", r.Category, err)
		}
		g.rules = append(g.rules, compiledRule{Rule: r, re: re})
	}
	return g, nil
}

// Default returns a gate over DefaultRules.
func Default() *Gate {
	g, err := NewGate(DefaultRules()...)
	if err != nil {
		panic(err)
	}
	return g
}

// Detect classifies query. An empty query is safe.
func (g *Gate) Detect(query string) Verdict {
	q := normalize(query)
	if q == "" {
		return Verdict{}
	}
	for _, r := range g.rules {
		if r.re.MatchString(q) {
			return Verdict{IsUnsafe: true, Category: r.Category, Reason: r.Reason}
		}
	}
	return Verdict{}
}

// Response renders the safety answer for reason.
func Response(reason string) string {
	return fmt.Sprintf(responseTemplate, reason)
}

// normalize lowercases and collapses whitespace runs so multi-word terms match across line breaks.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
