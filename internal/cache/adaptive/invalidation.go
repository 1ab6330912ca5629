package adaptive

import (
	"strings"

	"go.uber.org/zap"
)

// Rule maps a trigger substring to the key substrings it stales.
type Rule struct {
	Trigger  string
	Affected []string
}

// Invalidator resolves a trigger string to the keys that must be purged.
// Rules and tag dependencies are operator-configured; matching is by
// substring, not exact key, since callers invalidate by topic.
type Invalidator struct {
	rules []Rule
	tags  map[string]map[string]struct{}

	logger *zap.Logger
}

// NewInvalidator creates an empty Invalidator.
func NewInvalidator(logger *zap.Logger) *Invalidator {
	return &Invalidator{
		tags:   make(map[string]map[string]struct{}),
		logger: logger,
	}
}

// AddRule registers the key substrings invalidated by a trigger.
func (iv *Invalidator) AddRule(trigger string, affected ...string) {
	iv.rules = append(iv.rules, Rule{Trigger: trigger, Affected: affected})
}

// RegisterTag registers keys as dependents of a tag.
func (iv *Invalidator) RegisterTag(tag string, keys ...string) {
	set, found := iv.tags[tag]
	if !found {
		set = make(map[string]struct{})
		iv.tags[tag] = set
	}
	for _, k := range keys {
		set[k] = struct{}{}
	}
}

// Rules returns the configured rule count.
func (iv *Invalidator) Rules() int {
	return len(iv.rules)
}

// symmetricMatch reports whether either string contains the other.
func symmetricMatch(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Resolve returns the affected key substrings from every rule matching
// trigger, plus the keys registered under a tag equal to trigger.
func (iv *Invalidator) Resolve(trigger string) (patterns []string, keys map[string]struct{}) {
	for _, r := range iv.rules {
		if symmetricMatch(trigger, r.Trigger) {
			patterns = append(patterns, r.Affected...)
		}
	}

	keys = make(map[string]struct{})
	for k := range iv.tags[trigger] {
		keys[k] = struct{}{}
	}
	return patterns, keys
}
