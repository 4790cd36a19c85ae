package form

import (
	"time"

	"anakcore/pkg/dateparts"
	"anakcore/pkg/fieldpath"
)

// DerivedUpdate is one follow-up write produced by a derivation rule.
type DerivedUpdate struct {
	Path  fieldpath.Path
	Value any
}

// DeriveRule recomputes dependent fields when a triggering path changes.
// Application is synchronous: the session applies the resulting updates as
// part of the same mutation, so the buffer is consistent after one set.
type DeriveRule interface {
	Name() string
	// Apply inspects the buffer after changed was written and returns the
	// follow-up updates, if any.
	Apply(changed fieldpath.Path, buffer map[string]any, now time.Time) []DerivedUpdate
}

// DeriveEngine runs registered rules against each mutation.
type DeriveEngine struct {
	rules []DeriveRule
}

// NewDeriveEngine constructs an engine with the default rule set.
func NewDeriveEngine() *DeriveEngine {
	engine := &DeriveEngine{}
	engine.Register(AgeRule{})
	return engine
}

// Register appends a rule to the engine.
func (e *DeriveEngine) Register(rule DeriveRule) {
	e.rules = append(e.rules, rule)
}

// Apply runs all rules for the changed path and writes their updates into a
// new buffer derived from the input.
func (e *DeriveEngine) Apply(buffer map[string]any, changed fieldpath.Path, now time.Time) map[string]any {
	out := buffer
	for _, rule := range e.rules {
		for _, update := range rule.Apply(changed, out, now) {
			out = fieldpath.Set(out, update.Path, update.Value)
		}
	}
	return out
}

// AgeRule recomputes the sibling usia field whenever a tanggal_lahir path
// changes, using calendar-aware year subtraction. An empty or invalid birth
// date resets the derived age to empty.
type AgeRule struct{}

// Name identifies the rule.
func (AgeRule) Name() string { return "age_from_birth_date" }

// Apply implements DeriveRule.
func (AgeRule) Apply(changed fieldpath.Path, buffer map[string]any, now time.Time) []DerivedUpdate {
	if changed.Leaf() != "tanggal_lahir" {
		return nil
	}
	target := changed.Sibling("usia")
	raw, _ := fieldpath.Get(buffer, changed)
	str, _ := raw.(string)
	parts := dateparts.Decompose(str)
	iso := dateparts.Compose(parts.Day, parts.Month, parts.Year)
	if iso == "" {
		return []DerivedUpdate{{Path: target, Value: ""}}
	}
	birth, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return []DerivedUpdate{{Path: target, Value: ""}}
	}
	return []DerivedUpdate{{Path: target, Value: dateparts.YearsBetween(birth, now)}}
}
