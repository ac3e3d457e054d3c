package validate

import (
	"github.com/ssargent/chemcomp/pkg/chemcomp"
)

// Rule is one consistency check over a record.
type Rule interface {
	Name() string
	Evaluate(rec *chemcomp.Record) Result
}

type ruleFunc struct {
	name string
	fn   func(*chemcomp.Record) Result
}

func (r ruleFunc) Name() string { return r.name }
func (r ruleFunc) Evaluate(rec *chemcomp.Record) Result { return r.fn(rec) }

// NewRule adapts a function into a Rule.
func NewRule(name string, fn func(*chemcomp.Record) Result) Rule {
	return ruleFunc{name: name, fn: fn}
}

// Options tune the default rule set.
type Options struct {
	// StrictCharge turns a charge sum that disagrees with the formal charge
	// into an error.
	StrictCharge bool
}

// Engine runs registered rules.
type Engine struct {
	rules []Rule
}

// NewEngine constructs an engine without rules.
func NewEngine() *Engine {
	return &Engine{}
}

// NewDefaultEngine returns an engine holding the standard rules.
func NewDefaultEngine(opts Options) *Engine {
	e := NewEngine()
	e.Register(HeaderFieldsRule())
	e.Register(CompIDRule())
	e.Register(OrdinalRule())
	e.Register(AtomRule())
	e.Register(BondRule())
	e.Register(ChargeRule(opts.StrictCharge))
	e.Register(CompletenessRule())
	e.Register(EncodingRule())
	return e
}

// Register appends a rule to the engine.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Rules returns the names of the registered rules in evaluation order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Evaluate executes all registered rules and aggregates their results.
func (e *Engine) Evaluate(rec *chemcomp.Record) Result {
	var combined Result
	for _, rule := range e.rules {
		combined.Merge(rule.Evaluate(rec))
	}
	return combined
}

var defaultEngine = NewDefaultEngine(Options{})

// Validate runs the standard rules and returns every violation found.
func Validate(rec *chemcomp.Record) []Violation {
	return defaultEngine.Evaluate(rec).Violations
}
