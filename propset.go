package edition

import "fmt"

// RuleKind names a value generator.
type RuleKind string

const (
	KindLinear     RuleKind = "linear"
	KindConstant   RuleKind = "constant"
	KindUniform    RuleKind = "uniform"
	KindUniformInt RuleKind = "uniform-int"
	KindUniformSet RuleKind = "uniform-set"
)

// ParseRuleKind accepts the canonical kind names and the short aliases
// rnd, rnd_int and rnd_set.
func ParseRuleKind(s string) (RuleKind, error) {
	switch s {
	case "linear":
		return KindLinear, nil
	case "constant":
		return KindConstant, nil
	case "uniform", "rnd":
		return KindUniform, nil
	case "uniform-int", "rnd_int":
		return KindUniformInt, nil
	case "uniform-set", "rnd_set":
		return KindUniformSet, nil
	}
	return "", fmt.Errorf("unknown rule kind %q: %w", s, ErrInvalidRule)
}

// ParamRule declares how one store path varies across a property set. Which
// payload field is read depends on Kind: Range for linear and the uniform
// kinds, Value for constant, Choices for uniform-set.
type ParamRule struct {
	Path    string
	Kind    RuleKind
	Range   []float64
	Value   any
	Choices []any
	Linear  LinearOptions
	Seed    uint64
}

// LinearRule steps path from a to b.
func LinearRule(path string, a, b float64, opts LinearOptions) ParamRule {
	return ParamRule{Path: path, Kind: KindLinear, Range: []float64{a, b}, Linear: opts}
}

// ConstantRule pins path to v.
func ConstantRule(path string, v any) ParamRule {
	return ParamRule{Path: path, Kind: KindConstant, Value: v}
}

// UniformRule draws path uniformly from [a, b).
func UniformRule(path string, a, b float64) ParamRule {
	return ParamRule{Path: path, Kind: KindUniform, Range: []float64{a, b}}
}

// UniformIntRule draws path uniformly from the integers in [a, b].
func UniformIntRule(path string, a, b int) ParamRule {
	return ParamRule{Path: path, Kind: KindUniformInt, Range: []float64{float64(a), float64(b)}}
}

// UniformSetRule picks path uniformly from choices.
func UniformSetRule(path string, choices ...any) ParamRule {
	return ParamRule{Path: path, Kind: KindUniformSet, Choices: choices}
}

// Generate expands the rule into exactly n values.
func (r ParamRule) Generate(s *Stream, n int) ([]any, error) {
	switch r.Kind {
	case KindLinear:
		vals, err := Linear(r.Range, n, r.Linear)
		if err != nil {
			return nil, err
		}
		return boxAll(vals), nil
	case KindConstant:
		if n < 0 {
			return nil, fmt.Errorf("constant: negative count %d: %w", n, ErrInvalidRule)
		}
		return Constant(r.Value, n), nil
	case KindUniform:
		vals, err := Uniform(s, r.Range, n, r.Seed)
		if err != nil {
			return nil, err
		}
		return boxAll(vals), nil
	case KindUniformInt:
		vals, err := UniformInt(s, r.Range, n, r.Seed)
		if err != nil {
			return nil, err
		}
		return boxAll(vals), nil
	case KindUniformSet:
		return UniformSet(s, r.Choices, n, r.Seed)
	}
	return nil, fmt.Errorf("rule %q: unknown kind %q: %w", r.Path, r.Kind, ErrInvalidRule)
}

// PropertySet is a named category of outputs. Count is the number of slots
// (local indices) the set contributes to the sequence-number space.
type PropertySet struct {
	Name  string
	Count int
	Rules []ParamRule
}

// Materialize runs every rule with n = Count. The result is indexed by rule,
// then by local index.
func (p PropertySet) Materialize(s *Stream) ([][]any, error) {
	out := make([][]any, len(p.Rules))
	for i, rule := range p.Rules {
		vals, err := rule.Generate(s, p.Count)
		if err != nil {
			return nil, fmt.Errorf("set %q rule %q: %w", p.Name, rule.Path, err)
		}
		out[i] = vals
	}
	return out, nil
}

func boxAll[T any](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
