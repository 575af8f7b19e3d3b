package edition

import (
	"errors"
	"testing"
)

func TestParseRuleKind(t *testing.T) {
	tests := []struct {
		in   string
		want RuleKind
	}{
		{"linear", KindLinear},
		{"constant", KindConstant},
		{"uniform", KindUniform},
		{"rnd", KindUniform},
		{"uniform-int", KindUniformInt},
		{"rnd_int", KindUniformInt},
		{"uniform-set", KindUniformSet},
		{"rnd_set", KindUniformSet},
	}
	for _, tt := range tests {
		got, err := ParseRuleKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseRuleKind(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseRuleKind("perlin"); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("ParseRuleKind(perlin) err = %v, want ErrInvalidRule", err)
	}
}

func TestRuleGenerateLength(t *testing.T) {
	rules := []ParamRule{
		LinearRule("a", 0, 1, DefaultLinearOptions()),
		ConstantRule("b", "x"),
		UniformRule("c", 0, 1),
		UniformIntRule("d", 1, 6),
		UniformSetRule("e", "red", "green"),
	}
	s := NewStream(1)
	for _, r := range rules {
		vals, err := r.Generate(s, 7)
		if err != nil {
			t.Fatalf("%s: %v", r.Kind, err)
		}
		if len(vals) != 7 {
			t.Errorf("%s generated %d values, want 7", r.Kind, len(vals))
		}
	}
	if _, err := (ParamRule{Path: "x", Kind: "bogus"}).Generate(s, 1); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("unknown kind err = %v, want ErrInvalidRule", err)
	}
	if _, err := ConstantRule("x", 1).Generate(s, -1); !errors.Is(err, ErrInvalidRule) {
		t.Errorf("negative constant err = %v, want ErrInvalidRule", err)
	}
}

func TestMaterializeSharedStream(t *testing.T) {
	set := PropertySet{
		Name:  "a",
		Count: 3,
		Rules: []ParamRule{UniformRule("x", 0, 1), UniformRule("y", 0, 1)},
	}
	first, err := set.Materialize(NewStream(9))
	if err != nil {
		t.Fatal(err)
	}
	second, _ := set.Materialize(NewStream(9))
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Errorf("value [%d][%d] = %v then %v, want equal", i, j, first[i][j], second[i][j])
			}
		}
	}
	// Rules draw from one stream, so y continues where x stopped.
	if first[0][0] == first[1][0] {
		t.Errorf("x and y drew the same first value %v", first[0][0])
	}
}

func TestMaterializeWrapsRuleErrors(t *testing.T) {
	set := PropertySet{Name: "bad", Count: 2, Rules: []ParamRule{{Path: "p", Kind: KindUniform, Range: []float64{1}}}}
	_, err := set.Materialize(NewStream(1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}
