package edition

import (
	"fmt"
	"math"
)

// Overflow selects what Linear does once the stepped value passes the end of
// its range.
type Overflow string

const (
	OverflowClamp Overflow = "clamp" // pin at the end of the range
	OverflowWrap  Overflow = "wrap"  // restart at the start of the range
	OverflowNone  Overflow = "none"  // keep stepping past the end
)

// LinearOptions controls Linear. Use DefaultLinearOptions as a base; the zero
// value steps by 0.
type LinearOptions struct {
	Step         float64
	Overflow     Overflow
	Offset       int  // steps skipped before the first value is emitted
	InclusiveEnd bool // whether the end of the range itself is a valid value
	Repeat       int  // times each value is emitted before stepping (>= 1)
}

// DefaultLinearOptions returns step 1, clamp, no offset, inclusive end and no
// repetition.
func DefaultLinearOptions() LinearOptions {
	return LinearOptions{Step: 1, Overflow: OverflowClamp, InclusiveEnd: true, Repeat: 1}
}

// Linear returns n values stepping from bounds[0] towards bounds[1].
func Linear(bounds []float64, n int, opts LinearOptions) ([]float64, error) {
	if len(bounds) != 2 {
		return nil, fmt.Errorf("linear: range needs 2 values, got %d: %w", len(bounds), ErrInvalidRange)
	}
	if n < 0 {
		return nil, fmt.Errorf("linear: negative count %d: %w", n, ErrInvalidRule)
	}
	switch opts.Overflow {
	case OverflowClamp, OverflowWrap, OverflowNone:
	case "":
		opts.Overflow = OverflowClamp
	default:
		return nil, fmt.Errorf("linear: unknown overflow policy %q: %w", opts.Overflow, ErrInvalidRule)
	}
	repeat := max(1, opts.Repeat)
	start, end := bounds[0], bounds[1]

	next := start
	repeatIdx := 0
	step := func() {
		repeatIdx++
		if repeatIdx < repeat {
			return
		}
		repeatIdx = 0
		next += opts.Step
		over := next >= end
		if opts.InclusiveEnd {
			over = next > end
		}
		if !over {
			return
		}
		switch opts.Overflow {
		case OverflowClamp:
			next = end
		case OverflowWrap:
			next = start
		}
	}

	for i := 0; i < opts.Offset; i++ {
		step()
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = next
		step()
	}
	return out, nil
}

// Constant returns n copies of v. v may be any value, not only a number.
func Constant(v any, n int) []any {
	out := make([]any, max(0, n))
	for i := range out {
		out[i] = v
	}
	return out
}

// Uniform returns n independent draws in [bounds[0], bounds[1]). A non-zero
// seed reseeds s first.
func Uniform(s *Stream, bounds []float64, n int, seed uint64) ([]float64, error) {
	if len(bounds) != 2 {
		return nil, fmt.Errorf("uniform: range needs 2 values, got %d: %w", len(bounds), ErrInvalidRange)
	}
	if n < 0 {
		return nil, fmt.Errorf("uniform: negative count %d: %w", n, ErrInvalidRule)
	}
	if seed != 0 {
		s.Seed(seed)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Between(bounds[0], bounds[1])
	}
	return out, nil
}

// UniformInt returns n independent integer draws in [bounds[0], bounds[1]],
// both ends inclusive.
func UniformInt(s *Stream, bounds []float64, n int, seed uint64) ([]int, error) {
	if len(bounds) != 2 {
		return nil, fmt.Errorf("uniform-int: range needs 2 values, got %d: %w", len(bounds), ErrInvalidRange)
	}
	if n < 0 {
		return nil, fmt.Errorf("uniform-int: negative count %d: %w", n, ErrInvalidRule)
	}
	if seed != 0 {
		s.Seed(seed)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = int(math.Floor(s.Between(bounds[0], bounds[1]+1)))
	}
	return out, nil
}

// UniformSet returns n independent picks from choices.
func UniformSet(s *Stream, choices []any, n int, seed uint64) ([]any, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("uniform-set: no choices: %w", ErrInvalidRule)
	}
	if n < 0 {
		return nil, fmt.Errorf("uniform-set: negative count %d: %w", n, ErrInvalidRule)
	}
	if seed != 0 {
		s.Seed(seed)
	}
	out := make([]any, n)
	for i := range out {
		idx := int(s.Float64() * float64(len(choices)))
		out[i] = choices[min(idx, len(choices)-1)]
	}
	return out, nil
}
