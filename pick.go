package edition

import "math"

// SeqRange returns the sequence numbers from..to, both inclusive. A reversed
// range is swapped.
func SeqRange(from, to int) []int {
	if from > to {
		from, to = to, from
	}
	out := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

// PickCount returns count sequence numbers spread evenly over total numbers
// starting at offset. The first and last numbers are always included.
//
//	PickCount(10, 100, 1) // [1 12 23 34 45 56 67 78 89 100]
func PickCount(count, total, offset int) []int {
	if count <= 0 || total <= 0 {
		return nil
	}
	if count == 1 {
		return []int{offset}
	}
	step := float64(total-1) / float64(count-1)
	out := make([]int, 0, count)
	for i := 0; ; i++ {
		idx := float64(i) * step
		if idx >= float64(total) {
			break
		}
		n := int(math.RoundToEven(idx)) + offset
		if len(out) > 0 && out[len(out)-1] == n {
			continue
		}
		out = append(out, n)
		if step == 0 {
			break
		}
	}
	return out
}

// PickFromTo is PickCount over the inclusive range from..to.
func PickFromTo(count, from, to int) []int {
	if from > to {
		from, to = to, from
	}
	return PickCount(count, to-from+1, from)
}

// PickStep returns every step-th sequence number over total numbers starting
// at offset, optionally followed by the last number.
//
//	PickStep(1000, 8760, 1, true) // [1 1001 2001 ... 8001 8760]
func PickStep(step, total, offset int, includeLast bool) []int {
	if step <= 0 || total <= 0 {
		return nil
	}
	var out []int
	for idx := 0; idx < total; idx += step {
		out = append(out, idx+offset)
	}
	if last := total - 1 + offset; includeLast && out[len(out)-1] != last {
		out = append(out, last)
	}
	return out
}

// PickStepRound returns the multiples of step inside the range, optionally
// framed by the first and last number.
//
//	PickStepRound(1000, 8760, 1, true, true) // [1 1000 2000 ... 8000 8760]
func PickStepRound(step, total, offset int, includeFirst, includeLast bool) []int {
	if step <= 0 || total <= 0 {
		return nil
	}
	first, last := offset, total-1+offset
	var out []int
	if includeFirst && step != first {
		out = append(out, first)
	}
	for n := step; n <= last; n += step {
		if n < first {
			continue
		}
		out = append(out, n)
	}
	if includeLast && (len(out) == 0 || out[len(out)-1] != last) {
		out = append(out, last)
	}
	return out
}
