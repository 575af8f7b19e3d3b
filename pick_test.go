package edition

import (
	"slices"
	"testing"
)

func TestSeqRange(t *testing.T) {
	if got := SeqRange(3, 6); !slices.Equal(got, []int{3, 4, 5, 6}) {
		t.Errorf("SeqRange(3, 6) = %v", got)
	}
	if got := SeqRange(6, 3); !slices.Equal(got, []int{3, 4, 5, 6}) {
		t.Errorf("SeqRange(6, 3) = %v, want swapped", got)
	}
	if got := SeqRange(2, 2); !slices.Equal(got, []int{2}) {
		t.Errorf("SeqRange(2, 2) = %v", got)
	}
}

func TestPickCount(t *testing.T) {
	tests := []struct {
		count, total, offset int
		want                 []int
	}{
		{10, 100, 1, []int{1, 12, 23, 34, 45, 56, 67, 78, 89, 100}},
		{3, 5, 1, []int{1, 3, 5}},
		{1, 50, 7, []int{7}},
		{5, 3, 1, []int{1, 2, 3}},
		{0, 10, 1, nil},
		{2, 0, 1, nil},
	}
	for _, tt := range tests {
		got := PickCount(tt.count, tt.total, tt.offset)
		if !slices.Equal(got, tt.want) {
			t.Errorf("PickCount(%d, %d, %d) = %v, want %v", tt.count, tt.total, tt.offset, got, tt.want)
		}
	}
}

func TestPickFromTo(t *testing.T) {
	if got := PickFromTo(3, 11, 21); !slices.Equal(got, []int{11, 16, 21}) {
		t.Errorf("PickFromTo(3, 11, 21) = %v", got)
	}
	if got := PickFromTo(3, 21, 11); !slices.Equal(got, []int{11, 16, 21}) {
		t.Errorf("PickFromTo(3, 21, 11) = %v, want swapped", got)
	}
}

func TestPickStep(t *testing.T) {
	got := PickStep(1000, 8760, 1, true)
	want := []int{1, 1001, 2001, 3001, 4001, 5001, 6001, 7001, 8001, 8760}
	if !slices.Equal(got, want) {
		t.Errorf("PickStep(1000, 8760, 1, true) = %v, want %v", got, want)
	}
	if got := PickStep(3, 7, 1, false); !slices.Equal(got, []int{1, 4, 7}) {
		t.Errorf("PickStep(3, 7, 1, false) = %v", got)
	}
	if got := PickStep(3, 7, 1, true); !slices.Equal(got, []int{1, 4, 7}) {
		t.Errorf("PickStep(3, 7, 1, true) = %v, last already included", got)
	}
	if got := PickStep(0, 7, 1, true); got != nil {
		t.Errorf("PickStep(0, ...) = %v, want nil", got)
	}
}

func TestPickStepRound(t *testing.T) {
	got := PickStepRound(1000, 8760, 1, true, true)
	want := []int{1, 1000, 2000, 3000, 4000, 5000, 6000, 7000, 8000, 8760}
	if !slices.Equal(got, want) {
		t.Errorf("PickStepRound(1000, 8760, 1, true, true) = %v, want %v", got, want)
	}
	if got := PickStepRound(10, 30, 1, false, false); !slices.Equal(got, []int{10, 20, 30}) {
		t.Errorf("PickStepRound(10, 30, 1, false, false) = %v", got)
	}
	if got := PickStepRound(10, 10, 15, true, false); !slices.Equal(got, []int{15, 20}) {
		t.Errorf("PickStepRound(10, 10, 15, true, false) = %v", got)
	}
}
