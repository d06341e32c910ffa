package ranges

import (
	"testing"
)

func TestRangeSize(t *testing.T) {
	tests := []struct {
		name string
		r    LineRange
		size uint64
	}{
		{"single", SingleLine(5), 1},
		{"span", NewLineRange(3, 7), 5},
		{"zero start", NewLineRange(0, 0), 1},
		{"empty", NewLineRange(4, 3), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Size(); got != tt.size {
				t.Errorf("expected size %d, got %d", tt.size, got)
			}
			if tt.r.IsEmpty() != (tt.size == 0) {
				t.Errorf("IsEmpty inconsistent with size for %s", tt.r)
			}
		})
	}
}

func TestRangeContains(t *testing.T) {
	r := NewByteRange(10, 20)
	for _, index := range []uint64{10, 15, 20} {
		if !r.Contains(index) {
			t.Errorf("expected %s to contain %d", r, index)
		}
	}
	for _, index := range []uint64{0, 9, 21} {
		if r.Contains(index) {
			t.Errorf("expected %s to not contain %d", r, index)
		}
	}
}

func TestRangeString(t *testing.T) {
	if got := NewLineRange(1, 4).String(); got != "[1..=4]" {
		t.Errorf("unexpected string: %s", got)
	}
}
