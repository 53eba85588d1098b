package mathx

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		v, lo, hi, want float32
	}{
		{50, 0, 100, 50},
		{-3.5, 0, 100, 0},
		{104.2, 0, 100, 100},
		{7, 10, 0, 7}, // swapped bounds
		{-1, 10, 0, 0},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Fatalf("Clamp(%v,%v,%v) = %v, want %v", c.v, c.lo, c.hi, got, c.want)
		}
	}
	if got := Max(100, 112.5); got != 112.5 {
		t.Fatalf("Max = %v", got)
	}
}
