package mathx

import "testing"

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 10) != 5 || Clamp(-3, 0, 10) != 0 || Clamp(99, 0, 10) != 10 {
		t.Fatal("clamp basics")
	}
	// Swapped bounds behave the same.
	if Clamp(99, 10, 0) != 10 {
		t.Fatal("clamp swapped bounds")
	}
}

func TestMap(t *testing.T) {
	cases := []struct {
		x, inMin, inMax, outMin, outMax, want int
	}{
		{0, 0, 10, 100, 400, 100},
		{5, 0, 10, 100, 400, 250},
		{10, 0, 10, 100, 400, 400},
		{1, 0, 10, 220, 100, 208}, // descending output range
		{50, 0, 100, 100, 400, 250},
		{7, 3, 3, 42, 99, 42}, // degenerate input range
	}
	for _, tc := range cases {
		got := Map(tc.x, tc.inMin, tc.inMax, tc.outMin, tc.outMax)
		if got != tc.want {
			t.Errorf("Map(%d,[%d,%d]->[%d,%d]) = %d, want %d",
				tc.x, tc.inMin, tc.inMax, tc.outMin, tc.outMax, got, tc.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	if Min(2, 3) != 2 || Max(2, 3) != 3 {
		t.Fatal("min/max")
	}
}
