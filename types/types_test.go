package types

import "testing"

func TestProfileSteps(t *testing.T) {
	cases := []struct {
		p    Profile
		want int
	}{
		{Instant, 1},
		{Fast, 10},
		{Medium, 20},
		{Slow, 40},
		{Bounce, 30},
		{Profile(7), 0},
	}
	for _, tc := range cases {
		if got := tc.p.Steps(30); got != tc.want {
			t.Errorf("%v.Steps = %d, want %d", tc.p, got, tc.want)
		}
	}
}

func TestProfileValid(t *testing.T) {
	for p := Instant; p <= Bounce; p++ {
		if !p.Valid() {
			t.Errorf("%v invalid", p)
		}
	}
	if Profile(5).Valid() {
		t.Error("profile 5 valid")
	}
}

func TestProfileString(t *testing.T) {
	if Bounce.String() != "bounce" || Profile(9).String() != "unknown" {
		t.Fatalf("%q %q", Bounce.String(), Profile(9).String())
	}
}
