package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	wrapped := &E{C: BusError, Op: "i2c.Read", Err: errors.New("nak")}
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{BusError, BusError},
		{wrapped, BusError},
		{fmt.Errorf("line 3: %w", wrapped), BusError},
		{fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", Overlap)), Overlap},
		{errors.New("plain"), Error},
	}
	for _, tc := range cases {
		if got := Of(tc.err); got != tc.want {
			t.Errorf("Of(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestEMessage(t *testing.T) {
	e := &E{C: InvalidParams, Op: "provision", Msg: "bad vpin block"}
	if e.Error() != "invalid_params: bad vpin block" {
		t.Fatalf("error = %q", e.Error())
	}
	bare := &E{C: Rejected}
	if bare.Error() != "config_rejected" {
		t.Fatalf("error = %q", bare.Error())
	}
	if !errors.Is(&E{C: BusError, Err: ShortRead}, ShortRead) {
		t.Fatal("cause not reachable through Unwrap")
	}
}
