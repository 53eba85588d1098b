package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	cause := errors.New("disk full")
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", NotFound, NotFound},
		{"wrapped code", fmt.Errorf("plot: %w", NoData), NoData},
		{"E", Wrap(IOError, "append", cause), IOError},
		{"wrapped E", fmt.Errorf("outer: %w", New(InvalidLocation, "parse", "bad name")), InvalidLocation},
		{"plain", cause, Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("%s: Of() = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("nack")
	err := Wrap(BusNACK, "aht20 init", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(%v, cause) = false", err)
	}
	if got, want := err.Error(), "aht20 init: bus_nack: nack"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if Wrap(BusNACK, "x", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}
