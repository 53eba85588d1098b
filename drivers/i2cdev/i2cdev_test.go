//go:build !(rp2040 || rp2350)

package i2cdev

import "testing"

func TestPath(t *testing.T) {
	if got := Path(1); got != "/dev/i2c-1" {
		t.Fatalf("Path(1) = %q", got)
	}
}

func TestParsePath(t *testing.T) {
	for in, want := range map[string]int{"/dev/i2c-1": 1, "3": 3, " /dev/i2c-10 ": 10} {
		got, err := ParsePath(in)
		if err != nil || got != want {
			t.Fatalf("ParsePath(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "/dev/i2c-", "/dev/i2c-x", "-1", "/dev/spidev0"} {
		if _, err := ParsePath(in); err == nil {
			t.Fatalf("ParsePath(%q) should fail", in)
		}
	}
}

func TestOpenMissingAdapter(t *testing.T) {
	if _, err := Open(9999); err == nil {
		t.Fatal("Open of a missing adapter should fail")
	}
}
