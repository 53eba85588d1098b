//go:build !(rp2040 || rp2350)

package platform

import (
	"errors"
	"os"
	"testing"
)

func TestExecResetterRunsCommand(t *testing.T) {
	var name string
	var args []string
	r := NewExecResetter(`systemctl restart "home climate"`)
	r.start = func(n string, a ...string) error { name, args = n, a; return nil }
	r.reexec = func(string, []string, []string) error { t.Fatal("unexpected re-exec"); return nil }

	if err := r.Reset("test"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if name != "systemctl" || len(args) != 2 || args[1] != "home climate" {
		t.Fatalf("ran %q %q", name, args)
	}
}

func TestExecResetterBadCommand(t *testing.T) {
	r := NewExecResetter(`restart "unterminated`)
	r.start = func(string, ...string) error { t.Fatal("should not start"); return nil }
	if err := r.Reset("test"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExecResetterReexecsSelf(t *testing.T) {
	boom := errors.New("exec failed")
	var argv0 string
	r := NewExecResetter("")
	r.reexec = func(a0 string, argv, _ []string) error {
		argv0 = a0
		if len(argv) != len(os.Args) {
			t.Fatalf("argv = %q", argv)
		}
		return boom
	}
	if err := r.Reset("uptime"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if argv0 == "" {
		t.Fatal("re-exec target empty")
	}
}
