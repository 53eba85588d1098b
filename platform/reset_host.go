//go:build !(rp2040 || rp2350)

package platform

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/google/shlex"
	"golang.org/x/sys/unix"
)

// ExecResetter runs Command to restart the service (for example
// "systemctl restart homeclimate-reporter"). With no command it replaces
// the current process with a fresh copy of itself.
type ExecResetter struct {
	Command string

	start  func(name string, args ...string) error
	reexec func(argv0 string, argv, envv []string) error
}

func NewExecResetter(command string) *ExecResetter {
	return &ExecResetter{
		Command: command,
		start: func(name string, args ...string) error {
			cmd := exec.Command(name, args...)
			cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
			return cmd.Start()
		},
		reexec: unix.Exec,
	}
}

func (r *ExecResetter) Reset(reason string) error {
	if r.Command != "" {
		args, err := shlex.Split(r.Command)
		if err != nil {
			return fmt.Errorf("parse restart command: %w", err)
		}
		if len(args) == 0 {
			return fmt.Errorf("restart command is empty")
		}
		log.Warnf("restart (%s): %s", reason, r.Command)
		return r.start(args[0], args[1:]...)
	}
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	log.Warnf("restart (%s): re-exec %s", reason, self)
	// Only returns on failure.
	return r.reexec(self, os.Args, os.Environ())
}
