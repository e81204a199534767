// Package exec implements the side-effecting executors behind the
// dispatcher: opening paths, launching applications, running system
// actions, and speaking text. Everything goes through the Runner seam
// so tests never spawn processes.
package exec

import (
	"context"
	"fmt"
	osexec "os/exec"
	"strings"
)

// Runner abstracts process execution. Run waits for completion (short
// OS utilities); Launch starts a long-lived process without waiting.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Launch(name string, args ...string) error
}

type CommandRunner struct{}

func (CommandRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := osexec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (CommandRunner) Launch(name string, args ...string) error {
	cmd := osexec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}
	// Reap the child when it eventually exits.
	go cmd.Wait()
	return nil
}
