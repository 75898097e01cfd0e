package platform

import (
	"context"
	"fmt"
	"os/exec"
)

// Runner executes external commands on behalf of native metric
// sources. Sources depend on this interface rather than os/exec so
// tests can substitute canned command output.
type Runner interface {
	// Run executes name with args and returns its stdout. The context
	// bounds execution; a deadline kills the process.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- command names and args come from fixed per-OS tables, never user input
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timed out: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
