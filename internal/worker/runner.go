package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/IshaanNene/RivalScope/internal/types"
)

// Invocation is one worker process spawn.
type Invocation struct {
	Binary  string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// Runner executes a worker invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, inv Invocation) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, inv Invocation) ([]byte, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, inv Invocation) ([]byte, error) {
	return f(ctx, inv)
}

// ExecRunner spawns the worker as an OS process and kills it at the deadline.
type ExecRunner struct {
	// Stderr receives the worker's diagnostics. Nil discards them.
	Stderr io.Writer

	// MaxOutput bounds how much stdout is kept.
	MaxOutput int64
}

// Run implements Runner. It returns types.ErrTimeout when the deadline
// killed the process. A non-zero exit is not an error on its own; the caller
// judges the captured stdout.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) ([]byte, error) {
	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, inv.Binary, inv.Args...)
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.WaitDelay = 2 * time.Second

	var stdout bytes.Buffer
	if r.MaxOutput > 0 {
		cmd.Stdout = &limitedWriter{w: &stdout, n: r.MaxOutput}
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = r.Stderr

	err := cmd.Run()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", types.ErrTimeout, inv.Timeout)
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	return stdout.Bytes(), nil
}

// limitedWriter drops writes beyond n bytes while reporting success so the
// worker never blocks on a full pipe.
type limitedWriter struct {
	w io.Writer
	n int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if l.n <= 0 {
		return total, nil
	}
	if int64(len(p)) > l.n {
		p = p[:l.n]
	}
	n, err := l.w.Write(p)
	l.n -= int64(n)
	if err != nil {
		return n, err
	}
	return total, nil
}
