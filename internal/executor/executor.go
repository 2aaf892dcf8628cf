// Package executor supervises package-manager child processes: bounded
// output capture, timeout with a graceful-then-forceful kill, and
// guaranteed reaping on every exit path (completion, timeout,
// cancellation, or supervisor fault).
package executor

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultGracePeriod is how long a child gets to exit after the interrupt
// signal before it is killed.
const DefaultGracePeriod = 2 * time.Second

// Result is the outcome of exactly one supervised execution. Exit code 0
// with TimedOut false is the only success signal.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	TimedOut  bool
	Truncated bool
	Duration  time.Duration
}

// Process is the minimal child-process handle the supervisor needs.
type Process interface {
	Wait() error
	Kill() error
	Signal(sig os.Signal) error
}

// ProcessFactory starts child processes. Consumer-defined so tests can
// supply in-memory processes; production uses OSProcessFactory.
type ProcessFactory interface {
	Start(ctx context.Context, argv []string, dir string, env []string) (Process, io.Reader, io.Reader, error)
}

// Supervisor runs commands under output and time bounds.
type Supervisor struct {
	factory   ProcessFactory
	maxOutput int
	grace     time.Duration
	log       zerolog.Logger
}

// NewSupervisor creates a Supervisor. maxOutput caps each captured stream
// in bytes; grace is the window between interrupt and kill on timeout.
func NewSupervisor(factory ProcessFactory, maxOutput int64, grace time.Duration, log zerolog.Logger) *Supervisor {
	if factory == nil {
		panic("factory is required")
	}
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Supervisor{
		factory:   factory,
		maxOutput: int(maxOutput),
		grace:     grace,
		log:       log,
	}
}

// Run executes argv in dir with the base environment overlaid by env,
// and returns exactly one Result. A non-zero exit is data, not an error;
// the error return is reserved for supervisor-level faults (start
// failure) and caller cancellation.
func (s *Supervisor) Run(ctx context.Context, argv []string, dir string, env map[string]string, timeout time.Duration) (*Result, error) {
	if len(argv) == 0 {
		return nil, os.ErrInvalid
	}

	fullEnv := os.Environ()
	for k, v := range env {
		fullEnv = append(fullEnv, k+"="+v)
	}

	s.log.Debug().Strs("argv", argv).Str("dir", dir).Dur("timeout", timeout).Msg("starting command")
	start := time.Now()

	proc, stdout, stderr, err := s.factory.Start(ctx, argv, dir, fullEnv)
	if err != nil {
		return nil, err
	}

	stdoutC := newCollector(s.maxOutput)
	stderrC := newCollector(s.maxOutput)

	// Drain both pipes concurrently; collection must finish before Wait's
	// result is interpreted, and must never block the timeout select.
	collectDone := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = io.Copy(stdoutC, stdout)
		}()
		go func() {
			defer wg.Done()
			_, _ = io.Copy(stderrC, stderr)
		}()
		wg.Wait()
		close(collectDone)
	}()

	waitDone := make(chan error, 1)
	go func() {
		waitDone <- proc.Wait()
	}()

	var execErr error
	timedOut := false
	select {
	case err := <-waitDone:
		execErr = err
	case <-ctx.Done():
		// Caller cancellation: the child must not outlive the request.
		_ = proc.Kill()
		<-waitDone
		<-collectDone
		return nil, ctx.Err()
	case <-time.After(timeout):
		timedOut = true
		_ = proc.Signal(os.Interrupt)
		select {
		case <-waitDone:
		case <-time.After(s.grace):
			_ = proc.Kill()
			<-waitDone
		}
	}

	<-collectDone

	result := &Result{
		Stdout:    stdoutC.String(),
		Stderr:    stderrC.String(),
		TimedOut:  timedOut,
		Truncated: stdoutC.truncated || stderrC.truncated,
		Duration:  time.Since(start),
	}

	switch {
	case timedOut:
		result.ExitCode = -1
	case execErr != nil:
		result.ExitCode = exitCode(execErr)
	}

	s.log.Debug().
		Int("exit_code", result.ExitCode).
		Bool("timed_out", result.TimedOut).
		Bool("truncated", result.Truncated).
		Dur("duration", result.Duration).
		Msg("command finished")

	return result, nil
}

// exitCode extracts the exit code from a Wait error. Returns -1 for
// error types that carry no code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	type exitCoder interface {
		ExitCode() int
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}
