package executor

import (
	"context"
	"io"
	"os"
	"os/exec"
)

// OSProcessFactory starts real child processes via os/exec. Commands are
// executed directly from the argument vector; nothing ever goes through a
// shell interpreter.
type OSProcessFactory struct{}

// NewOSProcessFactory creates the production process factory.
func NewOSProcessFactory() *OSProcessFactory {
	return &OSProcessFactory{}
}

// Start launches argv[0] with the remaining elements as arguments.
// The context is intentionally not wired into exec.CommandContext: the
// supervisor owns termination so it can apply the interrupt-then-kill
// sequence itself.
func (f *OSProcessFactory) Start(ctx context.Context, argv []string, dir string, env []string) (Process, io.Reader, io.Reader, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, &CommandError{Cmd: argv[0], Cause: err, Stage: "pipes"}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, nil, &CommandError{Cmd: argv[0], Cause: err, Stage: "pipes"}
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, nil, &CommandError{Cmd: argv[0], Cause: err, Stage: "start"}
	}

	return &osProcess{cmd: cmd}, stdout, stderr, nil
}

// osProcess adapts *exec.Cmd to the Process interface.
type osProcess struct {
	cmd *exec.Cmd
}

func (p *osProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *osProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func (p *osProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}
