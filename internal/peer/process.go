package peer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// Process is a Channel to a spawned child. The child's stdin and stdout
// carry the protocol; its stderr is discarded.
type Process struct {
	cmd    *exec.Cmd
	reader *lineReader
	writer *lineWriter
	stdout *os.File
	exited chan struct{}
	once   sync.Once
}

// Spawn starts command with args. ctx only bounds the start itself; the
// child lives until Terminate or until it exits on its own.
func Spawn(ctx context.Context, command string, args []string, opts Options) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		stdinR.Close()
		stdinW.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	cmd := exec.Command(command, args...)
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW

	if err := cmd.Start(); err != nil {
		stdinR.Close()
		stdinW.Close()
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("start %s: %w", command, err)
	}
	// The child holds its own copies of these ends.
	stdinR.Close()
	stdoutW.Close()

	logger := opts.Logger.With().
		Str("command", command).
		Int("pid", cmd.Process.Pid).
		Logger()
	opts.Logger = logger

	p := &Process{
		cmd:    cmd,
		reader: newLineReader(stdoutR, opts),
		writer: &lineWriter{w: stdinW},
		stdout: stdoutR,
		exited: make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		logger.Debug().Err(err).Msg("Peer process exited")
		close(p.exited)
	}()

	logger.Debug().Strs("args", args).Msg("Spawned peer process")
	return p, nil
}

// pid returns the child's process id
func (p *Process) pid() int {
	return p.cmd.Process.Pid
}

func (p *Process) WriteLine(line string) error {
	return p.writer.writeLine(line)
}

func (p *Process) ReadLine(ctx context.Context) (string, error) {
	return p.reader.read(ctx)
}

// Terminate kills the child if it is still running. It does not wait for
// the child; reaping happens in the background.
func (p *Process) Terminate() error {
	var err error
	p.once.Do(func() {
		p.reader.close()
		p.writer.close()
		select {
		case <-p.exited:
		default:
			if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
				err = kerr
			}
		}
		p.stdout.Close()
	})
	return err
}
