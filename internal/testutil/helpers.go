package testutil

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// ErrPeerTerminated is returned by a ScriptedPeer after Terminate
var ErrPeerTerminated = errors.New("scripted peer terminated")

// ScriptedPeer is a line channel that replays queued lines and records
// everything written to it. Once the script runs out, reads return
// ReadErr (io.EOF by default).
type ScriptedPeer struct {
	mu         sync.Mutex
	script     []string
	written    []string
	terminated bool

	ReadErr error
	// Respond, when set, is called for every written line and its result
	// is appended to the script
	Respond func(line string) []string
}

// NewScriptedPeer creates a peer that will answer reads with lines in order
func NewScriptedPeer(lines ...string) *ScriptedPeer {
	return &ScriptedPeer{script: append([]string(nil), lines...)}
}

// Queue appends lines to the script
func (p *ScriptedPeer) Queue(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, lines...)
}

func (p *ScriptedPeer) WriteLine(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminated {
		return ErrPeerTerminated
	}
	p.written = append(p.written, line)
	if p.Respond != nil {
		p.script = append(p.script, p.Respond(line)...)
	}
	return nil
}

func (p *ScriptedPeer) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminated {
		return "", io.EOF
	}
	if len(p.script) == 0 {
		if p.ReadErr != nil {
			return "", p.ReadErr
		}
		return "", io.EOF
	}
	line := p.script[0]
	p.script = p.script[1:]
	return line, nil
}

func (p *ScriptedPeer) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.terminated = true
	return nil
}

// Written returns a copy of every line written so far
func (p *ScriptedPeer) Written() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.written...)
}

// Terminated reports whether Terminate has been called
func (p *ScriptedPeer) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}
