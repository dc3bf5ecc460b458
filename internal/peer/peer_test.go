package peer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/navalhub/internal/testutil"
)

func TestPipe_RoundTrip(t *testing.T) {
	hub, agent := NewPipe(Options{Logger: testutil.NopLogger()})
	defer hub.Terminate()
	defer agent.Terminate()
	ctx := context.Background()

	go func() {
		_ = hub.WriteLine("RULES 8,8,1,2")
	}()
	line, err := agent.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "RULES 8,8,1,2", line)

	go func() {
		_ = agent.WriteLine("MAP A1,E")
	}()
	line, err = hub.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MAP A1,E", line)
}

func TestPipe_TerminateGivesEOF(t *testing.T) {
	hub, agent := NewPipe(Options{})
	require.NoError(t, hub.Terminate())

	_, err := agent.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	assert.ErrorIs(t, hub.WriteLine("YT"), ErrClosed)
	assert.NoError(t, hub.Terminate(), "terminate is idempotent")
	agent.Terminate()
}

func TestStream_SplitsLines(t *testing.T) {
	var out strings.Builder
	s := NewStream(strings.NewReader("YT\r\nOK\nHIT 1,A1"), &out, Options{})
	ctx := context.Background()

	for _, want := range []string{"YT", "OK", "HIT 1,A1"} {
		line, err := s.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
	_, err := s.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.ReadLine(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, s.WriteLine("GUESS A1"))
	assert.Equal(t, "GUESS A1\n", out.String())
}

func TestStream_ReadTimeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	s := NewStream(r, io.Discard, Options{ReadTimeout: 20 * time.Millisecond})
	defer s.Terminate()

	_, err := s.ReadLine(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestStream_ReadHonoursContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	s := NewStream(r, io.Discard, Options{})
	defer s.Terminate()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.ReadLine(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSpawn_Echo(t *testing.T) {
	p, err := Spawn(context.Background(), "cat", nil, Options{ReadTimeout: 5 * time.Second})
	if err != nil {
		t.Skipf("cat not available: %v", err)
	}
	defer p.Terminate()

	require.NoError(t, p.WriteLine("YT"))
	line, err := p.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "YT", line)
	assert.Positive(t, p.pid())

	require.NoError(t, p.Terminate())
	select {
	case <-p.exited:
	case <-time.After(5 * time.Second):
		t.Fatal("child was not reaped")
	}
}

func TestSpawn_ChildExitGivesEOF(t *testing.T) {
	p, err := Spawn(context.Background(), "sh", []string{"-c", "echo MAP A1,E"}, Options{ReadTimeout: 5 * time.Second})
	if err != nil {
		t.Skipf("sh not available: %v", err)
	}
	defer p.Terminate()

	line, err := p.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MAP A1,E", line)

	_, err = p.ReadLine(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSpawn_MissingCommand(t *testing.T) {
	_, err := Spawn(context.Background(), "/nonexistent/agent", nil, Options{})
	assert.Error(t, err)
}

func TestSpawn_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Spawn(ctx, "cat", nil, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
