// Package peer provides the line channels the hub and agents talk over:
// child processes, plain reader/writer pairs, and in-memory pipes.
package peer

import (
	"bufio"
	"context"
	"errors"
	"io"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrClosed  = errors.New("peer closed")
	ErrTimeout = errors.New("peer read timed out")
)

// Channel is a duplex line channel to one peer
type Channel interface {
	// WriteLine sends line followed by a newline
	WriteLine(line string) error
	// ReadLine blocks for the next line, without its newline. It returns
	// io.EOF once the peer has closed its end.
	ReadLine(ctx context.Context) (string, error)
	// Terminate releases the channel and stops the peer
	Terminate() error
}

// Options tune a channel
type Options struct {
	// ReadTimeout bounds every ReadLine; zero waits forever
	ReadTimeout time.Duration
	Logger      zerolog.Logger
}

type lineResult struct {
	line string
	err  error
}

// lineReader pumps lines from r into a channel so that reads can be
// abandoned on cancellation or timeout
type lineReader struct {
	lines    chan lineResult
	stop     chan struct{}
	stopOnce sync.Once
	timeout  time.Duration
}

func newLineReader(r io.Reader, opts Options) *lineReader {
	lr := &lineReader{
		lines:   make(chan lineResult, 1),
		stop:    make(chan struct{}),
		timeout: opts.ReadTimeout,
	}
	logger := opts.Logger
	go func() {
		defer close(lr.lines)
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Msg("Peer reader panicked")
			}
		}()

		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line != "" && !lr.deliver(lineResult{line: strings.TrimRight(line, "\r\n")}) {
				return
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logger.Debug().Err(err).Msg("Peer read failed")
				}
				lr.deliver(lineResult{err: io.EOF})
				return
			}
		}
	}()
	return lr
}

func (lr *lineReader) deliver(res lineResult) bool {
	select {
	case lr.lines <- res:
		return true
	case <-lr.stop:
		return false
	}
}

func (lr *lineReader) close() {
	lr.stopOnce.Do(func() { close(lr.stop) })
}

func (lr *lineReader) read(ctx context.Context) (string, error) {
	var timeout <-chan time.Time
	if lr.timeout > 0 {
		t := time.NewTimer(lr.timeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case res, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timeout:
		return "", ErrTimeout
	}
}

// lineWriter serialises writes of whole lines
type lineWriter struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func (lw *lineWriter) writeLine(line string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.closed {
		return ErrClosed
	}
	_, err := io.WriteString(lw.w, line+"\n")
	return err
}

func (lw *lineWriter) close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.closed {
		return nil
	}
	lw.closed = true
	if c, ok := lw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Stream is a Channel over an arbitrary reader and writer, such as an
// agent's stdin and stdout
type Stream struct {
	reader *lineReader
	writer *lineWriter
	closer io.Closer
	once   sync.Once
}

// NewStream wraps r and w. Terminate closes w, and r too when it is an
// io.Closer.
func NewStream(r io.Reader, w io.Writer, opts Options) *Stream {
	s := &Stream{
		reader: newLineReader(r, opts),
		writer: &lineWriter{w: w},
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *Stream) WriteLine(line string) error {
	return s.writer.writeLine(line)
}

func (s *Stream) ReadLine(ctx context.Context) (string, error) {
	return s.reader.read(ctx)
}

func (s *Stream) Terminate() error {
	var err error
	s.once.Do(func() {
		s.reader.close()
		err = s.writer.close()
		if s.closer != nil {
			if cerr := s.closer.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}

// NewPipe returns two connected in-memory channels. Lines written on one
// are read from the other.
func NewPipe(opts Options) (*Stream, *Stream) {
	aRead, bWrite := io.Pipe()
	bRead, aWrite := io.Pipe()
	return NewStream(aRead, aWrite, opts), NewStream(bRead, bWrite, opts)
}
