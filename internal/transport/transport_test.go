package transport

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

// pipeRWC is a closable in-memory read/write endpoint for tests.
type pipeRWC struct {
	r io.Reader
	w *bytes.Buffer

	mu     sync.Mutex
	closed bool
}

func (p *pipeRWC) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, io.EOF
	}
	p.mu.Unlock()
	return p.r.Read(b)
}

func (p *pipeRWC) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("closed")
	}
	return p.w.Write(b)
}

func (p *pipeRWC) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func collect(t *testing.T, lines <-chan string, n int) []string {
	t.Helper()
	out := make([]string, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case line, ok := <-lines:
			if !ok {
				return out
			}
			out = append(out, line)
		case <-timeout:
			t.Fatalf("timed out after %d lines: %v", len(out), out)
		}
	}
	return out
}

func TestLinesStripCRAndInvalidUTF8(t *testing.T) {
	in := bytes.NewBufferString("[TELEM] a\r\nplain\nbad\xff\xfebytes\n")
	p := &pipeRWC{r: in, w: &bytes.Buffer{}}
	l := NewIOLink(p)
	defer l.Close()

	got := collect(t, l.Lines(), 3)
	if got[0] != "[TELEM] a" || got[1] != "plain" {
		t.Fatalf("lines: %v", got)
	}
	if got[2] != "badbytes" {
		t.Fatalf("invalid bytes not dropped: %q", got[2])
	}
}

func TestLinesChannelClosesOnEOF(t *testing.T) {
	p := &pipeRWC{r: bytes.NewBufferString("only\n"), w: &bytes.Buffer{}}
	l := NewIOLink(p)
	defer l.Close()

	got := collect(t, l.Lines(), 1)
	if len(got) != 1 {
		t.Fatalf("lines: %v", got)
	}
	select {
	case _, ok := <-l.Lines():
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("channel did not close on EOF")
	}
}

func TestSendAppendsNewline(t *testing.T) {
	out := &bytes.Buffer{}
	p := &pipeRWC{r: bytes.NewBuffer(nil), w: out}
	l := NewIOLink(p)

	if err := l.Send("lora stat"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := l.Send("mode auto\n"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := out.String(); got != "lora stat\nmode auto\n" {
		t.Fatalf("written: %q", got)
	}

	l.Close()
	if err := l.Send("x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
