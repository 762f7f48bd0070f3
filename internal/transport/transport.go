// Package transport owns the serial/radio link: opening the port,
// framing console output into text lines and writing newline-
// terminated commands. It performs no parsing beyond UTF-8 cleanup.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// ErrClosed is returned by Send after the link has been closed.
var ErrClosed = errors.New("transport: link closed")

// Link is one bidirectional text-line connection to the gateway.
// Lines yields newline-stripped UTF-8 lines and is closed when the
// link goes down; Send writes one newline-terminated command.
type Link interface {
	Lines() <-chan string
	Send(text string) error
	Close() error
}

// ioLink adapts any io.ReadWriteCloser into a Link. The serial port
// implementation builds on it; tests drive it with in-memory pipes.
type ioLink struct {
	rwc   io.ReadWriteCloser
	lines chan string

	mu     sync.Mutex
	closed bool
}

// NewIOLink wraps rwc and starts the reader goroutine.
func NewIOLink(rwc io.ReadWriteCloser) Link {
	l := &ioLink{
		rwc:   rwc,
		lines: make(chan string, 256),
	}
	go l.readLoop()
	return l
}

func (l *ioLink) readLoop() {
	defer close(l.lines)
	sc := bufio.NewScanner(l.rwc)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !utf8.ValidString(line) {
			line = strings.ToValidUTF8(line, "")
		}
		l.lines <- line
	}
}

func (l *ioLink) Lines() <-chan string { return l.lines }

func (l *ioLink) Send(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(l.rwc, text); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (l *ioLink) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()
	return l.rwc.Close()
}
