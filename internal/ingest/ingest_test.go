package ingest

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lh2uav/groundlink/internal/filter"
	"github.com/lh2uav/groundlink/internal/reliable"
	"github.com/lh2uav/groundlink/internal/store"
	"github.com/lh2uav/groundlink/internal/transport"
)

// fakeLink feeds scripted lines and captures sends.
type fakeLink struct {
	lines chan string

	mu   sync.Mutex
	sent []string
}

func newFakeLink() *fakeLink {
	return &fakeLink{lines: make(chan string, 16)}
}

func (f *fakeLink) Lines() <-chan string { return f.lines }

func (f *fakeLink) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeLink) Close() error {
	close(f.lines)
	return nil
}

func (f *fakeLink) sentLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newLoop(link transport.Link, sink LogSink) (*Loop, *store.Store, *reliable.Tracker) {
	o := store.DefaultOptions()
	o.Filter = filter.Config{Mode: filter.ModeNone, Alpha: 0.2, WindowN: 3}
	st := store.New(o)
	tr := reliable.New()
	return New(link, st, tr, sink, zerolog.Nop()), st, tr
}

func TestProcessRoutesTelemetryToStore(t *testing.T) {
	link := newFakeLink()
	loop, st, _ := newLoop(link, nil)

	loop.Process("[TELEM] t=1234 T0=20.5 T1=20.6 P(Pa)=101300 heater=%=0.0 valve=%=0.0")
	cv := st.Current()
	if !cv.HasData || cv.T0C != 20.5 || cv.PkPa != 101.3 {
		t.Fatalf("store not fed: %+v", cv)
	}
}

func TestProcessRoutesReliableEventsToTracker(t *testing.T) {
	link := newFakeLink()
	var logged []string
	loop, _, tr := newLoop(link, func(l string) { logged = append(logged, l) })

	if err := loop.SendReliable("set heater 42", "set heater 42"); err != nil {
		t.Fatalf("send: %v", err)
	}
	loop.Process("[CMD] RETRY #2 msg=0x12 seq=7")
	if snap := tr.Snapshot(); snap.RetryN != 2 || !snap.Pending {
		t.Fatalf("retry not tracked: %+v", snap)
	}
	loop.Process("[CMD] ACK received for msg=0x12 seq=7 status=0")
	if snap := tr.Snapshot(); snap.Pending || snap.State != reliable.StateAcked {
		t.Fatalf("ack not tracked: %+v", snap)
	}
	if len(logged) != 2 {
		t.Fatalf("command lines not surfaced to log: %v", logged)
	}
}

func TestProcessSurfacesRawLines(t *testing.T) {
	link := newFakeLink()
	var logged []string
	loop, st, _ := newLoop(link, func(l string) { logged = append(logged, l) })

	loop.Process("boot: radio v1.4")
	loop.Process("   ")
	if len(logged) != 1 || logged[0] != "boot: radio v1.4" {
		t.Fatalf("raw surfacing: %v", logged)
	}
	if st.PlotSeries().Len() != 0 {
		t.Fatalf("raw line reached the store")
	}
}

func TestSendReliableGate(t *testing.T) {
	link := newFakeLink()
	loop, _, _ := newLoop(link, nil)

	if err := loop.SendReliable("a", "set heater 10"); err != nil {
		t.Fatalf("first: %v", err)
	}
	err := loop.SendReliable("b", "set heater 20")
	if !errors.Is(err, reliable.ErrCommandPending) {
		t.Fatalf("expected gate rejection, got %v", err)
	}
	if got := link.sentLines(); len(got) != 1 || got[0] != "set heater 10" {
		t.Fatalf("gate let a second send through: %v", got)
	}
}

func TestRunResetsTrackerOnLinkClose(t *testing.T) {
	link := newFakeLink()
	loop, _, tr := newLoop(link, nil)

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	if err := loop.SendReliable("x", "set valve 5"); err != nil {
		t.Fatalf("send: %v", err)
	}
	link.lines <- "[TELEM] t=1 T0=1 T1=1 P(Pa)=1000 heater=%=0 valve=%=0"
	link.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not exit on link close")
	}
	if snap := tr.Snapshot(); snap.Pending || snap.State != reliable.StateIdle {
		t.Fatalf("tracker not reset on disconnect: %+v", snap)
	}
}

func TestLoopOverIOLink(t *testing.T) {
	r, w := io.Pipe()
	rwc := struct {
		io.Reader
		io.Writer
		io.Closer
	}{r, io.Discard, r}
	link := transport.NewIOLink(rwc)
	loop, st, _ := newLoop(link, nil)

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	io.WriteString(w, "[TELEM] t=9 T0=2 T1=3 P(Pa)=4000 heater=%=5 valve=%=6\n")
	w.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not exit")
	}
	cv := st.Current()
	if cv.TelemMs != 9 || cv.PkPa != 4 {
		t.Fatalf("pipe-fed telemetry: %+v", cv)
	}
}
