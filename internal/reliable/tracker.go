// Package reliable tracks the acknowledgement lifecycle of reliable
// downlink commands and gates overlapping sends to at most one in
// flight.
package reliable

import (
	"errors"
	"sync"

	"github.com/lh2uav/groundlink/internal/protocol"
)

// ErrCommandPending is the recoverable rejection returned when the
// gate is enabled and a command is still awaiting ACK/FAIL.
var ErrCommandPending = errors.New("reliable: previous command still awaiting ack")

// State labels the tracker for display. Acked and Failed are terminal
// display states; neither means a command is pending.
type State string

const (
	StateIdle    State = "IDLE"
	StateWaitAck State = "WAIT_ACK"
	StateRetry   State = "RETRY"
	StateAcked   State = "ACK"
	StateFailed  State = "FAIL"
)

// Snapshot is a consistent view of the tracker for display.
type Snapshot struct {
	State       State
	Pending     bool
	Description string
	RetryN      int
	LastMsgType int
	LastSeq     uint64
	HasLast     bool
	LastStatus  int
	// Busy advisory; orthogonal to the pending state.
	BusyS   float64
	HasBusy bool
}

// Tracker is the reliable-command state machine. The check-and-set in
// TrySend and the event handlers share one mutex, so the gate is
// atomic relative to the ingestion sequence.
type Tracker struct {
	mu sync.Mutex

	gate bool

	state   State
	pending bool
	desc    string
	retryN  int

	lastMsg    int
	lastSeq    uint64
	hasLast    bool
	lastStatus int

	busyS   float64
	hasBusy bool
}

// New returns an idle tracker. The gate starts enabled.
func New() *Tracker {
	return &Tracker{gate: true, state: StateIdle}
}

// SetGate enables or disables the single-in-flight gate. With the gate
// disabled, TrySend never rejects; tracker state still updates for
// display.
func (t *Tracker) SetGate(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gate = enabled
}

// Gate reports whether the gate is enabled.
func (t *Tracker) Gate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gate
}

// TrySend attempts to issue a reliable command. With the gate enabled
// and a command pending, the attempt returns ErrCommandPending and
// send is never invoked. Otherwise the tracker moves to WAIT_ACK and
// send runs; a send error clears pending and marks FAIL.
func (t *Tracker) TrySend(description string, send func() error) error {
	t.mu.Lock()
	if t.gate && t.pending {
		t.mu.Unlock()
		return ErrCommandPending
	}
	t.pending = true
	t.desc = description
	t.retryN = 0
	t.state = StateWaitAck
	t.hasLast = false
	t.mu.Unlock()

	if err := send(); err != nil {
		t.mu.Lock()
		t.pending = false
		t.state = StateFailed
		t.mu.Unlock()
		return err
	}
	return nil
}

// OnAck resolves the pending command as acknowledged.
func (t *Tracker) OnAck(e protocol.ReliableCmdAck) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastMsg = e.MsgType
	t.lastSeq = e.Seq
	t.hasLast = true
	t.lastStatus = e.Status
	t.pending = false
	t.state = StateAcked
}

// OnRetry records the device-reported retry count verbatim; the
// command stays pending.
func (t *Tracker) OnRetry(e protocol.ReliableCmdRetry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastMsg = e.MsgType
	t.lastSeq = e.Seq
	t.hasLast = true
	t.retryN = e.RetryN
	t.state = StateRetry
}

// OnFail resolves the pending command as failed.
func (t *Tracker) OnFail(e protocol.ReliableCmdFail) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastMsg = e.MsgType
	t.lastSeq = e.Seq
	t.hasLast = true
	t.pending = false
	t.state = StateFailed
}

// OnBusy records the advisory for display. It never sets or clears
// pending and never blocks subsequent sends.
func (t *Tracker) OnBusy(e protocol.ReliableCmdBusyWarn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busyS = e.BusyS
	t.hasBusy = true
}

// Reset returns the tracker to idle. Used on transport disconnect and
// reconnect; the gate setting survives.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIdle
	t.pending = false
	t.desc = ""
	t.retryN = 0
	t.hasLast = false
	t.lastStatus = 0
	t.busyS = 0
	t.hasBusy = false
}

// Snapshot returns the display view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		State:       t.state,
		Pending:     t.pending,
		Description: t.desc,
		RetryN:      t.retryN,
		LastMsgType: t.lastMsg,
		LastSeq:     t.lastSeq,
		HasLast:     t.hasLast,
		LastStatus:  t.lastStatus,
		BusyS:       t.busyS,
		HasBusy:     t.hasBusy,
	}
}
