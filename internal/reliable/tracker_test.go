package reliable

import (
	"errors"
	"testing"

	"github.com/lh2uav/groundlink/internal/protocol"
)

func TestTrySendRejectsWhilePending(t *testing.T) {
	tr := New()
	sends := 0
	send := func() error { sends++; return nil }

	if err := tr.TrySend("set heater 50", send); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := tr.TrySend("set heater 60", send); !errors.Is(err, ErrCommandPending) {
		t.Fatalf("expected ErrCommandPending, got %v", err)
	}
	if sends != 1 {
		t.Fatalf("send invoked %d times", sends)
	}

	tr.OnAck(protocol.ReliableCmdAck{MsgType: 0x12, Seq: 7, Status: 0})
	if err := tr.TrySend("set heater 60", send); err != nil {
		t.Fatalf("send after ack: %v", err)
	}
	if sends != 2 {
		t.Fatalf("send invoked %d times", sends)
	}
}

func TestGateDisabledAllowsOverlap(t *testing.T) {
	tr := New()
	tr.SetGate(false)
	send := func() error { return nil }
	if err := tr.TrySend("a", send); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := tr.TrySend("b", send); err != nil {
		t.Fatalf("overlap with gate off: %v", err)
	}
	snap := tr.Snapshot()
	if snap.State != StateWaitAck || snap.Description != "b" {
		t.Fatalf("state still tracked for display: %+v", snap)
	}
}

func TestRetryCountTrustedVerbatim(t *testing.T) {
	tr := New()
	if err := tr.TrySend("set valve 10", func() error { return nil }); err != nil {
		t.Fatalf("send: %v", err)
	}
	tr.OnRetry(protocol.ReliableCmdRetry{MsgType: 0x12, Seq: 3, RetryN: 2})

	snap := tr.Snapshot()
	if snap.RetryN != 2 || snap.State != StateRetry {
		t.Fatalf("retry snapshot: %+v", snap)
	}
	if !snap.Pending {
		t.Fatalf("retry cleared pending")
	}
	// Still gated.
	if err := tr.TrySend("x", func() error { return nil }); !errors.Is(err, ErrCommandPending) {
		t.Fatalf("expected rejection during RETRY, got %v", err)
	}
}

func TestFailClearsPending(t *testing.T) {
	tr := New()
	_ = tr.TrySend("mode auto", func() error { return nil })
	tr.OnFail(protocol.ReliableCmdFail{MsgType: 0x12, Seq: 9})

	snap := tr.Snapshot()
	if snap.Pending || snap.State != StateFailed {
		t.Fatalf("fail snapshot: %+v", snap)
	}
	if err := tr.TrySend("mode safe", func() error { return nil }); err != nil {
		t.Fatalf("send after fail: %v", err)
	}
}

func TestBusyAdvisoryDoesNotTouchPending(t *testing.T) {
	tr := New()
	_ = tr.TrySend("lora ping", func() error { return nil })
	tr.OnBusy(protocol.ReliableCmdBusyWarn{BusyS: 2.5})

	snap := tr.Snapshot()
	if !snap.Pending || snap.State != StateWaitAck {
		t.Fatalf("busy altered gate state: %+v", snap)
	}
	if !snap.HasBusy || snap.BusyS != 2.5 {
		t.Fatalf("busy advisory not recorded: %+v", snap)
	}

	tr2 := New()
	tr2.OnBusy(protocol.ReliableCmdBusyWarn{BusyS: 1.0})
	if err := tr2.TrySend("mode manual", func() error { return nil }); err != nil {
		t.Fatalf("busy blocked a send: %v", err)
	}
}

func TestSendErrorMarksFailed(t *testing.T) {
	tr := New()
	boom := errors.New("port closed")
	if err := tr.TrySend("set heater 5", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected send error, got %v", err)
	}
	snap := tr.Snapshot()
	if snap.Pending || snap.State != StateFailed {
		t.Fatalf("after send error: %+v", snap)
	}
}

func TestResetReturnsToIdleKeepingGate(t *testing.T) {
	tr := New()
	tr.SetGate(false)
	_ = tr.TrySend("a", func() error { return nil })
	tr.Reset()

	snap := tr.Snapshot()
	if snap.State != StateIdle || snap.Pending || snap.Description != "" {
		t.Fatalf("reset snapshot: %+v", snap)
	}
	if tr.Gate() {
		t.Fatalf("reset flipped the gate")
	}
}
