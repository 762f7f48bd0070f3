// Package ingest runs the single-consumer line loop: transport lines
// are decoded and dispatched in arrival order, one at a time. All
// filter, store and tracker mutation happens on this one goroutine.
package ingest

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lh2uav/groundlink/internal/observability"
	"github.com/lh2uav/groundlink/internal/protocol"
	"github.com/lh2uav/groundlink/internal/reliable"
	"github.com/lh2uav/groundlink/internal/store"
	"github.com/lh2uav/groundlink/internal/transport"
)

// LogSink receives console-visible lines (acks, command status,
// unrecognized output) for the operator log.
type LogSink func(line string)

// Loop consumes one transport link and feeds the store and tracker.
type Loop struct {
	link    transport.Link
	store   *store.Store
	tracker *reliable.Tracker
	sink    LogSink
	log     zerolog.Logger
}

func New(link transport.Link, st *store.Store, tr *reliable.Tracker, sink LogSink, log zerolog.Logger) *Loop {
	if sink == nil {
		sink = func(string) {}
	}
	return &Loop{link: link, store: st, tracker: tr, sink: sink, log: log}
}

// Run consumes lines until the link closes, then resets the tracker so
// a stale pending command cannot gate sends on the next connection.
// It is meant to run on its own goroutine; Process is never invoked
// concurrently.
func (l *Loop) Run() {
	for line := range l.link.Lines() {
		l.Process(line)
	}
	l.tracker.Reset()
	l.log.Info().Msg("link closed, tracker reset")
}

// Process decodes and dispatches one line.
func (l *Loop) Process(line string) {
	ev, ok := protocol.Parse(line)
	if !ok {
		return
	}

	switch e := ev.(type) {
	case protocol.TelemetryFrame:
		observability.RecordLine("telemetry")
		observability.RecordTelemetryFrame()
		l.store.AddTelem(e)
	case protocol.AckFrame:
		observability.RecordLine("ack")
		l.sink(line)
		l.log.Debug().Int("msg", e.MsgType).Int("status", e.Status).Msg("ack")
	case protocol.ReliableCmdAck:
		observability.RecordLine("cmd_ack")
		l.tracker.OnAck(e)
		l.sink(line)
	case protocol.ReliableCmdRetry:
		observability.RecordLine("cmd_retry")
		observability.RecordCommandRetry()
		l.tracker.OnRetry(e)
		l.sink(line)
		l.log.Warn().Int("retry", e.RetryN).Uint64("seq", e.Seq).Msg("command retry")
	case protocol.ReliableCmdFail:
		observability.RecordLine("cmd_fail")
		observability.RecordCommandFailure()
		l.tracker.OnFail(e)
		l.sink(line)
		l.log.Warn().Int("msg", e.MsgType).Uint64("seq", e.Seq).Msg("command failed")
	case protocol.ReliableCmdBusyWarn:
		observability.RecordLine("cmd_busy")
		l.tracker.OnBusy(e)
		l.sink(line)
	case protocol.RawLine:
		observability.RecordLine("raw")
		l.sink(e.Line)
	default:
		// Closed union; a new variant here is a programming error.
		l.sink(fmt.Sprintf("unhandled event %T", e))
	}
}

// SendReliable routes a reliable command through the tracker gate and
// out the link.
func (l *Loop) SendReliable(description, text string) error {
	err := l.tracker.TrySend(description, func() error {
		return l.link.Send(text)
	})
	if errors.Is(err, reliable.ErrCommandPending) {
		observability.RecordSendRejected()
	}
	return err
}

// Send writes a fire-and-forget command straight to the link.
func (l *Loop) Send(text string) error {
	return l.link.Send(text)
}
