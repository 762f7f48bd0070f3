package protocol

// Event is one decoded line from the gateway console. The set of
// variants is closed; consumers switch exhaustively over the concrete
// types and treat RawLine as the catch-all.
type Event interface {
	event()
}

// TelemetryFrame is one periodic sample reported by the controller.
//
// Pressure travels as Pascals on the wire; PkPa is the derived view
// used for display and storage.
type TelemetryFrame struct {
	TMs       uint64
	T0C       float64
	T1C       float64
	PPa       float64
	HeaterPct float64
	ValvePct  float64
}

func (TelemetryFrame) event() {}

// PkPa returns the pressure in kilopascals.
func (f TelemetryFrame) PkPa() float64 { return f.PPa / 1000.0 }

// AckFrame is a simple per-message acknowledgement.
type AckFrame struct {
	MsgType int
	Status  int
}

func (AckFrame) event() {}

// ReliableCmdAck confirms a reliable downlink command.
type ReliableCmdAck struct {
	MsgType int
	Seq     uint64
	Status  int
}

func (ReliableCmdAck) event() {}

// ReliableCmdRetry reports the gateway's n-th resend of a pending
// command. RetryN is the device-side count, trusted verbatim.
type ReliableCmdRetry struct {
	MsgType int
	Seq     uint64
	RetryN  int
}

func (ReliableCmdRetry) event() {}

// ReliableCmdFail reports that a reliable command exhausted retries.
type ReliableCmdFail struct {
	MsgType int
	Seq     uint64
}

func (ReliableCmdFail) event() {}

// ReliableCmdBusyWarn is an advisory: the LoRa TX path has been busy
// longer than BusyS seconds. It carries no pending-state semantics.
type ReliableCmdBusyWarn struct {
	BusyS float64
}

func (ReliableCmdBusyWarn) event() {}

// RawLine wraps any non-empty line no grammar recognized.
type RawLine struct {
	Line string
}

func (RawLine) event() {}
