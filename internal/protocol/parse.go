package protocol

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numPat matches the numeric tokens the firmware prints: ordinary
// signed decimals with optional exponent, plus nan/inf/-inf in any
// case.
const numPat = `(?i:nan|inf|-inf|[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?)`

var (
	reTelem = regexp.MustCompile(
		`^\[TELEM\]\s+t=(\d+)\s+T0=(` + numPat + `)\s+T1=(` + numPat + `)\s+P\(Pa\)=(` + numPat +
			`)\s+heater=%=(` + numPat + `)\s+valve=%=(` + numPat + `)\s*$`)
	reAck      = regexp.MustCompile(`^\[ACK\]\s+for=0x([0-9a-fA-F]+)\s+status=([-+]?\d+)\s*$`)
	reCmdAck   = regexp.MustCompile(`^\[CMD\]\s+ACK received for msg=0x([0-9a-fA-F]+)\s+seq=(\d+)\s+status=([-+]?\d+)\s*$`)
	reCmdRetry = regexp.MustCompile(`^\[CMD\]\s+RETRY #(\d+)\s+msg=0x([0-9a-fA-F]+)\s+seq=(\d+)\s*$`)
	reCmdFail  = regexp.MustCompile(`^\[CMD\]\s+FAIL:\s+no ACK for msg=0x([0-9a-fA-F]+)\s+seq=(\d+)\s*$`)
	reCmdBusy  = regexp.MustCompile(`^\[CMD\]\s+WARNING:\s+LoRa TX busy >\s*([0-9.]+)s.*$`)
)

// Parse decodes a single console line.
//
// Empty or whitespace-only input yields no event. The six grammars are
// tried in priority order; the first match wins. Anything else comes
// back as RawLine with the trimmed text. Parse never fails: a numeric
// token that does not parse degrades to NaN for that field only.
func Parse(line string) (Event, bool) {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil, false
	}

	if m := reTelem.FindStringSubmatch(text); m != nil {
		return TelemetryFrame{
			TMs:       parseUint(m[1]),
			T0C:       parseNum(m[2]),
			T1C:       parseNum(m[3]),
			PPa:       parseNum(m[4]),
			HeaterPct: parseNum(m[5]),
			ValvePct:  parseNum(m[6]),
		}, true
	}
	if m := reAck.FindStringSubmatch(text); m != nil {
		return AckFrame{MsgType: parseHex(m[1]), Status: parseInt(m[2])}, true
	}
	if m := reCmdAck.FindStringSubmatch(text); m != nil {
		return ReliableCmdAck{MsgType: parseHex(m[1]), Seq: parseUint(m[2]), Status: parseInt(m[3])}, true
	}
	if m := reCmdRetry.FindStringSubmatch(text); m != nil {
		return ReliableCmdRetry{RetryN: parseInt(m[1]), MsgType: parseHex(m[2]), Seq: parseUint(m[3])}, true
	}
	if m := reCmdFail.FindStringSubmatch(text); m != nil {
		return ReliableCmdFail{MsgType: parseHex(m[1]), Seq: parseUint(m[2])}, true
	}
	if m := reCmdBusy.FindStringSubmatch(text); m != nil {
		return ReliableCmdBusyWarn{BusyS: parseNum(m[1])}, true
	}

	return RawLine{Line: text}, true
}

// parseNum never fails; ParseFloat already accepts nan/inf/-inf in any
// case, and anything unparseable degrades to NaN.
func parseNum(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseUint(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseHex(s string) int {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
