// Package command builds the outbound text vocabulary accepted by the
// GroundGateway console. Keywords are literal ASCII and case-sensitive.
package command

import (
	"fmt"
	"strings"
)

// OpMode is a controller operating mode.
type OpMode string

const (
	ModeSafe   OpMode = "safe"
	ModeManual OpMode = "manual"
	ModeAuto   OpMode = "auto"
)

// Mode returns the mode-switch command, or an error for an unknown
// mode label.
func Mode(m OpMode) (string, error) {
	switch m {
	case ModeSafe, ModeManual, ModeAuto:
		return fmt.Sprintf("mode %s", m), nil
	default:
		return "", fmt.Errorf("command: unknown mode %q", m)
	}
}

// SetHeater returns the heater duty command, clamping to 0..100.
func SetHeater(pct int) string {
	return fmt.Sprintf("set heater %d", clampPct(pct))
}

// SetValve returns the valve duty command, clamping to 0..100.
func SetValve(pct int) string {
	return fmt.Sprintf("set valve %d", clampPct(pct))
}

// LoraStat returns the link statistics query.
func LoraStat() string { return "lora stat" }

// LoraPing returns the link ping command.
func LoraPing() string { return "lora ping" }

// LoraRaw returns the raw-forwarding toggle.
func LoraRaw(on bool) string {
	if on {
		return "lora raw on"
	}
	return "lora raw off"
}

// Sanitize trims free-text manual input for pass-through. An empty
// result means nothing should be sent.
func Sanitize(text string) string {
	return strings.TrimSpace(text)
}

func clampPct(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
