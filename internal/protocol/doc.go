// Package protocol owns the GroundGateway line contract and parsing.
//
// Ownership boundary:
// - decoded event variants (closed union)
// - text line grammars and numeric token parsing
//
// The gateway emits human-readable status lines on its serial console.
// If the firmware output format changes, only this package should need
// edits.
package protocol
