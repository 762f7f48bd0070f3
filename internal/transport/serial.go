package transport

import (
	"fmt"

	"go.bug.st/serial"
)

// OpenSerial opens the named port at baud, 8N1, and returns a Link
// reading console lines from it.
func OpenSerial(portName string, baud int) (Link, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: open %s @ %d: %w", portName, baud, err)
	}
	port.ResetInputBuffer()
	port.ResetOutputBuffer()
	return NewIOLink(port), nil
}

// ListPorts enumerates serial ports available on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}
	return ports, nil
}
