package transport

import (
	"errors"
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

var ErrUnknownReadyLine = errors.New("unknown ready line")

// SerialLink is a UART connection, 8N1.
type SerialLink struct {
	port      serial.Port
	name      string
	readyLine string
	log       *slog.Logger
}

func OpenSerial(name string, baudRate int, readyLine string, log *slog.Logger) (*SerialLink, error) {
	switch readyLine {
	case "", "cts", "dsr":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReadyLine, readyLine)
	}

	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("Couldn't open serial port %s:\n%w", name, err)
	}

	log.Info("Opened serial port", "port", name, "baud", baudRate, "ready", readyLine)
	return &SerialLink{port: port, name: name, readyLine: readyLine, log: log}, nil
}

func (s *SerialLink) Write(data []byte) (int, error) {
	n, err := s.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("Couldn't write to %s:\n%w", s.name, err)
	}
	return n, nil
}

func (s *SerialLink) Close() error {
	return s.port.Close()
}

// HasReadyLine reports whether the printer's busy output is wired to a modem
// status input.
func (s *SerialLink) HasReadyLine() bool {
	return s.readyLine != ""
}

// Ready reads the printer's busy line. If the status can't be read the
// printer is treated as ready so the driver can't stall forever.
func (s *SerialLink) Ready() bool {
	if s.readyLine == "" {
		return true
	}
	bits, err := s.port.GetModemStatusBits()
	if err != nil {
		s.log.Warn("Couldn't read modem status", "port", s.name, "error", err)
		return true
	}
	if s.readyLine == "dsr" {
		return bits.DSR
	}
	return bits.CTS
}
