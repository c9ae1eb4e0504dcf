// Package transport opens the byte link to a printer. The driver only needs
// an io.Writer; links that can also sense the printer's busy line implement
// Ready as well.
package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Link is an open connection to a printer.
type Link interface {
	io.Writer
	io.Closer
}

type Kind string

const (
	Serial    Kind = "serial"
	Bluetooth Kind = "bluetooth"
	Device    Kind = "device"
	Null      Kind = "null"
)

var (
	ErrUnknownTransport = errors.New("unknown transport")
	ErrNoPort           = errors.New("no serial port found")
)

type Config struct {
	Kind Kind
	// Serial port or device path. An empty serial port is looked up by USB
	// vendor and product ID, or else the first USB adapter is used.
	Port       string
	USBVendor  string
	USBProduct string
	BaudRate   int
	// Modem line wired to the printer's DTR output: "cts", "dsr" or empty
	ReadyLine string
	// Bluetooth printers are found by advertised name, or by address if set
	BluetoothName    string
	BluetoothAddress string
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case Serial, Bluetooth, Device, Null:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransport, s)
	}
}

// Open connects to the printer described by cfg.
func Open(cfg Config, log *slog.Logger) (Link, error) {
	switch cfg.Kind {
	case Serial:
		port, err := resolvePort(cfg, ListPorts)
		if err != nil {
			return nil, err
		}
		return OpenSerial(port, cfg.BaudRate, cfg.ReadyLine, log)
	case Bluetooth:
		if cfg.BluetoothAddress != "" {
			return FromBluetoothAddress(cfg.BluetoothAddress, log)
		}
		return FromBluetoothName(cfg.BluetoothName, log)
	case Device:
		return OpenDevice(cfg.Port)
	case Null:
		return &NullLink{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Kind)
	}
}

func resolvePort(cfg Config, list func() ([]PortInfo, error)) (string, error) {
	if cfg.Port != "" {
		return cfg.Port, nil
	}
	ports, err := list()
	if err != nil {
		return "", err
	}
	if cfg.USBVendor != "" {
		p, ok := FindPort(ports, cfg.USBVendor, cfg.USBProduct)
		if !ok {
			return "", fmt.Errorf("%w: no USB adapter %s:%s", ErrNoPort, cfg.USBVendor, cfg.USBProduct)
		}
		return p.Name, nil
	}
	for _, p := range ports {
		if p.USB {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%w: set TRANSPORT_PORT", ErrNoPort)
}
