package transport

// Only one Bluetooth printer is managed at a time: the connect handler is
// registered on the shared default adapter.

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/bluetooth"
)

type characteristic byte

const (
	service  characteristic = 0x00
	writer   characteristic = 0x02
	notifier characteristic = 0x03
)

const scanTimeout = 30 * time.Second

var (
	ErrNoDevice   = errors.New("no matching Bluetooth device found")
	ErrNotPrinter = errors.New("device doesn't offer the printer GATT profile")
)

// BluetoothLink talks to BLE printers exposing the common 0xFF00 serial
// service: commands go to 0xFF02, status comes back on 0xFF03.
type BluetoothLink struct {
	adapter *bluetooth.Adapter
	device  bluetooth.Device
	writer  bluetooth.DeviceCharacteristic
	address bluetooth.Address
	log     *slog.Logger
}

func getUUID(c characteristic) bluetooth.UUID {
	return bluetooth.NewUUID([16]byte{
		0x00, 0x00, 0xff, byte(c), 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb,
	})
}

func newBluetoothLink(log *slog.Logger) (*BluetoothLink, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("Couldn't enable Bluetooth:\n%w", err)
	}

	l := &BluetoothLink{adapter: adapter, log: log}
	adapter.SetConnectHandler(func(d bluetooth.Device, connected bool) {
		if d.Address != l.address {
			return
		}
		if connected {
			log.Info("Connected", "address", d.Address.String())
		} else {
			log.Warn("Disconnected", "address", d.Address.String())
		}
	})
	return l, nil
}

// FromBluetoothName scans for a printer advertising the given name and
// connects to it.
func FromBluetoothName(name string, log *slog.Logger) (*BluetoothLink, error) {
	return scanAndConnect(log, func(r bluetooth.ScanResult) bool {
		return r.LocalName() == name
	})
}

func FromBluetoothAddress(address string, log *slog.Logger) (*BluetoothLink, error) {
	return scanAndConnect(log, func(r bluetooth.ScanResult) bool {
		return r.Address.String() == address
	})
}

func scanAndConnect(log *slog.Logger, match func(bluetooth.ScanResult) bool) (*BluetoothLink, error) {
	l, err := newBluetoothLink(log)
	if err != nil {
		return nil, err
	}

	devices := make(chan bluetooth.ScanResult, 1)
	timer := time.AfterFunc(scanTimeout, func() {
		l.adapter.StopScan()
	})
	defer timer.Stop()

	go func() {
		defer close(devices)
		err := l.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if match(result) {
				log.Info("Found device", "name", result.LocalName(), "address", result.Address.String())
				select {
				case devices <- result:
				default:
				}
				adapter.StopScan()
			}
		})
		if err != nil {
			log.Error("Failed to scan for devices", "error", err)
		}
	}()

	dev, ok := <-devices
	if !ok {
		return nil, ErrNoDevice
	}

	l.address = dev.Address
	if err := l.connect(); err != nil {
		return nil, err
	}
	return l, nil
}

// discovered reports a failed GATT lookup, including one that succeeded but
// found nothing.
func discovered(what string, err error, found int) error {
	if err != nil {
		return fmt.Errorf("Failed to discover %s:\n%w", what, err)
	}
	if found == 0 {
		return fmt.Errorf("%w: %s", ErrNotPrinter, what)
	}
	return nil
}

func (l *BluetoothLink) connect() error {
	l.log.Debug("Connecting to device...")
	device, err := l.adapter.Connect(l.address, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("Failed to connect to device:\n%w", err)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{getUUID(service)})
	if err := discovered("service", err, len(services)); err != nil {
		device.Disconnect()
		return err
	}

	characteristics, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{getUUID(writer), getUUID(notifier)})
	if err := discovered("characteristics", err, len(characteristics)); err != nil {
		device.Disconnect()
		return err
	}
	l.writer = characteristics[0]

	if len(characteristics) > 1 {
		err = characteristics[1].EnableNotifications(func(data []byte) {
			l.log.Debug("Received notification", "data", fmt.Sprintf("%x", data))
		})
		if err != nil {
			l.log.Warn("Couldn't enable notifications", "error", err)
		}
	}

	l.device = device
	return nil
}

func (l *BluetoothLink) Write(data []byte) (int, error) {
	n, err := l.writer.WriteWithoutResponse(data)
	if err != nil {
		return n, fmt.Errorf("Couldn't write data:\n%w", err)
	}
	l.log.Debug("Wrote data to device", "size", n)
	return n, nil
}

func (l *BluetoothLink) Close() error {
	return l.device.Disconnect()
}
