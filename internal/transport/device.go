package transport

import (
	"fmt"
	"os"
	"sync"
)

// DeviceLink writes to a character device such as /dev/usb/lp0, or any
// other file.
type DeviceLink struct {
	f *os.File
}

func OpenDevice(path string) (*DeviceLink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open device %s:\n%w", path, err)
	}
	return &DeviceLink{f: f}, nil
}

func (d *DeviceLink) Write(data []byte) (int, error) {
	return d.f.Write(data)
}

func (d *DeviceLink) Close() error {
	return d.f.Close()
}

// NullLink discards everything, counting what it was sent.
type NullLink struct {
	mu      sync.Mutex
	written int
}

func (n *NullLink) Write(data []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.written += len(data)
	return len(data), nil
}

func (n *NullLink) Close() error {
	return nil
}

func (n *NullLink) Written() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.written
}
