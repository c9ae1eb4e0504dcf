package transport

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

type PortInfo struct {
	Name    string
	USB     bool
	VID     string
	PID     string
	Serial  string
	Product string
}

func (p PortInfo) String() string {
	if !p.USB {
		return p.Name
	}
	return fmt.Sprintf("%s (%s:%s %s %s)", p.Name, p.VID, p.PID, p.Product, p.Serial)
}

// ListPorts returns the serial ports on this machine.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("Couldn't enumerate serial ports:\n%w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:    d.Name,
			USB:     d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	return ports, nil
}

// FindPort returns the first port with the given USB vendor and product IDs.
// An empty product ID matches any product from the vendor.
func FindPort(ports []PortInfo, vid string, pid string) (PortInfo, bool) {
	for _, p := range ports {
		if p.USB && strings.EqualFold(p.VID, vid) && (pid == "" || strings.EqualFold(p.PID, pid)) {
			return p, true
		}
	}
	return PortInfo{}, false
}
