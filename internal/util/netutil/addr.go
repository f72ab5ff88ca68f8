package netutil

import (
	"fmt"
	"net/netip"
	"strings"
)

// InterfaceAddr is one IPv4 address bound to a local interface.
type InterfaceAddr struct {
	Interface string
	Prefix    netip.Prefix
}

// ParseIPv4Addrs parses the one-line-per-address output of `ip -o -4 addr show`:
//
//	2: eth0    inet 10.0.0.11/24 brd 10.0.0.255 scope global eth0\  valid_lft forever
//
// Lines that do not carry an inet address are ignored.
func ParseIPv4Addrs(output string) []InterfaceAddr {
	var addrs []InterfaceAddr
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] != "inet" {
				continue
			}
			prefix, err := netip.ParsePrefix(fields[i+1])
			if err != nil {
				break
			}
			name := ""
			if len(fields) > 1 {
				name = strings.TrimSuffix(fields[1], ":")
			}
			addrs = append(addrs, InterfaceAddr{Interface: name, Prefix: prefix})
			break
		}
	}
	return addrs
}

// HasAddress reports whether address is among addrs.
func HasAddress(addrs []InterfaceAddr, address string) (bool, error) {
	want, err := netip.ParseAddr(address)
	if err != nil {
		return false, fmt.Errorf("invalid address %q: %w", address, err)
	}
	for _, a := range addrs {
		if a.Prefix.Addr() == want {
			return true, nil
		}
	}
	return false, nil
}
