package network

import (
	"fmt"
	"net"
)

// DiscoverAdvertiseAddr returns the first global-scope IPv4 address found on
// a usable interface. The address is discovered once at bootstrap and reused
// for every rendered artifact. A host with no such address is an error, not
// an empty string: downstream configs would otherwise silently embed nothing.
func DiscoverAdvertiseAddr() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if addr := pickGlobalIPv4(addrs); addr != "" {
			return addr, nil
		}
	}

	return "", fmt.Errorf("no global-scope IPv4 address found on any interface")
}

// pickGlobalIPv4 returns the first global-scope IPv4 address in addrs, or ""
// if none qualifies.
func pickGlobalIPv4(addrs []net.Addr) string {
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		if !ip.IsGlobalUnicast() || ip.IsLinkLocalUnicast() {
			continue
		}
		return ip.String()
	}
	return ""
}
