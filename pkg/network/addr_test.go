package network

import (
	"net"
	"testing"
)

func mustCIDR(t *testing.T, s string) net.Addr {
	t.Helper()
	ip, ipNet, err := net.ParseCIDR(s)
	if err != nil {
		t.Fatalf("ParseCIDR(%q) error = %v", s, err)
	}
	ipNet.IP = ip
	return ipNet
}

func TestPickGlobalIPv4(t *testing.T) {
	cases := []struct {
		name  string
		addrs []string
		want  string
	}{
		{"single global", []string{"10.0.0.5/24"}, "10.0.0.5"},
		{"skips loopback", []string{"127.0.0.1/8", "192.168.1.10/24"}, "192.168.1.10"},
		{"skips link-local", []string{"169.254.10.1/16", "172.16.0.3/12"}, "172.16.0.3"},
		{"skips ipv6", []string{"2001:db8::1/64", "10.0.0.7/24"}, "10.0.0.7"},
		{"first wins", []string{"10.0.0.1/24", "10.0.0.2/24"}, "10.0.0.1"},
		{"none", []string{"127.0.0.1/8", "169.254.0.1/16"}, ""},
		{"empty", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var addrs []net.Addr
			for _, s := range tc.addrs {
				addrs = append(addrs, mustCIDR(t, s))
			}

			got := pickGlobalIPv4(addrs)
			if got != tc.want {
				t.Errorf("pickGlobalIPv4() = %q, want %q", got, tc.want)
			}
		})
	}
}
