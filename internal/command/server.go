package command

import (
	"net"
	"strconv"
	"strings"
)

// DefaultPort is used when a server address has no usable port.
const DefaultPort = 6667

// ParseServerAddress splits "host:port", "[v6]:port" or "host/port". A
// missing or non-numeric port yields DefaultPort. Bare IPv6 addresses are
// taken whole.
func ParseServerAddress(addr string) (host string, port int) {
	addr = strings.TrimSpace(addr)

	if h, p, err := net.SplitHostPort(addr); err == nil {
		return h, parsePort(p)
	}
	if i := strings.LastIndex(addr, "/"); i != -1 {
		return strings.Trim(addr[:i], "[]"), parsePort(addr[i+1:])
	}
	return strings.Trim(addr, "[]"), DefaultPort
}

func parsePort(s string) int {
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return DefaultPort
	}
	return port
}
