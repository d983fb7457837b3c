package pkg

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address without the port. Behind the reverse
// proxy the address comes from X-Real-Ip or the first X-Forwarded-For entry.
func ClientIP(r *http.Request) string {
	ipAddr := strings.TrimSpace(r.Header.Get("X-Real-Ip"))
	if ipAddr == "" {
		forwarded := r.Header.Get("X-Forwarded-For")
		if first, _, _ := strings.Cut(forwarded, ","); first != "" {
			ipAddr = strings.TrimSpace(first)
		}
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		return host
	}
	return ipAddr
}
