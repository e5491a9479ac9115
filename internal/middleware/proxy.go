package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies configures Echo to trust X-Real-IP and X-Forwarded-For
// only from the given proxy CIDRs (the nginx container in front of the API).
// Without it, c.RealIP() is the proxy address and the per-IP login limiter
// would throttle every client together.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = buildIPExtractor(trustedCIDRs)
}

// buildIPExtractor returns an Echo IPExtractor that trusts X-Forwarded-For
// and X-Real-IP headers only from connections originating in trusted CIDRs.
func buildIPExtractor(trustedCIDRs []string) echo.IPExtractor {
	// Parse trusted CIDRs into net.IPNet for fast matching.
	var trusted []*net.IPNet
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR", slog.String("cidr", cidr))
			continue
		}
		trusted = append(trusted, network)
	}

	return func(req *http.Request) string {
		directIP := extractDirectIP(req.RemoteAddr)
		if !isTrusted(directIP, trusted) {
			return directIP
		}

		if realIP := req.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}

		// Leftmost X-Forwarded-For entry is the original client.
		if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}

		return directIP
	}
}

// extractDirectIP extracts the IP address from a "host:port" RemoteAddr string.
func extractDirectIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// isTrusted returns true if the given IP falls within any of the trusted CIDRs.
func isTrusted(ipStr string, trusted []*net.IPNet) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
