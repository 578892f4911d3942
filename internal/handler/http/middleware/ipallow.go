package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cmlabs-hris/ems-backend-go/internal/handler/http/response"
)

// ClientIP returns the request's remote address without the port. Behind
// chi's RealIP middleware this is the forwarded client address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ParseAllowList accepts single addresses and CIDR prefixes.
func ParseAllowList(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid allow-list prefix %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid allow-list address %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// IPAllowList rejects requests whose client address falls outside every prefix.
// An empty list lets all requests through.
func IPAllowList(prefixes []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			addr, err := netip.ParseAddr(ip)
			if err == nil {
				addr = addr.Unmap()
				for _, prefix := range prefixes {
					if prefix.Contains(addr) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			slog.Warn("request from address outside allow-list", "ip", ip, "path", r.URL.Path)
			response.Forbidden(w, "IP address not allowed")
		})
	}
}
