package router

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

type clientIPKey struct{}

// forwardedHeaders are consulted in order. The first valid address wins.
var forwardedHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareClientIP resolves the caller address once and stores it on the
// request context for request logging and span attributes.
func middlewareClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip.IsValid() {
			r = r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip.String()))
		}
		next.ServeHTTP(w, r)
	})
}

func clientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

func clientIP(r *http.Request) netip.Addr {
	for _, name := range forwardedHeaders {
		v := r.Header.Get(name)
		if v == "" {
			continue
		}
		// X-Forwarded-For lists the original client first
		first, _, _ := strings.Cut(v, ",")
		if ip, ok := parseAddr(first); ok {
			return ip
		}
	}

	ip, _ := parseAddr(r.RemoteAddr)
	return ip
}

func parseAddr(v string) (netip.Addr, bool) {
	v = strings.TrimSpace(v)
	if host, _, err := net.SplitHostPort(v); err == nil {
		v = host
	}

	ip, err := netip.ParseAddr(strings.Trim(v, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}
