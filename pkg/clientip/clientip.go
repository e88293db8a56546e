package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Config is loaded from CLIENT_IP_* variables.
type Config struct {
	// TrustedHeaders are consulted in order before RemoteAddr. Leave empty
	// when the portal is not behind a proxy; clients can forge these headers.
	TrustedHeaders []string `env:"CLIENT_IP_TRUSTED_HEADERS" envSeparator:","`
}

// Resolver extracts the client address from a request.
type Resolver struct {
	headers []string
}

// New creates a Resolver trusting cfg.TrustedHeaders.
func New(cfg Config) Resolver {
	headers := make([]string, 0, len(cfg.TrustedHeaders))
	for _, h := range cfg.TrustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, http.CanonicalHeaderKey(h))
		}
	}
	return Resolver{headers: headers}
}

// IP returns the first valid address from the trusted headers, then
// RemoteAddr. X-Forwarded-For style lists yield their first valid entry.
// It returns "" when nothing parses.
func (res Resolver) IP(r *http.Request) string {
	for _, h := range res.headers {
		for part := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := parseIP(part); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
