package utils

import (
	"net"
	"net/http"
	"strings"
)

// Extractor represents the way we identify the caller of an HTTP request, this could be
// a value from a header, the remote address, or any information that is available at the
// HTTP request without side effects (this object shouldn't read the body of the request).
type Extractor interface {
	Extract(r *http.Request) string
}

type httpHeaderExtractor struct {
	headers []string
}

// NewHTTPHeadersExtractor creates a new HTTP header extractor
func NewHTTPHeadersExtractor(headers ...string) Extractor {
	return &httpHeaderExtractor{headers: headers}
}

// Extract joins the values of the configured headers into a caller key. Headers without a value are
// skipped; when none has a value the host part of the remote address is used.
func (h *httpHeaderExtractor) Extract(r *http.Request) string {
	values := make([]string, 0, len(h.headers))

	for _, key := range h.headers {
		if value := strings.TrimSpace(r.Header.Get(key)); value != "" {
			values = append(values, value)
		}
	}

	if len(values) > 0 {
		return strings.Join(values, "-")
	}
	return remoteHost(r.RemoteAddr)
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
