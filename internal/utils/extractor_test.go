package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPHeadersExtractor_Extract(t *testing.T) {
	var tests = []struct {
		name       string
		headers    []string
		values     map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "single header",
			headers:    []string{"X-Forwarded-For"},
			values:     map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			want:       "203.0.113.50",
		},
		{
			name:       "joins multiple headers",
			headers:    []string{"X-Api-Key", "X-Forwarded-For"},
			values:     map[string]string{"X-Api-Key": "team-a", "X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			want:       "team-a-203.0.113.50",
		},
		{
			name:       "skips empty headers",
			headers:    []string{"X-Api-Key", "X-Forwarded-For"},
			values:     map[string]string{"X-Api-Key": "   ", "X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			want:       "203.0.113.50",
		},
		{
			name:       "falls back to remote host",
			headers:    []string{"X-Forwarded-For"},
			remoteAddr: "10.0.0.1:12345",
			want:       "10.0.0.1",
		},
		{
			name:       "keeps remote address without port",
			remoteAddr: "unix-socket",
			want:       "unix-socket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/swc/request", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.values {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, NewHTTPHeadersExtractor(tt.headers...).Extract(req))
		})
	}
}
