package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jrmsu/libraryid/pkg/clientip"
)

func TestResolver_IP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trusted []string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "203.0.113.7:5123", want: "203.0.113.7"},
		{name: "remote addr without port", remote: "203.0.113.7", want: "203.0.113.7"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "untrusted header ignored", headers: map[string]string{"X-Forwarded-For": "198.51.100.1"}, remote: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "forwarded list", trusted: []string{"x-forwarded-for"}, headers: map[string]string{"X-Forwarded-For": "bogus, 198.51.100.1, 10.0.0.2"}, remote: "10.0.0.1:80", want: "198.51.100.1"},
		{name: "header order", trusted: []string{"CF-Connecting-IP", "X-Real-IP"}, headers: map[string]string{"X-Real-IP": "198.51.100.9", "CF-Connecting-IP": "198.51.100.8"}, remote: "10.0.0.1:80", want: "198.51.100.8"},
		{name: "invalid header falls back", trusted: []string{"X-Real-IP"}, headers: map[string]string{"X-Real-IP": "not-an-ip"}, remote: "10.0.0.1:80", want: "10.0.0.1"},
		{name: "nothing valid", remote: "garbage", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.New(clientip.Config{TrustedHeaders: tt.trusted}).IP(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.New(clientip.Config{}).Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:1234"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", got)
	assert.Empty(t, clientip.FromContext(r.Context()))
}
