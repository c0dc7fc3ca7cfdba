package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_XForwardedFor(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.RemoteAddr = "10.0.0.1:54321"

	assert.Equal(t, "203.0.113.9", ExtractClientIP(r))
}

func TestExtractClientIP_SkipsInvalidForwardedEntries(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.4")
	r.RemoteAddr = "10.0.0.1:54321"

	assert.Equal(t, "198.51.100.4", ExtractClientIP(r))
}

func TestExtractClientIP_XRealIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.Header.Set("X-Real-IP", "198.51.100.7")
	r.RemoteAddr = "10.0.0.1:54321"

	assert.Equal(t, "198.51.100.7", ExtractClientIP(r))
}

func TestExtractClientIP_RemoteAddrFallback(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "192.0.2.33:44000"

	assert.Equal(t, "192.0.2.33", ExtractClientIP(r))
}

func TestExtractClientIP_Unknown(t *testing.T) {
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = ""

	assert.Equal(t, "unknown", ExtractClientIP(r))
}
