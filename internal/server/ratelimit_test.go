package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(60, 2, nil)
	defer rl.Close()

	assert.True(t, rl.Allow("ip:1.2.3.4"))
	assert.True(t, rl.Allow("ip:1.2.3.4"))
	assert.False(t, rl.Allow("ip:1.2.3.4"))
	assert.True(t, rl.Allow("ip:5.6.7.8"))

	stats := rl.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, 2, stats["burst_capacity"])

	rl.Close()
}

func TestRateLimiterTakeReportsWait(t *testing.T) {
	rl := NewRateLimiter(60, 1, nil)
	defer rl.Close()

	ok, wait := rl.Take("api:k")
	assert.True(t, ok)
	assert.Zero(t, wait)

	ok, wait = rl.Take("api:k")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Second)

	// a rejected request does not push the next slot further out
	_, again := rl.Take("api:k")
	assert.LessOrEqual(t, again, wait)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1, nil)
	defer rl.Close()

	rl.Allow("ip:1.2.3.4")
	rl.cleanup(0)
	assert.Equal(t, 0, rl.GetStats()["active_limiters"])
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"api key header", map[string]string{"X-API-Key": "k1"}, true, true, "api:k1"},
		{"bearer token", map[string]string{"Authorization": "Bearer k2"}, true, false, "api:k2"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.1"},
		{"api key ignored when disabled", map[string]string{"X-API-Key": "k1"}, false, true, "ip:192.0.2.1"},
		{"nothing enabled", map[string]string{"X-API-Key": "k1"}, false, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getRateLimitKey(r, tt.byAPIKey, tt.byIP))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "10.1.1.1:5555", nil, "10.1.1.1"},
		{"forwarded for", "10.1.1.1:5555", map[string]string{"X-Forwarded-For": "bogus, 203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", "10.1.1.1:5555", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"invalid real ip", "10.1.1.1:5555", map[string]string{"X-Real-IP": "nope"}, "10.1.1.1"},
		{"no port", "10.1.1.1", nil, "10.1.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
