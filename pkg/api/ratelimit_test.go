package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		remote string
		want   string
	}{
		{name: "remote addr", remote: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "forwarded chain", xff: "1.2.3.4, 10.0.0.2", remote: "10.0.0.1:1234", want: "1.2.3.4"},
		{name: "single forwarded", xff: "1.2.3.4", remote: "10.0.0.1:1234", want: "1.2.3.4"},
		{name: "remote without port", remote: "10.0.0.1", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote

			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			assert.Equal(t, tt.want, extractIP(req))
		})
	}
}

func TestRateLimiterMap_EvictIdle(t *testing.T) {
	done := make(chan struct{})
	defer close(done)

	rl := newRateLimiterMap(60, done)

	a := rl.getLimiter("a")
	assert.Same(t, a, rl.getLimiter("a"))

	rl.evictIdle(time.Now().Add(rateLimitEntryTTL + time.Second))

	assert.NotSame(t, a, rl.getLimiter("a"), "idle limiter is replaced")
}
