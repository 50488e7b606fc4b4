package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, prepare func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	if prepare != nil {
		prepare(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func fromAddr(addr string) func(*http.Request) {
	return func(r *http.Request) { r.RemoteAddr = addr }
}

func TestRateLimit_UnderLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

	for i := range 5 {
		w := hit(h, nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, 4-i, mustAtoi(t, w.Header().Get("X-RateLimit-Remaining")))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	hit(h, nil)
	hit(h, nil)
	w := hit(h, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, "rate limit exceeded", body.Message)
}

func TestRateLimit_Keys(t *testing.T) {
	tests := []struct {
		name   string
		cfg    RateLimitConfig
		first  func(*http.Request)
		second func(*http.Request)
		want   int
	}{
		{
			name:   "different ips are independent",
			first:  fromAddr("10.0.0.1:1234"),
			second: fromAddr("10.0.0.2:1234"),
			want:   http.StatusOK,
		},
		{
			name:   "same ip different port is limited",
			first:  fromAddr("10.0.0.1:1234"),
			second: fromAddr("10.0.0.1:5678"),
			want:   http.StatusTooManyRequests,
		},
		{
			name: "forwarded for wins over remote addr",
			first: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
			},
			second: func(r *http.Request) {
				r.RemoteAddr = "192.168.1.2:5555"
				r.Header.Set("X-Forwarded-For", "203.0.113.50")
			},
			want: http.StatusTooManyRequests,
		},
		{
			name: "custom key",
			cfg: RateLimitConfig{KeyFunc: func(r *http.Request) string {
				return r.Header.Get("X-Terminal")
			}},
			first:  func(r *http.Request) { r.Header.Set("X-Terminal", "a") },
			second: func(r *http.Request) { r.Header.Set("X-Terminal", "b") },
			want:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Max, cfg.Window = 1, time.Minute
			h := RateLimit(cfg)(okHandler())

			require.Equal(t, http.StatusOK, hit(h, tt.first).Code)
			assert.Equal(t, tt.want, hit(h, tt.second).Code)
		})
	}
}

func TestLimiterSet_Evict(t *testing.T) {
	s := newLimiterSet(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Now()
	s.get("a", now)
	s.get("b", now.Add(2*time.Second))

	s.evict(now.Add(3 * time.Second))

	assert.NotContains(t, s.visitors, "a")
	assert.Contains(t, s.visitors, "b")
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
