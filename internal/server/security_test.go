package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock lets tests move the limiter's notion of time by hand
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockedLimiter(t *testing.T, perSecond, perMinute int, ban time.Duration) (*connLimiter, *fixedClock) {
	t.Helper()
	clock := &fixedClock{now: time.Now()}
	l := newConnLimiter(perSecond, perMinute, ban)
	l.now = clock.Now
	t.Cleanup(l.Stop)
	return l, clock
}

func TestConnLimiter_SecondBurstBans(t *testing.T) {
	t.Parallel()

	l, clock := newClockedLimiter(t, 5, 100, 2*time.Second)
	ip := "192.168.1.1"

	for i := range 5 {
		assert.True(t, l.Allow(ip), "request %d", i)
	}
	assert.False(t, l.Allow(ip), "6th request in the same second is rejected")

	// still banned even though the bucket has refilled
	clock.Advance(time.Second)
	assert.False(t, l.Allow(ip))

	clock.Advance(1500 * time.Millisecond)
	assert.True(t, l.Allow(ip))

	assert.True(t, l.Allow("192.168.1.2"), "other addresses are unaffected")
}

func TestConnLimiter_MinuteLimit(t *testing.T) {
	t.Parallel()

	l, clock := newClockedLimiter(t, 100, 5, time.Second)
	ip := "10.0.0.1"

	for range 5 {
		assert.True(t, l.Allow(ip))
		clock.Advance(100 * time.Millisecond)
	}
	assert.False(t, l.Allow(ip), "minute budget is spent")
}

func TestConnLimiter_Concurrency(t *testing.T) {
	t.Parallel()

	l, _ := newClockedLimiter(t, 20, 1000, time.Minute)

	var wg sync.WaitGroup
	var allowed atomic.Int32
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("concurrent") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 20, allowed.Load(), "the clock is frozen so exactly one burst gets through")
}

func TestConnLimiter_Sweep(t *testing.T) {
	t.Parallel()

	l, clock := newClockedLimiter(t, 1, 10, time.Hour)
	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"))
	assert.False(t, l.Allow("2.2.2.2"), "banned for an hour")

	l.sweep(clock.Now().Add(11 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.peers, "1.1.1.1")
	assert.Contains(t, l.peers, "2.2.2.2", "bans outlive the idle sweep")
}

func TestMsgBudget(t *testing.T) {
	t.Parallel()

	b := newMsgBudget(4)
	now := time.Now()

	ok, near := b.take(now)
	assert.True(t, ok)
	assert.False(t, near)
	ok, near = b.take(now)
	assert.True(t, ok)
	assert.False(t, near, "half the budget left")
	ok, near = b.take(now)
	assert.True(t, ok)
	assert.True(t, near)
	ok, _ = b.take(now)
	assert.True(t, ok)

	ok, near = b.take(now)
	assert.False(t, ok)
	assert.True(t, near)
	assert.Equal(t, 1, b.strikes)

	// a second later the budget is back
	ok, _ = b.take(now.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, 1, b.strikes)
}

func TestIPRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allow   []string
		deny    []string
		ip      string
		allowed bool
	}{
		{name: "no rules", ip: "192.168.1.1", allowed: true},
		{name: "denied address", deny: []string{"192.168.1.2"}, ip: "192.168.1.2", allowed: false},
		{name: "denied range", deny: []string{"10.0.0.0/8"}, ip: "10.20.30.40", allowed: false},
		{name: "outside allow list", allow: []string{"10.0.0.1"}, ip: "192.168.1.4", allowed: false},
		{name: "inside allow range", allow: []string{"10.0.0.0/24"}, ip: "10.0.0.9", allowed: true},
		{name: "deny wins over allow", allow: []string{"10.0.0.0/24"}, deny: []string{"10.0.0.2"}, ip: "10.0.0.2", allowed: false},
		{name: "mapped IPv4", deny: []string{"127.0.0.1"}, ip: "::ffff:127.0.0.1", allowed: false},
		{name: "IPv6", allow: []string{"2001:db8::/32"}, ip: "2001:db8::1", allowed: true},
		{name: "bad entries are ignored", allow: []string{"not-an-ip"}, ip: "1.2.3.4", allowed: true},
		{name: "unparsable address with allow list", allow: []string{"10.0.0.1"}, ip: "garbage", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.allowed, newIPRules(tt.allow, tt.deny).Allows(tt.ip))
		})
	}
}

func TestGetClientIP_ProxyHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expectedIP string
	}{
		{
			name:       "Direct connection",
			remoteAddr: "192.168.1.1:12345",
			expectedIP: "192.168.1.1",
		},
		{
			name:       "X-Forwarded-For chain",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"},
			expectedIP: "203.0.113.1",
		},
		{
			name:       "X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers:    map[string]string{"X-Real-IP": "203.0.113.2"},
			expectedIP: "203.0.113.2",
		},
		{
			name:       "X-Forwarded-For takes precedence over X-Real-IP",
			remoteAddr: "10.0.0.1:12345",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.3",
				"X-Real-IP":       "203.0.113.4",
			},
			expectedIP: "203.0.113.3",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "203.0.113.5",
			expectedIP: "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req, err := http.NewRequest(http.MethodGet, "/", http.NoBody)
			require.NoError(t, err)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expectedIP, GetClientIP(req))
		})
	}
}

func TestOriginCheck(t *testing.T) {
	t.Parallel()

	check := func(allowed []string, origin string) bool {
		req, _ := http.NewRequest(http.MethodGet, "/", http.NoBody)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		return originCheck(allowed)(req)
	}

	assert.True(t, check([]string{"*"}, "https://evil.com"))

	allowed := []string{"https://example.com", "https://App.Example.com/"}
	assert.True(t, check(allowed, "https://example.com"))
	assert.True(t, check(allowed, "https://app.example.com"), "case and trailing slash are normalized")
	assert.False(t, check(allowed, "https://evil.com"))
	assert.False(t, check(allowed, "http://example.com"), "scheme matters")
	assert.True(t, check(allowed, ""), "non-browser clients send no Origin")
}
