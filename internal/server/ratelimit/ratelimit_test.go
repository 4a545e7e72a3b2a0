package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fixedClock makes bucket refills deterministic.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(cfg *Config) (*Limiter, *fixedClock) {
	clock := &fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(cfg)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/history", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
		if info.Remaining != 9-i {
			t.Errorf("Expected remaining %d, got %d", 9-i, info.Remaining)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/history", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", info.Remaining)
	}
	if info.RetryAfter <= 0 {
		t.Error("Expected retry after to be positive")
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  60,
		DefaultWindow: time.Minute,
		DefaultBurst:  2,
	})
	defer limiter.Stop()

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("c", "/stats", "GET"); !ok {
			t.Fatalf("Expected burst request %d to be allowed", i+1)
		}
	}
	if ok, _ := limiter.Allow("c", "/stats", "GET"); ok {
		t.Fatal("Expected request beyond burst to be denied")
	}

	clock.Advance(time.Second)
	if ok, _ := limiter.Allow("c", "/stats", "GET"); !ok {
		t.Error("Expected request to be allowed after refill")
	}
	if ok, _ := limiter.Allow("c", "/stats", "GET"); ok {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	if ok, _ := limiter.Allow("a", "/history", "GET"); !ok {
		t.Fatal("Expected first client to be allowed")
	}
	if ok, _ := limiter.Allow("b", "/history", "GET"); !ok {
		t.Error("Expected second client to have its own bucket")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/history", "GET")
		if !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
		if info.Limit != 0 {
			t.Errorf("Expected limit 0 for whitelisted, got %d", info.Limit)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("192.168.1.1", "/history", "GET"); allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/analyses", "POST"); !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/analyses", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 20 {
			t.Errorf("Expected limit 20, got %d", info.Limit)
		}
	}

	if allowed, _ := limiter.Allow("127.0.0.1", "/analyses", "POST"); allowed {
		t.Error("Expected 4th request to exceed the burst")
	}

	allowed, info := limiter.Allow("127.0.0.1", "/history", "GET")
	if !allowed {
		t.Error("Expected different endpoint to be allowed")
	}
	if info.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", info.Limit)
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		if allowed, _ := limiter.Allow("c", "/health", "GET"); !allowed {
			t.Fatalf("Expected health check %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Minute})
	defer limiter.Stop()

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		allowedCount int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("127.0.0.1", "/history", "GET"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected exactly 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTimeout:   time.Minute,
	})
	defer limiter.Stop()

	limiter.Allow("c", "/history", "GET")
	clock.Advance(2 * time.Minute)
	limiter.cleanupBuckets()

	limiter.mu.Lock()
	n := len(limiter.buckets)
	limiter.mu.Unlock()
	if n != 0 {
		t.Errorf("Expected idle bucket to be removed, %d left", n)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	limiter.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/analyses", Method: "POST", Limit: 1},
		{Path: "/history/", Method: "DELETE", Limit: 2},
	}

	if c := MatchEndpoint("/analyses", "POST", configs); c == nil || c.Limit != 1 {
		t.Errorf("Expected exact match, got %+v", c)
	}
	if c := MatchEndpoint("/history/abc", "DELETE", configs); c == nil || c.Limit != 2 {
		t.Errorf("Expected prefix match, got %+v", c)
	}
	if c := MatchEndpoint("/analyses", "GET", configs); c != nil {
		t.Errorf("Expected no match for other method, got %+v", c)
	}
	if c := MatchEndpoint("/health", "GET", configs); c == nil || c.Limit != 0 {
		t.Errorf("Expected unlimited health check, got %+v", c)
	}
	if c := MatchEndpoint("/analyses", "OPTIONS", configs); c == nil || c.Limit != 0 {
		t.Errorf("Expected unlimited preflight, got %+v", c)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(5, 10, []string{"10.0.0.1"})
	if !cfg.Enabled || cfg.DefaultLimit != 5 || cfg.DefaultWindow != time.Second || cfg.DefaultBurst != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.Whitelist["10.0.0.1"] {
		t.Error("Expected whitelist entry")
	}

	slow := NewConfig(0.5, 1, nil)
	if slow.DefaultLimit != 30 || slow.DefaultWindow != time.Minute {
		t.Errorf("Expected 30 per minute, got %d per %s", slow.DefaultLimit, slow.DefaultWindow)
	}

	if NewConfig(0, 10, nil).Enabled {
		t.Error("Expected zero rate to disable limiting")
	}
}
