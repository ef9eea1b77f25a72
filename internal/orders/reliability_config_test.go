package orders

import (
	"testing"
	"time"
)

func TestLoadReliabilityConfigFromEnv_Parses(t *testing.T) {
	t.Setenv("ORDER_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("ORDER_RETRY_BASE_DELAY", "50ms")
	t.Setenv("ORDER_RETRY_MAX_DELAY", "500ms")
	t.Setenv("ORDER_BREAKER_MAX_FAILURES", "4")
	t.Setenv("ORDER_BREAKER_RESET_TIMEOUT", "2s")
	t.Setenv("ORDER_RATE_LIMIT_INTERVAL", "1ms")
	t.Setenv("ORDER_RATE_LIMIT_BURST", "100")

	cfg, err := LoadReliabilityConfigFromEnv()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RetryMaxAttempts != 3 {
		t.Fatalf("expected retry attempts 3, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryBaseDelay != 50*time.Millisecond {
		t.Fatalf("expected retry base delay 50ms, got %v", cfg.RetryBaseDelay)
	}
	if cfg.RetryMaxDelay != 500*time.Millisecond {
		t.Fatalf("expected retry max delay 500ms, got %v", cfg.RetryMaxDelay)
	}
	if cfg.BreakerMaxFailures != 4 {
		t.Fatalf("expected breaker failures 4, got %d", cfg.BreakerMaxFailures)
	}
	if cfg.BreakerResetTimeout != 2*time.Second {
		t.Fatalf("expected breaker reset 2s, got %v", cfg.BreakerResetTimeout)
	}
	if cfg.RateLimitInterval != time.Millisecond {
		t.Fatalf("expected rate interval 1ms, got %v", cfg.RateLimitInterval)
	}
	if cfg.RateLimitBurst != 100 {
		t.Fatalf("expected rate burst 100, got %d", cfg.RateLimitBurst)
	}
}

func TestLoadReliabilityConfigFromEnv_Missing(t *testing.T) {
	t.Setenv("ORDER_RETRY_MAX_ATTEMPTS", "")
	if _, err := LoadReliabilityConfigFromEnv(); err == nil {
		t.Fatalf("expected missing env error")
	}
}

func TestLoadReliabilityConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("ORDER_RETRY_MAX_ATTEMPTS", "notanint")
	if _, err := LoadReliabilityConfigFromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}

	t.Setenv("ORDER_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("ORDER_RETRY_BASE_DELAY", "-1ms")
	if _, err := LoadReliabilityConfigFromEnv(); err == nil {
		t.Fatalf("expected negative duration error")
	}
}

func TestReliabilityConfig_GuardWiresSettings(t *testing.T) {
	cfg := ReliabilityConfig{
		RetryMaxAttempts:    2,
		RetryBaseDelay:      time.Millisecond,
		RetryMaxDelay:       10 * time.Millisecond,
		BreakerMaxFailures:  3,
		BreakerResetTimeout: time.Second,
		RateLimitInterval:   time.Millisecond,
		RateLimitBurst:      5,
	}

	guard := cfg.Guard(nil)
	if guard.Limiter == nil || guard.Breaker == nil {
		t.Fatalf("expected limiter and breaker to be built")
	}
	if guard.Retry.MaxAttempts != 2 || guard.Retry.BaseDelay != time.Millisecond {
		t.Fatalf("unexpected retry policy: %+v", guard.Retry)
	}
}
