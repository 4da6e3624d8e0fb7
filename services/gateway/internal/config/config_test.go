package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Port != 3000 {
		t.Fatalf("expected default port 3000, got %d", cfg.Port)
	}
	s := cfg.Scope()
	if s.Identity != "Admin@eventtickets.com" || s.Channel != "eventorgchannel" || s.Contract != "eventticketmgt" {
		t.Fatalf("unexpected scope %+v", s)
	}
	if !cfg.AsLocalhost || cfg.AllowEmptyResult {
		t.Fatalf("unexpected flags %+v", cfg)
	}
	if cfg.Timeouts().CommitStatus != time.Minute {
		t.Fatalf("unexpected commit status timeout %s", cfg.Timeouts().CommitStatus)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("GATEWAY_CHANNEL", "mychannel")
	t.Setenv("GATEWAY_EVALUATE_TIMEOUT", "750ms")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Port != 8088 || cfg.Channel != "mychannel" || cfg.EvaluateTimeout != 750*time.Millisecond || cfg.RateLimitRPS != 2.5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected port validation error")
	}
	t.Setenv("PORT", "abc")
	_, err := Load()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "parse env:") || !strings.Contains(err.Error(), "Port") {
		t.Fatalf("expected wrapped env error naming Port, got %v", err)
	}
	t.Setenv("PORT", "3000")
	t.Setenv("GATEWAY_SUBMIT_TIMEOUT", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SubmitTimeout") {
		t.Fatalf("expected duration parse error, got %v", err)
	}
}
