package bot

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeFlowDefaults(t *testing.T) {
	var fc FlowConfig
	normalizeFlow(&fc)
	if fc.StateTTLMinutes != 60 {
		t.Errorf("StateTTLMinutes = %d, want 60", fc.StateTTLMinutes)
	}
	if fc.SweepSchedule != "@every 10m" {
		t.Errorf("SweepSchedule = %q", fc.SweepSchedule)
	}
	if fc.RecentLimit != 5 {
		t.Errorf("RecentLimit = %d, want 5", fc.RecentLimit)
	}
	if fc.StatsWindowDays != 30 {
		t.Errorf("StatsWindowDays = %d, want 30", fc.StatsWindowDays)
	}
	if fc.OpTimeoutSeconds != 5 {
		t.Errorf("OpTimeoutSeconds = %d, want 5", fc.OpTimeoutSeconds)
	}
}

func TestNormalizeFlowKeepsExplicit(t *testing.T) {
	fc := FlowConfig{StateTTLMinutes: 15, SweepSchedule: "@every 1m", RecentLimit: 10, StatsWindowDays: 7}
	normalizeFlow(&fc)
	if fc.StateTTLMinutes != 15 || fc.SweepSchedule != "@every 1m" || fc.RecentLimit != 10 || fc.StatsWindowDays != 7 {
		t.Errorf("explicit values overwritten: %+v", fc)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
telegram:
  token: "test-token"
  run_mode: longpoll
database:
  host: localhost
  port: "5432"
  user: bot
  name: nextexpense
flow:
  recent_limit: 3
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Core.Telegram.Token != "test-token" {
		t.Errorf("token = %q", cfg.Core.Telegram.Token)
	}
	if cfg.Database.Name != "nextexpense" {
		t.Errorf("db name = %q", cfg.Database.Name)
	}
	if cfg.Flow.RecentLimit != 3 {
		t.Errorf("recent_limit = %d, want 3", cfg.Flow.RecentLimit)
	}
	if cfg.Flow.StatsWindowDays != 30 {
		t.Errorf("stats window default = %d, want 30", cfg.Flow.StatsWindowDays)
	}
	if cfg.CoreConfig() == nil {
		t.Fatal("CoreConfig returned nil")
	}
}
