package bot

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/akihotaki/NextExpense/internal/config"
	"github.com/akihotaki/NextExpense/internal/database"
)

// FlowConfig tunes the add-expense conversation and reporting commands.
type FlowConfig struct {
	// StateTTLMinutes is how long an abandoned flow survives before the
	// sweeper drops it.
	StateTTLMinutes int `yaml:"state_ttl_minutes" envconfig:"FLOW_STATE_TTL_MINUTES"`
	// SweepSchedule is a cron spec for the stale-state sweeper.
	SweepSchedule string `yaml:"sweep_schedule" envconfig:"FLOW_SWEEP_SCHEDULE"`
	// RecentLimit caps how many expenses /recent shows.
	RecentLimit int `yaml:"recent_limit" envconfig:"RECENT_LIMIT"`
	// StatsWindowDays is the trailing window /stats aggregates over.
	StatsWindowDays int `yaml:"stats_window_days" envconfig:"STATS_WINDOW_DAYS"`
	// OpTimeoutSeconds bounds individual ledger calls made by the flow.
	OpTimeoutSeconds int `yaml:"op_timeout_seconds" envconfig:"FLOW_OP_TIMEOUT_SECONDS"`
}

// Config aggregates the core bot configuration with expense-tracker settings.
type Config struct {
	Core     coreconfig.Config `yaml:",inline"`
	Database database.Config   `yaml:"database"`
	Flow     FlowConfig        `yaml:"flow"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// LoadConfig reads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	normalizeFlow(&cfg.Flow)
	return &cfg, nil
}

func normalizeFlow(fc *FlowConfig) {
	if fc.StateTTLMinutes <= 0 {
		fc.StateTTLMinutes = 60
	}
	if fc.SweepSchedule == "" {
		fc.SweepSchedule = "@every 10m"
	}
	if fc.RecentLimit <= 0 {
		fc.RecentLimit = 5
	}
	if fc.StatsWindowDays <= 0 {
		fc.StatsWindowDays = 30
	}
	if fc.OpTimeoutSeconds <= 0 {
		fc.OpTimeoutSeconds = 5
	}
}
