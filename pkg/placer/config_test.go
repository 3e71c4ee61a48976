package placer

import (
	"testing"

	"github.com/silkworks/autosilk/pkg/errors"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode errors.Code
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "zero distance is valid",
			mutate: func(c *Config) { c.MaxAllowedDistance = 0 },
		},
		{
			name:     "negative distance",
			mutate:   func(c *Config) { c.MaxAllowedDistance = -1 },
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "zero step",
			mutate:   func(c *Config) { c.StepSize = 0 },
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "negative step",
			mutate:   func(c *Config) { c.StepSize = -0.1 },
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "deflate factor zero",
			mutate:   func(c *Config) { c.DeflateFactor = 0 },
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "deflate factor above one",
			mutate:   func(c *Config) { c.DeflateFactor = 1.5 },
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name:     "unknown strategy",
			mutate:   func(c *Config) { c.Strategy = "newton" },
			wantCode: errors.ErrCodeInvalidStrategy,
		},
		{
			name: "anneal without iterations",
			mutate: func(c *Config) {
				c.Strategy = StrategyAnneal
				c.MaxIterations = 0
			},
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "grid ignores iteration cap",
			mutate: func(c *Config) {
				c.Strategy = StrategyGrid
				c.MaxIterations = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("Validate() error code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}
