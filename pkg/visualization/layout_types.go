// Package visualization ties the topology model, force engine, interaction
// controller and renderer into a frame-driven view, and provides alternative
// seed placers and export helpers.
package visualization

import "github.com/dd0wney/topomap/pkg/validation"

// LayoutConfig configures the seed placers.
type LayoutConfig struct {
	Spacing  float64 `yaml:"spacing" toml:"spacing"`     // distance between neighbours on a ring or level
	LevelGap float64 `yaml:"level_gap" toml:"level_gap"` // distance between hierarchy levels
}

// DefaultLayoutConfig returns the stock placer spacing.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Spacing:  60,
		LevelGap: 120,
	}
}

// Validate checks the configuration.
func (c *LayoutConfig) Validate() error {
	return validation.NewConfigValidator("layout").
		PositiveFloat("spacing", c.Spacing).
		PositiveFloat("level_gap", c.LevelGap).
		Validate()
}

func (c LayoutConfig) orDefault() LayoutConfig {
	if c.Validate() != nil {
		return DefaultLayoutConfig()
	}
	return c
}
