package interaction

import "github.com/dd0wney/topomap/pkg/validation"

// Config tunes pointer handling.
type Config struct {
	MinScale       float64 `yaml:"min_scale" toml:"min_scale"`
	MaxScale       float64 `yaml:"max_scale" toml:"max_scale"`
	ClickThreshold float64 `yaml:"click_threshold" toml:"click_threshold"` // screen pixels
	ZoomStep       float64 `yaml:"zoom_step" toml:"zoom_step"`             // scale factor per wheel notch
	PanStep        float64 `yaml:"pan_step" toml:"pan_step"`               // screen pixels per keyboard pan
	TooltipOffsetX float64 `yaml:"tooltip_offset_x" toml:"tooltip_offset_x"`
	TooltipOffsetY float64 `yaml:"tooltip_offset_y" toml:"tooltip_offset_y"`
	FitPadding     float64 `yaml:"fit_padding" toml:"fit_padding"`
	// DragAlphaTarget is the alpha target held while a node is dragged.
	DragAlphaTarget float64 `yaml:"drag_alpha_target" toml:"drag_alpha_target"`
}

// DefaultConfig returns the stock interaction settings.
func DefaultConfig() Config {
	return Config{
		MinScale:        0.1,
		MaxScale:        4,
		ClickThreshold:  4,
		ZoomStep:        1.2,
		PanStep:         40,
		TooltipOffsetX:  10,
		TooltipOffsetY:  -30,
		FitPadding:      40,
		DragAlphaTarget: 0.3,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("interaction").
		PositiveFloat("min_scale", c.MinScale).
		Less("min_scale", c.MinScale, "max_scale", c.MaxScale).
		NonNegativeFloat("click_threshold", c.ClickThreshold).
		MinFloat("zoom_step", c.ZoomStep, 1.0001).
		NonNegativeFloat("pan_step", c.PanStep).
		NonNegativeFloat("fit_padding", c.FitPadding).
		RangeFloat("drag_alpha_target", c.DragAlphaTarget, 0, 1).
		Validate()
}
