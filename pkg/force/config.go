package force

import (
	"math"

	"github.com/dd0wney/topomap/pkg/validation"
)

// Config holds the simulation tuning constants. They are visual tuning
// parameters; only the qualitative layout properties are contracts.
type Config struct {
	// Many-body repulsion
	ChargeStrength float64 `yaml:"charge_strength" toml:"charge_strength"`
	Theta          float64 `yaml:"theta" toml:"theta"`
	DistanceMin    float64 `yaml:"distance_min" toml:"distance_min"`
	DistanceMax    float64 `yaml:"distance_max" toml:"distance_max"` // 0 means unbounded

	// Link springs
	ContainsDistance float64 `yaml:"contains_distance" toml:"contains_distance"`
	ConnectsDistance float64 `yaml:"connects_distance" toml:"connects_distance"`
	LinkIterations   int     `yaml:"link_iterations" toml:"link_iterations"`

	// Centering
	CenterStrength float64 `yaml:"center_strength" toml:"center_strength"`

	// Collision
	CollidePadding    float64 `yaml:"collide_padding" toml:"collide_padding"`
	CollideStrength   float64 `yaml:"collide_strength" toml:"collide_strength"`
	CollideIterations int     `yaml:"collide_iterations" toml:"collide_iterations"`

	// Integration and cooling
	VelocityDecay   float64 `yaml:"velocity_decay" toml:"velocity_decay"`
	AlphaMin        float64 `yaml:"alpha_min" toml:"alpha_min"`
	AlphaDecay      float64 `yaml:"alpha_decay" toml:"alpha_decay"`
	DragAlphaTarget float64 `yaml:"drag_alpha_target" toml:"drag_alpha_target"`
}

// DefaultAlphaDecay cools alpha from 1 to AlphaMin in about 300 ticks.
func DefaultAlphaDecay(alphaMin float64) float64 {
	return 1 - math.Pow(alphaMin, 1.0/300)
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		ChargeStrength:    -400,
		Theta:             0.9,
		DistanceMin:       1,
		ContainsDistance:  80,
		ConnectsDistance:  140,
		LinkIterations:    1,
		CenterStrength:    0.1,
		CollidePadding:    4,
		CollideStrength:   1,
		CollideIterations: 1,
		VelocityDecay:     0.4,
		AlphaMin:          0.001,
		AlphaDecay:        DefaultAlphaDecay(0.001),
		DragAlphaTarget:   0.3,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("force").
		MaxFloat("charge_strength", c.ChargeStrength, 0).
		RangeFloat("theta", c.Theta, 0, 2).
		PositiveFloat("distance_min", c.DistanceMin).
		NonNegativeFloat("distance_max", c.DistanceMax).
		When(c.DistanceMax > 0, func(v *validation.ConfigValidator) {
			v.Less("distance_min", c.DistanceMin, "distance_max", c.DistanceMax)
		}).
		PositiveFloat("contains_distance", c.ContainsDistance).
		PositiveFloat("connects_distance", c.ConnectsDistance).
		Less("contains_distance", c.ContainsDistance, "connects_distance", c.ConnectsDistance).
		RangeInt("link_iterations", c.LinkIterations, 1, 16).
		RangeFloat("center_strength", c.CenterStrength, 0, 1).
		NonNegativeFloat("collide_padding", c.CollidePadding).
		RangeFloat("collide_strength", c.CollideStrength, 0, 1).
		RangeInt("collide_iterations", c.CollideIterations, 0, 16).
		RangeFloat("velocity_decay", c.VelocityDecay, 0, 1).
		RangeFloat("alpha_min", c.AlphaMin, 0, 1).
		RangeFloat("alpha_decay", c.AlphaDecay, 0, 1).
		RangeFloat("drag_alpha_target", c.DragAlphaTarget, 0, 1).
		Validate()
}
