package kdtree

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	viamutils "go.viam.com/utils"
)

// Defaults for the split cost model.
const (
	DefaultMaxDepth      = 16
	DefaultIntersectCost = 80.
	DefaultTraversalCost = 1.
	DefaultEmptyBonus    = 0.2

	// maxAllowedDepth keeps a misconfigured tree from subdividing without bound.
	maxAllowedDepth = 64
)

// Config holds the build parameters of a Tree.
type Config struct {
	// MaxDepth is the deepest level at which a node may still be split. The root is at depth 0.
	MaxDepth int `json:"max_depth"`

	// IntersectCost is the estimated cost of testing a single triangle.
	IntersectCost float64 `json:"intersect_cost"`

	// TraversalCost is the estimated cost of stepping into an internal node.
	TraversalCost float64 `json:"traversal_cost"`

	// EmptyBonus discounts splits that leave one side without children. Must be in [0, 1).
	EmptyBonus float64 `json:"empty_bonus"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxDepth:      DefaultMaxDepth,
		IntersectCost: DefaultIntersectCost,
		TraversalCost: DefaultTraversalCost,
		EmptyBonus:    DefaultEmptyBonus,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var err error
	if cfg.MaxDepth < 0 || cfg.MaxDepth > maxAllowedDepth {
		err = multierr.Append(err, viamutils.NewConfigValidationError(path,
			errors.Errorf("max_depth must be between 0 and %d, got %d", maxAllowedDepth, cfg.MaxDepth)))
	}
	if cfg.IntersectCost <= 0 {
		err = multierr.Append(err, viamutils.NewConfigValidationError(path,
			errors.Errorf("intersect_cost must be positive, got %v", cfg.IntersectCost)))
	}
	if cfg.TraversalCost < 0 {
		err = multierr.Append(err, viamutils.NewConfigValidationError(path,
			errors.Errorf("traversal_cost cannot be negative, got %v", cfg.TraversalCost)))
	}
	if cfg.EmptyBonus < 0 || cfg.EmptyBonus >= 1 {
		err = multierr.Append(err, viamutils.NewConfigValidationError(path,
			errors.Errorf("empty_bonus must be in [0, 1), got %v", cfg.EmptyBonus)))
	}
	return err
}

// NewConfigFromAttributes decodes a config from loosely typed attributes, such as those read from
// a JSON document. Fields that are absent keep their default values.
func NewConfigFromAttributes(attrs map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return Config{}, errors.Wrap(err, "cannot decode kd-tree config")
	}
	return cfg, nil
}
