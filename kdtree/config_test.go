package kdtree

import (
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate("kdtree"), test.ShouldBeNil)

	cfg.MaxDepth = 0
	test.That(t, cfg.Validate("kdtree"), test.ShouldBeNil)

	bad := Config{
		MaxDepth:      -1,
		IntersectCost: 0,
		TraversalCost: 1,
		EmptyBonus:    1,
	}
	err := bad.Validate("kdtree")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 3)
	test.That(t, err.Error(), test.ShouldContainSubstring, "kdtree")
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_depth")
	test.That(t, err.Error(), test.ShouldContainSubstring, "intersect_cost")
	test.That(t, err.Error(), test.ShouldContainSubstring, "empty_bonus")

	bad = DefaultConfig()
	bad.TraversalCost = -2
	err = bad.Validate("kdtree")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "traversal_cost")

	bad = DefaultConfig()
	bad.MaxDepth = maxAllowedDepth + 1
	test.That(t, bad.Validate("kdtree"), test.ShouldNotBeNil)
}

func TestNewConfigFromAttributes(t *testing.T) {
	t.Run("empty attributes keep defaults", func(t *testing.T) {
		cfg, err := NewConfigFromAttributes(nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg, test.ShouldResemble, DefaultConfig())
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := NewConfigFromAttributes(map[string]interface{}{
			"max_depth":      "8",
			"intersect_cost": 40,
			"empty_bonus":    0.5,
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cfg.MaxDepth, test.ShouldEqual, 8)
		test.That(t, cfg.IntersectCost, test.ShouldEqual, 40.)
		test.That(t, cfg.EmptyBonus, test.ShouldEqual, 0.5)
		test.That(t, cfg.TraversalCost, test.ShouldEqual, DefaultTraversalCost)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := NewConfigFromAttributes(map[string]interface{}{"depth": 3})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "depth")
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := NewConfigFromAttributes(map[string]interface{}{"max_depth": "deep"})
		test.That(t, err, test.ShouldNotBeNil)
	})
}
