package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	viamutils "go.viam.com/utils"

	"go.viam.com/meshtree/kdtree"
	"go.viam.com/meshtree/mesh"
)

const (
	shapeCube   = "cube"
	shapeSphere = "sphere"
	shapeGrid   = "grid"

	queryClosest = "closest"
	queryOutside = "outside"
	querySigned  = "signed"
	queryRay     = "ray"
	querySegment = "segment"
)

// loadMesh generates the mesh selected by the shape flags.
func loadMesh(c *cli.Context) (mesh.Mesh, error) {
	size := c.Float64(flagSize)
	if size <= 0 {
		return nil, errors.Errorf("--%s must be positive, got %v", flagSize, size)
	}
	res := c.Int(flagResolution)
	switch shape := c.String(flagShape); shape {
	case shapeCube:
		return mesh.NewCube(size), nil
	case shapeSphere:
		return mesh.NewUVSphere(size, res, 2*res)
	case shapeGrid:
		return mesh.NewGrid(res, res, size, func(x, y float64) float64 {
			return size * math.Sin(x/size) * math.Cos(y/size) / 4
		})
	default:
		return nil, errors.Errorf("unknown shape %q, expected %s, %s or %s", shape, shapeCube, shapeSphere, shapeGrid)
	}
}

// loadConfig reads the tree configuration from the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (kdtree.Config, error) {
	cfg := kdtree.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		//nolint:gosec
		f, err := os.Open(path)
		if err != nil {
			return kdtree.Config{}, errors.Wrap(err, "cannot read config")
		}
		defer viamutils.UncheckedErrorFunc(f.Close)

		var attrs map[string]interface{}
		if err := json.NewDecoder(f).Decode(&attrs); err != nil {
			return kdtree.Config{}, errors.Wrapf(err, "cannot parse config %q", path)
		}
		if cfg, err = kdtree.NewConfigFromAttributes(attrs); err != nil {
			return kdtree.Config{}, err
		}
	}
	if c.IsSet(flagMaxDepth) {
		cfg.MaxDepth = c.Int(flagMaxDepth)
	}
	return cfg, nil
}

func (mc *meshtreeCLI) buildTree(c *cli.Context) (*kdtree.Tree, error) {
	m, err := loadMesh(c)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return kdtree.Build(m, cfg, mc.logger)
}

func vectorFlag(c *cli.Context, name string) (r3.Vector, error) {
	values := c.Float64Slice(name)
	if len(values) != 3 {
		return r3.Vector{}, errors.Errorf("--%s needs three comma separated values, got %d", name, len(values))
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}, nil
}

func formatVector(v r3.Vector) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v.X, v.Y, v.Z)
}

func (mc *meshtreeCLI) buildAction(c *cli.Context) error {
	tree, err := mc.buildTree(c)
	if err != nil {
		return err
	}
	stats := tree.Stats()
	cfg := tree.Config()
	bounds := tree.Bounds()

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Property", "Value"})
	t.AppendRows([]table.Row{
		{"Shape", c.String(flagShape)},
		{"Triangles", stats.Triangles},
		{"Nodes", stats.Nodes},
		{"Internal nodes", stats.InternalNodes},
		{"Leaves", stats.Leaves},
		{"Depth", stats.Depth},
		{"Truncated nodes", stats.Truncated},
		{"Build time", stats.BuildTime},
		{"Bounds min", formatVector(bounds.Min)},
		{"Bounds max", formatVector(bounds.Max)},
		{"Max depth", cfg.MaxDepth},
		{"Intersect cost", cfg.IntersectCost},
		{"Traversal cost", cfg.TraversalCost},
		{"Empty bonus", cfg.EmptyBonus},
	})
	t.Render()
	return nil
}

func (mc *meshtreeCLI) queryAction(c *cli.Context) error {
	tree, err := mc.buildTree(c)
	if err != nil {
		return err
	}
	point, err := vectorFlag(c, flagPoint)
	if err != nil {
		return err
	}

	var hit kdtree.Hit
	switch kind := c.String(flagKind); kind {
	case queryClosest:
		hit, err = tree.ClosestPoint(point)
	case querySigned:
		hit, err = tree.ClosestPointSignedDistance(point)
	case queryOutside, queryRay:
		dir, dirErr := vectorFlag(c, flagDir)
		if dirErr != nil {
			return dirErr
		}
		if kind == queryOutside {
			hit, err = tree.ClosestPointOutside(point, dir)
		} else {
			hit, err = tree.IntersectRay(point, dir)
		}
	case querySegment:
		to, toErr := vectorFlag(c, flagTo)
		if toErr != nil {
			return toErr
		}
		hit, err = tree.IntersectSegment(point, to)
	default:
		return errors.Errorf("unknown query kind %q", kind)
	}
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Kind", "Found", "Distance", "Point", "Triangle", "Normal"})
	if !hit.Found() {
		t.AppendRow(table.Row{c.String(flagKind), false, "-", "-", "-", "-"})
	} else {
		t.AppendRow(table.Row{
			c.String(flagKind),
			true,
			fmt.Sprintf("%.4f", hit.Distance),
			formatVector(hit.Point),
			hit.TriangleIndex,
			formatVector(hit.Triangle.Normal()),
		})
	}
	t.Render()
	return nil
}
