package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"go.viam.com/meshtree/kdtree"
	"go.viam.com/meshtree/spatialmath"
	"go.viam.com/meshtree/utils"
)

// matchTolerance is how far a tree result may drift from the brute-force result.
const matchTolerance = 1e-9

type benchQuery struct {
	point r3.Vector
	dir   r3.Vector
}

// benchResult holds per-query timings for one kind of query.
type benchResult struct {
	name       string
	tree       []time.Duration
	scan       []time.Duration
	mismatches atomic.Int64
}

func newBenchResult(name string, n int) *benchResult {
	return &benchResult{
		name: name,
		tree: make([]time.Duration, n),
		scan: make([]time.Duration, n),
	}
}

// randomQueries spreads query points over the bounds grown by half their size on every side.
func randomQueries(rnd *rand.Rand, bounds spatialmath.AABB, n int) []benchQuery {
	size := bounds.Size().Mul(2)
	origin := bounds.Center().Sub(size.Mul(0.5))
	return lo.Times(n, func(int) benchQuery {
		return benchQuery{
			point: r3.Vector{
				X: origin.X + rnd.Float64()*size.X,
				Y: origin.Y + rnd.Float64()*size.Y,
				Z: origin.Z + rnd.Float64()*size.Z,
			},
			dir: r3.Vector{X: rnd.NormFloat64(), Y: rnd.NormFloat64(), Z: rnd.NormFloat64()},
		}
	})
}

func sameHit(a, b kdtree.Hit) bool {
	if a.Found() != b.Found() {
		return false
	}
	return !a.Found() || utils.Float64AlmostEqual(a.Distance, b.Distance, matchTolerance)
}

func (mc *meshtreeCLI) benchAction(c *cli.Context) error {
	tree, err := mc.buildTree(c)
	if err != nil {
		return err
	}
	n := c.Int(flagQueries)
	if n < 1 {
		return errors.Errorf("--%s must be positive, got %d", flagQueries, n)
	}
	workers := utils.MaxInt(c.Int(flagWorkers), 1)
	queries := randomQueries(rand.New(rand.NewSource(c.Int64(flagSeed))), tree.Bounds(), n)
	tris := tree.Triangles()

	closest := newBenchResult("closest point", n)
	ray := newBenchResult("ray", n)

	g, ctx := errgroup.WithContext(c.Context)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < n; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				q := queries[i]

				start := time.Now()
				got, err := tree.ClosestPoint(q.point)
				closest.tree[i] = time.Since(start)
				if err != nil {
					return err
				}
				start = time.Now()
				want := kdtree.ScanClosestPoint(tris, q.point)
				closest.scan[i] = time.Since(start)
				if !sameHit(got, want) {
					closest.mismatches.Inc()
					mc.logger.Warnw("closest point mismatch", "point", q.point, "tree", got.Distance, "scan", want.Distance)
				}

				start = time.Now()
				got, err = tree.IntersectRay(q.point, q.dir)
				ray.tree[i] = time.Since(start)
				if err != nil {
					return err
				}
				start = time.Now()
				want = kdtree.ScanRay(tris, q.point, q.dir)
				ray.scan[i] = time.Since(start)
				if !sameHit(got, want) {
					ray.mismatches.Inc()
					mc.logger.Warnw("ray mismatch", "origin", q.point, "dir", q.dir, "tree", got.Distance, "scan", want.Distance)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Query", "Count", "Mismatches", "Mean µs", "P50 µs", "P90 µs", "P99 µs", "Scan mean µs", "Speedup"})
	for _, res := range []*benchResult{closest, ray} {
		row, err := res.row()
		if err != nil {
			return err
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintf(c.App.Writer, "%d triangles, %d workers\n", len(tris), workers)
	return nil
}

func micros(durations []time.Duration) stats.Float64Data {
	return lo.Map(durations, func(d time.Duration, _ int) float64 {
		return float64(d.Nanoseconds()) / 1e3
	})
}

func (res *benchResult) row() (table.Row, error) {
	treeTimes := micros(res.tree)
	mean, err := stats.Mean(treeTimes)
	if err != nil {
		return nil, err
	}
	percentiles := make([]float64, 0, 3)
	for _, p := range []float64{50, 90, 99} {
		v, err := stats.Percentile(treeTimes, p)
		if err != nil {
			return nil, err
		}
		percentiles = append(percentiles, v)
	}
	scanMean, err := stats.Mean(micros(res.scan))
	if err != nil {
		return nil, err
	}
	speedup := "-"
	if mean > 0 {
		speedup = fmt.Sprintf("%.1fx", scanMean/mean)
	}
	return table.Row{
		res.name,
		len(res.tree),
		res.mismatches.Load(),
		fmt.Sprintf("%.2f", mean),
		fmt.Sprintf("%.2f", percentiles[0]),
		fmt.Sprintf("%.2f", percentiles[1]),
		fmt.Sprintf("%.2f", percentiles[2]),
		fmt.Sprintf("%.2f", scanMean),
		speedup,
	}, nil
}
