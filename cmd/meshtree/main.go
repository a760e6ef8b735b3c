// Package main is a command line tool that builds kd-trees over generated meshes, runs queries
// against them and benchmarks them against a brute-force scan.
package main

import (
	"io"
	"log"
	"os"
	"runtime"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"go.viam.com/meshtree/kdtree"
)

const (
	// Global flags.
	flagConfig   = "config"
	flagDebug    = "debug"
	flagMaxDepth = "max-depth"

	// Mesh flags.
	flagShape      = "shape"
	flagSize       = "size"
	flagResolution = "resolution"

	// Query flags.
	flagKind  = "kind"
	flagPoint = "point"
	flagDir   = "dir"
	flagTo    = "to"

	// Bench flags.
	flagQueries = "queries"
	flagWorkers = "workers"
	flagSeed    = "seed"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// meshtreeCLI holds state shared by the commands.
type meshtreeCLI struct {
	logger golog.Logger
}

func meshFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  flagShape,
			Value: shapeCube,
			Usage: "mesh to index: cube, sphere or grid",
		},
		&cli.Float64Flag{
			Name:  flagSize,
			Value: 1,
			Usage: "cube side, sphere radius or grid cell size",
		},
		&cli.IntFlag{
			Name:  flagResolution,
			Value: 16,
			Usage: "sphere rings (with twice as many segments) or grid cells per side",
		},
	}
}

func newApp(out io.Writer) *cli.App {
	mc := &meshtreeCLI{logger: zap.NewNop().Sugar()}
	return &cli.App{
		Name:            "meshtree",
		Usage:           "build and query kd-trees over triangle meshes",
		Writer:          out,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load tree configuration from JSON `FILE`",
			},
			&cli.IntFlag{
				Name:  flagMaxDepth,
				Value: kdtree.DefaultMaxDepth,
				Usage: "deepest level at which a node may be split, overrides the config file",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				mc.logger = golog.NewDebugLogger("meshtree")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "build a tree and print its statistics",
				Flags:  meshFlags(),
				Action: mc.buildAction,
			},
			{
				Name:      "query",
				Usage:     "run a single query against a tree",
				UsageText: "meshtree query --kind closest|outside|signed|ray|segment --point x,y,z [--dir x,y,z] [--to x,y,z]",
				Flags: append(meshFlags(),
					&cli.StringFlag{
						Name:  flagKind,
						Value: queryClosest,
						Usage: "closest, outside, signed, ray or segment",
					},
					&cli.Float64SliceFlag{
						Name:     flagPoint,
						Required: true,
						Usage:    "query point, or ray and segment origin",
					},
					&cli.Float64SliceFlag{
						Name:  flagDir,
						Usage: "ray direction, or half-space direction for outside queries",
					},
					&cli.Float64SliceFlag{
						Name:  flagTo,
						Usage: "segment end point",
					},
				),
				Action: mc.queryAction,
			},
			{
				Name:  "bench",
				Usage: "compare random queries against a brute-force scan",
				Flags: append(meshFlags(),
					&cli.IntFlag{
						Name:  flagQueries,
						Value: 1000,
						Usage: "number of queries of each kind",
					},
					&cli.IntFlag{
						Name:  flagWorkers,
						Value: runtime.NumCPU(),
						Usage: "number of concurrent workers",
					},
					&cli.Int64Flag{
						Name:  flagSeed,
						Value: 1,
						Usage: "random seed",
					},
				),
				Action: mc.benchAction,
			},
		},
	}
}
