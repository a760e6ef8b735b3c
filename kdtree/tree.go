// Package kdtree implements a spatial index over the triangles of a mesh. The tree is a binary
// hierarchy of axis-aligned boxes built with a surface-area style cost heuristic, and answers
// closest-point, ray, segment and signed-distance queries.
//
// A Tree is immutable once Build returns and is safe for concurrent queries.
package kdtree

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/meshtree/spatialmath"
)

// ErrTreeNotInitialized is returned by every query on a tree that holds no triangles.
var ErrTreeNotInitialized = errors.New("kd-tree not initialized")

type nodeKind uint8

const (
	internalNode nodeKind = iota
	leafNode
)

func (k nodeKind) String() string {
	if k == leafNode {
		return "leaf"
	}
	return "internal"
}

// node is an entry of the tree's arena. Internal nodes refer to their children by arena index;
// leaves refer to exactly one triangle.
type node struct {
	kind     nodeKind
	depth    int
	bounds   spatialmath.AABB
	children []int
	triangle int
}

// Stats describes the shape of a built tree.
type Stats struct {
	Triangles     int
	Nodes         int
	InternalNodes int
	Leaves        int
	// Depth is the deepest level any node sits at.
	Depth int
	// Truncated counts the nodes left unsplit because they were past the configured depth limit.
	Truncated int
	BuildTime time.Duration
}

// Tree is a kd-tree over the triangles of a mesh.
type Tree struct {
	nodes     []node
	triangles []*spatialmath.Triangle
	root      int

	cfg    Config
	stats  Stats
	logger golog.Logger
}

// Bounds returns the box around every triangle in the tree.
func (t *Tree) Bounds() spatialmath.AABB {
	if len(t.nodes) == 0 {
		return spatialmath.AABB{}
	}
	return t.nodes[t.root].bounds
}

// Triangles returns the indexed triangles. Quads come first, two triangles each in face order,
// followed by the native triangles of the mesh. Hit.TriangleIndex refers to this slice.
func (t *Tree) Triangles() []*spatialmath.Triangle {
	return t.triangles
}

// Stats returns statistics gathered while building the tree.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Depth returns the depth of the deepest node.
func (t *Tree) Depth() int {
	return t.stats.Depth
}

// Config returns the configuration the tree was built with.
func (t *Tree) Config() Config {
	return t.cfg
}

func (t *Tree) initialized() error {
	if t == nil || len(t.nodes) == 0 || len(t.nodes[t.root].children) == 0 {
		return ErrTreeNotInitialized
	}
	return nil
}

// computeStats walks the arena once and fills in the node counts and depth.
func (t *Tree) computeStats() {
	t.stats.Triangles = len(t.triangles)
	t.stats.Nodes = len(t.nodes)
	t.stats.InternalNodes = 0
	t.stats.Leaves = 0
	t.stats.Depth = 0
	for _, n := range t.nodes {
		if n.kind == leafNode {
			t.stats.Leaves++
		} else {
			t.stats.InternalNodes++
		}
		if n.depth > t.stats.Depth {
			t.stats.Depth = n.depth
		}
	}
}
