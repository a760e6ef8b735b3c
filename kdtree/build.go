package kdtree

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshtree/mesh"
	"go.viam.com/meshtree/spatialmath"
)

// Build indexes the triangles of m. Quads are split into two triangles along their shorter
// diagonal. A mesh without faces yields a tree on which every query returns ErrTreeNotInitialized.
// A nil logger logs to the global logger.
func Build(m mesh.Mesh, cfg Config, logger golog.Logger) (*Tree, error) {
	if logger == nil {
		logger = golog.Global()
	}
	if err := cfg.Validate("kdtree"); err != nil {
		return nil, err
	}
	if err := mesh.Validate(m); err != nil {
		return nil, errors.Wrap(err, "cannot index mesh")
	}

	start := time.Now()
	t := &Tree{
		triangles: triangulate(m),
		cfg:       cfg,
		logger:    logger,
	}

	// a binary hierarchy over n leaves has fewer than 2n nodes
	t.nodes = make([]node, 1, 2*len(t.triangles)+1)
	t.root = 0
	t.nodes[t.root] = node{kind: internalNode}
	children := make([]int, 0, len(t.triangles))
	for i, tri := range t.triangles {
		children = append(children, len(t.nodes))
		t.nodes = append(t.nodes, node{
			kind:     leafNode,
			depth:    1,
			bounds:   tri.Bounds(),
			triangle: i,
		})
	}
	t.nodes[t.root].children = children
	t.updateBounds(t.root)

	t.buildTree()

	t.stats.BuildTime = time.Since(start)
	t.computeStats()
	if t.stats.Truncated > 0 {
		logger.Warnw("kd-tree subdivision stopped at depth limit",
			"max_depth", cfg.MaxDepth,
			"truncated_nodes", t.stats.Truncated)
	}
	logger.Debugw("built kd-tree",
		"triangles", t.stats.Triangles,
		"nodes", t.stats.Nodes,
		"leaves", t.stats.Leaves,
		"depth", t.stats.Depth,
		"build_time", t.stats.BuildTime)
	return t, nil
}

// triangulate converts the faces of m into triangles, quads first.
func triangulate(m mesh.Mesh) []*spatialmath.Triangle {
	verts := m.Vertices()
	tris := make([]*spatialmath.Triangle, 0, mesh.FaceCount(m))
	for _, quad := range m.Quads() {
		for _, face := range splitQuad(verts, quad) {
			tris = append(tris, spatialmath.NewTriangle(verts[face[0]], verts[face[1]], verts[face[2]]))
		}
	}
	for _, face := range m.Triangles() {
		tris = append(tris, spatialmath.NewTriangle(verts[face[0]], verts[face[1]], verts[face[2]]))
	}
	return tris
}

// splitQuad cuts the quad a-b-c-d along whichever of a-c and b-d is shorter, keeping its winding.
// Equal diagonals split along a-c.
func splitQuad(verts []r3.Vector, quad [4]uint32) [2][3]uint32 {
	a, b, c, d := verts[quad[0]], verts[quad[1]], verts[quad[2]], verts[quad[3]]
	if a.Sub(c).Norm2() <= b.Sub(d).Norm2() {
		return [2][3]uint32{
			{quad[0], quad[1], quad[2]},
			{quad[0], quad[2], quad[3]},
		}
	}
	return [2][3]uint32{
		{quad[0], quad[1], quad[3]},
		{quad[1], quad[2], quad[3]},
	}
}

// updateBounds recomputes the bounds of the node at idx from its children.
func (t *Tree) updateBounds(idx int) {
	children := t.nodes[idx].children
	if len(children) == 0 {
		return
	}
	bounds := t.nodes[children[0]].bounds
	for _, child := range children[1:] {
		bounds = bounds.Union(t.nodes[child].bounds)
	}
	t.nodes[idx].bounds = bounds
}

// buildTree subdivides nodes breadth first until no split pays off or the depth limit is reached.
// Nodes that are not split keep their children flat.
func (t *Tree) buildTree() {
	queue := []int{t.root}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]

		depth := t.nodes[idx].depth
		count := len(t.nodes[idx].children)
		if count < 2 {
			continue
		}
		if depth > t.cfg.MaxDepth {
			t.stats.Truncated++
			continue
		}

		_, best, edges := t.splitPosition(idx)
		if best <= 0 || best >= len(edges)-1 {
			continue
		}
		left, right := partitionEdges(edges, best, count)
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		leftIdx := t.newInternal(idx, left, depth+1)
		rightIdx := t.newInternal(idx, right, depth+1)
		t.nodes[idx].children = []int{leftIdx, rightIdx}
		queue = append(queue, leftIdx, rightIdx)
	}
}

// newInternal adds a node at depth holding the given children of parent, identified by their
// position in the parent's children slice, and returns its arena index.
func (t *Tree) newInternal(parent int, positions []int, depth int) int {
	parentChildren := t.nodes[parent].children
	children := make([]int, len(positions))
	for i, pos := range positions {
		child := parentChildren[pos]
		children[i] = child
		t.nodes[child].depth = depth + 1
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{
		kind:     internalNode,
		depth:    depth,
		children: children,
	})
	t.updateBounds(idx)
	return idx
}
