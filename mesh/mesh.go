// Package mesh describes the indexed triangle/quad meshes consumed by the spatial index, along
// with a few procedural shapes used for testing and benchmarking.
package mesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshtree/spatialmath"
)

// A Mesh supplies vertex positions and the faces that index into them.
type Mesh interface {
	Vertices() []r3.Vector
	Triangles() [][3]uint32
	Quads() [][4]uint32
}

// IndexedMesh is a plain in-memory Mesh.
type IndexedMesh struct {
	vertices  []r3.Vector
	triangles [][3]uint32
	quads     [][4]uint32
}

// NewIndexedMesh returns a mesh over the given vertices and faces. Either face list may be nil.
func NewIndexedMesh(vertices []r3.Vector, triangles [][3]uint32, quads [][4]uint32) *IndexedMesh {
	return &IndexedMesh{
		vertices:  vertices,
		triangles: triangles,
		quads:     quads,
	}
}

// Vertices returns the vertex positions.
func (m *IndexedMesh) Vertices() []r3.Vector {
	return m.vertices
}

// Triangles returns the triangular faces.
func (m *IndexedMesh) Triangles() [][3]uint32 {
	return m.triangles
}

// Quads returns the quadrilateral faces.
func (m *IndexedMesh) Quads() [][4]uint32 {
	return m.quads
}

// FaceCount returns the number of triangles the mesh yields once its quads are split.
func FaceCount(m Mesh) int {
	return len(m.Triangles()) + 2*len(m.Quads())
}

// Bounds returns the box around every vertex of the mesh.
func Bounds(m Mesh) spatialmath.AABB {
	return spatialmath.NewAABBFromPoints(m.Vertices()...)
}

// Validate checks that every face index refers to an existing vertex.
func Validate(m Mesh) error {
	n := uint32(len(m.Vertices()))
	for i, tri := range m.Triangles() {
		for _, idx := range tri {
			if idx >= n {
				return errors.Errorf("triangle %d references vertex %d but the mesh has %d vertices", i, idx, n)
			}
		}
	}
	for i, quad := range m.Quads() {
		for _, idx := range quad {
			if idx >= n {
				return errors.Errorf("quad %d references vertex %d but the mesh has %d vertices", i, idx, n)
			}
		}
	}
	return nil
}
