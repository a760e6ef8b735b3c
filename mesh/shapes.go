package mesh

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// The six faces of a cube over vertices numbered by their sign bits (x=1, y=2, z=4), wound
// counter-clockwise when seen from outside.
var cubeQuads = [][4]uint32{
	{0, 2, 3, 1}, // -z
	{4, 5, 7, 6}, // +z
	{0, 1, 5, 4}, // -y
	{2, 6, 7, 3}, // +y
	{0, 4, 6, 2}, // -x
	{1, 3, 7, 5}, // +x
}

// NewCube returns an axis-aligned cube centered on the origin built from six outward-facing quads.
func NewCube(side float64) *IndexedMesh {
	h := side / 2
	vertices := lo.Times(8, func(i int) r3.Vector {
		v := r3.Vector{X: -h, Y: -h, Z: -h}
		if i&1 != 0 {
			v.X = h
		}
		if i&2 != 0 {
			v.Y = h
		}
		if i&4 != 0 {
			v.Z = h
		}
		return v
	})
	quads := make([][4]uint32, len(cubeQuads))
	copy(quads, cubeQuads)
	return NewIndexedMesh(vertices, nil, quads)
}

// NewGrid returns a heightfield of nx by ny square cells of the given size, with its corner at the
// origin and z taken from height. Faces point towards +z.
func NewGrid(nx, ny int, cell float64, height func(x, y float64) float64) (*IndexedMesh, error) {
	if nx < 1 || ny < 1 {
		return nil, errors.Errorf("grid needs at least one cell in each direction, got %dx%d", nx, ny)
	}
	if height == nil {
		height = func(x, y float64) float64 { return 0 }
	}
	index := func(i, j int) uint32 {
		return uint32(j*(nx+1) + i)
	}
	vertices := make([]r3.Vector, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			x, y := float64(i)*cell, float64(j)*cell
			vertices = append(vertices, r3.Vector{X: x, Y: y, Z: height(x, y)})
		}
	}
	quads := make([][4]uint32, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			quads = append(quads, [4]uint32{index(i, j), index(i+1, j), index(i+1, j+1), index(i, j+1)})
		}
	}
	return NewIndexedMesh(vertices, nil, quads), nil
}

// NewUVSphere returns a sphere centered on the origin made of quads between latitude rings and
// triangle fans at the poles. Faces point outwards.
func NewUVSphere(radius float64, rings, segments int) (*IndexedMesh, error) {
	if rings < 2 || segments < 3 {
		return nil, errors.Errorf("sphere needs at least 2 rings and 3 segments, got %d and %d", rings, segments)
	}
	ringVertex := func(ring, seg int) uint32 {
		return uint32(1 + (ring-1)*segments + seg%segments)
	}

	vertices := []r3.Vector{{Z: radius}}
	for ring := 1; ring < rings; ring++ {
		theta := math.Pi * float64(ring) / float64(rings)
		for seg := 0; seg < segments; seg++ {
			phi := 2 * math.Pi * float64(seg) / float64(segments)
			vertices = append(vertices, r3.Vector{
				X: radius * math.Sin(theta) * math.Cos(phi),
				Y: radius * math.Sin(theta) * math.Sin(phi),
				Z: radius * math.Cos(theta),
			})
		}
	}
	south := uint32(len(vertices))
	vertices = append(vertices, r3.Vector{Z: -radius})

	var triangles [][3]uint32
	var quads [][4]uint32
	for seg := 0; seg < segments; seg++ {
		triangles = append(triangles, [3]uint32{0, ringVertex(1, seg), ringVertex(1, seg+1)})
		triangles = append(triangles, [3]uint32{ringVertex(rings-1, seg), south, ringVertex(rings-1, seg+1)})
		for ring := 1; ring < rings-1; ring++ {
			quads = append(quads, [4]uint32{
				ringVertex(ring, seg),
				ringVertex(ring+1, seg),
				ringVertex(ring+1, seg+1),
				ringVertex(ring, seg+1),
			})
		}
	}
	return NewIndexedMesh(vertices, triangles, quads), nil
}
