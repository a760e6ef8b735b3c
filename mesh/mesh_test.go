package mesh

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/meshtree/spatialmath"
)

// faceTriangles fans every face of m into triangles for orientation checks.
func faceTriangles(m Mesh) []*spatialmath.Triangle {
	verts := m.Vertices()
	var tris []*spatialmath.Triangle
	for _, f := range m.Triangles() {
		tris = append(tris, spatialmath.NewTriangle(verts[f[0]], verts[f[1]], verts[f[2]]))
	}
	for _, q := range m.Quads() {
		tris = append(tris,
			spatialmath.NewTriangle(verts[q[0]], verts[q[1]], verts[q[2]]),
			spatialmath.NewTriangle(verts[q[0]], verts[q[2]], verts[q[3]]),
		)
	}
	return tris
}

func TestValidate(t *testing.T) {
	verts := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 1, Y: 1, Z: 0}}

	t.Run("valid", func(t *testing.T) {
		m := NewIndexedMesh(verts, [][3]uint32{{0, 1, 2}}, [][4]uint32{{0, 1, 3, 2}})
		test.That(t, Validate(m), test.ShouldBeNil)
		test.That(t, FaceCount(m), test.ShouldEqual, 3)
	})

	t.Run("triangle out of range", func(t *testing.T) {
		m := NewIndexedMesh(verts, [][3]uint32{{0, 1, 2}, {1, 2, 4}}, nil)
		err := Validate(m)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "triangle 1")
	})

	t.Run("quad out of range", func(t *testing.T) {
		m := NewIndexedMesh(verts, nil, [][4]uint32{{0, 1, 9, 2}})
		err := Validate(m)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "quad 0")
	})

	t.Run("empty", func(t *testing.T) {
		m := NewIndexedMesh(nil, nil, nil)
		test.That(t, Validate(m), test.ShouldBeNil)
		test.That(t, FaceCount(m), test.ShouldEqual, 0)
	})
}

func TestNewCube(t *testing.T) {
	cube := NewCube(1)
	test.That(t, cube.Vertices(), test.ShouldHaveLength, 8)
	test.That(t, cube.Triangles(), test.ShouldBeEmpty)
	test.That(t, cube.Quads(), test.ShouldHaveLength, 6)
	test.That(t, FaceCount(cube), test.ShouldEqual, 12)
	test.That(t, Validate(cube), test.ShouldBeNil)
	test.That(t, Bounds(cube), test.ShouldResemble, spatialmath.AABB{
		Min: r3.Vector{X: -0.5, Y: -0.5, Z: -0.5},
		Max: r3.Vector{X: 0.5, Y: 0.5, Z: 0.5},
	})

	for _, tri := range faceTriangles(cube) {
		test.That(t, tri.Area(), test.ShouldAlmostEqual, 0.5)
		// faces point away from the center
		test.That(t, tri.Normal().Dot(tri.Centroid()), test.ShouldBeGreaterThan, 0)
	}

	// generated cubes do not share face storage
	cube.Quads()[0][0] = 7
	test.That(t, NewCube(1).Quads()[0][0], test.ShouldEqual, 0)
}

func TestNewGrid(t *testing.T) {
	_, err := NewGrid(0, 3, 1, nil)
	test.That(t, err, test.ShouldNotBeNil)

	grid, err := NewGrid(2, 3, 0.5, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, grid.Vertices(), test.ShouldHaveLength, 12)
	test.That(t, grid.Quads(), test.ShouldHaveLength, 6)
	test.That(t, Validate(grid), test.ShouldBeNil)
	test.That(t, Bounds(grid).Max, test.ShouldResemble, r3.Vector{X: 1, Y: 1.5, Z: 0})
	for _, tri := range faceTriangles(grid) {
		test.That(t, tri.Normal().Z, test.ShouldAlmostEqual, 1)
	}

	wavy, err := NewGrid(4, 4, 1, func(x, y float64) float64 { return math.Sin(x) * math.Cos(y) })
	test.That(t, err, test.ShouldBeNil)
	for _, v := range wavy.Vertices() {
		test.That(t, v.Z, test.ShouldAlmostEqual, math.Sin(v.X)*math.Cos(v.Y))
	}
}

func TestNewUVSphere(t *testing.T) {
	_, err := NewUVSphere(1, 1, 8)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewUVSphere(1, 4, 2)
	test.That(t, err, test.ShouldNotBeNil)

	sphere, err := NewUVSphere(2, 4, 6)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sphere.Vertices(), test.ShouldHaveLength, 2+3*6)
	test.That(t, sphere.Triangles(), test.ShouldHaveLength, 12)
	test.That(t, sphere.Quads(), test.ShouldHaveLength, 12)
	test.That(t, Validate(sphere), test.ShouldBeNil)

	for _, v := range sphere.Vertices() {
		test.That(t, v.Norm(), test.ShouldAlmostEqual, 2)
	}
	for _, tri := range faceTriangles(sphere) {
		test.That(t, tri.Area(), test.ShouldBeGreaterThan, 0)
		test.That(t, tri.Normal().Dot(tri.Centroid()), test.ShouldBeGreaterThan, 0)
	}
}
