package kdtree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"go.viam.com/test"

	"go.viam.com/meshtree/mesh"
	"go.viam.com/meshtree/spatialmath"
)

func randomPoint(rnd *rand.Rand, scale float64) r3.Vector {
	return r3.Vector{
		X: (rnd.Float64()*2 - 1) * scale,
		Y: (rnd.Float64()*2 - 1) * scale,
		Z: (rnd.Float64()*2 - 1) * scale,
	}
}

func expectNoHit(t *testing.T, hit Hit) {
	t.Helper()
	test.That(t, hit.Found(), test.ShouldBeFalse)
	test.That(t, hit.Distance, test.ShouldEqual, spatialmath.NoHitDistance)
	test.That(t, hit.Point, test.ShouldResemble, spatialmath.NoHitPoint)
	test.That(t, hit.Triangle, test.ShouldBeNil)
	test.That(t, hit.TriangleIndex, test.ShouldEqual, -1)
}

// expectSameHit compares a tree query result against the brute-force reference.
func expectSameHit(t *testing.T, got, want Hit) {
	t.Helper()
	test.That(t, got.Found(), test.ShouldEqual, want.Found())
	if !want.Found() {
		expectNoHit(t, got)
		return
	}
	// shared edges can tie, so only the distance is compared
	test.That(t, got.Distance, test.ShouldAlmostEqual, want.Distance, 1e-9)
}

func TestCubeScenario(t *testing.T) {
	tree := buildTestTree(t, mesh.NewCube(1), 4)

	t.Run("closest point from the center", func(t *testing.T) {
		hit, err := tree.ClosestPoint(r3.Vector{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Found(), test.ShouldBeTrue)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 0.5)
		onFace := math.Max(math.Abs(hit.Point.X), math.Max(math.Abs(hit.Point.Y), math.Abs(hit.Point.Z)))
		test.That(t, onFace, test.ShouldAlmostEqual, 0.5)
		test.That(t, tree.Triangles()[hit.TriangleIndex], test.ShouldEqual, hit.Triangle)
	})

	t.Run("ray hits the bottom face", func(t *testing.T) {
		hit, err := tree.IntersectRay(r3.Vector{Z: -5}, r3.Vector{Z: 1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Found(), test.ShouldBeTrue)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 4.5)
		test.That(t, hit.Point.Z, test.ShouldAlmostEqual, -0.5)
		test.That(t, hit.Triangle.Normal().Z, test.ShouldAlmostEqual, -1)
	})

	t.Run("ray pointing away misses", func(t *testing.T) {
		hit, err := tree.IntersectRay(r3.Vector{X: 10, Y: 10, Z: 10}, r3.Vector{X: 1, Y: 1, Z: 1})
		test.That(t, err, test.ShouldBeNil)
		expectNoHit(t, hit)
		test.That(t, spatialmath.IsNoHit(hit.Distance), test.ShouldBeTrue)
	})

	t.Run("segment", func(t *testing.T) {
		hit, err := tree.IntersectSegment(r3.Vector{X: 2}, r3.Vector{X: -2})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 1.5)
		test.That(t, hit.Point.X, test.ShouldAlmostEqual, 0.5)

		hit, err = tree.IntersectSegment(r3.Vector{X: 2}, r3.Vector{X: 1})
		test.That(t, err, test.ShouldBeNil)
		expectNoHit(t, hit)

		// starting inside, the segment only reaches the face it exits through
		hit, err = tree.IntersectSegment(r3.Vector{}, r3.Vector{Y: 3})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 0.5)
		test.That(t, hit.Point.Y, test.ShouldAlmostEqual, 0.5)
	})

	t.Run("signed distance", func(t *testing.T) {
		hit, err := tree.ClosestPointSignedDistance(r3.Vector{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, -0.5)

		hit, err = tree.ClosestPointSignedDistance(r3.Vector{X: 0.1, Y: -0.2, Z: 2})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 1.5)
		test.That(t, hit.Point.Distance(r3.Vector{X: 0.1, Y: -0.2, Z: 0.5}), test.ShouldAlmostEqual, 0)

		hit, err = tree.ClosestPointSignedDistance(r3.Vector{X: 0.45, Y: 0, Z: 0})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, -0.05)
	})

	t.Run("closest point outside", func(t *testing.T) {
		pt := r3.Vector{X: -0.3}
		hit, err := tree.ClosestPoint(pt)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 0.2)

		dir := r3.Vector{X: 1, Y: 1}
		hit, err = tree.ClosestPointOutside(pt, dir)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hit.Found(), test.ShouldBeTrue)
		test.That(t, hit.Distance, test.ShouldAlmostEqual, 0.5)
		test.That(t, hit.Point.Sub(pt).Dot(dir), test.ShouldBeGreaterThanOrEqualTo, 0)

		// nothing lies beyond the cube
		hit, err = tree.ClosestPointOutside(r3.Vector{X: 3}, r3.Vector{X: 1})
		test.That(t, err, test.ShouldBeNil)
		expectNoHit(t, hit)
	})
}

func TestSingleTriangleClosestPoint(t *testing.T) {
	verts := []r3.Vector{{X: -1, Y: 0.5, Z: 2}, {X: 2, Y: -1, Z: 0}, {X: 0.5, Y: 3, Z: -1}}
	m := mesh.NewIndexedMesh(verts, [][3]uint32{{0, 1, 2}}, nil)
	tree := buildTestTree(t, m, 8)
	tri := spatialmath.NewTriangle(verts[0], verts[1], verts[2])

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		pt := randomPoint(rnd, 6)
		hit, err := tree.ClosestPoint(pt)
		test.That(t, err, test.ShouldBeNil)
		dist, closest := tri.DistanceToPoint(pt)
		test.That(t, hit.Distance, test.ShouldEqual, dist)
		test.That(t, hit.Point, test.ShouldResemble, closest)
		test.That(t, hit.TriangleIndex, test.ShouldEqual, 0)
	}
}

func TestRayHitOrdering(t *testing.T) {
	// four stacked unit squares at z = 0, 1, 2 and 3
	var verts []r3.Vector
	var quads [][4]uint32
	for z := 0.; z < 4; z++ {
		base := uint32(len(verts))
		verts = append(verts, r3.Vector{X: 0, Y: 0, Z: z}, r3.Vector{X: 1, Y: 0, Z: z}, r3.Vector{X: 1, Y: 1, Z: z}, r3.Vector{X: 0, Y: 1, Z: z})
		quads = append(quads, [4]uint32{base, base + 1, base + 2, base + 3})
	}
	tree := buildTestTree(t, mesh.NewIndexedMesh(verts, nil, quads), 8)

	for _, tc := range []struct {
		name   string
		origin r3.Vector
		dir    r3.Vector
		dist   float64
		z      float64
	}{
		{"from below", r3.Vector{X: 0.3, Y: 0.6, Z: -1}, r3.Vector{Z: 1}, 1, 0},
		{"from above", r3.Vector{X: 0.3, Y: 0.6, Z: 10}, r3.Vector{Z: -1}, 7, 3},
		{"between layers", r3.Vector{X: 0.7, Y: 0.2, Z: 1.5}, r3.Vector{Z: 1}, 0.5, 2},
		{"slanted", r3.Vector{X: 0.1, Y: 0.1, Z: -1}, r3.Vector{X: 0.1, Y: 0.1, Z: 1}, math.Sqrt(1.02), 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			hit, err := tree.IntersectRay(tc.origin, tc.dir)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, hit.Distance, test.ShouldAlmostEqual, tc.dist)
			test.That(t, hit.Point.Z, test.ShouldAlmostEqual, tc.z)
			expectSameHit(t, hit, ScanRay(tree.Triangles(), tc.origin, tc.dir))

			far := tc.origin.Add(tc.dir.Normalize().Mul(20))
			segHit, err := tree.IntersectSegment(tc.origin, far)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, segHit.Distance, test.ShouldAlmostEqual, tc.dist)
		})
	}

	t.Run("beside the stack", func(t *testing.T) {
		hit, err := tree.IntersectRay(r3.Vector{X: 2, Y: 2, Z: -1}, r3.Vector{Z: 1})
		test.That(t, err, test.ShouldBeNil)
		expectNoHit(t, hit)
	})
}

func TestQueriesMatchScan(t *testing.T) {
	wavy, err := mesh.NewGrid(16, 16, 0.25, func(x, y float64) float64 { return math.Sin(2*x) * math.Cos(3*y) })
	test.That(t, err, test.ShouldBeNil)

	for _, tc := range []struct {
		name string
		m    mesh.Mesh
	}{
		{"sphere", testSphere(t)},
		{"grid", wavy},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rnd := rand.New(rand.NewSource(42))
			tree := buildTestTree(t, tc.m, DefaultMaxDepth)
			tris := tree.Triangles()
			center := tree.Bounds().Center()

			for i := 0; i < 200; i++ {
				pt := center.Add(randomPoint(rnd, 3))
				hit, err := tree.ClosestPoint(pt)
				test.That(t, err, test.ShouldBeNil)
				want := ScanClosestPoint(tris, pt)
				test.That(t, hit.Distance, test.ShouldAlmostEqual, want.Distance, 1e-9)
				test.That(t, hit.Point.Distance(pt), test.ShouldAlmostEqual, hit.Distance, 1e-9)

				dir := randomPoint(rnd, 1)
				hit, err = tree.IntersectRay(pt, dir)
				test.That(t, err, test.ShouldBeNil)
				expectSameHit(t, hit, ScanRay(tris, pt, dir))

				end := center.Add(randomPoint(rnd, 3))
				hit, err = tree.IntersectSegment(pt, end)
				test.That(t, err, test.ShouldBeNil)
				expectSameHit(t, hit, ScanSegment(tris, pt, end))
			}
		})
	}
}

func TestSignedDistanceSphere(t *testing.T) {
	tree := buildTestTree(t, testSphere(t), DefaultMaxDepth)

	rnd := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		dir := randomPoint(rnd, 1).Normalize()
		if dir.Norm2() == 0 {
			continue
		}
		inside, err := tree.ClosestPointSignedDistance(dir.Mul(0.5))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, inside.Distance, test.ShouldBeLessThan, 0)

		outside, err := tree.ClosestPointSignedDistance(dir.Mul(1.5))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, outside.Distance, test.ShouldBeGreaterThan, 0)

		unsigned, err := tree.ClosestPoint(dir.Mul(1.5))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, outside.Distance, test.ShouldEqual, unsigned.Distance)
	}
}

func TestClosestPointOutsideGrid(t *testing.T) {
	grid, err := mesh.NewGrid(4, 4, 1, nil)
	test.That(t, err, test.ShouldBeNil)
	tree := buildTestTree(t, grid, DefaultMaxDepth)

	// a point on the surface finds itself unless the half-space excludes it
	pt := r3.Vector{X: 1.5, Y: 2.5, Z: 0}
	hit, err := tree.ClosestPoint(pt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit.Distance, test.ShouldAlmostEqual, 0)

	hit, err = tree.ClosestPointOutside(pt.Add(r3.Vector{Z: 1e-3}), r3.Vector{Z: 1})
	test.That(t, err, test.ShouldBeNil)
	expectNoHit(t, hit)

	hit, err = tree.ClosestPointOutside(pt.Add(r3.Vector{Z: 2}), r3.Vector{Z: -1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit.Distance, test.ShouldAlmostEqual, 2)
}

func TestQueriesOnEmptyTree(t *testing.T) {
	empty, err := Build(mesh.NewIndexedMesh(nil, nil, nil), DefaultConfig(), nil)
	test.That(t, err, test.ShouldBeNil)

	var unbuilt *Tree
	for _, tree := range []*Tree{empty, unbuilt, {}} {
		queries := map[string]func() (Hit, error){
			"ray":     func() (Hit, error) { return tree.IntersectRay(r3.Vector{}, r3.Vector{X: 1}) },
			"segment": func() (Hit, error) { return tree.IntersectSegment(r3.Vector{}, r3.Vector{X: 1}) },
			"closest": func() (Hit, error) { return tree.ClosestPoint(r3.Vector{}) },
			"outside": func() (Hit, error) { return tree.ClosestPointOutside(r3.Vector{}, r3.Vector{X: 1}) },
			"signed":  func() (Hit, error) { return tree.ClosestPointSignedDistance(r3.Vector{}) },
		}
		for name, query := range queries {
			t.Run(name, func(t *testing.T) {
				hit, err := query()
				test.That(t, errors.Is(err, ErrTreeNotInitialized), test.ShouldBeTrue)
				test.That(t, hit.Found(), test.ShouldBeFalse)
				test.That(t, hit.TriangleIndex, test.ShouldEqual, -1)
			})
		}
	}
}

func TestConcurrentQueries(t *testing.T) {
	tree := buildTestTree(t, testSphere(t), DefaultMaxDepth)
	tris := tree.Triangles()

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		seed := int64(w)
		g.Go(func() error {
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				pt := randomPoint(rnd, 2)
				hit, err := tree.ClosestPoint(pt)
				if err != nil {
					return err
				}
				if want := ScanClosestPoint(tris, pt); math.Abs(hit.Distance-want.Distance) > 1e-9 {
					return errors.Errorf("closest point from %v: got %v want %v", pt, hit.Distance, want.Distance)
				}
			}
			return nil
		})
	}
	test.That(t, g.Wait(), test.ShouldBeNil)
}
