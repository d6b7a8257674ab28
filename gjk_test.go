package cp3d

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func proxy(s *Shape, pose Pose) convexProxy {
	return convexProxy{s, pose.Isometry()}
}

func TestGJK_Distance(t *testing.T) {
	s := &simplex{}
	cube := NewCuboid(1, 1, 1)

	res := gjkDistance(proxy(cube, at(0, 0, 0)), proxy(cube, at(3, 2, 0)), s)
	if res.overlap {
		t.Fatal("Expected separated cores")
	}
	// corner region: the gap is (2, 1, 0)
	if !near(res.distance, math.Sqrt(5), 1e-9) {
		t.Errorf("Expected %v, got %v", math.Sqrt(5), res.distance)
	}
	if !nearVector(res.pointB.Sub(res.pointA), res.normal.Mul(res.distance), 1e-9) {
		t.Errorf("Witness points disagree with the normal: %v %v %v", res.pointA, res.pointB, res.normal)
	}
}

func TestGJK_Overlap(t *testing.T) {
	s := &simplex{}
	cube := NewCuboid(1, 1, 1)
	rotated := NewPose(Vector{0.7, 0.3, 0}, mgl64.QuatRotate(0.5, Vector{1, 1, 1}.Normalize()))

	if res := gjkDistance(proxy(cube, at(0, 0, 0)), proxy(cube, rotated), s); !res.overlap {
		t.Errorf("Expected overlap, got distance %v", res.distance)
	}
}

func TestEPA_Penetration(t *testing.T) {
	s := &simplex{}
	a, b := proxy(NewCuboid(2, 2, 2), at(0, 0, 0)), proxy(NewCuboid(1, 1, 1), at(0.2, 1.3, 0.1))
	if res := gjkDistance(a, b, s); !res.overlap {
		t.Fatal("Expected overlap")
	}

	pen, ok := epaPenetration(a, b, s)
	if !ok {
		t.Fatal("EPA failed")
	}
	if !near(pen.depth, 0.2, 1e-6) || !nearVector(pen.normal, VectorY, 1e-6) {
		t.Errorf("Expected depth 0.2 along Y, got %v along %v", pen.depth, pen.normal)
	}
	if !nearVector(pen.pointA.Sub(pen.pointB), pen.normal.Mul(pen.depth), 1e-6) {
		t.Errorf("Witness points disagree with the depth: %v %v", pen.pointA, pen.pointB)
	}
}

func TestSimplex_Pool(t *testing.T) {
	s := simplexPool.Get().(*simplex)
	s.count = 3
	simplexPool.Put(s)

	// gjkDistance must not depend on stale state
	s = simplexPool.Get().(*simplex)
	res := gjkDistance(proxy(NewSphere(1), at(0, 0, 0)), proxy(NewSphere(1), at(5, 0, 0)), s)
	if !near(res.distance, 5, 1e-12) {
		t.Errorf("Expected core distance 5, got %v", res.distance)
	}
	simplexPool.Put(s)
}
