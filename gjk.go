package cp3d

import (
	"sync"
)

const (
	MAX_GJK_ITERATIONS = 64
	// relative tolerance on the squared distance used to stop GJK
	gjkTolerance = 1e-10
)

// Point on the Minkowski difference A - B with the shape points that produced it.
type minkowskiPoint struct {
	w, a, b Vector
	ia, ib  int
}

func newMinkowskiPoint(a, b convexProxy, dir Vector) minkowskiPoint {
	pa, ia := a.support(dir)
	pb, ib := b.support(dir.Mul(-1))
	return minkowskiPoint{w: pa.Sub(pb), a: pa, b: pb, ia: ia, ib: ib}
}

type simplex struct {
	points [4]minkowskiPoint
	lambda [4]float64
	count  int
}

var simplexPool = sync.Pool{
	New: func() interface{} {
		return &simplex{}
	},
}

func (s *simplex) reset() {
	s.count = 0
}

func (s *simplex) push(p minkowskiPoint) {
	s.points[s.count] = p
	s.count++
}

func (s *simplex) contains(w Vector) bool {
	for i := 0; i < s.count; i++ {
		if s.points[i].w.Sub(w).LenSqr() <= MAGIC_EPSILON*MAGIC_EPSILON {
			return true
		}
	}
	return false
}

// keep retains the listed vertices with their barycentric weights.
func (s *simplex) keep(idx []int, weights []float64) {
	var pts [4]minkowskiPoint
	for k, i := range idx {
		pts[k] = s.points[i]
		s.lambda[k] = weights[k]
	}
	s.points = pts
	s.count = len(idx)
}

// reduce shrinks the simplex to the smallest sub-simplex containing the point closest to
// the origin and returns that point. It reports true when the origin is enclosed by a
// tetrahedron.
func (s *simplex) reduce() (Vector, bool) {
	switch s.count {
	case 1:
		s.lambda[0] = 1
	case 2:
		s.reduceSegment(0, 1)
	case 3:
		s.reduceTriangle(0, 1, 2)
	case 4:
		if s.reduceTetrahedron() {
			return Vector{}, true
		}
	}
	return s.closest(), false
}

func (s *simplex) closest() Vector {
	var v Vector
	for i := 0; i < s.count; i++ {
		v = v.Add(s.points[i].w.Mul(s.lambda[i]))
	}
	return v
}

// witnesses returns the closest points on A and B.
func (s *simplex) witnesses() (Vector, Vector) {
	var pa, pb Vector
	for i := 0; i < s.count; i++ {
		pa = pa.Add(s.points[i].a.Mul(s.lambda[i]))
		pb = pb.Add(s.points[i].b.Mul(s.lambda[i]))
	}
	return pa, pb
}

func (s *simplex) reduceSegment(i, j int) {
	a, b := s.points[i].w, s.points[j].w
	ab := b.Sub(a)
	denom := ab.LenSqr()
	t := 0.0
	if denom > 0 {
		t = -a.Dot(ab) / denom
	}
	switch {
	case t <= 0:
		s.keep([]int{i}, []float64{1})
	case t >= 1:
		s.keep([]int{j}, []float64{1})
	default:
		s.keep([]int{i, j}, []float64{1 - t, t})
	}
}

// Closest point of a triangle to the origin, Ericson "Real-Time Collision Detection" 5.1.5.
func (s *simplex) reduceTriangle(i, j, k int) {
	a, b, c := s.points[i].w, s.points[j].w, s.points[k].w
	ab, ac := b.Sub(a), c.Sub(a)

	ap := a.Mul(-1)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		s.keep([]int{i}, []float64{1})
		return
	}

	bp := b.Mul(-1)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		s.keep([]int{j}, []float64{1})
		return
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		s.keep([]int{i, j}, []float64{1 - v, v})
		return
	}

	cp := c.Mul(-1)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		s.keep([]int{k}, []float64{1})
		return
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		s.keep([]int{i, k}, []float64{1 - w, w})
		return
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		s.keep([]int{j, k}, []float64{1 - w, w})
		return
	}

	denom := va + vb + vc
	if denom == 0 {
		// degenerate triangle, fall back to its longest edge
		s.reduceSegment(i, j)
		return
	}
	v, w := vb/denom, vc/denom
	s.keep([]int{i, j, k}, []float64{1 - v - w, v, w})
}

// reduceTetrahedron returns true when the origin is inside the tetrahedron.
func (s *simplex) reduceTetrahedron() bool {
	faces := [4][4]int{
		{0, 1, 2, 3},
		{0, 2, 3, 1},
		{0, 3, 1, 2},
		{1, 3, 2, 0},
	}

	orig := *s
	bestDist := Unbounded
	var best simplex
	found := false
	for _, f := range faces {
		if !originOutsidePlane(orig.points[f[0]].w, orig.points[f[1]].w, orig.points[f[2]].w, orig.points[f[3]].w) {
			continue
		}
		trial := orig
		trial.reduceTriangle(f[0], f[1], f[2])
		if d := trial.closest().LenSqr(); d < bestDist {
			bestDist, best, found = d, trial, true
		}
	}
	if !found {
		return true
	}
	*s = best
	return false
}

// originOutsidePlane reports whether the origin and d lie on opposite sides of plane abc.
// Degenerate tetrahedra count every face as a candidate.
func originOutsidePlane(a, b, c, d Vector) bool {
	n := b.Sub(a).Cross(c.Sub(a))
	signOrigin := a.Mul(-1).Dot(n)
	signD := d.Sub(a).Dot(n)
	if signD*signD <= MAGIC_EPSILON*MAGIC_EPSILON*n.LenSqr() {
		return true
	}
	return signOrigin*signD < 0
}

type gjkResult struct {
	// distance between the cores, zero when they overlap
	distance float64
	// closest points on the cores
	pointA, pointB Vector
	// unit direction from A to B, valid when distance > 0
	normal  Vector
	overlap bool
}

// gjkDistance computes the distance between two support-mapped cores. The final simplex
// is left in s for EPA.
func gjkDistance(a, b convexProxy, s *simplex) gjkResult {
	s.reset()

	dir := a.iso.Translation().Sub(b.iso.Translation())
	if dir.LenSqr() <= MAGIC_EPSILON {
		dir = VectorX
	}
	s.push(newMinkowskiPoint(a, b, dir))
	s.lambda[0] = 1
	v := s.points[0].w

	var result gjkResult
	for i := 0; i < MAX_GJK_ITERATIONS; i++ {
		vv := v.LenSqr()
		if vv <= MAGIC_EPSILON*MAGIC_EPSILON {
			result.overlap = true
			return result
		}

		p := newMinkowskiPoint(a, b, v.Mul(-1))
		if s.contains(p.w) || vv-v.Dot(p.w) <= gjkTolerance*vv {
			break
		}

		s.push(p)
		next, inside := s.reduce()
		if inside {
			result.overlap = true
			return result
		}
		progress := next.LenSqr() < vv
		v = next
		if !progress {
			// numerical floor reached
			break
		}

		if i == MAX_GJK_ITERATIONS-1 {
			Logger.Printf("Warning: GJK did not converge in %d iterations", MAX_GJK_ITERATIONS)
		}
	}

	result.distance = v.Len()
	if result.distance <= MAGIC_EPSILON {
		result.distance = 0
		result.overlap = true
		return result
	}
	result.pointA, result.pointB = s.witnesses()
	result.normal = v.Mul(-1.0 / result.distance)
	return result
}
