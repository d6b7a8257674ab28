package cp3d

import "math"

// contactResult is a contact between two leaf shapes in world space.
type contactResult struct {
	pointA, pointB Vector
	// unit, from A to B
	normal Vector
	// signed distance along normal, negative when overlapping
	dist       float64
	idA, idB   FeatureID
	subA, subB int
}

func (c contactResult) flip() contactResult {
	return contactResult{
		pointA: c.pointB,
		pointB: c.pointA,
		normal: c.normal.Mul(-1),
		dist:   c.dist,
		idA:    c.idB,
		idB:    c.idA,
		subA:   c.subB,
		subB:   c.subA,
	}
}

type leaf struct {
	shape *Shape
	iso   Isometry
	index int
}

// appendLeaves flattens compound shapes depth first. Leaf indices are stable for a given
// compound and name the subshape in manifolds.
func appendLeaves(dst []leaf, s *Shape, iso Isometry) []leaf {
	if s.typ != SHAPE_COMPOUND {
		return append(dst, leaf{s, iso, len(dst)})
	}
	for _, child := range s.children {
		dst = appendLeaves(dst, child.Shape, iso.Mul(child.Pose.Isometry()))
	}
	return dst
}

// overlappingLeaves calls f for every leaf pair whose bounds come within margin of each
// other. Pairs further apart cannot produce a contact closer than margin.
func overlappingLeaves(leavesA, leavesB []leaf, margin float64, f func(la, lb leaf)) {
	if len(leavesA) == 1 && len(leavesB) == 1 {
		f(leavesA[0], leavesB[0])
		return
	}
	margin = math.Max(margin, 0)
	bounds := make([]AABB, len(leavesB))
	for i, lb := range leavesB {
		bounds[i] = lb.shape.aabb(lb.iso).Loosen(margin)
	}
	for _, la := range leavesA {
		bb := la.shape.aabb(la.iso)
		for i, lb := range leavesB {
			if bb.Intersects(bounds[i]) {
				f(la, lb)
			}
		}
	}
}

// dispatchContact returns the deepest contact between two shapes if it is closer than
// prediction.
func dispatchContact(a *Shape, isoA Isometry, b *Shape, isoB Isometry, prediction float64) (contactResult, bool, error) {
	if !a.SupportsExactDispatch(b) {
		return contactResult{}, false, unsupported(a, b)
	}

	if a.typ != SHAPE_COMPOUND && b.typ != SHAPE_COMPOUND {
		c, ok := dispatchConvex(a, isoA, b, isoB)
		if !ok || c.dist > prediction {
			return c, false, nil
		}
		return c, true, nil
	}

	leavesA := appendLeaves(nil, a, isoA)
	leavesB := appendLeaves(nil, b, isoB)
	best := contactResult{dist: math.Inf(1)}
	found := false
	overlappingLeaves(leavesA, leavesB, prediction, func(la, lb leaf) {
		c, ok := dispatchConvex(la.shape, la.iso, lb.shape, lb.iso)
		if ok && c.dist <= prediction && c.dist < best.dist {
			c.subA, c.subB = la.index, lb.index
			best, found = c, true
		}
	})
	return best, found, nil
}

// dispatchConvex runs the exact algorithm for a pair of convex leaf shapes.
func dispatchConvex(a *Shape, isoA Isometry, b *Shape, isoB Isometry) (contactResult, bool) {
	switch a.typ {
	case SHAPE_SPHERE:
		center := isoA.Translation()
		switch b.typ {
		case SHAPE_SPHERE:
			return sphereSphere(center, a.r, isoB.Translation(), b.r), true
		case SHAPE_CAPSULE:
			p, q := capsuleSegment(b, isoB)
			closest, _ := ClosestPointOnSegment(center, p, q)
			return sphereSphere(center, a.r, closest, b.r), true
		case SHAPE_CUBOID:
			return sphereCuboid(center, a.r, isoB, b.halfExtents), true
		}
	case SHAPE_CAPSULE:
		switch b.typ {
		case SHAPE_SPHERE:
			c, ok := dispatchConvex(b, isoB, a, isoA)
			return c.flip(), ok
		case SHAPE_CAPSULE:
			p1, q1 := capsuleSegment(a, isoA)
			p2, q2 := capsuleSegment(b, isoB)
			c1, c2 := ClosestPointsSegmentSegment(p1, q1, p2, q2)
			return sphereSphere(c1, a.r, c2, b.r), true
		}
	case SHAPE_CUBOID:
		if b.typ == SHAPE_SPHERE {
			c, ok := dispatchConvex(b, isoB, a, isoA)
			return c.flip(), ok
		}
	}
	return convexConvex(convexProxy{a, isoA}, convexProxy{b, isoB})
}

func capsuleSegment(s *Shape, iso Isometry) (Vector, Vector) {
	return iso.Point(Vector{0, s.halfHeight, 0}), iso.Point(Vector{0, -s.halfHeight, 0})
}

func sphereSphere(c1 Vector, r1 float64, c2 Vector, r2 float64) contactResult {
	delta := c2.Sub(c1)
	n, ok := TryNormalize(delta)
	if !ok {
		n = VectorY
	}
	return contactResult{
		pointA: c1.Add(n.Mul(r1)),
		pointB: c2.Sub(n.Mul(r2)),
		normal: n,
		dist:   delta.Len() - r1 - r2,
		idA:    FaceID(0),
		idB:    FaceID(0),
	}
}

// sphereCuboid treats the sphere as shape A.
func sphereCuboid(center Vector, r float64, box Isometry, half Vector) contactResult {
	local := box.InversePoint(center)
	clamped := Vector{
		Clamp(local.X(), -half.X(), half.X()),
		Clamp(local.Y(), -half.Y(), half.Y()),
		Clamp(local.Z(), -half.Z(), half.Z()),
	}

	var outward, boxPoint Vector
	var dist float64
	if delta := local.Sub(clamped); delta.LenSqr() > MAGIC_EPSILON*MAGIC_EPSILON {
		l := delta.Len()
		outward = delta.Mul(1 / l)
		boxPoint = clamped
		dist = l - r
	} else {
		// center inside the box, push out through the nearest face
		axis, depth := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if d := half[i] - math.Abs(local[i]); d < depth {
				axis, depth = i, d
			}
		}
		outward[axis] = math.Copysign(1, local[axis])
		boxPoint = local
		boxPoint[axis] = outward[axis] * half[axis]
		dist = -(depth + r)
	}

	n := box.Vect(outward).Mul(-1)
	return contactResult{
		pointA: center.Add(n.Mul(r)),
		pointB: box.Point(boxPoint),
		normal: n,
		dist:   dist,
		idA:    FaceID(0),
		idB:    FaceID(uint32(cuboidFace(outward))),
	}
}

// cuboidFace numbers the face an axis aligned direction points through.
func cuboidFace(outward Vector) int {
	face := 0
	for i := 0; i < 3; i++ {
		if math.Abs(outward[i]) > math.Abs(outward[face]) {
			face = i
		}
	}
	if outward[face] < 0 {
		return face + 3
	}
	return face
}

// convexConvex computes the contact between two support-mapped shapes with GJK on their
// cores and EPA when the cores overlap.
func convexConvex(a, b convexProxy) (contactResult, bool) {
	s := simplexPool.Get().(*simplex)
	defer simplexPool.Put(s)

	marginA, marginB := a.margin(), b.margin()
	res := gjkDistance(a, b, s)
	if !res.overlap {
		n := res.normal
		return contactResult{
			pointA: res.pointA.Add(n.Mul(marginA)),
			pointB: res.pointB.Sub(n.Mul(marginB)),
			normal: n,
			dist:   res.distance - marginA - marginB,
		}, true
	}

	pen, ok := epaPenetration(a, b, s)
	if !ok {
		// flat Minkowski difference: the cores only touch
		ca, cb := a.iso.Translation(), b.iso.Translation()
		n, ok := TryNormalize(cb.Sub(ca))
		if !ok {
			n = VectorY
		}
		pa, _ := a.support(n)
		pb, _ := b.support(n.Mul(-1))
		mid := LerpVector(pa, pb, 0.5)
		pen = epaResult{normal: n, pointA: mid, pointB: mid}
	}
	n := pen.normal
	return contactResult{
		pointA: pen.pointA.Add(n.Mul(marginA)),
		pointB: pen.pointB.Sub(n.Mul(marginB)),
		normal: n,
		dist:   -pen.depth - marginA - marginB,
	}, true
}
