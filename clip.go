package cp3d

import "math"

// worldManifold is a manifold under construction, in world space.
type worldManifold struct {
	normal     Vector
	points     []contactResult
	subA, subB int
}

// Segments whose directions deviate less than this are treated as parallel.
const parallelSinTolerance = 0.02

// convexManifold builds the manifold of two convex leaf shapes. Polyhedral and capsule
// pairs get up to MaxManifoldPoints points from feature clipping, everything else a
// single point.
func convexManifold(a *Shape, isoA Isometry, b *Shape, isoB Isometry, prediction float64) (worldManifold, bool) {
	c, ok := dispatchConvex(a, isoA, b, isoB)
	if !ok || c.dist > prediction {
		return worldManifold{}, false
	}

	if a.typ != SHAPE_SPHERE && b.typ != SHAPE_SPHERE {
		fa := contactFeature(a, isoA, c.normal)
		fb := contactFeature(b, isoB, c.normal.Mul(-1))
		if m, ok := clipFeatures(fa, fb, c.normal, prediction); ok {
			return m, true
		}
	}
	return worldManifold{normal: c.normal, points: []contactResult{c}}, true
}

func clipFeatures(fa, fb feature, normal Vector, prediction float64) (worldManifold, bool) {
	na, nb := len(fa.points), len(fb.points)
	switch {
	case na < 2 || nb < 2:
		return worldManifold{}, false
	case na == 2 && nb == 2:
		return clipSegments(fa, fb, normal, prediction)
	}

	refIsA := true
	if na < 3 {
		refIsA = false
	} else if nb >= 3 {
		// the face more aligned with the contact normal is the reference
		alignA := polygonNormal(fa.points).Dot(normal)
		alignB := polygonNormal(fb.points).Dot(normal.Mul(-1))
		refIsA = math.Abs(alignA) >= math.Abs(alignB)-1e-3
	}

	ref, inc, outward := fa, fb, normal
	if !refIsA {
		ref, inc, outward = fb, fa, normal.Mul(-1)
	}

	faceNormal := polygonNormal(ref.points)
	if faceNormal.Dot(outward) < 0 {
		faceNormal = faceNormal.Mul(-1)
	}
	if faceNormal.LenSqr() == 0 {
		return worldManifold{}, false
	}

	clipped := clipAgainstFace(ref, inc)
	refFace := FaceID(minIndex(ref.ids))

	points := make([]contactResult, 0, len(clipped))
	for _, v := range clipped {
		sep := v.p.Sub(ref.points[0]).Dot(faceNormal)
		if sep > prediction {
			continue
		}
		onRef := v.p.Sub(faceNormal.Mul(sep))
		c := contactResult{dist: sep}
		if refIsA {
			c.pointA, c.pointB = onRef, v.p
			c.idA, c.idB = refFeature(v, refFace), v.id
		} else {
			c.pointA, c.pointB = v.p, onRef
			c.idA, c.idB = v.id, refFeature(v, refFace)
		}
		points = append(points, c)
	}
	if len(points) == 0 {
		return worldManifold{}, false
	}

	n := faceNormal
	if !refIsA {
		n = faceNormal.Mul(-1)
	}
	for i := range points {
		points[i].normal = n
	}
	return worldManifold{normal: n, points: reduceManifold(points, n)}, true
}

func refFeature(v clipVertex, face FeatureID) FeatureID {
	if v.refEdge != 0 {
		return v.refEdge
	}
	return face
}

func minIndex(ids []FeatureID) uint32 {
	min := ids[0].Index()
	for _, id := range ids[1:] {
		if id.Index() < min {
			min = id.Index()
		}
	}
	return min
}

// polygonNormal uses Newell's method, which tolerates slightly non-planar input.
func polygonNormal(points []Vector) Vector {
	var n Vector
	for i, p := range points {
		q := points[(i+1)%len(points)]
		n[0] += (p.Y() - q.Y()) * (p.Z() + q.Z())
		n[1] += (p.Z() - q.Z()) * (p.X() + q.X())
		n[2] += (p.X() - q.X()) * (p.Y() + q.Y())
	}
	if u, ok := TryNormalize(n); ok {
		return u
	}
	return Vector{}
}

type clipVertex struct {
	p Vector
	// feature of the incident shape
	id FeatureID
	// reference side that produced the vertex, 0 when unclipped
	refEdge FeatureID
}

// clipAgainstFace clips the incident feature against the side planes of the reference
// polygon (Sutherland-Hodgman).
func clipAgainstFace(ref, inc feature) []clipVertex {
	poly := make([]clipVertex, len(inc.points))
	for i := range inc.points {
		poly[i] = clipVertex{p: inc.points[i], id: inc.ids[i]}
	}
	closed := len(poly) > 2

	var center Vector
	for _, p := range ref.points {
		center = center.Add(p)
	}
	center = center.Mul(1 / float64(len(ref.points)))
	faceNormal := polygonNormal(ref.points)

	for k := range ref.points {
		r0 := ref.points[k]
		r1 := ref.points[(k+1)%len(ref.points)]
		inward := faceNormal.Cross(r1.Sub(r0))
		if inward.Dot(center.Sub(r0)) < 0 {
			inward = inward.Mul(-1)
		}
		side := edgeBetween(ref.ids[k], ref.ids[(k+1)%len(ref.ids)])
		poly = clipPlane(poly, r0, inward, side, closed)
		if len(poly) == 0 {
			return nil
		}
	}
	return poly
}

func clipPlane(in []clipVertex, origin, normal Vector, side FeatureID, closed bool) []clipVertex {
	out := make([]clipVertex, 0, len(in)+2)
	if !closed {
		a, b := in[0], in[1]
		da, db := a.p.Sub(origin).Dot(normal), b.p.Sub(origin).Dot(normal)
		switch {
		case da < 0 && db < 0:
			return out
		case da < 0:
			a = intersect(a, b, da, db, side)
		case db < 0:
			b = intersect(a, b, da, db, side)
		}
		return append(out, a, b)
	}

	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da, db := a.p.Sub(origin).Dot(normal), b.p.Sub(origin).Dot(normal)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, intersect(a, b, da, db, side))
		}
	}
	return out
}

func intersect(a, b clipVertex, da, db float64, side FeatureID) clipVertex {
	t := da / (da - db)
	return clipVertex{
		p:       LerpVector(a.p, b.p, t),
		id:      edgeBetween(a.id, b.id),
		refEdge: side,
	}
}

// clipSegments handles edge against edge. Only parallel edges produce two points.
func clipSegments(fa, fb feature, normal Vector, prediction float64) (worldManifold, bool) {
	a0, a1 := fa.points[0], fa.points[1]
	b0, b1 := fb.points[0], fb.points[1]
	da, okA := TryNormalize(a1.Sub(a0))
	db, okB := TryNormalize(b1.Sub(b0))
	if !okA || !okB || da.Cross(db).Len() > parallelSinTolerance {
		return worldManifold{}, false
	}

	length := a1.Sub(a0).Len()
	t0, t1 := b0.Sub(a0).Dot(da), b1.Sub(a0).Dot(da)
	ids := [2]FeatureID{fb.ids[0], fb.ids[1]}
	if t1 < t0 {
		t0, t1 = t1, t0
		b0, b1 = b1, b0
		ids[0], ids[1] = ids[1], ids[0]
	}
	lo, hi := math.Max(t0, 0), math.Min(t1, length)
	if hi < lo {
		return worldManifold{}, false
	}

	points := make([]contactResult, 0, 2)
	span := t1 - t0
	for k, t := range [2]float64{lo, hi} {
		var onB Vector
		if span > MAGIC_EPSILON {
			onB = LerpVector(b0, b1, (t-t0)/span)
		} else {
			onB = b0
		}
		onA := a0.Add(da.Mul(t))
		dist := onB.Sub(onA).Dot(normal)
		if dist > prediction {
			continue
		}
		points = append(points, contactResult{
			pointA: onA,
			pointB: onB,
			normal: normal,
			dist:   dist,
			idA:    fa.ids[k],
			idB:    ids[k],
		})
	}
	if len(points) == 0 {
		return worldManifold{}, false
	}
	return worldManifold{normal: normal, points: points}, true
}

// reduceManifold keeps the deepest point and the three points spanning the largest area.
func reduceManifold(points []contactResult, normal Vector) []contactResult {
	if len(points) <= MaxManifoldPoints {
		return points
	}

	i0 := 0
	for i, p := range points {
		if p.dist < points[i0].dist {
			i0 = i
		}
	}
	p0 := points[i0].pointA

	i1, best := -1, -1.0
	for i, p := range points {
		if d := p.pointA.Sub(p0).LenSqr(); i != i0 && d > best {
			i1, best = i, d
		}
	}
	p1 := points[i1].pointA

	i2, best := -1, -1.0
	for i, p := range points {
		if i == i0 || i == i1 {
			continue
		}
		if area := math.Abs(p1.Sub(p0).Cross(p.pointA.Sub(p0)).Dot(normal)); area > best {
			i2, best = i, area
		}
	}
	p2 := points[i2].pointA

	// orient the triangle counter-clockwise around the normal
	if p1.Sub(p0).Cross(p2.Sub(p0)).Dot(normal) < 0 {
		i1, i2 = i2, i1
		p1, p2 = p2, p1
	}
	tri := [3]Vector{p0, p1, p2}

	i3, best := -1, 0.0
	for i, p := range points {
		if i == i0 || i == i1 || i == i2 {
			continue
		}
		for e := 0; e < 3; e++ {
			a, b := tri[e], tri[(e+1)%3]
			if outside := -b.Sub(a).Cross(p.pointA.Sub(a)).Dot(normal); outside > best {
				i3, best = i, outside
			}
		}
	}

	reduced := []contactResult{points[i0], points[i1], points[i2]}
	if i3 >= 0 {
		reduced = append(reduced, points[i3])
	}
	return reduced
}
