package cp3d

const (
	MAX_TOI_ITERATIONS = 64
	// gap at which conservative advancement reports an impact
	toiTolerance = 1e-6
)

type ToiStatus int

const (
	// The shapes come within toiTolerance of each other.
	ToiConverged ToiStatus = iota
	// The shapes already overlap at the start of the motion.
	ToiPenetrating
	// Advancement did not reach contact in MAX_TOI_ITERATIONS steps.
	ToiOutOfIterations
	// The closest point query failed along the way.
	ToiFailed
)

func (s ToiStatus) String() string {
	switch s {
	case ToiConverged:
		return "converged"
	case ToiPenetrating:
		return "penetrating"
	case ToiOutOfIterations:
		return "out of iterations"
	}
	return "failed"
}

// Impact describes the first contact of two linearly moving shapes. Points and normals are
// in the local frame of their shape. Subshapes name the compound leaves that touch.
type Impact struct {
	Time                 float64
	Point1, Point2       Vector
	Normal1, Normal2     Vector
	Subshape1, Subshape2 int
	Status               ToiStatus
}

// TimeOfImpact sweeps two shapes along their linear velocities and returns the time of
// their first contact, or nil when they do not meet before maxTime. Compounds are swept
// leaf against leaf and the earliest impact wins.
func TimeOfImpact(s1 *Shape, pose1 Pose, vel1 Vector, s2 *Shape, pose2 Pose, vel2 Vector, maxTime float64) (*Impact, error) {
	if !s1.SupportsExactDispatch(s2) {
		return nil, unsupported(s1, s2)
	}

	iso1, iso2 := pose1.Isometry(), pose2.Isometry()
	leaves1 := appendLeaves(nil, s1, iso1)
	leaves2 := appendLeaves(nil, s2, iso2)

	var first *Impact
	for _, l1 := range leaves1 {
		for _, l2 := range leaves2 {
			t, c, status, hit := advance(l1, vel1, l2, vel2, maxTime)
			if !hit || (first != nil && t >= first.Time) {
				continue
			}
			if status == ToiFailed || status == ToiOutOfIterations {
				first = &Impact{Time: t, Status: status}
			} else {
				first = newImpact(t, c, translated(iso1, vel1, t), translated(iso2, vel2, t), status)
			}
			first.Subshape1, first.Subshape2 = l1.index, l2.index
		}
	}
	return first, nil
}

func translated(iso Isometry, velocity Vector, t float64) Isometry {
	return NewIsometry(iso.Translation().Add(velocity.Mul(t)), iso.Rotation())
}

// advance runs conservative advancement on two convex leaves. The gap between convex
// shapes under translation is convex in time, so a step of dist/closing never passes
// the first contact and a non-closing normal means they never meet.
func advance(a leaf, vel1 Vector, b leaf, vel2 Vector, maxTime float64) (float64, contactResult, ToiStatus, bool) {
	sample := func(t float64) (contactResult, bool) {
		return dispatchConvex(a.shape, translated(a.iso, vel1, t), b.shape, translated(b.iso, vel2, t))
	}

	relative := vel1.Sub(vel2)
	t, safe := 0.0, 0.0
	for i := 0; i < MAX_TOI_ITERATIONS; i++ {
		c, ok := sample(t)
		switch {
		case !ok:
			return t, c, ToiFailed, true
		case c.dist < 0 && i == 0:
			return t, c, ToiPenetrating, true
		case c.dist < 0:
			// rounding stepped past the contact
			return bisect(sample, safe, t)
		case c.dist <= toiTolerance:
			return t, c, ToiConverged, true
		}

		closing := relative.Dot(c.normal)
		if closing <= 0 {
			return 0, contactResult{}, ToiFailed, false
		}
		safe = t
		t += c.dist / closing
		if t > maxTime {
			return 0, contactResult{}, ToiFailed, false
		}
	}
	return t, contactResult{}, ToiOutOfIterations, true
}

// bisect narrows [lo, hi] to the touching time. The shapes are separated at lo and
// overlap at hi.
func bisect(sample func(t float64) (contactResult, bool), lo, hi float64) (float64, contactResult, ToiStatus, bool) {
	c, ok := sample(lo)
	if !ok {
		return lo, c, ToiFailed, true
	}
	for i := 0; i < MAX_TOI_ITERATIONS && c.dist > toiTolerance; i++ {
		mid := (lo + hi) / 2
		m, ok := sample(mid)
		if !ok {
			return mid, m, ToiFailed, true
		}
		if m.dist < 0 {
			hi = mid
		} else {
			lo, c = mid, m
		}
	}
	return lo, c, ToiConverged, true
}

func newImpact(t float64, c contactResult, iso1, iso2 Isometry, status ToiStatus) *Impact {
	return &Impact{
		Time:    t,
		Point1:  iso1.InversePoint(c.pointA),
		Point2:  iso2.InversePoint(c.pointB),
		Normal1: iso1.InverseVect(c.normal),
		Normal2: iso2.InverseVect(c.normal.Mul(-1)),
		Status:  status,
	}
}
