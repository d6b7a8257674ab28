package cp3d

import (
	"errors"
	"math"
)

// SingleContact is the deepest contact between two shapes. Points and normals are in the
// local frame of their shape. Normal1 points out of shape 1, Normal2 out of shape 2.
type SingleContact struct {
	Point1, Point2   Vector
	Normal1, Normal2 Vector
	// positive when the shapes overlap
	Penetration float64
}

// Contact computes the deepest contact between two shapes. It returns nil when the
// shapes are farther apart than prediction.
func Contact(s1 *Shape, pose1 Pose, s2 *Shape, pose2 Pose, prediction float64) (*SingleContact, error) {
	iso1, iso2 := pose1.Isometry(), pose2.Isometry()
	c, ok, err := dispatchContact(s1, iso1, s2, iso2, prediction)
	if err != nil || !ok {
		return nil, err
	}

	normal1 := iso1.InverseVect(c.normal)
	normal2 := iso2.InverseVect(c.normal.Mul(-1))
	if !isNormalized(normal1) || !isNormalized(normal2) {
		return nil, nil
	}
	return &SingleContact{
		Point1:      iso1.InversePoint(c.pointA),
		Point2:      iso2.InversePoint(c.pointB),
		Normal1:     normal1,
		Normal2:     normal2,
		Penetration: -c.dist,
	}, nil
}

// ContactManifolds computes the contact manifolds between two shapes into dst, which is
// cleared first. Pairs without an exact algorithm fall back to a single point contact
// when both shapes are support maps.
func ContactManifolds(dst []ContactManifold, s1 *Shape, pose1 Pose, s2 *Shape, pose2 Pose, prediction float64) []ContactManifold {
	dst, _ = contactManifolds(dst[:0], s1, pose1, s2, pose2, prediction)
	return dst
}

// contactManifolds appends to dst and reports pairs no algorithm could handle.
func contactManifolds(dst []ContactManifold, s1 *Shape, pose1 Pose, s2 *Shape, pose2 Pose, prediction float64) ([]ContactManifold, error) {
	iso1, iso2 := pose1.Isometry(), pose2.Isometry()

	raw, err := worldManifolds(nil, s1, iso1, s2, iso2, prediction)
	if errors.Is(err, ErrUnsupportedShape) {
		if !s1.IsSupportMap() || !s2.IsSupportMap() {
			return dst, err
		}
		c, ok := convexConvex(convexProxy{s1, iso1}, convexProxy{s2, iso2})
		if !ok || c.dist > prediction {
			return dst, nil
		}
		raw = []worldManifold{{normal: c.normal, points: []contactResult{c}}}
	} else if err != nil {
		return dst, err
	}

	for _, m := range raw {
		if len(m.points) == 0 || !isNormalized(m.normal) || !isFinite(m.normal) {
			continue
		}
		manifold := ContactManifold{
			Points:    make([]ContactPoint, len(m.points)),
			Normal:    m.normal,
			Subshape1: m.subA,
			Subshape2: m.subB,
			Index:     len(dst),
		}
		for i, c := range m.points {
			manifold.Points[i] = NewContactPoint(
				iso1.InversePoint(c.pointA),
				iso2.InversePoint(c.pointB),
				-c.dist,
			).WithFeatureIDs(c.idA, c.idB)
		}
		dst = append(dst, manifold)
	}
	return dst, nil
}

func worldManifolds(dst []worldManifold, a *Shape, isoA Isometry, b *Shape, isoB Isometry, prediction float64) ([]worldManifold, error) {
	if !a.SupportsExactDispatch(b) {
		return dst, unsupported(a, b)
	}
	leavesA := appendLeaves(nil, a, isoA)
	leavesB := appendLeaves(nil, b, isoB)
	overlappingLeaves(leavesA, leavesB, prediction, func(la, lb leaf) {
		m, ok := convexManifold(la.shape, la.iso, lb.shape, lb.iso, prediction)
		if !ok {
			return
		}
		m.subA, m.subB = la.index, lb.index
		dst = append(dst, m)
	})
	return dst, nil
}

type ProximityKind int

const (
	Intersecting ProximityKind = iota
	WithinMargin
	OutsideMargin
)

func (k ProximityKind) String() string {
	switch k {
	case Intersecting:
		return "intersecting"
	case WithinMargin:
		return "within margin"
	}
	return "outside margin"
}

// ClosestPointsResult holds world space points only for WithinMargin.
type ClosestPointsResult struct {
	Kind           ProximityKind
	Point1, Point2 Vector
}

// ClosestPoints computes the closest points between two shapes no farther apart than
// maxDistance.
func ClosestPoints(s1 *Shape, pose1 Pose, s2 *Shape, pose2 Pose, maxDistance float64) (ClosestPointsResult, error) {
	c, ok, err := dispatchContact(s1, pose1.Isometry(), s2, pose2.Isometry(), maxDistance)
	switch {
	case err != nil:
		return ClosestPointsResult{}, err
	case !ok:
		return ClosestPointsResult{Kind: OutsideMargin}, nil
	case c.dist <= 0:
		return ClosestPointsResult{Kind: Intersecting}, nil
	}
	return ClosestPointsResult{Kind: WithinMargin, Point1: c.pointA, Point2: c.pointB}, nil
}

// Distance returns the distance between two shapes, zero when they touch or overlap.
func Distance(s1 *Shape, pose1 Pose, s2 *Shape, pose2 Pose) (float64, error) {
	c, _, err := dispatchContact(s1, pose1.Isometry(), s2, pose2.Isometry(), math.Inf(1))
	if err != nil {
		return 0, err
	}
	return math.Max(c.dist, 0), nil
}

func IntersectionTest(s1 *Shape, pose1 Pose, s2 *Shape, pose2 Pose) (bool, error) {
	c, ok, err := dispatchContact(s1, pose1.Isometry(), s2, pose2.Isometry(), 0)
	if err != nil {
		return false, err
	}
	return ok && c.dist <= 0, nil
}
