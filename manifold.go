package cp3d

import "fmt"

// MaxManifoldPoints bounds the number of points in one manifold.
const MaxManifoldPoints = 4

type FeatureKind uint32

const (
	FeatureUnknown FeatureKind = iota
	FeatureVertex
	FeatureEdge
	FeatureFace
)

// FeatureID identifies the vertex, edge or face of a shape that produced a contact point.
// The zero value is unknown.
type FeatureID uint32

const featureKindShift = 30

func VertexID(i uint32) FeatureID { return FeatureID(uint32(FeatureVertex)<<featureKindShift | i) }
func EdgeID(i uint32) FeatureID   { return FeatureID(uint32(FeatureEdge)<<featureKindShift | i) }
func FaceID(i uint32) FeatureID   { return FeatureID(uint32(FeatureFace)<<featureKindShift | i) }

// edgeBetween names the edge joining two vertex features.
func edgeBetween(a, b FeatureID) FeatureID {
	i, j := a.Index(), b.Index()
	if j < i {
		i, j = j, i
	}
	return EdgeID(i<<15 | j&0x7fff)
}

func (f FeatureID) Kind() FeatureKind {
	return FeatureKind(uint32(f) >> featureKindShift)
}

func (f FeatureID) Index() uint32 {
	return uint32(f) & (1<<featureKindShift - 1)
}

func (f FeatureID) String() string {
	switch f.Kind() {
	case FeatureVertex:
		return fmt.Sprintf("vertex %d", f.Index())
	case FeatureEdge:
		return fmt.Sprintf("edge %d", f.Index())
	case FeatureFace:
		return fmt.Sprintf("face %d", f.Index())
	}
	return "unknown"
}

// ContactPoint is a single point of a manifold, expressed in the local frames of the two
// shapes. The impulses are warm start state carried between frames.
type ContactPoint struct {
	LocalPoint1, LocalPoint2 Vector
	// positive when the shapes overlap
	Penetration            float64
	FeatureID1, FeatureID2 FeatureID

	NormalImpulse  float64
	TangentImpulse TangentImpulse
}

func NewContactPoint(localPoint1, localPoint2 Vector, penetration float64) ContactPoint {
	return ContactPoint{
		LocalPoint1: localPoint1,
		LocalPoint2: localPoint2,
		Penetration: penetration,
	}
}

func (point ContactPoint) WithFeatureIDs(id1, id2 FeatureID) ContactPoint {
	point.FeatureID1 = id1
	point.FeatureID2 = id2
	return point
}

// ContactManifold is a set of contact points sharing a world space normal pointing
// from the first shape to the second.
type ContactManifold struct {
	Points []ContactPoint
	Normal Vector
	// Child indices when either shape is a compound, 0 otherwise.
	Subshape1, Subshape2 int
	// Position of the manifold in its pair.
	Index int
}

func NewContactManifold(points []ContactPoint, normal Vector) ContactManifold {
	return ContactManifold{Points: points, Normal: normal}
}

// MaxPenetration returns the deepest penetration of the manifold.
func (manifold *ContactManifold) MaxPenetration() float64 {
	max := -Unbounded
	for _, p := range manifold.Points {
		if p.Penetration > max {
			max = p.Penetration
		}
	}
	return max
}

func (manifold *ContactManifold) TotalNormalImpulse() float64 {
	var sum float64
	for _, p := range manifold.Points {
		sum += p.NormalImpulse
	}
	return sum
}

// matchPoint finds the point of an older manifold that a new point continues. Known
// feature ids win, otherwise the nearest anchor within matchDistance is used.
func (manifold *ContactManifold) matchPoint(p *ContactPoint, matchDistance float64, used []bool) int {
	if p.FeatureID1 != 0 || p.FeatureID2 != 0 {
		for i := range manifold.Points {
			old := &manifold.Points[i]
			if !used[i] && old.FeatureID1 == p.FeatureID1 && old.FeatureID2 == p.FeatureID2 {
				return i
			}
		}
	}

	best, bestDist := -1, matchDistance*matchDistance
	for i := range manifold.Points {
		if used[i] {
			continue
		}
		old := &manifold.Points[i]
		d1 := old.LocalPoint1.Sub(p.LocalPoint1).LenSqr()
		d2 := old.LocalPoint2.Sub(p.LocalPoint2).LenSqr()
		if d1 <= bestDist && d2 <= bestDist {
			best, bestDist = i, d1
		}
	}
	return best
}
