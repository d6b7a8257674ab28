package cp3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// Unbounded is the sentinel for "no cap" on forces, torques and impulses.
const Unbounded = math.MaxFloat64

const (
	// Vectors shorter than this are treated as degenerate.
	MAGIC_EPSILON = 1e-9
	// Tolerance used by isNormalized.
	normalizedTolerance = 2e-4
)

type Vector = mgl64.Vec3

var (
	VectorX = Vector{1, 0, 0}
	VectorY = Vector{0, 1, 0}
	VectorZ = Vector{0, 0, 1}
)

func Clamp[T constraints.Float | constraints.Integer](f, min, max T) T {
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

func Clamp01(f float64) float64 {
	return math.Max(0, math.Min(f, 1))
}

func LerpVector(v1, v2 Vector, t float64) Vector {
	return v1.Mul(1.0 - t).Add(v2.Mul(t))
}

// TryNormalize returns the unit vector in the direction of v, or false when v is
// too short or not finite.
func TryNormalize(v Vector) (Vector, bool) {
	l := v.Len()
	if l <= MAGIC_EPSILON || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vector{}, false
	}
	return v.Mul(1.0 / l), true
}

func isNormalized(v Vector) bool {
	return math.Abs(v.LenSqr()-1) <= normalizedTolerance
}

func isFinite(v Vector) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// AnyOrthonormal returns a unit vector perpendicular to the unit vector n.
func AnyOrthonormal(n Vector) Vector {
	// Duff et al., "Building an Orthonormal Basis, Revisited".
	sign := math.Copysign(1, n.Z())
	a := -1.0 / (sign + n.Z())
	b := n.X() * n.Y() * a
	return Vector{b, sign + n.Y()*n.Y()*a, -n.Y()}
}

// OrthonormalBasis returns two unit vectors that complete n to a right-handed basis.
func OrthonormalBasis(n Vector) (Vector, Vector) {
	t := AnyOrthonormal(n)
	return t, n.Cross(t)
}

func ClosestPointOnSegment(p, a, b Vector) (Vector, float64) {
	ab := b.Sub(a)
	denom := ab.LenSqr()
	if denom <= MAGIC_EPSILON*MAGIC_EPSILON {
		return a, 0
	}
	t := Clamp01(p.Sub(a).Dot(ab) / denom)
	return a.Add(ab.Mul(t)), t
}

// ClosestPointsSegmentSegment returns the closest points between segments p1q1 and p2q2.
func ClosestPointsSegmentSegment(p1, q1, p2, q2 Vector) (Vector, Vector) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.LenSqr()
	e := d2.LenSqr()
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a <= MAGIC_EPSILON && e <= MAGIC_EPSILON:
		return p1, p2
	case a <= MAGIC_EPSILON:
		t = Clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= MAGIC_EPSILON {
			s = Clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = Clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = Clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = Clamp01((b - c) / a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}
