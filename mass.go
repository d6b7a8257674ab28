package cp3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MassProperties of a shape in its local frame. Inertia is about the center of mass.
type MassProperties struct {
	Mass         float64
	CenterOfMass Vector
	Inertia      mgl64.Mat3
}

// InverseMass returns 1/mass, or 0 for massless shapes.
func (m MassProperties) InverseMass() float64 {
	return invOrZero(m.Mass)
}

// InverseInertia inverts the inertia tensor, treating a singular tensor as infinite.
// Singularity is judged relative to the size of the tensor so small bodies still rotate.
func (m MassProperties) InverseInertia() mgl64.Mat3 {
	det := m.Inertia.Det()
	trace := m.Inertia.Trace()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) || math.Abs(det) <= MAGIC_EPSILON*trace*trace*trace {
		return mgl64.Mat3{}
	}
	return m.Inertia.Inv()
}

func diagonal(x, y, z float64) mgl64.Mat3 {
	return mgl64.Mat3{x, 0, 0, 0, y, 0, 0, 0, z}
}

// MomentForSphere returns the inertia of a solid sphere.
func MomentForSphere(m, r float64) mgl64.Mat3 {
	i := 2.0 / 5.0 * m * r * r
	return diagonal(i, i, i)
}

// MomentForCuboid returns the inertia of a solid box with full side lengths x, y, z.
func MomentForCuboid(m, x, y, z float64) mgl64.Mat3 {
	return diagonal(m*(y*y+z*z)/12, m*(x*x+z*z)/12, m*(x*x+y*y)/12)
}

// MassProperties computes the mass properties for a uniform density. Convex hulls are
// approximated by their bounding box, centered at CenterOfMass. Bodies rotate about their
// pose, so hull points should be given relative to that center; shift them by
// CenterOfMass or wrap the hull in a compound when it is not. Custom shapes are massless.
func (s *Shape) MassProperties(density float64) MassProperties {
	switch s.typ {
	case SHAPE_SPHERE:
		m := density * 4.0 / 3.0 * math.Pi * s.r * s.r * s.r
		return MassProperties{Mass: m, Inertia: MomentForSphere(m, s.r)}
	case SHAPE_CUBOID:
		size := s.halfExtents.Mul(2)
		m := density * size.X() * size.Y() * size.Z()
		return MassProperties{Mass: m, Inertia: MomentForCuboid(m, size.X(), size.Y(), size.Z())}
	case SHAPE_CAPSULE:
		r, length := s.r, 2*s.halfHeight
		cylinder := density * math.Pi * r * r * length
		ball := density * 4.0 / 3.0 * math.Pi * r * r * r
		axial := cylinder*r*r/2 + ball*2*r*r/5
		// the two hemispheres sit at the ends of the cylinder
		lateral := cylinder*(3*r*r+length*length)/12 + ball*(2*r*r/5+length*length/4+3*length*r/8)
		return MassProperties{Mass: cylinder + ball, Inertia: diagonal(lateral, axial, lateral)}
	case SHAPE_CONVEX_HULL:
		lo, hi := s.verts[0], s.verts[0]
		for _, v := range s.verts[1:] {
			for i := 0; i < 3; i++ {
				lo[i] = math.Min(lo[i], v[i])
				hi[i] = math.Max(hi[i], v[i])
			}
		}
		size := hi.Sub(lo)
		m := density * size.X() * size.Y() * size.Z()
		return MassProperties{
			Mass:         m,
			CenterOfMass: LerpVector(lo, hi, 0.5),
			Inertia:      MomentForCuboid(m, size.X(), size.Y(), size.Z()),
		}
	case SHAPE_COMPOUND:
		return compoundMassProperties(s.children, density)
	}
	return MassProperties{}
}

func compoundMassProperties(children []CompoundChild, density float64) MassProperties {
	var total MassProperties
	parts := make([]MassProperties, len(children))
	for i, child := range children {
		iso := child.Pose.Isometry()
		p := child.Shape.MassProperties(density)
		p.CenterOfMass = iso.Point(p.CenterOfMass)
		p.Inertia = RotateInertia(iso.Rotation(), p.Inertia)
		parts[i] = p

		total.Mass += p.Mass
		total.CenterOfMass = total.CenterOfMass.Add(p.CenterOfMass.Mul(p.Mass))
	}
	if total.Mass == 0 {
		return MassProperties{}
	}
	total.CenterOfMass = total.CenterOfMass.Mul(1 / total.Mass)

	for _, p := range parts {
		// parallel axis theorem
		d := p.CenterOfMass.Sub(total.CenterOfMass)
		shift := mgl64.Ident3().Mul(d.LenSqr()).Sub(d.OuterProd3(d)).Mul(p.Mass)
		total.Inertia = total.Inertia.Add(p.Inertia).Add(shift)
	}
	return total
}
