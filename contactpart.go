package cp3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// k_scalar returns the inverse effective mass of a pair of bodies along direction n
// applied at offsets r1 and r2.
func k_scalar(inertia1, inertia2 *SolverBodyInertia, r1, r2, n Vector) float64 {
	return inertia1.invMass + inertia2.invMass + k_angular(inertia1.invInertia, r1, n) + k_angular(inertia2.invInertia, r2, n)
}

func k_angular(invInertia mgl64.Mat3, r, n Vector) float64 {
	rn := r.Cross(n)
	return invInertia.Mul3x1(rn).Dot(rn)
}

func invOrZero(k float64) float64 {
	if k <= 0 {
		return 0
	}
	return 1 / k
}

// ContactNormalPart solves non-penetration along the contact normal.
type ContactNormalPart struct {
	// accumulated impulse of the current step
	Impulse float64
	// sum of the impulses applied over every solve and restitution pass
	TotalImpulse  float64
	EffectiveMass float64
	Softness      SoftnessCoefficients
}

func newContactNormalPart(inertia1, inertia2 *SolverBodyInertia, r1, r2, normal Vector, softness SoftnessCoefficients) ContactNormalPart {
	return ContactNormalPart{
		EffectiveMass: invOrZero(k_scalar(inertia1, inertia2, r1, r2, normal)),
		Softness:      softness,
	}
}

// SolveImpulse returns the incremental impulse along the normal for the given
// separation and relative normal velocity. The accumulated impulse stays non-negative.
func (part *ContactNormalPart) SolveImpulse(separation, normalSpeed float64, useBias bool, maxOverlapSolveSpeed, h float64) float64 {
	bias, massScale, impulseScale := 0.0, 1.0, 0.0
	if separation > 0 {
		// speculative contact: only remove the velocity that would close the gap
		bias = separation / h
	} else if useBias {
		bias = math.Max(part.Softness.Bias*separation, -maxOverlapSolveSpeed)
		massScale = part.Softness.MassScale
		impulseScale = part.Softness.ImpulseScale
	}

	impulse := -part.EffectiveMass*massScale*(normalSpeed+bias) - impulseScale*part.Impulse
	newImpulse := math.Max(part.Impulse+impulse, 0)
	delta := newImpulse - part.Impulse
	part.Impulse = newImpulse
	part.TotalImpulse += delta
	return delta
}

// ContactTangentPart solves friction along the tangent basis of a contact.
type ContactTangentPart struct {
	Impulse       TangentImpulse
	EffectiveMass [TangentCount]float64
}

func newContactTangentPart(inertia1, inertia2 *SolverBodyInertia, r1, r2 Vector, directions [TangentCount]Vector) *ContactTangentPart {
	part := &ContactTangentPart{}
	for i, dir := range directions {
		part.EffectiveMass[i] = invOrZero(k_scalar(inertia1, inertia2, r1, r2, dir))
	}
	return part
}

// SolveImpulse returns the incremental friction impulse as a world space vector. The
// accumulated impulse is kept inside the cone of radius friction * normalImpulse.
func (part *ContactTangentPart) SolveImpulse(directions [TangentCount]Vector, relativeVelocity, tangentVelocity Vector, friction, normalImpulse float64) Vector {
	slip := relativeVelocity.Sub(tangentVelocity)

	var newImpulse TangentImpulse
	var length float64
	for i, dir := range directions {
		newImpulse[i] = part.Impulse[i] - part.EffectiveMass[i]*slip.Dot(dir)
		length += newImpulse[i] * newImpulse[i]
	}

	maxImpulse := friction * normalImpulse
	if length = math.Sqrt(length); length > maxImpulse {
		scale := 0.0
		if length > 0 {
			scale = maxImpulse / length
		}
		for i := range newImpulse {
			newImpulse[i] *= scale
		}
	}

	var applied Vector
	for i, dir := range directions {
		applied = applied.Add(dir.Mul(newImpulse[i] - part.Impulse[i]))
	}
	part.Impulse = newImpulse
	return applied
}
