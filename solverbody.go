package cp3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SolverBody is the per-step integration state the constraint solvers read and write.
// Positions are tracked as deltas from the pose at the start of the step.
type SolverBody struct {
	DeltaPosition   Vector
	DeltaRotation   mgl64.Quat
	LinearVelocity  Vector
	AngularVelocity Vector
}

func NewSolverBody(linearVelocity, angularVelocity Vector) SolverBody {
	return SolverBody{
		DeltaRotation:   mgl64.QuatIdent(),
		LinearVelocity:  linearVelocity,
		AngularVelocity: angularVelocity,
	}
}

// VelocityAtPoint returns the velocity of a point at offset r from the center of mass.
func (body *SolverBody) VelocityAtPoint(r Vector) Vector {
	return body.LinearVelocity.Add(body.AngularVelocity.Cross(r))
}

// IntegratePositions advances the position deltas by the current velocities.
func (body *SolverBody) IntegratePositions(h float64) {
	body.DeltaPosition = body.DeltaPosition.Add(body.LinearVelocity.Mul(h))

	w := body.AngularVelocity
	if w.LenSqr() == 0 {
		return
	}
	spin := mgl64.Quat{W: 0, V: w.Mul(0.5 * h)}.Mul(body.DeltaRotation)
	body.DeltaRotation = body.DeltaRotation.Add(spin).Normalize()
}

// Rotation returns the current rotation for a start-of-step rotation.
func (body *SolverBody) Rotation(base mgl64.Quat) mgl64.Quat {
	return body.DeltaRotation.Mul(base).Normalize()
}

func (body *SolverBody) applyImpulse(inertia *SolverBodyInertia, p, r Vector) {
	body.LinearVelocity = body.LinearVelocity.Add(p.Mul(inertia.invMass))
	body.AngularVelocity = body.AngularVelocity.Add(inertia.invInertia.Mul3x1(r.Cross(p)))
}

// applyImpulses applies -p to body1 at r1 and p to body2 at r2.
func applyImpulses(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, r1, r2, p Vector) {
	body1.applyImpulse(inertia1, p.Mul(-1), r1)
	body2.applyImpulse(inertia2, p, r2)
}

type BodyFlags uint8

const (
	BodyStatic BodyFlags = 1 << iota
	BodyKinematic
)

// SolverBodyInertia holds the effective inverse mass properties of a body. Static and
// kinematic bodies report zero.
type SolverBodyInertia struct {
	invMass    float64
	invInertia mgl64.Mat3
	Dominance  int8
	Flags      BodyFlags
}

// NewSolverBodyInertia builds the inertia of a dynamic body from its inverse mass and
// world space inverse inertia tensor.
func NewSolverBodyInertia(invMass float64, invInertia mgl64.Mat3, dominance int8) SolverBodyInertia {
	assert(invMass >= 0 && !math.IsNaN(invMass), "Inverse mass must be positive")
	return SolverBodyInertia{invMass: invMass, invInertia: invInertia, Dominance: dominance}
}

func NewStaticInertia() SolverBodyInertia {
	return SolverBodyInertia{Flags: BodyStatic}
}

func NewKinematicInertia() SolverBodyInertia {
	return SolverBodyInertia{Flags: BodyKinematic}
}

func (inertia *SolverBodyInertia) EffectiveInvMass() float64 {
	if inertia.Flags != 0 {
		return 0
	}
	return inertia.invMass
}

func (inertia *SolverBodyInertia) EffectiveInvInertia() mgl64.Mat3 {
	if inertia.Flags != 0 {
		return mgl64.Mat3{}
	}
	return inertia.invInertia
}

// IsImmovable reports whether no impulse can change the body's velocity.
func (inertia *SolverBodyInertia) IsImmovable() bool {
	return inertia.Flags != 0 || (inertia.invMass == 0 && inertia.invInertia == mgl64.Mat3{})
}

func (inertia *SolverBodyInertia) effective() SolverBodyInertia {
	return SolverBodyInertia{
		invMass:    inertia.EffectiveInvMass(),
		invInertia: inertia.EffectiveInvInertia(),
		Dominance:  inertia.Dominance,
		Flags:      inertia.Flags,
	}
}

// dominanceRank orders bodies for relative dominance. Immovable bodies outrank every
// dynamic body.
func (inertia *SolverBodyInertia) dominanceRank() int16 {
	if inertia.Flags != 0 {
		return math.MaxInt8 + 1
	}
	return int16(inertia.Dominance)
}

// RelativeDominance is positive when the first body dominates the second.
func RelativeDominance(inertia1, inertia2 *SolverBodyInertia) int16 {
	return inertia1.dominanceRank() - inertia2.dominanceRank()
}

// pairInertias returns the inertias the solver uses for a pair. The dominant body acts
// as if its mass were infinite.
func pairInertias(inertia1, inertia2 *SolverBodyInertia, relativeDominance int16) (SolverBodyInertia, SolverBodyInertia) {
	i1, i2 := inertia1.effective(), inertia2.effective()
	switch {
	case relativeDominance > 0:
		i1.invMass, i1.invInertia = 0, mgl64.Mat3{}
	case relativeDominance < 0:
		i2.invMass, i2.invInertia = 0, mgl64.Mat3{}
	}
	return i1, i2
}
