package cp3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RevoluteJoint pins two bodies together at an anchor and only lets them rotate about a
// shared hinge axis.
type RevoluteJoint struct {
	JointFrame

	LocalAxis1, LocalAxis2 Vector
	// Directions perpendicular to the axes that read zero angle when aligned.
	LocalBasis1, LocalBasis2 Vector

	Limit *JointLimit
	Motor Motor

	point  [3]axisPart
	align  [2]axisPart
	limits limitParts
	angle  float64
}

func NewRevoluteJoint(body1, body2 BodyHandle) *RevoluteJoint {
	joint := &RevoluteJoint{JointFrame: newJointFrame(body1, body2)}
	return joint.WithHingeAxis(VectorZ)
}

func (joint *RevoluteJoint) WithLocalAnchor1(anchor Vector) *RevoluteJoint {
	joint.LocalAnchor1 = anchor
	return joint
}

func (joint *RevoluteJoint) WithLocalAnchor2(anchor Vector) *RevoluteJoint {
	joint.LocalAnchor2 = anchor
	return joint
}

// WithHingeAxis sets the same hinge axis in both body frames.
func (joint *RevoluteJoint) WithHingeAxis(axis Vector) *RevoluteJoint {
	axis, ok := TryNormalize(axis)
	assert(ok, "Hinge axis must not be zero")
	joint.LocalAxis1, joint.LocalAxis2 = axis, axis
	joint.LocalBasis1 = AnyOrthonormal(axis)
	joint.LocalBasis2 = joint.LocalBasis1
	return joint
}

func (joint *RevoluteJoint) WithAngleLimits(min, max float64) *RevoluteJoint {
	assert(min <= max, "Minimum angle must not exceed the maximum")
	joint.Limit = &JointLimit{min, max}
	return joint
}

func (joint *RevoluteJoint) WithMotor(motor Motor) *RevoluteJoint {
	joint.Motor = motor
	return joint
}

func (joint *RevoluteJoint) WithCompliance(frequency, dampingRatio float64) *RevoluteJoint {
	joint.setCompliance(frequency, dampingRatio)
	return joint
}

// Angle returns the hinge angle measured by the last prepare or solve.
func (joint *RevoluteJoint) Angle() float64 {
	return joint.angle
}

func (joint *RevoluteJoint) Prepare(bodies *BodySet, h float64) {
	joint.prepare(bodies, h)
	still := NewSolverBody(Vector{}, Vector{})
	joint.update(&still, &still)
}

func (joint *RevoluteJoint) update(body1, body2 *SolverBody) {
	rot1, rot2, r1, r2, separation := joint.current(body1, body2)
	inertia1, inertia2 := &joint.inertia1, &joint.inertia2

	rows := pointJacobians(r1, r2)
	for i := range rows {
		joint.point[i].update(rows[i], separation[i], inertia1, inertia2)
	}

	a1 := rot1.Rotate(joint.LocalAxis1)
	a2 := rot2.Rotate(joint.LocalAxis2)
	b, c := OrthonormalBasis(a1)
	misalignment := a1.Cross(a2)
	for i, t := range [2]Vector{b, c} {
		joint.align[i].update(jacobian{angular1: t, angular2: t}, misalignment.Dot(t), inertia1, inertia2)
	}

	joint.angle = hingeAngle(a1, rot1.Rotate(joint.LocalBasis1), rot2.Rotate(joint.LocalBasis2))
	hinge := jacobian{angular1: a1, angular2: a1}
	joint.limits.update(joint.Limit, hinge, joint.angle, inertia1, inertia2)
	target := joint.Motor.TargetPosition
	joint.Motor.prepare(hinge, target+wrapAngle(joint.angle-target), inertia1, inertia2)
}

func (joint *RevoluteJoint) WarmStart(body1, body2 *SolverBody, coefficient float64) {
	inertia1, inertia2 := &joint.inertia1, &joint.inertia2
	joint.Motor.warmStart(body1, body2, inertia1, inertia2, coefficient)
	joint.limits.warmStart(joint.Limit, body1, body2, inertia1, inertia2, coefficient)
	for i := range joint.align {
		joint.align[i].warmStart(body1, body2, inertia1, inertia2, coefficient)
	}
	for i := range joint.point {
		joint.point[i].warmStart(body1, body2, inertia1, inertia2, coefficient)
	}
}

func (joint *RevoluteJoint) Solve(body1, body2 *SolverBody, h float64, useBias bool) {
	joint.update(body1, body2)
	inertia1, inertia2 := &joint.inertia1, &joint.inertia2

	joint.Motor.solve(body1, body2, inertia1, inertia2, h)
	joint.limits.solve(joint.Limit, body1, body2, inertia1, inertia2, joint.softness, useBias, h)
	for i := range joint.align {
		joint.align[i].solve(body1, body2, inertia1, inertia2, joint.softness, useBias, math.Inf(-1), math.Inf(1))
	}
	for i := range joint.point {
		joint.point[i].solve(body1, body2, inertia1, inertia2, joint.softness, useBias, math.Inf(-1), math.Inf(1))
	}
}

func (joint *RevoluteJoint) Impulse() float64 {
	p := Vector{joint.point[0].impulse, joint.point[1].impulse, joint.point[2].impulse}
	return p.Len()
}

// hingeAngle measures the rotation from u1 to u2 about axis.
func hingeAngle(axis, u1, u2 Vector) float64 {
	return math.Atan2(axis.Dot(u1.Cross(u2)), u1.Dot(u2))
}

// wrapAngle maps an angle into [-pi, pi].
func wrapAngle(angle float64) float64 {
	return math.Remainder(angle, 2*math.Pi)
}

// relativeRotationError returns the small-angle rotation vector taking rot1 * reference
// to rot2.
func relativeRotationError(rot1, rot2, reference mgl64.Quat) Vector {
	q := rot2.Mul(rot1.Mul(reference).Conjugate())
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return q.V.Mul(2)
}
