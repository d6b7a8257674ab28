package cp3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// PrismaticJoint lets two bodies slide along an axis fixed in the first body and locks
// their relative rotation.
type PrismaticJoint struct {
	JointFrame

	LocalAxis1 Vector
	// Rotation of body2 in the frame of body1 that the joint holds.
	ReferenceRotation mgl64.Quat

	Limit *JointLimit
	Motor Motor

	perpendicular [2]axisPart
	lock          [3]axisPart
	limits        limitParts
	translation   float64
}

func NewPrismaticJoint(body1, body2 BodyHandle) *PrismaticJoint {
	return &PrismaticJoint{
		JointFrame:        newJointFrame(body1, body2),
		LocalAxis1:        VectorX,
		ReferenceRotation: mgl64.QuatIdent(),
	}
}

func (joint *PrismaticJoint) WithLocalAnchor1(anchor Vector) *PrismaticJoint {
	joint.LocalAnchor1 = anchor
	return joint
}

func (joint *PrismaticJoint) WithLocalAnchor2(anchor Vector) *PrismaticJoint {
	joint.LocalAnchor2 = anchor
	return joint
}

func (joint *PrismaticJoint) WithSlideAxis(axis Vector) *PrismaticJoint {
	axis, ok := TryNormalize(axis)
	assert(ok, "Slide axis must not be zero")
	joint.LocalAxis1 = axis
	return joint
}

func (joint *PrismaticJoint) WithLimits(min, max float64) *PrismaticJoint {
	assert(min <= max, "Minimum translation must not exceed the maximum")
	joint.Limit = &JointLimit{min, max}
	return joint
}

func (joint *PrismaticJoint) WithMotor(motor Motor) *PrismaticJoint {
	joint.Motor = motor
	return joint
}

func (joint *PrismaticJoint) WithCompliance(frequency, dampingRatio float64) *PrismaticJoint {
	joint.setCompliance(frequency, dampingRatio)
	return joint
}

// Translation returns the anchor offset along the axis measured by the last prepare or solve.
func (joint *PrismaticJoint) Translation() float64 {
	return joint.translation
}

func (joint *PrismaticJoint) Prepare(bodies *BodySet, h float64) {
	joint.prepare(bodies, h)
	still := NewSolverBody(Vector{}, Vector{})
	joint.update(&still, &still)
}

func (joint *PrismaticJoint) update(body1, body2 *SolverBody) {
	rot1, rot2, r1, r2, separation := joint.current(body1, body2)
	inertia1, inertia2 := &joint.inertia1, &joint.inertia2

	axis := rot1.Rotate(joint.LocalAxis1)
	joint.translation = separation.Dot(axis)

	// body1 carries the axis, so its lever arm reaches the second anchor
	arm1 := r1.Add(separation)
	slide := jacobian{linear: axis, angular1: arm1.Cross(axis), angular2: r2.Cross(axis)}
	joint.limits.update(joint.Limit, slide, joint.translation, inertia1, inertia2)
	joint.Motor.prepare(slide, joint.translation, inertia1, inertia2)

	b, c := OrthonormalBasis(axis)
	for i, t := range [2]Vector{b, c} {
		row := jacobian{linear: t, angular1: arm1.Cross(t), angular2: r2.Cross(t)}
		joint.perpendicular[i].update(row, separation.Dot(t), inertia1, inertia2)
	}

	rotationError := relativeRotationError(rot1, rot2, joint.ReferenceRotation)
	for i, e := range [3]Vector{VectorX, VectorY, VectorZ} {
		joint.lock[i].update(jacobian{angular1: e, angular2: e}, rotationError[i], inertia1, inertia2)
	}
}

func (joint *PrismaticJoint) WarmStart(body1, body2 *SolverBody, coefficient float64) {
	inertia1, inertia2 := &joint.inertia1, &joint.inertia2
	joint.Motor.warmStart(body1, body2, inertia1, inertia2, coefficient)
	joint.limits.warmStart(joint.Limit, body1, body2, inertia1, inertia2, coefficient)
	for i := range joint.perpendicular {
		joint.perpendicular[i].warmStart(body1, body2, inertia1, inertia2, coefficient)
	}
	for i := range joint.lock {
		joint.lock[i].warmStart(body1, body2, inertia1, inertia2, coefficient)
	}
}

func (joint *PrismaticJoint) Solve(body1, body2 *SolverBody, h float64, useBias bool) {
	joint.update(body1, body2)
	inertia1, inertia2 := &joint.inertia1, &joint.inertia2

	joint.Motor.solve(body1, body2, inertia1, inertia2, h)
	joint.limits.solve(joint.Limit, body1, body2, inertia1, inertia2, joint.softness, useBias, h)
	for i := range joint.lock {
		joint.lock[i].solve(body1, body2, inertia1, inertia2, joint.softness, useBias, math.Inf(-1), math.Inf(1))
	}
	for i := range joint.perpendicular {
		joint.perpendicular[i].solve(body1, body2, inertia1, inertia2, joint.softness, useBias, math.Inf(-1), math.Inf(1))
	}
}

func (joint *PrismaticJoint) Impulse() float64 {
	return math.Hypot(joint.perpendicular[0].impulse, joint.perpendicular[1].impulse)
}
