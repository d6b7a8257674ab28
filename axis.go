package cp3d

import "math"

// jacobian is one row of a constraint: the velocity it measures is
// linear·(v2 - v1) + angular2·w2 - angular1·w1.
type jacobian struct {
	linear             Vector
	angular1, angular2 Vector
}

func (j jacobian) velocity(body1, body2 *SolverBody) float64 {
	return j.linear.Dot(body2.LinearVelocity.Sub(body1.LinearVelocity)) +
		j.angular2.Dot(body2.AngularVelocity) - j.angular1.Dot(body1.AngularVelocity)
}

func (j jacobian) effectiveMass(inertia1, inertia2 *SolverBodyInertia) float64 {
	k := inertia1.invMass + inertia2.invMass +
		inertia1.invInertia.Mul3x1(j.angular1).Dot(j.angular1) +
		inertia2.invInertia.Mul3x1(j.angular2).Dot(j.angular2)
	return invOrZero(k)
}

func (j jacobian) apply(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, lambda float64) {
	body1.LinearVelocity = body1.LinearVelocity.Sub(j.linear.Mul(lambda * inertia1.invMass))
	body1.AngularVelocity = body1.AngularVelocity.Sub(inertia1.invInertia.Mul3x1(j.angular1).Mul(lambda))
	body2.LinearVelocity = body2.LinearVelocity.Add(j.linear.Mul(lambda * inertia2.invMass))
	body2.AngularVelocity = body2.AngularVelocity.Add(inertia2.invInertia.Mul3x1(j.angular2).Mul(lambda))
}

func (j jacobian) negate() jacobian {
	return jacobian{j.linear.Mul(-1), j.angular1.Mul(-1), j.angular2.Mul(-1)}
}

// axisPart is a one dimensional constraint along a jacobian row with an accumulated
// impulse kept inside [lower, upper].
type axisPart struct {
	jacobian      jacobian
	effectiveMass float64
	// position error, C(x)
	position float64
	impulse  float64
}

func (part *axisPart) update(j jacobian, position float64, inertia1, inertia2 *SolverBodyInertia) {
	part.jacobian = j
	part.position = position
	part.effectiveMass = j.effectiveMass(inertia1, inertia2)
}

func (part *axisPart) warmStart(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, coefficient float64) {
	part.jacobian.apply(body1, body2, inertia1, inertia2, part.impulse*coefficient)
}

// solve drives C toward zero with the given softness. Without bias only the velocity
// error is removed.
func (part *axisPart) solve(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, softness SoftnessCoefficients, useBias bool, lower, upper float64) {
	bias, massScale, impulseScale := 0.0, 1.0, 0.0
	if useBias {
		bias = softness.Bias * part.position
		massScale = softness.MassScale
		impulseScale = softness.ImpulseScale
	}
	cdot := part.jacobian.velocity(body1, body2)
	lambda := -part.effectiveMass*massScale*(cdot+bias) - impulseScale*part.impulse
	part.accumulate(body1, body2, inertia1, inertia2, lambda, lower, upper)
}

// solveLimit keeps C >= 0. A positive C lets the bodies approach until the limit is hit
// within the substep.
func (part *axisPart) solveLimit(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, softness SoftnessCoefficients, useBias bool, h float64) {
	bias, massScale, impulseScale := 0.0, 1.0, 0.0
	if part.position > 0 {
		bias = part.position / h
	} else if useBias {
		bias = softness.Bias * part.position
		massScale = softness.MassScale
		impulseScale = softness.ImpulseScale
	}
	cdot := part.jacobian.velocity(body1, body2)
	lambda := -part.effectiveMass*massScale*(cdot+bias) - impulseScale*part.impulse
	part.accumulate(body1, body2, inertia1, inertia2, lambda, 0, math.Inf(1))
}

func (part *axisPart) accumulate(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, lambda, lower, upper float64) {
	newImpulse := Clamp(part.impulse+lambda, lower, upper)
	lambda = newImpulse - part.impulse
	part.impulse = newImpulse
	part.jacobian.apply(body1, body2, inertia1, inertia2, lambda)
}
