package cp3d

import "math"

// ContactConstraintPoint is the solver state of one manifold point.
type ContactConstraintPoint struct {
	NormalPart ContactNormalPart
	// nil when the contact has no friction
	TangentPart *ContactTangentPart

	// World space offsets of the contact from the centers of mass, fixed for the step.
	Anchor1, Anchor2 Vector
	// Relative velocity along the normal before the solve, negative when approaching.
	NormalSpeed float64
	// Separation before the solve, negative when penetrating.
	InitialSeparation float64
}

// ContactConstraint keeps the points of one contact manifold apart and applies friction
// and restitution between them.
type ContactConstraint struct {
	Body1, Body2 BodyHandle
	// Positive when body1 dominates and acts as if its mass were infinite.
	RelativeDominance int16

	Friction, Restitution float64
	TangentVelocity       Vector

	Normal            Vector
	TangentDirections [TangentCount]Vector
	Points            []ContactConstraintPoint

	ContactID     ContactID
	ManifoldIndex int

	inertia1, inertia2 SolverBodyInertia
}

// NewContactConstraint prepares the manifold of a pair for solving. The tangent basis is
// chosen from the relative velocity of the bodies and kept for the whole step.
func NewContactConstraint(pair *ContactPair, manifoldIndex int, bodies *BodySet, softness SoftnessCoefficients) ContactConstraint {
	manifold := &pair.Manifolds[manifoldIndex]
	body1, body2 := bodies.Body(pair.Body1), bodies.Body(pair.Body2)
	pose1, pose2 := bodies.Pose(pair.Body1), bodies.Pose(pair.Body2)

	relativeDominance := RelativeDominance(bodies.Inertia(pair.Body1), bodies.Inertia(pair.Body2))
	inertia1, inertia2 := pairInertias(bodies.Inertia(pair.Body1), bodies.Inertia(pair.Body2), relativeDominance)

	constraint := ContactConstraint{
		Body1:             pair.Body1,
		Body2:             pair.Body2,
		RelativeDominance: relativeDominance,
		Friction:          pair.Friction,
		Restitution:       pair.Restitution,
		TangentVelocity:   pair.TangentVelocity,
		Normal:            manifold.Normal,
		TangentDirections: tangentDirections(manifold.Normal, body1.LinearVelocity, body2.LinearVelocity),
		Points:            make([]ContactConstraintPoint, len(manifold.Points)),
		ContactID:         pair.ID,
		ManifoldIndex:     manifoldIndex,
		inertia1:          inertia1,
		inertia2:          inertia2,
	}

	iso1, iso2 := pair.Pose1.Isometry(), pair.Pose2.Isometry()
	normal := manifold.Normal
	for i := range manifold.Points {
		contact := &manifold.Points[i]
		r1 := iso1.Point(contact.LocalPoint1).Sub(pose1.Position)
		r2 := iso2.Point(contact.LocalPoint2).Sub(pose2.Position)

		point := ContactConstraintPoint{
			NormalPart:        newContactNormalPart(&inertia1, &inertia2, r1, r2, normal, softness),
			Anchor1:           r1,
			Anchor2:           r2,
			NormalSpeed:       body2.VelocityAtPoint(r2).Sub(body1.VelocityAtPoint(r1)).Dot(normal),
			InitialSeparation: -contact.Penetration,
		}
		point.NormalPart.Impulse = contact.NormalImpulse
		if constraint.Friction > 0 {
			point.TangentPart = newContactTangentPart(&inertia1, &inertia2, r1, r2, constraint.TangentDirections)
			point.TangentPart.Impulse = contact.TangentImpulse
		}
		constraint.Points[i] = point
	}
	return constraint
}

// impulse returns the world space impulse stored in a point.
func (c *ContactConstraint) impulse(point *ContactConstraintPoint) Vector {
	p := c.Normal.Mul(point.NormalPart.Impulse)
	if point.TangentPart != nil {
		for i, dir := range c.TangentDirections {
			p = p.Add(dir.Mul(point.TangentPart.Impulse[i]))
		}
	}
	return p
}

// WarmStart applies the impulses carried over from the previous solve, scaled by
// coefficient.
func (c *ContactConstraint) WarmStart(body1, body2 *SolverBody, coefficient float64) {
	for i := range c.Points {
		point := &c.Points[i]
		p := c.impulse(point).Mul(coefficient)
		applyImpulses(body1, body2, &c.inertia1, &c.inertia2, point.Anchor1, point.Anchor2, p)
	}
}

// Solve runs one pass over the points: non-penetration for every point first, then
// friction bounded by the normal impulses just computed.
func (c *ContactConstraint) Solve(body1, body2 *SolverBody, h float64, useBias bool, maxOverlapSolveSpeed float64) {
	normal := c.Normal
	deltaTranslation := body2.DeltaPosition.Sub(body1.DeltaPosition)

	for i := range c.Points {
		point := &c.Points[i]
		r1, r2 := point.Anchor1, point.Anchor2

		// current anchors from the rotation accumulated this step
		moved1 := body1.DeltaRotation.Rotate(r1).Sub(r1)
		moved2 := body2.DeltaRotation.Rotate(r2).Sub(r2)
		separation := point.InitialSeparation + deltaTranslation.Add(moved2).Sub(moved1).Dot(normal)

		relativeVelocity := body2.VelocityAtPoint(r2).Sub(body1.VelocityAtPoint(r1))
		impulse := point.NormalPart.SolveImpulse(separation, relativeVelocity.Dot(normal), useBias, maxOverlapSolveSpeed, h)
		applyImpulses(body1, body2, &c.inertia1, &c.inertia2, r1, r2, normal.Mul(impulse))
	}

	for i := range c.Points {
		point := &c.Points[i]
		if point.TangentPart == nil {
			continue
		}
		r1, r2 := point.Anchor1, point.Anchor2
		relativeVelocity := body2.VelocityAtPoint(r2).Sub(body1.VelocityAtPoint(r1))
		p := point.TangentPart.SolveImpulse(c.TangentDirections, relativeVelocity, c.TangentVelocity, c.Friction, point.NormalPart.Impulse)
		applyImpulses(body1, body2, &c.inertia1, &c.inertia2, r1, r2, p)
	}
}

// ApplyRestitution adds the bounce impulse for points that were approaching faster than
// threshold and received a normal impulse.
func (c *ContactConstraint) ApplyRestitution(body1, body2 *SolverBody, threshold float64) {
	normal := c.Normal
	for i := range c.Points {
		point := &c.Points[i]
		if point.NormalSpeed > -threshold || point.NormalPart.TotalImpulse == 0 {
			continue
		}

		r1, r2 := point.Anchor1, point.Anchor2
		normalSpeed := body2.VelocityAtPoint(r2).Sub(body1.VelocityAtPoint(r1)).Dot(normal)

		impulse := -point.NormalPart.EffectiveMass * (normalSpeed + c.Restitution*point.NormalSpeed)
		newImpulse := math.Max(point.NormalPart.Impulse+impulse, 0)
		impulse = newImpulse - point.NormalPart.Impulse
		point.NormalPart.Impulse = newImpulse
		point.NormalPart.TotalImpulse += impulse

		applyImpulses(body1, body2, &c.inertia1, &c.inertia2, r1, r2, normal.Mul(impulse))
	}
}

// StoreImpulses writes the accumulated impulses back into the manifold for warm starting
// the next step.
func (c *ContactConstraint) StoreImpulses(pair *ContactPair) {
	manifold := &pair.Manifolds[c.ManifoldIndex]
	for i := range c.Points {
		point := &c.Points[i]
		manifold.Points[i].NormalImpulse = point.NormalPart.Impulse
		if point.TangentPart != nil {
			manifold.Points[i].TangentImpulse = point.TangentPart.Impulse
		} else {
			manifold.Points[i].TangentImpulse = TangentImpulse{}
		}
	}
}

// Remap rewrites the body handles after the owning body set was relocated.
func (c *ContactConstraint) Remap(remap BodyRemap) {
	c.Body1 = remap.Get(c.Body1)
	c.Body2 = remap.Get(c.Body2)
}
