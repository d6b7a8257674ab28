package cp3d

import "github.com/go-gl/mathgl/mgl64"

// Joint is a constraint between two bodies solved together with the contacts.
type Joint interface {
	Bodies() (BodyHandle, BodyHandle)
	// Prepare captures the start of step poses and computes the jacobians.
	Prepare(bodies *BodySet, h float64)
	WarmStart(body1, body2 *SolverBody, coefficient float64)
	Solve(body1, body2 *SolverBody, h float64, useBias bool)
	Remap(remap BodyRemap)
	// Impulse returns the magnitude of the constraint impulse of the last substep.
	Impulse() float64
}

// JointFrame is the state shared by the joint types.
type JointFrame struct {
	body1, body2 BodyHandle
	// Anchors in the body frames, relative to the centers of mass.
	LocalAnchor1, LocalAnchor2 Vector

	// Softness of the position correction.
	Frequency, DampingRatio float64
	customSoftness          bool

	pose1, pose2       Pose
	inertia1, inertia2 SolverBodyInertia
	softness           SoftnessCoefficients
}

func newJointFrame(body1, body2 BodyHandle) JointFrame {
	return JointFrame{body1: body1, body2: body2, Frequency: 60, DampingRatio: 2}
}

func (frame *JointFrame) jointFrame() *JointFrame {
	return frame
}

func (frame *JointFrame) setCompliance(frequency, dampingRatio float64) {
	assert(frequency >= 0 && dampingRatio >= 0, "Must be positive")
	frame.Frequency, frame.DampingRatio = frequency, dampingRatio
	frame.customSoftness = true
}

func (frame *JointFrame) Bodies() (BodyHandle, BodyHandle) {
	return frame.body1, frame.body2
}

func (frame *JointFrame) Remap(remap BodyRemap) {
	frame.body1 = remap.Get(frame.body1)
	frame.body2 = remap.Get(frame.body2)
}

func (frame *JointFrame) prepare(bodies *BodySet, h float64) {
	frame.pose1 = bodies.Pose(frame.body1)
	frame.pose2 = bodies.Pose(frame.body2)
	frame.inertia1 = bodies.Inertia(frame.body1).effective()
	frame.inertia2 = bodies.Inertia(frame.body2).effective()
	frame.softness = NewSoftnessCoefficients(frame.Frequency, frame.DampingRatio, h)
}

// current returns the rotations, world anchors and anchor separation for the deltas
// accumulated so far.
func (frame *JointFrame) current(body1, body2 *SolverBody) (rot1, rot2 mgl64.Quat, r1, r2, separation Vector) {
	rot1 = body1.Rotation(frame.pose1.Rotation)
	rot2 = body2.Rotation(frame.pose2.Rotation)
	r1 = rot1.Rotate(frame.LocalAnchor1)
	r2 = rot2.Rotate(frame.LocalAnchor2)
	p1 := frame.pose1.Position.Add(body1.DeltaPosition).Add(r1)
	p2 := frame.pose2.Position.Add(body2.DeltaPosition).Add(r2)
	return rot1, rot2, r1, r2, p2.Sub(p1)
}

// pointJacobians returns the rows that keep the anchors together along the world axes.
func pointJacobians(r1, r2 Vector) [3]jacobian {
	var rows [3]jacobian
	for i, axis := range [3]Vector{VectorX, VectorY, VectorZ} {
		rows[i] = jacobian{linear: axis, angular1: r1.Cross(axis), angular2: r2.Cross(axis)}
	}
	return rows
}

// JointLimit bounds a joint coordinate: radians for hinges, length units for sliders.
type JointLimit struct {
	Min, Max float64
}

type limitParts struct {
	lower, upper axisPart
}

func (limits *limitParts) update(limit *JointLimit, j jacobian, position float64, inertia1, inertia2 *SolverBodyInertia) {
	if limit == nil {
		limits.lower.impulse, limits.upper.impulse = 0, 0
		return
	}
	limits.lower.update(j, position-limit.Min, inertia1, inertia2)
	limits.upper.update(j.negate(), limit.Max-position, inertia1, inertia2)
}

func (limits *limitParts) warmStart(limit *JointLimit, body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, coefficient float64) {
	if limit != nil {
		limits.lower.warmStart(body1, body2, inertia1, inertia2, coefficient)
		limits.upper.warmStart(body1, body2, inertia1, inertia2, coefficient)
	}
}

func (limits *limitParts) solve(limit *JointLimit, body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, softness SoftnessCoefficients, useBias bool, h float64) {
	if limit != nil {
		limits.lower.solveLimit(body1, body2, inertia1, inertia2, softness, useBias, h)
		limits.upper.solveLimit(body1, body2, inertia1, inertia2, softness, useBias, h)
	}
}

func (limits *limitParts) impulse() float64 {
	return limits.lower.impulse - limits.upper.impulse
}
