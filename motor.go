package cp3d

import "math"

type MotorModelKind int

const (
	// Stiffness and damping are accelerations, independent of the body masses.
	MotorAccelerationBased MotorModelKind = iota
	// Frequency in hertz and damping ratio of a spring.
	MotorSpringDamper
)

// MotorModel describes how strongly a motor pulls toward its targets.
type MotorModel struct {
	Kind MotorModelKind

	Stiffness, Damping      float64
	Frequency, DampingRatio float64
}

// AccelerationBased drives the position error with stiffness and the velocity error
// with damping. A zero stiffness makes a pure velocity motor.
func AccelerationBased(stiffness, damping float64) MotorModel {
	return MotorModel{Kind: MotorAccelerationBased, Stiffness: stiffness, Damping: damping}
}

func SpringDamper(frequency, dampingRatio float64) MotorModel {
	return MotorModel{Kind: MotorSpringDamper, Frequency: frequency, DampingRatio: dampingRatio}
}

// StiffnessDamping returns the model as acceleration stiffness and damping.
func (model MotorModel) StiffnessDamping() (float64, float64) {
	if model.Kind == MotorSpringDamper {
		omega := 2 * math.Pi * model.Frequency
		return omega * omega, 2 * model.DampingRatio * omega
	}
	return model.Stiffness, model.Damping
}

func (model MotorModel) softness(h float64) SoftnessCoefficients {
	stiffness, damping := model.StiffnessDamping()
	return NewStiffnessSoftness(stiffness, damping, h)
}

// Motor drives one joint axis toward a target velocity and, with a stiff model, a
// target position. MaxForce is a torque for angular motors.
type Motor struct {
	Enabled        bool
	TargetVelocity float64
	TargetPosition float64
	MaxForce       float64
	Model          MotorModel

	part axisPart
}

// NewMotor returns an enabled motor without a force cap.
func NewMotor(model MotorModel) Motor {
	return Motor{Enabled: true, MaxForce: Unbounded, Model: model}
}

func (motor Motor) WithTargetVelocity(velocity float64) Motor {
	motor.TargetVelocity = velocity
	return motor
}

func (motor Motor) WithTargetPosition(position float64) Motor {
	motor.TargetPosition = position
	return motor
}

func (motor Motor) WithMaxForce(max float64) Motor {
	assert(max >= 0, "Must be positive")
	motor.MaxForce = max
	return motor
}

// Impulse returns the impulse the motor applied in the last substep.
func (motor *Motor) Impulse() float64 {
	return motor.part.impulse
}

// prepare sets the motor axis. position is the current joint coordinate along it.
func (motor *Motor) prepare(j jacobian, position float64, inertia1, inertia2 *SolverBodyInertia) {
	if !motor.Enabled {
		motor.part.impulse = 0
		return
	}
	motor.part.update(j, position-motor.TargetPosition, inertia1, inertia2)
}

func (motor *Motor) warmStart(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, coefficient float64) {
	if motor.Enabled {
		motor.part.warmStart(body1, body2, inertia1, inertia2, coefficient)
	}
}

// solve applies the motor impulse. The motor is part of the physical model, so its
// softness applies on relax passes too.
func (motor *Motor) solve(body1, body2 *SolverBody, inertia1, inertia2 *SolverBodyInertia, h float64) {
	if !motor.Enabled {
		motor.part.impulse = 0
		return
	}
	part := &motor.part
	softness := motor.Model.softness(h)

	maxImpulse := Unbounded
	if motor.MaxForce != Unbounded {
		maxImpulse = motor.MaxForce * h
	}

	cdot := part.jacobian.velocity(body1, body2) - motor.TargetVelocity
	lambda := -part.effectiveMass*softness.MassScale*(cdot+softness.Bias*part.position) - softness.ImpulseScale*part.impulse
	part.accumulate(body1, body2, inertia1, inertia2, lambda, -maxImpulse, maxImpulse)
}
