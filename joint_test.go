package cp3d

import (
	"math"
	"testing"
)

func worldAnchor(bodies *BodySet, h BodyHandle, local Vector) Vector {
	return bodies.Pose(h).Isometry().Point(local)
}

func TestRevoluteJoint_Pendulum(t *testing.T) {
	s := newScene(t, DefaultConfig())
	pivot := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	bob := s.add(NewCuboid(0.2, 0.2, 0.2), at(1, 0, 0), Vector{})

	joint := NewRevoluteJoint(pivot, bob).WithLocalAnchor2(Vector{-1, 0, 0})
	s.solver.AddJoint(joint)
	// half a second, before the bob passes the bottom
	s.run(30)

	bodies := s.solver.Bodies
	if gap := worldAnchor(bodies, bob, joint.LocalAnchor2).Len(); gap > 0.01 {
		t.Errorf("Anchors drifted %v apart", gap)
	}
	pose := bodies.Pose(bob)
	if pose.Position.Y() > -0.1 {
		t.Errorf("Expected the pendulum to swing down, got %v", pose.Position)
	}
	if z := pose.Isometry().Vect(VectorZ); !nearVector(z, VectorZ, 1e-3) {
		t.Errorf("Expected rotation about the hinge only, hinge now %v", z)
	}
	if !near(joint.Angle(), math.Atan2(pose.Position.Y(), pose.Position.X()), 0.05) {
		t.Errorf("Expected the hinge angle to follow the bob, got %v at %v", joint.Angle(), pose.Position)
	}
}

func TestRevoluteJoint_Limits(t *testing.T) {
	s := newScene(t, DefaultConfig())
	pivot := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	bob := s.add(NewCuboid(0.2, 0.2, 0.2), at(1, 0, 0), Vector{})

	joint := NewRevoluteJoint(pivot, bob).WithLocalAnchor2(Vector{-1, 0, 0}).WithAngleLimits(-0.3, 0.3)
	s.solver.AddJoint(joint)
	s.run(120)

	// the bob falls onto the lower limit and rests there
	if angle := joint.Angle(); angle < -0.35 || angle > -0.25 {
		t.Errorf("Expected the angle at the lower limit, got %v", angle)
	}
	if gap := worldAnchor(s.solver.Bodies, bob, joint.LocalAnchor2).Len(); gap > 0.01 {
		t.Errorf("Anchors drifted %v apart", gap)
	}
}

func zeroGravity() Config {
	config := DefaultConfig()
	config.Gravity = Vector{}
	return config
}

func TestRevoluteJoint_VelocityMotor(t *testing.T) {
	s := newScene(t, zeroGravity())
	base := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	wheel := s.add(NewSphere(0.5), at(0, 0, 0), Vector{})

	joint := NewRevoluteJoint(base, wheel).WithMotor(NewMotor(AccelerationBased(0, 1000)).WithTargetVelocity(2))
	s.solver.AddJoint(joint)
	s.run(30)

	w := s.solver.Bodies.Body(wheel).AngularVelocity
	if !near(w.Z(), 2, 0.05) || !near(w.X(), 0, 1e-6) || !near(w.Y(), 0, 1e-6) {
		t.Errorf("Expected the wheel to spin at 2 about Z, got %v", w)
	}
	if p := s.solver.Bodies.Pose(wheel).Position; p.Len() > 1e-3 {
		t.Errorf("Expected the wheel to stay on its axle, got %v", p)
	}
}

func TestRevoluteJoint_MotorLimits(t *testing.T) {
	s := newScene(t, zeroGravity())
	base := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	wheel := s.add(NewSphere(0.5), at(0, 0, 0), Vector{})

	joint := NewRevoluteJoint(base, wheel).WithMotor(NewMotor(AccelerationBased(0, 1000)).WithTargetVelocity(2).WithMaxForce(0.01))
	s.solver.AddJoint(joint)
	s.run(1)

	h := 1.0 / 60.0 / float64(DefaultConfig().Substeps)
	if impulse := math.Abs(joint.Motor.Impulse()); impulse > 0.01*h+1e-12 {
		t.Errorf("Motor impulse %v exceeds its cap %v", impulse, 0.01*h)
	}

	disabled := NewRevoluteJoint(base, wheel)
	disabled.Motor = NewMotor(AccelerationBased(0, 1000)).WithTargetVelocity(2)
	disabled.Motor.Enabled = false
	s.solver.RemoveJoint(joint)
	s.solver.AddJoint(disabled)

	before := s.solver.Bodies.Body(wheel).AngularVelocity
	s.run(1)
	if disabled.Motor.Impulse() != 0 {
		t.Errorf("Disabled motor applied %v", disabled.Motor.Impulse())
	}
	if after := s.solver.Bodies.Body(wheel).AngularVelocity; !nearVector(before, after, 1e-9) {
		t.Errorf("Disabled motor changed the spin from %v to %v", before, after)
	}
}

func TestRevoluteJoint_PositionMotor(t *testing.T) {
	s := newScene(t, zeroGravity())
	base := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	wheel := s.add(NewSphere(0.5), at(0, 0, 0), Vector{})

	joint := NewRevoluteJoint(base, wheel).WithMotor(NewMotor(SpringDamper(2, 1)).WithTargetPosition(1))
	s.solver.AddJoint(joint)
	s.run(180)

	if !near(joint.Angle(), 1, 0.02) {
		t.Errorf("Expected the motor to reach angle 1, got %v", joint.Angle())
	}
}

func TestPrismaticJoint_Slides(t *testing.T) {
	config := DefaultConfig()
	config.Gravity = Vector{3, -9.81, 0}
	s := newScene(t, config)
	rail := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	slider := s.add(NewCuboid(0.2, 0.2, 0.2), at(0, 0, 0), Vector{})

	joint := NewPrismaticJoint(rail, slider).WithLimits(-0.5, 0.5)
	s.solver.AddJoint(joint)
	s.run(120)

	pose := s.solver.Bodies.Pose(slider)
	if pose.Position.X() < 0.3 || pose.Position.X() > 0.55 {
		t.Errorf("Expected the slider to stop at the limit, got %v", pose.Position)
	}
	if math.Abs(pose.Position.Y()) > 0.01 || math.Abs(pose.Position.Z()) > 0.01 {
		t.Errorf("Expected the slider to stay on the rail, got %v", pose.Position)
	}
	if x := pose.Isometry().Vect(VectorX); !nearVector(x, VectorX, 1e-3) {
		t.Errorf("Expected the rotation to be locked, got %v", x)
	}
	if !near(joint.Translation(), pose.Position.X(), 0.05) {
		t.Errorf("Expected the translation to follow the slider, got %v", joint.Translation())
	}
}

func TestPrismaticJoint_Motor(t *testing.T) {
	s := newScene(t, zeroGravity())
	rail := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	slider := s.add(NewCuboid(0.2, 0.2, 0.2), at(0, 0, 0), Vector{})

	joint := NewPrismaticJoint(rail, slider).WithSlideAxis(VectorZ).WithMotor(NewMotor(AccelerationBased(0, 1000)).WithTargetVelocity(-1))
	s.solver.AddJoint(joint)
	s.run(30)

	v := s.solver.Bodies.Body(slider).LinearVelocity
	if !near(v.Z(), -1, 0.02) || !near(v.X(), 0, 1e-6) {
		t.Errorf("Expected the slider to move at -1 along Z, got %v", v)
	}
}

func TestPrismaticJoint_MotorAgainstLimit(t *testing.T) {
	s := newScene(t, zeroGravity())
	rail := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	slider := s.add(NewCuboid(0.2, 0.2, 0.2), at(0, 0, 0), Vector{})

	motor := NewMotor(SpringDamper(2, 1)).WithTargetPosition(2).WithMaxForce(5)
	joint := NewPrismaticJoint(rail, slider).WithLimits(-0.5, 0.5).WithMotor(motor)
	s.solver.AddJoint(joint)
	s.run(180)

	// the limit has its own budget and holds against the motor
	if !near(joint.Translation(), 0.5, 0.02) {
		t.Errorf("Expected the slider held at the limit, got %v", joint.Translation())
	}
	h := 1.0 / 60.0 / float64(DefaultConfig().Substeps)
	if impulse := math.Abs(joint.Motor.Impulse()); impulse > 5*h+1e-12 {
		t.Errorf("Motor impulse %v exceeds its cap %v", impulse, 5*h)
	}
	if joint.Motor.Impulse() <= 0 {
		t.Errorf("Expected the motor to keep pushing toward its target, got %v", joint.Motor.Impulse())
	}
}

func TestPrismaticJoint_DisabledMotorWithLimit(t *testing.T) {
	config := DefaultConfig()
	config.Gravity = Vector{3, 0, 0}
	s := newScene(t, config)
	rail := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	slider := s.add(NewCuboid(0.2, 0.2, 0.2), at(0, 0, 0), Vector{})

	motor := NewMotor(AccelerationBased(0, 1000)).WithTargetVelocity(-1)
	motor.Enabled = false
	joint := NewPrismaticJoint(rail, slider).WithLimits(-0.5, 0.5).WithMotor(motor)
	s.solver.AddJoint(joint)
	s.run(120)

	if joint.Motor.Impulse() != 0 {
		t.Errorf("Disabled motor applied %v", joint.Motor.Impulse())
	}
	// only the limit acts on the slider
	if !near(joint.Translation(), 0.5, 0.05) {
		t.Errorf("Expected the slider to rest on the limit, got %v", joint.Translation())
	}
	if v := s.solver.Bodies.Body(slider).LinearVelocity; math.Abs(v.X()) > 0.05 {
		t.Errorf("Expected the limit to stop the slider, got %v", v)
	}
}

func TestSolver_JointSoftness(t *testing.T) {
	config := DefaultConfig()
	config.JointFrequency = 10
	s := newScene(t, config)
	a := s.solver.Bodies.InsertStatic(at(0, 0, 0))
	b := s.add(NewSphere(0.1), at(1, 0, 0), Vector{})

	plain := NewRevoluteJoint(a, b)
	custom := NewRevoluteJoint(a, b).WithCompliance(5, 1)
	s.solver.AddJoint(plain)
	s.solver.AddJoint(custom)

	if plain.Frequency != 10 || plain.DampingRatio != config.JointDampingRatio {
		t.Errorf("Expected the configured softness, got %v/%v", plain.Frequency, plain.DampingRatio)
	}
	if custom.Frequency != 5 || custom.DampingRatio != 1 {
		t.Errorf("Expected the custom softness to be kept, got %v/%v", custom.Frequency, custom.DampingRatio)
	}
	if len(s.solver.Joints()) != 2 {
		t.Errorf("Expected 2 joints, got %d", len(s.solver.Joints()))
	}
}

func TestWrapAngle(t *testing.T) {
	if a := wrapAngle(3 * math.Pi / 2); !near(a, -math.Pi/2, 1e-12) {
		t.Errorf("Expected -pi/2, got %v", a)
	}
	if a := hingeAngle(VectorZ, VectorX, VectorY); !near(a, math.Pi/2, 1e-12) {
		t.Errorf("Expected pi/2, got %v", a)
	}
}
