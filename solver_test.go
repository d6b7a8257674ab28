package cp3d

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

type sceneBody struct {
	handle BodyHandle
	shape  *Shape
	static bool
}

// scene feeds every pair of bodies to the narrow phase.
type scene struct {
	solver                *Solver
	bodies                []sceneBody
	friction, restitution float64
}

func newScene(t *testing.T, config Config) *scene {
	t.Helper()
	solver, err := NewSolver(config)
	if err != nil {
		t.Fatal(err)
	}
	return &scene{solver: solver, friction: 0.5}
}

func (s *scene) addGround() BodyHandle {
	h := s.solver.Bodies.InsertStatic(at(0, -0.5, 0))
	s.bodies = append(s.bodies, sceneBody{h, NewCuboid(20, 1, 20), true})
	return h
}

func (s *scene) add(shape *Shape, pose Pose, velocity Vector) BodyHandle {
	props := shape.MassProperties(1)
	h := s.solver.Bodies.Insert(pose, velocity, Vector{}, props.InverseMass(), props.InverseInertia())
	s.bodies = append(s.bodies, sceneBody{h, shape, false})
	return h
}

func (s *scene) candidates() []CollisionPair {
	var pairs []CollisionPair
	for i, a := range s.bodies {
		for _, b := range s.bodies[i+1:] {
			if a.static && b.static {
				continue
			}
			pairs = append(pairs, CollisionPair{
				Body1: a.handle, Body2: b.handle,
				Shape1: a.shape, Shape2: b.shape,
				Pose1:    s.solver.Bodies.Pose(a.handle),
				Pose2:    s.solver.Bodies.Pose(b.handle),
				Friction: s.friction, Restitution: s.restitution,
			})
		}
	}
	return pairs
}

func (s *scene) run(steps int) {
	for i := 0; i < steps; i++ {
		s.solver.Step(1.0/60.0, s.candidates())
	}
}

func TestNewSolver_InvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.Substeps = 0
	if _, err := NewSolver(config); err == nil {
		t.Error("Expected an error for zero substeps")
	}
}

func TestSolver_BoxRests(t *testing.T) {
	s := newScene(t, DefaultConfig())
	s.addGround()
	box := s.add(NewCuboid(1, 1, 1), at(0, 0.5, 0), Vector{})

	s.run(120)

	pose := s.solver.Bodies.Pose(box)
	if !near(pose.Position.Y(), 0.5, 0.02) {
		t.Errorf("Expected the box to rest at 0.5, got %v", pose.Position)
	}
	if v := s.solver.Bodies.Body(box).LinearVelocity; v.Len() > 0.05 {
		t.Errorf("Expected the box to be at rest, got %v", v)
	}
	if len(s.solver.Pairs()) != 1 || len(s.solver.Contacts()) != 1 {
		t.Fatalf("Expected one pair and one manifold, got %d and %d", len(s.solver.Pairs()), len(s.solver.Contacts()))
	}
	if n := len(s.solver.Contacts()[0].Points); n != 4 {
		t.Errorf("Expected 4 contact points, got %d", n)
	}
	if depth := s.solver.Pairs()[0].Manifolds[0].MaxPenetration(); depth > 0.02 {
		t.Errorf("Expected a shallow resting overlap, got %v", depth)
	}
	// the ground carries the weight
	props := NewCuboid(1, 1, 1).MassProperties(1)
	weight := props.Mass * 9.81 / 60.0
	if impulse := s.solver.Pairs()[0].TotalImpulse().Y(); !near(impulse, weight/float64(DefaultConfig().Substeps), 0.2*weight) {
		t.Errorf("Expected a normal impulse near %v per substep, got %v", weight/4, impulse)
	}
}

func TestSolver_BallLands(t *testing.T) {
	s := newScene(t, DefaultConfig())
	s.addGround()
	ball := s.add(NewSphere(0.5), at(0, 2, 0), Vector{})

	s.run(180)

	pose := s.solver.Bodies.Pose(ball)
	if pose.Position.Y() < 0.48 || pose.Position.Y() > 0.52 {
		t.Errorf("Expected the ball to land on the ground, got %v", pose.Position)
	}
}

func TestSolver_Bounce(t *testing.T) {
	s := newScene(t, DefaultConfig())
	s.restitution = 0.8
	s.addGround()
	ball := s.add(NewSphere(0.5), at(0, 0.6, 0), Vector{0, -5, 0})

	var highest float64
	for i := 0; i < 10; i++ {
		s.run(1)
		highest = math.Max(highest, s.solver.Bodies.Body(ball).LinearVelocity.Y())
	}
	if highest < 2 {
		t.Errorf("Expected the ball to bounce, highest upward speed %v", highest)
	}
}

func TestSolver_StaticUnmoved(t *testing.T) {
	s := newScene(t, DefaultConfig())
	ground := s.addGround()
	s.add(NewCuboid(1, 1, 1), at(0, 0.45, 0), Vector{0, -2, 0})

	s.run(30)

	if pose := s.solver.Bodies.Pose(ground); pose.Position != (Vector{0, -0.5, 0}) {
		t.Errorf("Static body moved to %v", pose.Position)
	}
	if v := s.solver.Bodies.Body(ground).LinearVelocity; v != (Vector{}) {
		t.Errorf("Static body gained velocity %v", v)
	}
}

func TestSolver_Kinematic(t *testing.T) {
	s := newScene(t, DefaultConfig())
	platform := s.solver.Bodies.InsertKinematic(at(0, 0, 0), Vector{1, 0, 0}, Vector{})
	s.bodies = append(s.bodies, sceneBody{platform, NewCuboid(4, 1, 4), false})

	s.run(60)

	pose := s.solver.Bodies.Pose(platform)
	if !near(pose.Position.X(), 1, 1e-9) || pose.Position.Y() != 0 {
		t.Errorf("Expected the kinematic body to follow its velocity, got %v", pose.Position)
	}
}

func pile(t *testing.T, workers int) []Pose {
	config := DefaultConfig()
	config.Workers = workers
	s := newScene(t, config)
	s.addGround()

	rng := rand.New(rand.NewSource(7))
	var handles []BodyHandle
	for i := 0; i < 24; i++ {
		var shape *Shape
		switch i % 3 {
		case 0:
			shape = NewSphere(0.3)
		case 1:
			shape = NewCuboid(0.6, 0.4, 0.5)
		default:
			shape = NewCapsule(0.2, 0.5)
		}
		pose := NewPose(
			Vector{rng.Float64()*2 - 1, 0.5 + float64(i)*0.35, rng.Float64()*2 - 1},
			mgl64.QuatRotate(rng.Float64()*math.Pi, Vector{1, 1, 0}.Normalize()),
		)
		handles = append(handles, s.add(shape, pose, Vector{}))
	}

	s.run(90)

	poses := make([]Pose, len(handles))
	for i, h := range handles {
		poses[i] = s.solver.Bodies.Pose(h)
	}
	return poses
}

func TestSolver_WorkersDeterministic(t *testing.T) {
	serial, parallel := pile(t, 1), pile(t, 4)
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Fatalf("Body %d differs: %v and %v", i, serial[i], parallel[i])
		}
	}
	for i, pose := range serial {
		if !isFinite(pose.Position) || pose.Position.Y() < -0.1 {
			t.Errorf("Body %d fell through the ground: %v", i, pose.Position)
		}
	}
}

func TestSolver_RemovedBodySkipped(t *testing.T) {
	s := newScene(t, DefaultConfig())
	s.addGround()
	box := s.add(NewCuboid(1, 1, 1), at(0, 0.5, 0), Vector{})
	s.run(1)

	candidates := s.candidates()
	s.solver.Bodies.Remove(box)
	s.solver.Step(1.0/60.0, candidates)
	if n := len(s.solver.Contacts()); n != 0 {
		t.Errorf("Expected no contacts for a removed body, got %d", n)
	}
}

func TestSolver_JointOnRemovedBodySkipped(t *testing.T) {
	s := newScene(t, DefaultConfig())
	props := NewSphere(0.5).MassProperties(1)
	insert := func(x float64, velocity Vector) BodyHandle {
		return s.solver.Bodies.Insert(at(x, 5, 0), velocity, Vector{}, props.InverseMass(), props.InverseInertia())
	}
	a, b := insert(0, Vector{}), insert(1, Vector{})
	s.solver.AddJoint(NewRevoluteJoint(a, b).WithLocalAnchor2(Vector{-1, 0, 0}))

	// the new body takes over the freed slot with a new generation
	s.solver.Bodies.Remove(b)
	c := insert(10, Vector{5, 0, 0})
	if c.Index != b.Index {
		t.Fatalf("Expected slot %d to be reused, got %v", b.Index, c)
	}

	s.solver.Step(1.0/60.0, nil)

	if v := s.solver.Bodies.Body(a).LinearVelocity; !nearVector(v, Vector{0, -9.81 / 60, 0}, 1e-9) {
		t.Errorf("Expected the orphaned body to fall freely, got %v", v)
	}
	if v := s.solver.Bodies.Body(c).LinearVelocity; !nearVector(v, Vector{5, -9.81 / 60, 0}, 1e-9) {
		t.Errorf("Expected the new body to be untouched by the joint, got %v", v)
	}
}

func TestSolver_Remap(t *testing.T) {
	s := newScene(t, DefaultConfig())
	s.addGround()
	s.add(NewCuboid(1, 1, 1), at(0, 0.5, 0), Vector{})
	s.run(2)

	merged := NewBodySet()
	merged.InsertStatic(at(5, 5, 5))
	remap := merged.Merge(s.solver.Bodies)
	s.solver.Bodies = merged
	s.solver.Remap(remap)

	for i := range s.bodies {
		s.bodies[i].handle = remap.Get(s.bodies[i].handle)
	}
	s.run(2)
	if len(s.solver.Contacts()) != 1 {
		t.Fatalf("Expected the contact to survive the merge, got %d", len(s.solver.Contacts()))
	}
	if s.solver.Pairs()[0].State() != PairTouching {
		t.Errorf("Expected the remapped pair to keep touching, got %v", s.solver.Pairs()[0].State())
	}
}
