package cp3d

import (
	"bytes"
	"log"
	"reflect"
	"strings"
	"testing"
)

func spherePair(b1, b2 BodyHandle, x float64) CollisionPair {
	return CollisionPair{
		Body1: b1, Body2: b2,
		Shape1: NewSphere(0.5), Shape2: NewSphere(0.5),
		Pose1: at(0, 0, 0), Pose2: at(x, 0, 0),
		Friction: 0.5,
	}
}

func TestNarrowPhase_PairLifetime(t *testing.T) {
	np := NewNarrowPhase(DefaultConfig())
	b1, b2 := BodyHandle{Index: 0}, BodyHandle{Index: 1}

	pairs := np.Update([]CollisionPair{spherePair(b1, b2, 0.9)})
	if len(pairs) != 1 {
		t.Fatalf("Expected one touching pair, got %d", len(pairs))
	}
	pair := pairs[0]
	if pair.State() != PairFirstContact || pair.Friction != 0.5 {
		t.Errorf("Expected first contact, got %v", pair.State())
	}

	pairs = np.Update([]CollisionPair{spherePair(b1, b2, 0.9)})
	if len(pairs) != 1 || pairs[0] != pair || pair.State() != PairTouching {
		t.Fatalf("Expected the same pair to keep touching")
	}

	// still a candidate but apart: cached for warm starting
	pairs = np.Update([]CollisionPair{spherePair(b1, b2, 3)})
	if len(pairs) != 0 || pair.State() != PairCached || np.Len() != 1 {
		t.Errorf("Expected a cached pair, got %d pairs in state %v", len(pairs), pair.State())
	}

	pairs = np.Update([]CollisionPair{spherePair(b1, b2, 0.9)})
	if len(pairs) != 1 || pairs[0].ID != pair.ID || pair.State() != PairFirstContact {
		t.Errorf("Expected the pair to touch again with its old id")
	}

	// dropped by the broad phase
	for i := uint(1); i < np.CollisionPersistence; i++ {
		np.Update(nil)
		if np.Pair(b1, b2, 0, 0) == nil {
			t.Fatalf("Pair expired after %d steps", i)
		}
		if pair.State() != PairCached {
			t.Errorf("Expected unseen pair to be cached, got %v", pair.State())
		}
	}
	np.Update(nil)
	if np.Len() != 0 {
		t.Errorf("Expected the pair to expire, %d left", np.Len())
	}
}

func TestNarrowPhase_WarmStartCarried(t *testing.T) {
	np := NewNarrowPhase(DefaultConfig())
	b1, b2 := BodyHandle{Index: 0}, BodyHandle{Index: 1}

	pair := np.Update([]CollisionPair{spherePair(b1, b2, 0.9)})[0]
	pair.Manifolds[0].Points[0].NormalImpulse = 5
	pair.Manifolds[0].Points[0].TangentImpulse[0] = 1

	np.Update([]CollisionPair{spherePair(b1, b2, 0.91)})
	p := pair.Manifolds[0].Points[0]
	if p.NormalImpulse != 5 || p.TangentImpulse[0] != 1 {
		t.Errorf("Expected impulses to carry over, got %v %v", p.NormalImpulse, p.TangentImpulse)
	}
}

func TestNarrowPhase_UnsupportedLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(log.New(&buf, "", 0))
	defer SetLogger(nil)

	np := NewNarrowPhase(DefaultConfig())
	candidate := CollisionPair{
		Body1: BodyHandle{Index: 0}, Body2: BodyHandle{Index: 1},
		Shape1: NewCustom(nil), Shape2: NewSphere(1),
		Pose1: at(0, 0, 0), Pose2: at(0, 0, 0),
	}
	for i := 0; i < 5; i++ {
		if pairs := np.Update([]CollisionPair{candidate}); len(pairs) != 0 {
			t.Fatalf("Unsupported pair must be skipped")
		}
	}
	if n := strings.Count(buf.String(), "skipping"); n != 1 {
		t.Errorf("Expected one warning, got %d:\n%s", n, buf.String())
	}
}

func TestNarrowPhase_Colliders(t *testing.T) {
	np := NewNarrowPhase(DefaultConfig())
	b1, b2 := BodyHandle{Index: 0}, BodyHandle{Index: 1}

	first := spherePair(b1, b2, 0.9)
	second := spherePair(b1, b2, 0.8)
	second.Collider2 = 1

	pairs := np.Update([]CollisionPair{second, first})
	if len(pairs) != 2 || pairs[0].ID >= pairs[1].ID {
		t.Fatalf("Expected two pairs ordered by id")
	}
	if np.Pair(b1, b2, 0, 1) == np.Pair(b1, b2, 0, 0) {
		t.Error("Colliders of one body pair must be tracked separately")
	}
}

func TestNarrowPhase_WorkersDeterministic(t *testing.T) {
	var candidates []CollisionPair
	for i := 0; i < 64; i++ {
		b1, b2 := BodyHandle{Index: uint32(2 * i)}, BodyHandle{Index: uint32(2*i + 1)}
		c := spherePair(b1, b2, 0.5+float64(i)*0.01)
		if i%3 == 0 {
			c.Shape2 = NewCuboid(1, 1, 1)
		}
		if i%5 == 0 {
			c.Shape1 = unitCubeHull()
		}
		candidates = append(candidates, c)
	}

	run := func(workers int) [][]ContactManifold {
		config := DefaultConfig()
		config.Workers = workers
		np := NewNarrowPhase(config)
		var out [][]ContactManifold
		for _, pair := range np.Update(candidates) {
			out = append(out, pair.Manifolds)
		}
		return out
	}

	serial, parallel := run(1), run(8)
	if len(serial) == 0 {
		t.Fatal("Expected contacts")
	}
	if !reflect.DeepEqual(serial, parallel) {
		t.Error("Results depend on the worker count")
	}
}

func TestContactPair_Update(t *testing.T) {
	pair := &ContactPair{}
	first := []ContactManifold{
		NewContactManifold([]ContactPoint{NewContactPoint(Vector{}, Vector{}, 0.1)}, VectorY),
	}
	pair.Update(first, 0.05)
	if !pair.IsFirstContact() {
		t.Errorf("Expected first contact, got %v", pair.State())
	}
	pair.Manifolds[0].Points[0].NormalImpulse = 3

	// same point on another subshape is a new manifold
	moved := []ContactManifold{
		NewContactManifold([]ContactPoint{NewContactPoint(Vector{}, Vector{}, 0.1)}, VectorY),
	}
	moved[0].Subshape2 = 1
	pair.Update(moved, 0.05)
	if pair.Manifolds[0].Points[0].NormalImpulse != 0 {
		t.Error("Impulse must not carry across subshapes")
	}

	pair.Update(nil, 0.05)
	if pair.IsTouching() || pair.State() != PairCached {
		t.Errorf("Expected cached pair, got %v", pair.State())
	}
}
