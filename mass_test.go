package cp3d

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestShape_MassProperties(t *testing.T) {
	sphere := NewSphere(2).MassProperties(3)
	if want := 3 * 4.0 / 3.0 * math.Pi * 8; !near(sphere.Mass, want, 1e-9) {
		t.Errorf("Expected sphere mass %v, got %v", want, sphere.Mass)
	}
	if want := 0.4 * sphere.Mass * 4; !near(sphere.Inertia.At(2, 2), want, 1e-9) {
		t.Errorf("Expected sphere inertia %v, got %v", want, sphere.Inertia.At(2, 2))
	}

	box := NewCuboid(1, 2, 3).MassProperties(2)
	if box.Mass != 12 {
		t.Errorf("Expected box mass 12, got %v", box.Mass)
	}
	if want := 12 * (4.0 + 9.0) / 12; !near(box.Inertia.At(0, 0), want, 1e-12) {
		t.Errorf("Expected box inertia %v, got %v", want, box.Inertia.At(0, 0))
	}

	capsule := NewCapsule(0.5, 2).MassProperties(1)
	if want := math.Pi*0.25*2 + 4.0/3.0*math.Pi*0.125; !near(capsule.Mass, want, 1e-12) {
		t.Errorf("Expected capsule mass %v, got %v", want, capsule.Mass)
	}
	if capsule.Inertia.At(1, 1) >= capsule.Inertia.At(0, 0) {
		t.Error("A capsule spins more easily about its axis")
	}

	if m := NewCustom(nil).MassProperties(1); m.Mass != 0 || m.InverseMass() != 0 {
		t.Errorf("Expected a massless custom shape, got %+v", m)
	}
}

func TestShape_CompoundMassProperties(t *testing.T) {
	ball := NewSphere(0.5)
	dumbbell := NewCompound([]CompoundChild{
		{Pose: at(-1, 0, 0), Shape: ball},
		{Pose: at(1, 0, 0), Shape: ball},
	})

	single := ball.MassProperties(1)
	props := dumbbell.MassProperties(1)
	if !near(props.Mass, 2*single.Mass, 1e-12) || !nearVector(props.CenterOfMass, Vector{}, 1e-12) {
		t.Errorf("Unexpected mass %v at %v", props.Mass, props.CenterOfMass)
	}

	own := single.Inertia.At(0, 0)
	if !near(props.Inertia.At(0, 0), 2*own, 1e-12) {
		t.Errorf("Expected %v about the bar, got %v", 2*own, props.Inertia.At(0, 0))
	}
	// parallel axis theorem
	if want := 2 * (own + single.Mass); !near(props.Inertia.At(1, 1), want, 1e-12) {
		t.Errorf("Expected %v across the bar, got %v", want, props.Inertia.At(1, 1))
	}

	inv := props.InverseInertia()
	if !near(inv.At(1, 1)*props.Inertia.At(1, 1), 1, 1e-12) {
		t.Errorf("Expected the inverse of a diagonal tensor, got %v", inv)
	}
}

func TestMassProperties_SmallBodiesRotate(t *testing.T) {
	shapes := map[string]*Shape{
		"cube":    NewCuboid(0.2, 0.2, 0.2),
		"sphere":  NewSphere(0.1),
		"capsule": NewCapsule(0.1, 0.2),
		"pebble":  NewSphere(0.01),
	}
	for name, shape := range shapes {
		props := shape.MassProperties(1)
		inv := props.InverseInertia()
		for i := 0; i < 3; i++ {
			if !near(inv.At(i, i)*props.Inertia.At(i, i), 1, 1e-9) {
				t.Errorf("%s: expected the inverse of %v, got %v", name, props.Inertia, inv)
				break
			}
		}
	}

	if inv := (MassProperties{Mass: 1, Inertia: diagonal(1, 1, 0)}).InverseInertia(); inv != (mgl64.Mat3{}) {
		t.Errorf("Expected a singular tensor to be infinite, got %v", inv)
	}
	if inv := (MassProperties{}).InverseInertia(); inv != (mgl64.Mat3{}) {
		t.Errorf("Expected a zero tensor to be infinite, got %v", inv)
	}
}

func TestShape_HullCenterOfMass(t *testing.T) {
	points := []Vector{{1, 0, 0}, {3, 0, 0}, {1, 2, 0}, {3, 2, 0}, {1, 0, 2}, {3, 0, 2}, {1, 2, 2}, {3, 2, 2}}
	props := NewConvexHull(points).MassProperties(1)
	if !nearVector(props.CenterOfMass, Vector{2, 1, 1}, 1e-12) {
		t.Fatalf("Expected the center at (2, 1, 1), got %v", props.CenterOfMass)
	}

	centered := make([]Vector, len(points))
	for i, p := range points {
		centered[i] = p.Sub(props.CenterOfMass)
	}
	shifted := NewConvexHull(centered).MassProperties(1)
	if !nearVector(shifted.CenterOfMass, Vector{}, 1e-12) || shifted.Mass != props.Mass {
		t.Errorf("Expected a centered hull of the same mass, got %v at %v", shifted.Mass, shifted.CenterOfMass)
	}
	cube := NewCuboid(2, 2, 2).MassProperties(1)
	if !near(shifted.Inertia.At(0, 0), cube.Inertia.At(0, 0), 1e-12) {
		t.Errorf("Expected the inertia of a 2x2x2 box, got %v", shifted.Inertia)
	}
}
