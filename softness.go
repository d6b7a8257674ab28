package cp3d

import "math"

// SoftnessCoefficients turn a rigid constraint into a damped spring. Bias scales the
// position error into a velocity bias, MassScale scales the effective mass and
// ImpulseScale bleeds off accumulated impulse.
type SoftnessCoefficients struct {
	Bias         float64
	MassScale    float64
	ImpulseScale float64
}

// RigidSoftness applies no bias and the full effective mass.
var RigidSoftness = SoftnessCoefficients{Bias: 0, MassScale: 1, ImpulseScale: 0}

// NewSoftnessCoefficients computes the coefficients of a spring with the given frequency
// in hertz and damping ratio for substep h. A zero frequency is rigid.
func NewSoftnessCoefficients(frequency, dampingRatio, h float64) SoftnessCoefficients {
	if frequency == 0 {
		return RigidSoftness
	}
	omega := 2 * math.Pi * frequency
	a1 := 2*dampingRatio + h*omega
	a2 := h * omega * a1
	a3 := 1 / (1 + a2)
	return SoftnessCoefficients{
		Bias:         omega / a1,
		MassScale:    a2 * a3,
		ImpulseScale: a3,
	}
}

// NewStiffnessSoftness computes the coefficients of a mass independent spring with
// stiffness and damping in acceleration units.
func NewStiffnessSoftness(stiffness, damping, h float64) SoftnessCoefficients {
	d := h * (damping + h*stiffness)
	var bias float64
	if k := damping + h*stiffness; k > 0 {
		bias = stiffness / k
	}
	return SoftnessCoefficients{
		Bias:         bias,
		MassScale:    d / (1 + d),
		ImpulseScale: 1 / (1 + d),
	}
}
