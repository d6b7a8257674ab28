package cp3d

import "github.com/go-gl/mathgl/mgl64"

// Pose is a position and orientation pair.
type Pose struct {
	Position Vector
	Rotation mgl64.Quat
}

func NewPose(position Vector, rotation mgl64.Quat) Pose {
	return Pose{position, rotation}
}

func NewPoseTranslate(position Vector) Pose {
	return Pose{position, mgl64.QuatIdent()}
}

func (p Pose) Isometry() Isometry {
	rot := p.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	return Isometry{rot.Normalize(), p.Position}
}

// Isometry is a rigid transform: rotate, then translate.
type Isometry struct {
	rot mgl64.Quat
	t   Vector
}

func NewIsometryIdentity() Isometry {
	return Isometry{mgl64.QuatIdent(), Vector{}}
}

func NewIsometryTranslate(translate Vector) Isometry {
	return Isometry{mgl64.QuatIdent(), translate}
}

func NewIsometry(translate Vector, rot mgl64.Quat) Isometry {
	return Isometry{rot.Normalize(), translate}
}

func (iso Isometry) Translation() Vector {
	return iso.t
}

func (iso Isometry) Rotation() mgl64.Quat {
	return iso.rot
}

func (iso Isometry) Point(p Vector) Vector {
	return iso.rot.Rotate(p).Add(iso.t)
}

func (iso Isometry) Vect(v Vector) Vector {
	return iso.rot.Rotate(v)
}

func (iso Isometry) InversePoint(p Vector) Vector {
	return iso.rot.Conjugate().Rotate(p.Sub(iso.t))
}

func (iso Isometry) InverseVect(v Vector) Vector {
	return iso.rot.Conjugate().Rotate(v)
}

func (iso Isometry) Inverse() Isometry {
	inv := iso.rot.Conjugate()
	return Isometry{inv, inv.Rotate(iso.t).Mul(-1)}
}

// Mul returns iso * other, applying other first.
func (iso Isometry) Mul(other Isometry) Isometry {
	return Isometry{
		iso.rot.Mul(other.rot).Normalize(),
		iso.rot.Rotate(other.t).Add(iso.t),
	}
}

// InvMul returns iso^-1 * other: other expressed in the frame of iso.
func (iso Isometry) InvMul(other Isometry) Isometry {
	return iso.Inverse().Mul(other)
}

// RotateInertia expresses a body-frame inverse inertia tensor in world space.
func RotateInertia(rot mgl64.Quat, inertia mgl64.Mat3) mgl64.Mat3 {
	r := rot.Mat4().Mat3()
	return r.Mul3(inertia).Mul3(r.Transpose())
}
