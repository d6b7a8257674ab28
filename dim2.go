//go:build planar

package cp3d

// Dim is the number of spatial dimensions the solver is built for.
// Planar bodies live in the XY plane and rotate about Z.
const Dim = 2

// TangentCount is the number of friction directions per contact point.
const TangentCount = Dim - 1

type TangentImpulse = [TangentCount]float64

func tangentDirections(normal, _, _ Vector) [TangentCount]Vector {
	return [TangentCount]Vector{{normal.Y(), -normal.X(), 0}}
}
