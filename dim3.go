//go:build !planar

package cp3d

// Dim is the number of spatial dimensions the solver is built for.
// Build with the planar tag for the two dimensional variant.
const Dim = 3

// TangentCount is the number of friction directions per contact point.
const TangentCount = Dim - 1

type TangentImpulse = [TangentCount]float64

// tangentDirections picks the friction basis for a contact. The first direction
// follows the relative sliding velocity when there is one, the second is its cross
// product with the force direction.
func tangentDirections(normal, velocity1, velocity2 Vector) [TangentCount]Vector {
	forceDirection := normal.Mul(-1)
	relativeVelocity := velocity1.Sub(velocity2)
	tangentVelocity := relativeVelocity.Sub(forceDirection.Mul(forceDirection.Dot(relativeVelocity)))

	tangent, ok := TryNormalize(tangentVelocity)
	if !ok {
		tangent = AnyOrthonormal(forceDirection)
	}
	bitangent := forceDirection.Cross(tangent)
	return [TangentCount]Vector{tangent, bitangent}
}
