package cp3d

import (
	"math"
	"sort"
)

// margin is the radius swept around the core of rounded shapes.
func (s *Shape) margin() float64 {
	switch s.typ {
	case SHAPE_SPHERE, SHAPE_CAPSULE:
		return s.r
	}
	return 0
}

// coreSupport returns the furthest point of the shape core along a local direction and
// the index of the vertex it came from, or -1 when the shape has no vertex list.
func (s *Shape) coreSupport(dir Vector) (Vector, int) {
	switch s.typ {
	case SHAPE_SPHERE:
		return Vector{}, 0
	case SHAPE_CAPSULE:
		if dir.Y() >= 0 {
			return Vector{0, s.halfHeight, 0}, 0
		}
		return Vector{0, -s.halfHeight, 0}, 1
	case SHAPE_CUBOID:
		i := 0
		if dir.X() < 0 {
			i |= 1
		}
		if dir.Y() < 0 {
			i |= 2
		}
		if dir.Z() < 0 {
			i |= 4
		}
		return s.verts[i], i
	case SHAPE_CONVEX_HULL:
		best, bestDot := 0, math.Inf(-1)
		for i, v := range s.verts {
			if d := v.Dot(dir); d > bestDot {
				best, bestDot = i, d
			}
		}
		return s.verts[best], best
	case SHAPE_CUSTOM:
		if s.support != nil {
			return s.support(dir), -1
		}
	}
	panic("unreachable: shape has no support map")
}

// LocalSupport returns the furthest point of a support-mapped shape along a local direction.
func (s *Shape) LocalSupport(dir Vector) Vector {
	p, _ := s.coreSupport(dir)
	if m := s.margin(); m > 0 {
		if n, ok := TryNormalize(dir); ok {
			p = p.Add(n.Mul(m))
		}
	}
	return p
}

// convexProxy places a support-mapped shape in world space.
type convexProxy struct {
	shape *Shape
	iso   Isometry
}

func (p convexProxy) support(dir Vector) (Vector, int) {
	local, i := p.shape.coreSupport(p.iso.InverseVect(dir))
	return p.iso.Point(local), i
}

func (p convexProxy) margin() float64 {
	return p.shape.margin()
}

// feature is the set of world points a shape exposes toward a direction, ordered
// counter-clockwise around that direction when it forms a polygon.
type feature struct {
	points []Vector
	ids    []FeatureID
}

// Vertices whose edge to the support vertex deviates less than this from the
// supporting plane belong to the same feature.
const featureSinTolerance = 0.02

// contactFeature collects the supporting feature of a shape in world space for an
// outward world direction. Rounded shapes report their surface points.
func contactFeature(s *Shape, iso Isometry, dir Vector) feature {
	local := iso.InverseVect(dir)
	switch s.typ {
	case SHAPE_SPHERE:
		return feature{
			points: []Vector{iso.Point(Vector{}).Add(dir.Mul(s.r))},
			ids:    []FeatureID{FaceID(0)},
		}
	case SHAPE_CAPSULE:
		offset := dir.Mul(s.r)
		top := iso.Point(Vector{0, s.halfHeight, 0}).Add(offset)
		bottom := iso.Point(Vector{0, -s.halfHeight, 0}).Add(offset)
		if math.Abs(local.Y()) <= featureSinTolerance && s.halfHeight > 0 {
			return feature{points: []Vector{top, bottom}, ids: []FeatureID{VertexID(0), VertexID(1)}}
		}
		if local.Y() >= 0 {
			return feature{points: []Vector{top}, ids: []FeatureID{VertexID(0)}}
		}
		return feature{points: []Vector{bottom}, ids: []FeatureID{VertexID(1)}}
	case SHAPE_CUBOID, SHAPE_CONVEX_HULL:
		return polyhedralFeature(s.verts, iso, local)
	}
	return feature{}
}

func polyhedralFeature(verts []Vector, iso Isometry, dir Vector) feature {
	best, bestDot := 0, math.Inf(-1)
	for i, v := range verts {
		if d := v.Dot(dir); d > bestDot {
			best, bestDot = i, d
		}
	}

	indices := []int{best}
	for i, v := range verts {
		if i == best {
			continue
		}
		delta := v.Sub(verts[best])
		l := delta.Len()
		if l <= MAGIC_EPSILON {
			continue
		}
		if delta.Dot(dir)/l >= -featureSinTolerance {
			indices = append(indices, i)
		}
	}

	if len(indices) > 2 {
		// order around the direction so the polygon can be clipped
		var center Vector
		for _, i := range indices {
			center = center.Add(verts[i])
		}
		center = center.Mul(1.0 / float64(len(indices)))
		u, w := OrthonormalBasis(dir)
		angle := func(i int) float64 {
			d := verts[i].Sub(center)
			return math.Atan2(d.Dot(w), d.Dot(u))
		}
		sort.SliceStable(indices, func(a, b int) bool {
			return angle(indices[a]) < angle(indices[b])
		})
	} else if len(indices) == 2 && indices[1] < indices[0] {
		indices[0], indices[1] = indices[1], indices[0]
	}

	f := feature{
		points: make([]Vector, len(indices)),
		ids:    make([]FeatureID, len(indices)),
	}
	for k, i := range indices {
		f.points[k] = iso.Point(verts[i])
		f.ids[k] = VertexID(uint32(i))
	}
	return f
}
