package cp3d

import "math"

// AABB is an axis aligned bounding box.
type AABB struct {
	Min, Max Vector
}

func NewAABBForSphere(p Vector, r float64) AABB {
	return AABB{p.Sub(Vector{r, r, r}), p.Add(Vector{r, r, r})}
}

func (a AABB) Intersects(b AABB) bool {
	for i := 0; i < 3; i++ {
		if a.Min[i] > b.Max[i] || b.Min[i] > a.Max[i] {
			return false
		}
	}
	return true
}

func (a AABB) Merge(b AABB) AABB {
	var m AABB
	for i := 0; i < 3; i++ {
		m.Min[i] = math.Min(a.Min[i], b.Min[i])
		m.Max[i] = math.Max(a.Max[i], b.Max[i])
	}
	return m
}

// Loosen grows the box by margin on every side.
func (bb AABB) Loosen(margin float64) AABB {
	m := Vector{margin, margin, margin}
	return AABB{bb.Min.Sub(m), bb.Max.Add(m)}
}

var infiniteAABB = AABB{
	Min: Vector{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	Max: Vector{math.Inf(1), math.Inf(1), math.Inf(1)},
}

// AABB returns the world bounds of the shape at pose. Opaque custom shapes are unbounded.
func (s *Shape) AABB(pose Pose) AABB {
	return s.aabb(pose.Isometry())
}

func (s *Shape) aabb(iso Isometry) AABB {
	switch s.typ {
	case SHAPE_SPHERE:
		return NewAABBForSphere(iso.Translation(), s.r)
	case SHAPE_COMPOUND:
		if len(s.children) == 0 {
			return AABB{iso.Translation(), iso.Translation()}
		}
		bb := s.children[0].Shape.aabb(iso.Mul(s.children[0].Pose.Isometry()))
		for _, child := range s.children[1:] {
			bb = bb.Merge(child.Shape.aabb(iso.Mul(child.Pose.Isometry())))
		}
		return bb
	}
	if !s.IsSupportMap() {
		return infiniteAABB
	}

	var bb AABB
	for i, axis := range [3]Vector{VectorX, VectorY, VectorZ} {
		local := iso.InverseVect(axis)
		bb.Max[i] = iso.Point(s.LocalSupport(local))[i]
		bb.Min[i] = iso.Point(s.LocalSupport(local.Mul(-1)))[i]
	}
	return bb
}
