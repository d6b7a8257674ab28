package cp3d

import "fmt"

type ShapeType int

// Shape types. The set is closed: every query switches over it.
const (
	SHAPE_SPHERE ShapeType = iota
	SHAPE_CAPSULE
	SHAPE_CUBOID
	SHAPE_CONVEX_HULL
	SHAPE_COMPOUND
	SHAPE_CUSTOM
	SHAPE_TYPE_NUM
)

func (t ShapeType) String() string {
	switch t {
	case SHAPE_SPHERE:
		return "sphere"
	case SHAPE_CAPSULE:
		return "capsule"
	case SHAPE_CUBOID:
		return "cuboid"
	case SHAPE_CONVEX_HULL:
		return "convex hull"
	case SHAPE_COMPOUND:
		return "compound"
	case SHAPE_CUSTOM:
		return "custom"
	}
	return fmt.Sprintf("ShapeType(%d)", int(t))
}

// SupportFunc returns the point of a convex shape furthest along a local direction.
type SupportFunc func(direction Vector) Vector

type CompoundChild struct {
	Pose  Pose
	Shape *Shape
}

// Shape is an immutable collision geometry.
type Shape struct {
	typ ShapeType

	// sphere and capsule radius
	r float64
	// capsule segment half length along local Y
	halfHeight float64
	// cuboid half extents
	halfExtents Vector

	// cuboid corners or hull points
	verts []Vector

	children []CompoundChild
	support  SupportFunc
}

func NewSphere(radius float64) *Shape {
	assert(radius >= 0, "Radius must be positive")
	return &Shape{typ: SHAPE_SPHERE, r: radius}
}

// NewCapsule creates a capsule along local Y. length is the distance between the two
// hemisphere centers.
func NewCapsule(radius, length float64) *Shape {
	assert(radius >= 0 && length >= 0, "Capsule dimensions must be positive")
	return &Shape{typ: SHAPE_CAPSULE, r: radius, halfHeight: length / 2}
}

// NewCuboid creates a box from its full side lengths.
func NewCuboid(x, y, z float64) *Shape {
	half := Vector{x / 2, y / 2, z / 2}
	verts := make([]Vector, 8)
	for i := range verts {
		verts[i] = cuboidVertex(half, i)
	}
	return &Shape{typ: SHAPE_CUBOID, halfExtents: half, verts: verts}
}

// NewConvexHull creates a convex shape from a point cloud. Interior points are allowed
// and never become support points. The body pose is the center of mass, so the points
// should be centered on it (see MassProperties).
func NewConvexHull(points []Vector) *Shape {
	assert(len(points) > 0, "Hull needs at least one point")
	verts := make([]Vector, len(points))
	copy(verts, points)
	return &Shape{typ: SHAPE_CONVEX_HULL, verts: verts}
}

func NewCompound(children []CompoundChild) *Shape {
	kids := make([]CompoundChild, len(children))
	copy(kids, children)
	return &Shape{typ: SHAPE_COMPOUND, children: kids}
}

// NewCustom creates a user defined shape. A nil support function makes the shape
// opaque: no query can handle it.
func NewCustom(support SupportFunc) *Shape {
	return &Shape{typ: SHAPE_CUSTOM, support: support}
}

func (s *Shape) Type() ShapeType {
	return s.typ
}

func (s *Shape) Radius() float64 {
	return s.r
}

func (s *Shape) HalfHeight() float64 {
	return s.halfHeight
}

func (s *Shape) HalfExtents() Vector {
	return s.halfExtents
}

func (s *Shape) Points() []Vector {
	return s.verts
}

func (s *Shape) Children() []CompoundChild {
	return s.children
}

// IsSupportMap reports whether the shape is convex and exposes a support function.
func (s *Shape) IsSupportMap() bool {
	switch s.typ {
	case SHAPE_SPHERE, SHAPE_CAPSULE, SHAPE_CUBOID, SHAPE_CONVEX_HULL:
		return true
	case SHAPE_CUSTOM:
		return s.support != nil
	}
	return false
}

// SupportsExactDispatch reports whether the exact query dispatcher handles the pair.
func (s *Shape) SupportsExactDispatch(other *Shape) bool {
	return s.dispatchable() && other.dispatchable()
}

func (s *Shape) dispatchable() bool {
	switch s.typ {
	case SHAPE_CUSTOM:
		return false
	case SHAPE_COMPOUND:
		for _, child := range s.children {
			if !child.Shape.dispatchable() {
				return false
			}
		}
	}
	return true
}

func cuboidVertex(half Vector, i int) Vector {
	v := half
	if i&1 != 0 {
		v[0] = -v[0]
	}
	if i&2 != 0 {
		v[1] = -v[1]
	}
	if i&4 != 0 {
		v[2] = -v[2]
	}
	return v
}
