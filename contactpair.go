package cp3d

// ContactID identifies a pair for its whole lifetime in the narrow phase.
type ContactID uint64

type PairState int

const (
	// Pair is touching for the first time.
	PairFirstContact PairState = iota
	// Pair was already touching last step.
	PairTouching
	// Collision no longer active, but the pair is kept for warm starting.
	PairCached
)

// ContactPair is the persistent contact state between two shapes.
type ContactPair struct {
	ID           ContactID
	Body1, Body2 BodyHandle
	// Shape poses at the last update.
	Pose1, Pose2 Pose

	Manifolds []ContactManifold

	Friction, Restitution float64
	TangentVelocity       Vector

	stamp uint
	state PairState
	// set once the failure of the pair has been reported
	warned bool
}

func (pair *ContactPair) State() PairState {
	return pair.state
}

func (pair *ContactPair) IsFirstContact() bool {
	return pair.state == PairFirstContact
}

func (pair *ContactPair) IsTouching() bool {
	return pair.state != PairCached && len(pair.Manifolds) > 0
}

// Update replaces the manifolds and carries the accumulated impulses of continuing
// points over, matched by feature ids or by anchor proximity.
func (pair *ContactPair) Update(manifolds []ContactManifold, matchDistance float64) {
	for i := range manifolds {
		m := &manifolds[i]
		old := pair.findManifold(m)
		if old == nil {
			continue
		}
		used := make([]bool, len(old.Points))
		for j := range m.Points {
			p := &m.Points[j]
			k := old.matchPoint(p, matchDistance, used)
			if k < 0 {
				p.NormalImpulse = 0
				p.TangentImpulse = TangentImpulse{}
				continue
			}
			used[k] = true
			p.NormalImpulse = old.Points[k].NormalImpulse
			p.TangentImpulse = old.Points[k].TangentImpulse
		}
	}

	pair.Manifolds = append(pair.Manifolds[:0], manifolds...)

	if len(manifolds) == 0 {
		pair.state = PairCached
	} else if pair.state == PairCached {
		pair.state = PairFirstContact
	}
}

func (pair *ContactPair) findManifold(m *ContactManifold) *ContactManifold {
	for i := range pair.Manifolds {
		old := &pair.Manifolds[i]
		if old.Subshape1 == m.Subshape1 && old.Subshape2 == m.Subshape2 {
			return old
		}
	}
	return nil
}

// TotalImpulse returns the impulse applied along the normals by the last step.
func (pair *ContactPair) TotalImpulse() Vector {
	var sum Vector
	for i := range pair.Manifolds {
		m := &pair.Manifolds[i]
		sum = sum.Add(m.Normal.Mul(m.TotalNormalImpulse()))
	}
	return sum
}

// Remap rewrites the body handles after the owning body set was relocated.
func (pair *ContactPair) Remap(remap BodyRemap) {
	pair.Body1 = remap.Get(pair.Body1)
	pair.Body2 = remap.Get(pair.Body2)
}
