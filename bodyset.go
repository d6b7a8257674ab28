package cp3d

import "github.com/go-gl/mathgl/mgl64"

// BodyHandle names a body in a BodySet. Handles of removed bodies never match a later
// body because the generation changes.
type BodyHandle struct {
	Index      uint32
	Generation uint32
}

// BodyRemap maps handles of one collection to another, after a merge or a relocation.
type BodyRemap map[BodyHandle]BodyHandle

// Get returns the new handle, or h itself when h is unmapped.
func (remap BodyRemap) Get(h BodyHandle) BodyHandle {
	if n, ok := remap[h]; ok {
		return n
	}
	return h
}

type bodyEntry struct {
	generation uint32
	alive      bool

	pose Pose
	body SolverBody
	// body frame inverse inertia, rotated into inertia at every commit
	localInvInertia mgl64.Mat3
	inertia         SolverBodyInertia
}

// BodySet owns the solver state of every body.
type BodySet struct {
	entries []bodyEntry
	free    []uint32
	count   int
}

func NewBodySet() *BodySet {
	return &BodySet{}
}

// Insert adds a dynamic body. pose is the pose of the center of mass.
func (set *BodySet) Insert(pose Pose, linearVelocity, angularVelocity Vector, invMass float64, localInvInertia mgl64.Mat3) BodyHandle {
	inertia := NewSolverBodyInertia(invMass, RotateInertia(pose.Isometry().Rotation(), localInvInertia), 0)
	return set.insert(pose, NewSolverBody(linearVelocity, angularVelocity), localInvInertia, inertia)
}

// InsertStatic adds an immovable body.
func (set *BodySet) InsertStatic(pose Pose) BodyHandle {
	return set.insert(pose, NewSolverBody(Vector{}, Vector{}), mgl64.Mat3{}, NewStaticInertia())
}

// InsertKinematic adds a body moved only by its own velocity.
func (set *BodySet) InsertKinematic(pose Pose, linearVelocity, angularVelocity Vector) BodyHandle {
	return set.insert(pose, NewSolverBody(linearVelocity, angularVelocity), mgl64.Mat3{}, NewKinematicInertia())
}

func (set *BodySet) insert(pose Pose, body SolverBody, local mgl64.Mat3, inertia SolverBodyInertia) BodyHandle {
	pose.Rotation = pose.Isometry().Rotation()
	entry := bodyEntry{alive: true, pose: pose, body: body, localInvInertia: local, inertia: inertia}
	set.count++

	if n := len(set.free); n > 0 {
		index := set.free[n-1]
		set.free = set.free[:n-1]
		entry.generation = set.entries[index].generation + 1
		set.entries[index] = entry
		return BodyHandle{index, entry.generation}
	}
	set.entries = append(set.entries, entry)
	return BodyHandle{uint32(len(set.entries) - 1), 0}
}

func (set *BodySet) Remove(h BodyHandle) bool {
	if !set.Contains(h) {
		return false
	}
	set.entries[h.Index].alive = false
	set.free = append(set.free, h.Index)
	set.count--
	return true
}

func (set *BodySet) Contains(h BodyHandle) bool {
	return int(h.Index) < len(set.entries) && set.entries[h.Index].alive && set.entries[h.Index].generation == h.Generation
}

func (set *BodySet) Len() int {
	return set.count
}

func (set *BodySet) entry(h BodyHandle) *bodyEntry {
	assert(set.Contains(h), "Stale body handle")
	return &set.entries[h.Index]
}

func (set *BodySet) Body(h BodyHandle) *SolverBody {
	return &set.entry(h).body
}

func (set *BodySet) Inertia(h BodyHandle) *SolverBodyInertia {
	return &set.entry(h).inertia
}

// Pose returns the pose at the start of the current step.
func (set *BodySet) Pose(h BodyHandle) Pose {
	return set.entry(h).pose
}

// CurrentPose returns the start pose with the accumulated deltas applied.
func (set *BodySet) CurrentPose(h BodyHandle) Pose {
	e := set.entry(h)
	return Pose{
		Position: e.pose.Position.Add(e.body.DeltaPosition),
		Rotation: e.body.Rotation(e.pose.Rotation),
	}
}

func (set *BodySet) SetPose(h BodyHandle, pose Pose) {
	e := set.entry(h)
	e.pose = Pose{pose.Position, pose.Isometry().Rotation()}
	e.updateInertia()
}

func (set *BodySet) SetDominance(h BodyHandle, dominance int8) {
	set.entry(h).inertia.Dominance = dominance
}

// Each calls f for every live body in index order.
func (set *BodySet) Each(f func(h BodyHandle, body *SolverBody, inertia *SolverBodyInertia)) {
	for i := range set.entries {
		e := &set.entries[i]
		if e.alive {
			f(BodyHandle{uint32(i), e.generation}, &e.body, &e.inertia)
		}
	}
}

// Commit folds the position deltas into the poses and refreshes world inertia.
func (set *BodySet) Commit() {
	for i := range set.entries {
		e := &set.entries[i]
		if !e.alive {
			continue
		}
		e.pose.Position = e.pose.Position.Add(e.body.DeltaPosition)
		e.pose.Rotation = e.body.Rotation(e.pose.Rotation)
		e.body.DeltaPosition = Vector{}
		e.body.DeltaRotation = mgl64.QuatIdent()
		e.updateInertia()
	}
}

func (e *bodyEntry) updateInertia() {
	if e.inertia.Flags == 0 {
		e.inertia.invInertia = RotateInertia(e.pose.Rotation, e.localInvInertia)
	}
}

// Merge moves every body of other into set and returns the handle mapping.
func (set *BodySet) Merge(other *BodySet) BodyRemap {
	remap := BodyRemap{}
	other.Each(func(h BodyHandle, body *SolverBody, inertia *SolverBodyInertia) {
		e := other.entries[h.Index]
		remap[h] = set.insert(e.pose, e.body, e.localInvInertia, e.inertia)
	})
	return remap
}
