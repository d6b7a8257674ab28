package cp3d

// Solver advances bodies through contacts and joints with substepping.
type Solver struct {
	Config      Config
	Bodies      *BodySet
	NarrowPhase *NarrowPhase

	joints   []Joint
	active   []int
	pairs    []*ContactPair
	contacts []ContactConstraint
	batches  []batch
	refs     []constraintRef
}

func NewSolver(config Config) (*Solver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Solver{
		Config:      config,
		Bodies:      NewBodySet(),
		NarrowPhase: NewNarrowPhase(config),
	}, nil
}

// AddJoint adds a joint. Joints that were not given their own compliance take the
// configured joint softness.
func (s *Solver) AddJoint(joint Joint) Joint {
	if f, ok := joint.(interface{ jointFrame() *JointFrame }); ok {
		if frame := f.jointFrame(); !frame.customSoftness {
			frame.Frequency = s.Config.JointFrequency
			frame.DampingRatio = s.Config.JointDampingRatio
		}
	}
	s.joints = append(s.joints, joint)
	return joint
}

func (s *Solver) RemoveJoint(joint Joint) {
	for i, j := range s.joints {
		if j == joint {
			s.joints = append(s.joints[:i], s.joints[i+1:]...)
			return
		}
	}
}

func (s *Solver) Joints() []Joint {
	return s.joints
}

// Contacts returns the contact constraints of the last step.
func (s *Solver) Contacts() []ContactConstraint {
	return s.contacts
}

// Pairs returns the touching pairs of the last step, ordered by ContactID.
func (s *Solver) Pairs() []*ContactPair {
	return s.pairs
}

// Step runs the narrow phase on the candidate pairs and advances every body by dt.
// Position deltas are folded into the body poses at the end of the step.
func (s *Solver) Step(dt float64, candidates []CollisionPair) {
	cfg := &s.Config
	h := dt / float64(cfg.Substeps)

	np := s.NarrowPhase
	np.PredictionDistance = cfg.PredictionDistance
	np.CollisionPersistence = cfg.CollisionPersistence
	np.MatchDistance = cfg.MatchDistance
	np.Workers = cfg.Workers
	s.pairs = np.Update(candidates)

	s.buildContacts(h)
	s.prepareJoints(h)
	s.buildBatches()

	for substep := 0; substep < cfg.Substeps; substep++ {
		s.integrateVelocities(h)

		s.each(func(ref constraintRef, body1, body2 *SolverBody) {
			if ref.joint {
				s.joints[ref.index].WarmStart(body1, body2, cfg.WarmStartCoefficient)
			} else {
				s.contacts[ref.index].WarmStart(body1, body2, cfg.WarmStartCoefficient)
			}
		})
		for i := 0; i < cfg.Iterations; i++ {
			s.solve(h, true)
		}

		s.integratePositions(h)

		for i := 0; i < cfg.RelaxIterations; i++ {
			s.solve(h, false)
		}
	}

	s.each(func(ref constraintRef, body1, body2 *SolverBody) {
		if !ref.joint {
			s.contacts[ref.index].ApplyRestitution(body1, body2, cfg.RestitutionThreshold)
		}
	})

	for i := range s.contacts {
		c := &s.contacts[i]
		c.StoreImpulses(s.pairs[s.pairIndex(c.ContactID)])
	}
	s.Bodies.Commit()
}

func (s *Solver) solve(h float64, useBias bool) {
	maxOverlap := s.Config.MaxOverlapSolveSpeed
	s.each(func(ref constraintRef, body1, body2 *SolverBody) {
		if ref.joint {
			s.joints[ref.index].Solve(body1, body2, h, useBias)
		} else {
			s.contacts[ref.index].Solve(body1, body2, h, useBias, maxOverlap)
		}
	})
}

func (s *Solver) buildContacts(h float64) {
	softness := NewSoftnessCoefficients(s.Config.ContactFrequency, s.Config.ContactDampingRatio, h)
	s.contacts = s.contacts[:0]
	for _, pair := range s.pairs {
		if !s.Bodies.Contains(pair.Body1) || !s.Bodies.Contains(pair.Body2) {
			continue
		}
		for i := range pair.Manifolds {
			s.contacts = append(s.contacts, NewContactConstraint(pair, i, s.Bodies, softness))
		}
	}
}

func (s *Solver) prepareJoints(h float64) {
	s.active = s.active[:0]
	for i, joint := range s.joints {
		body1, body2 := joint.Bodies()
		if !s.Bodies.Contains(body1) || !s.Bodies.Contains(body2) {
			continue
		}
		joint.Prepare(s.Bodies, h)
		s.active = append(s.active, i)
	}
}

// pairIndex finds a pair of the current step by id. Pairs are sorted by id.
func (s *Solver) pairIndex(id ContactID) int {
	lo, hi := 0, len(s.pairs)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.pairs[mid].ID < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (s *Solver) buildBatches() {
	s.refs = s.refs[:0]
	for i := range s.contacts {
		s.refs = append(s.refs, constraintRef{joint: false, index: i})
	}
	for _, i := range s.active {
		s.refs = append(s.refs, constraintRef{joint: true, index: i})
	}
	s.batches = colorConstraints(s.refs, s.bodiesOf, s.immovable)
}

func (s *Solver) bodiesOf(ref constraintRef) (BodyHandle, BodyHandle) {
	if ref.joint {
		return s.joints[ref.index].Bodies()
	}
	c := &s.contacts[ref.index]
	return c.Body1, c.Body2
}

func (s *Solver) immovable(h BodyHandle) bool {
	return s.Bodies.Inertia(h).IsImmovable()
}

// each runs f over every constraint, batch by batch. Immovable bodies are handed out
// as copies so batches only share read-only state.
func (s *Solver) each(f func(ref constraintRef, body1, body2 *SolverBody)) {
	for _, b := range s.batches {
		task(s.Config.Workers, b, func(_ int, ref *constraintRef) {
			h1, h2 := s.bodiesOf(*ref)
			f(*ref, s.solverBody(h1), s.solverBody(h2))
		})
	}
}

func (s *Solver) solverBody(h BodyHandle) *SolverBody {
	body := s.Bodies.Body(h)
	if s.immovable(h) {
		c := *body
		return &c
	}
	return body
}

func (s *Solver) integrateVelocities(h float64) {
	gravity := s.Config.Gravity.Mul(h)
	s.Bodies.Each(func(_ BodyHandle, body *SolverBody, inertia *SolverBodyInertia) {
		if inertia.Flags == 0 {
			body.LinearVelocity = body.LinearVelocity.Add(gravity)
		}
	})
}

func (s *Solver) integratePositions(h float64) {
	s.Bodies.Each(func(_ BodyHandle, body *SolverBody, inertia *SolverBodyInertia) {
		if inertia.Flags&BodyStatic == 0 {
			body.IntegratePositions(h)
		}
	})
}

// Remap rewrites body handles of joints, pairs and constraints after the bodies were
// moved to another set.
func (s *Solver) Remap(remap BodyRemap) {
	for _, joint := range s.joints {
		joint.Remap(remap)
	}
	s.NarrowPhase.Remap(remap)
	for i := range s.contacts {
		s.contacts[i].Remap(remap)
	}
}
