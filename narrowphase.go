package cp3d

import "sort"

// CollisionPair is a candidate pair handed over by the broad phase.
type CollisionPair struct {
	Body1, Body2 BodyHandle
	// Caller chosen ids distinguishing several shapes on one body.
	Collider1, Collider2 uint32
	Shape1, Shape2       *Shape
	// World poses of the shapes.
	Pose1, Pose2 Pose

	Friction, Restitution float64
	TangentVelocity       Vector
}

type pairKey struct {
	body1, body2         BodyHandle
	collider1, collider2 uint32
}

// NarrowPhase turns candidate pairs into persistent contact pairs.
type NarrowPhase struct {
	PredictionDistance   float64
	CollisionPersistence uint
	MatchDistance        float64
	Workers              int

	pairs  map[pairKey]*ContactPair
	stamp  uint
	nextID ContactID

	// per candidate scratch, reused between steps
	results [][]ContactManifold
	errs    []error
	active  []*ContactPair
}

func NewNarrowPhase(config Config) *NarrowPhase {
	return &NarrowPhase{
		PredictionDistance:   config.PredictionDistance,
		CollisionPersistence: config.CollisionPersistence,
		MatchDistance:        config.MatchDistance,
		Workers:              config.Workers,
		pairs:                map[pairKey]*ContactPair{},
	}
}

// Update runs the exact queries for every candidate and returns the touching pairs
// sorted by ContactID. Pairs no query can handle are logged once and skipped.
func (np *NarrowPhase) Update(candidates []CollisionPair) []*ContactPair {
	np.stamp++

	pairs := make([]*ContactPair, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		key := pairKey{c.Body1, c.Body2, c.Collider1, c.Collider2}
		pair, ok := np.pairs[key]
		if !ok {
			np.nextID++
			pair = &ContactPair{ID: np.nextID, Body1: c.Body1, Body2: c.Body2, state: PairCached}
			np.pairs[key] = pair
		}
		pairs[i] = pair
	}

	if cap(np.results) < len(candidates) {
		np.results = make([][]ContactManifold, len(candidates))
		np.errs = make([]error, len(candidates))
	}
	results := np.results[:len(candidates)]
	errs := np.errs[:len(candidates)]

	task(np.Workers, candidates, func(i int, c *CollisionPair) {
		results[i], errs[i] = contactManifolds(nil, c.Shape1, c.Pose1, c.Shape2, c.Pose2, np.PredictionDistance)
	})

	np.active = np.active[:0]
	for i, pair := range pairs {
		c := &candidates[i]
		if errs[i] != nil {
			if !pair.warned {
				Logger.Printf("Warning: skipping pair %v/%v: %v", c.Body1, c.Body2, errs[i])
				pair.warned = true
			}
			pair.stamp = np.stamp
			pair.state = PairCached
			continue
		}

		wasTouching := pair.stamp == np.stamp-1 && pair.IsTouching()
		pair.Pose1, pair.Pose2 = c.Pose1, c.Pose2
		pair.Friction, pair.Restitution = c.Friction, c.Restitution
		pair.TangentVelocity = c.TangentVelocity
		pair.Update(results[i], np.MatchDistance)
		pair.stamp = np.stamp
		results[i] = nil

		if len(pair.Manifolds) == 0 {
			continue
		}
		if wasTouching {
			pair.state = PairTouching
		} else {
			pair.state = PairFirstContact
		}
		np.active = append(np.active, pair)
	}

	np.expire()

	sort.Slice(np.active, func(i, j int) bool {
		return np.active[i].ID < np.active[j].ID
	})
	return np.active
}

// expire drops pairs that have not been seen for CollisionPersistence steps and marks
// the rest of the unseen pairs as cached.
func (np *NarrowPhase) expire() {
	for key, pair := range np.pairs {
		if pair.stamp == np.stamp {
			continue
		}
		if np.stamp-pair.stamp >= np.CollisionPersistence {
			delete(np.pairs, key)
			continue
		}
		pair.state = PairCached
	}
}

// Pair returns the persistent state of a pair, if it is still cached.
func (np *NarrowPhase) Pair(body1, body2 BodyHandle, collider1, collider2 uint32) *ContactPair {
	return np.pairs[pairKey{body1, body2, collider1, collider2}]
}

func (np *NarrowPhase) Len() int {
	return len(np.pairs)
}

// Remap rewrites the body handles of every cached pair.
func (np *NarrowPhase) Remap(remap BodyRemap) {
	pairs := make(map[pairKey]*ContactPair, len(np.pairs))
	for key, pair := range np.pairs {
		pair.Remap(remap)
		key.body1, key.body2 = pair.Body1, pair.Body2
		pairs[key] = pair
	}
	np.pairs = pairs
}
