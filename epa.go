package cp3d

import "math"

const (
	MAX_EPA_ITERATIONS = 64
	epaTolerance       = 1e-7
)

type epaFace struct {
	i, j, k int
	normal  Vector
	dist    float64
	// removed faces stay in the slice until the next compaction
	dead bool
}

type epaResult struct {
	// unit direction from A to B
	normal Vector
	depth  float64
	// deepest points of A inside B and of B inside A
	pointA, pointB Vector
}

type polytope struct {
	verts []minkowskiPoint
	faces []epaFace
}

func (p *polytope) addFace(i, j, k int) bool {
	a, b, c := p.verts[i].w, p.verts[j].w, p.verts[k].w
	n, ok := TryNormalize(b.Sub(a).Cross(c.Sub(a)))
	if !ok {
		return false
	}
	p.faces = append(p.faces, epaFace{i: i, j: j, k: k, normal: n, dist: n.Dot(a)})
	return true
}

// epaPenetration expands the simplex left by an overlapping GJK run into a polytope of
// the Minkowski difference and finds its face closest to the origin.
func epaPenetration(a, b convexProxy, s *simplex) (epaResult, bool) {
	if !blowUpSimplex(a, b, s) {
		return epaResult{}, false
	}

	p := polytope{verts: make([]minkowskiPoint, 0, 32), faces: make([]epaFace, 0, 64)}
	for i := 0; i < 4; i++ {
		p.verts = append(p.verts, s.points[i])
	}
	// orient the tetrahedron so every face normal points outward
	if p.verts[3].w.Sub(p.verts[0].w).Dot(p.verts[1].w.Sub(p.verts[0].w).Cross(p.verts[2].w.Sub(p.verts[0].w))) > 0 {
		p.verts[1], p.verts[2] = p.verts[2], p.verts[1]
	}
	for _, f := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		if !p.addFace(f[0], f[1], f[2]) {
			return epaResult{}, false
		}
	}

	for iteration := 0; iteration < MAX_EPA_ITERATIONS; iteration++ {
		best := p.closestFace()
		if best == nil {
			return epaResult{}, false
		}

		w := newMinkowskiPoint(a, b, best.normal)
		d := w.w.Dot(best.normal)
		if d-best.dist <= epaTolerance*math.Max(1, best.dist) {
			return p.result(best), true
		}

		p.expand(w)
		if iteration == MAX_EPA_ITERATIONS-1 {
			Logger.Println("Warning: High EPA iterations:", iteration+1)
		}
	}
	best := p.closestFace()
	if best == nil {
		return epaResult{}, false
	}
	return p.result(best), true
}

func (p *polytope) closestFace() *epaFace {
	var best *epaFace
	for i := range p.faces {
		f := &p.faces[i]
		if !f.dead && (best == nil || f.dist < best.dist) {
			best = f
		}
	}
	return best
}

func (p *polytope) expand(w minkowskiPoint) {
	type edge struct{ a, b int }
	var horizon []edge
	addEdge := func(a, b int) {
		for i, e := range horizon {
			if e.a == b && e.b == a {
				horizon = append(horizon[:i], horizon[i+1:]...)
				return
			}
		}
		horizon = append(horizon, edge{a, b})
	}

	for i := range p.faces {
		f := &p.faces[i]
		if f.dead {
			continue
		}
		if f.normal.Dot(w.w.Sub(p.verts[f.i].w)) > 0 {
			f.dead = true
			addEdge(f.i, f.j)
			addEdge(f.j, f.k)
			addEdge(f.k, f.i)
		}
	}

	live := p.faces[:0]
	for _, f := range p.faces {
		if !f.dead {
			live = append(live, f)
		}
	}
	p.faces = live

	p.verts = append(p.verts, w)
	n := len(p.verts) - 1
	for _, e := range horizon {
		p.addFace(e.a, e.b, n)
	}
}

func (p *polytope) result(f *epaFace) epaResult {
	a, b, c := p.verts[f.i], p.verts[f.j], p.verts[f.k]
	// barycentric coordinates of the projected origin on the face
	proj := f.normal.Mul(f.dist)
	u, v, w := barycentric(proj, a.w, b.w, c.w)
	return epaResult{
		normal: f.normal,
		depth:  f.dist,
		pointA: a.a.Mul(u).Add(b.a.Mul(v)).Add(c.a.Mul(w)),
		pointB: a.b.Mul(u).Add(b.b.Mul(v)).Add(c.b.Mul(w)),
	}
}

func barycentric(p, a, b, c Vector) (float64, float64, float64) {
	v0, v1, v2 := b.Sub(a), c.Sub(a), p.Sub(a)
	d00, d01, d11 := v0.Dot(v0), v0.Dot(v1), v1.Dot(v1)
	d20, d21 := v2.Dot(v0), v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if denom == 0 {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return 1 - v - w, v, w
}

var blowUpDirections = [6]Vector{
	{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
}

// blowUpSimplex grows a GJK simplex into a tetrahedron with non-zero volume.
func blowUpSimplex(a, b convexProxy, s *simplex) bool {
	if s.count == 0 {
		s.push(newMinkowskiPoint(a, b, VectorX))
	}

	if s.count == 1 {
		for _, dir := range blowUpDirections {
			p := newMinkowskiPoint(a, b, dir)
			if p.w.Sub(s.points[0].w).LenSqr() > MAGIC_EPSILON {
				s.push(p)
				break
			}
		}
		if s.count == 1 {
			return false
		}
	}

	if s.count == 2 {
		line := s.points[1].w.Sub(s.points[0].w)
		axis, ok := TryNormalize(line)
		if !ok {
			return false
		}
		u, v := OrthonormalBasis(axis)
		for k := 0; k < 6; k++ {
			angle := float64(k) * math.Pi / 3
			dir := u.Mul(math.Cos(angle)).Add(v.Mul(math.Sin(angle)))
			p := newMinkowskiPoint(a, b, dir)
			if p.w.Sub(s.points[0].w).Cross(line).LenSqr() > MAGIC_EPSILON {
				s.push(p)
				break
			}
		}
		if s.count == 2 {
			return false
		}
	}

	if s.count == 3 {
		a0, b0, c0 := s.points[0].w, s.points[1].w, s.points[2].w
		n, ok := TryNormalize(b0.Sub(a0).Cross(c0.Sub(a0)))
		if !ok {
			return false
		}
		p := newMinkowskiPoint(a, b, n)
		if math.Abs(p.w.Sub(a0).Dot(n)) <= MAGIC_EPSILON {
			p = newMinkowskiPoint(a, b, n.Mul(-1))
			if math.Abs(p.w.Sub(a0).Dot(n)) <= MAGIC_EPSILON {
				return false
			}
		}
		s.push(p)
	}
	return true
}
