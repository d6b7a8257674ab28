package cp3d

import "sync"

// task runs f over items on up to workers goroutines. Every item is visited exactly once
// and results written by index do not depend on the worker count.
func task[T any](workers int, items []T, f func(i int, item *T)) {
	n := len(items)
	if workers <= 1 || n < 2 {
		for i := range items {
			f(i, &items[i])
		}
		return
	}
	workers = Clamp(workers, 1, n)

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				f(i, &items[i])
			}
		}(start, end)
	}
	wg.Wait()
}

// constraintRef points at a contact constraint or a joint of the solver.
type constraintRef struct {
	joint bool
	index int
}

// batch is a set of constraints that touch disjoint dynamic bodies.
type batch []constraintRef

// colorConstraints greedily assigns every constraint to the first batch in which
// neither of its movable bodies is used yet. Immovable bodies are shared freely.
func colorConstraints(refs []constraintRef, bodiesOf func(constraintRef) (BodyHandle, BodyHandle), immovable func(BodyHandle) bool) []batch {
	var batches []batch
	var used []map[BodyHandle]struct{}

	for _, ref := range refs {
		b1, b2 := bodiesOf(ref)
		movable1, movable2 := !immovable(b1), !immovable(b2)

		color := 0
		for ; color < len(batches); color++ {
			_, taken1 := used[color][b1]
			_, taken2 := used[color][b2]
			if !(movable1 && taken1) && !(movable2 && taken2) {
				break
			}
		}
		if color == len(batches) {
			batches = append(batches, nil)
			used = append(used, map[BodyHandle]struct{}{})
		}

		batches[color] = append(batches[color], ref)
		if movable1 {
			used[color][b1] = struct{}{}
		}
		if movable2 {
			used[color][b2] = struct{}{}
		}
	}
	return batches
}
