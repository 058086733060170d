package dupdetect

import (
	"cmp"
	"slices"
)

// PassStats counts the work done by one clustering pass.
type PassStats struct {
	// Comparisons is the number of similarity evaluations.
	Comparisons int
	// Merges is the number of unions that joined two distinct clusters.
	Merges int
}

// engine runs the sort-and-merge passes over a forest.
type engine struct {
	forest    *Forest
	metric    SimilarityMetric
	threshold float64
	window    *candidateWindow
	stats     *PassStats
}

func newEngine(f *Forest, cfg Config) *engine {
	return &engine{
		forest:    f,
		metric:    cfg.Metric,
		threshold: cfg.MatchThreshold,
		window:    newCandidateWindow(cfg.WindowSize),
	}
}

// similar reports whether a and b score at or above the match threshold.
func (e *engine) similar(a, b string) bool {
	e.stats.Comparisons++
	return e.metric.Similarity(a, b) >= e.threshold
}

// allSimilar reports whether every node in members is similar to s.
// It stops at the first failure.
func (e *engine) allSimilar(s string, members []int) bool {
	for _, m := range members {
		if !e.similar(s, e.forest.Data(m)) {
			return false
		}
	}
	return true
}

// dataOrder returns node ids sorted by fingerprint. The sort is stable, so
// equal fingerprints keep arrival order.
func dataOrder(f *Forest) []int {
	order := make([]int, f.Len())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(f.Data(a), f.Data(b))
	})
	return order
}

// reversedOrder re-sorts a data-ordered slice by reversed fingerprint. Ties
// keep their data order.
func reversedOrder(f *Forest, byData []int) []int {
	order := slices.Clone(byData)
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(f.ReversedData(a), f.ReversedData(b))
	})
	return order
}

// forwardPass walks nodes in fingerprint order and merges each one into the
// first windowed cluster it matches. A candidate cluster is accepted only
// when the node matches the candidate and the node's root matches every
// child of the candidate.
func (e *engine) forwardPass(order []int, stats *PassStats) {
	if len(order) == 0 {
		return
	}
	e.stats = stats
	f := e.forest
	w := e.window
	w.reset(order[0])

	for _, n := range order[1:] {
		merged := false
		for j := 0; j < w.len(); j++ {
			c := w.at(j)
			if !e.similar(f.Data(n), f.Data(c)) {
				continue
			}
			if !e.allSimilar(f.Data(f.Find(n)), f.Children(c)) {
				continue
			}
			w.replace(j, f.Union(n, c))
			stats.Merges++
			merged = true
			break
		}
		if !merged {
			w.pushFront(f.Find(n))
		}
	}
}

// reversePass walks nodes in reversed-fingerprint order so that records
// differing near the start of their fingerprints meet in the window. A node
// whose cluster is already windowed only refreshes that entry. Otherwise a
// candidate is merged when the reversed fingerprints match and every member
// of both clusters matches the other cluster's root.
func (e *engine) reversePass(order []int, stats *PassStats) {
	if len(order) == 0 {
		return
	}
	e.stats = stats
	f := e.forest
	w := e.window
	w.reset(f.Find(order[0]))

	for _, n := range order[1:] {
		root := f.Find(n)
		changed := false

		for j := 0; j < w.len(); j++ {
			if f.Find(w.at(j)) == root {
				w.replace(j, root)
				changed = true
				break
			}
		}

		if !changed {
			for j := 0; j < w.len(); j++ {
				c := w.at(j)
				if !e.similar(f.ReversedData(n), f.ReversedData(c)) {
					continue
				}
				if !e.mergeable(root, c) {
					continue
				}
				w.replace(j, f.Union(root, c))
				stats.Merges++
				changed = true
				break
			}
		}

		if !changed {
			w.pushFront(root)
		}
	}
}

// mergeable checks the cluster rooted at root against candidate c: every
// child of root must match c, the two must match each other, and every
// child of c must match root.
func (e *engine) mergeable(root, c int) bool {
	f := e.forest
	cData := f.Data(c)
	rootData := f.Data(root)
	for _, m := range f.Children(root) {
		if !e.similar(f.Data(m), cData) {
			return false
		}
	}
	if !e.similar(rootData, cData) {
		return false
	}
	return e.allSimilar(rootData, f.Children(c))
}
