package dupdetect

import (
	"database/sql"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Assignment is the derived output of one kept record.
type Assignment struct {
	// Index is the 1-based arrival position of the record.
	Index int
	// ClusterID is the index of the cluster's earliest record.
	ClusterID int
	// Similarity is the truncated score against the cluster representative.
	// It is null for the representative itself.
	Similarity sql.NullFloat64
}

// project resolves every node's root and builds the per-record output.
// Roots are resolved sequentially before scoring because Find compresses
// paths; scoring then only reads the forest.
func project(f *Forest, cfg Config, r *Result) {
	n := f.Len()
	roots := make([]int, n)
	for i := range roots {
		roots[i] = f.Find(i)
	}

	scores := ComputeMemberSimilaritiesParallel(f.data, roots, cfg.Metric, cfg.Workers)

	for i, root := range roots {
		r.ClusterIDs[i] = f.Index(root)
		r.Similarities[i] = scores[i]

		singleton := root == i && len(f.Children(i)) == 0
		if singleton {
			r.Stats.Singletons++
		}
		if root == i {
			r.Stats.Clusters++
		}
		r.Kept[i] = !(cfg.RemoveSingletons && singleton)
		if !r.Kept[i] {
			r.Stats.Suppressed++
		}
	}
}

// Assignments returns the derived columns of every kept record, in arrival
// order.
func (r *Result) Assignments() []Assignment {
	out := make([]Assignment, 0, len(r.ClusterIDs))
	for i, id := range r.ClusterIDs {
		if !r.Kept[i] {
			continue
		}
		out = append(out, Assignment{
			Index:      i + 1,
			ClusterID:  id,
			Similarity: r.Similarities[i],
		})
	}
	return out
}

// Clusters maps each cluster id to the 1-based indices of its members,
// representative first. Suppressed records are included.
func (r *Result) Clusters() map[int][]int {
	clusters := make(map[int][]int)
	for i, id := range r.ClusterIDs {
		clusters[id] = append(clusters[id], i+1)
	}
	return clusters
}

// Summary describes the distribution of member similarities.
type Summary struct {
	// Members is the number of records that are not their own representative.
	Members int
	Mean    float64
	Median  float64
	Min     float64
}

// Summary computes statistics over the non-null similarities of kept records.
func (r *Result) Summary() Summary {
	var scores []float64
	for i, s := range r.Similarities {
		if s.Valid && r.Kept[i] {
			scores = append(scores, s.Float64)
		}
	}
	if len(scores) == 0 {
		return Summary{}
	}
	slices.Sort(scores)
	return Summary{
		Members: len(scores),
		Mean:    stat.Mean(scores, nil),
		Median:  stat.Quantile(0.5, stat.Empirical, scores, nil),
		Min:     scores[0],
	}
}
