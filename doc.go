// Package dupdetect finds approximate duplicates in a batch of records
// without any schema-specific matching rules.
//
// Each record is reduced to a fingerprint: its field values concatenated,
// each followed by a space. Records whose fingerprints score at or above a
// similarity threshold are grouped into clusters. Similarity is one minus the
// Damerau-Levenshtein distance divided by the longer fingerprint's length.
//
// Basic usage:
//
//	cfg := dupdetect.DefaultConfig()
//	cfg.MatchThreshold = 0.8
//	result, err := dupdetect.Cluster(fingerprints, cfg)
//	// result.ClusterIDs[i] is the 1-based index of the earliest record in
//	// record i's cluster.
//	// result.Similarities[i] is record i's similarity to that record,
//	// truncated to one decimal, or null for the earliest record itself.
//
// # Algorithm
//
// Records live in a disjoint-set forest whose roots are always the
// earliest record of their cluster. Cluster sorts the fingerprints and walks
// them in order, comparing each record only against a small window of
// recently touched clusters (Config.WindowSize, default 4). A merge is
// accepted only when every member of the candidate cluster also clears the
// threshold against the record's representative, so clusters never absorb
// members that are dissimilar to each other's roots.
//
// A second pass repeats the walk over the reversed fingerprints. The first
// pass catches duplicates that share a prefix; the second catches ones that
// share a suffix but differ near the start. Clusters may have several members
// by then, so the second pass merges two clusters only when each one's
// members clear the threshold against the other's representative.
//
// The window bounds work to linear time per record at the cost of missing
// merges with clusters that have fallen out of it.
package dupdetect
