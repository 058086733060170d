package dupdetect

import (
	"database/sql"
	"sync"
)

// ComputeMemberSimilarities scores every record against its cluster root.
// roots[i] is the root node of record i. Records that are their own root get
// a null score; all others get the truncated similarity to the root.
func ComputeMemberSimilarities(data []string, roots []int, metric SimilarityMetric) []sql.NullFloat64 {
	result := make([]sql.NullFloat64, len(roots))
	scoreRange(result, data, roots, metric, 0, len(roots))
	return result
}

// ComputeMemberSimilaritiesParallel is ComputeMemberSimilarities split across
// numWorkers goroutines. If numWorkers <= 1 it falls back to the sequential
// version. The result is identical to the sequential one.
//
// The forest must already be fully resolved: roots is read-only here, which
// is what makes the split safe.
func ComputeMemberSimilaritiesParallel(data []string, roots []int, metric SimilarityMetric, numWorkers int) []sql.NullFloat64 {
	n := len(roots)
	if numWorkers <= 1 || n <= 1 {
		return ComputeMemberSimilarities(data, roots, metric)
	}

	result := make([]sql.NullFloat64, n)

	// Each worker owns a contiguous range of records, so writes never overlap.
	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > n {
			endRow = n
		}
		if startRow >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			scoreRange(result, data, roots, metric, start, end)
		}(startRow, endRow)
	}

	wg.Wait()
	return result
}

func scoreRange(result []sql.NullFloat64, data []string, roots []int, metric SimilarityMetric, start, end int) {
	for i := start; i < end; i++ {
		r := roots[i]
		if r == i {
			continue
		}
		result[i] = sql.NullFloat64{
			Float64: TruncateScore(metric.Similarity(data[r], data[i])),
			Valid:   true,
		}
	}
}
