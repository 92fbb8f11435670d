package violation

import "iter"

// DefaultBatchSize is the batch size used by Stream when none is given.
const DefaultBatchSize = 10

// Stream yields violations in severity-then-line order as a lazy, finite
// sequence of batches. It is a view independent of Filter: nothing is
// capped, and the caller decides how far to consume. The sequence is not
// restartable; range over it once.
// The input slice is not modified.
func Stream(violations []Violation, batchSize int) iter.Seq[[]Violation] {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ordered := Sort(append([]Violation(nil), violations...))

	return func(yield func([]Violation) bool) {
		for start := 0; start < len(ordered); start += batchSize {
			end := start + batchSize
			if end > len(ordered) {
				end = len(ordered)
			}
			if !yield(ordered[start:end]) {
				return
			}
		}
	}
}
