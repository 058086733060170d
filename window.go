package dupdetect

// DefaultWindowSize is the number of recently touched clusters each record
// is compared against.
const DefaultWindowSize = 4

// candidateWindow is a most-recently-used list of node ids, front first.
// Pushing past capacity evicts the back entry.
type candidateWindow struct {
	ids      []int
	capacity int
}

func newCandidateWindow(capacity int) *candidateWindow {
	return &candidateWindow{
		ids:      make([]int, 0, capacity+1),
		capacity: capacity,
	}
}

// reset empties the window and seeds it with id.
func (w *candidateWindow) reset(id int) {
	w.ids = append(w.ids[:0], id)
}

func (w *candidateWindow) len() int { return len(w.ids) }

func (w *candidateWindow) at(i int) int { return w.ids[i] }

// pushFront inserts id at the front and evicts the oldest entry when the
// window is over capacity.
func (w *candidateWindow) pushFront(id int) {
	w.ids = append(w.ids, 0)
	copy(w.ids[1:], w.ids)
	w.ids[0] = id
	if len(w.ids) > w.capacity {
		w.ids = w.ids[:w.capacity]
	}
}

// replace removes the entry at position i and inserts id at the front.
// The window length is unchanged, so nothing is evicted.
func (w *candidateWindow) replace(i, id int) {
	copy(w.ids[1:i+1], w.ids[:i])
	w.ids[0] = id
}

// snapshot returns a copy of the window contents, front first.
func (w *candidateWindow) snapshot() []int {
	out := make([]int, len(w.ids))
	copy(out, w.ids)
	return out
}
