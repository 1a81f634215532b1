package mot

const (
	// DefaultMaxSimilarDistance is the default per-dimension pixel tolerance
	DefaultMaxSimilarDistance = 10
	// DefaultMinFrames is the default confirmation threshold
	DefaultMinFrames = 40
)

// PersistenceTracker detects objects whose bounding boxes stay (almost) unchanged for at least minFrames consecutive frames.
// It is a synchronous state machine: call AdvanceFrame once per frame with strictly increasing frame indices.
// Not safe for concurrent use.
type PersistenceTracker struct {
	// Working set in creation order
	hypotheses []*Hypothesis
	// Confirmed objects accumulated over the whole video
	found []AbandonedObject
	// Max per-dimension deviation (pixels) between two boxes of the same object. Default 10
	maxSimilarDistance int
	// Minimum number of consecutive matched frames for promotion. Default 40
	minFrames int
	nextSeq   uint64
}

// NewPersistenceTrackerDefault creates default instance of PersistenceTracker
func NewPersistenceTrackerDefault() *PersistenceTracker {
	return NewPersistenceTracker(DefaultMaxSimilarDistance, DefaultMinFrames)
}

// NewPersistenceTracker creates new instance of PersistenceTracker
func NewPersistenceTracker(maxSimilarDistance, minFrames int) *PersistenceTracker {
	return &PersistenceTracker{
		hypotheses:         make([]*Hypothesis, 0),
		found:              make([]AbandonedObject, 0),
		maxSimilarDistance: maxSimilarDistance,
		minFrames:          minFrames,
	}
}

// MaxSimilarDistance returns similarity tolerance
func (tracker *PersistenceTracker) MaxSimilarDistance() int {
	return tracker.maxSimilarDistance
}

// MinFrames returns confirmation threshold
func (tracker *PersistenceTracker) MinFrames() int {
	return tracker.minFrames
}

// AdvanceFrame consumes candidate boxes of a single frame and returns objects confirmed during this frame.
// Confirmed objects are also accumulated and available via Found().
func (tracker *PersistenceTracker) AdvanceFrame(frameIndex int, boxes []Rectangle) []AbandonedObject {
	// Matching pass: first-fit against hypotheses existing at the start of the frame
	assignment := firstFitAssign(tracker.boxes(), boxes, tracker.maxSimilarDistance)
	for i, box := range boxes {
		if hIdx := assignment[i]; hIdx >= 0 {
			tracker.hypotheses[hIdx].update(box, frameIndex)
			continue
		}
		tracker.nextSeq++
		tracker.hypotheses = append(tracker.hypotheses, newHypothesis(tracker.nextSeq, frameIndex, box))
	}

	// Eviction pass. Collect first, compact afterwards
	evicted := make([]int, 0)
	for i, h := range tracker.hypotheses {
		if h.lastFrame != frameIndex {
			evicted = append(evicted, i)
		}
	}
	if len(evicted) == 0 {
		return nil
	}
	confirmed := make([]AbandonedObject, 0)
	for _, idx := range evicted {
		h := tracker.hypotheses[idx]
		if h.framesCount >= tracker.minFrames {
			confirmed = append(confirmed, h.snapshot())
		}
	}
	tracker.removeIndices(evicted)
	tracker.found = append(tracker.found, confirmed...)
	return confirmed
}

// removeIndices drops hypotheses by their (ascending) positions keeping the order of the rest
func (tracker *PersistenceTracker) removeIndices(indices []int) {
	kept := tracker.hypotheses[:0]
	next := 0
	for i, h := range tracker.hypotheses {
		if next < len(indices) && indices[next] == i {
			next++
			continue
		}
		kept = append(kept, h)
	}
	// Let GC collect evicted hypotheses
	for i := len(kept); i < len(tracker.hypotheses); i++ {
		tracker.hypotheses[i] = nil
	}
	tracker.hypotheses = kept
}

func (tracker *PersistenceTracker) boxes() []Rectangle {
	rects := make([]Rectangle, len(tracker.hypotheses))
	for i, h := range tracker.hypotheses {
		rects[i] = h.bbox
	}
	return rects
}

// Hypotheses returns copy of the working set in iteration order
func (tracker *PersistenceTracker) Hypotheses() []Hypothesis {
	snapshot := make([]Hypothesis, len(tracker.hypotheses))
	for i, h := range tracker.hypotheses {
		snapshot[i] = *h
	}
	return snapshot
}

// Len returns number of alive hypotheses
func (tracker *PersistenceTracker) Len() int {
	return len(tracker.hypotheses)
}

// Found returns copy of all objects confirmed so far
func (tracker *PersistenceTracker) Found() []AbandonedObject {
	found := make([]AbandonedObject, len(tracker.found))
	copy(found, tracker.found)
	return found
}

// Drain discards all alive hypotheses without promotion (end of stream) and returns them.
func (tracker *PersistenceTracker) Drain() []Hypothesis {
	dropped := tracker.Hypotheses()
	tracker.hypotheses = make([]*Hypothesis, 0)
	return dropped
}

// Reset prepares tracker for the next video: working set and found objects are cleared
func (tracker *PersistenceTracker) Reset() {
	tracker.Drain()
	tracker.found = make([]AbandonedObject, 0)
	tracker.nextSeq = 0
}

// firstFitAssign returns for every box the index of the first hypothesis box which is almost similar to it, or -1.
// Each hypothesis is claimed by at most one box: the earliest one in boxes order.
func firstFitAssign(hypotheses []Rectangle, boxes []Rectangle, tolerance int) []int {
	assignment := make([]int, len(boxes))
	// We need to prevent double update of hypotheses
	reserved := make([]bool, len(hypotheses))
	for i, box := range boxes {
		assignment[i] = -1
		for j, hBox := range hypotheses {
			if reserved[j] {
				continue
			}
			if AreAlmostSimilar(box, hBox, tolerance) {
				assignment[i] = j
				reserved[j] = true
				break
			}
		}
	}
	return assignment
}
