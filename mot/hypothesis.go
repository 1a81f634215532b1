package mot

import (
	"github.com/google/uuid"
)

// Hypothesis is a tentatively tracked stationary object (accumulated object).
// It lives in the tracker's working set only while it keeps being matched frame after frame.
type Hypothesis struct {
	id          uuid.UUID
	seq         uint64
	appearFrame int
	framesCount int
	lastFrame   int
	bbox        Rectangle
}

func newHypothesis(seq uint64, frameIndex int, bbox Rectangle) *Hypothesis {
	return &Hypothesis{
		id:          uuid.New(),
		seq:         seq,
		appearFrame: frameIndex,
		framesCount: 1,
		lastFrame:   frameIndex,
		bbox:        bbox,
	}
}

// GetID returns hypothesis's identifier
func (h *Hypothesis) GetID() uuid.UUID {
	return h.id
}

// GetSeq returns creation sequence number. It defines working set iteration order
func (h *Hypothesis) GetSeq() uint64 {
	return h.seq
}

// GetAppearFrame returns index of the frame where hypothesis has been created
func (h *Hypothesis) GetAppearFrame() int {
	return h.appearFrame
}

// GetFramesCount returns number of consecutive frames where hypothesis has been matched (creation frame included)
func (h *Hypothesis) GetFramesCount() int {
	return h.framesCount
}

// GetLastFrame returns index of the most recent frame where hypothesis has been matched
func (h *Hypothesis) GetLastFrame() int {
	return h.lastFrame
}

// GetBBox returns the box last matched
func (h *Hypothesis) GetBBox() Rectangle {
	return h.bbox
}

// update replaces bounding box (no smoothing) and extends the run of matched frames
func (h *Hypothesis) update(bbox Rectangle, frameIndex int) {
	h.bbox = bbox
	h.framesCount++
	h.lastFrame = frameIndex
}

// AbandonedObject is an immutable snapshot of a hypothesis taken at the moment it has been evicted
// after persisting for at least the confirmation threshold.
type AbandonedObject struct {
	ID          uuid.UUID
	BBox        Rectangle
	AppearFrame int
	LastFrame   int // last frame where object was actually observed
	FramesCount int
}

func (h *Hypothesis) snapshot() AbandonedObject {
	return AbandonedObject{
		ID:          h.id,
		BBox:        h.bbox,
		AppearFrame: h.appearFrame,
		LastFrame:   h.lastFrame,
		FramesCount: h.framesCount,
	}
}
