package mot

import (
	"testing"
)

// feedStill feeds the same box for frames [from, to) and returns everything confirmed on the way
func feedStill(tracker *PersistenceTracker, box Rectangle, from, to int) []AbandonedObject {
	confirmed := make([]AbandonedObject, 0)
	for frame := from; frame < to; frame++ {
		confirmed = append(confirmed, tracker.AdvanceFrame(frame, []Rectangle{box})...)
	}
	return confirmed
}

func TestNewPersistenceTrackerDefault(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	if tracker.MaxSimilarDistance() != 10 {
		t.Errorf("Expected default maxSimilarDistance 10, got %d", tracker.MaxSimilarDistance())
	}
	if tracker.MinFrames() != 40 {
		t.Errorf("Expected default minFrames 40, got %d", tracker.MinFrames())
	}
	if tracker.Len() != 0 || len(tracker.Found()) != 0 {
		t.Error("Tracker should start empty")
	}
}

func TestScenarioAbandonedAfterMinFrames(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	box := NewRect(10, 10, 50, 50)

	confirmed := feedStill(tracker, box, 0, 41)
	if len(confirmed) != 0 {
		t.Fatalf("Nothing should be confirmed while object is still observed, got %d", len(confirmed))
	}
	confirmed = tracker.AdvanceFrame(41, nil)
	if len(confirmed) != 1 {
		t.Fatalf("incorrect number of objects: %d, expected: %d", len(confirmed), 1)
	}
	obj := confirmed[0]
	if obj.AppearFrame != 0 || obj.LastFrame != 40 {
		t.Errorf("Wrong timespan: (%d, %d), expected (0, 40)", obj.AppearFrame, obj.LastFrame)
	}
	if obj.FramesCount != 41 {
		t.Errorf("Wrong frames count: %d, expected 41", obj.FramesCount)
	}
	if obj.BBox != box {
		t.Errorf("Wrong box: %v, expected %v", obj.BBox, box)
	}
	if len(tracker.Found()) != 1 {
		t.Errorf("Found list should contain confirmed object, got %d", len(tracker.Found()))
	}
}

func TestScenarioShortPresenceNotReported(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	feedStill(tracker, NewRect(10, 10, 50, 50), 0, 39)
	confirmed := tracker.AdvanceFrame(39, []Rectangle{})
	if len(confirmed) != 0 || len(tracker.Found()) != 0 {
		t.Errorf("incorrect number of objects: %d, expected: %d", len(tracker.Found()), 0)
	}
	if tracker.Len() != 0 {
		t.Errorf("Working set should be empty after eviction, got %d", tracker.Len())
	}
}

func TestScenarioGapSplitsTrack(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	box := NewRect(10, 10, 50, 50)

	feedStill(tracker, box, 0, 50)
	first := tracker.AdvanceFrame(50, nil)
	if len(first) != 1 || first[0].AppearFrame != 0 || first[0].LastFrame != 49 {
		t.Fatalf("First presence should be reported as (0, 49), got %+v", first)
	}
	feedStill(tracker, box, 51, 101)
	hyps := tracker.Hypotheses()
	if len(hyps) != 1 {
		t.Fatalf("Expected single hypothesis, got %d", len(hyps))
	}
	if hyps[0].GetAppearFrame() != 51 || hyps[0].GetFramesCount() != 50 {
		t.Errorf("Reappeared object must be new hypothesis: appear %d, count %d", hyps[0].GetAppearFrame(), hyps[0].GetFramesCount())
	}
	second := tracker.AdvanceFrame(101, nil)
	if len(second) != 1 || second[0].AppearFrame != 51 || second[0].LastFrame != 100 {
		t.Fatalf("Second presence should be reported as (51, 100), got %+v", second)
	}
	if first[0].ID == second[0].ID {
		t.Error("Two presences should have different identifiers")
	}
	if len(tracker.Found()) != 2 {
		t.Errorf("incorrect number of objects: %d, expected: %d", len(tracker.Found()), 2)
	}
}

func TestThresholdBoundary(t *testing.T) {
	minFrames := 5
	cases := []struct {
		frames   int
		expected int
	}{
		{minFrames - 1, 0},
		{minFrames, 1},
		{minFrames + 1, 1},
	}
	for _, c := range cases {
		tracker := NewPersistenceTracker(DefaultMaxSimilarDistance, minFrames)
		feedStill(tracker, NewRect(0, 0, 20, 20), 0, c.frames)
		confirmed := tracker.AdvanceFrame(c.frames, nil)
		if len(confirmed) != c.expected {
			t.Errorf("%d frames: incorrect number of objects: %d, expected: %d", c.frames, len(confirmed), c.expected)
		}
	}
}

func TestEndOfStreamDropsAliveHypotheses(t *testing.T) {
	tracker := NewPersistenceTracker(DefaultMaxSimilarDistance, 3)
	feedStill(tracker, NewRect(0, 0, 20, 20), 0, 10)
	dropped := tracker.Drain()
	if len(dropped) != 1 || dropped[0].GetFramesCount() != 10 {
		t.Fatalf("Drain should return alive hypothesis, got %d", len(dropped))
	}
	if tracker.Len() != 0 {
		t.Error("Working set should be empty after drain")
	}
	if len(tracker.Found()) != 0 {
		t.Error("Alive hypotheses must never be promoted at end of stream")
	}
}

func TestMonotonicFramesCountAndReplacedBox(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	// Box drifts by few pixels per frame: each step is within tolerance of the previous one
	for frame := 0; frame < 20; frame++ {
		box := NewRect(100+frame*3, 100, 40, 40)
		tracker.AdvanceFrame(frame, []Rectangle{box})
		hyps := tracker.Hypotheses()
		if len(hyps) != 1 {
			t.Fatalf("frame %d: expected single hypothesis, got %d", frame, len(hyps))
		}
		if hyps[0].GetFramesCount() != frame+1 {
			t.Errorf("frame %d: frames count %d, expected %d", frame, hyps[0].GetFramesCount(), frame+1)
		}
		if hyps[0].GetBBox() != box {
			t.Errorf("frame %d: box should be replaced by last match, got %v", frame, hyps[0].GetBBox())
		}
		if hyps[0].GetAppearFrame() != 0 || hyps[0].GetLastFrame() != frame {
			t.Errorf("frame %d: wrong span (%d, %d)", frame, hyps[0].GetAppearFrame(), hyps[0].GetLastFrame())
		}
	}
}

func TestFirstFitDeterminism(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	// Two hypotheses which are both within tolerance of the next box
	tracker.AdvanceFrame(0, []Rectangle{NewRect(100, 100, 40, 40), NewRect(106, 100, 40, 40)})
	before := tracker.Hypotheses()
	if len(before) != 2 {
		t.Fatalf("Expected 2 hypotheses, got %d", len(before))
	}
	tracker.AdvanceFrame(1, []Rectangle{NewRect(105, 100, 40, 40)})
	after := tracker.Hypotheses()
	if len(after) != 1 {
		t.Fatalf("Expected 1 hypothesis, got %d", len(after))
	}
	// Earlier hypothesis claims the match even though the later one is closer
	if after[0].GetID() != before[0].GetID() {
		t.Errorf("First hypothesis in iteration order should claim the match")
	}
	if after[0].GetFramesCount() != 2 {
		t.Errorf("Wrong frames count: %d, expected 2", after[0].GetFramesCount())
	}
}

func TestHypothesisMatchedOncePerFrame(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	tracker.AdvanceFrame(0, []Rectangle{NewRect(50, 50, 30, 30)})
	original := tracker.Hypotheses()[0]

	// Both boxes could match the same hypothesis: only the first one claims it
	tracker.AdvanceFrame(1, []Rectangle{NewRect(51, 50, 30, 30), NewRect(52, 50, 30, 30)})
	hyps := tracker.Hypotheses()
	if len(hyps) != 2 {
		t.Fatalf("Expected 2 hypotheses, got %d", len(hyps))
	}
	if hyps[0].GetID() != original.GetID() || hyps[0].GetFramesCount() != 2 || hyps[0].GetBBox() != NewRect(51, 50, 30, 30) {
		t.Errorf("First box should update the existing hypothesis, got %+v", hyps[0].GetBBox())
	}
	if hyps[1].GetFramesCount() != 1 || hyps[1].GetAppearFrame() != 1 || hyps[1].GetBBox() != NewRect(52, 50, 30, 30) {
		t.Errorf("Second box should become a new hypothesis")
	}
	if hyps[1].GetSeq() <= hyps[0].GetSeq() {
		t.Errorf("Sequence numbers should grow: %d then %d", hyps[0].GetSeq(), hyps[1].GetSeq())
	}
}

func TestEvictionKeepsOrder(t *testing.T) {
	tracker := NewPersistenceTrackerDefault()
	a := NewRect(0, 0, 10, 10)
	b := NewRect(100, 0, 10, 10)
	c := NewRect(200, 0, 10, 10)
	tracker.AdvanceFrame(0, []Rectangle{a, b, c})
	// b disappears, c is listed first this time
	tracker.AdvanceFrame(1, []Rectangle{c, a})
	hyps := tracker.Hypotheses()
	if len(hyps) != 2 {
		t.Fatalf("Expected 2 hypotheses, got %d", len(hyps))
	}
	if hyps[0].GetBBox() != a || hyps[1].GetBBox() != c {
		t.Errorf("Working set should keep creation order, got %v, %v", hyps[0].GetBBox(), hyps[1].GetBBox())
	}
}

func TestNoResurrection(t *testing.T) {
	tracker := NewPersistenceTracker(DefaultMaxSimilarDistance, 3)
	box := NewRect(10, 10, 10, 10)
	feedStill(tracker, box, 0, 10)
	oldID := tracker.Hypotheses()[0].GetID()
	tracker.AdvanceFrame(10, nil)
	tracker.AdvanceFrame(11, []Rectangle{box})
	hyps := tracker.Hypotheses()
	if len(hyps) != 1 {
		t.Fatalf("Expected 1 hypothesis, got %d", len(hyps))
	}
	if hyps[0].GetID() == oldID || hyps[0].GetFramesCount() != 1 {
		t.Errorf("Evicted hypothesis must not come back: count %d", hyps[0].GetFramesCount())
	}
}

func TestReset(t *testing.T) {
	tracker := NewPersistenceTracker(DefaultMaxSimilarDistance, 2)
	feedStill(tracker, NewRect(0, 0, 10, 10), 0, 3)
	tracker.AdvanceFrame(3, nil)
	tracker.AdvanceFrame(4, []Rectangle{NewRect(0, 0, 10, 10)})
	if len(tracker.Found()) != 1 || tracker.Len() != 1 {
		t.Fatalf("Unexpected state before reset: found %d, alive %d", len(tracker.Found()), tracker.Len())
	}
	tracker.Reset()
	if len(tracker.Found()) != 0 || tracker.Len() != 0 {
		t.Errorf("Tracker should be empty after reset")
	}
}

func TestFirstFitAssign(t *testing.T) {
	hyps := []Rectangle{NewRect(0, 0, 10, 10), NewRect(5, 0, 10, 10), NewRect(300, 300, 10, 10)}
	boxes := []Rectangle{NewRect(4, 0, 10, 10), NewRect(3, 0, 10, 10), NewRect(2, 0, 10, 10), NewRect(600, 0, 10, 10)}
	assignment := firstFitAssign(hyps, boxes, 10)
	expected := []int{0, 1, -1, -1}
	for i := range expected {
		if assignment[i] != expected[i] {
			t.Errorf("box %d: assigned to %d, expected %d", i, assignment[i], expected[i])
		}
	}
}
