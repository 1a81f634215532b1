package mot

import (
	"github.com/arthurkushman/go-hungarian"
)

// AssignmentAudit compares the first-fit association the tracker performs with the optimal one.
// Optimal assignment maximizes total closeness over almost similar (hypothesis, box) pairs,
// so OptimalScore is never below FirstFitScore.
type AssignmentAudit struct {
	// FirstFit[i] is the hypothesis index claimed by box i (or -1)
	FirstFit []int
	// Optimal[i] is the hypothesis index assigned to box i by the maximum closeness assignment (or -1)
	Optimal []int
	// Box indices where two assignments differ
	Divergent     []int
	FirstFitScore float64
	OptimalScore  float64
}

// Diverged reports whether first-fit association is strictly worse than the optimal one
func (audit AssignmentAudit) Diverged() bool {
	return audit.OptimalScore > audit.FirstFitScore
}

// AuditAssignment computes both first-fit and optimal associations for the given working set and candidate boxes.
// Nothing is mutated: the audit never affects the tracker's behaviour.
func AuditAssignment(hypotheses []Hypothesis, boxes []Rectangle, tolerance int) AssignmentAudit {
	hBoxes := make([]Rectangle, len(hypotheses))
	for i := range hypotheses {
		hBoxes[i] = hypotheses[i].bbox
	}
	scores := closenessMatrix(hBoxes, boxes, tolerance)

	firstFit := firstFitAssign(hBoxes, boxes, tolerance)
	audit := AssignmentAudit{
		FirstFit:  firstFit,
		Optimal:   optimalAssign(scores, len(hBoxes), len(boxes), firstFit),
		Divergent: make([]int, 0),
	}
	for i := range boxes {
		if audit.FirstFit[i] >= 0 {
			audit.FirstFitScore += scores[audit.FirstFit[i]][i]
		}
		if audit.Optimal[i] >= 0 {
			audit.OptimalScore += scores[audit.Optimal[i]][i]
		}
		if audit.FirstFit[i] != audit.Optimal[i] {
			audit.Divergent = append(audit.Divergent, i)
		}
	}
	return audit
}

// AuditFrame audits association of the given boxes against tracker's current working set
func (tracker *PersistenceTracker) AuditFrame(boxes []Rectangle) AssignmentAudit {
	return AuditAssignment(tracker.Hypotheses(), boxes, tracker.maxSimilarDistance)
}

// closenessMatrix builds [hypotheses x boxes] matrix. Pairs which are not almost similar get zero score,
// the rest get 4*tolerance minus Manhattan distance over (x, y, width, height), which is always positive.
func closenessMatrix(hBoxes, boxes []Rectangle, tolerance int) [][]float64 {
	scores := make([][]float64, len(hBoxes))
	for i, hBox := range hBoxes {
		scores[i] = make([]float64, len(boxes))
		for j, box := range boxes {
			if AreAlmostSimilar(hBox, box, tolerance) {
				scores[i][j] = float64(4*tolerance - manhattanDistance(hBox, box))
			}
		}
	}
	return scores
}

// exactAssignLimit is the max number of hypotheses for which exhaustive search over hypothesis subsets is run
const exactAssignLimit = 12

// optimalAssign picks the best of the Hungarian result, the exact search (small working sets only)
// and the first-fit assignment itself. Zero-score pairs are treated as no match
func optimalAssign(scores [][]float64, numHypotheses, numBoxes int, firstFit []int) []int {
	best := unassigned(numBoxes)
	if numHypotheses == 0 || numBoxes == 0 {
		return best
	}
	bestScore := assignmentScore(scores, best)
	// First-fit goes first so that ties keep it and report no divergence
	candidates := [][]int{firstFit, hungarianAssign(scores, numHypotheses, numBoxes)}
	if numHypotheses <= exactAssignLimit {
		candidates = append(candidates, exactAssign(scores, numHypotheses, numBoxes))
	}
	for _, candidate := range candidates {
		if score := assignmentScore(scores, candidate); score > bestScore {
			best, bestScore = append([]int(nil), candidate...), score
		}
	}
	return best
}

// hungarianAssign solves maximization problem via go-hungarian on a square padded matrix.
// The solver may report several columns per row (or reuse a column), so every row and column is taken at most once
func hungarianAssign(scores [][]float64, numHypotheses, numBoxes int) []int {
	assignment := unassigned(numBoxes)
	// Rectangular matrix - pad to make it square
	paddedSize := maxInt(numHypotheses, numBoxes)
	paddedMatrix := make([][]float64, paddedSize)
	for i := 0; i < paddedSize; i++ {
		paddedMatrix[i] = make([]float64, paddedSize)
		if i < numHypotheses {
			copy(paddedMatrix[i], scores[i])
		}
	}
	assignmentsMap := hungarian.SolveMax(paddedMatrix)
	for hIdx := 0; hIdx < numHypotheses; hIdx++ {
		rowMap, ok := assignmentsMap[hIdx]
		if !ok {
			continue
		}
		// Smallest free column with positive score wins; map iteration order is random
		chosen := -1
		for boxIdx := range rowMap {
			if boxIdx < 0 || boxIdx >= numBoxes || assignment[boxIdx] >= 0 || scores[hIdx][boxIdx] <= 0 {
				continue
			}
			if chosen < 0 || boxIdx < chosen {
				chosen = boxIdx
			}
		}
		if chosen >= 0 {
			assignment[chosen] = hIdx
		}
	}
	return assignment
}

// exactAssign finds maximum total score by dynamic programming over (box, used hypotheses) states.
// Complexity is O(numBoxes * 2^numHypotheses * numHypotheses)
func exactAssign(scores [][]float64, numHypotheses, numBoxes int) []int {
	states := 1 << uint(numHypotheses)
	// best[i][mask]: max score reachable for boxes i.. when hypotheses in mask are taken
	best := make([][]float64, numBoxes+1)
	for i := range best {
		best[i] = make([]float64, states)
	}
	for i := numBoxes - 1; i >= 0; i-- {
		for mask := 0; mask < states; mask++ {
			value := best[i+1][mask]
			for h := 0; h < numHypotheses; h++ {
				if mask&(1<<uint(h)) != 0 || scores[h][i] <= 0 {
					continue
				}
				if candidate := scores[h][i] + best[i+1][mask|1<<uint(h)]; candidate > value {
					value = candidate
				}
			}
			best[i][mask] = value
		}
	}
	assignment := unassigned(numBoxes)
	mask := 0
	for i := 0; i < numBoxes; i++ {
		if best[i][mask] == best[i+1][mask] {
			continue
		}
		for h := 0; h < numHypotheses; h++ {
			if mask&(1<<uint(h)) != 0 || scores[h][i] <= 0 {
				continue
			}
			if scores[h][i]+best[i+1][mask|1<<uint(h)] == best[i][mask] {
				assignment[i] = h
				mask |= 1 << uint(h)
				break
			}
		}
	}
	return assignment
}

func assignmentScore(scores [][]float64, assignment []int) float64 {
	total := 0.0
	for boxIdx, hIdx := range assignment {
		if hIdx >= 0 {
			total += scores[hIdx][boxIdx]
		}
	}
	return total
}

func unassigned(numBoxes int) []int {
	assignment := make([]int, numBoxes)
	for i := range assignment {
		assignment[i] = -1
	}
	return assignment
}
