// Package annotation holds the per-session annotation run: which pairs
// are done, which pair is current, and the two-stage question flow for
// the pair being shown.
package annotation

import (
	"fmt"
	"sync"
	"time"

	"github.com/facelab/annotator/internal/pairs"
)

// Stage is the per-pair position in the question flow.
type Stage string

const (
	// StageInitial: waiting for the same/different decision plus the
	// initial explanation.
	StageInitial Stage = "awaiting_initial"
	// StageFollowup: the decision disagreed with ground truth; waiting
	// for the reflection explanation before the record is complete.
	StageFollowup Stage = "awaiting_followup"
)

// pending holds the initial answer while a followup is outstanding.
type pending struct {
	pair        pairs.Pair
	decision    string
	explanation string
}

// Run is one annotator's traversal of the pairs table. One Run belongs
// to exactly one browser session; it is never shared across sessions.
type Run struct {
	mu          sync.Mutex
	annotatorID string
	completed   map[int]bool
	stage       Stage
	pending     *pending
}

// NewRun starts a run for an annotator. completed seeds the set of
// already-annotated pair indexes (recovered from the sheet on login) and
// may be nil.
func NewRun(annotatorID string, completed map[int]bool) *Run {
	done := make(map[int]bool, len(completed))
	for idx := range completed {
		done[idx] = true
	}
	return &Run{
		annotatorID: annotatorID,
		completed:   done,
		stage:       StageInitial,
	}
}

func (r *Run) AnnotatorID() string {
	return r.annotatorID
}

// Stage returns the question-flow position for the current pair.
func (r *Run) Stage() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

// Current returns the first pair in table order not yet completed.
// ok is false when the whole table has been annotated.
func (r *Run) Current(table []pairs.Pair) (p pairs.Pair, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, candidate := range table {
		if !r.completed[candidate.Index] {
			return candidate, true
		}
	}
	return pairs.Pair{}, false
}

// CompletedCount returns how many pairs from the table are done.
func (r *Run) CompletedCount(table []pairs.Pair) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range table {
		if r.completed[p.Index] {
			n++
		}
	}
	return n
}

// SubmitInitial records the decision and explanation for the current
// pair. When the decision matches ground truth the returned record is
// complete and ready to append; otherwise the run enters the followup
// stage and the record is nil until SubmitFollowup.
func (r *Run) SubmitInitial(p pairs.Pair, decision, explanation string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stage != StageInitial {
		return nil, fmt.Errorf("pair %d: already answered, awaiting followup", r.pending.pair.Index)
	}
	if decision != pairs.GroundTruthSame && decision != pairs.GroundTruthDifferent {
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

	if decision == p.GroundTruth {
		rec := r.assemble(p, decision, explanation, "")
		return &rec, nil
	}

	r.pending = &pending{pair: p, decision: decision, explanation: explanation}
	r.stage = StageFollowup
	return nil, nil
}

// SubmitFollowup completes the record for an incorrectly answered pair.
func (r *Run) SubmitFollowup(explanation string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stage != StageFollowup || r.pending == nil {
		return nil, fmt.Errorf("no followup outstanding")
	}

	rec := r.assemble(r.pending.pair, r.pending.decision, r.pending.explanation, explanation)
	return &rec, nil
}

// assemble builds a record; callers hold the lock.
func (r *Run) assemble(p pairs.Pair, decision, initial, followup string) Record {
	return Record{
		Timestamp:           time.Now(),
		AnnotatorID:         r.annotatorID,
		PairIndex:           p.Index,
		ImageA:              p.ImageA,
		ImageB:              p.ImageB,
		GroundTruth:         p.GroundTruth,
		CelebID:             p.CelebID,
		HumanDecision:       decision,
		InitialExplanation:  initial,
		IsCorrect:           decision == p.GroundTruth,
		FollowupExplanation: followup,
	}
}

// Complete marks a pair done and resets the flow for the next pair.
// Called only after the sheet append succeeded; a failed append leaves
// the run exactly where it was so the annotator can resubmit.
func (r *Run) Complete(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed[index] = true
	r.stage = StageInitial
	r.pending = nil
}

// GroundTruthHint returns the ground truth of the pending pair while in
// the followup stage, so the review step can show the correct answer.
func (r *Run) GroundTruthHint() (truth string, decision string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stage != StageFollowup || r.pending == nil {
		return "", "", false
	}
	return r.pending.pair.GroundTruth, r.pending.decision, true
}

// Restart clears all progress so the annotator can re-annotate every pair.
func (r *Run) Restart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = make(map[int]bool)
	r.stage = StageInitial
	r.pending = nil
}
