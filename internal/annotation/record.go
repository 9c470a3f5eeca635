package annotation

import "time"

// Record is one finished, submitted judgment for one pair by one
// annotator. Immutable; appended to the remote sheet and never stored
// locally beyond that.
type Record struct {
	Timestamp           time.Time
	AnnotatorID         string
	PairIndex           int
	ImageA              string
	ImageB              string
	GroundTruth         string
	CelebID             string
	HumanDecision       string
	InitialExplanation  string
	IsCorrect           bool
	FollowupExplanation string // set only when IsCorrect is false
}
