package modal

import "time"

// LaneResult is the normalized output of one analysis lane. Produced exactly
// once per lane per workflow pass; consumed only by the synthesizer.
type LaneResult struct {
	Lane           LaneName       `json:"lane"`
	Analysis       string         `json:"analysis"`
	Confidence     float64        `json:"confidence"`
	Evidence       []string       `json:"evidence,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Duration       time.Duration  `json:"duration"`
}

// LaneFailure records a lane that produced no result. Failures degrade the
// assessment instead of failing the workflow.
type LaneFailure struct {
	Lane    LaneName   `json:"lane"`
	Class   ErrorClass `json:"class"`
	Message string     `json:"message,omitempty"`
}
