package modal

// LaneVote records how one contributing lane leaned, so the critic can spot
// unexplained contradictions after synthesis.
type LaneVote struct {
	Lane           LaneName       `json:"lane"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
}

// Assessment is the synthesis of all lane results for one pass. A loop-back
// produces a new Assessment; the previous one is superseded, not mutated.
type Assessment struct {
	Confidence     float64        `json:"confidence"`
	Recommendation Recommendation `json:"recommendation"`
	Evidence       []string       `json:"evidence,omitempty"`
	Lanes          []LaneVote     `json:"lanes,omitempty"`
	Failures       []LaneFailure  `json:"failures,omitempty"`
}
