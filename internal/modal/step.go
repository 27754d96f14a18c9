package modal

import "time"

// AgentStep is one audit record per workflow stage. Steps are appended at
// stage entry and updated in place at stage exit; the ordered sequence is
// the audit trail and is never reordered or deleted.
type AgentStep struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    time.Time  `json:"endedAt,omitempty"`
	Confidence float64    `json:"confidence"` // meaningful only when Status is Succeeded
	Reasoning  string     `json:"reasoning,omitempty"`
	Evidence   []string   `json:"evidence,omitempty"`
}
