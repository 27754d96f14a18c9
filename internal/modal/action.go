package modal

import "time"

// ActionOutcome is the result of one external action call. Every attempt is
// recorded; a retried action never silently overwrites its failed attempt.
type ActionOutcome struct {
	Kind      ActionKind    `json:"kind"`
	Success   bool          `json:"success"`
	Reference string        `json:"reference,omitempty"`
	Error     string        `json:"error,omitempty"`
	Class     ErrorClass    `json:"class,omitempty"`
	Latency   time.Duration `json:"latency"`
}

// DisputeOutcome is the terminal result of a workflow run.
type DisputeOutcome struct {
	DisputeID       string        `json:"disputeId"`
	Status          DisputeStatus `json:"status"`
	CustomerMessage string        `json:"customerMessage"`
	CaseNote        string        `json:"caseNote"`
	Confidence      float64       `json:"confidence"`
	CreditIssued    bool          `json:"creditIssued"`
	CreditAmount    float64       `json:"creditAmount"`
	Passes          int           `json:"passes"`
	CritiqueCaveat  string        `json:"critiqueCaveat,omitempty"`
}
