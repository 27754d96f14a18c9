package modal

// DisputeCase is the immutable input to a workflow run. UserID and SessionID
// are opaque correlation identifiers and are never interpreted.
type DisputeCase struct {
	DisputeID    string          `json:"disputeId"`
	CustomerID   string          `json:"customerId"`
	CardLastFour string          `json:"cardLastFour"`
	Amount       float64         `json:"amount"`
	MerchantName string          `json:"merchantName"`
	Category     DisputeCategory `json:"category"`
	Reason       string          `json:"reason"`
	UserID       string          `json:"userId,omitempty"`
	SessionID    string          `json:"sessionId,omitempty"`
}
