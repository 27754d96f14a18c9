package modal

// Dataset record types. These mirror the CSV fixtures served by the
// read-only dataset service; no query mutates them.

type Transaction struct {
	TransactionID    string  `json:"transactionId"`
	CustomerID       string  `json:"customerId"`
	CardLastFour     string  `json:"cardLastFour"`
	MerchantName     string  `json:"merchantName"`
	MerchantCategory string  `json:"merchantCategory"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Date             string  `json:"date"`
	Status           string  `json:"status"`
	Description      string  `json:"description"`
	Location         string  `json:"location"`
	AuthCode         string  `json:"authCode"`
}

type PastDispute struct {
	DisputeID      string  `json:"disputeId"`
	TransactionID  string  `json:"transactionId"`
	CustomerID     string  `json:"customerId"`
	MerchantName   string  `json:"merchantName"`
	Reason         string  `json:"reason"`
	Category       string  `json:"category"`
	Amount         float64 `json:"amount"`
	DisputeDate    string  `json:"disputeDate"`
	Resolution     string  `json:"resolution"`
	ResolutionDate string  `json:"resolutionDate"`
	Notes          string  `json:"notes"`
}

type MerchantRisk struct {
	MerchantName        string  `json:"merchantName"`
	MerchantID          string  `json:"merchantId"`
	RiskScore           float64 `json:"riskScore"` // 0 (clean) to 10 (worst)
	DisputeRate         float64 `json:"disputeRate"`
	FraudIncidents90d   int     `json:"fraudIncidents90d"`
	TotalTransactions90 int     `json:"totalTransactions90d"`
	ComplianceScore     float64 `json:"complianceScore"`
	RiskFactors         string  `json:"riskFactors"`
}

type NetworkRule struct {
	RuleID                string  `json:"ruleId"`
	Network               string  `json:"network"`
	RuleType              string  `json:"ruleType"`
	Description           string  `json:"description"`
	TimeLimitDays         int     `json:"timeLimitDays"`
	LiabilityShift        string  `json:"liabilityShift"`
	DocumentationRequired string  `json:"documentationRequired"`
	SuccessRate           float64 `json:"successRate"` // percentage
}

type DisputePolicy struct {
	PolicyID               string  `json:"policyId"`
	Category               string  `json:"category"`
	Subcategory            string  `json:"subcategory"`
	TimeLimitHours         int     `json:"timeLimitHours"`
	MaxAmount              float64 `json:"maxAmount"`
	AutoApproveThreshold   float64 `json:"autoApproveThreshold"`
	InvestigationRequired  bool    `json:"investigationRequired"`
	TemporaryCreditAllowed bool    `json:"temporaryCreditAllowed"`
	ProcessingTimeDays     int     `json:"processingTimeDays"`
	SuccessRate            float64 `json:"successRate"`
}
