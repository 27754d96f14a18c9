package oracle

import "dispute-resolution-service/internal/modal"

// Fixed payload schemas for tool results. The lane executor encodes these,
// the oracle decodes them; anything else is a schema violation.

type PastDisputesPayload struct {
	MerchantDisputes []modal.PastDispute `json:"merchantDisputes"`
	CustomerDisputes []modal.PastDispute `json:"customerDisputes"`
}

type MerchantRiskPayload struct {
	Risk *modal.MerchantRisk `json:"risk"` // nil when no record exists
}

type NetworkRulesPayload struct {
	Rules []modal.NetworkRule `json:"rules"`
}

type PoliciesPayload struct {
	Policies []modal.DisputePolicy `json:"policies"`
}
