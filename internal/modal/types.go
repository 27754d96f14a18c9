package modal

type DisputeCategory string

const (
	CategoryFraud              DisputeCategory = "Fraud"
	CategoryBillingError       DisputeCategory = "Billing Error"
	CategoryAuthorizationIssue DisputeCategory = "Authorization Issue"
)

type Recommendation string

const (
	RecommendApprove     Recommendation = "Approve"
	RecommendDeny        Recommendation = "Deny"
	RecommendNeedsReview Recommendation = "NeedsReview"
)

type LaneName string

const (
	LanePastDisputes LaneName = "past_disputes"
	LaneMerchantRisk LaneName = "merchant_risk"
	LaneNetworkRules LaneName = "network_rules"
)

// AllLanes returns the lanes in canonical order. Synthesis and evidence
// merging depend on this order, not on lane completion order.
func AllLanes() []LaneName {
	return []LaneName{LanePastDisputes, LaneMerchantRisk, LaneNetworkRules}
}

type StepStatus string

const (
	StepPending   StepStatus = "Pending"
	StepRunning   StepStatus = "Running"
	StepSucceeded StepStatus = "Succeeded"
	StepFailed    StepStatus = "Failed"
)

// ErrorClass partitions failures by how callers should react: Transient
// errors are retried with backoff, Validation and Fatal errors are not,
// Timeout preserves whatever partial results exist.
type ErrorClass string

const (
	ErrTransient  ErrorClass = "Transient"
	ErrValidation ErrorClass = "Validation"
	ErrTimeout    ErrorClass = "Timeout"
	ErrFatal      ErrorClass = "Fatal"
)

type ActionKind string

const (
	ActionFileDispute     ActionKind = "file_dispute"
	ActionTemporaryCredit ActionKind = "temporary_credit"
	ActionNotifyCustomer  ActionKind = "notify_customer"
)

type DisputeStatus string

const (
	StatusFiled       DisputeStatus = "Filed"
	StatusDenied      DisputeStatus = "Denied"
	StatusNeedsReview DisputeStatus = "NeedsReview"
	StatusFailed      DisputeStatus = "Failed"
)
