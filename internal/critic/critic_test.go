package critic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dispute-resolution-service/internal/modal"
)

func passingInput() Input {
	return Input{
		Assessment: modal.Assessment{
			Confidence:     0.8,
			Recommendation: modal.RecommendApprove,
			Evidence:       []string{"[past_disputes] three prior approvals"},
			Lanes: []modal.LaneVote{
				{Lane: modal.LanePastDisputes, Recommendation: modal.RecommendApprove, Confidence: 0.8},
			},
		},
		Actions: []modal.ActionOutcome{
			{Kind: modal.ActionFileDispute, Success: true, Reference: "REF123"},
			{Kind: modal.ActionNotifyCustomer, Success: true, Reference: "NOT123"},
		},
		Required:        []modal.ActionKind{modal.ActionFileDispute, modal.ActionNotifyCustomer},
		CustomerMessage: "Dear Valued Customer, ...",
		CaseNote:        "Case DSP1 ...",
		MinConfidence:   0.6,
		DenyThreshold:   0.8,
	}
}

func TestEvaluatePasses(t *testing.T) {
	v := Evaluate(passingInput())
	assert.True(t, v.Pass)
	assert.Equal(t, CategoryNone, v.Category)
	assert.Empty(t, v.Reasons)
	assert.Equal(t, "pass", v.Summary())
}

func TestEvaluateLowConfidenceIsAnalysisFailure(t *testing.T) {
	in := passingInput()
	in.Assessment.Confidence = 0.4

	v := Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, CategoryAnalysis, v.Category)
	assert.Len(t, v.Reasons, 1)
}

func TestEvaluateNoEvidenceIsAnalysisFailure(t *testing.T) {
	in := passingInput()
	in.Assessment.Evidence = nil

	v := Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, CategoryAnalysis, v.Category)
}

func TestEvaluateApproveOverConfidentDeny(t *testing.T) {
	in := passingInput()
	in.Assessment.Lanes = append(in.Assessment.Lanes, modal.LaneVote{
		Lane: modal.LaneMerchantRisk, Recommendation: modal.RecommendDeny, Confidence: 0.85,
	})

	v := Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, CategoryAnalysis, v.Category)
}

func TestEvaluateFailedRequiredActionIsExecutionFailure(t *testing.T) {
	in := passingInput()
	in.Actions[0] = modal.ActionOutcome{Kind: modal.ActionFileDispute, Success: false, Class: modal.ErrTransient}

	v := Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, CategoryExecution, v.Category)
}

func TestEvaluateMissingRequiredActionIsExecutionFailure(t *testing.T) {
	in := passingInput()
	in.Actions = in.Actions[1:] // filing never ran

	v := Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, CategoryExecution, v.Category)
}

// Execution wins categorization when both kinds of reason are present, so
// the workflow never loops back over a failure re-planning cannot fix.
func TestEvaluateExecutionTakesPrecedence(t *testing.T) {
	in := passingInput()
	in.Assessment.Confidence = 0.2
	in.Actions[0].Success = false

	v := Evaluate(in)
	assert.False(t, v.Pass)
	assert.Equal(t, CategoryExecution, v.Category)
	assert.Len(t, v.Reasons, 2)
}
