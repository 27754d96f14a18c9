package respond

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"dispute-resolution-service/internal/modal"
)

func sampleCase() modal.DisputeCase {
	return modal.DisputeCase{
		DisputeID:    "DSP20260831TEST",
		CustomerID:   "CUST001",
		CardLastFour: "4532",
		Amount:       156.78,
		MerchantName: "Acme Corp",
		Category:     modal.CategoryFraud,
		Reason:       "Unauthorized charge",
	}
}

func sampleAssessment(rec modal.Recommendation) modal.Assessment {
	return modal.Assessment{
		Confidence:     0.82,
		Recommendation: rec,
		Evidence: []string{
			"[past_disputes] 3 past disputes on record for Acme Corp, 2 resolved in the customer's favor",
			"[merchant_risk] merchant risk score 7.5 with dispute rate 4.50%",
		},
		Lanes: []modal.LaneVote{
			{Lane: modal.LanePastDisputes, Recommendation: rec, Confidence: 0.8},
		},
	}
}

func TestGenerateDeterministic(t *testing.T) {
	c, a := sampleCase(), sampleAssessment(modal.RecommendApprove)

	m1, n1 := Generate(c, a)
	m2, n2 := Generate(c, a)
	assert.Equal(t, m1, m2)
	assert.Equal(t, n1, n2)
}

// Every piece of assessment evidence appears verbatim in the case note.
func TestGenerateCaseNoteCarriesEvidenceVerbatim(t *testing.T) {
	c, a := sampleCase(), sampleAssessment(modal.RecommendApprove)

	_, note := Generate(c, a)
	for _, e := range a.Evidence {
		assert.Contains(t, note, e)
	}
	assert.Contains(t, note, "Acme Corp")
	assert.Contains(t, note, "0.82")
}

func TestGenerateCaseNoteWithoutEvidence(t *testing.T) {
	a := sampleAssessment(modal.RecommendNeedsReview)
	a.Evidence = nil

	_, note := Generate(sampleCase(), a)
	assert.Contains(t, note, "(none collected)")
}

func TestGenerateCustomerTextPerRecommendation(t *testing.T) {
	c := sampleCase()

	approve, _ := Generate(c, sampleAssessment(modal.RecommendApprove))
	assert.Contains(t, approve, "filing it with the payment network")
	assert.Contains(t, approve, c.DisputeID)

	deny, _ := Generate(c, sampleAssessment(modal.RecommendDeny))
	assert.Contains(t, deny, "unable to pursue a dispute")

	review, _ := Generate(c, sampleAssessment(modal.RecommendNeedsReview))
	assert.Contains(t, review, "further review by a specialist")

	for _, msg := range []string{approve, deny, review} {
		assert.True(t, strings.HasPrefix(msg, "Dear Valued Customer,"))
		assert.Contains(t, msg, "$156.78")
	}
}

func TestGenerateNotesLaneFailures(t *testing.T) {
	a := sampleAssessment(modal.RecommendNeedsReview)
	a.Failures = []modal.LaneFailure{{Lane: modal.LaneNetworkRules, Class: modal.ErrTimeout}}

	_, note := Generate(sampleCase(), a)
	assert.Contains(t, note, "network_rules")
	assert.Contains(t, note, "Timeout")
}
