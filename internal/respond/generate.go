// Package respond turns an assessment into customer-facing text and an
// internal case note. Pure transformation: no I/O, no clock, deterministic
// for identical inputs.
package respond

import (
	"fmt"
	"strings"

	"dispute-resolution-service/internal/modal"
)

// Generate drafts the customer message and the back-office case note. The
// case note carries the assessment evidence verbatim; only the customer text
// summarizes.
func Generate(c modal.DisputeCase, a modal.Assessment) (customerMessage, caseNote string) {
	return customerText(c, a), noteText(c, a)
}

func customerText(c modal.DisputeCase, a modal.Assessment) string {
	var b strings.Builder
	b.WriteString("Dear Valued Customer,\n\n")

	switch a.Recommendation {
	case modal.RecommendApprove:
		fmt.Fprintf(&b, "Thank you for contacting us about the $%.2f charge from %s. Our investigation supports your dispute and we are filing it with the payment network (reference %s).\n\n", c.Amount, c.MerchantName, c.DisputeID)
		b.WriteString("We will keep you updated; you can expect a resolution within 10 business days.\n")
	case modal.RecommendDeny:
		fmt.Fprintf(&b, "Thank you for contacting us about the $%.2f charge from %s. After reviewing your account and the transaction details, we are unable to pursue a dispute for this charge.\n\n", c.Amount, c.MerchantName)
		b.WriteString("Please contact customer service if you have additional documentation to support your claim.\n")
	default:
		fmt.Fprintf(&b, "Thank you for contacting us about the $%.2f charge from %s. Your dispute (reference %s) requires further review by a specialist.\n\n", c.Amount, c.MerchantName, c.DisputeID)
		b.WriteString("We will contact you within 2 business days with an update.\n")
	}

	b.WriteString("\nBest regards,\nCustomer Service Team")
	return b.String()
}

func noteText(c modal.DisputeCase, a modal.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case %s: %s dispute of $%.2f against %s (card ****%s, customer %s).\n",
		c.DisputeID, c.Category, c.Amount, c.MerchantName, c.CardLastFour, c.CustomerID)
	fmt.Fprintf(&b, "Recommendation: %s (confidence %.2f).\n", a.Recommendation, a.Confidence)

	if len(a.Lanes) > 0 {
		b.WriteString("Lane votes:\n")
		for _, v := range a.Lanes {
			fmt.Fprintf(&b, "  %s: %s (%.2f)\n", v.Lane, v.Recommendation, v.Confidence)
		}
	}
	for _, f := range a.Failures {
		fmt.Fprintf(&b, "Lane %s produced no result: %s.\n", f.Lane, f.Class)
	}

	// Evidence is quoted verbatim; auditors compare it against lane output.
	b.WriteString("Evidence:\n")
	if len(a.Evidence) == 0 {
		b.WriteString("  (none collected)\n")
	}
	for _, e := range a.Evidence {
		b.WriteString("  " + e + "\n")
	}

	return b.String()
}
