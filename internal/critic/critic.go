// Package critic re-evaluates a completed pass against a fixed quality rule
// set. It runs after the Act stage so it judges real action outcomes, not
// hypothetical ones.
package critic

import (
	"fmt"

	"dispute-resolution-service/internal/modal"
)

// Category separates analysis-quality failures, which are worth another
// planning pass, from execution failures, which re-planning cannot fix.
type Category string

const (
	CategoryNone      Category = ""
	CategoryAnalysis  Category = "analysis"
	CategoryExecution Category = "execution"
)

type Verdict struct {
	Pass     bool
	Category Category
	Reasons  []string
}

func (v Verdict) Summary() string {
	if v.Pass {
		return "pass"
	}
	out := "fail (" + string(v.Category) + "):"
	for _, r := range v.Reasons {
		out += " " + r + ";"
	}
	return out
}

type Input struct {
	Assessment      modal.Assessment
	Actions         []modal.ActionOutcome
	Required        []modal.ActionKind // actions mandated by the decision
	CustomerMessage string
	CaseNote        string
	MinConfidence   float64
	DenyThreshold   float64
}

// Evaluate applies the rule set and returns a verdict. Execution failures
// take precedence for categorization: re-planning the analysis cannot fix a
// failed filing.
func Evaluate(in Input) Verdict {
	var analysis, execution []string

	if in.Assessment.Confidence < in.MinConfidence {
		analysis = append(analysis, fmt.Sprintf("overall confidence %.2f below %.2f", in.Assessment.Confidence, in.MinConfidence))
	}
	if len(in.Assessment.Evidence) == 0 {
		analysis = append(analysis, fmt.Sprintf("no evidence supports the %s recommendation", in.Assessment.Recommendation))
	}
	if in.CustomerMessage == "" || in.CaseNote == "" {
		analysis = append(analysis, "generated artifacts are incomplete")
	}

	// Contradiction check: approving over a confident Deny vote needs a
	// better explanation than this pass produced.
	if in.Assessment.Recommendation == modal.RecommendApprove {
		for _, v := range in.Assessment.Lanes {
			if v.Recommendation == modal.RecommendDeny && v.Confidence >= in.DenyThreshold {
				analysis = append(analysis, fmt.Sprintf("lane %s voted Deny at %.2f but the pass approves", v.Lane, v.Confidence))
			}
		}
	}

	outcomes := make(map[modal.ActionKind]modal.ActionOutcome, len(in.Actions))
	for _, o := range in.Actions {
		outcomes[o.Kind] = o
	}
	for _, kind := range in.Required {
		o, ok := outcomes[kind]
		switch {
		case !ok:
			execution = append(execution, fmt.Sprintf("required action %s was never executed", kind))
		case !o.Success:
			execution = append(execution, fmt.Sprintf("required action %s failed (%s)", kind, o.Class))
		}
	}

	if len(analysis) == 0 && len(execution) == 0 {
		return Verdict{Pass: true}
	}
	v := Verdict{Category: CategoryAnalysis, Reasons: append(analysis, execution...)}
	if len(execution) > 0 {
		v.Category = CategoryExecution
	}
	return v
}
