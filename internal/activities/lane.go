package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"dispute-resolution-service/internal/modal"
	"dispute-resolution-service/internal/oracle"
)

type LaneInput struct {
	Case modal.DisputeCase
	Lane modal.LaneName
}

// AnalyzeLane runs one analysis lane: a bounded conversation with the oracle
// in which the lane executes the tools the oracle selects and feeds the
// results back until the oracle produces a structured judgement.
func (a *Activities) AnalyzeLane(ctx context.Context, in LaneInput) (modal.LaneResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()

	tools := toolsForLane(in.Lane)
	if len(tools) == 0 {
		return modal.LaneResult{}, validationErr(fmt.Sprintf("unknown lane %q", in.Lane))
	}

	var results []oracle.ToolResult
	for turn := 0; turn < a.MaxOracleTurns; turn++ {
		d, err := a.Oracle.Invoke(ctx, oracle.Request{
			System:  systemPromptFor(in.Lane),
			Case:    in.Case,
			Tools:   tools,
			Results: results,
		})
		if err != nil {
			return modal.LaneResult{}, classified(err)
		}

		switch {
		case d.ToolCall != nil:
			if !declared(tools, d.ToolCall.Tool) {
				return modal.LaneResult{}, validationErr(fmt.Sprintf("oracle selected undeclared tool %q for lane %s", d.ToolCall.Tool, in.Lane))
			}
			logger.Info("executing tool", "lane", in.Lane, "tool", d.ToolCall.Tool)
			results = append(results, a.execTool(d.ToolCall.Tool, in.Case))

		case d.Completion != nil:
			if err := validateCompletion(d.Completion); err != nil {
				return modal.LaneResult{}, err
			}
			return modal.LaneResult{
				Lane:           in.Lane,
				Analysis:       d.Completion.Analysis,
				Confidence:     d.Completion.Confidence,
				Evidence:       d.Completion.Evidence,
				Recommendation: d.Completion.Recommendation,
				Duration:       time.Since(start),
			}, nil

		default:
			return modal.LaneResult{}, validationErr("oracle returned neither a tool call nor a completion")
		}
	}

	return modal.LaneResult{}, validationErr(fmt.Sprintf("lane %s exceeded %d oracle turns without a judgement", in.Lane, a.MaxOracleTurns))
}

// execTool dispatches over the closed tool set. Dataset errors become tool
// errors in the conversation, not lane aborts: the oracle decides what a
// degraded result is worth.
func (a *Activities) execTool(tool oracle.Tool, c modal.DisputeCase) oracle.ToolResult {
	var payload any
	var err error

	switch tool {
	case oracle.ToolSearchPastDisputes:
		var disputes []modal.PastDispute
		disputes, err = a.Data.DisputesByMerchant(c.MerchantName)
		payload = oracle.PastDisputesPayload{MerchantDisputes: disputes}
	case oracle.ToolCustomerHistory:
		var disputes []modal.PastDispute
		disputes, err = a.Data.DisputesByCustomer(c.CustomerID)
		payload = oracle.PastDisputesPayload{CustomerDisputes: disputes}
	case oracle.ToolAssessMerchantRisk:
		var risk *modal.MerchantRisk
		risk, err = a.Data.RiskByMerchant(c.MerchantName)
		payload = oracle.MerchantRiskPayload{Risk: risk}
	case oracle.ToolCheckNetworkRules:
		var rules []modal.NetworkRule
		rules, err = a.Data.RulesByCategory(c.Category)
		payload = oracle.NetworkRulesPayload{Rules: rules}
	case oracle.ToolCheckPolicies:
		var policies []modal.DisputePolicy
		policies, err = a.Data.PoliciesByCategory(c.Category, c.Amount)
		payload = oracle.PoliciesPayload{Policies: policies}
	default:
		return oracle.ToolResult{Tool: tool, Err: fmt.Sprintf("tool %q is not implemented", tool)}
	}

	if err != nil {
		return oracle.ToolResult{Tool: tool, Err: err.Error()}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return oracle.ToolResult{Tool: tool, Err: err.Error()}
	}
	return oracle.ToolResult{Tool: tool, Payload: string(raw)}
}

func toolsForLane(lane modal.LaneName) []oracle.Tool {
	switch lane {
	case modal.LanePastDisputes:
		return []oracle.Tool{oracle.ToolSearchPastDisputes, oracle.ToolCustomerHistory}
	case modal.LaneMerchantRisk:
		return []oracle.Tool{oracle.ToolAssessMerchantRisk}
	case modal.LaneNetworkRules:
		return []oracle.Tool{oracle.ToolCheckNetworkRules, oracle.ToolCheckPolicies}
	default:
		return nil
	}
}

func systemPromptFor(lane modal.LaneName) string {
	switch lane {
	case modal.LanePastDisputes:
		return "Analyze historical dispute patterns for the merchant and the customer."
	case modal.LaneMerchantRisk:
		return "Assess the merchant's risk profile as it bears on this dispute."
	case modal.LaneNetworkRules:
		return "Determine which network rules and policies apply to this dispute."
	default:
		return ""
	}
}

func declared(tools []oracle.Tool, t oracle.Tool) bool {
	for _, d := range tools {
		if d == t {
			return true
		}
	}
	return false
}

// validateCompletion enforces the structured output schema. A malformed
// completion is a hard lane failure, never silently coerced.
func validateCompletion(c *oracle.Completion) error {
	if c.Analysis == "" {
		return validationErr("completion missing analysis text")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return validationErr(fmt.Sprintf("completion confidence %.3f outside [0, 1]", c.Confidence))
	}
	switch c.Recommendation {
	case modal.RecommendApprove, modal.RecommendDeny, modal.RecommendNeedsReview:
		return nil
	default:
		return validationErr(fmt.Sprintf("completion recommendation %q is not recognized", c.Recommendation))
	}
}
