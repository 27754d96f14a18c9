// Package oracle defines the narrow interface to the reasoning oracle and a
// simulated implementation with realistic latency and failure behavior.
package oracle

import (
	"context"
	"fmt"

	"dispute-resolution-service/internal/modal"
)

// Tool names one of the callable tools an oracle may select. The set is
// closed; callers dispatch over it exhaustively and reject anything else.
type Tool string

const (
	ToolSearchPastDisputes Tool = "search_past_disputes"
	ToolCustomerHistory    Tool = "get_customer_dispute_history"
	ToolAssessMerchantRisk Tool = "assess_merchant_risk"
	ToolCheckNetworkRules  Tool = "check_network_rules"
	ToolCheckPolicies      Tool = "check_dispute_policies"
)

// Request carries the prompt context for one invocation. Results holds the
// outputs of tool calls the caller executed on the oracle's behalf earlier
// in the same conversation.
type Request struct {
	System  string
	Case    modal.DisputeCase
	Tools   []Tool
	Results []ToolResult
}

// ToolResult feeds one executed tool call back to the oracle. Payload is the
// JSON encoding of the tool's payload schema (see payloads.go).
type ToolResult struct {
	Tool    Tool
	Payload string
	Err     string
}

// ToolCall asks the caller to execute one declared tool and feed the result
// back before the oracle resumes.
type ToolCall struct {
	Tool Tool
	Args map[string]string
}

// Completion is a structured judgement. Callers validate it against the
// fixed schema; a malformed completion is a hard lane failure.
type Completion struct {
	Analysis       string
	Confidence     float64
	Evidence       []string
	Recommendation modal.Recommendation
}

// Decision is a closed tagged variant: exactly one of ToolCall or Completion
// is set.
type Decision struct {
	ToolCall   *ToolCall
	Completion *Completion
}

type Oracle interface {
	Invoke(ctx context.Context, req Request) (Decision, error)
}

// Error classifies an oracle failure so callers can decide whether to retry.
type Error struct {
	Class   modal.ErrorClass
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle: %s (%s)", e.Message, e.Class)
}
