package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"dispute-resolution-service/internal/modal"
)

type SimulatedConfig struct {
	Latency     time.Duration
	FailureRate float64 // probability of a transient failure per invocation
	Seed        int64
}

// Simulated is a deterministic stand-in for the reasoning oracle. It asks
// for the lane's tools first, then derives a structured judgement from the
// tool results. Latency and transient failures are simulated so callers
// must handle them, not assume them away.
type Simulated struct {
	cfg SimulatedConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulated(cfg SimulatedConfig) *Simulated {
	return &Simulated{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

func (s *Simulated) Invoke(ctx context.Context, req Request) (Decision, error) {
	if err := sleep(ctx, s.cfg.Latency); err != nil {
		return Decision{}, &Error{Class: modal.ErrTimeout, Message: err.Error()}
	}
	if s.roll() < s.cfg.FailureRate {
		return Decision{}, &Error{Class: modal.ErrTransient, Message: "rate limited, retry later"}
	}

	if len(req.Tools) == 0 {
		return Decision{Completion: s.plan(req.Case)}, nil
	}

	seen := make(map[Tool]ToolResult, len(req.Results))
	for _, r := range req.Results {
		seen[r.Tool] = r
	}
	for _, t := range req.Tools {
		if _, ok := seen[t]; !ok {
			return Decision{ToolCall: &ToolCall{Tool: t, Args: argsFor(t, req.Case)}}, nil
		}
	}

	c, err := s.judge(req.Tools[0], req.Case, seen)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Completion: c}, nil
}

func (s *Simulated) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Simulated) plan(c modal.DisputeCase) *Completion {
	return &Completion{
		Analysis: fmt.Sprintf(
			"Investigate the %s dispute of $%.2f against %s: review the customer's dispute history, assess merchant risk signals, and check applicable network rules before deciding.",
			c.Category, c.Amount, c.MerchantName),
		Confidence:     0.5,
		Recommendation: modal.RecommendNeedsReview,
	}
}

// judge builds a completion from the primary tool's results, using simple
// heuristics over record counts and scores.
func (s *Simulated) judge(primary Tool, c modal.DisputeCase, seen map[Tool]ToolResult) (*Completion, error) {
	switch primary {
	case ToolSearchPastDisputes, ToolCustomerHistory:
		return judgePastDisputes(c, seen)
	case ToolAssessMerchantRisk:
		return judgeMerchantRisk(c, seen)
	case ToolCheckNetworkRules, ToolCheckPolicies:
		return judgeNetworkRules(c, seen)
	default:
		return nil, &Error{Class: modal.ErrValidation, Message: fmt.Sprintf("unknown tool %q", primary)}
	}
}

func judgePastDisputes(c modal.DisputeCase, seen map[Tool]ToolResult) (*Completion, error) {
	var merchant, customer []modal.PastDispute
	if r, ok := seen[ToolSearchPastDisputes]; ok {
		var p PastDisputesPayload
		if err := decode(r, &p); err != nil {
			return nil, err
		}
		merchant = p.MerchantDisputes
	}
	if r, ok := seen[ToolCustomerHistory]; ok {
		var p PastDisputesPayload
		if err := decode(r, &p); err != nil {
			return nil, err
		}
		customer = p.CustomerDisputes
	}

	conf := 0.5 + 0.1*float64(len(merchant)) + 0.05*float64(len(customer))
	if conf > 0.9 {
		conf = 0.9
	}

	approved := 0
	for _, d := range merchant {
		if d.Resolution == "Approved" {
			approved++
		}
	}

	rec := modal.RecommendNeedsReview
	switch {
	case len(customer) > 3:
		rec = modal.RecommendNeedsReview
	case len(merchant) > 0 && approved*2 > len(merchant):
		rec = modal.RecommendApprove
	case len(merchant) > 0 && approved == 0:
		rec = modal.RecommendDeny
	}

	var ev []string
	ev = append(ev, fmt.Sprintf("%d past disputes on record for %s, %d resolved in the customer's favor", len(merchant), c.MerchantName, approved))
	ev = append(ev, fmt.Sprintf("customer %s has %d prior disputes", c.CustomerID, len(customer)))

	return &Completion{
		Analysis:       fmt.Sprintf("Historical dispute patterns for %s reviewed against the customer's own record.", c.MerchantName),
		Confidence:     conf,
		Evidence:       ev,
		Recommendation: rec,
	}, nil
}

func judgeMerchantRisk(c modal.DisputeCase, seen map[Tool]ToolResult) (*Completion, error) {
	var p MerchantRiskPayload
	if r, ok := seen[ToolAssessMerchantRisk]; ok {
		if err := decode(r, &p); err != nil {
			return nil, err
		}
	}

	if p.Risk == nil {
		return &Completion{
			Analysis:       fmt.Sprintf("No risk profile on file for %s; cannot weigh merchant conduct either way.", c.MerchantName),
			Confidence:     0.3,
			Evidence:       []string{fmt.Sprintf("no risk profile on file for %s", c.MerchantName)},
			Recommendation: modal.RecommendNeedsReview,
		}, nil
	}

	conf := 0.7 + (10-p.Risk.RiskScore)*0.03
	if conf > 0.95 {
		conf = 0.95
	}
	if conf < 0.1 {
		conf = 0.1
	}

	rec := modal.RecommendNeedsReview
	switch {
	case p.Risk.RiskScore >= 7:
		rec = modal.RecommendApprove // risky merchant supports the customer's claim
	case p.Risk.RiskScore <= 3:
		rec = modal.RecommendDeny
	}

	ev := []string{
		fmt.Sprintf("merchant risk score %.1f with dispute rate %.2f%%", p.Risk.RiskScore, p.Risk.DisputeRate),
		fmt.Sprintf("%d fraud incidents across %d transactions in the last 90 days", p.Risk.FraudIncidents90d, p.Risk.TotalTransactions90),
	}
	if p.Risk.RiskFactors != "" {
		ev = append(ev, "risk factors: "+p.Risk.RiskFactors)
	}

	return &Completion{
		Analysis:       fmt.Sprintf("Risk profile for %s evaluated against the disputed amount of $%.2f.", c.MerchantName, c.Amount),
		Confidence:     conf,
		Evidence:       ev,
		Recommendation: rec,
	}, nil
}

func judgeNetworkRules(c modal.DisputeCase, seen map[Tool]ToolResult) (*Completion, error) {
	var p NetworkRulesPayload
	if r, ok := seen[ToolCheckNetworkRules]; ok {
		if err := decode(r, &p); err != nil {
			return nil, err
		}
	}

	if len(p.Rules) == 0 {
		return &Completion{
			Analysis:       fmt.Sprintf("No network rules match the %s category; eligibility is unclear.", c.Category),
			Confidence:     0.4,
			Evidence:       []string{fmt.Sprintf("no network rules found for category %s", c.Category)},
			Recommendation: modal.RecommendNeedsReview,
		}, nil
	}

	var sum float64
	for _, r := range p.Rules {
		sum += r.SuccessRate
	}
	avg := sum / float64(len(p.Rules))

	conf := avg / 100
	if conf > 0.9 {
		conf = 0.9
	}

	rec := modal.RecommendNeedsReview
	switch {
	case avg >= 60:
		rec = modal.RecommendApprove
	case avg < 40:
		rec = modal.RecommendDeny
	}

	ev := make([]string, 0, len(p.Rules)+1)
	ev = append(ev, fmt.Sprintf("%d applicable network rules, mean success rate %.0f%%", len(p.Rules), avg))
	for _, r := range p.Rules {
		ev = append(ev, fmt.Sprintf("rule %s (%s): %s, %d day limit", r.RuleID, r.Network, r.Description, r.TimeLimitDays))
	}

	return &Completion{
		Analysis:       fmt.Sprintf("Chargeback rules for %s disputes evaluated for the $%.2f transaction.", c.Category, c.Amount),
		Confidence:     conf,
		Evidence:       ev,
		Recommendation: rec,
	}, nil
}

func argsFor(t Tool, c modal.DisputeCase) map[string]string {
	switch t {
	case ToolSearchPastDisputes:
		return map[string]string{"merchant_name": c.MerchantName, "category": string(c.Category)}
	case ToolCustomerHistory:
		return map[string]string{"customer_id": c.CustomerID}
	case ToolAssessMerchantRisk:
		return map[string]string{"merchant_name": c.MerchantName}
	case ToolCheckNetworkRules:
		return map[string]string{"dispute_category": string(c.Category), "transaction_amount": fmt.Sprintf("%.2f", c.Amount)}
	case ToolCheckPolicies:
		return map[string]string{"category": string(c.Category), "amount": fmt.Sprintf("%.2f", c.Amount)}
	}
	return nil
}

func decode(r ToolResult, v any) error {
	if r.Err != "" {
		// Tool-level errors reach the oracle as degraded context, not as a
		// reason to abort; treat missing payloads as empty.
		return nil
	}
	if r.Payload == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(r.Payload), v); err != nil {
		return &Error{Class: modal.ErrValidation, Message: fmt.Sprintf("malformed %s payload: %v", r.Tool, err)}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
