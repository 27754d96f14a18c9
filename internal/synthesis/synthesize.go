// Package synthesis merges lane results into a single assessment. Synthesize
// is pure and deterministic: it orders lanes canonically, so lane completion
// order never affects the output.
package synthesis

import (
	"fmt"
	"sort"

	"dispute-resolution-service/internal/modal"
)

type Options struct {
	// DenyThreshold is the confidence at which a single Deny vote dominates
	// the recommendation regardless of other lanes.
	DenyThreshold float64
	// FailurePenalty scales the confidence discount applied per fraction of
	// failed lanes. 1.0 means the aggregate is scaled by succeeded/total.
	FailurePenalty float64
}

func DefaultOptions() Options {
	return Options{DenyThreshold: 0.8, FailurePenalty: 1.0}
}

// Synthesize builds the assessment for one pass. With zero succeeded lanes
// it never fabricates a decision: recommendation NeedsReview, confidence 0.
func Synthesize(results []modal.LaneResult, failures []modal.LaneFailure, opts Options) modal.Assessment {
	results = sortLanes(results)
	failures = sortFailures(failures)

	a := modal.Assessment{
		Recommendation: modal.RecommendNeedsReview,
		Failures:       failures,
	}
	for _, r := range results {
		a.Lanes = append(a.Lanes, modal.LaneVote{
			Lane:           r.Lane,
			Recommendation: r.Recommendation,
			Confidence:     r.Confidence,
		})
	}

	a.Evidence = mergeEvidence(results, failures)

	if len(results) == 0 {
		return a
	}

	a.Confidence = overallConfidence(results, failures, opts)
	a.Recommendation = recommend(results, opts)
	return a
}

// overallConfidence is the evidence-weighted mean of succeeded lanes,
// discounted in proportion to the fraction of lanes that failed. A missing
// lane is never invisible in the aggregate.
func overallConfidence(results []modal.LaneResult, failures []modal.LaneFailure, opts Options) float64 {
	var sum, weight float64
	for _, r := range results {
		w := 1 + float64(len(r.Evidence))
		sum += w * r.Confidence
		weight += w
	}
	mean := sum / weight

	total := len(results) + len(failures)
	discount := 1 - opts.FailurePenalty*float64(len(failures))/float64(total)
	if discount < 0 {
		discount = 0
	}
	return mean * discount
}

func recommend(results []modal.LaneResult, opts Options) modal.Recommendation {
	// A confident Deny from any lane dominates: the conservative lanes exist
	// to stop doubtful approvals.
	for _, r := range results {
		if r.Recommendation == modal.RecommendDeny && r.Confidence >= opts.DenyThreshold {
			return modal.RecommendDeny
		}
	}

	votes := map[modal.Recommendation]int{}
	for _, r := range results {
		votes[r.Recommendation]++
	}

	best, bestCount, tied := modal.RecommendNeedsReview, 0, false
	for _, rec := range []modal.Recommendation{modal.RecommendApprove, modal.RecommendDeny, modal.RecommendNeedsReview} {
		switch {
		case votes[rec] > bestCount:
			best, bestCount, tied = rec, votes[rec], false
		case votes[rec] == bestCount && votes[rec] > 0:
			tied = true
		}
	}
	if tied {
		return modal.RecommendNeedsReview
	}
	return best
}

func mergeEvidence(results []modal.LaneResult, failures []modal.LaneFailure) []string {
	var out []string
	for _, r := range results {
		for _, e := range r.Evidence {
			out = append(out, fmt.Sprintf("[%s] %s", r.Lane, e))
		}
	}
	for _, f := range failures {
		out = append(out, fmt.Sprintf("[%s] lane unavailable (%s)", f.Lane, f.Class))
	}
	return out
}

func laneRank(l modal.LaneName) int {
	for i, name := range modal.AllLanes() {
		if name == l {
			return i
		}
	}
	return len(modal.AllLanes())
}

func sortLanes(in []modal.LaneResult) []modal.LaneResult {
	out := append([]modal.LaneResult(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return laneRank(out[i].Lane) < laneRank(out[j].Lane) })
	return out
}

func sortFailures(in []modal.LaneFailure) []modal.LaneFailure {
	out := append([]modal.LaneFailure(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return laneRank(out[i].Lane) < laneRank(out[j].Lane) })
	return out
}
