package workflows

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"dispute-resolution-service/internal/activities"
	"dispute-resolution-service/internal/modal"
)

func testConfig() Config {
	return Config{
		MaxLoopBacks:      1,
		LaneTimeout:       time.Second,
		JoinDeadline:      3 * time.Second,
		DenyThreshold:     0.8,
		ApproveThreshold:  0.7,
		CritiqueThreshold: 0.6,
		FailurePenalty:    1.0,
	}
}

func testCase() modal.DisputeCase {
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

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ResolveDispute)
	env.RegisterActivity(&activities.Activities{})
	return env
}

// mockStages wires the non-lane activities to canned results.
func mockStages(env *testsuite.TestWorkflowEnvironment) {
	env.OnActivity("PlanInvestigation", mock.Anything, mock.Anything).Return(
		activities.PlanResult{Reasoning: "review history, risk and rules", Confidence: 0.5}, nil)
	env.OnActivity("RetrieveContext", mock.Anything, mock.Anything).Return(
		activities.RetrievedContext{RecentTransactions: 4, Policies: []modal.DisputePolicy{{PolicyID: "POL001"}}}, nil)
	env.OnActivity("FileDispute", mock.Anything, mock.Anything).Return(
		activities.ActionReceipt{Reference: "REF123", Detail: "filed"}, nil)
	env.OnActivity("IssueTemporaryCredit", mock.Anything, mock.Anything).Return(
		activities.ActionReceipt{Reference: "TMP123", Detail: "credited"}, nil)
	env.OnActivity("NotifyCustomer", mock.Anything, mock.Anything).Return(
		activities.ActionReceipt{Reference: "NOT123", Detail: "notified"}, nil)
}

func laneResult(lane modal.LaneName, rec modal.Recommendation, conf float64, evidence ...string) modal.LaneResult {
	return modal.LaneResult{
		Lane:           lane,
		Analysis:       string(lane) + " analysis",
		Confidence:     conf,
		Evidence:       evidence,
		Recommendation: rec,
	}
}

// mockLanes dispatches the AnalyzeLane mock per lane.
func mockLanes(env *testsuite.TestWorkflowEnvironment, byLane map[modal.LaneName]func() (modal.LaneResult, error)) {
	env.OnActivity("AnalyzeLane", mock.Anything, mock.Anything).Return(
		func(_ context.Context, in activities.LaneInput) (modal.LaneResult, error) {
			return byLane[in.Lane]()
		})
}

func ok(r modal.LaneResult) func() (modal.LaneResult, error) {
	return func() (modal.LaneResult, error) { return r, nil }
}

func failing(class modal.ErrorClass, msg string) func() (modal.LaneResult, error) {
	return func() (modal.LaneResult, error) {
		return modal.LaneResult{}, temporal.NewNonRetryableApplicationError(msg, string(class), nil)
	}
}

func TestResolveDisputeHappyPath(t *testing.T) {
	env := newEnv(t)
	mockStages(env)
	mockLanes(env, map[modal.LaneName]func() (modal.LaneResult, error){
		modal.LanePastDisputes: ok(laneResult(modal.LanePastDisputes, modal.RecommendApprove, 0.8, "3 prior approvals")),
		modal.LaneMerchantRisk: ok(laneResult(modal.LaneMerchantRisk, modal.RecommendApprove, 0.85, "risk score 8.1")),
		modal.LaneNetworkRules: ok(laneResult(modal.LaneNetworkRules, modal.RecommendApprove, 0.75, "mean success rate 78%")),
	})

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: testConfig()})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var outcome modal.DisputeOutcome
	require.NoError(t, env.GetWorkflowResult(&outcome))
	assert.Equal(t, modal.StatusFiled, outcome.Status)
	assert.True(t, outcome.CreditIssued)
	assert.Equal(t, 156.78, outcome.CreditAmount) // fraud credits in full
	assert.Equal(t, 1, outcome.Passes)
	assert.Empty(t, outcome.CritiqueCaveat)
	assert.Contains(t, outcome.CaseNote, "[past_disputes] 3 prior approvals")
}

// A high-confidence Deny vote dominates even when another lane approves.
func TestResolveDisputeDenyDominance(t *testing.T) {
	env := newEnv(t)
	mockStages(env)
	mockLanes(env, map[modal.LaneName]func() (modal.LaneResult, error){
		modal.LanePastDisputes: ok(laneResult(modal.LanePastDisputes, modal.RecommendDeny, 0.9, "every prior dispute denied")),
		modal.LaneMerchantRisk: ok(laneResult(modal.LaneMerchantRisk, modal.RecommendNeedsReview, 0.6, "risk inconclusive")),
		modal.LaneNetworkRules: ok(laneResult(modal.LaneNetworkRules, modal.RecommendApprove, 0.4, "rules allow filing")),
	})

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: testConfig()})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var outcome modal.DisputeOutcome
	require.NoError(t, env.GetWorkflowResult(&outcome))
	assert.Equal(t, modal.StatusDenied, outcome.Status)
	assert.False(t, outcome.CreditIssued)

	// Only the notification ran.
	var actions []modal.ActionOutcome
	qr, err := env.QueryWorkflow("actions")
	require.NoError(t, err)
	require.NoError(t, qr.Get(&actions))
	require.Len(t, actions, 1)
	assert.Equal(t, modal.ActionNotifyCustomer, actions[0].Kind)
	assert.True(t, actions[0].Success)
}

// Two lanes finishing is enough: the timed-out lane is recorded as a
// failure and discounts confidence instead of sinking the run.
func TestResolveDisputeLaneTimeout(t *testing.T) {
	env := newEnv(t)
	mockStages(env)
	cfg := testConfig()
	cfg.CritiqueThreshold = 0.4
	mockLanes(env, map[modal.LaneName]func() (modal.LaneResult, error){
		modal.LanePastDisputes: ok(laneResult(modal.LanePastDisputes, modal.RecommendApprove, 0.8, "history clean")),
		modal.LaneMerchantRisk: ok(laneResult(modal.LaneMerchantRisk, modal.RecommendApprove, 0.7, "risk acceptable")),
		modal.LaneNetworkRules: failing(modal.ErrTimeout, "lane timed out"),
	})

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: cfg})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var assessment modal.Assessment
	qr, err := env.QueryWorkflow("assessment")
	require.NoError(t, err)
	require.NoError(t, qr.Get(&assessment))
	require.Len(t, assessment.Lanes, 2)
	require.Len(t, assessment.Failures, 1)
	assert.Equal(t, modal.LaneNetworkRules, assessment.Failures[0].Lane)
	assert.Equal(t, modal.ErrTimeout, assessment.Failures[0].Class)
	// Mean of 0.75 discounted by one failed lane in three.
	assert.InDelta(t, 0.5, assessment.Confidence, 1e-9)

	// Too uncertain to file: the customer is informed, the case stays open.
	var outcome modal.DisputeOutcome
	require.NoError(t, env.GetWorkflowResult(&outcome))
	assert.Equal(t, modal.StatusNeedsReview, outcome.Status)
}

// An analysis-quality critique failure loops back to planning once, and the
// improved second pass lands cleanly.
func TestResolveDisputeLoopBackOnAnalysisFailure(t *testing.T) {
	env := newEnv(t)
	mockStages(env)

	var calls atomic.Int32
	env.OnActivity("AnalyzeLane", mock.Anything, mock.Anything).Return(
		func(_ context.Context, in activities.LaneInput) (modal.LaneResult, error) {
			// Calls 1-3 are the first fork, 4-6 the second.
			if calls.Add(1) <= 3 {
				// First pass: no evidence anywhere, so the critic objects.
				return laneResult(in.Lane, modal.RecommendApprove, 0.8), nil
			}
			return laneResult(in.Lane, modal.RecommendApprove, 0.8, string(in.Lane)+" evidence"), nil
		})

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: testConfig()})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var outcome modal.DisputeOutcome
	require.NoError(t, env.GetWorkflowResult(&outcome))
	assert.Equal(t, 2, outcome.Passes)
	assert.Empty(t, outcome.CritiqueCaveat)
	assert.Equal(t, modal.StatusFiled, outcome.Status)
}

// When the loop-back budget runs out the workflow finalizes with the
// critique on record instead of spinning.
func TestResolveDisputeLoopBackBudgetExhausted(t *testing.T) {
	env := newEnv(t)
	mockStages(env)
	mockLanes(env, map[modal.LaneName]func() (modal.LaneResult, error){
		modal.LanePastDisputes: ok(laneResult(modal.LanePastDisputes, modal.RecommendApprove, 0.8)),
		modal.LaneMerchantRisk: ok(laneResult(modal.LaneMerchantRisk, modal.RecommendApprove, 0.8)),
		modal.LaneNetworkRules: ok(laneResult(modal.LaneNetworkRules, modal.RecommendApprove, 0.8)),
	})

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: testConfig()})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var outcome modal.DisputeOutcome
	require.NoError(t, env.GetWorkflowResult(&outcome))
	assert.Equal(t, 2, outcome.Passes) // one loop back, then stop
	assert.Contains(t, outcome.CritiqueCaveat, "analysis")
}

// Execution failures never trigger a loop back: re-planning cannot fix a
// filing outage.
func TestResolveDisputeExecutionFailureDoesNotLoopBack(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("PlanInvestigation", mock.Anything, mock.Anything).Return(
		activities.PlanResult{Reasoning: "plan", Confidence: 0.5}, nil)
	env.OnActivity("RetrieveContext", mock.Anything, mock.Anything).Return(
		activities.RetrievedContext{}, nil)
	env.OnActivity("FileDispute", mock.Anything, mock.Anything).Return(
		activities.ActionReceipt{}, temporal.NewApplicationError("unable to file dispute at this time", string(modal.ErrTransient)))
	env.OnActivity("IssueTemporaryCredit", mock.Anything, mock.Anything).Return(
		activities.ActionReceipt{Reference: "TMP123"}, nil)
	env.OnActivity("NotifyCustomer", mock.Anything, mock.Anything).Return(
		activities.ActionReceipt{Reference: "NOT123"}, nil)
	mockLanes(env, map[modal.LaneName]func() (modal.LaneResult, error){
		modal.LanePastDisputes: ok(laneResult(modal.LanePastDisputes, modal.RecommendApprove, 0.8, "e")),
		modal.LaneMerchantRisk: ok(laneResult(modal.LaneMerchantRisk, modal.RecommendApprove, 0.8, "e")),
		modal.LaneNetworkRules: ok(laneResult(modal.LaneNetworkRules, modal.RecommendApprove, 0.8, "e")),
	})

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: testConfig()})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var outcome modal.DisputeOutcome
	require.NoError(t, env.GetWorkflowResult(&outcome))
	assert.Equal(t, 1, outcome.Passes)
	assert.Equal(t, modal.StatusFailed, outcome.Status)
	assert.Contains(t, outcome.CritiqueCaveat, "execution")
}

func TestResolveDisputeRetrieveFatalFailsRun(t *testing.T) {
	env := newEnv(t)
	env.OnActivity("PlanInvestigation", mock.Anything, mock.Anything).Return(
		activities.PlanResult{Reasoning: "plan", Confidence: 0.5}, nil)
	env.OnActivity("RetrieveContext", mock.Anything, mock.Anything).Return(
		activities.RetrievedContext{}, temporal.NewNonRetryableApplicationError("dataset unavailable", string(modal.ErrFatal), nil))

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: testConfig()})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())

	var outcome modal.DisputeOutcome
	qr, err := env.QueryWorkflow("outcome")
	require.NoError(t, err)
	require.NoError(t, qr.Get(&outcome))
	assert.Equal(t, modal.StatusFailed, outcome.Status)
}

// The audit trail records every stage in order with coherent timestamps.
func TestResolveDisputeAuditTrail(t *testing.T) {
	env := newEnv(t)
	mockStages(env)
	mockLanes(env, map[modal.LaneName]func() (modal.LaneResult, error){
		modal.LanePastDisputes: ok(laneResult(modal.LanePastDisputes, modal.RecommendApprove, 0.8, "e")),
		modal.LaneMerchantRisk: ok(laneResult(modal.LaneMerchantRisk, modal.RecommendApprove, 0.8, "e")),
		modal.LaneNetworkRules: ok(laneResult(modal.LaneNetworkRules, modal.RecommendApprove, 0.8, "e")),
	})

	env.ExecuteWorkflow(ResolveDispute, Params{Case: testCase(), Config: testConfig()})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var steps []modal.AgentStep
	qr, err := env.QueryWorkflow("steps")
	require.NoError(t, err)
	require.NoError(t, qr.Get(&steps))

	wantNames := []string{
		StagePlan, StageRetrieve, StageFork, StageSynthesize,
		StageGenerate, StageAct, StageCritique, StageFinalize,
	}
	require.Len(t, steps, len(wantNames))
	for i, s := range steps {
		assert.Equal(t, wantNames[i], s.Name)
		assert.Equal(t, modal.StepSucceeded, s.Status)
		assert.False(t, s.StartedAt.After(s.EndedAt), "step %s ended before it started", s.Name)
		if i > 0 {
			assert.False(t, s.StartedAt.Before(steps[i-1].StartedAt), "step %s started before %s", s.Name, steps[i-1].Name)
		}
	}
}
