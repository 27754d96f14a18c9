package workflows

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"dispute-resolution-service/internal/activities"
	"dispute-resolution-service/internal/bankapi"
	"dispute-resolution-service/internal/critic"
	"dispute-resolution-service/internal/modal"
	"dispute-resolution-service/internal/respond"
	"dispute-resolution-service/internal/synthesis"
)

const TaskQueue = "DISPUTE_RESOLUTION_TASK_QUEUE"

// Stage names as they appear in the audit trail.
const (
	StagePlan       = "Plan"
	StageRetrieve   = "Retrieve"
	StageFork       = "Fork"
	StageSynthesize = "Synthesize"
	StageGenerate   = "Generate"
	StageAct        = "Act"
	StageCritique   = "Critique"
	StageFinalize   = "Finalize"
)

// Config tunes one workflow run. Zero durations and thresholds fall back to
// defaults; MaxLoopBacks is taken literally, so the zero value disables loop
// backs.
type Config struct {
	// MaxLoopBacks bounds how many times a failed critique may restart the
	// analysis. 1 means at most two full passes.
	MaxLoopBacks int
	// LaneTimeout bounds a single lane attempt; JoinDeadline bounds the whole
	// fan-out including retries. Lanes still pending at the join deadline are
	// recorded as timed-out failures, not waited on.
	LaneTimeout  time.Duration
	JoinDeadline time.Duration

	DenyThreshold     float64
	ApproveThreshold  float64
	CritiqueThreshold float64
	FailurePenalty    float64
}

func DefaultConfig() Config {
	return Config{
		MaxLoopBacks:      1,
		LaneTimeout:       10 * time.Second,
		JoinDeadline:      25 * time.Second,
		DenyThreshold:     0.8,
		ApproveThreshold:  0.7,
		CritiqueThreshold: 0.6,
		FailurePenalty:    1.0,
	}
}

func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxLoopBacks < 0 {
		c.MaxLoopBacks = 0
	}
	if c.LaneTimeout <= 0 {
		c.LaneTimeout = def.LaneTimeout
	}
	if c.JoinDeadline <= 0 {
		c.JoinDeadline = def.JoinDeadline
	}
	if c.DenyThreshold <= 0 {
		c.DenyThreshold = def.DenyThreshold
	}
	if c.ApproveThreshold <= 0 {
		c.ApproveThreshold = def.ApproveThreshold
	}
	if c.CritiqueThreshold <= 0 {
		c.CritiqueThreshold = def.CritiqueThreshold
	}
	if c.FailurePenalty <= 0 {
		c.FailurePenalty = def.FailurePenalty
	}
	return c
}

type Params struct {
	Case   modal.DisputeCase `json:"case"`
	Config Config            `json:"config"`
}

type workflowState struct {
	Case       modal.DisputeCase     `json:"case"`
	Steps      []modal.AgentStep     `json:"steps"`
	Assessment *modal.Assessment     `json:"assessment,omitempty"`
	Actions    []modal.ActionOutcome `json:"actions,omitempty"`
	Outcome    *modal.DisputeOutcome `json:"outcome,omitempty"`
	Pass       int                   `json:"pass"`
}

// ResolveDispute runs the multi-stage dispute investigation: plan, retrieve,
// fan out the three analysis lanes, synthesize, generate responses, execute
// actions, and critique the pass. A critique that faults the analysis may
// loop back to planning within the loop-back budget; execution faults never
// do.
func ResolveDispute(ctx workflow.Context, params Params) (modal.DisputeOutcome, error) {
	logger := workflow.GetLogger(ctx)
	cfg := params.Config.normalized()
	logger.Info("dispute workflow started", "disputeId", params.Case.DisputeID, "category", params.Case.Category)

	state := &workflowState{
		Case:  params.Case,
		Steps: make([]modal.AgentStep, 0, 8),
	}

	// Queries let the API read progress without a side database.
	_ = workflow.SetQueryHandler(ctx, "steps", func() ([]modal.AgentStep, error) {
		return state.Steps, nil
	})
	_ = workflow.SetQueryHandler(ctx, "assessment", func() (modal.Assessment, error) {
		if state.Assessment == nil {
			return modal.Assessment{}, nil
		}
		return *state.Assessment, nil
	})
	_ = workflow.SetQueryHandler(ctx, "actions", func() ([]modal.ActionOutcome, error) {
		return state.Actions, nil
	})
	_ = workflow.SetQueryHandler(ctx, "outcome", func() (modal.DisputeOutcome, error) {
		if state.Outcome == nil {
			return modal.DisputeOutcome{}, nil
		}
		return *state.Outcome, nil
	})

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: nonRetryable(),
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var (
		assessment modal.Assessment
		actions    []modal.ActionOutcome
		message    string
		note       string
		caveat     string
	)

	for pass := 1; ; pass++ {
		state.Pass = pass

		// Plan.
		i := state.begin(ctx, StagePlan)
		var plan activities.PlanResult
		if err := workflow.ExecuteActivity(ctx, "PlanInvestigation", activities.PlanInput{Case: params.Case}).Get(ctx, &plan); err != nil {
			return state.abort(ctx, i, StagePlan, err)
		}
		state.succeed(ctx, i, plan.Confidence, plan.Reasoning, nil)

		// Retrieve.
		i = state.begin(ctx, StageRetrieve)
		var rc activities.RetrievedContext
		if err := workflow.ExecuteActivity(ctx, "RetrieveContext", params.Case).Get(ctx, &rc); err != nil {
			return state.abort(ctx, i, StageRetrieve, err)
		}
		state.succeed(ctx, i, 0, retrieveSummary(rc), nil)

		// Fork the analysis lanes and join at the deadline.
		i = state.begin(ctx, StageFork)
		results, failures := runLanes(ctx, params.Case, cfg)
		state.succeed(ctx, i, 0, forkSummary(results, failures), nil)

		// Synthesize.
		i = state.begin(ctx, StageSynthesize)
		assessment = synthesis.Synthesize(results, failures, synthesis.Options{
			DenyThreshold:  cfg.DenyThreshold,
			FailurePenalty: cfg.FailurePenalty,
		})
		state.Assessment = &assessment
		state.succeed(ctx, i, assessment.Confidence, "recommendation "+string(assessment.Recommendation), assessment.Evidence)

		// Generate the customer message and case note.
		i = state.begin(ctx, StageGenerate)
		message, note = respond.Generate(params.Case, assessment)
		state.succeed(ctx, i, 0, "customer message and case note drafted", nil)

		// Act: every decided action runs in parallel with its own retries.
		i = state.begin(ctx, StageAct)
		required := plannedActions(params.Case, assessment, cfg)
		actions = executeActions(ctx, params.Case, required, message)
		state.Actions = append(state.Actions, actions...)
		state.succeed(ctx, i, 0, actSummary(actions), nil)

		// Critique the finished pass.
		i = state.begin(ctx, StageCritique)
		verdict := critic.Evaluate(critic.Input{
			Assessment:      assessment,
			Actions:         actions,
			Required:        required,
			CustomerMessage: message,
			CaseNote:        note,
			MinConfidence:   cfg.CritiqueThreshold,
			DenyThreshold:   cfg.DenyThreshold,
		})
		state.succeed(ctx, i, 0, verdict.Summary(), verdict.Reasons)

		if verdict.Pass {
			caveat = ""
			break
		}
		if verdict.Category == critic.CategoryAnalysis && pass <= cfg.MaxLoopBacks {
			logger.Info("critique failed, looping back to planning", "pass", pass, "reasons", verdict.Reasons)
			continue
		}
		// Execution failure, or the loop-back budget is spent: finalize with
		// the caveat on record instead of retrying forever.
		caveat = verdict.Summary()
		break
	}

	i := state.begin(ctx, StageFinalize)
	outcome := modal.DisputeOutcome{
		DisputeID:       params.Case.DisputeID,
		Status:          finalStatus(assessment, cfg, actions),
		CustomerMessage: message,
		CaseNote:        note,
		Confidence:      assessment.Confidence,
		Passes:          state.Pass,
		CritiqueCaveat:  caveat,
	}
	for _, o := range actions {
		if o.Kind == modal.ActionTemporaryCredit && o.Success {
			outcome.CreditIssued = true
			outcome.CreditAmount = bankapi.CreditAmountFor(params.Case.Category, params.Case.Amount)
		}
	}
	state.Outcome = &outcome
	state.succeed(ctx, i, assessment.Confidence, "final status "+string(outcome.Status), nil)

	logger.Info("dispute workflow finished", "disputeId", params.Case.DisputeID, "status", outcome.Status, "passes", outcome.Passes)
	return outcome, nil
}

// runLanes starts all lanes before joining any of them, then joins in
// canonical lane order. StartToClose bounds one attempt; ScheduleToClose is
// the join deadline and caps retries, so every future resolves within one
// deadline window of the fork.
func runLanes(ctx workflow.Context, c modal.DisputeCase, cfg Config) ([]modal.LaneResult, []modal.LaneFailure) {
	lctx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout:    cfg.LaneTimeout,
		ScheduleToCloseTimeout: cfg.JoinDeadline,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        500 * time.Millisecond,
			BackoffCoefficient:     2.0,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: nonRetryable(),
		},
	})

	lanes := modal.AllLanes()
	futures := make([]workflow.Future, len(lanes))
	for i, lane := range lanes {
		futures[i] = workflow.ExecuteActivity(lctx, "AnalyzeLane", activities.LaneInput{Case: c, Lane: lane})
	}

	var results []modal.LaneResult
	var failures []modal.LaneFailure
	for i, f := range futures {
		var r modal.LaneResult
		if err := f.Get(ctx, &r); err != nil {
			failures = append(failures, modal.LaneFailure{
				Lane:    lanes[i],
				Class:   classify(err),
				Message: err.Error(),
			})
			continue
		}
		results = append(results, r)
	}
	return results, failures
}

// plannedActions decides which external actions this pass mandates. Only a
// confident approval files and credits; everything else just informs the
// customer.
func plannedActions(c modal.DisputeCase, a modal.Assessment, cfg Config) []modal.ActionKind {
	if a.Recommendation == modal.RecommendApprove && a.Confidence >= cfg.ApproveThreshold {
		kinds := []modal.ActionKind{modal.ActionFileDispute}
		if bankapi.CreditAmountFor(c.Category, c.Amount) > 0 {
			kinds = append(kinds, modal.ActionTemporaryCredit)
		}
		return append(kinds, modal.ActionNotifyCustomer)
	}
	return []modal.ActionKind{modal.ActionNotifyCustomer}
}

func executeActions(ctx workflow.Context, c modal.DisputeCase, kinds []modal.ActionKind, message string) []modal.ActionOutcome {
	futures := make([]workflow.Future, len(kinds))
	starts := make([]time.Time, len(kinds))
	for i, kind := range kinds {
		actx := workflow.WithActivityOptions(ctx, actionOptions(kind))
		starts[i] = workflow.Now(ctx)
		switch kind {
		case modal.ActionFileDispute:
			futures[i] = workflow.ExecuteActivity(actx, "FileDispute", activities.FileInput{Case: c})
		case modal.ActionTemporaryCredit:
			futures[i] = workflow.ExecuteActivity(actx, "IssueTemporaryCredit", activities.CreditInput{
				Case:   c,
				Amount: bankapi.CreditAmountFor(c.Category, c.Amount),
			})
		case modal.ActionNotifyCustomer:
			futures[i] = workflow.ExecuteActivity(actx, "NotifyCustomer", activities.NotifyInput{Case: c, Message: message})
		}
	}

	out := make([]modal.ActionOutcome, 0, len(kinds))
	for i, f := range futures {
		var receipt activities.ActionReceipt
		o := modal.ActionOutcome{Kind: kinds[i]}
		err := f.Get(ctx, &receipt)
		o.Latency = workflow.Now(ctx).Sub(starts[i])
		if err != nil {
			o.Error = err.Error()
			o.Class = classify(err)
		} else {
			o.Success = true
			o.Reference = receipt.Reference
		}
		out = append(out, o)
	}
	return out
}

// actionOptions gives each action kind its own timeout and retry policy; one
// action's failure or retries never block the others.
func actionOptions(kind modal.ActionKind) workflow.ActivityOptions {
	rp := &temporal.RetryPolicy{
		InitialInterval:        time.Second,
		BackoffCoefficient:     2.0,
		MaximumAttempts:        3,
		NonRetryableErrorTypes: nonRetryable(),
	}
	switch kind {
	case modal.ActionFileDispute:
		return workflow.ActivityOptions{StartToCloseTimeout: 15 * time.Second, RetryPolicy: rp}
	case modal.ActionTemporaryCredit:
		return workflow.ActivityOptions{StartToCloseTimeout: 10 * time.Second, RetryPolicy: rp}
	default:
		notify := *rp
		notify.MaximumAttempts = 5
		return workflow.ActivityOptions{StartToCloseTimeout: 5 * time.Second, RetryPolicy: &notify}
	}
}

func finalStatus(a modal.Assessment, cfg Config, actions []modal.ActionOutcome) modal.DisputeStatus {
	if a.Recommendation == modal.RecommendApprove && a.Confidence >= cfg.ApproveThreshold {
		for _, o := range actions {
			if o.Kind != modal.ActionFileDispute {
				continue
			}
			switch {
			case o.Success:
				return modal.StatusFiled
			case o.Class == modal.ErrValidation:
				// Account not eligible to file: denied, not broken.
				return modal.StatusDenied
			default:
				return modal.StatusFailed
			}
		}
		return modal.StatusFailed
	}
	if a.Recommendation == modal.RecommendDeny {
		return modal.StatusDenied
	}
	return modal.StatusNeedsReview
}

// classify maps an activity error onto the error taxonomy via the
// application error type, never by string matching on messages.
func classify(err error) modal.ErrorClass {
	var te *temporal.TimeoutError
	if errors.As(err, &te) {
		return modal.ErrTimeout
	}
	var ae *temporal.ApplicationError
	if errors.As(err, &ae) {
		switch c := modal.ErrorClass(ae.Type()); c {
		case modal.ErrTransient, modal.ErrValidation, modal.ErrTimeout, modal.ErrFatal:
			return c
		}
	}
	return modal.ErrTransient
}

func nonRetryable() []string {
	return []string{string(modal.ErrValidation), string(modal.ErrFatal)}
}

func (s *workflowState) begin(ctx workflow.Context, name string) int {
	s.Steps = append(s.Steps, modal.AgentStep{
		Name:      name,
		Status:    modal.StepRunning,
		StartedAt: workflow.Now(ctx),
	})
	return len(s.Steps) - 1
}

func (s *workflowState) succeed(ctx workflow.Context, i int, confidence float64, reasoning string, evidence []string) {
	s.Steps[i].Status = modal.StepSucceeded
	s.Steps[i].EndedAt = workflow.Now(ctx)
	s.Steps[i].Confidence = confidence
	s.Steps[i].Reasoning = reasoning
	s.Steps[i].Evidence = evidence
}

func (s *workflowState) fail(ctx workflow.Context, i int, reason string) {
	s.Steps[i].Status = modal.StepFailed
	s.Steps[i].EndedAt = workflow.Now(ctx)
	s.Steps[i].Reasoning = reason
}

// abort records the failed step and a Failed outcome for queries, then fails
// the workflow with an error typed by the underlying class.
func (s *workflowState) abort(ctx workflow.Context, i int, stage string, err error) (modal.DisputeOutcome, error) {
	workflow.GetLogger(ctx).Error("stage failed", "stage", stage, "error", err)
	s.fail(ctx, i, err.Error())
	s.Outcome = &modal.DisputeOutcome{
		DisputeID: s.Case.DisputeID,
		Status:    modal.StatusFailed,
		Passes:    s.Pass,
	}
	return modal.DisputeOutcome{}, temporal.NewApplicationError(stage+" stage failed: "+err.Error(), string(classify(err)))
}

func retrieveSummary(rc activities.RetrievedContext) string {
	matched := "no matching transaction"
	if rc.MatchedTransaction != nil {
		matched = "transaction " + rc.MatchedTransaction.TransactionID + " matched"
	}
	return fmt.Sprintf("%s, %d recent transactions, %d applicable policies", matched, rc.RecentTransactions, len(rc.Policies))
}

func forkSummary(results []modal.LaneResult, failures []modal.LaneFailure) string {
	return fmt.Sprintf("%d of %d lanes completed", len(results), len(results)+len(failures))
}

func actSummary(actions []modal.ActionOutcome) string {
	ok := 0
	for _, o := range actions {
		if o.Success {
			ok++
		}
	}
	return fmt.Sprintf("%d of %d actions succeeded", ok, len(actions))
}
