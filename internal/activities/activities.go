// Package activities implements the workflow's side-effecting stages:
// planning and lane analysis against the reasoning oracle, dataset
// retrieval, and the external action calls.
package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"dispute-resolution-service/internal/bankapi"
	"dispute-resolution-service/internal/dataset"
	"dispute-resolution-service/internal/modal"
	"dispute-resolution-service/internal/oracle"
)

type Activities struct {
	Oracle oracle.Oracle
	Data   *dataset.Service
	Bank   *bankapi.Client
	// MaxOracleTurns bounds the tool-call loop per lane.
	MaxOracleTurns int
}

type PlanInput struct {
	Case modal.DisputeCase
}

type PlanResult struct {
	Reasoning  string
	Confidence float64
}

// PlanInvestigation asks the oracle for an investigation plan. No tools are
// offered; the plan is a plain completion.
func (a *Activities) PlanInvestigation(ctx context.Context, in PlanInput) (PlanResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("planning investigation", "disputeId", in.Case.DisputeID, "category", in.Case.Category)

	d, err := a.Oracle.Invoke(ctx, oracle.Request{
		System: "Plan the investigation of a customer dispute.",
		Case:   in.Case,
	})
	if err != nil {
		return PlanResult{}, classified(err)
	}
	if d.Completion == nil {
		return PlanResult{}, validationErr("plan response was not a completion")
	}
	return PlanResult{Reasoning: d.Completion.Analysis, Confidence: d.Completion.Confidence}, nil
}

type RetrievedContext struct {
	MatchedTransaction *modal.Transaction
	RecentTransactions int
	Policies           []modal.DisputePolicy
}

// RetrieveContext pulls the transaction match and applicable policies. A
// dataset failure here is fatal for the run: no decision without data.
func (a *Activities) RetrieveContext(ctx context.Context, c modal.DisputeCase) (RetrievedContext, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("retrieving dispute context", "disputeId", c.DisputeID, "merchant", c.MerchantName)

	tx, err := a.Data.FindTransaction(c.CardLastFour, c.Amount, c.MerchantName)
	if err != nil {
		return RetrievedContext{}, fatalErr("dataset unavailable", err)
	}
	recent, err := a.Data.TransactionsByCard(c.CardLastFour)
	if err != nil {
		return RetrievedContext{}, fatalErr("dataset unavailable", err)
	}
	policies, err := a.Data.PoliciesByCategory(c.Category, c.Amount)
	if err != nil {
		return RetrievedContext{}, fatalErr("dataset unavailable", err)
	}

	return RetrievedContext{
		MatchedTransaction: tx,
		RecentTransactions: len(recent),
		Policies:           policies,
	}, nil
}

type FileInput struct {
	Case modal.DisputeCase
}

type ActionReceipt struct {
	Reference string
	Detail    string
}

// FileDispute checks filing eligibility and files with the payment network.
// Ineligibility is a validation failure, not a transient one: retrying will
// not change the account state within this run.
func (a *Activities) FileDispute(ctx context.Context, in FileInput) (ActionReceipt, error) {
	logger := activity.GetLogger(ctx)

	st, err := a.Bank.CheckAccountStatus(ctx, in.Case.CustomerID)
	if err != nil {
		return ActionReceipt{}, classified(err)
	}
	ok, reason := bankapi.Eligible(st, in.Case.Amount)
	if !ok {
		return ActionReceipt{}, validationErr("not eligible: " + reason)
	}

	receipt, err := a.Bank.FileDispute(ctx, bankapi.FileRequest{
		DisputeID:    in.Case.DisputeID,
		CustomerID:   in.Case.CustomerID,
		Amount:       in.Case.Amount,
		MerchantName: in.Case.MerchantName,
		Reason:       in.Case.Reason,
		Category:     in.Case.Category,
	})
	if err != nil {
		return ActionReceipt{}, classified(err)
	}
	logger.Info("dispute filed", "disputeId", in.Case.DisputeID, "reference", receipt.Reference)
	return ActionReceipt{Reference: receipt.Reference, Detail: "filed with payment network"}, nil
}

type CreditInput struct {
	Case   modal.DisputeCase
	Amount float64
}

func (a *Activities) IssueTemporaryCredit(ctx context.Context, in CreditInput) (ActionReceipt, error) {
	receipt, err := a.Bank.IssueTemporaryCredit(ctx, bankapi.CreditRequest{
		DisputeID:    in.Case.DisputeID,
		CustomerID:   in.Case.CustomerID,
		Amount:       in.Amount,
		CardLastFour: in.Case.CardLastFour,
	})
	if err != nil {
		return ActionReceipt{}, classified(err)
	}
	return ActionReceipt{Reference: receipt.Reference, Detail: "temporary credit posted"}, nil
}

type NotifyInput struct {
	Case    modal.DisputeCase
	Message string
}

func (a *Activities) NotifyCustomer(ctx context.Context, in NotifyInput) (ActionReceipt, error) {
	receipt, err := a.Bank.NotifyCustomer(ctx, bankapi.NotifyRequest{
		CustomerID: in.Case.CustomerID,
		Channel:    "email",
		Message:    in.Message,
	})
	if err != nil {
		return ActionReceipt{}, classified(err)
	}
	return ActionReceipt{Reference: receipt.Reference, Detail: "customer notified"}, nil
}

// classified converts oracle and bank errors into application errors whose
// type is the error class, so retry policies and the workflow can branch on
// it without string matching.
func classified(err error) error {
	var oe *oracle.Error
	if errors.As(err, &oe) {
		if oe.Class == modal.ErrValidation || oe.Class == modal.ErrFatal {
			return temporal.NewNonRetryableApplicationError(oe.Message, string(oe.Class), err)
		}
		return temporal.NewApplicationError(oe.Message, string(oe.Class))
	}
	var be *bankapi.Error
	if errors.As(err, &be) {
		if be.Class == modal.ErrValidation || be.Class == modal.ErrFatal {
			return temporal.NewNonRetryableApplicationError(be.Message, string(be.Class), err)
		}
		return temporal.NewApplicationError(be.Message, string(be.Class))
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return temporal.NewApplicationError(err.Error(), string(modal.ErrTimeout))
	}
	return temporal.NewApplicationError(err.Error(), string(modal.ErrTransient))
}

func validationErr(msg string) error {
	return temporal.NewNonRetryableApplicationError(msg, string(modal.ErrValidation), nil)
}

func fatalErr(msg string, cause error) error {
	return temporal.NewNonRetryableApplicationError(msg, string(modal.ErrFatal), cause)
}
