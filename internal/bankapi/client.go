// Package bankapi simulates the external banking action services: dispute
// filing, temporary credit, account status, and customer notification. Every
// call has non-zero latency and a nonzero failure rate that callers must
// handle, not assume away.
package bankapi

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"dispute-resolution-service/internal/modal"
)

type Config struct {
	Latency           time.Duration // base latency; individual calls scale it
	FileFailureRate   float64
	CreditFailureRate float64
	NotifyFailureRate float64
	Seed              int64
}

func DefaultConfig() Config {
	return Config{
		Latency:           300 * time.Millisecond,
		FileFailureRate:   0.15,
		CreditFailureRate: 0.05,
		NotifyFailureRate: 0.02,
		Seed:              time.Now().UnixNano(),
	}
}

type Client struct {
	cfg Config

	mu  sync.Mutex
	rng *rand.Rand
}

func New(cfg Config) *Client {
	return &Client{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// Error is a classified action-service failure.
type Error struct {
	Code    string
	Class   modal.ErrorClass
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("bankapi: %s: %s", e.Code, e.Message)
}

type FileRequest struct {
	DisputeID    string
	CustomerID   string
	Amount       float64
	MerchantName string
	Reason       string
	Category     modal.DisputeCategory
}

type FileReceipt struct {
	Reference               string
	FiledAt                 time.Time
	EstimatedResolutionDays int
}

func (c *Client) FileDispute(ctx context.Context, req FileRequest) (FileReceipt, error) {
	if err := c.sleep(ctx, 1.0); err != nil {
		return FileReceipt{}, err
	}
	if c.roll() < c.cfg.FileFailureRate {
		return FileReceipt{}, &Error{
			Code:    "FILING_ERROR",
			Class:   modal.ErrTransient,
			Message: "unable to file dispute at this time, retry later",
		}
	}
	return FileReceipt{
		Reference:               NewReference("REF"),
		FiledAt:                 time.Now().UTC(),
		EstimatedResolutionDays: 10,
	}, nil
}

type CreditRequest struct {
	DisputeID    string
	CustomerID   string
	Amount       float64
	CardLastFour string
}

type CreditReceipt struct {
	Reference    string
	Amount       float64
	ReversalDays int
}

func (c *Client) IssueTemporaryCredit(ctx context.Context, req CreditRequest) (CreditReceipt, error) {
	if err := c.sleep(ctx, 0.5); err != nil {
		return CreditReceipt{}, err
	}
	if c.roll() < c.cfg.CreditFailureRate {
		return CreditReceipt{}, &Error{
			Code:    "CREDIT_ERROR",
			Class:   modal.ErrTransient,
			Message: "unable to post temporary credit, account may have restrictions",
		}
	}
	return CreditReceipt{
		Reference:    NewReference("TMP"),
		Amount:       req.Amount,
		ReversalDays: 10,
	}, nil
}

type AccountStatus struct {
	CustomerID      string
	Status          string
	PendingDisputes int
	DisputeEligible bool
	CreditEligible  bool
}

func (c *Client) CheckAccountStatus(ctx context.Context, customerID string) (AccountStatus, error) {
	if err := c.sleep(ctx, 0.3); err != nil {
		return AccountStatus{}, err
	}

	// Mostly active accounts, occasionally restricted or frozen.
	statuses := []string{"Active", "Active", "Active", "Restricted", "Frozen"}
	status := statuses[c.intn(len(statuses))]
	pending := c.intn(4)

	return AccountStatus{
		CustomerID:      customerID,
		Status:          status,
		PendingDisputes: pending,
		DisputeEligible: status == "Active" || status == "Restricted",
		CreditEligible:  status == "Active" && pending < 3,
	}, nil
}

type NotifyRequest struct {
	CustomerID string
	Channel    string
	Message    string
}

type NotifyReceipt struct {
	Reference string
}

func (c *Client) NotifyCustomer(ctx context.Context, req NotifyRequest) (NotifyReceipt, error) {
	if err := c.sleep(ctx, 0.2); err != nil {
		return NotifyReceipt{}, err
	}
	if c.roll() < c.cfg.NotifyFailureRate {
		return NotifyReceipt{}, &Error{
			Code:    "NOTIFICATION_ERROR",
			Class:   modal.ErrTransient,
			Message: "failed to send notification, contact information may be outdated",
		}
	}
	return NotifyReceipt{Reference: NewReference("NOT")}, nil
}

// Eligible applies the filing eligibility rules to an account status.
func Eligible(st AccountStatus, amount float64) (bool, string) {
	switch {
	case !st.DisputeEligible:
		return false, fmt.Sprintf("account status %s does not permit dispute filing", st.Status)
	case st.PendingDisputes >= 5:
		return false, fmt.Sprintf("%d disputes already pending on the account", st.PendingDisputes)
	case amount <= 1.00:
		return false, "amount below the minimum disputable amount"
	default:
		return true, "eligible for dispute filing"
	}
}

// CreditAmountFor returns the temporary credit amount for a category: full
// amount for fraud and billing errors, half capped at $500 for
// authorization issues.
func CreditAmountFor(category modal.DisputeCategory, amount float64) float64 {
	switch category {
	case modal.CategoryFraud, modal.CategoryBillingError:
		return amount
	case modal.CategoryAuthorizationIssue:
		half := amount * 0.5
		if half > 500 {
			return 500
		}
		return half
	default:
		return 0
	}
}

func (c *Client) roll() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func (c *Client) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}

func (c *Client) sleep(ctx context.Context, scale float64) error {
	d := time.Duration(float64(c.cfg.Latency) * scale)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return &Error{Code: "CANCELLED", Class: modal.ErrTimeout, Message: ctx.Err().Error()}
	case <-t.C:
		return nil
	}
}
