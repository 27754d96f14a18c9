package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"dispute-resolution-service/internal/bankapi"
	"dispute-resolution-service/internal/config"
	"dispute-resolution-service/internal/modal"
	"dispute-resolution-service/internal/workflows"
)

type startReq struct {
	CustomerID   string  `json:"customerId"`
	CardLastFour string  `json:"cardLastFour"`
	Amount       float64 `json:"amount"`
	MerchantName string  `json:"merchantName"`
	Category     string  `json:"category"`
	Reason       string  `json:"reason"`
}

type startResp struct {
	DisputeID  string `json:"disputeId"`
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.toml", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	tc, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer tc.Close()

	r := chi.NewRouter()

	// Start a dispute resolution workflow. The dispute id doubles as the
	// workflow correlation key: one running workflow per dispute.
	r.Post("/disputes", func(w http.ResponseWriter, r *http.Request) {
		var req startReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		disputeCase, err := caseFrom(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		opts := client.StartWorkflowOptions{
			ID:                                       "dispute-" + disputeCase.DisputeID,
			TaskQueue:                                workflows.TaskQueue,
			WorkflowExecutionTimeout:                 2 * time.Minute,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
			WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		we, err := tc.ExecuteWorkflow(ctx, opts, workflows.ResolveDispute, workflows.Params{
			Case:   disputeCase,
			Config: workflowConfig(cfg.Workflow),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, startResp{
			DisputeID:  disputeCase.DisputeID,
			WorkflowID: we.GetID(),
			RunID:      we.GetRunID(),
		})
	})

	r.Get("/disputes/{workflowId}/steps", func(w http.ResponseWriter, r *http.Request) {
		var steps []modal.AgentStep
		if queryInto(tc, w, r, "steps", &steps) {
			writeJSON(w, steps)
		}
	})

	r.Get("/disputes/{workflowId}/assessment", func(w http.ResponseWriter, r *http.Request) {
		var a modal.Assessment
		if queryInto(tc, w, r, "assessment", &a) {
			writeJSON(w, a)
		}
	})

	r.Get("/disputes/{workflowId}/actions", func(w http.ResponseWriter, r *http.Request) {
		var actions []modal.ActionOutcome
		if queryInto(tc, w, r, "actions", &actions) {
			writeJSON(w, actions)
		}
	})

	r.Get("/disputes/{workflowId}/outcome", func(w http.ResponseWriter, r *http.Request) {
		var o modal.DisputeOutcome
		if queryInto(tc, w, r, "outcome", &o) {
			writeJSON(w, o)
		}
	})

	registerUIRoutes(r, tc, cfg)
	log.Printf("api listening on %s\n", cfg.HTTP.Listen)
	log.Fatal(http.ListenAndServe(cfg.HTTP.Listen, r))
}

func caseFrom(req startReq) (modal.DisputeCase, error) {
	c := modal.DisputeCase{
		DisputeID:    bankapi.NewDisputeID(),
		CustomerID:   req.CustomerID,
		CardLastFour: req.CardLastFour,
		Amount:       req.Amount,
		MerchantName: req.MerchantName,
		Category:     modal.DisputeCategory(req.Category),
		Reason:       req.Reason,
	}
	switch {
	case c.CustomerID == "" || c.CardLastFour == "" || c.MerchantName == "":
		return modal.DisputeCase{}, errBadRequest("customerId, cardLastFour and merchantName are required")
	case c.Amount <= 0:
		return modal.DisputeCase{}, errBadRequest("amount must be positive")
	}
	switch c.Category {
	case modal.CategoryFraud, modal.CategoryBillingError, modal.CategoryAuthorizationIssue:
	default:
		return modal.DisputeCase{}, errBadRequest("category must be Fraud, Billing Error or Authorization Issue")
	}
	return c, nil
}

type errBadRequest string

func (e errBadRequest) Error() string { return string(e) }

// queryInto runs one workflow query and decodes into v, writing the HTTP
// error itself on failure.
func queryInto(tc client.Client, w http.ResponseWriter, r *http.Request, name string, v any) bool {
	workflowID := chi.URLParam(r, "workflowId")
	runID := r.URL.Query().Get("runId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	qr, err := tc.QueryWorkflow(ctx, workflowID, runID, name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	if err := qr.Get(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func workflowConfig(w config.WorkflowConfig) workflows.Config {
	return workflows.Config{
		MaxLoopBacks:      w.MaxLoopBacks,
		LaneTimeout:       w.LaneTimeout(),
		JoinDeadline:      w.JoinDeadline(),
		DenyThreshold:     w.DenyThreshold,
		ApproveThreshold:  w.ApproveThreshold,
		CritiqueThreshold: w.CritiqueThreshold,
		FailurePenalty:    w.FailurePenalty,
	}
}
