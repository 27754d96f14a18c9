package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"dispute-resolution-service/internal/bankapi"
	"dispute-resolution-service/internal/config"
	"dispute-resolution-service/internal/modal"
	"dispute-resolution-service/internal/workflows"
)

// Starts one dispute workflow from the command line and waits for the
// outcome. The API server is the real entry point; this exists for demos and
// worker smoke tests.
func main() {
	var (
		cfgPath  string
		customer string
		card     string
		merchant string
		category string
		reason   string
		amount   float64
	)
	flag.StringVar(&cfgPath, "config", "config.toml", "path to config file (optional)")
	flag.StringVar(&customer, "customer", "CUST001", "customer id")
	flag.StringVar(&card, "card", "4532", "card last four digits")
	flag.StringVar(&merchant, "merchant", "Acme Corp", "merchant name")
	flag.StringVar(&category, "category", "Fraud", "dispute category: Fraud, Billing Error, Authorization Issue")
	flag.StringVar(&reason, "reason", "Unauthorized charge on my statement", "dispute reason")
	flag.Float64Var(&amount, "amount", 156.78, "disputed amount")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	c, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort})
	if err != nil {
		log.Fatalf("unable to create Temporal client: %v", err)
	}
	defer c.Close()

	disputeCase := modal.DisputeCase{
		DisputeID:    bankapi.NewDisputeID(),
		CustomerID:   customer,
		CardLastFour: card,
		Amount:       amount,
		MerchantName: merchant,
		Category:     modal.DisputeCategory(category),
		Reason:       reason,
	}

	opts := client.StartWorkflowOptions{
		ID:                                       "dispute-" + disputeCase.DisputeID,
		TaskQueue:                                workflows.TaskQueue,
		WorkflowExecutionTimeout:                 2 * time.Minute,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	we, err := c.ExecuteWorkflow(ctx, opts, workflows.ResolveDispute, workflows.Params{
		Case:   disputeCase,
		Config: workflowConfig(cfg.Workflow),
	})
	if err != nil {
		log.Fatalf("unable to execute workflow: %v", err)
	}
	log.Printf("started workflow: WorkflowID=%s RunID=%s\n", we.GetID(), we.GetRunID())

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel2()

	var outcome modal.DisputeOutcome
	if err := we.Get(ctx2, &outcome); err != nil {
		log.Fatalf("workflow failed: %v", err)
	}
	pretty, _ := json.MarshalIndent(outcome, "", "  ")
	log.Printf("dispute resolved:\n%s\n", pretty)
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
