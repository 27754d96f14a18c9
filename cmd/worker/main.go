package main

import (
	"flag"
	"log"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"dispute-resolution-service/internal/activities"
	"dispute-resolution-service/internal/bankapi"
	"dispute-resolution-service/internal/config"
	"dispute-resolution-service/internal/dataset"
	"dispute-resolution-service/internal/oracle"
	"dispute-resolution-service/internal/workflows"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.toml", "path to config file (optional)")
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

	w := worker.New(c, workflows.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ResolveDispute)

	a := &activities.Activities{
		Oracle: oracle.NewSimulated(oracle.SimulatedConfig{
			Latency:     cfg.Oracle.Latency(),
			FailureRate: cfg.Oracle.FailureRate,
			Seed:        seedOr(cfg.Oracle.Seed),
		}),
		Data: dataset.New(cfg.Data.Dir),
		Bank: bankapi.New(bankapi.Config{
			Latency:           cfg.Bank.Latency(),
			FileFailureRate:   cfg.Bank.FileFailureRate,
			CreditFailureRate: cfg.Bank.CreditFailureRate,
			NotifyFailureRate: cfg.Bank.NotifyFailureRate,
			Seed:              seedOr(cfg.Bank.Seed),
		}),
		MaxOracleTurns: cfg.Oracle.MaxTurns,
	}
	w.RegisterActivity(a)

	log.Printf("worker started (taskQueue=%s dataDir=%s)\n", workflows.TaskQueue, cfg.Data.Dir)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker exited: %v", err)
	}
}

// seedOr keeps configured seeds for reproducible runs and randomizes
// otherwise.
func seedOr(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
