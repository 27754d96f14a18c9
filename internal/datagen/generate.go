// Package datagen writes the CSV fixture tables the dataset service reads.
// Generation is seeded, so the same seed always yields the same tables.
package datagen

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Merchants in the generated universe. "Corner Cafe" deliberately has no
// risk profile so lookups against it exercise the absent-record path.
var merchants = []string{
	"Acme Corp",
	"TechWorld Online",
	"QuickBite Delivery",
	"Global Travel Co",
	"StreamFlix",
	"Urban Outfitter Supply",
	"Corner Cafe",
	"MegaMart",
}

var categories = []string{"Fraud", "Billing Error", "Authorization Issue"}

type Generator struct {
	rng *rand.Rand
}

func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate writes all five tables into dir, creating it if needed.
func (g *Generator) Generate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("datagen: %w", err)
	}
	writers := []struct {
		name string
		fn   func(*csv.Writer) error
	}{
		{"transactions.csv", g.transactions},
		{"past_disputes.csv", g.pastDisputes},
		{"merchant_risk.csv", g.merchantRisk},
		{"network_rules.csv", g.networkRules},
		{"dispute_policies.csv", g.policies},
	}
	for _, w := range writers {
		if err := g.writeFile(filepath.Join(dir, w.name), w.fn); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeFile(path string, fn func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("datagen: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := fn(w); err != nil {
		return fmt.Errorf("datagen: %s: %w", filepath.Base(path), err)
	}
	w.Flush()
	return w.Error()
}

func (g *Generator) transactions(w *csv.Writer) error {
	if err := w.Write([]string{
		"transaction_id", "customer_id", "card_last_four", "merchant_name", "merchant_category",
		"amount", "currency", "date", "status", "description", "location", "auth_code",
	}); err != nil {
		return err
	}

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		merchant := merchants[g.rng.Intn(len(merchants))]
		customer := fmt.Sprintf("CUST%03d", 1+g.rng.Intn(20))
		card := fmt.Sprintf("%04d", 1000+g.rng.Intn(9000))
		amount := 5 + g.rng.Float64()*1200
		date := base.AddDate(0, 0, g.rng.Intn(90))
		row := []string{
			fmt.Sprintf("TXN%05d", i+1),
			customer,
			card,
			merchant,
			merchantCategory(merchant),
			fmt.Sprintf("%.2f", amount),
			"USD",
			date.Format("2006-01-02"),
			"Completed",
			fmt.Sprintf("Purchase at %s", merchant),
			"Online",
			fmt.Sprintf("AUTH%06d", g.rng.Intn(1_000_000)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) pastDisputes(w *csv.Writer) error {
	if err := w.Write([]string{
		"dispute_id", "transaction_id", "customer_id", "merchant_name", "reason", "category",
		"amount", "dispute_date", "resolution", "resolution_date", "notes",
	}); err != nil {
		return err
	}

	resolutions := []string{"Approved", "Approved", "Approved", "Denied", "Pending"}
	reasons := map[string]string{
		"Fraud":               "Unauthorized charge",
		"Billing Error":       "Charged twice for the same order",
		"Authorization Issue": "Charge exceeds the authorized amount",
	}
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		merchant := merchants[g.rng.Intn(len(merchants))]
		category := categories[g.rng.Intn(len(categories))]
		resolution := resolutions[g.rng.Intn(len(resolutions))]
		opened := base.AddDate(0, 0, g.rng.Intn(100))
		resolved := ""
		if resolution != "Pending" {
			resolved = opened.AddDate(0, 0, 7+g.rng.Intn(14)).Format("2006-01-02")
		}
		row := []string{
			fmt.Sprintf("DSP2026%04d", i+1),
			fmt.Sprintf("TXN%05d", 1+g.rng.Intn(60)),
			fmt.Sprintf("CUST%03d", 1+g.rng.Intn(20)),
			merchant,
			reasons[category],
			category,
			fmt.Sprintf("%.2f", 10+g.rng.Float64()*900),
			opened.Format("2006-01-02"),
			resolution,
			resolved,
			"Resolved through standard review",
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) merchantRisk(w *csv.Writer) error {
	if err := w.Write([]string{
		"merchant_name", "merchant_id", "risk_score", "dispute_rate", "fraud_incidents_90d",
		"total_transactions_90d", "compliance_score", "risk_factors",
	}); err != nil {
		return err
	}

	for i, merchant := range merchants {
		if merchant == "Corner Cafe" {
			continue // no profile on file
		}
		score := 1 + g.rng.Float64()*9
		factors := "none"
		if score >= 7 {
			factors = "elevated chargeback volume; recent fraud reports"
		} else if score >= 4 {
			factors = "above-average dispute rate"
		}
		row := []string{
			merchant,
			fmt.Sprintf("MER%04d", i+1),
			fmt.Sprintf("%.1f", score),
			fmt.Sprintf("%.2f", score*0.6),
			fmt.Sprintf("%d", g.rng.Intn(int(score*3)+1)),
			fmt.Sprintf("%d", 500+g.rng.Intn(20_000)),
			fmt.Sprintf("%.1f", 100-score*4),
			factors,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) networkRules(w *csv.Writer) error {
	if err := w.Write([]string{
		"rule_id", "network", "rule_type", "description", "time_limit_days",
		"liability_shift", "documentation_required", "success_rate",
	}); err != nil {
		return err
	}

	rules := []struct {
		network, ruleType, desc string
		days                    int
		shift, docs             string
		success                 float64
	}{
		{"Visa", "Fraud", "Card-absent fraud chargeback", 120, "Issuer", "Transaction records", 78},
		{"Mastercard", "Fraud", "Fraudulent card-present transaction", 120, "Issuer", "Cardholder statement", 72},
		{"Visa", "Processing Error", "Duplicate processing of a single transaction", 120, "Acquirer", "Both transaction receipts", 85},
		{"Mastercard", "Processing Error", "Incorrect transaction amount posted", 90, "Acquirer", "Receipt showing correct amount", 81},
		{"Visa", "Authorization", "Transaction processed without valid authorization", 75, "Acquirer", "Authorization log", 64},
		{"Mastercard", "Authorization", "Declined authorization processed anyway", 90, "Acquirer", "Authorization response", 58},
	}
	for i, r := range rules {
		row := []string{
			fmt.Sprintf("NR%03d", i+1),
			r.network,
			r.ruleType,
			r.desc,
			fmt.Sprintf("%d", r.days),
			r.shift,
			r.docs,
			fmt.Sprintf("%.0f", r.success),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) policies(w *csv.Writer) error {
	if err := w.Write([]string{
		"policy_id", "category", "subcategory", "time_limit_hours", "max_amount",
		"auto_approve_threshold", "investigation_required", "temporary_credit_allowed",
		"processing_time_days", "success_rate",
	}); err != nil {
		return err
	}

	policies := []struct {
		category, sub string
		hours         int
		max, auto     float64
		investigate   bool
		credit        bool
		days          int
		success       float64
	}{
		{"Fraud", "Unauthorized charge", 1440, 25_000, 100, true, true, 10, 82},
		{"Fraud", "Counterfeit card", 1440, 25_000, 0, true, true, 14, 88},
		{"Billing Error", "Duplicate charge", 2160, 10_000, 250, false, true, 5, 90},
		{"Billing Error", "Wrong amount", 2160, 10_000, 100, false, true, 7, 86},
		{"Authorization Issue", "Exceeded authorization", 1800, 5_000, 0, true, false, 10, 61},
		{"Authorization Issue", "Expired authorization", 1800, 5_000, 0, true, false, 12, 57},
	}
	for i, p := range policies {
		row := []string{
			fmt.Sprintf("POL%03d", i+1),
			p.category,
			p.sub,
			fmt.Sprintf("%d", p.hours),
			fmt.Sprintf("%.2f", p.max),
			fmt.Sprintf("%.2f", p.auto),
			fmt.Sprintf("%t", p.investigate),
			fmt.Sprintf("%t", p.credit),
			fmt.Sprintf("%d", p.days),
			fmt.Sprintf("%.0f", p.success),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func merchantCategory(merchant string) string {
	switch merchant {
	case "QuickBite Delivery", "Corner Cafe":
		return "Food & Dining"
	case "TechWorld Online", "StreamFlix":
		return "Digital Services"
	case "Global Travel Co":
		return "Travel"
	default:
		return "Retail"
	}
}
