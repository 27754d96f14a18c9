// Package dataset serves read-only point and range queries over the CSV
// fixture tables. Tables are loaded lazily and never mutated, so concurrent
// workflow runs can share one Service without locking beyond load time.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"dispute-resolution-service/internal/modal"
)

const (
	transactionsFile = "transactions.csv"
	disputesFile     = "past_disputes.csv"
	merchantRiskFile = "merchant_risk.csv"
	networkRulesFile = "network_rules.csv"
	policiesFile     = "dispute_policies.csv"
)

type Service struct {
	dir string

	txOnce   sync.Once
	txErr    error
	txs      []modal.Transaction
	dispOnce sync.Once
	dispErr  error
	disputes []modal.PastDispute
	riskOnce sync.Once
	riskErr  error
	risks    []modal.MerchantRisk
	ruleOnce sync.Once
	ruleErr  error
	rules    []modal.NetworkRule
	polOnce  sync.Once
	polErr   error
	policies []modal.DisputePolicy
}

func New(dir string) *Service {
	return &Service{dir: dir}
}

func (s *Service) TransactionsByCard(cardLastFour string) ([]modal.Transaction, error) {
	if err := s.loadTransactions(); err != nil {
		return nil, err
	}
	var out []modal.Transaction
	for _, t := range s.txs {
		if t.CardLastFour == cardLastFour {
			out = append(out, t)
		}
	}
	return out, nil
}

// FindTransaction matches by card, amount within one cent, and
// case-insensitive merchant substring. Returns nil when nothing matches.
func (s *Service) FindTransaction(cardLastFour string, amount float64, merchant string) (*modal.Transaction, error) {
	if err := s.loadTransactions(); err != nil {
		return nil, err
	}
	for i := range s.txs {
		t := &s.txs[i]
		if t.CardLastFour == cardLastFour &&
			math.Abs(t.Amount-amount) < 0.01 &&
			containsFold(t.MerchantName, merchant) {
			return t, nil
		}
	}
	return nil, nil
}

func (s *Service) DisputesByMerchant(merchant string) ([]modal.PastDispute, error) {
	if err := s.loadDisputes(); err != nil {
		return nil, err
	}
	var out []modal.PastDispute
	for _, d := range s.disputes {
		if containsFold(d.MerchantName, merchant) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Service) DisputesByCustomer(customerID string) ([]modal.PastDispute, error) {
	if err := s.loadDisputes(); err != nil {
		return nil, err
	}
	var out []modal.PastDispute
	for _, d := range s.disputes {
		if d.CustomerID == customerID {
			out = append(out, d)
		}
	}
	return out, nil
}

// RiskByMerchant returns nil without error when the merchant has no risk
// record; absence is a finding, not a failure.
func (s *Service) RiskByMerchant(merchant string) (*modal.MerchantRisk, error) {
	if err := s.loadRisks(); err != nil {
		return nil, err
	}
	for i := range s.risks {
		if containsFold(s.risks[i].MerchantName, merchant) {
			return &s.risks[i], nil
		}
	}
	return nil, nil
}

func (s *Service) RulesByCategory(category modal.DisputeCategory) ([]modal.NetworkRule, error) {
	if err := s.loadRules(); err != nil {
		return nil, err
	}
	ruleType := ruleTypeFor(category)
	var out []modal.NetworkRule
	for _, r := range s.rules {
		if containsFold(r.RuleType, ruleType) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) PoliciesByCategory(category modal.DisputeCategory, amount float64) ([]modal.DisputePolicy, error) {
	if err := s.loadPolicies(); err != nil {
		return nil, err
	}
	var out []modal.DisputePolicy
	for _, p := range s.policies {
		if containsFold(p.Category, string(category)) && p.MaxAmount >= amount {
			out = append(out, p)
		}
	}
	return out, nil
}

// ruleTypeFor maps dispute categories onto the rule taxonomy used by the
// network rules table.
func ruleTypeFor(category modal.DisputeCategory) string {
	switch category {
	case modal.CategoryFraud:
		return "Fraud"
	case modal.CategoryBillingError:
		return "Processing Error"
	case modal.CategoryAuthorizationIssue:
		return "Authorization"
	default:
		return string(category)
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *Service) loadTransactions() error {
	s.txOnce.Do(func() {
		s.txErr = s.readTable(transactionsFile, func(row rowReader) {
			s.txs = append(s.txs, modal.Transaction{
				TransactionID:    row.str("transaction_id"),
				CustomerID:       row.str("customer_id"),
				CardLastFour:     row.str("card_last_four"),
				MerchantName:     row.str("merchant_name"),
				MerchantCategory: row.str("merchant_category"),
				Amount:           row.f64("amount"),
				Currency:         row.str("currency"),
				Date:             row.str("date"),
				Status:           row.str("status"),
				Description:      row.str("description"),
				Location:         row.str("location"),
				AuthCode:         row.str("auth_code"),
			})
		})
	})
	return s.txErr
}

func (s *Service) loadDisputes() error {
	s.dispOnce.Do(func() {
		s.dispErr = s.readTable(disputesFile, func(row rowReader) {
			s.disputes = append(s.disputes, modal.PastDispute{
				DisputeID:      row.str("dispute_id"),
				TransactionID:  row.str("transaction_id"),
				CustomerID:     row.str("customer_id"),
				MerchantName:   row.str("merchant_name"),
				Reason:         row.str("reason"),
				Category:       row.str("category"),
				Amount:         row.f64("amount"),
				DisputeDate:    row.str("dispute_date"),
				Resolution:     row.str("resolution"),
				ResolutionDate: row.str("resolution_date"),
				Notes:          row.str("notes"),
			})
		})
	})
	return s.dispErr
}

func (s *Service) loadRisks() error {
	s.riskOnce.Do(func() {
		s.riskErr = s.readTable(merchantRiskFile, func(row rowReader) {
			s.risks = append(s.risks, modal.MerchantRisk{
				MerchantName:        row.str("merchant_name"),
				MerchantID:          row.str("merchant_id"),
				RiskScore:           row.f64("risk_score"),
				DisputeRate:         row.f64("dispute_rate"),
				FraudIncidents90d:   row.i("fraud_incidents_90d"),
				TotalTransactions90: row.i("total_transactions_90d"),
				ComplianceScore:     row.f64("compliance_score"),
				RiskFactors:         row.str("risk_factors"),
			})
		})
	})
	return s.riskErr
}

func (s *Service) loadRules() error {
	s.ruleOnce.Do(func() {
		s.ruleErr = s.readTable(networkRulesFile, func(row rowReader) {
			s.rules = append(s.rules, modal.NetworkRule{
				RuleID:                row.str("rule_id"),
				Network:               row.str("network"),
				RuleType:              row.str("rule_type"),
				Description:           row.str("description"),
				TimeLimitDays:         row.i("time_limit_days"),
				LiabilityShift:        row.str("liability_shift"),
				DocumentationRequired: row.str("documentation_required"),
				SuccessRate:           row.f64("success_rate"),
			})
		})
	})
	return s.ruleErr
}

func (s *Service) loadPolicies() error {
	s.polOnce.Do(func() {
		s.polErr = s.readTable(policiesFile, func(row rowReader) {
			s.policies = append(s.policies, modal.DisputePolicy{
				PolicyID:               row.str("policy_id"),
				Category:               row.str("category"),
				Subcategory:            row.str("subcategory"),
				TimeLimitHours:         row.i("time_limit_hours"),
				MaxAmount:              row.f64("max_amount"),
				AutoApproveThreshold:   row.f64("auto_approve_threshold"),
				InvestigationRequired:  row.b("investigation_required"),
				TemporaryCreditAllowed: row.b("temporary_credit_allowed"),
				ProcessingTimeDays:     row.i("processing_time_days"),
				SuccessRate:            row.f64("success_rate"),
			})
		})
	})
	return s.polErr
}

type rowReader struct {
	idx    map[string]int
	fields []string
}

func (r rowReader) str(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

func (r rowReader) f64(col string) float64 {
	v, _ := strconv.ParseFloat(r.str(col), 64)
	return v
}

func (r rowReader) i(col string) int {
	v, _ := strconv.Atoi(r.str(col))
	return v
}

func (r rowReader) b(col string) bool {
	v, _ := strconv.ParseBool(r.str(col))
	return v
}

func (s *Service) readTable(name string, each func(rowReader)) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("dataset: open %s: %w", name, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	records, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("dataset: read %s: %w", name, err)
	}
	if len(records) == 0 {
		return fmt.Errorf("dataset: %s has no header row", name)
	}

	idx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		idx[strings.TrimSpace(col)] = i
	}
	for _, rec := range records[1:] {
		each(rowReader{idx: idx, fields: rec})
	}
	return nil
}
