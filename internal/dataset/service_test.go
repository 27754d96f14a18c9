package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispute-resolution-service/internal/modal"
)

func writeFixtures(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		transactionsFile: `transaction_id,customer_id,card_last_four,merchant_name,merchant_category,amount,currency,date,status,description,location,auth_code
TXN00001,CUST001,4532,Acme Corp,Retail,156.78,USD,2026-06-01,Completed,Purchase at Acme Corp,Online,AUTH000001
TXN00002,CUST001,4532,MegaMart,Retail,89.10,USD,2026-06-03,Completed,Purchase at MegaMart,Online,AUTH000002
TXN00003,CUST002,9911,Acme Corp,Retail,156.78,USD,2026-06-04,Completed,Purchase at Acme Corp,Online,AUTH000003
`,
		disputesFile: `dispute_id,transaction_id,customer_id,merchant_name,reason,category,amount,dispute_date,resolution,resolution_date,notes
DSP20260001,TXN00001,CUST001,Acme Corp,Unauthorized charge,Fraud,156.78,2026-06-10,Approved,2026-06-20,ok
DSP20260002,TXN00002,CUST002,Acme Corp,Duplicate charge,Billing Error,89.10,2026-06-11,Denied,2026-06-21,ok
DSP20260003,TXN00003,CUST001,MegaMart,Unauthorized charge,Fraud,42.00,2026-06-12,Pending,,
`,
		merchantRiskFile: `merchant_name,merchant_id,risk_score,dispute_rate,fraud_incidents_90d,total_transactions_90d,compliance_score,risk_factors
Acme Corp,MER0001,7.5,4.50,12,10000,70.0,elevated chargeback volume
MegaMart,MER0002,2.1,1.20,1,25000,91.6,none
`,
		networkRulesFile: `rule_id,network,rule_type,description,time_limit_days,liability_shift,documentation_required,success_rate
NR001,Visa,Fraud,Card-absent fraud chargeback,120,Issuer,Transaction records,78
NR002,Visa,Processing Error,Duplicate processing,120,Acquirer,Both receipts,85
NR003,Mastercard,Authorization,Declined authorization processed,90,Acquirer,Authorization response,58
`,
		policiesFile: `policy_id,category,subcategory,time_limit_hours,max_amount,auto_approve_threshold,investigation_required,temporary_credit_allowed,processing_time_days,success_rate
POL001,Fraud,Unauthorized charge,1440,25000.00,100.00,true,true,10,82
POL002,Billing Error,Duplicate charge,2160,10000.00,250.00,false,true,5,90
POL003,Fraud,Counterfeit card,1440,100.00,0.00,true,true,14,88
`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return New(dir)
}

func TestTransactionsByCard(t *testing.T) {
	s := writeFixtures(t)

	txs, err := s.TransactionsByCard("4532")
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestFindTransaction(t *testing.T) {
	s := writeFixtures(t)

	// Amount matches within a cent, merchant matches case-insensitively on a
	// substring.
	tx, err := s.FindTransaction("4532", 156.779, "acme")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, "TXN00001", tx.TransactionID)

	tx, err = s.FindTransaction("4532", 156.80, "acme")
	require.NoError(t, err)
	assert.Nil(t, tx)

	tx, err = s.FindTransaction("0000", 156.78, "acme")
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestDisputesByMerchantAndCustomer(t *testing.T) {
	s := writeFixtures(t)

	byMerchant, err := s.DisputesByMerchant("Acme Corp")
	require.NoError(t, err)
	assert.Len(t, byMerchant, 2)

	byCustomer, err := s.DisputesByCustomer("CUST001")
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)
}

func TestRiskByMerchant(t *testing.T) {
	s := writeFixtures(t)

	risk, err := s.RiskByMerchant("Acme Corp")
	require.NoError(t, err)
	require.NotNil(t, risk)
	assert.Equal(t, 7.5, risk.RiskScore)
	assert.Equal(t, 12, risk.FraudIncidents90d)

	// Unknown merchant: nil result, no error.
	risk, err = s.RiskByMerchant("Corner Cafe")
	require.NoError(t, err)
	assert.Nil(t, risk)
}

func TestRulesByCategory(t *testing.T) {
	s := writeFixtures(t)

	fraud, err := s.RulesByCategory(modal.CategoryFraud)
	require.NoError(t, err)
	require.Len(t, fraud, 1)
	assert.Equal(t, "NR001", fraud[0].RuleID)

	billing, err := s.RulesByCategory(modal.CategoryBillingError)
	require.NoError(t, err)
	require.Len(t, billing, 1)
	assert.Equal(t, "Processing Error", billing[0].RuleType)

	auth, err := s.RulesByCategory(modal.CategoryAuthorizationIssue)
	require.NoError(t, err)
	require.Len(t, auth, 1)
	assert.Equal(t, "NR003", auth[0].RuleID)
}

func TestPoliciesByCategory(t *testing.T) {
	s := writeFixtures(t)

	// POL003 caps at $100 and is filtered out for a $156.78 dispute.
	policies, err := s.PoliciesByCategory(modal.CategoryFraud, 156.78)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "POL001", policies[0].PolicyID)
	assert.True(t, policies[0].TemporaryCreditAllowed)
}

func TestMissingTableIsAnError(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.TransactionsByCard("4532")
	require.Error(t, err)

	// The load error is sticky across calls.
	_, err2 := s.FindTransaction("4532", 1, "x")
	assert.Equal(t, err, err2)
}
