package insight

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func june(day int) time.Time {
	return time.Date(2026, 6, day, 12, 0, 0, 0, time.UTC)
}

func tx(typ models.TransactionType, category, amount string, day int) models.Transaction {
	return models.Transaction{
		Description: category + " purchase",
		Category:    category,
		Type:        typ,
		Amount:      d(amount),
		OccurredAt:  june(day),
	}
}

func findByType(insights []models.Insight, typ string) (models.Insight, bool) {
	for _, in := range insights {
		if in.Type == typ {
			return in, true
		}
	}
	return models.Insight{}, false
}

func TestGenerate_DeficitEmitsWarning(t *testing.T) {
	in := Inputs{
		Transactions: []models.Transaction{
			tx(models.TransactionIncome, "Salary", "5000", 1),
			tx(models.TransactionExpense, "Rent", "6200", 5),
		},
		Settings: models.AutomationSettings{UserID: "u1"},
		Period:   "2026-06",
	}
	insights, report := New().Generate(in)

	bal, ok := findByType(insights, TypeMonthlyBalance)
	require.True(t, ok)
	assert.Equal(t, models.SeverityWarning, bal.Severity)
	assert.Equal(t, "1200", bal.Metadata["deficit"])
	assert.Equal(t, "5000", bal.Metadata["income"])
	assert.Equal(t, "6200", bal.Metadata["expense"])
	assert.Equal(t, models.SourceAutomation, bal.Source)
	assert.NotEmpty(t, bal.ID)

	assert.True(t, report.Summary.Balance.Equal(d("-1200")), "balance = %s", report.Summary.Balance)
}

func TestGenerate_SurplusEmitsSuccess(t *testing.T) {
	in := Inputs{
		Transactions: []models.Transaction{
			tx(models.TransactionIncome, "Salary", "7000", 1),
			tx(models.TransactionExpense, "Rent", "2000", 5),
		},
		Settings: models.AutomationSettings{UserID: "u1"},
		Period:   "2026-06",
	}
	insights, _ := New().Generate(in)

	bal, ok := findByType(insights, TypeMonthlyBalance)
	require.True(t, ok)
	assert.Equal(t, models.SeveritySuccess, bal.Severity)
	assert.Equal(t, "5000", bal.Metadata["surplus"])
}

func TestGenerate_BalancedMonthEmitsNoBalanceInsight(t *testing.T) {
	in := Inputs{
		Transactions: []models.Transaction{
			tx(models.TransactionIncome, "Salary", "1000", 1),
			tx(models.TransactionExpense, "Rent", "1000", 2),
		},
		Period: "2026-06",
	}
	insights, _ := New().Generate(in)
	_, ok := findByType(insights, TypeMonthlyBalance)
	assert.False(t, ok)
}

func TestGenerate_CategoryConcentration(t *testing.T) {
	in := Inputs{
		Transactions: []models.Transaction{
			tx(models.TransactionExpense, "Rent", "500", 1),
			tx(models.TransactionExpense, "Food", "300", 2),
			tx(models.TransactionExpense, "Transport", "200", 3),
		},
		Period: "2026-06",
	}
	insights, _ := New().Generate(in)

	conc, ok := findByType(insights, TypeCategoryConcentration)
	require.True(t, ok)
	assert.Equal(t, models.SeverityInfo, conc.Severity)
	assert.Equal(t, "Rent", conc.Metadata["category"])
	assert.Equal(t, "0.5", conc.Metadata["share"])
}

func TestGenerate_NoConcentrationBelowShare(t *testing.T) {
	in := Inputs{
		Transactions: []models.Transaction{
			tx(models.TransactionExpense, "Rent", "300", 1),
			tx(models.TransactionExpense, "Food", "300", 2),
			tx(models.TransactionExpense, "Transport", "400", 3),
		},
		Period: "2026-06",
	}
	insights, _ := New().Generate(in)
	_, ok := findByType(insights, TypeCategoryConcentration)
	assert.False(t, ok)
}

func TestGenerate_RateRule(t *testing.T) {
	threshold := d("5.00")
	in := Inputs{
		Settings:      models.AutomationSettings{UserID: "u1", DollarAlertThreshold: &threshold},
		ReferenceRate: d("5.43"),
		Period:        "2026-06",
	}
	insights, _ := New().Generate(in)

	rr, ok := findByType(insights, TypeReferenceRate)
	require.True(t, ok)
	assert.Equal(t, models.SeverityCritical, rr.Severity)
	assert.Equal(t, "5.43", rr.Metadata["rate"])
	assert.Equal(t, "5", rr.Metadata["threshold"])
}

func TestGenerate_RateRuleSuppressedWhenRateUnavailable(t *testing.T) {
	threshold := d("5.00")
	in := Inputs{
		Settings:      models.AutomationSettings{UserID: "u1", DollarAlertThreshold: &threshold},
		ReferenceRate: decimal.Zero, // fallback value: rate unavailable
		Period:        "2026-06",
	}
	insights, _ := New().Generate(in)
	_, ok := findByType(insights, TypeReferenceRate)
	assert.False(t, ok)
}

func TestGenerate_RateRuleSuppressedWithoutThreshold(t *testing.T) {
	in := Inputs{
		Settings:      models.AutomationSettings{UserID: "u1"},
		ReferenceRate: d("5.43"),
		Period:        "2026-06",
	}
	insights, _ := New().Generate(in)
	_, ok := findByType(insights, TypeReferenceRate)
	assert.False(t, ok)
}

func TestGenerate_RateBelowThresholdEmitsNothing(t *testing.T) {
	threshold := d("6.00")
	in := Inputs{
		Settings:      models.AutomationSettings{UserID: "u1", DollarAlertThreshold: &threshold},
		ReferenceRate: d("5.43"),
		Period:        "2026-06",
	}
	insights, _ := New().Generate(in)
	_, ok := findByType(insights, TypeReferenceRate)
	assert.False(t, ok)
}

func TestGenerate_IgnoresTransactionsOutsidePeriod(t *testing.T) {
	outside := tx(models.TransactionExpense, "Rent", "9999", 1)
	outside.OccurredAt = time.Date(2026, 5, 31, 23, 59, 0, 0, time.UTC)

	in := Inputs{
		Transactions: []models.Transaction{
			outside,
			tx(models.TransactionIncome, "Salary", "100", 1),
		},
		Period: "2026-06",
	}
	insights, report := New().Generate(in)

	bal, ok := findByType(insights, TypeMonthlyBalance)
	require.True(t, ok)
	assert.Equal(t, models.SeveritySuccess, bal.Severity)
	assert.True(t, report.Summary.Expense.IsZero())
}

func TestBuildReport_CategoryOrderDeterministic(t *testing.T) {
	txns := []models.Transaction{
		tx(models.TransactionExpense, "Food", "100", 1),
		tx(models.TransactionExpense, "Transport", "100", 2),
		tx(models.TransactionExpense, "Rent", "300", 3),
	}
	report := BuildReport(txns, "2026-06")

	require.Len(t, report.Summary.Categories, 3)
	assert.Equal(t, "Rent", report.Summary.Categories[0].Name)
	// equal values tie-break on name ascending
	assert.Equal(t, "Food", report.Summary.Categories[1].Name)
	assert.Equal(t, "Transport", report.Summary.Categories[2].Name)
}

func TestBuildReport_TopMovements(t *testing.T) {
	txns := []models.Transaction{}
	for i := 1; i <= 8; i++ {
		txns = append(txns, models.Transaction{
			Description: string(rune('a' + i)),
			Type:        models.TransactionExpense,
			Category:    "Misc",
			Amount:      decimal.NewFromInt(int64(i * 10)),
			OccurredAt:  june(i),
		})
	}
	report := BuildReport(txns, "2026-06")
	require.Len(t, report.Movements, topMovements)
	assert.True(t, report.Movements[0].Amount.Equal(d("80")))
}

func TestBuildReport_UncategorizedExpenses(t *testing.T) {
	txns := []models.Transaction{
		{Type: models.TransactionExpense, Amount: d("42"), OccurredAt: june(1)},
	}
	report := BuildReport(txns, "2026-06")
	require.Len(t, report.Summary.Categories, 1)
	assert.Equal(t, "Uncategorized", report.Summary.Categories[0].Name)
}

func TestBuildReport_Deterministic(t *testing.T) {
	txns := []models.Transaction{
		tx(models.TransactionIncome, "Salary", "5000.55", 1),
		tx(models.TransactionExpense, "Rent", "1234.56", 2),
		tx(models.TransactionExpense, "Food", "78.90", 3),
	}
	a := BuildReport(txns, "2026-06")
	b := BuildReport(txns, "2026-06")
	assert.Equal(t, a, b)
}
