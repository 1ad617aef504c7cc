// Package insight evaluates a user's accounts, transactions, settings, and
// the external reference rate into a batch of insight records plus the
// monthly report summary. Deterministic given identical inputs.
package insight

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/models"
)

// Insight type tags. The orchestrator keys its idempotent upsert on
// (user, period, type), so each rule emits at most one insight per run.
const (
	TypeMonthlyBalance        = "monthly_balance"
	TypeCategoryConcentration = "category_concentration"
	TypeReferenceRate         = "reference_rate"
)

const uncategorized = "Uncategorized"

// topMovements is the size of the report's top-movements section.
const topMovements = 5

type Inputs struct {
	Accounts      []models.Account
	Transactions  []models.Transaction
	Settings      models.AutomationSettings
	ReferenceRate decimal.Decimal
	Period        models.Period
}

type Engine struct {
	// ConcentrationShare is the top-category share of total expense that
	// triggers the concentration rule.
	ConcentrationShare decimal.Decimal
	Now                func() time.Time
}

func New() *Engine {
	return &Engine{
		ConcentrationShare: decimal.NewFromFloat(0.4),
		Now:                time.Now,
	}
}

// Generate evaluates every rule independently and builds the report from
// the same transaction set. Rules never fail; a rule that does not apply
// simply emits nothing. A zero reference rate means "rate unavailable" and
// suppresses the rate rule entirely.
func (e *Engine) Generate(in Inputs) ([]models.Insight, models.MonthlyReport) {
	period := in.Period
	if period == "" {
		period = models.PeriodOf(e.Now())
	}
	txns := filterPeriod(in.Transactions, period)
	income, expense := totals(txns)

	insights := []models.Insight{}
	if ins, ok := e.balanceRule(income, expense); ok {
		insights = append(insights, e.stamp(ins, in.Settings.UserID, period))
	}
	if ins, ok := e.concentrationRule(txns, expense); ok {
		insights = append(insights, e.stamp(ins, in.Settings.UserID, period))
	}
	if ins, ok := e.rateRule(in.ReferenceRate, in.Settings.DollarAlertThreshold); ok {
		insights = append(insights, e.stamp(ins, in.Settings.UserID, period))
	}

	return insights, BuildReport(in.Transactions, period)
}

func (e *Engine) stamp(in models.Insight, userID string, period models.Period) models.Insight {
	in.ID = uuid.NewString()
	in.UserID = userID
	in.Period = period
	in.Source = models.SourceAutomation
	in.CreatedAt = e.Now().UTC()
	return in
}

func (e *Engine) balanceRule(income, expense decimal.Decimal) (models.Insight, bool) {
	switch {
	case expense.GreaterThan(income):
		deficit := expense.Sub(income)
		return models.Insight{
			Type:     TypeMonthlyBalance,
			Severity: models.SeverityWarning,
			Title:    "Spending exceeded income",
			Body:     fmt.Sprintf("Expenses exceeded income by %s this month.", deficit.StringFixed(2)),
			Metadata: map[string]interface{}{
				"income":  income.String(),
				"expense": expense.String(),
				"deficit": deficit.String(),
			},
		}, true
	case income.GreaterThan(expense):
		surplus := income.Sub(expense)
		return models.Insight{
			Type:     TypeMonthlyBalance,
			Severity: models.SeveritySuccess,
			Title:    "Positive monthly balance",
			Body:     fmt.Sprintf("Income exceeded expenses by %s this month.", surplus.StringFixed(2)),
			Metadata: map[string]interface{}{
				"income":  income.String(),
				"expense": expense.String(),
				"surplus": surplus.String(),
			},
		}, true
	}
	return models.Insight{}, false
}

func (e *Engine) concentrationRule(txns []models.Transaction, expense decimal.Decimal) (models.Insight, bool) {
	if !expense.IsPositive() {
		return models.Insight{}, false
	}
	cats := expenseByCategory(txns)
	if len(cats) == 0 {
		return models.Insight{}, false
	}
	top := cats[0]
	share := top.Value.Div(expense)
	if !share.GreaterThan(e.ConcentrationShare) {
		return models.Insight{}, false
	}
	pct := share.Mul(decimal.NewFromInt(100))
	return models.Insight{
		Type:     TypeCategoryConcentration,
		Severity: models.SeverityInfo,
		Title:    fmt.Sprintf("Spending concentrated in %s", top.Name),
		Body:     fmt.Sprintf("%s accounts for %s%% of this month's expenses.", top.Name, pct.StringFixed(1)),
		Metadata: map[string]interface{}{
			"category":       top.Name,
			"category_total": top.Value.String(),
			"total_expense":  expense.String(),
			"share":          share.String(),
		},
	}, true
}

// rateRule is only evaluated with a live (positive) rate and a configured
// threshold; it never emits a false positive from an unavailable rate.
func (e *Engine) rateRule(rate decimal.Decimal, threshold *decimal.Decimal) (models.Insight, bool) {
	if !rate.IsPositive() || threshold == nil {
		return models.Insight{}, false
	}
	if rate.LessThan(*threshold) {
		return models.Insight{}, false
	}
	return models.Insight{
		Type:     TypeReferenceRate,
		Severity: models.SeverityCritical,
		Title:    "Reference rate crossed your alert threshold",
		Body:     fmt.Sprintf("The reference rate reached %s, at or above your threshold of %s.", rate.String(), threshold.String()),
		Metadata: map[string]interface{}{
			"rate":      rate.String(),
			"threshold": threshold.String(),
		},
	}, true
}

// BuildReport produces the monthly report summary from the transaction set,
// independently of rule evaluation. Byte-identical figures for identical
// stored transactions and month.
func BuildReport(txns []models.Transaction, period models.Period) models.MonthlyReport {
	if period == "" {
		period = models.CurrentPeriod()
	}
	inPeriod := filterPeriod(txns, period)
	income, expense := totals(inPeriod)

	movements := make([]models.TransactionExcerpt, 0, len(inPeriod))
	for _, t := range inPeriod {
		movements = append(movements, models.TransactionExcerpt{
			Description: t.Description,
			Category:    t.Category,
			Type:        t.Type,
			Amount:      t.Amount,
			OccurredAt:  t.OccurredAt,
		})
	}
	sort.SliceStable(movements, func(i, j int) bool {
		a, b := movements[i].Amount.Abs(), movements[j].Amount.Abs()
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return movements[i].Description < movements[j].Description
	})
	if len(movements) > topMovements {
		movements = movements[:topMovements]
	}

	return models.MonthlyReport{
		Summary: models.ReportSummary{
			Month:      period,
			Income:     income.Round(2),
			Expense:    expense.Round(2),
			Balance:    income.Sub(expense).Round(2),
			Categories: expenseByCategory(inPeriod),
		},
		Movements: movements,
	}
}

func filterPeriod(txns []models.Transaction, period models.Period) []models.Transaction {
	out := make([]models.Transaction, 0, len(txns))
	for _, t := range txns {
		if period.Contains(t.OccurredAt) {
			out = append(out, t)
		}
	}
	return out
}

func totals(txns []models.Transaction) (income, expense decimal.Decimal) {
	for _, t := range txns {
		switch t.Type {
		case models.TransactionIncome:
			income = income.Add(t.Amount.Abs())
		case models.TransactionExpense:
			expense = expense.Add(t.Amount.Abs())
		}
	}
	return income, expense
}

// expenseByCategory sums expenses per category, sorted descending by value
// with ties broken by category name ascending for determinism.
func expenseByCategory(txns []models.Transaction) []models.CategoryTotal {
	byName := map[string]decimal.Decimal{}
	for _, t := range txns {
		if t.Type != models.TransactionExpense {
			continue
		}
		name := t.Category
		if name == "" {
			name = uncategorized
		}
		byName[name] = byName[name].Add(t.Amount.Abs())
	}
	out := make([]models.CategoryTotal, 0, len(byName))
	for name, value := range byName {
		out = append(out, models.CategoryTotal{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Value.Equal(out[j].Value) {
			return out[i].Value.GreaterThan(out[j].Value)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
