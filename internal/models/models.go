package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Operation tags how an investment position was entered. The stored
// quantity is always a non-negative magnitude; the operation decides the
// sign applied in every monetary aggregate.
type Operation string

const (
	OperationBuy   Operation = "BUY"
	OperationSell  Operation = "SELL"
	OperationOther Operation = "OTHER"
)

// SignedQuantity derives the effective quantity used in aggregation:
// abs(quantity), negated for SELL. OTHER counts as BUY.
func (op Operation) SignedQuantity(quantity decimal.Decimal) decimal.Decimal {
	q := quantity.Abs()
	if op == OperationSell {
		return q.Neg()
	}
	return q
}

type InvestmentPosition struct {
	ID                string            `db:"id" json:"id"`
	UserID            string            `db:"user_id" json:"user_id"`
	Symbol            string            `db:"symbol" json:"symbol"`
	Quantity          decimal.Decimal   `db:"quantity" json:"quantity"`
	AveragePrice      decimal.Decimal   `db:"average_price" json:"average_price"`
	CurrentPrice      decimal.Decimal   `db:"current_price" json:"current_price"`
	DividendsReceived decimal.Decimal   `db:"dividends_received" json:"dividends_received"`
	Operation         Operation         `db:"operation" json:"operation"`
	PriceHistory      []decimal.Decimal `json:"price_history"`
}

// PortfolioMetrics is recomputed per request and never persisted.
// Monetary fields are rounded to 2 decimal places; percentages are left
// unrounded for the consumer to format.
type PortfolioMetrics struct {
	TotalPatrimony        decimal.Decimal `json:"total_patrimony"`
	TotalInvested         decimal.Decimal `json:"total_invested"`
	CapitalGain           decimal.Decimal `json:"capital_gain"`
	Dividends12m          decimal.Decimal `json:"dividends_12m"`
	TotalProfit           decimal.Decimal `json:"total_profit"`
	ProfitabilityPercent  decimal.Decimal `json:"profitability_percent"`
	DailyVariationValue   decimal.Decimal `json:"daily_variation_value"`
	DailyVariationPercent decimal.Decimal `json:"daily_variation_percent"`
}

type InsightFrequency string

const (
	FrequencyDaily   InsightFrequency = "daily"
	FrequencyWeekly  InsightFrequency = "weekly"
	FrequencyMonthly InsightFrequency = "monthly"
)

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// AutomationSettings is the fully-defaulted view of a user's settings row.
// Raw rows may be partial; settings.Normalize fills the gaps.
type AutomationSettings struct {
	UserID               string           `json:"user_id"`
	Enabled              bool             `json:"enabled"`
	DollarAlertThreshold *decimal.Decimal `json:"dollar_alert_threshold"`
	InsightFrequency     InsightFrequency `json:"insight_frequency"`
	LastRunAt            *time.Time       `json:"last_run_at"`
	LastStatus           *RunStatus       `json:"last_status"`
	LastError            *string          `json:"last_error"`
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
	SeveritySuccess  Severity = "success"
)

type InsightSource string

const (
	SourceAutomation InsightSource = "automation"
	SourceAI         InsightSource = "ai"
	SourceManual     InsightSource = "manual"
)

// Insight is one generated financial observation. Metadata carries the raw
// numeric inputs the emitting rule used, so the rationale can be audited
// without recomputation.
type Insight struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Period    Period                 `json:"period"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Severity  Severity               `json:"severity"`
	Source    InsightSource          `json:"source"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type Transaction struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"user_id"`
	AccountID   string          `db:"account_id" json:"account_id"`
	Description string          `db:"description" json:"description"`
	Category    string          `db:"category" json:"category"`
	Type        TransactionType `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	OccurredAt  time.Time       `db:"occurred_at" json:"occurred_at"`
}

type Account struct {
	ID      string          `db:"id" json:"id"`
	UserID  string          `db:"user_id" json:"user_id"`
	Name    string          `db:"name" json:"name"`
	Balance decimal.Decimal `db:"balance" json:"balance"`
}

type CategoryTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type ReportSummary struct {
	Month      Period          `json:"month"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Balance    decimal.Decimal `json:"balance"`
	Categories []CategoryTotal `json:"categories"`
}

type TransactionExcerpt struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// MonthlyReport is derived and ephemeral; delivery history persistence is
// tracked separately as ReportDelivery rows.
type MonthlyReport struct {
	Summary   ReportSummary        `json:"summary"`
	Movements []TransactionExcerpt `json:"movements"`
}

type ReportDelivery struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	ReferenceMonth Period          `db:"reference_month" json:"reference_month"`
	RecipientEmail string          `db:"recipient_email" json:"recipient_email"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status         string          `db:"status" json:"status"`
	Details        string          `db:"details" json:"details"`
	SentAt         time.Time       `db:"sent_at" json:"sent_at"`
}
