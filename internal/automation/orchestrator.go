// Package automation sequences one end-to-end run per user: normalize
// settings, fetch the reference rate, evaluate rules, persist the insight
// batch, and record the run outcome.
package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"finboard/internal/apperr"
	"finboard/internal/database"
	"finboard/internal/insight"
	"finboard/internal/models"
	"finboard/internal/quote"
	"finboard/internal/settings"
)

// Store is the persistence surface a run needs. (user, period) concurrency
// safety is delegated to the store's unique constraints; the orchestrator
// does no in-process locking.
type Store interface {
	EnsureSettings(ctx context.Context, userID string) (database.SettingsRow, error)
	Accounts(ctx context.Context, userID string) ([]models.Account, error)
	TransactionsInPeriod(ctx context.Context, userID string, period models.Period) ([]models.Transaction, error)
	ReplaceInsights(ctx context.Context, userID string, period models.Period, insights []models.Insight) error
	RecordRunStatus(ctx context.Context, userID string, status models.RunStatus, runErr string, at time.Time) error
}

type RunResult struct {
	Period        models.Period        `json:"period"`
	Status        models.RunStatus     `json:"status"`
	Insights      []models.Insight     `json:"insights"`
	Report        models.MonthlyReport `json:"report"`
	ReferenceRate decimal.Decimal      `json:"reference_rate"`
	Warnings      []string             `json:"warnings,omitempty"`
}

type Orchestrator struct {
	store  Store
	rates  quote.RateProvider
	engine *insight.Engine
	log    *logrus.Logger
	now    func() time.Time
}

func New(store Store, rates quote.RateProvider, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:  store,
		rates:  rates,
		engine: insight.New(),
		log:    log,
		now:    time.Now,
	}
}

// Run executes the automation state machine for one user. The rate fetch is
// the only step exempted from failing the run; everything else marks the
// settings row FAILURE and returns a structured error. The insight batch is
// replaced wholesale for (user, period), so re-running with unchanged
// inputs yields the same set, never a doubled one.
func (o *Orchestrator) Run(ctx context.Context, userID string, period models.Period) (RunResult, error) {
	if period == "" {
		period = models.PeriodOf(o.now())
	}

	row, err := o.store.EnsureSettings(ctx, userID)
	if err != nil {
		return o.fail(ctx, userID, fmt.Errorf("ensure settings: %w", err))
	}
	cfg := settings.Normalize(row)

	rate := quote.Fallback(ctx, o.rates, o.log)

	var warnings []string
	accounts, err := o.store.Accounts(ctx, userID)
	if err != nil {
		if !apperr.IsKind(err, apperr.SchemaMissing) {
			return o.fail(ctx, userID, fmt.Errorf("load accounts: %w", err))
		}
		o.log.Warnf("accounts relation missing for user %s: %v", userID, err)
		warnings = append(warnings, "accounts table missing; run the schema migration")
	}
	txns, err := o.store.TransactionsInPeriod(ctx, userID, period)
	if err != nil {
		if !apperr.IsKind(err, apperr.SchemaMissing) {
			return o.fail(ctx, userID, fmt.Errorf("load transactions: %w", err))
		}
		o.log.Warnf("transactions relation missing for user %s: %v", userID, err)
		warnings = append(warnings, "transactions table missing; run the schema migration")
	}

	insights, report := o.engine.Generate(insight.Inputs{
		Accounts:      accounts,
		Transactions:  txns,
		Settings:      cfg,
		ReferenceRate: rate,
		Period:        period,
	})

	if err := o.store.ReplaceInsights(ctx, userID, period, insights); err != nil {
		return o.fail(ctx, userID, fmt.Errorf("persist insights: %w", err))
	}

	if err := o.store.RecordRunStatus(ctx, userID, models.RunSuccess, "", o.now().UTC()); err != nil {
		// The batch is already committed; surface the stamp failure as a
		// warning rather than undoing a materially successful run.
		o.log.Errorf("record run status for user %s: %v", userID, err)
		warnings = append(warnings, "run succeeded but status stamp failed")
	}

	return RunResult{
		Period:        period,
		Status:        models.RunSuccess,
		Insights:      insights,
		Report:        report,
		ReferenceRate: rate,
		Warnings:      warnings,
	}, nil
}

// fail stamps the failure on the settings row (best effort) and reports the
// error to the caller. Nothing is swallowed.
func (o *Orchestrator) fail(ctx context.Context, userID string, runErr error) (RunResult, error) {
	if err := o.store.RecordRunStatus(ctx, userID, models.RunFailure, runErr.Error(), o.now().UTC()); err != nil {
		o.log.Errorf("record failure status for user %s: %v", userID, err)
	}
	return RunResult{Status: models.RunFailure}, fmt.Errorf("automation run for user %s: %w", userID, runErr)
}
