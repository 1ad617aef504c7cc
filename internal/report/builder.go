// Package report builds the monthly report consumed as JSON or rendered
// into a spreadsheet artifact, and records delivery history entries.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"finboard/internal/insight"
	"finboard/internal/models"
)

type Store interface {
	TransactionsInPeriod(ctx context.Context, userID string, period models.Period) ([]models.Transaction, error)
	RecordDelivery(ctx context.Context, d models.ReportDelivery) error
}

type Builder struct {
	store Store
	log   *logrus.Logger
}

func NewBuilder(store Store, log *logrus.Logger) *Builder {
	return &Builder{store: store, log: log}
}

// Build produces the report for the given month (current month when empty).
// Report-only path: no insights are emitted. Deterministic for the same
// stored transactions and month.
func (b *Builder) Build(ctx context.Context, userID string, month models.Period) (models.MonthlyReport, error) {
	if month == "" {
		month = models.CurrentPeriod()
	}
	txns, err := b.store.TransactionsInPeriod(ctx, userID, month)
	if err != nil {
		return models.MonthlyReport{}, fmt.Errorf("load transactions: %w", err)
	}
	return insight.BuildReport(txns, month), nil
}

// RecordDelivery writes one delivery-history entry for the report.
func (b *Builder) RecordDelivery(ctx context.Context, userID, recipientEmail, status, details string, r models.MonthlyReport) error {
	return b.store.RecordDelivery(ctx, models.ReportDelivery{
		UserID:         userID,
		ReferenceMonth: r.Summary.Month,
		RecipientEmail: recipientEmail,
		TotalAmount:    r.Summary.Balance,
		Status:         status,
		Details:        details,
		SentAt:         time.Now().UTC(),
	})
}
