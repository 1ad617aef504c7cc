package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"finboard/internal/models"
)

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) Accounts(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, user_id, name, balance FROM accounts WHERE user_id = $1 ORDER BY name ASC`, userID)
	if err != nil {
		return nil, classify("database.Accounts", err)
	}
	defer rows.Close()
	res := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.StructScan(&a); err != nil {
			r.log.Warnf("scan account failed: %v", err)
			continue
		}
		res = append(res, a)
	}
	return res, nil
}

// TransactionsInPeriod returns the user's transactions whose occurrence
// date falls inside the calendar month, oldest first.
func (r *Repo) TransactionsInPeriod(ctx context.Context, userID string, period models.Period) ([]models.Transaction, error) {
	start, end := period.Bounds()
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, user_id, account_id, description, category, type, amount, occurred_at
		FROM transactions
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at ASC`, userID, start, end)
	if err != nil {
		return nil, classify("database.TransactionsInPeriod", err)
	}
	defer rows.Close()
	res := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.StructScan(&t); err != nil {
			r.log.Warnf("scan transaction failed: %v", err)
			continue
		}
		res = append(res, t)
	}
	return res, nil
}

func (r *Repo) InsertTransaction(ctx context.Context, t models.Transaction) (string, error) {
	var id string
	q := `INSERT INTO transactions (id, user_id, account_id, description, category, type, amount, occurred_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6::numeric, $7) RETURNING id`
	err := r.db.QueryRowContext(ctx, q, t.UserID, t.AccountID, t.Description, t.Category, t.Type, t.Amount.String(), t.OccurredAt).Scan(&id)
	if err != nil {
		return "", classify("database.InsertTransaction", err)
	}
	return id, nil
}

// Positions loads the user's investment positions together with their
// chronological price history.
func (r *Repo) Positions(ctx context.Context, userID string) ([]models.InvestmentPosition, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT p.id, p.user_id, p.symbol, p.quantity, p.average_price, p.current_price,
			p.dividends_received, p.operation,
			COALESCE((SELECT array_agg(pp.price::text ORDER BY pp.seq) FROM position_prices pp WHERE pp.position_id = p.id), '{}') AS history
		FROM investment_positions p
		WHERE p.user_id = $1
		ORDER BY p.symbol ASC`, userID)
	if err != nil {
		return nil, classify("database.Positions", err)
	}
	defer rows.Close()

	res := []models.InvestmentPosition{}
	for rows.Next() {
		var (
			p       models.InvestmentPosition
			history pq.StringArray
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.AveragePrice,
			&p.CurrentPrice, &p.DividendsReceived, &p.Operation, &history); err != nil {
			r.log.Warnf("scan position failed: %v", err)
			continue
		}
		for _, s := range history {
			v, err := decimal.NewFromString(s)
			if err != nil {
				r.log.Warnf("invalid history price %q for %s: %v", s, p.Symbol, err)
				continue
			}
			p.PriceHistory = append(p.PriceHistory, v)
		}
		res = append(res, p)
	}
	return res, nil
}

// EnsureSettings fetches the user's settings row, creating an empty one on
// first use. The unique constraint on user_id keeps concurrent first runs
// from inserting duplicates.
func (r *Repo) EnsureSettings(ctx context.Context, userID string) (SettingsRow, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO automation_settings (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return SettingsRow{}, classify("database.EnsureSettings", err)
	}
	var row SettingsRow
	err := r.db.GetContext(ctx, &row, `
		SELECT user_id, enabled, dollar_alert_threshold, insight_frequency, last_run_at, last_status, last_error
		FROM automation_settings WHERE user_id = $1`, userID)
	if err != nil {
		return SettingsRow{}, classify("database.EnsureSettings", err)
	}
	return row, nil
}

// RecordRunStatus stamps the outcome of an automation run on the settings
// row. Called on success and failure alike.
func (r *Repo) RecordRunStatus(ctx context.Context, userID string, status models.RunStatus, runErr string, at time.Time) error {
	var lastError sql.NullString
	if runErr != "" {
		lastError = sql.NullString{String: runErr, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE automation_settings
		SET last_run_at = $2, last_status = $3, last_error = $4
		WHERE user_id = $1`, userID, at, string(status), lastError)
	return classify("database.RecordRunStatus", err)
}

// ReplaceInsights swaps the full insight batch for (user, period) in one
// transaction, so a re-run never duplicates rows and never leaves a
// half-written period behind.
func (r *Repo) ReplaceInsights(ctx context.Context, userID string, period models.Period, insights []models.Insight) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return classify("database.ReplaceInsights", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM insights WHERE user_id = $1 AND period = $2`, userID, string(period)); err != nil {
		return classify("database.ReplaceInsights", err)
	}

	q := `INSERT INTO insights (id, user_id, period, type, title, body, severity, source, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, in := range insights {
		meta, err := json.Marshal(in.Metadata)
		if err != nil {
			return classify("database.ReplaceInsights", err)
		}
		if _, err := tx.ExecContext(ctx, q, in.ID, in.UserID, string(in.Period), in.Type,
			in.Title, in.Body, string(in.Severity), string(in.Source), meta, in.CreatedAt); err != nil {
			return classify("database.ReplaceInsights", err)
		}
	}
	return classify("database.ReplaceInsights", tx.Commit())
}

func (r *Repo) InsightsForPeriod(ctx context.Context, userID string, period models.Period) ([]models.Insight, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, user_id, period, type, title, body, severity, source, metadata, created_at
		FROM insights WHERE user_id = $1 AND period = $2
		ORDER BY type ASC`, userID, string(period))
	if err != nil {
		return nil, classify("database.InsightsForPeriod", err)
	}
	defer rows.Close()

	res := []models.Insight{}
	for rows.Next() {
		var row insightRow
		if err := rows.StructScan(&row); err != nil {
			r.log.Warnf("scan insight failed: %v", err)
			continue
		}
		in := models.Insight{
			ID:       row.ID,
			UserID:   row.UserID,
			Period:   models.Period(row.Period),
			Type:     row.Type,
			Title:    row.Title,
			Body:     row.Body,
			Severity: models.Severity(row.Severity),
			Source:   models.InsightSource(row.Source),
		}
		if row.CreatedAt.Valid {
			in.CreatedAt = row.CreatedAt.Time
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &in.Metadata); err != nil {
				r.log.Warnf("unmarshal insight metadata failed: %v", err)
			}
		}
		res = append(res, in)
	}
	return res, nil
}

// EnabledAutomationUsers lists users whose automation is switched on (NULL
// counts as enabled, matching the normalizer default).
func (r *Repo) EnabledAutomationUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT user_id FROM automation_settings WHERE enabled IS DISTINCT FROM FALSE`)
	if err != nil {
		return nil, classify("database.EnabledAutomationUsers", err)
	}
	defer rows.Close()
	res := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			r.log.Warnf("scan user id failed: %v", err)
			continue
		}
		res = append(res, id)
	}
	return res, nil
}

func (r *Repo) RecordDelivery(ctx context.Context, d models.ReportDelivery) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO report_deliveries (id, user_id, reference_month, recipient_email, total_amount, status, details, sent_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4::numeric, $5, $6, $7)`,
		d.UserID, string(d.ReferenceMonth), d.RecipientEmail, d.TotalAmount.String(), d.Status, d.Details, d.SentAt)
	return classify("database.RecordDelivery", err)
}
