package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/models"
)

func setupDB(t *testing.T) *sqlx.DB {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is not set; skipping integration tests")
	}
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	b, err := os.ReadFile("../../migrations/0001_init.up.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		t.Logf("exec migration: %v", err)
	}
	return db
}

func TestEnsureSettings_Idempotent(t *testing.T) {
	db := setupDB(t)
	r := New(db, logrus.New())
	ctx := context.Background()
	userID := "settings-test-user"

	_, _ = db.ExecContext(ctx, `DELETE FROM automation_settings WHERE user_id = $1`, userID)

	row1, err := r.EnsureSettings(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, row1.UserID)
	assert.False(t, row1.Enabled.Valid, "fresh row should have NULL enabled")

	// second call must reuse the row, not create another
	row2, err := r.EnsureSettings(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, row1.UserID, row2.UserID)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM automation_settings WHERE user_id = $1`, userID))
	assert.Equal(t, 1, count)
}

func TestRecordRunStatus(t *testing.T) {
	db := setupDB(t)
	r := New(db, logrus.New())
	ctx := context.Background()
	userID := "status-test-user"

	_, _ = db.ExecContext(ctx, `DELETE FROM automation_settings WHERE user_id = $1`, userID)
	_, err := r.EnsureSettings(ctx, userID)
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, r.RecordRunStatus(ctx, userID, models.RunFailure, "boom", at))

	row, err := r.EnsureSettings(ctx, userID)
	require.NoError(t, err)
	require.True(t, row.LastStatus.Valid)
	assert.Equal(t, "failure", row.LastStatus.String)
	require.True(t, row.LastError.Valid)
	assert.Equal(t, "boom", row.LastError.String)
	require.True(t, row.LastRunAt.Valid)

	// success clears the error
	require.NoError(t, r.RecordRunStatus(ctx, userID, models.RunSuccess, "", at))
	row, err = r.EnsureSettings(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "success", row.LastStatus.String)
	assert.False(t, row.LastError.Valid)
}

func TestReplaceInsights_ReplacesBatch(t *testing.T) {
	db := setupDB(t)
	r := New(db, logrus.New())
	ctx := context.Background()
	userID := "insights-test-user"
	period := models.Period("2026-06")

	_, _ = db.ExecContext(ctx, `DELETE FROM insights WHERE user_id = $1`, userID)

	first := []models.Insight{
		{ID: "11111111-1111-1111-1111-111111111111", UserID: userID, Period: period,
			Type: "monthly_balance", Title: "Deficit", Severity: models.SeverityWarning,
			Source: models.SourceAutomation, Metadata: map[string]interface{}{"deficit": "1200"},
			CreatedAt: time.Now().UTC()},
		{ID: "22222222-2222-2222-2222-222222222222", UserID: userID, Period: period,
			Type: "category_concentration", Title: "Rent heavy", Severity: models.SeverityInfo,
			Source: models.SourceAutomation, CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, r.ReplaceInsights(ctx, userID, period, first))

	second := []models.Insight{
		{ID: "33333333-3333-3333-3333-333333333333", UserID: userID, Period: period,
			Type: "monthly_balance", Title: "Surplus", Severity: models.SeveritySuccess,
			Source: models.SourceAutomation, CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, r.ReplaceInsights(ctx, userID, period, second))

	got, err := r.InsightsForPeriod(ctx, userID, period)
	require.NoError(t, err)
	require.Len(t, got, 1, "replace must not accumulate rows")
	assert.Equal(t, "Surplus", got[0].Title)
	assert.Equal(t, models.SeveritySuccess, got[0].Severity)
}

func TestInsightMetadataRoundTrip(t *testing.T) {
	db := setupDB(t)
	r := New(db, logrus.New())
	ctx := context.Background()
	userID := "metadata-test-user"
	period := models.Period("2026-07")

	_, _ = db.ExecContext(ctx, `DELETE FROM insights WHERE user_id = $1`, userID)

	in := models.Insight{
		ID: "44444444-4444-4444-4444-444444444444", UserID: userID, Period: period,
		Type: "reference_rate", Title: "Rate alert", Severity: models.SeverityCritical,
		Source:    models.SourceAutomation,
		Metadata:  map[string]interface{}{"rate": "5.43", "threshold": "5"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, r.ReplaceInsights(ctx, userID, period, []models.Insight{in}))

	got, err := r.InsightsForPeriod(ctx, userID, period)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5.43", got[0].Metadata["rate"])
	assert.Equal(t, "5", got[0].Metadata["threshold"])
}

func TestTransactionsInPeriod_Bounds(t *testing.T) {
	db := setupDB(t)
	r := New(db, logrus.New())
	ctx := context.Background()
	userID := "txn-bounds-test-user"

	_, _ = db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = $1`, userID)

	inJune := models.Transaction{UserID: userID, Description: "inside", Category: "Food",
		Type: models.TransactionExpense, Amount: decimal.RequireFromString("10"),
		OccurredAt: time.Date(2026, 6, 30, 23, 0, 0, 0, time.UTC)}
	inJuly := models.Transaction{UserID: userID, Description: "outside", Category: "Food",
		Type: models.TransactionExpense, Amount: decimal.RequireFromString("20"),
		OccurredAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}

	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, description, category, type, amount, occurred_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5::numeric, $6)`,
		userID, inJune.Description, inJune.Category, inJune.Type, inJune.Amount.String(), inJune.OccurredAt)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, description, category, type, amount, occurred_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5::numeric, $6)`,
		userID, inJuly.Description, inJuly.Category, inJuly.Type, inJuly.Amount.String(), inJuly.OccurredAt)
	require.NoError(t, err)

	got, err := r.TransactionsInPeriod(ctx, userID, "2026-06")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inside", got[0].Description)
}

func TestPositions_WithHistory(t *testing.T) {
	db := setupDB(t)
	r := New(db, logrus.New())
	ctx := context.Background()
	userID := "positions-test-user"

	_, _ = db.ExecContext(ctx, `DELETE FROM investment_positions WHERE user_id = $1`, userID)

	var posID string
	err := db.QueryRowContext(ctx, `
		INSERT INTO investment_positions (id, user_id, symbol, quantity, average_price, current_price, dividends_received, operation)
		VALUES (gen_random_uuid(), $1, 'VTI', 10, 220, 241.5, 18.4, 'BUY') RETURNING id`, userID).Scan(&posID)
	require.NoError(t, err)
	for i, p := range []string{"238.10", "240.00", "241.50"} {
		_, err := db.ExecContext(ctx, `INSERT INTO position_prices (position_id, seq, price) VALUES ($1, $2, $3::numeric)`, posID, i, p)
		require.NoError(t, err)
	}

	got, err := r.Positions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "VTI", got[0].Symbol)
	require.Len(t, got[0].PriceHistory, 3)
	assert.True(t, got[0].PriceHistory[2].Equal(decimal.RequireFromString("241.50")))
}
