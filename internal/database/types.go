package database

import "database/sql"

// SettingsRow is the raw automation_settings row. Every field except
// user_id may be NULL; settings.Normalize produces the defaulted view.
type SettingsRow struct {
	UserID               string         `db:"user_id"`
	Enabled              sql.NullBool   `db:"enabled"`
	DollarAlertThreshold sql.NullString `db:"dollar_alert_threshold"`
	InsightFrequency     sql.NullString `db:"insight_frequency"`
	LastRunAt            sql.NullTime   `db:"last_run_at"`
	LastStatus           sql.NullString `db:"last_status"`
	LastError            sql.NullString `db:"last_error"`
}

type insightRow struct {
	ID        string       `db:"id"`
	UserID    string       `db:"user_id"`
	Period    string       `db:"period"`
	Type      string       `db:"type"`
	Title     string       `db:"title"`
	Body      string       `db:"body"`
	Severity  string       `db:"severity"`
	Source    string       `db:"source"`
	Metadata  []byte       `db:"metadata"`
	CreatedAt sql.NullTime `db:"created_at"`
}
