// Package settings maps a possibly-partial stored settings row into a
// complete, defaulted configuration object.
package settings

import (
	"context"

	"github.com/shopspring/decimal"

	"finboard/internal/database"
	"finboard/internal/models"
)

// Store is the slice of the repository the normalizer needs.
type Store interface {
	EnsureSettings(ctx context.Context, userID string) (database.SettingsRow, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Ensure fetches the user's settings row, creating one with defaults on
// first use, and returns the normalized view.
func (s *Service) Ensure(ctx context.Context, userID string) (models.AutomationSettings, error) {
	row, err := s.store.EnsureSettings(ctx, userID)
	if err != nil {
		return models.AutomationSettings{}, err
	}
	return Normalize(row), nil
}

// Normalize fills every optional field with its documented default:
// enabled=true, insightFrequency=monthly, threshold unset. It tolerates a
// completely empty row.
func Normalize(row database.SettingsRow) models.AutomationSettings {
	out := models.AutomationSettings{
		UserID:           row.UserID,
		Enabled:          true,
		InsightFrequency: models.FrequencyMonthly,
	}

	if row.Enabled.Valid {
		out.Enabled = row.Enabled.Bool
	}
	if row.DollarAlertThreshold.Valid {
		if v, err := decimal.NewFromString(row.DollarAlertThreshold.String); err == nil {
			out.DollarAlertThreshold = &v
		}
	}
	if row.InsightFrequency.Valid {
		switch f := models.InsightFrequency(row.InsightFrequency.String); f {
		case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
			out.InsightFrequency = f
		}
	}
	if row.LastRunAt.Valid {
		t := row.LastRunAt.Time
		out.LastRunAt = &t
	}
	if row.LastStatus.Valid {
		switch st := models.RunStatus(row.LastStatus.String); st {
		case models.RunSuccess, models.RunFailure:
			out.LastStatus = &st
		}
	}
	if row.LastError.Valid {
		msg := row.LastError.String
		out.LastError = &msg
	}
	return out
}
