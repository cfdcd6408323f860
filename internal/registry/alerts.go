package registry

import (
	"context"

	"fleet-manager/internal/db"
	"fleet-manager/internal/models"
)

// Alerts exposes stored alerts for reading and deletion; creation only
// happens during telemetry ingestion.
type Alerts struct {
	*Registry[models.Alert]
}

func NewAlerts(t *db.Tables) *Alerts {
	return &Alerts{Registry: New("alert", t.Alerts, func(a *models.Alert) *string { return &a.ID })}
}

// Recent returns up to limit alerts, newest first.
func (a *Alerts) Recent(ctx context.Context, limit int) ([]models.Alert, error) {
	if err := models.CheckLimit(limit); err != nil {
		return nil, err
	}
	return a.table.Scan(ctx, db.Query[models.Alert]{
		Less:  func(x, y models.Alert) bool { return x.Timestamp.After(y.Timestamp) },
		Limit: limit,
	})
}
