package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"time"

	"propcost/internal/models"
)

const maxWindowAlerts = 100

type AlertIR interface {
	ListAlerts(ctx context.Context, w models.Window) ([]models.StoredAlert, error)
	CreateAlert(ctx context.Context, threatID int64, sent bool, sentAt time.Time) (int64, error)
}

type AlertStorage struct {
	db *sql.DB
}

func NewAlertStorage(db *sql.DB) *AlertStorage {
	return &AlertStorage{db: db}
}

const listAlertsQuery = `SELECT a.id, a.threat_id, t.level, t.type, t.description, a.sent, a.sent_at
	FROM security_alerts a
	JOIN security_threats t ON t.id = a.threat_id
	WHERE a.sent_at >= ? AND a.sent_at <= ?
	ORDER BY a.sent_at DESC, a.id DESC
	LIMIT ?`

// ListAlerts returns the newest alerts sent within the window, oldest
// first, joined with the threat they reference.
func (a *AlertStorage) ListAlerts(ctx context.Context, w models.Window) ([]models.StoredAlert, error) {
	rows, err := a.db.QueryContext(ctx, listAlertsQuery, w.Since.UTC(), w.Now.UTC(), maxWindowAlerts)
	if err != nil {
		return nil, fmt.Errorf("%w: list alerts: %w", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	alerts := make([]models.StoredAlert, 0)
	for rows.Next() {
		var (
			alert    models.StoredAlert
			id       int64
			threatID int64
			level    string
			typ      string
			sentAt   sql.NullTime
		)
		if err := rows.Scan(&id, &threatID, &level, &typ, &alert.ThreatDescription, &alert.Sent, &sentAt); err != nil {
			return nil, fmt.Errorf("%w: scan alert: %w", models.ErrStoreUnavailable, err)
		}
		alert.ID = strconv.FormatInt(id, 10)
		alert.ThreatID = strconv.FormatInt(threatID, 10)
		alert.ThreatLevel = models.Level(level)
		alert.ThreatType = models.ThreatType(typ)
		alert.SentAt = timePtr(sentAt)
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list alerts: %w", models.ErrStoreUnavailable, err)
	}
	slices.Reverse(alerts)
	return alerts, nil
}

const createAlertQuery = `INSERT INTO security_alerts(threat_id, sent, sent_at, created_at) VALUES (?, ?, ?, ?)`

func (a *AlertStorage) CreateAlert(ctx context.Context, threatID int64, sent bool, sentAt time.Time) (int64, error) {
	var at any
	if sent {
		at = sentAt.UTC()
	}
	res, err := a.db.ExecContext(ctx, createAlertQuery, threatID, sent, at, sentAt.UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
