package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"propcost/internal/models"

	"github.com/rs/zerolog/log"
)

// MaxSecurityEvents caps the number of events one dashboard run analyses.
const MaxSecurityEvents = 100

type ActivityIR interface {
	AppendActivity(ctx context.Context, event models.ActivityEvent) (int64, error)
	ListSecurityEvents(ctx context.Context, w models.Window) ([]models.ActivityEvent, error)
}

type ActivityStorage struct {
	db *sql.DB
}

func NewActivityStorage(db *sql.DB) *ActivityStorage {
	return &ActivityStorage{db: db}
}

const appendActivityQuery = `INSERT INTO activity_logs(user_id, action, details, created_at) VALUES (?, ?, ?, ?)`

func (a *ActivityStorage) AppendActivity(ctx context.Context, event models.ActivityEvent) (int64, error) {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return 0, err
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := a.db.ExecContext(ctx, appendActivityQuery,
		nullableInt(event.ActorID),
		string(event.Action),
		string(details),
		ts.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

var listSecurityEventsQuery = `SELECT id, user_id, action, details, created_at
	FROM activity_logs
	WHERE created_at >= ? AND created_at <= ?
	  AND (action IN (` + placeholders(len(models.SecurityActions)) + `) OR action LIKE '` + likePrefix(models.SecurityActionPrefix) + `%' ESCAPE '\')
	ORDER BY created_at DESC, id DESC
	LIMIT ?`

// ListSecurityEvents returns the security-relevant events of the window,
// newest first. Malformed details are read as empty.
func (a *ActivityStorage) ListSecurityEvents(ctx context.Context, w models.Window) ([]models.ActivityEvent, error) {
	args := make([]any, 0, len(models.SecurityActions)+3)
	args = append(args, w.Since.UTC(), w.Now.UTC())
	for _, action := range models.SecurityActions {
		args = append(args, string(action))
	}
	args = append(args, MaxSecurityEvents)

	rows, err := a.db.QueryContext(ctx, listSecurityEventsQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list security events: %w", models.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	events := make([]models.ActivityEvent, 0)
	for rows.Next() {
		var (
			event   models.ActivityEvent
			actorID sql.NullInt64
			action  string
			details sql.NullString
		)
		if err := rows.Scan(&event.ID, &actorID, &action, &details, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: scan security event: %w", models.ErrStoreUnavailable, err)
		}
		event.Action = models.Action(action)
		event.ActorID = intPtr(actorID)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &event.Details); err != nil {
				log.Warn().Err(err).Int("event_id", event.ID).Msg("malformed activity details")
				event.Details = models.EventDetails{}
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list security events: %w", models.ErrStoreUnavailable, err)
	}
	return events, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func likePrefix(prefix string) string {
	return strings.ReplaceAll(prefix, "_", `\_`)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
