package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"propcost/internal/models"

	"github.com/gofrs/uuid"
)

type AuditIR interface {
	AppendAuditEntry(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error)
}

type AuditStorage struct {
	db  *sql.DB
	gen uuid.Generator
}

func NewAuditStorage(db *sql.DB) *AuditStorage {
	return &AuditStorage{db: db, gen: uuid.NewGen()}
}

const appendAuditQuery = `INSERT INTO activity_logs(entry_id, user_id, action, resource, resource_id, details, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

// AppendAuditEntry writes entry to the activity log and returns it with
// its generated id and timestamp filled in.
func (a *AuditStorage) AppendAuditEntry(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	id, err := a.gen.NewV4()
	if err != nil {
		return models.AuditEntry{}, err
	}
	entry.ID = id.String()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	detail := []byte("{}")
	if len(entry.Detail) > 0 {
		if detail, err = json.Marshal(entry.Detail); err != nil {
			return models.AuditEntry{}, err
		}
	}

	if _, err := a.db.ExecContext(ctx, appendAuditQuery,
		entry.ID,
		entry.ActorID,
		string(entry.Action),
		entry.Resource,
		entry.ResourceID,
		string(detail),
		entry.CreatedAt.UTC(),
	); err != nil {
		return models.AuditEntry{}, err
	}
	return entry, nil
}
