package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"propcost/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	maxWindowResolved  = 200
	maxResolvedThreats = 1000
)

type ThreatIR interface {
	ListThreats(ctx context.Context, since time.Time) ([]models.ThreatRecord, error)
	ListUnresolved(ctx context.Context, types []models.ThreatType, since time.Time) ([]models.ThreatRecord, error)
	ListResolved(ctx context.Context) ([]models.ThreatRecord, error)
	CreateThreat(ctx context.Context, threat models.ThreatRecord) (int64, error)
	ResolveThreat(ctx context.Context, id int64, resolvedBy int, at time.Time) error
}

type ThreatStorage struct {
	db *sql.DB
}

func NewThreatStorage(db *sql.DB) *ThreatStorage {
	return &ThreatStorage{db: db}
}

const threatColumns = `id, level, type, description, user_id, property_id, ip, detail, detected_at, resolved, resolved_at, resolved_by`

var (
	// unresolved rows of the window are never capped so none drops out of
	// the active set; only the resolved rows are limited.
	listThreatsQuery = `SELECT ` + threatColumns + `
	FROM security_threats
	WHERE detected_at >= ? AND (resolved = 0 OR resolved_at IS NULL)
	UNION ALL
	SELECT * FROM (
		SELECT ` + threatColumns + `
		FROM security_threats
		WHERE detected_at >= ? AND resolved = 1 AND resolved_at IS NOT NULL
		ORDER BY detected_at DESC, id DESC
		LIMIT ?
	)
	ORDER BY detected_at DESC, id DESC`

	listResolvedQuery = `SELECT ` + threatColumns + `
	FROM security_threats
	WHERE resolved = 1 AND resolved_at IS NOT NULL
	ORDER BY resolved_at DESC
	LIMIT ?`
)

func listUnresolvedQuery(types int) string {
	return `SELECT ` + threatColumns + `
	FROM security_threats
	WHERE resolved = 0 AND detected_at >= ? AND type IN (` + placeholders(types) + `)
	ORDER BY detected_at DESC, id DESC`
}

// ListThreats returns the persisted threats detected within the window:
// every unresolved one and the newest resolved ones.
func (t *ThreatStorage) ListThreats(ctx context.Context, since time.Time) ([]models.ThreatRecord, error) {
	return t.query(ctx, "list threats", listThreatsQuery, since.UTC(), since.UTC(), maxWindowResolved)
}

func (t *ThreatStorage) ListUnresolved(ctx context.Context, types []models.ThreatType, since time.Time) ([]models.ThreatRecord, error) {
	if len(types) == 0 {
		return []models.ThreatRecord{}, nil
	}
	args := make([]any, 0, len(types)+1)
	args = append(args, since.UTC())
	for _, typ := range types {
		args = append(args, string(typ))
	}
	return t.query(ctx, "list unresolved threats", listUnresolvedQuery(len(types)), args...)
}

// ListResolved returns resolved threats regardless of when they were
// detected; they feed the resolution latency statistic.
func (t *ThreatStorage) ListResolved(ctx context.Context) ([]models.ThreatRecord, error) {
	return t.query(ctx, "list resolved threats", listResolvedQuery, maxResolvedThreats)
}

const createThreatQuery = `INSERT INTO security_threats(level, type, description, user_id, property_id, ip, detail, detected_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (t *ThreatStorage) CreateThreat(ctx context.Context, threat models.ThreatRecord) (int64, error) {
	detail, err := json.Marshal(threat.Detail)
	if err != nil {
		return 0, err
	}
	var ip any
	if threat.IP != "" {
		ip = threat.IP
	}
	res, err := t.db.ExecContext(ctx, createThreatQuery,
		string(threat.Level),
		string(threat.Type),
		threat.Description,
		nullableInt(threat.SubjectUserID),
		nullableInt(threat.SubjectPropertyID),
		ip,
		string(detail),
		threat.DetectedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const resolveThreatQuery = `UPDATE security_threats
	SET resolved = 1, resolved_at = ?, resolved_by = ?
	WHERE id = ? AND resolved = 0`

// ResolveThreat flips an unresolved record to resolved. A missing or
// already resolved record yields models.ErrThreatNotFound.
func (t *ThreatStorage) ResolveThreat(ctx context.Context, id int64, resolvedBy int, at time.Time) error {
	res, err := t.db.ExecContext(ctx, resolveThreatQuery, at.UTC(), resolvedBy, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrThreatNotFound
	}
	return nil
}

func (t *ThreatStorage) query(ctx context.Context, op, query string, args ...any) ([]models.ThreatRecord, error) {
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, op, err)
	}
	defer rows.Close()

	threats := make([]models.ThreatRecord, 0)
	for rows.Next() {
		threat, err := scanThreat(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, op, err)
		}
		threats = append(threats, threat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, op, err)
	}
	return threats, nil
}

func scanThreat(rows *sql.Rows) (models.ThreatRecord, error) {
	var (
		threat     models.ThreatRecord
		id         int64
		level      string
		typ        string
		userID     sql.NullInt64
		propertyID sql.NullInt64
		ip         sql.NullString
		detail     sql.NullString
		resolved   bool
		resolvedAt sql.NullTime
		resolvedBy sql.NullInt64
	)
	if err := rows.Scan(
		&id,
		&level,
		&typ,
		&threat.Description,
		&userID,
		&propertyID,
		&ip,
		&detail,
		&threat.DetectedAt,
		&resolved,
		&resolvedAt,
		&resolvedBy,
	); err != nil {
		return models.ThreatRecord{}, err
	}

	threat.ID = strconv.FormatInt(id, 10)
	threat.Level = models.Level(level)
	threat.Type = models.ThreatType(typ)
	threat.SubjectUserID = intPtr(userID)
	threat.SubjectPropertyID = intPtr(propertyID)
	threat.IP = ip.String
	threat.Origin = models.OriginStore
	if detail.Valid && detail.String != "" {
		if err := json.Unmarshal([]byte(detail.String), &threat.Detail); err != nil {
			log.Warn().Err(err).Int64("threat_id", id).Msg("malformed threat detail")
			threat.Detail = models.ThreatDetail{}
		}
	}
	if threat.IP == "" {
		threat.IP = threat.Detail.IP
	}

	// resolved requires a timestamp; a flag without one is read as unresolved
	threat.ResolvedAt = timePtr(resolvedAt)
	threat.Resolved = resolved && threat.ResolvedAt != nil
	if !threat.Resolved {
		threat.ResolvedAt = nil
	} else {
		threat.ResolvedBy = intPtr(resolvedBy)
	}
	return threat, nil
}
