package storage

import "database/sql"

type Storage struct {
	Auth
	ActivityIR
	ThreatIR
	AlertIR
	AuditIR
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		Auth:       NewAuthStorage(db),
		ActivityIR: NewActivityStorage(db),
		ThreatIR:   NewThreatStorage(db),
		AlertIR:    NewAlertStorage(db),
		AuditIR:    NewAuditStorage(db),
	}
}
