package models

import "time"

type AlertLevel string

const (
	AlertInfo     AlertLevel = "info"
	AlertWarning  AlertLevel = "warning"
	AlertError    AlertLevel = "error"
	AlertCritical AlertLevel = "critical"
)

// AlertLevelFor maps a threat level onto the alert scale.
func AlertLevelFor(l Level) AlertLevel {
	switch l {
	case LevelCritical:
		return AlertCritical
	case LevelHigh:
		return AlertError
	case LevelMedium:
		return AlertWarning
	default:
		return AlertInfo
	}
}

type AlertRecord struct {
	ID             string     `json:"id"`
	ThreatID       string     `json:"threatId"`
	AlertLevel     AlertLevel `json:"alertLevel"`
	Message        string     `json:"message"`
	Sent           bool       `json:"sent"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	ActionRequired string     `json:"actionRequired"`
	Synthesized    bool       `json:"synthesized"`
}

// StoredAlert is a persisted alert joined with the threat it references.
type StoredAlert struct {
	ID                string
	ThreatID          string
	ThreatLevel       Level
	ThreatType        ThreatType
	ThreatDescription string
	Sent              bool
	SentAt            *time.Time
}
