package models

import (
	"strings"
	"time"
)

type Action string

const (
	ActionLogin              Action = "LOGIN"
	ActionFailedLogin        Action = "FAILED_LOGIN"
	ActionLogout             Action = "LOGOUT"
	ActionUnauthorizedAccess Action = "UNAUTHORIZED_ACCESS"
	ActionPermissionDenied   Action = "PERMISSION_DENIED"

	ActionSecurityThreatResolved    Action = "SECURITY_THREAT_RESOLVED"
	ActionSecurityMonitoringEnabled Action = "SECURITY_MONITORING_ENABLED"
	ActionSecurityMonitoringOff     Action = "SECURITY_MONITORING_DISABLED"
)

// SecurityActionPrefix marks free-form security actions written by the
// application itself (resolutions, monitoring toggles).
const SecurityActionPrefix = "SECURITY_"

// SecurityActions are the fixed actions the log reader selects in addition
// to anything carrying SecurityActionPrefix.
var SecurityActions = []Action{
	ActionLogin,
	ActionFailedLogin,
	ActionLogout,
	ActionUnauthorizedAccess,
	ActionPermissionDenied,
}

func (a Action) IsSecurityRelevant() bool {
	for _, s := range SecurityActions {
		if a == s {
			return true
		}
	}
	return strings.HasPrefix(string(a), SecurityActionPrefix)
}

// EventDetails is the narrow schema of the activity log details column.
// Empty strings mean the attribute was not recorded.
type EventDetails struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

type ActivityEvent struct {
	ID        int          `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	ActorID   *int         `json:"actorId,omitempty"`
	Action    Action       `json:"action"`
	Details   EventDetails `json:"details"`
}

// AuditEntry is a bookkeeping record appended to the activity log by the
// resolve and monitoring side channels.
type AuditEntry struct {
	ID         string         `json:"id"`
	ActorID    int            `json:"actorId"`
	Action     Action         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resourceId"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
