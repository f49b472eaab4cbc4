package detection

import (
	"time"

	"propcost/internal/models"
)

const (
	recentAlertsN         = 10
	defaultActionRequired = "Review security event details"
)

var actionRequired = map[models.ThreatType]string{
	models.ThreatBruteForce:      "Lock the affected account and reset its credentials",
	models.ThreatSuspiciousIP:    "Block the offending IP address",
	models.ThreatUnusualActivity: "Verify recent activity with the account owner",
	models.ThreatMultipleDevices: "Review active sessions and revoke unknown devices",
}

func ActionRequired(t models.ThreatType) string {
	if a, ok := actionRequired[t]; ok {
		return a
	}
	return defaultActionRequired
}

func alertMessage(description string) string {
	return "Security alert: " + description
}

// EmitAlerts maps the persisted alerts of the window and appends one sent
// alert per high or critical brute-force candidate. Only the last ten, in
// that order, are returned.
func EmitAlerts(stored []models.StoredAlert, merged []models.ThreatRecord, now time.Time) []models.AlertRecord {
	alerts := make([]models.AlertRecord, 0, len(stored))
	for _, s := range stored {
		alerts = append(alerts, models.AlertRecord{
			ID:             s.ID,
			ThreatID:       s.ThreatID,
			AlertLevel:     models.AlertLevelFor(s.ThreatLevel),
			Message:        alertMessage(s.ThreatDescription),
			Sent:           s.Sent,
			SentAt:         s.SentAt,
			ActionRequired: ActionRequired(s.ThreatType),
		})
	}
	alerts = append(alerts, Synthesize(merged, now)...)
	return Tail(alerts, recentAlertsN)
}

// Synthesize builds the alerts for newly detected brute-force candidates
// at high or critical level.
func Synthesize(merged []models.ThreatRecord, now time.Time) []models.AlertRecord {
	var out []models.AlertRecord
	for _, t := range merged {
		if !t.IsCandidate() || t.Family != models.FamilyBruteForce {
			continue
		}
		if !t.Level.AtLeast(models.LevelHigh) {
			continue
		}
		sentAt := now
		out = append(out, models.AlertRecord{
			ID:             "alert_" + t.ID,
			ThreatID:       t.ID,
			AlertLevel:     models.AlertLevelFor(t.Level),
			Message:        alertMessage(t.Description),
			Sent:           true,
			SentAt:         &sentAt,
			ActionRequired: ActionRequired(t.Type),
			Synthesized:    true,
		})
	}
	return out
}
