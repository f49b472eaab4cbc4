package detection

import (
	"fmt"

	"propcost/internal/models"
)

const (
	suspiciousIPThreshold = 5
	suspiciousIPHigh      = 10
	suspiciousIPCritical  = 20
)

// SuspiciousIP flags source addresses with many failed logins, across all
// accounts.
func SuspiciousIP(snap Snapshot) []models.ThreatRecord {
	var out []models.ThreatRecord
	for _, g := range groupFailuresByIP(snap.Events) {
		if g.count < suspiciousIPThreshold {
			continue
		}
		if snap.Covered(models.ThreatSuspiciousIP, models.IPSubject(g.ip)) {
			continue
		}

		level := suspiciousIPLevel(g.count)
		out = append(out, models.ThreatRecord{
			Level:       level,
			Type:        models.ThreatSuspiciousIP,
			Description: fmt.Sprintf("%d failed login attempts from IP %s in the %s", g.count, g.ip, snap.Window.Timeframe.Label()),
			IP:          g.ip,
			Detail: models.ThreatDetail{
				Count:             g.count,
				Threshold:         suspiciousIPThreshold,
				Timeframe:         snap.Window.Timeframe.Label(),
				IP:                g.ip,
				RecommendedAction: suspiciousIPAction(level),
			},
			DetectedAt: snap.Window.Now,
		})
	}
	return out
}

func suspiciousIPLevel(count int) models.Level {
	switch {
	case count >= suspiciousIPCritical:
		return models.LevelCritical
	case count >= suspiciousIPHigh:
		return models.LevelHigh
	default:
		return models.LevelMedium
	}
}

func suspiciousIPAction(level models.Level) string {
	switch level {
	case models.LevelCritical:
		return "Block IP address immediately"
	case models.LevelHigh:
		return "Rate limit or temporarily block IP address"
	default:
		return "Monitor IP address activity"
	}
}
