package detection

import (
	"fmt"

	"propcost/internal/models"
)

const (
	bruteForceThreshold = 3
	bruteForceHigh      = 5
	bruteForceCritical  = 10
)

// BruteForceByUser flags users with repeated failed logins in the window.
func BruteForceByUser(snap Snapshot) []models.ThreatRecord {
	var out []models.ThreatRecord
	for _, g := range groupByActor(snap.Events, models.ActionFailedLogin, false) {
		count := len(g.events)
		if count < bruteForceThreshold {
			continue
		}
		if snap.Covered(models.ThreatBruteForce, models.UserSubject(g.actorID)) {
			continue
		}

		level := bruteForceLevel(count)
		out = append(out, models.ThreatRecord{
			Level:         level,
			Type:          models.ThreatBruteForce,
			Description:   fmt.Sprintf("%d failed login attempts for user %d in the %s", count, g.actorID, snap.Window.Timeframe.Label()),
			SubjectUserID: intRef(g.actorID),
			Detail: models.ThreatDetail{
				Count:             count,
				Threshold:         bruteForceThreshold,
				Timeframe:         snap.Window.Timeframe.Label(),
				RecommendedAction: bruteForceAction(level),
			},
			DetectedAt: snap.Window.Now,
		})
	}
	return out
}

func bruteForceLevel(count int) models.Level {
	switch {
	case count >= bruteForceCritical:
		return models.LevelCritical
	case count >= bruteForceHigh:
		return models.LevelHigh
	default:
		return models.LevelMedium
	}
}

func bruteForceAction(level models.Level) string {
	switch level {
	case models.LevelCritical:
		return "Lock account immediately"
	case models.LevelHigh:
		return "Force password reset and notify the account owner"
	default:
		return "Monitor account for further failed attempts"
	}
}
