package detection

import (
	"fmt"

	"propcost/internal/models"
)

const (
	multiIPThreshold = 3
	multiIPMedium    = 5
	maxSampleIPs     = 5
)

// MultiIPAccess flags users whose logins came from several addresses.
func MultiIPAccess(snap Snapshot) []models.ThreatRecord {
	var out []models.ThreatRecord
	for _, g := range groupByActor(snap.Events, models.ActionLogin, true) {
		ips := distinct(g.events, func(e models.ActivityEvent) string { return e.Details.IP })
		if len(ips) < multiIPThreshold {
			continue
		}
		if snap.Covered(models.ThreatMultipleDevices, models.UserSubject(g.actorID)) {
			continue
		}
		agents := distinct(g.events, func(e models.ActivityEvent) string { return e.Details.UserAgent })

		level, risk := models.LevelLow, "moderate"
		if len(ips) >= multiIPMedium {
			level, risk = models.LevelMedium, "elevated"
		}
		samples := ips
		if len(samples) > maxSampleIPs {
			samples = samples[:maxSampleIPs]
		}
		out = append(out, models.ThreatRecord{
			Level:         level,
			Type:          models.ThreatMultipleDevices,
			Description:   fmt.Sprintf("User %d logged in from %d different IP addresses in the %s", g.actorID, len(ips), snap.Window.Timeframe.Label()),
			SubjectUserID: intRef(g.actorID),
			Detail: models.ThreatDetail{
				Threshold:         multiIPThreshold,
				Timeframe:         snap.Window.Timeframe.Label(),
				IPCount:           len(ips),
				SampleIPs:         append([]string(nil), samples...),
				UserAgentCount:    len(agents),
				Risk:              risk,
				RecommendedAction: "Review active sessions and confirm devices with the user",
			},
			DetectedAt: snap.Window.Now,
		})
	}
	return out
}

// distinct returns the non-empty values of key in first-seen order.
func distinct(events []models.ActivityEvent, key func(models.ActivityEvent) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		v := key(e)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
