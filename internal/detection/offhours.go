package detection

import (
	"fmt"
	"time"

	"propcost/internal/models"
)

const (
	normalHoursStart = 6
	normalHoursEnd   = 22
	normalHours      = "06:00-22:00"

	offHoursMedium = 3
)

// OffHoursAccess flags users who logged in outside normal hours, judged in
// the snapshot's location.
func OffHoursAccess(snap Snapshot) []models.ThreatRecord {
	var out []models.ThreatRecord
	for _, g := range groupByActor(snap.Events, models.ActionLogin, true) {
		var (
			count int
			last  time.Time
		)
		for _, e := range g.events {
			if !isOffHours(e.Timestamp, snap.Location) {
				continue
			}
			count++
			if e.Timestamp.After(last) {
				last = e.Timestamp
			}
		}
		if count == 0 {
			continue
		}
		if snap.Covered(models.ThreatUnusualActivity, models.UserSubject(g.actorID)) {
			continue
		}

		level := models.LevelLow
		if count >= offHoursMedium {
			level = models.LevelMedium
		}
		out = append(out, models.ThreatRecord{
			Level:         level,
			Type:          models.ThreatUnusualActivity,
			Description:   fmt.Sprintf("%d logins outside normal hours for user %d in the %s", count, g.actorID, snap.Window.Timeframe.Label()),
			SubjectUserID: intRef(g.actorID),
			Detail: models.ThreatDetail{
				Count:             count,
				Timeframe:         snap.Window.Timeframe.Label(),
				LastOffHoursAt:    &last,
				NormalHours:       normalHours,
				RecommendedAction: "Confirm off-hours logins with the user",
			},
			DetectedAt: snap.Window.Now,
		})
	}
	return out
}

func isOffHours(t time.Time, loc *time.Location) bool {
	h := t.In(loc).Hour()
	return h < normalHoursStart || h > normalHoursEnd
}
