package detection

import (
	"strconv"
	"time"

	"propcost/internal/models"
)

var testNow = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

func window(tf models.Timeframe) models.Window {
	return models.NewWindow(tf, testNow)
}

func event(action models.Action, actor int, ip string, at time.Time) models.ActivityEvent {
	e := models.ActivityEvent{
		Timestamp: at,
		Action:    action,
		Details:   models.EventDetails{IP: ip},
	}
	if actor != 0 {
		e.ActorID = &actor
	}
	return e
}

func failures(actor int, ip string, n int) []models.ActivityEvent {
	out := make([]models.ActivityEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, event(models.ActionFailedLogin, actor, ip, testNow.Add(-time.Duration(i+1)*time.Minute)))
	}
	return out
}

func loginsFromIPs(actor, n int, at time.Time) []models.ActivityEvent {
	out := make([]models.ActivityEvent, 0, n)
	for i := 0; i < n; i++ {
		e := event(models.ActionLogin, actor, "10.1.0."+strconv.Itoa(i+1), at)
		e.Details.UserAgent = "agent-" + strconv.Itoa(i%2)
		out = append(out, e)
	}
	return out
}

func storedThreat(id int, typ models.ThreatType, level models.Level, user int) models.ThreatRecord {
	t := models.ThreatRecord{
		ID:          strconv.Itoa(id),
		Type:        typ,
		Level:       level,
		Description: "stored " + string(typ),
		DetectedAt:  testNow.Add(-30 * time.Minute),
		Origin:      models.OriginStore,
	}
	if user != 0 {
		t.SubjectUserID = &user
	}
	return t
}

func resolvedThreat(id int, detected time.Time, after time.Duration) models.ThreatRecord {
	t := storedThreat(id, models.ThreatBruteForce, models.LevelMedium, 0)
	at := detected.Add(after)
	t.DetectedAt = detected
	t.Resolved = true
	t.ResolvedAt = &at
	return t
}

func snapshot(tf models.Timeframe, events []models.ActivityEvent, unresolved ...models.ThreatRecord) Snapshot {
	return NewSnapshot(window(tf), events, unresolved, time.UTC)
}
