package detection

import (
	"time"

	"propcost/internal/models"
)

// Input is everything one dashboard run reads, gathered by the caller.
type Input struct {
	Window     models.Window
	Events     []models.ActivityEvent
	Threats    []models.ThreatRecord
	Unresolved []models.ThreatRecord
	Resolved   []models.ThreatRecord
	Alerts     []models.StoredAlert
	Location   *time.Location
	Detectors  []Detector
}

// Result carries the dashboard plus the records a collaborator may want to
// persist.
type Result struct {
	Dashboard   models.Dashboard
	Candidates  []models.ThreatRecord
	Synthesized []models.AlertRecord
}

// Compute runs detectors, deduplication, aggregation and alert emission
// over in. It is deterministic for a given input.
func Compute(in Input) Result {
	detectors := in.Detectors
	if detectors == nil {
		detectors = Default()
	}

	storeUnresolved := append(Active(in.Threats), in.Unresolved...)
	snap := NewSnapshot(in.Window, in.Events, storeUnresolved, in.Location)

	merged := Merge(in.Threats, in.Unresolved, Run(snap, detectors))
	metrics := Aggregate(merged, in.Events, in.Resolved)
	alerts := EmitAlerts(in.Alerts, merged, in.Window.Now)

	return Result{
		Dashboard:   Assemble(in.Window, metrics, merged, alerts),
		Candidates:  Candidates(merged),
		Synthesized: Synthesize(merged, in.Window.Now),
	}
}

// Assemble composes the response consumed by the presentation layer.
func Assemble(w models.Window, metrics models.Metrics, merged []models.ThreatRecord, alerts []models.AlertRecord) models.Dashboard {
	active := Active(merged)

	summary := models.Summary{TotalActiveThreats: len(active)}
	for _, t := range active {
		switch t.Level {
		case models.LevelCritical:
			summary.CriticalThreats++
		case models.LevelHigh:
			summary.HighThreats++
		}
	}
	if n := len(alerts); n > 0 {
		summary.LastAlertTime = alerts[n-1].SentAt
	}

	return models.Dashboard{
		Metrics:       metrics,
		ActiveThreats: active,
		RecentAlerts:  alerts,
		Summary:       summary,
		Timeframe:     w.Timeframe,
		GeneratedAt:   w.Now,
	}
}
