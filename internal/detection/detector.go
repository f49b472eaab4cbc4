// Package detection holds the threshold-based threat rules and the pure
// stages that turn one window of activity into a security dashboard.
//
// Nothing in this package touches a store or reads the clock: every stage
// works on the Snapshot and the Window captured by the caller.
package detection

import (
	"sync"
	"time"

	"propcost/internal/models"
)

// Snapshot is the immutable input shared by every detector in one run.
type Snapshot struct {
	Window     models.Window
	Events     []models.ActivityEvent
	Unresolved []models.ThreatRecord
	Location   *time.Location

	covered map[models.DedupKey]struct{}
}

func NewSnapshot(w models.Window, events []models.ActivityEvent, unresolved []models.ThreatRecord, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.Local
	}
	return Snapshot{
		Window:     w,
		Events:     events,
		Unresolved: unresolved,
		Location:   loc,
		covered:    unresolvedKeys(unresolved),
	}
}

// Covered reports whether an unresolved persisted threat already carries
// the given type and subject.
func (s Snapshot) Covered(typ models.ThreatType, subject string) bool {
	if s.covered == nil {
		s.covered = unresolvedKeys(s.Unresolved)
	}
	_, ok := s.covered[models.DedupKey{Type: typ, Subject: subject}]
	return ok
}

func unresolvedKeys(threats []models.ThreatRecord) map[models.DedupKey]struct{} {
	keys := make(map[models.DedupKey]struct{}, len(threats))
	for _, t := range threats {
		if t.Resolved {
			continue
		}
		if key := t.Key(); key.Subject != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}

// Detector is one registered rule. Detect must not retain or modify the
// snapshot.
type Detector struct {
	Name   string
	Type   models.ThreatType
	Family models.Family
	Detect func(Snapshot) []models.ThreatRecord
}

// Default returns the built-in rules in their fixed output order.
func Default() []Detector {
	return []Detector{
		{Name: "brute_force_by_user", Type: models.ThreatBruteForce, Family: models.FamilyBruteForce, Detect: BruteForceByUser},
		{Name: "suspicious_ip", Type: models.ThreatSuspiciousIP, Family: models.FamilyIP, Detect: SuspiciousIP},
		{Name: "off_hours_access", Type: models.ThreatUnusualActivity, Family: models.FamilyTime, Detect: OffHoursAccess},
		{Name: "multi_ip_access", Type: models.ThreatMultipleDevices, Family: models.FamilyMultiIP, Detect: MultiIPAccess},
	}
}

// Types lists the threat types produced by detectors.
func Types(detectors []Detector) []models.ThreatType {
	types := make([]models.ThreatType, 0, len(detectors))
	for _, d := range detectors {
		types = append(types, d.Type)
	}
	return types
}

// Run executes the detectors concurrently and concatenates their output in
// registration order. No cross-detector deduplication happens here.
func Run(snap Snapshot, detectors []Detector) []models.ThreatRecord {
	results := make([][]models.ThreatRecord, len(detectors))

	var wg sync.WaitGroup
	for i, d := range detectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found := d.Detect(snap)
			for j := range found {
				found[j].Origin = models.OriginDetector
				found[j].Family = d.Family
			}
			results[i] = found
		}()
	}
	wg.Wait()

	var candidates []models.ThreatRecord
	for _, found := range results {
		candidates = append(candidates, found...)
	}
	return candidates
}
