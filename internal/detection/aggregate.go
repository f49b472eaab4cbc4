package detection

import (
	"math"
	"sort"
	"time"

	"propcost/internal/models"
)

const (
	topTargets      = 5
	recentActivityN = 10
)

// Aggregate computes the dashboard metrics over the merged threat set.
// events feed the failed-login part of the targeted user ranking and
// resolved feeds the resolution latency.
func Aggregate(merged []models.ThreatRecord, events []models.ActivityEvent, resolved []models.ThreatRecord) models.Metrics {
	byLevel := make(map[models.Level]int, len(models.Levels))
	for _, l := range models.Levels {
		byLevel[l] = 0
	}
	byType := make(map[models.ThreatType]int)

	users := newTally()
	for _, g := range groupByActor(events, models.ActionFailedLogin, false) {
		users.add(g.actorID, len(g.events))
	}
	properties := newTally()

	for _, t := range merged {
		if !t.Resolved {
			byLevel[levelKey(t.Level)]++
		}
		byType[t.Type]++
		if t.SubjectUserID != nil {
			users.add(*t.SubjectUserID, 1)
		}
		if t.SubjectPropertyID != nil {
			properties.add(*t.SubjectPropertyID, 1)
		}
	}

	return models.Metrics{
		ActiveThreatsByLevel:  byLevel,
		ThreatsByType:         byType,
		TopTargetedUsers:      users.top(topTargets),
		TopTargetedProperties: properties.top(topTargets),
		AverageResolutionTime: AverageResolutionHours(resolved),
		RecentActivity:        Tail(merged, recentActivityN),
	}
}

// levelKey folds levels outside the known scale into low so the level
// counts always have exactly four keys.
func levelKey(l models.Level) models.Level {
	if l.Rank() == 0 {
		return models.LevelLow
	}
	return l
}

// AverageResolutionHours is the mean detection-to-resolution latency of
// the resolved records, rounded to whole hours. It is 0 without any.
func AverageResolutionHours(resolved []models.ThreatRecord) int {
	var (
		total time.Duration
		n     int
	)
	for _, t := range resolved {
		if !t.Resolved || t.ResolvedAt == nil {
			continue
		}
		total += t.ResolvedAt.Sub(t.DetectedAt)
		n++
	}
	if n == 0 {
		return 0
	}
	mean := total / time.Duration(n)
	return int(math.Round(mean.Hours()))
}

// Tail returns the last n elements of s in their original order.
func Tail[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return append(make([]T, 0, len(s)), s...)
}

type tally struct {
	index  map[int]int
	counts []models.TopEntry
}

func newTally() *tally {
	return &tally{index: make(map[int]int)}
}

func (t *tally) add(id, n int) {
	i, ok := t.index[id]
	if !ok {
		i = len(t.counts)
		t.index[id] = i
		t.counts = append(t.counts, models.TopEntry{ID: id})
	}
	t.counts[i].Count += n
}

// top ranks by descending count; equal counts keep first-seen order.
func (t *tally) top(n int) []models.TopEntry {
	ranked := append([]models.TopEntry(nil), t.counts...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		ranked = []models.TopEntry{}
	}
	return ranked
}
