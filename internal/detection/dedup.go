package detection

import (
	"strconv"

	"propcost/internal/models"
)

// Merge joins persisted threats with detector candidates. Store records
// come first, verbatim. A candidate is dropped when an unresolved store
// record, from either list, has the same type and subject; candidates are
// not compared with each other. Survivors get a display id made of their
// family prefix and a counter starting at len(store)+1.
func Merge(store, unresolved, candidates []models.ThreatRecord) []models.ThreatRecord {
	known := unresolvedKeys(store)
	for key := range unresolvedKeys(unresolved) {
		known[key] = struct{}{}
	}

	merged := make([]models.ThreatRecord, 0, len(store)+len(candidates))
	merged = append(merged, store...)

	next := len(store) + 1
	for _, c := range candidates {
		if _, dup := known[c.Key()]; dup {
			continue
		}
		c.Origin = models.OriginDetector
		c.ID = string(c.Family) + strconv.Itoa(next)
		next++
		merged = append(merged, c)
	}
	return merged
}

// Candidates returns the detector-produced records of a merged set.
func Candidates(merged []models.ThreatRecord) []models.ThreatRecord {
	var out []models.ThreatRecord
	for _, t := range merged {
		if t.IsCandidate() {
			out = append(out, t)
		}
	}
	return out
}

// Active filters the merged set down to unresolved records.
func Active(merged []models.ThreatRecord) []models.ThreatRecord {
	out := make([]models.ThreatRecord, 0, len(merged))
	for _, t := range merged {
		if !t.Resolved {
			out = append(out, t)
		}
	}
	return out
}
