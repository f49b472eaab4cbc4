package detection

import "propcost/internal/models"

type actorGroup struct {
	actorID int
	events  []models.ActivityEvent
}

type ipGroup struct {
	ip    string
	count int
}

// groupByActor partitions events with the given action by actor, keeping
// groups in first-seen order. Events without an actor are skipped, and so
// are events without an IP when requireIP is set.
func groupByActor(events []models.ActivityEvent, action models.Action, requireIP bool) []actorGroup {
	index := make(map[int]int)
	var groups []actorGroup
	for _, e := range events {
		if e.Action != action || e.ActorID == nil {
			continue
		}
		if requireIP && e.Details.IP == "" {
			continue
		}
		i, ok := index[*e.ActorID]
		if !ok {
			i = len(groups)
			index[*e.ActorID] = i
			groups = append(groups, actorGroup{actorID: *e.ActorID})
		}
		groups[i].events = append(groups[i].events, e)
	}
	return groups
}

// UnknownIP stands in for failed logins recorded without an address.
const UnknownIP = "unknown"

func groupFailuresByIP(events []models.ActivityEvent) []ipGroup {
	index := make(map[string]int)
	var groups []ipGroup
	for _, e := range events {
		if e.Action != models.ActionFailedLogin {
			continue
		}
		ip := e.Details.IP
		if ip == "" {
			ip = UnknownIP
		}
		i, ok := index[ip]
		if !ok {
			i = len(groups)
			index[ip] = i
			groups = append(groups, ipGroup{ip: ip})
		}
		groups[i].count++
	}
	return groups
}

func intRef(v int) *int {
	return &v
}
