package models

import (
	"strconv"
	"time"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Levels lists every level in ascending order.
var Levels = []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}

func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return 0
	}
}

func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

type ThreatType string

const (
	ThreatBruteForce      ThreatType = "brute_force_attack"
	ThreatSuspiciousIP    ThreatType = "suspicious_ip_activity"
	ThreatUnusualActivity ThreatType = "unusual_activity_pattern"
	ThreatMultipleDevices ThreatType = "multiple_device_access"
)

type Origin string

const (
	OriginStore    Origin = "store"
	OriginDetector Origin = "detector"
)

// Family names the detector that produced a candidate. The id prefix of a
// candidate is derived from it.
type Family string

const (
	FamilyNone       Family = ""
	FamilyBruteForce Family = "audit_threat_"
	FamilyIP         Family = "ip_threat_"
	FamilyTime       Family = "time_threat_"
	FamilyMultiIP    Family = "multi_ip_threat_"
)

// DedupKey is the structural identity of a threat: its type plus the
// subject it is attributed to.
type DedupKey struct {
	Type    ThreatType
	Subject string
}

func UserSubject(id int) string     { return "user:" + strconv.Itoa(id) }
func PropertySubject(id int) string { return "property:" + strconv.Itoa(id) }
func IPSubject(ip string) string    { return "ip:" + ip }

// ThreatDetail is the structured explanation attached to a threat.
type ThreatDetail struct {
	Count             int        `json:"count,omitempty"`
	Threshold         int        `json:"threshold,omitempty"`
	Timeframe         string     `json:"timeframe,omitempty"`
	RecommendedAction string     `json:"recommendedAction,omitempty"`
	IP                string     `json:"ip,omitempty"`
	LastOffHoursAt    *time.Time `json:"lastOffHoursAt,omitempty"`
	NormalHours       string     `json:"normalHours,omitempty"`
	IPCount           int        `json:"ipCount,omitempty"`
	SampleIPs         []string   `json:"sampleIps,omitempty"`
	UserAgentCount    int        `json:"userAgentCount,omitempty"`
	Risk              string     `json:"risk,omitempty"`
}

type ThreatRecord struct {
	ID                string       `json:"id"`
	Level             Level        `json:"level"`
	Type              ThreatType   `json:"type"`
	Description       string       `json:"description"`
	SubjectUserID     *int         `json:"subjectUserId,omitempty"`
	SubjectPropertyID *int         `json:"subjectPropertyId,omitempty"`
	IP                string       `json:"ip,omitempty"`
	Detail            ThreatDetail `json:"detail"`
	DetectedAt        time.Time    `json:"detectedAt"`
	Resolved          bool         `json:"resolved"`
	ResolvedAt        *time.Time   `json:"resolvedAt,omitempty"`
	ResolvedBy        *int         `json:"resolvedBy,omitempty"`
	Origin            Origin       `json:"origin"`
	Family            Family       `json:"-"`
}

// Subject returns the dedup subject of the record: the IP for suspicious
// IP findings, otherwise the user and then the property. Records with no
// subject return "".
func (t ThreatRecord) Subject() string {
	if t.Type == ThreatSuspiciousIP {
		ip := t.IP
		if ip == "" {
			ip = t.Detail.IP
		}
		if ip != "" {
			return IPSubject(ip)
		}
	}
	if t.SubjectUserID != nil {
		return UserSubject(*t.SubjectUserID)
	}
	if t.SubjectPropertyID != nil {
		return PropertySubject(*t.SubjectPropertyID)
	}
	return ""
}

func (t ThreatRecord) Key() DedupKey {
	return DedupKey{Type: t.Type, Subject: t.Subject()}
}

func (t ThreatRecord) IsCandidate() bool {
	return t.Origin == OriginDetector
}
