package models

import "time"

type TopEntry struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}

type Metrics struct {
	ActiveThreatsByLevel  map[Level]int      `json:"activeThreatsByLevel"`
	ThreatsByType         map[ThreatType]int `json:"threatsByType"`
	TopTargetedUsers      []TopEntry         `json:"topTargetedUsers"`
	TopTargetedProperties []TopEntry         `json:"topTargetedProperties"`
	AverageResolutionTime int                `json:"averageResolutionTime"`
	RecentActivity        []ThreatRecord     `json:"recentActivity"`
}

type Summary struct {
	TotalActiveThreats int        `json:"totalActiveThreats"`
	CriticalThreats    int        `json:"criticalThreats"`
	HighThreats        int        `json:"highThreats"`
	LastAlertTime      *time.Time `json:"lastAlertTime"`
}

type Dashboard struct {
	Metrics       Metrics        `json:"metrics"`
	ActiveThreats []ThreatRecord `json:"activeThreats"`
	RecentAlerts  []AlertRecord  `json:"recentAlerts"`
	Summary       Summary        `json:"summary"`
	Timeframe     Timeframe      `json:"timeframe"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}
