package detection

import (
	"strconv"
	"testing"
	"time"

	"propcost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedAlert(id int, level models.Level, typ models.ThreatType, sentAt time.Time) models.StoredAlert {
	return models.StoredAlert{
		ID:                strconv.Itoa(id),
		ThreatID:          strconv.Itoa(100 + id),
		ThreatLevel:       level,
		ThreatType:        typ,
		ThreatDescription: "threat " + strconv.Itoa(id),
		Sent:              true,
		SentAt:            &sentAt,
	}
}

func TestEmitAlerts_MapsStoredAlerts(t *testing.T) {
	sent := testNow.Add(-time.Minute)
	stored := []models.StoredAlert{
		storedAlert(1, models.LevelCritical, models.ThreatBruteForce, sent),
		storedAlert(2, models.LevelHigh, models.ThreatSuspiciousIP, sent),
		storedAlert(3, models.LevelMedium, models.ThreatUnusualActivity, sent),
		storedAlert(4, models.LevelLow, "custom_rule", sent),
	}

	alerts := EmitAlerts(stored, nil, testNow)
	require.Len(t, alerts, 4)

	assert.Equal(t, []models.AlertLevel{models.AlertCritical, models.AlertError, models.AlertWarning, models.AlertInfo},
		[]models.AlertLevel{alerts[0].AlertLevel, alerts[1].AlertLevel, alerts[2].AlertLevel, alerts[3].AlertLevel})
	assert.Equal(t, "Security alert: threat 1", alerts[0].Message)
	assert.Equal(t, "101", alerts[0].ThreatID)
	assert.Equal(t, "Review security event details", alerts[3].ActionRequired)
	assert.NotEqual(t, alerts[3].ActionRequired, alerts[0].ActionRequired)
	assert.False(t, alerts[0].Synthesized)
}

func TestEmitAlerts_SynthesizesForHighBruteForceCandidatesOnly(t *testing.T) {
	high := candidate(models.FamilyBruteForce, models.ThreatBruteForce, 7)
	high.Level, high.ID = models.LevelHigh, "audit_threat_1"
	medium := candidate(models.FamilyBruteForce, models.ThreatBruteForce, 8)
	medium.ID = "audit_threat_2"
	criticalIP := candidate(models.FamilyIP, models.ThreatSuspiciousIP, 0)
	criticalIP.Level, criticalIP.ID = models.LevelCritical, "ip_threat_3"
	storedCritical := storedThreat(9, models.ThreatBruteForce, models.LevelCritical, 9)

	alerts := EmitAlerts(nil, []models.ThreatRecord{storedCritical, high, medium, criticalIP}, testNow)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, "audit_threat_1", a.ThreatID)
	assert.Equal(t, models.AlertError, a.AlertLevel)
	assert.True(t, a.Sent)
	assert.True(t, a.Synthesized)
	require.NotNil(t, a.SentAt)
	assert.Equal(t, testNow, *a.SentAt)
}

func TestEmitAlerts_LastTenStoredFirst(t *testing.T) {
	var stored []models.StoredAlert
	for i := 1; i <= 12; i++ {
		stored = append(stored, storedAlert(i, models.LevelMedium, models.ThreatBruteForce, testNow.Add(-time.Duration(13-i)*time.Minute)))
	}
	crit := candidate(models.FamilyBruteForce, models.ThreatBruteForce, 7)
	crit.Level, crit.ID = models.LevelCritical, "audit_threat_13"

	alerts := EmitAlerts(stored, []models.ThreatRecord{crit}, testNow)
	require.Len(t, alerts, 10)
	assert.Equal(t, "4", alerts[0].ID)
	assert.Equal(t, "12", alerts[8].ID)
	assert.Equal(t, "alert_audit_threat_13", alerts[9].ID)
}
