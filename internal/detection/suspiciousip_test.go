package detection

import (
	"testing"

	"propcost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspiciousIP_CriticalFlood(t *testing.T) {
	var events []models.ActivityEvent
	for user := 1; user <= 25; user++ {
		events = append(events, failures(user, "10.0.0.5", 1)...)
	}

	found := SuspiciousIP(snapshot(models.Timeframe24h, events))
	require.Len(t, found, 1)
	assert.Equal(t, models.ThreatSuspiciousIP, found[0].Type)
	assert.Equal(t, models.LevelCritical, found[0].Level)
	assert.Equal(t, "10.0.0.5", found[0].IP)
	assert.Equal(t, "10.0.0.5", found[0].Detail.IP)
	assert.Equal(t, 25, found[0].Detail.Count)
	assert.Nil(t, found[0].SubjectUserID)
}

func TestSuspiciousIP_SeverityBoundaries(t *testing.T) {
	cases := map[int]models.Level{
		4:  "",
		5:  models.LevelMedium,
		10: models.LevelHigh,
		19: models.LevelHigh,
		20: models.LevelCritical,
	}
	for count, level := range cases {
		found := SuspiciousIP(snapshot(models.Timeframe24h, failures(3, "192.0.2.7", count)))
		if level == "" {
			assert.Empty(t, found, "count %d", count)
			continue
		}
		require.Len(t, found, 1, "count %d", count)
		assert.Equal(t, level, found[0].Level, "count %d", count)
	}
}

func TestSuspiciousIP_MissingAddressGroupsAsUnknown(t *testing.T) {
	found := SuspiciousIP(snapshot(models.Timeframe24h, failures(3, "", 6)))
	require.Len(t, found, 1)
	assert.Equal(t, UnknownIP, found[0].IP)
}

func TestSuspiciousIP_SuppressedByStoredIPThreat(t *testing.T) {
	existing := storedThreat(1, models.ThreatSuspiciousIP, models.LevelHigh, 0)
	existing.Detail.IP = "10.0.0.5"

	found := SuspiciousIP(snapshot(models.Timeframe24h, failures(3, "10.0.0.5", 12), existing))
	assert.Empty(t, found)
}
