package timing

import (
	"testing"
	"time"

	agentauth "github.com/agentauth/engine"
	"github.com/stretchr/testify/assert"
)

func TestSessionTracker_NoAnomaliesWithFewEntries(t *testing.T) {
	tracker := NewSessionTimingTracker()
	tracker.Record("session1", 500, agentauth.ZoneAI)

	anomalies := tracker.Analyze("session1")
	assert.Empty(t, anomalies)
}

func TestSessionTracker_ZoneInconsistency(t *testing.T) {
	tracker := NewSessionTimingTracker()
	tracker.Record("session1", 200, agentauth.ZoneAI)
	time.Sleep(10 * time.Millisecond)
	tracker.Record("session1", 12000, agentauth.ZoneHuman)
	time.Sleep(10 * time.Millisecond)
	tracker.Record("session1", 300, agentauth.ZoneAI)

	anomalies := tracker.Analyze("session1")
	var found bool
	for _, a := range anomalies {
		if a.Type == "zone_inconsistency" {
			found = true
		}
	}
	assert.True(t, found, "expected zone_inconsistency anomaly")
}

func TestSessionTracker_TimingVariance(t *testing.T) {
	tracker := NewSessionTimingTracker()
	tracker.Record("session2", 500, agentauth.ZoneAI)
	time.Sleep(10 * time.Millisecond)
	tracker.Record("session2", 500, agentauth.ZoneAI)
	time.Sleep(10 * time.Millisecond)
	tracker.Record("session2", 500, agentauth.ZoneAI)

	anomalies := tracker.Analyze("session2")
	var found bool
	for _, a := range anomalies {
		if a.Type == "timing_variance_anomaly" {
			found = true
		}
	}
	assert.True(t, found, "expected timing_variance_anomaly for perfectly consistent timings")
}

func TestSessionTracker_RapidSuccession(t *testing.T) {
	tracker := NewSessionTimingTracker()
	tracker.Record("session3", 200, agentauth.ZoneAI)
	tracker.Record("session3", 300, agentauth.ZoneAI)

	anomalies := tracker.Analyze("session3")
	var found bool
	for _, a := range anomalies {
		if a.Type == "rapid_succession" {
			found = true
		}
	}
	assert.True(t, found, "expected rapid_succession anomaly")
}

func TestSessionTracker_Clear(t *testing.T) {
	tracker := NewSessionTimingTracker()
	tracker.Record("session4", 200, agentauth.ZoneAI)
	tracker.Clear("session4")

	anomalies := tracker.Analyze("session4")
	assert.Empty(t, anomalies)
}
