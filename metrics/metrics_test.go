package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg)
}

func TestRecordIssued(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordIssued("crypto-nl", "easy")
	require.Equal(t, float64(1), testutil.ToFloat64(m.ChallengesIssued.WithLabelValues("crypto-nl", "easy")))
}

func TestRecordSolved(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordSolved("multi-step", "success")
	m.RecordSolved("multi-step", "wrong_answer")
	require.Equal(t, float64(1), testutil.ToFloat64(m.ChallengesSolved.WithLabelValues("multi-step", "success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ChallengesSolved.WithLabelValues("multi-step", "wrong_answer")))
}

func TestRecordTimingZone(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordTimingZone("ambiguous-logic", "ai_zone")
	require.Equal(t, float64(1), testutil.ToFloat64(m.TimingZones.WithLabelValues("ambiguous-logic", "ai_zone")))
}

func TestRecordPomiConfidence(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordPomiConfidence("gpt-4", 0.87)
	require.Equal(t, 1, testutil.CollectAndCount(m.PomiConfidence))
}

func TestGlobalReturnsSameInstance(t *testing.T) {
	a := Global()
	b := Global()
	require.Same(t, a, b)
}
