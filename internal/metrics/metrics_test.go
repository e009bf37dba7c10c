package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveScreen("home")
	m.ObserveScreen("home")
	m.ObservePayment(1000)
	m.ObservePayment(1700)
	m.ObserveGeneration(OutcomeCancelled)
	m.ObserveToken()
	m.ObserveVerification(OutcomeHit)
	m.ObserveChatTurn(OutcomeCompleted)
	m.ObserveIgnored("approve", "busy")
	m.ObserveModelLoad(50 * time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ScreenTransitions.WithLabelValues("home")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.PaymentsApplied), 0)
	assert.InDelta(t, 2700, testutil.ToFloat64(m.PaymentAmount), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Generations.WithLabelValues(OutcomeCancelled)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TokensEmitted), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.VerificationFetches.WithLabelValues(OutcomeHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ChatTurns.WithLabelValues(OutcomeCompleted)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IgnoredCommands.WithLabelValues("approve", "busy")), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveScreen("home")
		m.ObservePayment(1)
		m.ObserveIgnored("approve", "busy")
		m.ObserveGeneration(OutcomeFailed)
		m.ObserveToken()
		m.ObserveModelLoad(time.Second)
		m.ObserveVerification(OutcomeLoaded)
		m.ObserveProviderLatency(time.Second)
		m.ObserveChatTurn(OutcomeFailed)
	})
}
