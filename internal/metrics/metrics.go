// Package metrics exposes Prometheus instrumentation for the session core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by several collectors.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeHit       = "hit"
	OutcomeLoaded    = "loaded"
)

// Metrics groups every collector the session core records into. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ScreenTransitions   *prometheus.CounterVec
	PaymentsApplied     prometheus.Counter
	PaymentAmount       prometheus.Counter
	IgnoredCommands     *prometheus.CounterVec
	Generations         *prometheus.CounterVec
	TokensEmitted       prometheus.Counter
	ModelLoadDuration   prometheus.Histogram
	VerificationFetches *prometheus.CounterVec
	ProviderLatency     prometheus.Histogram
	ChatTurns           *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ScreenTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_session_screen_transitions_total",
			Help: "Screen transitions performed by the session, by target screen",
		}, []string{"screen"}),
		PaymentsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "absher_session_payments_applied_total",
			Help: "Partial or full payments applied to the session",
		}),
		PaymentAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "absher_session_payment_amount_total",
			Help: "Sum of all applied payment amounts",
		}),
		IgnoredCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_session_ignored_commands_total",
			Help: "Commands absorbed as no-ops, by command and reason",
		}, []string{"command", "reason"}),
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_llm_generations_total",
			Help: "Streaming generations by outcome",
		}, []string{"outcome"}),
		TokensEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "absher_llm_tokens_emitted_total",
			Help: "Tokens delivered to stream consumers",
		}),
		ModelLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "absher_llm_model_load_seconds",
			Help:    "Time spent loading the response model",
			Buckets: prometheus.DefBuckets,
		}),
		VerificationFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_verification_fetches_total",
			Help: "Verification cache fetches by outcome",
		}, []string{"outcome"}),
		ProviderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "absher_verification_provider_seconds",
			Help:    "Latency of verification provider calls",
			Buckets: prometheus.DefBuckets,
		}),
		ChatTurns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "absher_chat_turns_total",
			Help: "Conversation turns by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveScreen records a transition to screen.
func (m *Metrics) ObserveScreen(screen string) {
	if m == nil {
		return
	}
	m.ScreenTransitions.WithLabelValues(screen).Inc()
}

// ObservePayment records an applied payment.
func (m *Metrics) ObservePayment(amount float64) {
	if m == nil {
		return
	}
	m.PaymentsApplied.Inc()
	m.PaymentAmount.Add(amount)
}

// ObserveIgnored records a command absorbed as a no-op.
func (m *Metrics) ObserveIgnored(command, reason string) {
	if m == nil {
		return
	}
	m.IgnoredCommands.WithLabelValues(command, reason).Inc()
}

// ObserveGeneration records the outcome of a generation.
func (m *Metrics) ObserveGeneration(outcome string) {
	if m == nil {
		return
	}
	m.Generations.WithLabelValues(outcome).Inc()
}

// ObserveToken records one emitted token.
func (m *Metrics) ObserveToken() {
	if m == nil {
		return
	}
	m.TokensEmitted.Inc()
}

// ObserveModelLoad records how long a model load took.
func (m *Metrics) ObserveModelLoad(d time.Duration) {
	if m == nil {
		return
	}
	m.ModelLoadDuration.Observe(d.Seconds())
}

// ObserveVerification records a cache fetch outcome.
func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.VerificationFetches.WithLabelValues(outcome).Inc()
}

// ObserveProviderLatency records a provider round trip.
func (m *Metrics) ObserveProviderLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderLatency.Observe(d.Seconds())
}

// ObserveChatTurn records the outcome of a conversation turn.
func (m *Metrics) ObserveChatTurn(outcome string) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(outcome).Inc()
}
