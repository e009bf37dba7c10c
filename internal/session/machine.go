// Package session implements the navigation and partial-payment state
// machine that drives a single user session.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/Veraticus/absher-session/internal/metrics"
	"github.com/Veraticus/absher-session/internal/model"
)

// DefaultProcessingDelay is the simulated payment processing time.
const DefaultProcessingDelay = 500 * time.Millisecond

// Reasons recorded for commands absorbed as no-ops.
const (
	reasonBusy        = "busy"
	reasonNotPositive = "not_positive"
	reasonCancelled   = "cancelled"
	reasonSuperseded  = "superseded"
)

// Verifier is the session's view of the verification cache.
type Verifier interface {
	Fetch(ctx context.Context, subjectID string, force bool) (*model.VerificationSnapshot, error)
	State() model.VerificationState
	Snapshot() *model.VerificationSnapshot
	Reset()
}

// Config holds the session parameters.
type Config struct {
	SubjectID       string
	TotalFee        float64
	ProcessingDelay time.Duration
	InitialScreen   model.Screen
}

// State is an immutable snapshot of the session as seen by observers.
type State struct {
	Selection model.ServiceKind
	Payment   model.PaymentState
	Screen    model.Screen
	Busy      bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(sink *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = sink
	}
}

// WithCatalog replaces the default service catalog.
func WithCatalog(catalog *ServiceCatalog) Option {
	return func(m *Machine) {
		m.catalog = catalog
	}
}

// Machine owns the current screen, the payment progress and the service
// selection. Every mutation happens in one critical section, so State never
// observes a half-applied command. Invalid commands are absorbed as no-ops.
type Machine struct {
	ctx      context.Context
	verifier Verifier
	catalog  *ServiceCatalog
	logger   *slog.Logger
	metrics  *metrics.Metrics
	updates  *common.Broadcaster[State]
	cancel   context.CancelFunc
	cfg      Config
	state    State
	refresh  sync.WaitGroup
	epoch    uint64
	mu       sync.Mutex
}

// NewMachine creates a session on cfg.InitialScreen with nothing paid and
// the full fee selected.
func NewMachine(cfg Config, verifier Verifier, opts ...Option) *Machine {
	if cfg.ProcessingDelay <= 0 {
		cfg.ProcessingDelay = DefaultProcessingDelay
	}
	cfg.TotalFee = max(cfg.TotalFee, 0)

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		verifier: verifier,
		updates:  common.NewBroadcaster[State](),
		state: State{
			Screen:    cfg.InitialScreen,
			Selection: model.ServiceDrivingLicense,
			Payment: model.PaymentState{
				TotalFee:              cfg.TotalFee,
				SelectedPaymentAmount: cfg.TotalFee,
			},
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.catalog == nil {
		m.catalog = NewServiceCatalog(nil)
	}
	m.logger = common.OrDefault(m.logger)
	return m
}

// State returns the current session snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe delivers every committed state until the returned function is
// called.
func (m *Machine) Subscribe(buffer int) (<-chan State, func()) {
	return m.updates.Subscribe(buffer)
}

// CurrentServiceDetails returns the details of the selected service.
func (m *Machine) CurrentServiceDetails() model.ServiceDetails {
	return m.catalog.Details(m.State().Selection)
}

// Verification returns the verification state and the snapshot currently
// held by the cache.
func (m *Machine) Verification() (model.VerificationState, *model.VerificationSnapshot) {
	if m.verifier == nil {
		return model.VerificationStateIdle(), nil
	}
	return m.verifier.State(), m.verifier.Snapshot()
}

// EnterHome shows the home screen and refreshes stale verification data in
// the background.
func (m *Machine) EnterHome() {
	m.mu.Lock()
	m.setScreenLocked(model.ScreenHome)
	m.commitLocked()
	m.mu.Unlock()

	m.refreshAsync(false)
}

// GoToReview selects kind and shows the review screen. The selected payment
// amount is pulled back into (0, remaining], or set to the total fee when
// nothing remains.
func (m *Machine) GoToReview(kind model.ServiceKind) {
	m.mu.Lock()
	m.reviewLocked(kind)
	m.commitLocked()
	m.mu.Unlock()

	m.logger.Debug("review opened", "service", kind)
	m.refreshAsync(false)
}

// OpenReview sets the total fee to the fee of kind and then behaves like
// GoToReview. It returns the details shown on the review screen.
func (m *Machine) OpenReview(kind model.ServiceKind) model.ServiceDetails {
	details := m.catalog.Details(kind)

	m.mu.Lock()
	m.applyTotalFeeLocked(details.FeeAmount)
	m.reviewLocked(kind)
	m.commitLocked()
	m.mu.Unlock()

	m.logger.Debug("review opened", "service", kind, "fee", details.FeeAmount)
	m.refreshAsync(false)
	return details
}

func (m *Machine) reviewLocked(kind model.ServiceKind) {
	m.state.Selection = kind

	p := &m.state.Payment
	if remaining := p.Remaining(); remaining > 0 {
		if p.SelectedPaymentAmount <= 0 || p.SelectedPaymentAmount > remaining {
			p.SelectedPaymentAmount = remaining
		}
	} else {
		p.SelectedPaymentAmount = p.TotalFee
	}

	m.setScreenLocked(model.ScreenReview)
}

// EnterDependents shows the dependents screen.
func (m *Machine) EnterDependents() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setScreenLocked(model.ScreenDependents)
	m.commitLocked()
}

// Navigate performs the navigation a deep link tap resolved to. Review
// destinations go through OpenReview.
func (m *Machine) Navigate(dest model.Destination, kind model.ServiceKind) {
	switch dest {
	case model.DestinationDependents:
		m.EnterDependents()
	case model.DestinationReview:
		m.OpenReview(kind)
	}
}

// SetSelectedPaymentAmount moves the payment selector, clamped into
// [0, remaining].
func (m *Machine) SetSelectedPaymentAmount(amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := &m.state.Payment
	p.SelectedPaymentAmount = clamp(amount, 0, p.Remaining())
	m.commitLocked()
}

// ApproveSelected approves the currently selected payment amount.
func (m *Machine) ApproveSelected(ctx context.Context) bool {
	return m.Approve(ctx, m.State().Payment.SelectedPaymentAmount)
}

// Approve pays amount, clamped into [0, remaining], after the processing
// delay. It blocks for the delay and reports whether a payment was applied.
// Nothing happens if the payable amount is zero or another approval is
// pending. Cancelling ctx or resetting the session during the delay
// abandons the payment.
func (m *Machine) Approve(ctx context.Context, amount float64) bool {
	m.mu.Lock()
	payable := clamp(amount, 0, m.state.Payment.Remaining())
	if payable <= 0 {
		m.mu.Unlock()
		m.ignored("approve", reasonNotPositive)
		return false
	}
	epoch, ok := m.beginLocked()
	m.mu.Unlock()
	if !ok {
		m.ignored("approve", reasonBusy)
		return false
	}

	if !m.process(ctx) {
		m.finish(epoch)
		m.ignored("approve", reasonCancelled)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		m.ignored("approve", reasonSuperseded)
		return false
	}

	p := &m.state.Payment
	previous := p.SelectedPaymentAmount
	p.PaidAmount = min(p.TotalFee, p.PaidAmount+payable)
	m.state.Busy = false

	if remaining := p.Remaining(); remaining <= 0 {
		p.SelectedPaymentAmount = p.TotalFee
		m.setScreenLocked(model.ScreenConfirmation)
	} else {
		p.SelectedPaymentAmount = min(previous, remaining)
		if p.SelectedPaymentAmount <= 0 {
			p.SelectedPaymentAmount = remaining
		}
		m.setScreenLocked(model.ScreenHome)
	}
	m.commitLocked()

	m.metrics.ObservePayment(payable)
	m.logger.Info("payment applied",
		"amount", payable,
		"paid", p.PaidAmount,
		"remaining", p.Remaining(),
		"screen", m.state.Screen)
	return true
}

// ApproveFree confirms a service without a fee after the processing delay.
// The payment state is left untouched.
func (m *Machine) ApproveFree(ctx context.Context) bool {
	m.mu.Lock()
	epoch, ok := m.beginLocked()
	m.mu.Unlock()
	if !ok {
		m.ignored("approve_free", reasonBusy)
		return false
	}

	if !m.process(ctx) {
		m.finish(epoch)
		m.ignored("approve_free", reasonCancelled)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		m.ignored("approve_free", reasonSuperseded)
		return false
	}

	m.state.Busy = false
	m.setScreenLocked(model.ScreenConfirmation)
	m.commitLocked()

	m.logger.Info("free service approved", "service", m.state.Selection)
	return true
}

// Reset starts the session over: nothing paid, the full fee selected, the
// initial screen, and no verification data. A pending approval is dropped.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.epoch++
	m.state.Busy = false
	m.state.Payment.PaidAmount = 0
	m.state.Payment.SelectedPaymentAmount = m.state.Payment.TotalFee
	m.setScreenLocked(m.cfg.InitialScreen)
	m.commitLocked()
	m.mu.Unlock()

	if m.verifier != nil {
		m.verifier.Reset()
	}
	m.logger.Info("session reset")
}

// UpdateTotalFee changes the total fee. Negative amounts are treated as
// zero. The paid and selected amounts are pulled back inside the new bounds.
func (m *Machine) UpdateTotalFee(amount float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.applyTotalFeeLocked(amount)
	m.commitLocked()
}

func (m *Machine) applyTotalFeeLocked(amount float64) {
	p := &m.state.Payment
	p.TotalFee = max(amount, 0)
	p.PaidAmount = min(p.PaidAmount, p.TotalFee)

	if remaining := p.Remaining(); remaining > 0 {
		p.SelectedPaymentAmount = clamp(p.SelectedPaymentAmount, 0, remaining)
		if p.SelectedPaymentAmount == 0 {
			p.SelectedPaymentAmount = remaining
		}
	} else {
		p.SelectedPaymentAmount = p.TotalFee
	}
}

// RefreshVerification refetches verification data even if it is fresh.
func (m *Machine) RefreshVerification(ctx context.Context) error {
	return m.fetch(ctx, true)
}

// EnsureVerificationFreshness refetches verification data only when it is
// missing or stale.
func (m *Machine) EnsureVerificationFreshness(ctx context.Context) error {
	return m.fetch(ctx, false)
}

// Wait blocks until background verification refreshes have finished.
func (m *Machine) Wait() {
	m.refresh.Wait()
}

// Close stops background work and waits for it to finish.
func (m *Machine) Close() {
	m.cancel()
	m.refresh.Wait()
}

func (m *Machine) fetch(ctx context.Context, force bool) error {
	if m.verifier == nil {
		return nil
	}
	_, err := m.verifier.Fetch(ctx, m.cfg.SubjectID, force)
	return err
}

func (m *Machine) refreshAsync(force bool) {
	if m.verifier == nil {
		return
	}

	m.refresh.Add(1)
	go func() {
		defer m.refresh.Done()
		if err := m.fetch(m.ctx, force); err != nil {
			m.logger.Debug("background verification refresh failed", "error", err)
		}
	}()
}

// beginLocked marks the session busy for a pending approval.
func (m *Machine) beginLocked() (uint64, bool) {
	if m.state.Busy {
		return 0, false
	}
	m.state.Busy = true
	m.commitLocked()
	return m.epoch, true
}

// finish clears the busy flag after an abandoned approval.
func (m *Machine) finish(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch {
		return
	}
	m.state.Busy = false
	m.commitLocked()
}

func (m *Machine) process(ctx context.Context) bool {
	timer := time.NewTimer(m.cfg.ProcessingDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-m.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (m *Machine) setScreenLocked(screen model.Screen) {
	if m.state.Screen == screen {
		return
	}
	m.logger.Debug("screen transition", "from", m.state.Screen, "to", screen)
	m.state.Screen = screen
	m.metrics.ObserveScreen(screen.String())
}

func (m *Machine) commitLocked() {
	m.updates.Publish(m.state)
}

func (m *Machine) ignored(command, reason string) {
	m.metrics.ObserveIgnored(command, reason)
	m.logger.Debug("command ignored", "command", command, "reason", reason)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
