package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/Veraticus/absher-session/internal/model"
)

// Provider errors.
var (
	ErrSessionExpired      = errors.New("verification session expired")
	ErrUpstreamUnavailable = errors.New("verification upstream unavailable")
)

const (
	sourceSystem    = "توكلنا"
	referenceLayout = "020106-1504"
)

// MockProvider simulates the upstream identity system with a fixed latency.
type MockProvider struct {
	now     func() time.Time
	failure error
	latency time.Duration
	calls   atomic.Int64
	mu      sync.Mutex
}

// NewMockProvider creates a provider that answers after latency.
func NewMockProvider(latency time.Duration) *MockProvider {
	return &MockProvider{
		latency: latency,
		now:     time.Now,
	}
}

// FailWith makes subsequent fetches return err; nil restores success.
func (p *MockProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failure = err
}

// Calls returns how many fetches have been made.
func (p *MockProvider) Calls() int {
	return int(p.calls.Load())
}

// FetchVerification returns a fresh snapshot with requirements and
// medical-exam proofs for subjectID.
func (p *MockProvider) FetchVerification(ctx context.Context, subjectID string) (*model.VerificationSnapshot, error) {
	p.calls.Add(1)

	timer := time.NewTimer(p.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	p.mu.Lock()
	failure := p.failure
	p.mu.Unlock()
	if failure != nil {
		return nil, failure
	}

	now := p.now()
	stamp := now.Format(referenceLayout)

	return &model.VerificationSnapshot{
		SubjectID: subjectID,
		FetchedAt: now,
		Proofs: []model.VerificationProof{
			{
				Kind:       model.ProofRequirements,
				Headline:   "جميع المتطلبات جاهزة وموثقة",
				Detail:     "تمت مزامنة الوثائق من توكلنا دون الحاجة لأي إدخال يدوي.",
				Source:     sourceSystem,
				Reference:  "DOC-" + stamp,
				LastSynced: now.Add(-5 * time.Minute),
				Status:     model.ProofVerified,
			},
			{
				Kind:       model.ProofMedicalExam,
				Headline:   "الفحص الطبي تم التحقق منه",
				Detail:     "تم استلام النتيجة الرقمية من العيادة المعتمدة عبر توكلنا.",
				Source:     sourceSystem,
				Reference:  "MED-" + stamp,
				LastSynced: now.Add(-2 * time.Minute),
				Status:     model.ProofVerified,
			},
		},
	}, nil
}

// RetryingProvider retries transient upstream failures of the wrapped
// provider. An expired session is never retried.
type RetryingProvider struct {
	next ProviderFunc
	opts common.RetryOptions
}

// ProviderFunc adapts a function to the provider interface.
type ProviderFunc func(ctx context.Context, subjectID string) (*model.VerificationSnapshot, error)

// FetchVerification calls f.
func (f ProviderFunc) FetchVerification(ctx context.Context, subjectID string) (*model.VerificationSnapshot, error) {
	return f(ctx, subjectID)
}

// NewRetryingProvider wraps fetch with retry behavior.
func NewRetryingProvider(fetch ProviderFunc, opts common.RetryOptions) *RetryingProvider {
	return &RetryingProvider{next: fetch, opts: opts}
}

// FetchVerification fetches through the wrapped provider with retries.
func (r *RetryingProvider) FetchVerification(ctx context.Context, subjectID string) (*model.VerificationSnapshot, error) {
	var snapshot *model.VerificationSnapshot

	err := common.WithRetry(ctx, func() error {
		var err error
		snapshot, err = r.next(ctx, subjectID)
		if err != nil && !errors.Is(err, ErrUpstreamUnavailable) {
			return common.Permanent(err)
		}
		return err
	}, r.opts)
	if err != nil {
		return nil, fmt.Errorf("fetch verification for %s: %w", subjectID, err)
	}
	return snapshot, nil
}

// Message maps a provider failure to the text shown to the user.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrSessionExpired):
		return "انتهت صلاحية الجلسة مع توكلنا."
	case errors.Is(err, ErrUpstreamUnavailable):
		return "خدمة التحقق غير متاحة مؤقتاً."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "انتهت مهلة التحقق. يرجى المحاولة مرة أخرى."
	default:
		return "تعذر التحقق من البيانات. يرجى المحاولة مرة أخرى."
	}
}
