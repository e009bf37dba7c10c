package cli

import (
	"testing"
	"time"

	"github.com/Veraticus/absher-session/internal/model"
	"github.com/Veraticus/absher-session/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		want   string
		amount float64
	}{
		{amount: 2700, want: "2700 ريال"},
		{amount: 0, want: "0 ريال"},
		{amount: 12.5, want: "12.50 ريال"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(tt.amount))
		})
	}
}

func TestRenderProgress(t *testing.T) {
	assert.Contains(t, RenderProgress(model.PaymentState{TotalFee: 2700, PaidAmount: 1000}), " 37%")
	assert.Contains(t, RenderProgress(model.PaymentState{TotalFee: 2700, PaidAmount: 2700}), "100%")
	assert.Contains(t, RenderProgress(model.PaymentState{}), "  0%")

	assert.Contains(t, RenderProgress(model.PaymentState{TotalFee: 2700, PaidAmount: 1000}), "متبقي 63%")
	assert.NotContains(t, RenderProgress(model.PaymentState{TotalFee: 2700, PaidAmount: 2700}), "متبقي")
	assert.NotContains(t, RenderProgress(model.PaymentState{}), "متبقي")
}

func TestRenderSession(t *testing.T) {
	state := session.State{
		Screen:    model.ScreenHome,
		Selection: model.ServiceDrivingLicense,
		Payment:   model.PaymentState{TotalFee: 2700, PaidAmount: 1000, SelectedPaymentAmount: 1700},
		Busy:      true,
	}
	details := model.ServiceDetails{Title: "تجديد رخصة القيادة", FeesText: "٢٬٧٠٠ ريال"}

	out := RenderSession(state, details)
	assert.Contains(t, out, "home")
	assert.Contains(t, out, "تجديد رخصة القيادة")
	assert.Contains(t, out, "1700 ريال")
	assert.Contains(t, out, "جاري المعالجة")
}

func TestRenderVerification(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	t.Run("failed offers retry", func(t *testing.T) {
		out := RenderVerification(model.VerificationStateFailed("انتهت صلاحية الجلسة مع توكلنا."), nil, now)
		assert.Contains(t, out, "انتهت صلاحية الجلسة")
		assert.Contains(t, out, "/verify")
	})

	t.Run("loaded lists proofs", func(t *testing.T) {
		snapshot := &model.VerificationSnapshot{
			FetchedAt: now,
			Proofs: []model.VerificationProof{
				{Headline: "الفحص الطبي تم التحقق منه", Source: "توكلنا", Reference: "MED-010325-0930", LastSynced: now.Add(-2 * time.Minute), Status: model.ProofVerified},
				{Headline: "متطلبات ناقصة", Source: "توكلنا", Reference: "DOC-1", LastSynced: now, Status: model.ProofMissing},
			},
		}
		out := RenderVerification(model.VerificationStateLoaded(), snapshot, now)
		assert.Contains(t, out, "MED-010325-0930")
		assert.Contains(t, out, "قبل 2 دقيقة")
		assert.Contains(t, out, "الآن")
		assert.Contains(t, out, ErrorIcon)
	})

	t.Run("idle", func(t *testing.T) {
		assert.Contains(t, RenderVerification(model.VerificationStateIdle(), nil, now), "لم يتم التحقق")
	})
}

func TestRenderMessage(t *testing.T) {
	user := model.ChatMessage{Text: "جواز السفر", Origin: model.OriginUser}
	assert.Contains(t, RenderMessage(user, 0), UserIcon)
	assert.NotContains(t, RenderMessage(user, 0), LinkIcon)

	reply := model.ChatMessage{
		Text:     "يمكنك تجديد جواز السفر",
		Origin:   model.OriginAssistant,
		DeepLink: &model.DeepLink{Service: model.ServicePassport, Title: "تجديد جواز السفر"},
	}
	out := RenderMessage(reply, 3)
	assert.Contains(t, out, RobotIcon)
	assert.Contains(t, out, "[3] تجديد جواز السفر")
}

func TestRenderSuggestions(t *testing.T) {
	assert.Empty(t, RenderSuggestions(nil))

	chips := []model.SuggestionChip{
		{DisplayText: model.FormatSuggestionText("تنبيه استباقي")},
		{DisplayText: model.FormatSuggestionText("جواز")},
	}
	out := RenderSuggestions(chips)
	assert.Contains(t, out, "[1] "+chips[0].DisplayText)
	assert.Contains(t, out, "[2] "+chips[1].DisplayText)
}

func TestRenderDocuments(t *testing.T) {
	days := 45
	out := RenderDocuments(model.Profile{Name: "إلياس", IDNumber: "١١٢٩٣٤٥١٩٣"}, []model.Document{
		{Title: "هوية مواطن", Status: model.DocumentValid},
		{Title: "رخصة", Status: model.DocumentExpiringSoon, DaysRemaining: &days},
	})
	assert.Contains(t, out, "١١٢٩٣٤٥١٩٣")
	assert.Contains(t, out, "ينتهي قريباً")
	assert.Contains(t, out, "45 يوم")
}
