package chat

import (
	"testing"

	"github.com/Veraticus/absher-session/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDeepLink(t *testing.T) {
	tests := []struct {
		want   *model.DeepLink
		name   string
		prompt string
	}{
		{
			name:   "license keyword",
			prompt: "كيف اجدد رخصة القيادة؟",
			want:   &model.DeepLink{Service: model.ServiceDrivingLicense, Title: "تجديد رخصة القيادة"},
		},
		{
			name:   "english license is case insensitive",
			prompt: "Driving LICENSE renewal",
			want:   &model.DeepLink{Service: model.ServiceDrivingLicense, Title: "تجديد رخصة القيادة"},
		},
		{
			name:   "renewal wins over passport",
			prompt: "تجديد جواز السفر",
			want:   &model.DeepLink{Service: model.ServiceDrivingLicense, Title: "تجديد رخصة القيادة"},
		},
		{
			name:   "passport",
			prompt: "My Passport",
			want:   &model.DeepLink{Service: model.ServicePassport, Title: "تجديد جواز السفر"},
		},
		{
			name:   "national id",
			prompt: "الهوية الوطنية",
			want:   &model.DeepLink{Service: model.ServiceNationalID, Title: "تجديد الهوية الوطنية"},
		},
		{
			name:   "english national id",
			prompt: "National ID",
			want:   &model.DeepLink{Service: model.ServiceNationalID, Title: "تجديد الهوية الوطنية"},
		},
		{
			name:   "no match",
			prompt: "مرحبا",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDeepLink(tt.prompt))
		})
	}
}

func TestLinkForAlert(t *testing.T) {
	tests := []struct {
		category string
		want     model.ServiceKind
	}{
		{category: "تجديد رخصة القيادة", want: model.ServiceDrivingLicense},
		{category: "تجديد جواز السفر", want: model.ServicePassport},
		{category: "تجديد الهوية", want: model.ServiceNationalID},
		{category: "خدمة غير معروفة", want: model.ServiceDrivingLicense},
		{category: "", want: model.ServiceDrivingLicense},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			alert := model.Alert{ID: "a1", Title: "تنبيه", ServiceCategory: tt.category}
			link := LinkForAlert(alert)
			require.NotNil(t, link)
			assert.Equal(t, tt.want, link.Service)
			assert.Equal(t, "تنبيه", link.Title)
			assert.Equal(t, "a1", link.AlertID)
		})
	}
}

func TestResolveDeepLink(t *testing.T) {
	t.Run("alert context beats keywords", func(t *testing.T) {
		alert := model.Alert{Title: "جواز", ServiceCategory: "تجديد جواز السفر"}
		link := ResolveDeepLink("رخصة القيادة", &alert)
		require.NotNil(t, link)
		assert.Equal(t, model.ServicePassport, link.Service)
	})

	t.Run("keywords without context", func(t *testing.T) {
		link := ResolveDeepLink("passport", nil)
		require.NotNil(t, link)
		assert.Equal(t, model.ServicePassport, link.Service)
	})
}

func TestDestinationFor(t *testing.T) {
	for _, kind := range model.AllServiceKinds {
		t.Run(string(kind), func(t *testing.T) {
			want := model.DestinationReview
			if kind == model.ServiceDependents {
				want = model.DestinationDependents
			}
			assert.Equal(t, want, DestinationFor(kind))
			assert.Equal(t, want, (&Orchestrator{}).HandleDeepLinkTap(model.DeepLink{Service: kind}))
		})
	}
}
