package chat

import (
	"strings"

	"github.com/Veraticus/absher-session/internal/model"
)

// Service names as alerts spell them.
const (
	categoryDrivingLicense = "تجديد رخصة القيادة"
	categoryPassport       = "تجديد جواز السفر"
	categoryNationalID     = "تجديد الهوية"
)

type linkRule struct {
	title    string
	keywords []string
	service  model.ServiceKind
}

// linkRules are checked in order; the first rule with a matching keyword wins.
var linkRules = []linkRule{
	{
		service:  model.ServiceDrivingLicense,
		title:    "تجديد رخصة القيادة",
		keywords: []string{"رخصة", "القيادة", "license", "driving", "اجدد", "تجديد"},
	},
	{
		service:  model.ServicePassport,
		title:    "تجديد جواز السفر",
		keywords: []string{"جواز", "السفر", "passport"},
	},
	{
		service:  model.ServiceNationalID,
		title:    "تجديد الهوية الوطنية",
		keywords: []string{"هوية", "الوطنية", "national id"},
	},
}

// ResolveDeepLink picks the deep link for a reply. An alert context maps
// straight to its service; otherwise the prompt is classified by keyword.
func ResolveDeepLink(prompt string, alert *model.Alert) *model.DeepLink {
	if alert != nil {
		return LinkForAlert(*alert)
	}
	return DetectDeepLink(prompt)
}

// LinkForAlert maps an alert's service category to a deep link. Unknown
// categories fall back to driving license renewal.
func LinkForAlert(alert model.Alert) *model.DeepLink {
	var kind model.ServiceKind
	switch alert.ServiceCategory {
	case categoryPassport:
		kind = model.ServicePassport
	case categoryNationalID:
		kind = model.ServiceNationalID
	case categoryDrivingLicense:
		kind = model.ServiceDrivingLicense
	default:
		kind = model.ServiceDrivingLicense
	}

	return &model.DeepLink{
		Service: kind,
		Title:   alert.Title,
		AlertID: alert.ID,
	}
}

// DetectDeepLink classifies prompt by keyword. It returns nil when the prompt
// is about none of the renewable services.
func DetectDeepLink(prompt string) *model.DeepLink {
	text := strings.ToLower(prompt)
	for _, rule := range linkRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return &model.DeepLink{Service: rule.service, Title: rule.title}
			}
		}
	}
	return nil
}

// DestinationFor maps a deep link's service to the screen it opens.
func DestinationFor(kind model.ServiceKind) model.Destination {
	switch kind {
	case model.ServiceDependents:
		return model.DestinationDependents
	case model.ServiceDrivingLicense, model.ServicePassport, model.ServiceNationalID:
		return model.DestinationReview
	default:
		return model.DestinationReview
	}
}
