package llm

import (
	"context"
	"strings"
)

// Responder produces the full token list for a prompt. The engine paces the
// tokens out; a Responder backed by a real model can replace the keyword
// responder without changing the streaming contract.
type Responder interface {
	Respond(ctx context.Context, prompt string) ([]string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, prompt string) ([]string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, prompt string) ([]string, error) {
	return f(ctx, prompt)
}

// ResponseCategory is the topic the keyword responder detected.
type ResponseCategory string

// Response categories in match priority order.
const (
	CategoryLicense    ResponseCategory = "license"
	CategoryAlert      ResponseCategory = "alert"
	CategoryPassport   ResponseCategory = "passport"
	CategoryNationalID ResponseCategory = "national_id"
	CategoryDefault    ResponseCategory = "default"
)

var (
	licenseKeywords    = []string{"رخصة", "القيادة", "اجدد", "license", "driving"}
	alertKeywords      = []string{"تنبيه", "إشعار"}
	passportKeywords   = []string{"جواز", "السفر", "passport"}
	nationalIDKeywords = []string{"هوية", "الوطنية"}
)

var cannedResponses = map[ResponseCategory][]string{
	CategoryLicense: {
		"أهلاً! ", "يمكنك ", "تجديد ", "رخصة ", "القيادة ", "بسهولة ", "من ", "خلال ",
		"الضغط ", "على ", "الرابط ", "أدناه. ", "الرسوم ", "هي ", "٤٠ ", "ريال ", "فقط.",
	},
	CategoryAlert: {
		"مرحباً! ", "لاحظت ", "أن ", "رخصة ", "قيادتك ", "على ", "وشك ", "الانتهاء. ",
		"يمكنك ", "تجديدها ", "الآن ", "بسهولة. ", "اضغط ", "على ", "الرابط ", "أدناه ", "للمتابعة.",
	},
	CategoryPassport: {
		"يمكنك ", "تجديد ", "جواز ", "السفر ", "من ", "خلال ", "الرابط ", "أدناه.",
	},
	CategoryNationalID: {
		"يمكنك ", "تجديد ", "الهوية ", "الوطنية ", "من ", "خلال ", "الرابط ", "أدناه.",
	},
	CategoryDefault: {
		"مرحباً ", "بك ", "في ", "أبشر. ", "كيف ", "يمكنني ", "مساعدتك ", "اليوم؟ ",
		"يمكنني ", "مساعدتك ", "في ", "تجديد ", "رخصة ", "القيادة، ", "جواز ", "السفر، ",
		"أو ", "الهوية ", "الوطنية.",
	},
}

// Categorize returns the response category for prompt. The first matching
// keyword set wins.
func Categorize(prompt string) ResponseCategory {
	lower := strings.ToLower(prompt)

	switch {
	case containsAny(lower, licenseKeywords):
		return CategoryLicense
	case containsAny(lower, alertKeywords):
		return CategoryAlert
	case containsAny(lower, passportKeywords):
		return CategoryPassport
	case containsAny(lower, nationalIDKeywords):
		return CategoryNationalID
	default:
		return CategoryDefault
	}
}

// KeywordResponder returns canned token lists chosen by keyword category.
type KeywordResponder struct{}

// Respond returns a copy of the canned tokens for the prompt's category.
func (KeywordResponder) Respond(_ context.Context, prompt string) ([]string, error) {
	canned := cannedResponses[Categorize(prompt)]
	tokens := make([]string, len(canned))
	copy(tokens, canned)
	return tokens, nil
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
