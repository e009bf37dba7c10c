package model

import (
	"time"

	"github.com/google/uuid"
)

// SuggestionPrefix precedes the alert title on every suggestion chip.
const SuggestionPrefix = "عندك إشعار من التنبيه الاستباقي"

// Origin identifies who authored a chat message.
type Origin string

// Message origins.
const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// DeepLink points from a chat message to a screen for a service.
type DeepLink struct {
	Service ServiceKind
	Title   string
	AlertID string
}

// ChatMessage is a single entry in the conversation. Messages are never
// mutated after they are appended.
type ChatMessage struct {
	Timestamp time.Time
	DeepLink  *DeepLink
	ID        string
	Text      string
	Origin    Origin
}

// IsUser reports whether the message was typed or tapped by the user.
func (m ChatMessage) IsUser() bool {
	return m.Origin == OriginUser
}

// SuggestionChip is a tappable shortcut derived one-to-one from an alert.
type SuggestionChip struct {
	ID          string
	DisplayText string
	Alert       Alert
}

// NewSuggestionChip builds the chip for an alert.
func NewSuggestionChip(alert Alert) SuggestionChip {
	return SuggestionChip{
		ID:          uuid.NewString(),
		Alert:       alert,
		DisplayText: FormatSuggestionText(alert.Title),
	}
}

// FormatSuggestionText renders the chip text for an alert title.
func FormatSuggestionText(alertTitle string) string {
	return SuggestionPrefix + ": " + alertTitle
}
