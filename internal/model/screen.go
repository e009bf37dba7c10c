// Package model defines the core domain models used throughout the application.
package model

// Screen identifies the screen the session is currently showing.
type Screen int

// Screen constants.
const (
	ScreenSplash Screen = iota
	ScreenHome
	ScreenReview
	ScreenConfirmation
	ScreenDependents
)

func (s Screen) String() string {
	switch s {
	case ScreenSplash:
		return "splash"
	case ScreenHome:
		return "home"
	case ScreenReview:
		return "review"
	case ScreenConfirmation:
		return "confirmation"
	case ScreenDependents:
		return "dependents"
	default:
		return "unknown"
	}
}

// Destination is where a deep link tap leads.
type Destination int

// Destination constants.
const (
	DestinationReview Destination = iota
	DestinationDependents
)

func (d Destination) String() string {
	if d == DestinationDependents {
		return "dependents"
	}
	return "review"
}
