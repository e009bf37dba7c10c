package llm

import "errors"

// Engine errors.
var (
	ErrModelNotFound       = errors.New("model artifact not found")
	ErrModelLoadFailed     = errors.New("model load failed")
	ErrModelNotLoaded      = errors.New("model not loaded")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrGenerationCancelled = errors.New("generation cancelled")
)
