package llm

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/Veraticus/absher-session/internal/config"
	"github.com/Veraticus/absher-session/internal/metrics"
)

// Status is the model-load state of the engine.
type Status int

// Engine statuses.
const (
	StatusUnloaded Status = iota
	StatusLoading
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	default:
		return "unloaded"
	}
}

// Config holds engine timing configuration.
type Config struct {
	TokenDelay          time.Duration
	ArtifactLoadLatency time.Duration
	DemoLoadLatency     time.Duration
	// RequireArtifact makes LoadModel fail with ErrModelNotFound instead of
	// falling back to demo mode when no artifact exists at the path.
	RequireArtifact bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		TokenDelay:          20 * time.Millisecond,
		ArtifactLoadLatency: 100 * time.Millisecond,
		DemoLoadLatency:     50 * time.Millisecond,
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithResponder replaces the keyword responder.
func WithResponder(r Responder) Option {
	return func(e *Engine) {
		e.responder = r
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine turns prompts into ordered, cancellable token streams and owns the
// model-load state.
type Engine struct {
	responder  Responder
	logger     *slog.Logger
	metrics    *metrics.Metrics
	cancelGen  context.CancelFunc
	modelPath  string
	lastErr    string
	buffer     []string
	cfg        Config
	generation uint64
	loadEpoch  uint64
	status     Status
	mu         sync.Mutex
}

// NewEngine creates an unloaded engine.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		responder: KeywordResponder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = common.OrDefault(e.logger)
	return e
}

// LoadModel loads the model at path. A missing artifact falls back to demo
// mode unless the engine requires one. On failure the engine stays unloaded
// and the error message is kept for LastError.
func (e *Engine) LoadModel(ctx context.Context, path string) error {
	e.mu.Lock()
	if e.status == StatusLoading {
		e.mu.Unlock()
		return fmt.Errorf("%w: load already in progress", ErrModelLoadFailed)
	}
	e.cancelActiveLocked()
	e.loadEpoch++
	epoch := e.loadEpoch
	e.status = StatusLoading
	e.lastErr = ""
	e.mu.Unlock()

	start := time.Now()
	resolved := config.ExpandPath(path)

	latency, demo, err := e.resolveArtifact(resolved)
	if err != nil {
		e.failLoad(epoch, err)
		return err
	}

	timer := time.NewTimer(latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		err := fmt.Errorf("%w: %w", ErrModelLoadFailed, ctx.Err())
		e.failLoad(epoch, err)
		return err
	case <-timer.C:
	}

	e.mu.Lock()
	if epoch != e.loadEpoch {
		e.mu.Unlock()
		return fmt.Errorf("%w: unloaded while loading", ErrModelLoadFailed)
	}
	e.status = StatusLoaded
	e.modelPath = resolved
	e.mu.Unlock()

	e.metrics.ObserveModelLoad(time.Since(start))
	e.logger.Info("model loaded", "path", resolved, "demo_mode", demo, "duration", time.Since(start))
	return nil
}

func (e *Engine) resolveArtifact(path string) (time.Duration, bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return e.cfg.ArtifactLoadLatency, false, nil
	case errors.Is(err, fs.ErrNotExist):
		if e.cfg.RequireArtifact {
			return 0, false, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return e.cfg.DemoLoadLatency, true, nil
	default:
		return 0, false, fmt.Errorf("%w: %w", ErrModelLoadFailed, err)
	}
}

func (e *Engine) failLoad(epoch uint64, err error) {
	e.mu.Lock()
	if epoch == e.loadEpoch {
		e.status = StatusUnloaded
		e.lastErr = err.Error()
	}
	e.mu.Unlock()

	e.logger.Warn("model load failed", "error", err)
}

// Unload cancels any running generation and returns to the unloaded state.
// A load still in progress finishes with ErrModelLoadFailed.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loadEpoch++
	e.cancelActiveLocked()
	e.status = StatusUnloaded
	e.modelPath = ""
	e.lastErr = ""
	e.buffer = nil
}

// Generate starts a new generation for prompt, cancelling any generation
// still running. Tokens are produced lazily as the consumer pulls them.
func (e *Engine) Generate(ctx context.Context, prompt string) (*Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusLoaded {
		return nil, ErrModelNotLoaded
	}

	e.cancelActiveLocked()
	e.generation++
	e.buffer = nil

	genCtx, cancel := context.WithCancel(ctx)
	e.cancelGen = cancel

	e.logger.Debug("generation started", "generation", e.generation, "prompt_length", len(prompt))

	return &Stream{
		engine: e,
		ctx:    genCtx,
		cancel: cancel,
		prompt: prompt,
		gen:    e.generation,
	}, nil
}

// Cancel terminates the running generation, if any. Tokens already emitted
// stay in the buffer.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActiveLocked()
}

func (e *Engine) cancelActiveLocked() {
	if e.cancelGen != nil {
		e.cancelGen()
		e.cancelGen = nil
	}
}

// Tokens returns the tokens of the most recent generation in order.
func (e *Engine) Tokens() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	tokens := make([]string, len(e.buffer))
	copy(tokens, e.buffer)
	return tokens
}

// Status returns the model-load state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// IsLoaded reports whether generation is possible.
func (e *Engine) IsLoaded() bool {
	return e.Status() == StatusLoaded
}

// ModelPath returns the resolved path of the loaded model.
func (e *Engine) ModelPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modelPath
}

// LastError returns the message of the last failed load, if any.
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// appendToken records tok for generation gen. It refuses once the generation
// is superseded or cancelled so the buffer only ever holds the current one.
func (e *Engine) appendToken(genCtx context.Context, gen uint64, tok string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.generation || genCtx.Err() != nil {
		return false
	}
	e.buffer = append(e.buffer, tok)
	return true
}

// finishGeneration releases the cancel func if gen is still current.
func (e *Engine) finishGeneration(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen == e.generation {
		e.cancelGen = nil
	}
}
