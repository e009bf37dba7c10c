package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/Veraticus/absher-session/internal/metrics"
)

// Stream is a lazy, finite, non-restartable token sequence for one
// generation. It is meant for a single consumer:
//
//	for stream.Next(ctx) {
//		fmt.Print(stream.Token())
//	}
//	if err := stream.Err(); err != nil {
//		// ErrGenerationCancelled or ErrGenerationFailed
//	}
type Stream struct {
	engine  *Engine
	ctx     context.Context
	cancel  context.CancelFunc
	err     error
	prompt  string
	token   string
	tokens  []string
	next    int
	gen     uint64
	started bool
	done    bool
}

// Next waits the per-token delay and advances to the next token. It returns
// false once the stream completes, is cancelled, or fails.
func (s *Stream) Next(ctx context.Context) bool {
	if s.done {
		return false
	}

	if !s.started {
		s.started = true
		tokens, err := s.engine.responder.Respond(s.ctx, s.prompt)
		if err != nil {
			s.finish(fmt.Errorf("%w: %w", ErrGenerationFailed, err))
			return false
		}
		s.tokens = tokens
	}

	if s.next >= len(s.tokens) {
		s.finish(nil)
		return false
	}

	if err := s.cancelled(ctx); err != nil {
		s.finish(err)
		return false
	}

	timer := time.NewTimer(s.engine.cfg.TokenDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		s.finish(fmt.Errorf("%w: %w", ErrGenerationCancelled, ctx.Err()))
		return false
	case <-s.ctx.Done():
		s.finish(ErrGenerationCancelled)
		return false
	case <-timer.C:
	}

	tok := s.tokens[s.next]
	if !s.engine.appendToken(s.ctx, s.gen, tok) {
		s.finish(ErrGenerationCancelled)
		return false
	}

	s.next++
	s.token = tok
	s.engine.metrics.ObserveToken()
	return true
}

func (s *Stream) cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrGenerationCancelled, err)
	}
	if s.ctx.Err() != nil {
		return ErrGenerationCancelled
	}
	return nil
}

func (s *Stream) finish(err error) {
	s.done = true
	s.err = err
	s.token = ""
	s.cancel()
	s.engine.finishGeneration(s.gen)

	outcome := metrics.OutcomeCompleted
	switch {
	case errors.Is(err, ErrGenerationCancelled):
		outcome = metrics.OutcomeCancelled
	case err != nil:
		outcome = metrics.OutcomeFailed
	}
	s.engine.metrics.ObserveGeneration(outcome)
	s.engine.logger.Debug("generation finished", "generation", s.gen, "outcome", outcome, "tokens", s.next)
}

// Token returns the token produced by the last successful Next.
func (s *Stream) Token() string {
	return s.token
}

// Err returns the terminal error, or nil if the stream completed normally or
// is still running.
func (s *Stream) Err() error {
	return s.err
}

// Done reports whether the stream has terminated.
func (s *Stream) Done() bool {
	return s.done
}

// All returns an iterator over the remaining tokens. A terminal error is
// yielded once as the last pair with an empty token.
func (s *Stream) All(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for s.Next(ctx) {
			if !yield(s.Token(), nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

// Collect drains the stream and returns every token it produced.
func (s *Stream) Collect(ctx context.Context) ([]string, error) {
	var tokens []string
	for s.Next(ctx) {
		tokens = append(tokens, s.Token())
	}
	return tokens, s.Err()
}
