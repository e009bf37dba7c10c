// Package chat runs the assistant conversation: suggestion chips, streamed
// replies, and the deep links attached to them.
package chat

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/Veraticus/absher-session/internal/llm"
	"github.com/Veraticus/absher-session/internal/metrics"
	"github.com/Veraticus/absher-session/internal/model"
	"github.com/Veraticus/absher-session/internal/service"
	"github.com/google/uuid"
)

// ApologyText replaces the reply when generation fails.
const ApologyText = "عذراً، حدث خطأ أثناء معالجة طلبك. يرجى المحاولة مرة أخرى."

// Generator starts a streamed reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*llm.Stream, error)
}

// TokenSink receives reply tokens as they stream in.
type TokenSink func(token string)

// State is an immutable snapshot of the conversation.
type State struct {
	Input       string
	Messages    []model.ChatMessage
	Suggestions []model.SuggestionChip
	Processing  bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDependents enables dependent alert injection after alert replies.
func WithDependents(dependents service.DependentSource) Option {
	return func(o *Orchestrator) {
		o.dependents = dependents
	}
}

// WithTokenSink streams reply tokens to sink while a turn runs.
func WithTokenSink(sink TokenSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator replaces the message id generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// Orchestrator owns the message list and the suggestion chips. Only one
// turn runs at a time; input submitted while a turn is processing is
// ignored.
type Orchestrator struct {
	generator  Generator
	alerts     service.AlertSource
	dependents service.DependentSource
	sink       TokenSink
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	updates    *common.Broadcaster[State]
	input      string
	messages   []model.ChatMessage
	chips      []model.SuggestionChip
	processing bool
	mu         sync.Mutex
}

// NewOrchestrator creates an empty conversation.
func NewOrchestrator(generator Generator, alerts service.AlertSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: generator,
		alerts:    alerts,
		now:       time.Now,
		newID:     uuid.NewString,
		updates:   common.NewBroadcaster[State](),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = common.OrDefault(o.logger)
	return o
}

// LoadSuggestions rebuilds the chips, one per current alert in order.
func (o *Orchestrator) LoadSuggestions() []model.SuggestionChip {
	var alerts []model.Alert
	if o.alerts != nil {
		alerts = o.alerts.Alerts()
	}

	chips := make([]model.SuggestionChip, 0, len(alerts))
	for _, alert := range alerts {
		chips = append(chips, model.NewSuggestionChip(alert))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.chips = chips
	o.commitLocked()
	return slices.Clone(chips)
}

// SetInput replaces the input buffer.
func (o *Orchestrator) SetInput(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.input = text
	o.commitLocked()
}

// Input returns the input buffer.
func (o *Orchestrator) Input() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.input
}

// SubmitInput sends the input buffer as a message.
func (o *Orchestrator) SubmitInput(ctx context.Context) bool {
	return o.SendMessage(ctx, o.Input())
}

// SendMessage runs one turn for raw. Blank text and text submitted while
// another turn is processing are ignored. The reply's deep link comes from
// keyword detection. It blocks until the reply is appended and reports
// whether a turn ran.
func (o *Orchestrator) SendMessage(ctx context.Context, raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		return false
	}
	if !o.begin(text, true) {
		return false
	}

	o.respond(ctx, text, nil)
	return true
}

// HandleSuggestionTap runs one turn using the chip text as the user message.
// The reply links to the chip's alert, followed by the active dependent
// alert if there is one.
func (o *Orchestrator) HandleSuggestionTap(ctx context.Context, chip model.SuggestionChip) bool {
	if !o.begin(chip.DisplayText, false) {
		return false
	}

	alert := chip.Alert
	o.respond(ctx, chip.DisplayText, &alert)
	return true
}

// HandleDeepLinkTap returns where tapping link should navigate.
func (o *Orchestrator) HandleDeepLinkTap(link model.DeepLink) model.Destination {
	return DestinationFor(link.Service)
}

// begin appends the user message and marks the turn as processing.
func (o *Orchestrator) begin(text string, clearInput bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.processing {
		o.metrics.ObserveIgnored("send_message", "processing")
		o.logger.Debug("message ignored while processing", "text", text)
		return false
	}

	o.messages = append(o.messages, o.messageLocked(text, model.OriginUser, nil))
	if clearInput {
		o.input = ""
	}
	o.processing = true
	o.commitLocked()
	return true
}

func (o *Orchestrator) respond(ctx context.Context, prompt string, alert *model.Alert) {
	reply, err := o.generate(ctx, prompt)

	o.mu.Lock()
	defer o.mu.Unlock()

	outcome := metrics.OutcomeCompleted
	if err != nil {
		outcome = metrics.OutcomeFailed
		o.messages = append(o.messages, o.messageLocked(ApologyText, model.OriginAssistant, nil))
		o.logger.Warn("reply generation failed", "error", err)
	} else {
		link := ResolveDeepLink(prompt, alert)
		o.messages = append(o.messages, o.messageLocked(reply, model.OriginAssistant, link))

		if alert != nil && o.dependents != nil {
			if dependent, ok := o.dependents.ActiveDependentAlert(); ok {
				o.messages = append(o.messages, o.dependentMessageLocked(dependent))
			}
		}
	}

	o.processing = false
	o.commitLocked()
	o.metrics.ObserveChatTurn(outcome)
}

func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	if o.generator == nil {
		return "", llm.ErrModelNotLoaded
	}

	stream, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	for stream.Next(ctx) {
		token := stream.Token()
		reply.WriteString(token)
		if o.sink != nil {
			o.sink(token)
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}
	return reply.String(), nil
}

func (o *Orchestrator) dependentMessageLocked(dependent model.Dependent) model.ChatMessage {
	text := dependent.AlertText()
	link := &model.DeepLink{
		Service: model.ServiceDependents,
		Title:   text,
		AlertID: dependent.ID,
	}
	return o.messageLocked(text, model.OriginAssistant, link)
}

func (o *Orchestrator) messageLocked(text string, origin model.Origin, link *model.DeepLink) model.ChatMessage {
	return model.ChatMessage{
		ID:        o.newID(),
		Text:      text,
		Origin:    origin,
		Timestamp: o.now(),
		DeepLink:  link,
	}
}

// Messages returns the conversation so far.
func (o *Orchestrator) Messages() []model.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.messages)
}

// Suggestions returns the current chips.
func (o *Orchestrator) Suggestions() []model.SuggestionChip {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.chips)
}

// Processing reports whether a turn is in flight.
func (o *Orchestrator) Processing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processing
}

// State returns a snapshot of the conversation.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

// Subscribe delivers conversation snapshots until the returned function is
// called.
func (o *Orchestrator) Subscribe(buffer int) (<-chan State, func()) {
	return o.updates.Subscribe(buffer)
}

func (o *Orchestrator) stateLocked() State {
	return State{
		Input:       o.input,
		Messages:    slices.Clone(o.messages),
		Suggestions: slices.Clone(o.chips),
		Processing:  o.processing,
	}
}

func (o *Orchestrator) commitLocked() {
	o.updates.Publish(o.stateLocked())
}
