// Package llm provides the streaming response engine behind the assistant
// chat. The engine owns model-load state and paces responses out as ordered,
// cancellable token streams; response content comes from a pluggable
// Responder, a keyword classifier by default.
package llm
