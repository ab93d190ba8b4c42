package services

import (
	"context"
	"encoding/json"
	"fmt"
)

// CoachPersona is the system instruction sent with every turn.
const CoachPersona = "You're ACHAPI, an elite hybrid strength & aesthetics fitness coach. Motivate the user, break down concepts, and give real workout/nutrition advice. Be real, bold, and specific."

const (
	// NoReplyFallback substitutes a completion that carried no text.
	NoReplyFallback = "No response from AI"

	Temperature = 0.9
	MaxTokens   = 1000
)

// Completer turns one user message into one coach reply. Implementations are
// stateless per call: prior turns are never sent upstream.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// UpstreamError is a non-success answer from the completion API. Status and
// Details are the upstream's own and are passed through to the caller.
type UpstreamError struct {
	Provider string
	Status   int
	Details  json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: status %d", e.Provider, e.Status)
}

// Label is the client-facing error string, e.g. "Groq API error".
func (e *UpstreamError) Label() string {
	return e.Provider + " API error"
}

// TransportError covers network failures and undecodable upstream bodies.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func replyOrFallback(reply string) string {
	if reply == "" {
		return NoReplyFallback
	}
	return reply
}
