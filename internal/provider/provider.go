// Package provider contains language-model provider clients and dispatch.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// Message is a single conversation entry in provider-neutral form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral generation request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Reply is a successful generation outcome.
type Reply struct {
	Text      string
	Provider  string
	LatencyMs int64
}

// Client is the interface for language-model providers.
type Client interface {
	// Generate produces raw text for the given conversation, or fails.
	Generate(ctx context.Context, req *Request) (string, error)

	// Name returns the provider name used in logs and dispatch attribution.
	Name() string
}

// Attempt records one failed provider invocation during dispatch.
type Attempt struct {
	Provider string
	Err      error
}

// ExhaustedError is returned when every configured provider failed.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString("all providers exhausted")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Provider, a.Err)
	}
	return b.String()
}
