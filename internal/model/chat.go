// Package model defines data structures for the travel-assistant gateway.
package model

import (
	"time"
)

// Role represents the role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session's conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationStatus classifies how trustworthy a parsed result is.
type ValidationStatus string

const (
	ValidationValid       ValidationStatus = "valid"
	ValidationNeedsReview ValidationStatus = "needs_review"
	ValidationRejected    ValidationStatus = "rejected"
)

// ResultType tags what kind of answer the assistant produced.
// Free-form; these are the values the engine is known to emit.
const (
	ResultTypeText       = "text"
	ResultTypeItinerary  = "itinerary"
	ResultTypeSuggestion = "suggestion"
)

// ChatRequest is the request body for POST /api/v1/chat.
type ChatRequest struct {
	Message         string   `json:"message"`
	SessionID       string   `json:"sessionId,omitempty"`
	SuggestedPlaces []string `json:"suggestedPlaces,omitempty"`
}

// ChatResult is one fully processed chat turn.
type ChatResult struct {
	Reply              string           `json:"reply"`
	Type               string           `json:"type"`
	Data               map[string]any   `json:"data"`
	SuggestedPlaceName string           `json:"suggestedPlaceName,omitempty"`
	RefinedQuery       string           `json:"refinedQuery,omitempty"`
	SessionID          string           `json:"sessionId"`
	ModuleUsed         string           `json:"moduleUsed,omitempty"`
	Confidence         float64          `json:"confidence"`
	ValidationStatus   ValidationStatus `json:"validationStatus"`
}

// SessionView is the read-only projection returned by the session endpoint.
type SessionView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title,omitempty"`
	History         []Turn    `json:"history"`
	SuggestedPlaces []string  `json:"suggestedPlaces"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
