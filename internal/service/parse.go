package service

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/wanderai/travel-gateway/internal/model"
)

// Confidence thresholds separating the validation tiers.
const (
	confidenceValid    = 0.75
	confidenceRejected = 0.3
	confidenceFallback = 0.2
)

// structuredReply is the JSON object the engine prompt asks providers to emit.
type structuredReply struct {
	Reply              string         `json:"reply"`
	Type               string         `json:"type"`
	Data               map[string]any `json:"data"`
	SuggestedPlaceName string         `json:"suggested_place_name"`
	RefinedQuery       string         `json:"refined_query"`
	ModuleUsed         string         `json:"module_used"`
	Confidence         *float64       `json:"confidence"`
}

// parseReply extracts structured fields from a provider's free-form text.
// Parsing is best-effort: when no usable JSON object is present the raw text
// becomes a plain "text" result flagged for review. It never fails as long as
// raw text exists.
func parseReply(raw string) *model.ChatResult {
	fallback := &model.ChatResult{
		Reply:            strings.TrimSpace(raw),
		Type:             model.ResultTypeText,
		Data:             map[string]any{},
		Confidence:       confidenceFallback,
		ValidationStatus: model.ValidationNeedsReview,
	}

	cleaned := stripFences(raw)
	candidate := extractFirstJSONObject(cleaned)
	if candidate == "" {
		candidate = extractFirstJSONObject(raw)
	}
	if candidate == "" {
		return fallback
	}

	var sr structuredReply
	if err := json.Unmarshal([]byte(candidate), &sr); err != nil {
		return fallback
	}

	reply := strings.TrimSpace(sr.Reply)
	if reply == "" {
		return fallback
	}

	result := &model.ChatResult{
		Reply:              reply,
		Type:               sr.Type,
		Data:               sr.Data,
		SuggestedPlaceName: strings.TrimSpace(sr.SuggestedPlaceName),
		RefinedQuery:       strings.TrimSpace(sr.RefinedQuery),
		ModuleUsed:         strings.TrimSpace(sr.ModuleUsed),
	}
	if result.Type == "" {
		result.Type = model.ResultTypeText
	}
	if result.Data == nil {
		result.Data = map[string]any{}
	}

	if sr.Confidence != nil {
		result.Confidence = clamp01(*sr.Confidence)
	} else {
		result.Confidence = 0.5
	}

	switch {
	case sr.Confidence != nil && result.Confidence >= confidenceValid:
		result.ValidationStatus = model.ValidationValid
	case sr.Confidence != nil && result.Confidence < confidenceRejected:
		result.ValidationStatus = model.ValidationRejected
	default:
		result.ValidationStatus = model.ValidationNeedsReview
	}

	return result
}

var (
	fenceStart = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*")
	fenceEnd   = regexp.MustCompile("(?is)\\s*```\\s*$")
)

// stripFences removes ```json ... ``` wrappers and a BOM if present.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "\uFEFF")
	s = fenceStart.ReplaceAllString(s, "")
	s = fenceEnd.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extractFirstJSONObject returns the first balanced {...} span in input,
// respecting strings and escapes, or "" when none exists.
func extractFirstJSONObject(input string) string {
	start := strings.IndexByte(input, '{')
	if start == -1 {
		return ""
	}

	inString := false
	escape := false
	depth := 0

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
			if depth < 0 {
				return ""
			}
		}
	}

	return ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
