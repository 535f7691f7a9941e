package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/vaibhavp4/kompow/internal/flashcards"
)

// GenerationResult is the outcome of parsing a flashcard-generation
// response. Cards carries the structured cards when extraction succeeded;
// otherwise Raw holds the model's original text so callers can surface or
// log it instead of losing the output.
type GenerationResult struct {
	Cards []flashcards.Card
	Raw   string

	// Flagged counts elements that were present in the flashcards array
	// but not well-formed question/answer objects.
	Flagged int

	parsed bool
}

// OK reports whether structured cards were extracted.
func (r GenerationResult) OK() bool { return r.parsed }

// fencedJSON matches a fenced code block holding a JSON object. Models
// frequently wrap output this way despite instructions not to.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseResponse extracts flashcards from a model response. Extraction is
// tried in order of decreasing strictness: a fenced code block, the whole
// trimmed response as an object, then the widest brace-delimited substring.
// The payload must be a JSON object with a "flashcards" array; anything
// else yields a raw-text result.
func ParseResponse(raw string, logger *zap.Logger) GenerationResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	failed := GenerationResult{Raw: raw}

	candidate := extractObject(raw)
	if candidate == "" {
		logger.Warn("no JSON object found in generation response",
			zap.Int("response_len", len(raw)))
		return failed
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &envelope); err != nil {
		logger.Warn("generation response is not a JSON object", zap.Error(err))
		return failed
	}
	body, ok := envelope["flashcards"]
	if !ok {
		logger.Warn("generation response object has no flashcards key")
		return failed
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		logger.Warn("flashcards key is not an array", zap.Error(err))
		return failed
	}

	result := GenerationResult{
		Cards:  make([]flashcards.Card, 0, len(elements)),
		Raw:    raw,
		parsed: true,
	}
	for i, el := range elements {
		var card flashcards.Card
		if err := json.Unmarshal(el, &card); err != nil {
			logger.Warn("flashcard element is not an object",
				zap.Int("index", i), zap.Error(err))
			result.Flagged++
			continue
		}
		if card.Question == "" || card.Answer == "" {
			logger.Warn("flashcard element missing question or answer",
				zap.Int("index", i))
			result.Flagged++
			continue
		}
		result.Cards = append(result.Cards, card)
	}
	return result
}

// extractObject finds the most plausible JSON object text in a response.
func extractObject(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}
