package agent

import (
	"fmt"
	"strings"
)

// Prompt builders for the three agent roles. Each folds the role
// description and per-call payload into a single prompt, since the
// capability is a single text-in text-out operation.

// ProfilePrompt asks the model to identify a user's learning interests
// from their collected documents.
func ProfilePrompt(documents string) string {
	var b strings.Builder
	b.WriteString("You are an expert at analyzing user content to build learning profiles.\n")
	b.WriteString("Analyze the following documents collected for a single user and identify ")
	b.WriteString("the main topics and subjects this user is interested in learning about.\n")
	b.WriteString("Focus on recurring themes, technical subjects, and areas of curiosity.\n")
	b.WriteString("Respond with a concise summary of the user's key learning interests.\n\n")
	b.WriteString("User documents:\n\n")
	b.WriteString(documents)
	return b.String()
}

// ResearchPrompt asks the model to gather educational content about the
// given comma-separated topics.
func ResearchPrompt(topics string) string {
	var b strings.Builder
	b.WriteString("You are a research assistant gathering educational material.\n")
	b.WriteString("Research the following topics and produce a detailed, factual summary ")
	b.WriteString("suitable for creating study material: key concepts, definitions, ")
	b.WriteString("important facts, and relationships between ideas.\n\n")
	fmt.Fprintf(&b, "Topics: %s\n", topics)
	return b.String()
}

// FlashcardPrompt asks the model to turn researched content into a JSON
// object holding a flashcards array. The output contract is load-bearing:
// ParseResponse expects exactly this shape.
func FlashcardPrompt(content string, maxCards int) string {
	var b strings.Builder
	b.WriteString("You are an expert flashcard creator.\n")
	fmt.Fprintf(&b, "Create up to %d question-and-answer flashcards from the content below.\n", maxCards)
	b.WriteString("Each flashcard tests understanding of a single concept.\n\n")
	b.WriteString("Respond with ONLY a JSON object in exactly this format:\n")
	b.WriteString(`{"flashcards": [{"question": "...", "answer": "..."}]}`)
	b.WriteString("\n\nDo not include any text outside the JSON object.\n\n")
	b.WriteString("Content:\n\n")
	b.WriteString(content)
	return b.String()
}
