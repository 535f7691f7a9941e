package flashcards

// Card is a single question/answer pair.
type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Set is one stored generation batch of cards, decoded from its document.
//
// The stored document's content is the JSON-encoded card array; metadata
// carries the tags reproduced here.
type Set struct {
	// DocumentID is the stored document's identifier.
	DocumentID string `json:"document_id"`

	// UserID is the raw (unsanitized) owner ID.
	UserID string `json:"user_id"`

	// Topic is the raw topic label the set was stored under.
	Topic string `json:"topic"`

	// CreationDate is the RFC 3339 UTC timestamp assigned at storage
	// time. Kept as a string: RFC 3339 sorts lexicographically.
	CreationDate string `json:"creation_date"`

	// Source records what produced the set (pipeline, on-demand API).
	Source string `json:"source"`

	// Cards holds the decoded question/answer pairs.
	Cards []Card `json:"flashcards"`
}
