package flashcards

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhavp4/kompow/internal/knowledge"
)

const testUser = "alice@example.com"

func withClock(t *testing.T, at time.Time) {
	t.Helper()
	orig := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = orig })
}

func TestStoreSet_RejectsInvalidPayload(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "not JSON", payload: "not json at all"},
		{name: "object not array", payload: `{"question":"Q","answer":"A"}`},
		{name: "truncated", payload: `[{"question":"Q"`},
		{name: "bare string", payload: `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.StoreSet(ctx, col, testUser, "Topic", []byte(tt.payload), "test")
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}

	// Nothing reached storage.
	assert.Equal(t, 0, col.Count())
}

func TestStoreSet_DocumentShape(t *testing.T) {
	withClock(t, time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	payload := `[{"question":"Q","answer":"A"}]`
	require.NoError(t, repo.StoreSet(ctx, col, testUser, "Cell Biology", []byte(payload), "unit_test"))

	docs := col.Search(ctx, "", 10)
	require.Len(t, docs, 1)
	doc := docs[0]

	assert.Regexp(t, `^flashcards_alice_example_com_cell_biology_\d+$`, doc.ID)
	assert.Equal(t, payload, doc.Content)
	assert.Equal(t, DocType, doc.Metadata["doc_type"])
	assert.Equal(t, "Cell Biology", doc.Metadata["topic"])
	assert.Equal(t, "2026-03-14T09:26:53Z", doc.Metadata["creation_date"])
	assert.Equal(t, "unit_test", doc.Metadata["source"])
	assert.Equal(t, testUser, doc.Metadata["user_id"])
}

func TestStoreSet_TimestampKeepsRapidStoresUnique(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		withClock(t, base.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, repo.StoreSet(ctx, col, testUser, "Same Topic", []byte(`[]`), "test"))
	}

	assert.Equal(t, 3, col.Count())
}

func TestRetrieveSets_RoundTrip(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	payload := `[{"question":"Q","answer":"A"}]`
	require.NoError(t, repo.StoreSet(ctx, col, testUser, "Cell Biology", []byte(payload), "unit_test"))

	sets := repo.RetrieveSets(ctx, col, testUser, "Cell Biology", 10)
	require.Len(t, sets, 1)

	got := sets[0]
	assert.Equal(t, "Cell Biology", got.Topic)
	assert.Equal(t, testUser, got.UserID)
	assert.Equal(t, "unit_test", got.Source)
	assert.Equal(t, []Card{{Question: "Q", Answer: "A"}}, got.Cards)
}

func TestRetrieveSets_FiltersByUserAndTopicAndDocType(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	require.NoError(t, repo.StoreSet(ctx, col, testUser, "Biology", []byte(`[{"question":"Q1","answer":"A1"}]`), "t"))
	require.NoError(t, repo.StoreSet(ctx, col, testUser, "History", []byte(`[{"question":"Q2","answer":"A2"}]`), "t"))
	require.NoError(t, repo.StoreSet(ctx, col, "bob@example.com", "Biology", []byte(`[{"question":"Q3","answer":"A3"}]`), "t"))

	// A non-flashcard document sharing the collection must be ignored.
	require.NoError(t, col.Add(ctx, knowledge.Document{
		ID:       "note1",
		Content:  "plain note about biology",
		Metadata: map[string]string{"user_id": testUser},
	}))

	byTopic := repo.RetrieveSets(ctx, col, testUser, "Biology", 10)
	require.Len(t, byTopic, 1)
	assert.Equal(t, "Q1", byTopic[0].Cards[0].Question)

	all := repo.RetrieveSets(ctx, col, testUser, "", 10)
	assert.Len(t, all, 2)
}

func TestRetrieveSets_NewestFirst(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	questions := []string{"middle", "newest", "oldest"}

	for i, at := range times {
		withClock(t, at)
		payload, err := json.Marshal([]Card{{Question: questions[i], Answer: "A"}})
		require.NoError(t, err)
		require.NoError(t, repo.StoreSet(ctx, col, testUser, "Topic", payload, "t"))
	}

	sets := repo.RetrieveSets(ctx, col, testUser, "Topic", 10)
	require.Len(t, sets, 3)
	assert.Equal(t, "newest", sets[0].Cards[0].Question)
	assert.Equal(t, "middle", sets[1].Cards[0].Question)
	assert.Equal(t, "oldest", sets[2].Cards[0].Question)
}

func TestRetrieveSets_DegradedReturnsEmpty(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, true)
	ctx := context.Background()

	// The degraded backend accepts the best-effort write.
	require.NoError(t, repo.StoreSet(ctx, col, testUser, "Topic", []byte(`[{"question":"Q","answer":"A"}]`), "t"))
	require.Equal(t, 1, col.Count())

	// But the set is unretrievable: search requires an embedder.
	assert.Empty(t, repo.RetrieveSets(ctx, col, testUser, "Topic", 10))
	assert.Empty(t, repo.ListTopics(ctx, col, testUser))
}

func TestRetrieveSets_OverfetchWindowMiss(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	// Bury one flashcard set behind 15 unrelated documents that the
	// backend ranks ahead of it. With limit 1 the overfetch window is 10
	// candidates, all filler: the set ranks outside the window and is
	// lost to retrieval. This is the documented approximation of metadata
	// filtering via semantic search.
	for i := 0; i < 15; i++ {
		require.NoError(t, col.Add(ctx, knowledge.Document{
			Content:  string(rune('a'+i)) + " filler document",
			Metadata: map[string]string{"doc_type": "note"},
		}))
	}
	require.NoError(t, repo.StoreSet(ctx, col, testUser, "Buried", []byte(`[{"question":"Q","answer":"A"}]`), "t"))

	assert.Empty(t, repo.RetrieveSets(ctx, col, testUser, "Buried", 1),
		"a set outside the overfetch window is not retrievable")

	assert.Len(t, repo.RetrieveSets(ctx, col, testUser, "Buried", 2), 1,
		"a wider overfetch window recovers the set")
}

func TestRetrieveSets_SkipsCorruptContent(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	require.NoError(t, col.Add(ctx, knowledge.Document{
		ID:      "corrupt",
		Content: "{not an array",
		Metadata: map[string]string{
			"doc_type": DocType,
			"user_id":  testUser,
			"topic":    "Topic",
		},
	}))
	require.NoError(t, repo.StoreSet(ctx, col, testUser, "Topic", []byte(`[{"question":"Q","answer":"A"}]`), "t"))

	sets := repo.RetrieveSets(ctx, col, testUser, "Topic", 10)
	require.Len(t, sets, 1)
	assert.Equal(t, "Q", sets[0].Cards[0].Question)
}

func TestRetrieveSets_DropsIncompleteCards(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	payload := `[{"question":"Q1","answer":"A1"},{"question":"only question"},{"answer":"only answer"}]`
	require.NoError(t, repo.StoreSet(ctx, col, testUser, "Topic", []byte(payload), "t"))

	sets := repo.RetrieveSets(ctx, col, testUser, "Topic", 10)
	require.Len(t, sets, 1)
	assert.Equal(t, []Card{{Question: "Q1", Answer: "A1"}}, sets[0].Cards)
}

func TestListTopics(t *testing.T) {
	repo := NewRepository(nil)
	col := knowledge.NewMemCollection(testUser, false)
	ctx := context.Background()

	for _, topic := range []string{"World History", "Biology", "Biology", "Algebra"} {
		require.NoError(t, repo.StoreSet(ctx, col, testUser, topic, []byte(`[{"question":"Q","answer":"A"}]`), "t"))
	}

	topics := repo.ListTopics(ctx, col, testUser)
	assert.Equal(t, []string{"Algebra", "Biology", "World History"}, topics)
}
