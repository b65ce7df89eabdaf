package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

func TestConversationAppendOrder(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	conv, err := repos.Conversations.AddConversation(ctx, &core.Conversation{OwnerId: 1, Title: "chat"})
	if err != nil {
		t.Fatalf("Failed to add conversation: %v", err)
	}

	contents := []string{"first", "second", "third", "fourth"}
	for _, c := range contents {
		msgs := []*core.Message{{Role: core.RoleUser, Content: c}}
		if _, err := repos.Conversations.AppendMessages(ctx, conv.Id, msgs...); err != nil {
			t.Fatalf("Failed to append message: %v", err)
		}
	}

	msgs, err := repos.Conversations.GetMessages(ctx, conv.Id)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("Expected %d messages, got %d", len(contents), len(msgs))
	}
	for i, msg := range msgs {
		if msg.Content != contents[i] {
			t.Fatalf("Expected '%s' at position %d, got '%s'", contents[i], i, msg.Content)
		}
		if msg.OwnerId != 1 {
			t.Fatalf("Expected message to inherit conversation owner, got %d", msg.OwnerId)
		}
	}

	recent, err := repos.Conversations.GetRecentMessages(ctx, conv.Id, 2)
	if err != nil {
		t.Fatalf("Failed to get recent messages: %v", err)
	}
	if len(recent) != 2 || recent[0].Content != "third" || recent[1].Content != "fourth" {
		t.Fatalf("Expected last two messages in append order, got %v", recent)
	}
}

func TestAppendMessagesAdvancesUpdatedAt(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	conv, err := repos.Conversations.AddConversation(ctx, &core.Conversation{OwnerId: 1, Title: "chat"})
	if err != nil {
		t.Fatalf("Failed to add conversation: %v", err)
	}

	if _, err := repos.Conversations.AppendMessages(ctx, conv.Id, &core.Message{Role: core.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	after, err := repos.Conversations.GetConversation(ctx, conv.Id)
	if err != nil {
		t.Fatalf("Failed to get conversation: %v", err)
	}
	if after.UpdatedAt.Before(conv.InsertedAt) {
		t.Fatal("Expected UpdatedAt to advance on append")
	}

	if _, err := repos.Conversations.AppendMessages(ctx, 9999, &core.Message{Role: core.RoleUser, Content: "hi"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing conversation, got %v", err)
	}
}

func TestUpdateMessagesBackfillsVector(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	conv, err := repos.Conversations.AddConversation(ctx, &core.Conversation{OwnerId: 1, Title: "chat"})
	if err != nil {
		t.Fatalf("Failed to add conversation: %v", err)
	}
	msgs, err := repos.Conversations.AppendMessages(ctx, conv.Id, &core.Message{Role: core.RoleUser, Content: "embed me"})
	if err != nil {
		t.Fatalf("Failed to append message: %v", err)
	}

	msgs[0].Vector = []float32{0.5, 0.5}
	if _, err := repos.Conversations.UpdateMessages(ctx, msgs[0]); err != nil {
		t.Fatalf("Failed to update message: %v", err)
	}

	stored, err := repos.Conversations.GetMessages(ctx, conv.Id)
	if err != nil {
		t.Fatalf("Failed to get messages: %v", err)
	}
	if len(stored[0].Vector) != 2 {
		t.Fatalf("Expected backfilled vector, got %v", stored[0].Vector)
	}
}

func TestFindSimilarMessagesSkipsUnembedded(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	conv, err := repos.Conversations.AddConversation(ctx, &core.Conversation{OwnerId: 7, Title: "chat"})
	if err != nil {
		t.Fatalf("Failed to add conversation: %v", err)
	}

	_, err = repos.Conversations.AppendMessages(ctx, conv.Id,
		&core.Message{Role: core.RoleUser, Content: "embedded", Vector: []float32{1, 0}},
		&core.Message{Role: core.RoleUser, Content: "pending"},
	)
	if err != nil {
		t.Fatalf("Failed to append messages: %v", err)
	}

	results, scores, err := repos.Conversations.FindSimilarMessages(ctx, storage.VectorQuery{
		OwnerId:       7,
		Vector:        []float32{1, 0},
		MinSimilarity: 0.6,
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("Failed to find similar messages: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Content != "embedded" {
		t.Fatalf("Expected the embedded message, got '%s'", results[0].Content)
	}
	if scores[0] < 0.99 {
		t.Fatalf("Expected near-perfect similarity, got %f", scores[0])
	}
}

func TestNoteRoundTrip(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	note, err := repos.Notes.AddNote(ctx, &core.Note{
		OwnerId: 3,
		Title:   "Groceries",
		Content: "milk, eggs",
		Tags:    []string{"errands"},
		Vector:  []float32{0, 1},
	})
	if err != nil {
		t.Fatalf("Failed to add note: %v", err)
	}
	if note.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	note.Content = "milk, eggs, bread"
	if _, err := repos.Notes.UpdateNote(ctx, note); err != nil {
		t.Fatalf("Failed to update note: %v", err)
	}

	stored, err := repos.Notes.GetNote(ctx, note.Id)
	if err != nil {
		t.Fatalf("Failed to get note: %v", err)
	}
	if stored.Content != "milk, eggs, bread" {
		t.Fatalf("Expected updated content, got '%s'", stored.Content)
	}

	notes, err := repos.Notes.GetNotesByOwner(ctx, 3)
	if err != nil {
		t.Fatalf("Failed to list notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("Expected 1 note, got %d", len(notes))
	}

	if err := repos.Notes.DeleteNote(ctx, note.Id); err != nil {
		t.Fatalf("Failed to delete note: %v", err)
	}
	if _, err := repos.Notes.GetNote(ctx, note.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()

	if _, err := repos.Profiles.GetProfile(ctx, 5); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing profile, got %v", err)
	}

	profile := &core.Profile{OwnerId: 5, Interests: []string{"sailing"}, Concerns: []string{"deadlines"}}
	if err := repos.Profiles.PutProfile(ctx, profile); err != nil {
		t.Fatalf("Failed to put profile: %v", err)
	}

	stored, err := repos.Profiles.GetProfile(ctx, 5)
	if err != nil {
		t.Fatalf("Failed to get profile: %v", err)
	}
	if len(stored.Interests) != 1 || stored.Interests[0] != "sailing" {
		t.Fatalf("Expected interests to round-trip, got %v", stored.Interests)
	}
	if stored.UpdatedAt.IsZero() {
		t.Fatal("Expected UpdatedAt to be set")
	}
}
