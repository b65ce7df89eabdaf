package notes_test

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/notes"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownerId = core.ID(11)

func newTestService(t *testing.T) (*notes.Service, *badger.MemoryRepositories, *mock.MockEmbedder) {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	embedder := mock.NewMockEmbedder()
	svc, err := notes.NewService(repos.Notes, embedder)
	require.NoError(t, err)
	return svc, repos, embedder
}

func TestNewServiceValidation(t *testing.T) {
	_, err := notes.NewService(nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, notes.ErrNoteRepositoryRequired)

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = notes.NewService(repos.Notes, nil)
	assert.ErrorIs(t, err, notes.ErrEmbedderRequired)
}

func TestCreateEmbedsNote(t *testing.T) {
	svc, _, _ := newTestService(t)

	note, err := svc.Create(context.Background(), ownerId, "Allergies", "allergic to peanuts", []string{"health"})
	require.NoError(t, err)

	assert.NotZero(t, note.Id)
	assert.Len(t, note.Vector, 384)
	assert.Equal(t, core.IDFromContent(note.EmbeddingText()), note.Fingerprint)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 0, "title", "content", nil)
	assert.ErrorIs(t, err, core.ErrMissingOwner)

	_, err = svc.Create(context.Background(), ownerId, "", "content", nil)
	assert.ErrorIs(t, err, core.ErrEmptyTitle)
}

func TestCreateSurvivesEmbeddingFailure(t *testing.T) {
	svc, repos, embedder := newTestService(t)
	embedder.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	note, err := svc.Create(context.Background(), ownerId, "Unembedded", "content", nil)
	require.NoError(t, err, "creation must not depend on the embedding service")
	assert.Nil(t, note.Vector)
	assert.Zero(t, note.Fingerprint)

	stored, err := repos.Notes.GetNote(context.Background(), note.Id)
	require.NoError(t, err)
	assert.Nil(t, stored.Vector)
}

func TestUpdateRegeneratesStaleEmbedding(t *testing.T) {
	svc, _, embedder := newTestService(t)

	note, err := svc.Create(context.Background(), ownerId, "Travel", "visited Lisbon", nil)
	require.NoError(t, err)
	originalFingerprint := note.Fingerprint
	require.Equal(t, 1, embedder.CallCount())

	updated, err := svc.Update(context.Background(), note.Id, "Travel", "visited Lisbon and Porto", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, embedder.CallCount(), "content change must re-embed")
	assert.NotEqual(t, originalFingerprint, updated.Fingerprint)
	assert.Equal(t, core.IDFromContent(updated.EmbeddingText()), updated.Fingerprint)
}

func TestUpdateSkipsEmbeddingWhenTextUnchanged(t *testing.T) {
	svc, _, embedder := newTestService(t)

	note, err := svc.Create(context.Background(), ownerId, "Travel", "visited Lisbon", []string{"trips"})
	require.NoError(t, err)
	require.Equal(t, 1, embedder.CallCount())

	// Same title, content and tags: the embedded text is identical.
	updated, err := svc.Update(context.Background(), note.Id, "Travel", "visited Lisbon", []string{"trips"})
	require.NoError(t, err)

	assert.Equal(t, 1, embedder.CallCount(), "unchanged text must not re-embed")
	assert.Equal(t, note.Fingerprint, updated.Fingerprint)
}

func TestUpdateTagsChangeReembeds(t *testing.T) {
	svc, _, embedder := newTestService(t)

	note, err := svc.Create(context.Background(), ownerId, "Travel", "visited Lisbon", nil)
	require.NoError(t, err)

	// Tags feed the embedded text too.
	_, err = svc.Update(context.Background(), note.Id, "Travel", "visited Lisbon", []string{"trips"})
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestUpdateMissingNote(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), 999, "title", "content", nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteAndList(t *testing.T) {
	svc, _, _ := newTestService(t)

	first, err := svc.Create(context.Background(), ownerId, "First", "a", nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), ownerId, "Second", "b", nil)
	require.NoError(t, err)

	listed, err := svc.List(context.Background(), ownerId)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	require.NoError(t, svc.Delete(context.Background(), first.Id))

	listed, err = svc.List(context.Background(), ownerId)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Second", listed[0].Title)
}
