package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/chat"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/notes"
	"github.com/poiesic/recall/retrieval"
	"github.com/poiesic/recall/server"
	"github.com/poiesic/recall/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "5"

type fixture struct {
	srv   *server.Server
	repos *badger.MemoryRepositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	embedder := mock.NewMockEmbedder()

	pipeline, err := ingestion.NewPipeline(repos.Documents, embedder)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	noteService, err := notes.NewService(repos.Notes, embedder)
	require.NoError(t, err)

	retriever, err := retrieval.NewRetriever(repos.Documents, repos.Notes, repos.Conversations, embedder)
	require.NoError(t, err)

	orchestrator, err := chat.NewOrchestrator(
		repos.Conversations, repos.Profiles, retriever,
		mock.NewMockResponder(), embedder, mock.NewMockProfileExtractor())
	require.NoError(t, err)
	t.Cleanup(orchestrator.Release)

	srv, err := server.NewServer(
		repos.Documents, repos.Conversations, pipeline, noteService, orchestrator,
		t.TempDir())
	require.NoError(t, err)

	return &fixture{srv: srv, repos: repos}
}

func (f *fixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("X-User-Id", testUser)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func (f *fixture) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(body).Encode(payload))
	return f.do(t, method, path, body, "application/json")
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadRequiresUser(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartUpload(t, "a.txt", "hello", nil)
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	f := newFixture(t)
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("title", "no file"))
	require.NoError(t, w.Close())

	resp := f.do(t, http.MethodPost, "/documents", body, w.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadAndIngestDocument(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartUpload(t, "report.txt", "quarterly revenue grew in the third period", map[string]string{
		"title": "Q3 Report",
	})

	w := f.do(t, http.MethodPost, "/documents", body, ct)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var created struct {
		Id       uint64 `json:"id"`
		Title    string `json:"title"`
		FileType string `json:"fileType"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotZero(t, created.Id)
	assert.Equal(t, "Q3 Report", created.Title)
	assert.Equal(t, "txt", created.FileType)

	// Ingestion is detached; poll until the word count lands.
	path := fmt.Sprintf("/documents/%d", created.Id)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := f.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			WordCount int `json:"wordCount"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		if got.WordCount == 7 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("document was not ingested in time")
}

func TestGetDocumentNotFound(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/documents/12345", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentOwnershipHidesForeignRecords(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartUpload(t, "mine.txt", "private text here", nil)
	w := f.do(t, http.MethodPost, "/documents", body, ct)
	require.Equal(t, http.StatusAccepted, w.Code)

	var created struct {
		Id uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/documents/%d", created.Id), nil)
	req.Header.Set("X-User-Id", "99")
	other := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(other, req)
	assert.Equal(t, http.StatusNotFound, other.Code)
}

func TestNoteLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodPost, "/notes", map[string]any{
		"title":   "Allergies",
		"content": "allergic to peanuts",
		"tags":    []string{"health"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var note struct {
		Id       uint64 `json:"id"`
		Embedded bool   `json:"embedded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &note))
	assert.True(t, note.Embedded)

	w = f.doJSON(t, http.MethodPut, fmt.Sprintf("/notes/%d", note.Id), map[string]any{
		"title":   "Allergies",
		"content": "allergic to peanuts and shellfish",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/notes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Notes []struct {
			Content string `json:"content"`
		} `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Notes, 1)
	assert.Equal(t, "allergic to peanuts and shellfish", listed.Notes[0].Content)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/notes/%d", note.Id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/notes", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Empty(t, listed.Notes)
}

func TestNoteValidationError(t *testing.T) {
	f := newFixture(t)
	w := f.doJSON(t, http.MethodPost, "/notes", map[string]any{"content": "untitled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatTurnAndConversationFetch(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodPost, "/chat", map[string]any{
		"message": "hello there",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reply struct {
		ConversationId uint64 `json:"conversationId"`
		Reply          string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.NotZero(t, reply.ConversationId)
	assert.Equal(t, "You said: hello there", reply.Reply)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/conversations/%d", reply.ConversationId), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var conv struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "user", conv.Messages[0].Role)
	assert.Equal(t, "assistant", conv.Messages[1].Role)
}

func TestChatForeignConversationIsNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(t, http.MethodPost, "/chat", map[string]any{"message": "mine"})
	require.Equal(t, http.StatusOK, w.Code)
	var reply struct {
		ConversationId uint64 `json:"conversationId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))

	body := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(body).Encode(map[string]any{
		"conversationId": reply.ConversationId,
		"message":        "what did we discuss?",
	}))
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("X-User-Id", "99")
	req.Header.Set("Content-Type", "application/json")
	other := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(other, req)
	assert.Equal(t, http.StatusNotFound, other.Code)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	w := f.doJSON(t, http.MethodPost, "/chat", map[string]any{"message": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
