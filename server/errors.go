package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrConversationRepositoryRequired is returned when a conversation repository is not provided.
	ErrConversationRepositoryRequired = errors.New("conversation repository required")

	// ErrPipelineRequired is returned when an ingestion pipeline is not provided.
	ErrPipelineRequired = errors.New("ingestion pipeline required")

	// ErrNoteServiceRequired is returned when a note service is not provided.
	ErrNoteServiceRequired = errors.New("note service required")

	// ErrOrchestratorRequired is returned when a chat orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("chat orchestrator required")

	// ErrStorageDirRequired is returned when the blob storage directory is not provided.
	ErrStorageDirRequired = errors.New("storage directory required")
)

// respondError maps domain errors to HTTP status codes: not-found to 404,
// validation failures to 400, everything else to 500.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "not_found",
			"message":    "record not found",
		})
	case errors.Is(err, core.ErrInvalidDocument),
		errors.Is(err, core.ErrInvalidNote),
		errors.Is(err, core.ErrInvalidMessage):
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    err.Error(),
		})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "internal_error",
			"message":    "internal error",
		})
	}
}
