// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/recall/chat"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/notes"
	"github.com/poiesic/recall/storage"
)

// DefaultMaxFileSize caps document uploads at 32 MiB.
const DefaultMaxFileSize = 32 << 20

// userIdHeader carries the gateway-authenticated user id. There is no auth
// here; identity is the upstream gateway's problem.
const userIdHeader = "X-User-Id"

// Server is the HTTP surface over the document, note and chat services.
type Server struct {
	router *gin.Engine

	documents    storage.DocumentRepository
	convs        storage.ConversationRepository
	pipeline     *ingestion.Pipeline
	notes        *notes.Service
	orchestrator *chat.Orchestrator

	storageDir  string
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithMaxFileSize caps upload sizes in bytes.
// Default is DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(s *Server) error {
		if size > 0 {
			s.maxFileSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer wires the HTTP routes. storageDir is where upload blobs are
// kept.
func NewServer(
	documents storage.DocumentRepository,
	convs storage.ConversationRepository,
	pipeline *ingestion.Pipeline,
	noteService *notes.Service,
	orchestrator *chat.Orchestrator,
	storageDir string,
	opts ...Option,
) (*Server, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if convs == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if noteService == nil {
		return nil, ErrNoteServiceRequired
	}
	if orchestrator == nil {
		return nil, ErrOrchestratorRequired
	}
	if storageDir == "" {
		return nil, ErrStorageDirRequired
	}

	s := &Server{
		documents:    documents,
		convs:        convs,
		pipeline:     pipeline,
		notes:        noteService,
		orchestrator: orchestrator,
		storageDir:   storageDir,
		maxFileSize:  DefaultMaxFileSize,
		logger:       slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST("/documents", s.handleUploadDocument)
	s.router.GET("/documents", s.handleListDocuments)
	s.router.GET("/documents/:id", s.handleGetDocument)
	s.router.DELETE("/documents/:id", s.handleDeleteDocument)

	s.router.POST("/chat", s.handleChat)
	s.router.GET("/conversations/:id", s.handleGetConversation)

	s.router.POST("/notes", s.handleCreateNote)
	s.router.GET("/notes", s.handleListNotes)
	s.router.PUT("/notes/:id", s.handleUpdateNote)
	s.router.DELETE("/notes/:id", s.handleDeleteNote)
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.router.Run(addr)
}

// userIdFrom reads the gateway-supplied user id, replying 401 when absent
// or malformed. The bool reports whether the request may proceed.
func (s *Server) userIdFrom(c *gin.Context) (core.ID, bool) {
	raw := c.GetHeader(userIdHeader)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error_code": "missing_user",
			"message":    "valid " + userIdHeader + " header required",
		})
		return 0, false
	}
	return core.ID(id), true
}

// pathID parses the :id route parameter, replying 400 on garbage.
func (s *Server) pathID(c *gin.Context) (core.ID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_id",
			"message":    "id must be a positive integer",
		})
		return 0, false
	}
	return core.ID(id), true
}
