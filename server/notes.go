package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/recall/core"
)

type noteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type noteResponse struct {
	Id         core.ID   `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags,omitempty"`
	Embedded   bool      `json:"embedded"`
	InsertedAt time.Time `json:"insertedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toNoteResponse(note *core.Note) noteResponse {
	return noteResponse{
		Id:         note.Id,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       note.Tags,
		Embedded:   len(note.Vector) > 0,
		InsertedAt: note.InsertedAt,
		UpdatedAt:  note.UpdatedAt,
	}
}

func (s *Server) handleCreateNote(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "invalid request body",
		})
		return
	}

	note, err := s.notes.Create(c.Request.Context(), userId, req.Title, req.Content, req.Tags)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toNoteResponse(note))
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_input",
			"message":    "invalid request body",
		})
		return
	}

	existing, err := s.notes.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if existing.OwnerId != userId {
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "not_found",
			"message":    "record not found",
		})
		return
	}

	note, err := s.notes.Update(c.Request.Context(), id, req.Title, req.Content, req.Tags)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNoteResponse(note))
}

func (s *Server) handleListNotes(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}

	listed, err := s.notes.List(c.Request.Context(), userId)
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]noteResponse, len(listed))
	for i, note := range listed {
		out[i] = toNoteResponse(note)
	}
	c.JSON(http.StatusOK, gin.H{"notes": out})
}

func (s *Server) handleDeleteNote(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	existing, err := s.notes.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if existing.OwnerId != userId {
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "not_found",
			"message":    "record not found",
		})
		return
	}

	if err := s.notes.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
