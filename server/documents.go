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
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poiesic/recall/core"
)

type documentResponse struct {
	Id           core.ID   `json:"id"`
	Title        string    `json:"title"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	WordCount    int       `json:"wordCount"`
	PageCount    int       `json:"pageCount"`
	CollectionId core.ID   `json:"collectionId,omitempty"`
	InsertedAt   time.Time `json:"insertedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toDocumentResponse(doc *core.Document) documentResponse {
	return documentResponse{
		Id:           doc.Id,
		Title:        doc.Title,
		FileType:     doc.FileType,
		FileSize:     doc.FileSize,
		WordCount:    doc.WordCount,
		PageCount:    doc.PageCount,
		CollectionId: doc.CollectionId,
		InsertedAt:   doc.InsertedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// handleUploadDocument accepts a multipart upload, stores the blob, creates
// the document record and hands the bytes to the detached ingestion
// pipeline. It replies 202: extraction and embedding happen after the
// response.
func (s *Server) handleUploadDocument(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(s.maxFileSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "file_too_large",
			"message":    "file size exceeds maximum limit",
		})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "no_file",
			"message":    "no file provided",
		})
		return
	}
	defer file.Close()

	if header.Size > s.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "file_too_large",
			"message":    "file size exceeds maximum limit",
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxFileSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_file",
			"message":    "cannot read uploaded file",
		})
		return
	}

	fileType := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	title := c.PostForm("title")
	if title == "" {
		title = header.Filename
	}

	var collectionId core.ID
	if raw := c.PostForm("collectionId"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error_code": "invalid_collection",
				"message":    "collectionId must be a positive integer",
			})
			return
		}
		collectionId = core.ID(parsed)
	}

	blobPath, err := s.storeBlob(data, fileType)
	if err != nil {
		s.respondError(c, err)
		return
	}

	doc := &core.Document{
		OwnerId:      userId,
		Title:        title,
		FileType:     fileType,
		StoragePath:  blobPath,
		FileSize:     int64(len(data)),
		CollectionId: collectionId,
	}
	if err := core.ValidateDocument(doc); err != nil {
		s.respondError(c, err)
		return
	}

	doc, err = s.documents.AddDocument(c.Request.Context(), doc)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.pipeline.Ingest(doc.Id, data); err != nil {
		// The record exists; ingestion can be retried out of band.
		s.logger.Warn("error submitting document for ingestion",
			"documentId", doc.Id, "err", err)
	}

	c.JSON(http.StatusAccepted, toDocumentResponse(doc))
}

// storeBlob writes the upload under a fresh random name.
func (s *Server) storeBlob(data []byte, fileType string) (string, error) {
	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString()
	if fileType != "" {
		name += "." + fileType
	}
	path := filepath.Join(s.storageDir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Server) handleListDocuments(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}

	docs, err := s.documents.GetDocumentsByOwner(c.Request.Context(), userId)
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]documentResponse, len(docs))
	for i, doc := range docs {
		out[i] = toDocumentResponse(doc)
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	doc, err := s.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if doc.OwnerId != userId {
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "not_found",
			"message":    "record not found",
		})
		return
	}
	c.JSON(http.StatusOK, toDocumentResponse(doc))
}

// handleDeleteDocument removes the document, its chunks and its stored
// blob.
func (s *Server) handleDeleteDocument(c *gin.Context) {
	userId, ok := s.userIdFrom(c)
	if !ok {
		return
	}
	id, ok := s.pathID(c)
	if !ok {
		return
	}

	doc, err := s.documents.GetDocument(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if doc.OwnerId != userId {
		c.JSON(http.StatusNotFound, gin.H{
			"error_code": "not_found",
			"message":    "record not found",
		})
		return
	}

	if err := s.documents.DeleteDocument(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	if doc.StoragePath != "" {
		if err := os.Remove(doc.StoragePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("error removing blob", "path", doc.StoragePath, "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
