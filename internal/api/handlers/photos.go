package handlers

import (
	"context"
	"io"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/your-org/casetrack/internal/storage"
	"github.com/your-org/casetrack/internal/workflow"
	"github.com/your-org/casetrack/pkg/dto"
)

const maxPhotoBytes = 10 << 20

// PhotoStore is the object storage used for case and submission photos.
type PhotoStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, string, error)
	ListPhotos(ctx context.Context, owner storage.PhotoOwner, ownerID string) ([]string, error)
	DeletePhoto(ctx context.Context, owner storage.PhotoOwner, ownerID, name string) error
}

type PhotoHandler struct {
	engine *workflow.Engine
	photos PhotoStore
}

// NewPhotoHandler returns a handler that answers 503 when photos is nil.
func NewPhotoHandler(engine *workflow.Engine, photos PhotoStore) *PhotoHandler {
	return &PhotoHandler{engine: engine, photos: photos}
}

// ownerExists resolves the path id against the case or submission table.
func (h *PhotoHandler) ownerExists(c *gin.Context, owner storage.PhotoOwner, id string) bool {
	var err error
	switch owner {
	case storage.PhotoOwnerCase:
		_, err = h.engine.GetCase(c.Request.Context(), id)
	default:
		_, err = h.engine.GetSubmission(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, err)
		return false
	}
	return true
}

func (h *PhotoHandler) available(c *gin.Context) bool {
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "photo storage not configured"})
		return false
	}
	return true
}

// Upload returns a handler storing a multipart "image" under the owner prefix.
func (h *PhotoHandler) Upload(owner storage.PhotoOwner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.available(c) {
			return
		}
		id := c.Param("id")
		if !h.ownerExists(c, owner, id) {
			return
		}

		file, header, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "image file required", Kind: "validation"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "read image failed"})
			return
		}
		if len(data) > maxPhotoBytes {
			c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "image too large", Kind: "validation"})
			return
		}

		key := storage.PhotoKey(owner, id, header.Filename)
		if err := h.photos.PutObject(c.Request.Context(), key, data, header.Header.Get("Content-Type")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.PhotoResponse{Key: key, Name: path.Base(key)})
	}
}

func (h *PhotoHandler) List(owner storage.PhotoOwner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.available(c) {
			return
		}
		id := c.Param("id")
		if !h.ownerExists(c, owner, id) {
			return
		}
		names, err := h.photos.ListPhotos(c.Request.Context(), owner, id)
		if err != nil {
			respondError(c, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		c.JSON(http.StatusOK, dto.PhotoListResponse{Photos: names, Total: len(names)})
	}
}

func (h *PhotoHandler) Download(owner storage.PhotoOwner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.available(c) {
			return
		}
		id := c.Param("id")
		data, contentType, err := h.photos.GetObject(c.Request.Context(), storage.PhotoKey(owner, id, c.Param("name")))
		if err != nil {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "photo not found", Kind: "not_found"})
			return
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

// Delete removes a photo from an existing case or submission.
func (h *PhotoHandler) Delete(owner storage.PhotoOwner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.available(c) {
			return
		}
		id := c.Param("id")
		if !h.ownerExists(c, owner, id) {
			return
		}
		if err := h.photos.DeletePhoto(c.Request.Context(), owner, id, c.Param("name")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
