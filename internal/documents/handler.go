package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"attachments-backend/internal/shared/metrics"
	"attachments-backend/internal/shared/server/middleware"
	"attachments-backend/internal/shared/server/respond"
)

const maxUploadSize = 50 << 20 // 50MB per batch

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.store)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id/download", h.download)
	rg.DELETE("/documents/:id", h.destroy)
}

func (h *Handler) store(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form required", nil)
		return
	}

	documentableType := c.PostForm("documentable_type")
	documentableID := c.PostForm("documentable_id")
	if documentableType == "" || documentableID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentable_type and documentable_id are required", nil)
		return
	}
	c.Set("documentableType", documentableType)
	c.Set("documentableId", documentableID)

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one file is required", nil)
		return
	}

	files := make([]UploadedFile, 0, len(fileHeaders))
	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", fmt.Sprintf("unable to read file %s", fh.Filename), nil)
			return
		}
		opened = append(opened, f)
		files = append(files, UploadedFile{Name: fh.Filename, Content: f})
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	docs, err := h.Svc.StoreBatch(ctx, userID, documentableType, documentableID, files)
	if err != nil {
		var dup *DuplicateError
		switch {
		case errors.As(err, &dup):
			respond.Error(c, http.StatusConflict, "duplicate_files", dup.Error(), gin.H{"conflicting": dup.Names})
		case errors.Is(err, ErrOwnerNotFound):
			respond.Error(c, http.StatusNotFound, "owner_not_found", err.Error(), nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store documents", nil)
		}
		return
	}

	metrics.AddDocumentsStored(len(docs))
	respond.JSON(c, http.StatusCreated, toResponses(docs))
}

func (h *Handler) list(c *gin.Context) {
	q := Query{
		DocumentableType: c.Query("documentable_type"),
		DocumentableID:   c.Query("documentable_id"),
		Search:           c.Query("search"),
	}

	docs, err := h.Svc.List(c.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, toResponses(docs))
}

func (h *Handler) download(c *gin.Context) {
	user := userFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	doc, body, err := h.Svc.Download(c.Request.Context(), user, documentID)
	if err != nil {
		respondActionError(c, err, "failed to download document")
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.File.OriginalName))
	c.Header("Content-Type", doc.File.MimeType)
	if doc.File.SizeBytes > 0 {
		c.Header("Content-Length", fmt.Sprintf("%d", doc.File.SizeBytes))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		// Headers are already out; nothing left to do but log.
		c.Error(err)
	}
}

func (h *Handler) destroy(c *gin.Context) {
	user := userFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	if err := h.Svc.Destroy(c.Request.Context(), user, documentID); err != nil {
		respondActionError(c, err, "failed to delete document")
		return
	}

	c.Status(http.StatusNoContent)
}

func respondActionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "access denied", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func userFromContext(c *gin.Context) User {
	return User{
		ID:   middleware.UserIDFromContext(c),
		Role: middleware.UserRoleFromContext(c),
	}
}
