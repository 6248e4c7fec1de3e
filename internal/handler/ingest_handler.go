package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"solarops/internal/service"
)

// IngestHandler handles document upload and text processing endpoints.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// Upload handles POST /api/v1/uploads
// @Summary Upload a paperwork document
// @Description Store a document (PDF, JPG, PNG or TXT), extract its text and fields, validate it and create a pending record
// @Tags records
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Installation paperwork"
// @Success 201 {object} Response{data=service.IngestResult} "Document processed"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 409 {object} ErrorResponseBody "Record already exists"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "Text could not be acquired"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Router /uploads [post]
func (h *IngestHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.ingestService.Upload(c.Request.Context(), service.UploadInput{
		Filename:    header.Filename,
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result)
}

// Process handles POST /api/v1/records
// @Summary Process already-extracted text
// @Description Run extraction, validation and suggestion over supplied text and create a pending record
// @Tags records
// @Accept json
// @Produce json
// @Param body body ProcessTextRequest true "Filename and document text"
// @Success 201 {object} Response{data=service.IngestResult} "Record created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 409 {object} ErrorResponseBody "Record already exists"
// @Router /records [post]
func (h *IngestHandler) Process(c *gin.Context) {
	var req ProcessTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "filename is required")
		return
	}

	result, err := h.ingestService.Process(c.Request.Context(), req.Filename, req.Text)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result)
}
