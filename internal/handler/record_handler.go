package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solarops/internal/domain"
	"solarops/internal/export"
	"solarops/internal/service"
)

const exportPageSize = 500

// RecordHandler handles record review, audit and reporting endpoints.
type RecordHandler struct {
	reviewService service.ReviewService
	ingestService service.IngestService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(reviewService service.ReviewService, ingestService service.IngestService) *RecordHandler {
	return &RecordHandler{reviewService: reviewService, ingestService: ingestService}
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func parseFilter(c *gin.Context) (domain.RecordFilter, bool) {
	filter := domain.RecordFilter{Status: domain.ReviewStatus(strings.TrimSpace(c.Query("status")))}
	if v := c.Query("valid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "valid must be true or false")
			return filter, false
		}
		filter.Valid = &b
	}
	return filter, true
}

// List handles GET /api/v1/records
// @Summary List records
// @Description List processed records, newest first
// @Tags records
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Param status query string false "Filter by review status"
// @Param valid query bool false "Filter by validation outcome"
// @Success 200 {object} Response{data=[]domain.Record,meta=PagMeta} "List of records"
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Router /records [get]
func (h *RecordHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	records, total, err := h.reviewService.List(c.Request.Context(), filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	if records == nil {
		records = []domain.Record{}
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/records/:filename
// @Summary Get a record
// @Tags records
// @Produce json
// @Param filename path string true "Document filename"
// @Success 200 {object} Response{data=domain.Record} "Record"
// @Failure 404 {object} ErrorResponseBody "Record not found"
// @Router /records/{filename} [get]
func (h *RecordHandler) Get(c *gin.Context) {
	rec, err := h.reviewService.Get(c.Request.Context(), c.Param("filename"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// Audit handles GET /api/v1/records/:filename/audit
// @Summary Get the override audit trail
// @Tags records
// @Produce json
// @Param filename path string true "Document filename"
// @Success 200 {object} Response{data=AuditResponse} "Audit trail, oldest first"
// @Failure 404 {object} ErrorResponseBody "Record not found"
// @Router /records/{filename}/audit [get]
func (h *RecordHandler) Audit(c *gin.Context) {
	filename := c.Param("filename")
	entries, err := h.reviewService.Audit(c.Request.Context(), filename)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, AuditResponse{Filename: filename, AuditTrail: entries})
}

// Document handles GET /api/v1/records/:filename/document
// @Summary Get a download URL for the stored document
// @Tags records
// @Produce json
// @Param filename path string true "Document filename"
// @Success 200 {object} Response{data=DocumentURLResponse} "Presigned URL"
// @Failure 404 {object} ErrorResponseBody "Record not found"
// @Router /records/{filename}/document [get]
func (h *RecordHandler) Document(c *gin.Context) {
	url, err := h.ingestService.DocumentURL(c.Request.Context(), c.Param("filename"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, DocumentURLResponse{URL: url})
}

// Override handles POST /api/v1/records/:filename/override
// @Summary Override a record's review status
// @Description Set a new status, record the reviewer and append an audit entry. Accepts JSON or form data.
// @Tags records
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param filename path string true "Document filename"
// @Param body body OverrideRequest true "Override details"
// @Success 200 {object} Response{data=domain.Record} "Updated record"
// @Failure 400 {object} ErrorResponseBody "Missing status or reviewer"
// @Failure 404 {object} ErrorResponseBody "Record not found"
// @Failure 409 {object} ErrorResponseBody "Transition not allowed"
// @Router /records/{filename}/override [post]
func (h *RecordHandler) Override(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid override body")
		return
	}
	req.NewStatus = strings.TrimSpace(req.NewStatus)
	req.Reviewer = strings.TrimSpace(req.Reviewer)
	if req.NewStatus == "" || req.Reviewer == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "new_status and reviewer are required")
		return
	}

	rec, err := h.reviewService.Override(c.Request.Context(), service.OverrideInput{
		Filename:  c.Param("filename"),
		NewStatus: domain.ReviewStatus(req.NewStatus),
		Reviewer:  req.Reviewer,
		Comment:   req.Comment,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

// Stats handles GET /api/v1/stats
// @Summary Record totals
// @Tags records
// @Produce json
// @Success 200 {object} Response{data=domain.Stats} "Totals"
// @Router /stats [get]
func (h *RecordHandler) Stats(c *gin.Context) {
	stats, err := h.reviewService.Stats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stats)
}

// Export handles GET /api/v1/records/export
// @Summary Export records
// @Description Download every record matching the filter as CSV or XLSX
// @Tags records
// @Produce text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv or xlsx" default(csv)
// @Param status query string false "Filter by review status"
// @Param valid query bool false "Filter by validation outcome"
// @Success 200 {file} file "Export file"
// @Failure 400 {object} ErrorResponseBody "Unknown format"
// @Router /records/export [get]
func (h *RecordHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	// Read the first page before committing to a 200 so store errors still get an envelope.
	ctx := c.Request.Context()
	page, total, err := h.reviewService.List(ctx, filter, 0, exportPageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", export.ContentType(format))
	c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename("solarops_records", format, time.Now())+`"`)
	c.Status(http.StatusOK)

	w, err := export.New(format, c.Writer)
	if err != nil {
		zap.L().Error("recordHandler.Export: creating writer", zap.Error(err))
		return
	}
	if err := w.WriteHeader(); err != nil {
		zap.L().Error("recordHandler.Export: writing header", zap.Error(err))
		return
	}

	for offset := 0; ; {
		if err := w.WriteRecords(page); err != nil {
			zap.L().Error("recordHandler.Export: writing rows", zap.Error(err))
			return
		}
		offset += len(page)
		if len(page) == 0 || offset >= total {
			break
		}
		page, _, err = h.reviewService.List(ctx, filter, offset, exportPageSize)
		if err != nil {
			zap.L().Error("recordHandler.Export: listing records", zap.Int("offset", offset), zap.Error(err))
			return
		}
	}

	if err := w.Close(); err != nil {
		zap.L().Error("recordHandler.Export: finalising export", zap.Error(err))
	}
}
