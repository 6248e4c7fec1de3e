package handler

import (
	"solarops/internal/domain"
)

// Swagger type definitions for API documentation.

// ProcessTextRequest is the body for POST /records.
type ProcessTextRequest struct {
	Filename string `json:"filename" binding:"required" example:"install-0042.pdf"`
	Text     string `json:"text" example:"Customer Name: Priya Raman\nInstall Date: 03/14/2024"`
}

// OverrideRequest is the body for POST /records/{filename}/override.
type OverrideRequest struct {
	NewStatus string `json:"new_status" form:"new_status" example:"approved"`
	Reviewer  string `json:"reviewer" form:"reviewer" example:"alice"`
	Comment   string `json:"comment" form:"comment" example:"Serial numbers confirmed with installer"`
}

// AuditResponse wraps a record's audit trail.
type AuditResponse struct {
	Filename   string              `json:"filename" example:"install-0042.pdf"`
	AuditTrail []domain.AuditEntry `json:"audit_trail"`
}

// DocumentURLResponse carries a temporary download link.
type DocumentURLResponse struct {
	URL string `json:"url" example:"https://bucket.s3.amazonaws.com/paperwork/install-0042.pdf?X-Amz-Signature=..."`
}

// Response is the success envelope used in swagger annotations.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody is the error envelope used in swagger annotations.
type ErrorResponseBody struct {
	Success bool     `json:"success" example:"false"`
	Error   APIError `json:"error"`
}
