// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stocktrack/internal/core/entity"
)

// --- List queries ---

// ListQuery contains common list parameters.
type ListQuery struct {
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
	OrderBy string `form:"orderBy"`
	Desc    bool   `form:"desc"`
}

// ListResponse wraps list results with paging metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// --- Document header ---

// DocumentHeader contains the fields shared by all document responses.
type DocumentHeader struct {
	ID        string     `json:"id"`
	Number    string     `json:"number"`
	Status    string     `json:"status"`
	Date      *time.Time `json:"date,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Version   int        `json:"version"`
}

func headerFromDocument(d entity.Document) DocumentHeader {
	return DocumentHeader{
		ID:        d.ID.String(),
		Number:    d.Number,
		Status:    string(d.Status),
		Date:      d.Date,
		Notes:     d.Notes,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Version:   d.Version,
	}
}

// SetStatusRequest moves a document to a new workflow status.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
