package dto

import (
	"time"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain/documents/adjustment"
)

// --- Request DTOs ---

// CreateAdjustmentRequest represents a request to correct a stock balance
// to a physically counted quantity.
type CreateAdjustmentRequest struct {
	ProductID        string         `json:"productId" binding:"required"`
	WarehouseID      string         `json:"warehouseId" binding:"required"`
	PhysicalQuantity types.Quantity `json:"physicalQuantity"`
	Date             *time.Time     `json:"date,omitempty"`
	Reason           string         `json:"reason,omitempty"`
	ValidateNow      bool           `json:"validateNow,omitempty"`
}

// ToInput converts the request to service input.
func (r *CreateAdjustmentRequest) ToInput() (adjustment.CreateInput, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return adjustment.CreateInput{}, apperror.NewValidation("invalid product id")
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return adjustment.CreateInput{}, apperror.NewValidation("invalid warehouse id")
	}

	return adjustment.CreateInput{
		ProductID:        productID,
		WarehouseID:      warehouseID,
		PhysicalQuantity: r.PhysicalQuantity,
		Date:             r.Date,
		Reason:           r.Reason,
		ValidateNow:      r.ValidateNow,
	}, nil
}

// --- Response DTOs ---

// AdjustmentResponse represents an adjustment in API responses.
type AdjustmentResponse struct {
	DocumentHeader

	ProductID   string `json:"productId"`
	WarehouseID string `json:"warehouseId"`

	RecordedQuantity types.Quantity `json:"recordedQuantity"`
	PhysicalQuantity types.Quantity `json:"physicalQuantity"`
	Delta            types.Quantity `json:"delta"`

	Reason string `json:"reason,omitempty"`
}

// FromAdjustment converts the domain entity to a response DTO.
func FromAdjustment(doc *adjustment.Adjustment) *AdjustmentResponse {
	return &AdjustmentResponse{
		DocumentHeader:   headerFromDocument(doc.Document),
		ProductID:        doc.ProductID.String(),
		WarehouseID:      doc.WarehouseID.String(),
		RecordedQuantity: doc.RecordedQuantity,
		PhysicalQuantity: doc.PhysicalQuantity,
		Delta:            doc.Delta(),
		Reason:           doc.Reason,
	}
}
