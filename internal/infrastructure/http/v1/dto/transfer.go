package dto

import (
	"time"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain/documents/transfer"
)

// --- Request DTOs ---

// CreateTransferRequest represents a request to create an inter-warehouse transfer.
type CreateTransferRequest struct {
	FromWarehouseID string                `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   string                `json:"toWarehouseId" binding:"required"`
	Date            *time.Time            `json:"date,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Items           []TransferItemRequest `json:"items" binding:"required,min=1,dive"`
	ValidateNow     bool                  `json:"validateNow,omitempty"`
}

// TransferItemRequest represents a line in a create request.
type TransferItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
}

// ToInput converts the request to service input.
func (r *CreateTransferRequest) ToInput() (transfer.CreateInput, error) {
	fromID, err := id.Parse(r.FromWarehouseID)
	if err != nil {
		return transfer.CreateInput{}, apperror.NewValidation("invalid source warehouse id")
	}
	toID, err := id.Parse(r.ToWarehouseID)
	if err != nil {
		return transfer.CreateInput{}, apperror.NewValidation("invalid destination warehouse id")
	}

	input := transfer.CreateInput{
		FromWarehouseID: fromID,
		ToWarehouseID:   toID,
		Date:            r.Date,
		Notes:           r.Notes,
		Items:           make([]transfer.ItemInput, 0, len(r.Items)),
		ValidateNow:     r.ValidateNow,
	}
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return transfer.CreateInput{}, apperror.NewValidation("invalid product id").
				WithDetail("line", i)
		}
		input.Items = append(input.Items, transfer.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}
	return input, nil
}

// --- Response DTOs ---

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	DocumentHeader

	FromWarehouseID string                 `json:"fromWarehouseId"`
	ToWarehouseID   string                 `json:"toWarehouseId"`
	Items           []TransferItemResponse `json:"items"`
}

// TransferItemResponse represents a line in API responses.
type TransferItemResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}

// FromTransfer converts the domain entity to a response DTO.
func FromTransfer(doc *transfer.Transfer) *TransferResponse {
	resp := &TransferResponse{
		DocumentHeader:  headerFromDocument(doc.Document),
		FromWarehouseID: doc.FromWarehouseID.String(),
		ToWarehouseID:   doc.ToWarehouseID.String(),
		Items:           make([]TransferItemResponse, len(doc.Items)),
	}
	for i, item := range doc.Items {
		resp.Items[i] = TransferItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		}
	}
	return resp
}
