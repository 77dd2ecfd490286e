package dto

import (
	"time"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain/documents/receipt"
)

// --- Request DTOs ---

// CreateReceiptRequest represents a request to create a goods receipt.
type CreateReceiptRequest struct {
	WarehouseID  string               `json:"warehouseId" binding:"required"`
	SupplierName string               `json:"supplierName,omitempty"`
	Date         *time.Time           `json:"date,omitempty"`
	Notes        string               `json:"notes,omitempty"`
	Items        []ReceiptItemRequest `json:"items" binding:"required,min=1,dive"`
	ValidateNow  bool                 `json:"validateNow,omitempty"`
}

// ReceiptItemRequest represents a line in a create request.
type ReceiptItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// ToInput converts the request to service input.
func (r *CreateReceiptRequest) ToInput() (receipt.CreateInput, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return receipt.CreateInput{}, apperror.NewValidation("invalid warehouse id")
	}

	input := receipt.CreateInput{
		WarehouseID:  warehouseID,
		SupplierName: r.SupplierName,
		Date:         r.Date,
		Notes:        r.Notes,
		Items:        make([]receipt.ItemInput, 0, len(r.Items)),
		ValidateNow:  r.ValidateNow,
	}
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return receipt.CreateInput{}, apperror.NewValidation("invalid product id").
				WithDetail("line", i)
		}
		input.Items = append(input.Items, receipt.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return input, nil
}

// --- Response DTOs ---

// ReceiptResponse represents a goods receipt in API responses.
type ReceiptResponse struct {
	DocumentHeader

	WarehouseID  string                `json:"warehouseId"`
	SupplierName string                `json:"supplierName,omitempty"`
	Items        []ReceiptItemResponse `json:"items"`
	TotalCost    types.Money           `json:"totalCost"`
}

// ReceiptItemResponse represents a line in API responses.
type ReceiptItemResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// FromReceipt converts the domain entity to a response DTO.
func FromReceipt(doc *receipt.Receipt) *ReceiptResponse {
	resp := &ReceiptResponse{
		DocumentHeader: headerFromDocument(doc.Document),
		WarehouseID:    doc.WarehouseID.String(),
		SupplierName:   doc.SupplierName,
		Items:          make([]ReceiptItemResponse, len(doc.Items)),
		TotalCost:      doc.TotalCost(),
	}
	for i, item := range doc.Items {
		resp.Items[i] = ReceiptItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return resp
}
