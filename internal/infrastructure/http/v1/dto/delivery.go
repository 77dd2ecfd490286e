package dto

import (
	"time"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/core/types"
	"stocktrack/internal/domain/documents/delivery"
)

// --- Request DTOs ---

// CreateDeliveryRequest represents a request to create a delivery order.
// Without validateNow the order starts in draft and ships through the
// picking chain.
type CreateDeliveryRequest struct {
	WarehouseID  string                `json:"warehouseId" binding:"required"`
	CustomerName string                `json:"customerName,omitempty"`
	Date         *time.Time            `json:"date,omitempty"`
	Notes        string                `json:"notes,omitempty"`
	Items        []DeliveryItemRequest `json:"items" binding:"required,min=1,dive"`
	ValidateNow  bool                  `json:"validateNow,omitempty"`
}

// DeliveryItemRequest represents a line in a create request.
type DeliveryItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
}

// ToInput converts the request to service input.
func (r *CreateDeliveryRequest) ToInput() (delivery.CreateInput, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return delivery.CreateInput{}, apperror.NewValidation("invalid warehouse id")
	}

	input := delivery.CreateInput{
		WarehouseID:  warehouseID,
		CustomerName: r.CustomerName,
		Date:         r.Date,
		Notes:        r.Notes,
		Items:        make([]delivery.ItemInput, 0, len(r.Items)),
		ValidateNow:  r.ValidateNow,
	}
	for i, item := range r.Items {
		productID, err := id.Parse(item.ProductID)
		if err != nil {
			return delivery.CreateInput{}, apperror.NewValidation("invalid product id").
				WithDetail("line", i)
		}
		input.Items = append(input.Items, delivery.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}
	return input, nil
}

// --- Response DTOs ---

// DeliveryResponse represents a delivery order in API responses.
type DeliveryResponse struct {
	DocumentHeader

	WarehouseID  string                 `json:"warehouseId"`
	CustomerName string                 `json:"customerName,omitempty"`
	Items        []DeliveryItemResponse `json:"items"`

	// NextStatuses lists the legal moves from the current status, so
	// clients can render workflow buttons without duplicating the rules.
	NextStatuses []string `json:"nextStatuses"`
}

// DeliveryItemResponse represents a line in API responses.
type DeliveryItemResponse struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
}

// FromDelivery converts the domain entity to a response DTO.
func FromDelivery(doc *delivery.Delivery, next []entity.Status) *DeliveryResponse {
	resp := &DeliveryResponse{
		DocumentHeader: headerFromDocument(doc.Document),
		WarehouseID:    doc.WarehouseID.String(),
		CustomerName:   doc.CustomerName,
		Items:          make([]DeliveryItemResponse, len(doc.Items)),
		NextStatuses:   make([]string, len(next)),
	}
	for i, item := range doc.Items {
		resp.Items[i] = DeliveryItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		}
	}
	for i, s := range next {
		resp.NextStatuses[i] = string(s)
	}
	return resp
}
