package handlers

import (
	"github.com/gin-gonic/gin"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/domain/audit"
	"stocktrack/internal/domain/documents/delivery"
	"stocktrack/internal/infrastructure/http/v1/dto"
	"stocktrack/pkg/logger"
)

// DeliveryHandler handles HTTP requests for delivery orders.
type DeliveryHandler struct {
	*BaseHandler
	service *delivery.Service
	auditor audit.Trail
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service, auditor audit.Trail) *DeliveryHandler {
	return &DeliveryHandler{BaseHandler: base, service: service, auditor: auditor}
}

// Create handles POST /documents/deliveries
func (h *DeliveryHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDeliveryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.recordAudit(c, doc, audit.ActionCreate)
	h.Created(c, dto.FromDelivery(doc, h.service.NextStatuses(doc)))
}

// Get handles GET /documents/deliveries/:id
func (h *DeliveryHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDelivery(doc, h.service.NextStatuses(doc)))
}

// GetByNumber handles GET /documents/deliveries/number/:number
func (h *DeliveryHandler) GetByNumber(c *gin.Context) {
	doc, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromDelivery(doc, h.service.NextStatuses(doc)))
}

// History handles GET /documents/deliveries/:id/audit
func (h *DeliveryHandler) History(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if _, err := h.service.GetByID(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.AuditHistory(c, h.auditor, "delivery", docID)
}

// List handles GET /documents/deliveries
func (h *DeliveryHandler) List(c *gin.Context) {
	filter := h.ListFilterFromQuery(c)
	if status := c.Query("status"); status != "" {
		filter.Filters = map[string]any{"status": status}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.DeliveryResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromDelivery(doc, h.service.NextStatuses(doc))
	}
	h.OK(c, dto.ListResponse[*dto.DeliveryResponse]{
		Items:  items,
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// SetStatus handles PUT /documents/deliveries/:id/status
func (h *DeliveryHandler) SetStatus(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	to := entity.Status(req.Status)
	if !to.IsValid() {
		h.Error(c, apperror.NewValidation("unknown status: "+req.Status))
		return
	}

	doc, err := h.service.SetStatus(c.Request.Context(), docID, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.recordAudit(c, doc, statusAction(to))
	h.OK(c, dto.FromDelivery(doc, h.service.NextStatuses(doc)))
}

func (h *DeliveryHandler) recordAudit(c *gin.Context, doc *delivery.Delivery, action audit.Action) {
	err := h.auditor.RecordChange(c.Request.Context(), "delivery", doc.ID, action, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "audit record failed", "error", err)
	}
}

// RegisterRoutes registers delivery routes on the group.
func (h *DeliveryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/number/:number", h.GetByNumber)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/audit", h.History)
	rg.PUT("/:id/status", h.SetStatus)
}
