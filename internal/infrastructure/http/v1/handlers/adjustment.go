package handlers

import (
	"github.com/gin-gonic/gin"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/domain/audit"
	"stocktrack/internal/domain/documents/adjustment"
	"stocktrack/internal/infrastructure/http/v1/dto"
	"stocktrack/pkg/logger"
)

// AdjustmentHandler handles HTTP requests for stock adjustments.
type AdjustmentHandler struct {
	*BaseHandler
	service *adjustment.Service
	auditor audit.Trail
}

// NewAdjustmentHandler creates a new adjustment handler.
func NewAdjustmentHandler(base *BaseHandler, service *adjustment.Service, auditor audit.Trail) *AdjustmentHandler {
	return &AdjustmentHandler{BaseHandler: base, service: service, auditor: auditor}
}

// Create handles POST /documents/adjustments
func (h *AdjustmentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAdjustmentRequest
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
	h.Created(c, dto.FromAdjustment(doc))
}

// Get handles GET /documents/adjustments/:id
func (h *AdjustmentHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAdjustment(doc))
}

// GetByNumber handles GET /documents/adjustments/number/:number
func (h *AdjustmentHandler) GetByNumber(c *gin.Context) {
	doc, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAdjustment(doc))
}

// History handles GET /documents/adjustments/:id/audit
func (h *AdjustmentHandler) History(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if _, err := h.service.GetByID(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.AuditHistory(c, h.auditor, "adjustment", docID)
}

// List handles GET /documents/adjustments
func (h *AdjustmentHandler) List(c *gin.Context) {
	filter := h.ListFilterFromQuery(c)
	if status := c.Query("status"); status != "" {
		filter.Filters = map[string]any{"status": status}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.AdjustmentResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromAdjustment(doc)
	}
	h.OK(c, dto.ListResponse[*dto.AdjustmentResponse]{
		Items:  items,
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// SetStatus handles PUT /documents/adjustments/:id/status
func (h *AdjustmentHandler) SetStatus(c *gin.Context) {
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
	h.OK(c, dto.FromAdjustment(doc))
}

func (h *AdjustmentHandler) recordAudit(c *gin.Context, doc *adjustment.Adjustment, action audit.Action) {
	err := h.auditor.RecordChange(c.Request.Context(), "adjustment", doc.ID, action, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
		"delta":  doc.Delta().String(),
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "audit record failed", "error", err)
	}
}

// RegisterRoutes registers adjustment routes on the group.
func (h *AdjustmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/number/:number", h.GetByNumber)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/audit", h.History)
	rg.PUT("/:id/status", h.SetStatus)
}
