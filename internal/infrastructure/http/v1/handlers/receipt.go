package handlers

import (
	"github.com/gin-gonic/gin"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/domain/audit"
	"stocktrack/internal/domain/documents/receipt"
	"stocktrack/internal/infrastructure/http/v1/dto"
	"stocktrack/pkg/logger"
)

// ReceiptHandler handles HTTP requests for goods receipts.
type ReceiptHandler struct {
	*BaseHandler
	service *receipt.Service
	auditor audit.Trail
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(base *BaseHandler, service *receipt.Service, auditor audit.Trail) *ReceiptHandler {
	return &ReceiptHandler{BaseHandler: base, service: service, auditor: auditor}
}

// Create handles POST /documents/receipts
func (h *ReceiptHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateReceiptRequest
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
	h.Created(c, dto.FromReceipt(doc))
}

// Get handles GET /documents/receipts/:id
func (h *ReceiptHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReceipt(doc))
}

// GetByNumber handles GET /documents/receipts/number/:number
func (h *ReceiptHandler) GetByNumber(c *gin.Context) {
	doc, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReceipt(doc))
}

// History handles GET /documents/receipts/:id/audit
func (h *ReceiptHandler) History(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if _, err := h.service.GetByID(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.AuditHistory(c, h.auditor, "receipt", docID)
}

// List handles GET /documents/receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	filter := h.ListFilterFromQuery(c)
	if status := c.Query("status"); status != "" {
		filter.Filters = map[string]any{"status": status}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ReceiptResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromReceipt(doc)
	}
	h.OK(c, dto.ListResponse[*dto.ReceiptResponse]{
		Items:  items,
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// SetStatus handles PUT /documents/receipts/:id/status
func (h *ReceiptHandler) SetStatus(c *gin.Context) {
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
	h.OK(c, dto.FromReceipt(doc))
}

func (h *ReceiptHandler) recordAudit(c *gin.Context, doc *receipt.Receipt, action audit.Action) {
	err := h.auditor.RecordChange(c.Request.Context(), "receipt", doc.ID, action, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
	})
	if err != nil {
		// Audit failures never fail the request.
		logger.Warn(c.Request.Context(), "audit record failed", "error", err)
	}
}

// RegisterRoutes registers receipt routes on the group.
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/number/:number", h.GetByNumber)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/audit", h.History)
	rg.PUT("/:id/status", h.SetStatus)
}

// statusAction maps a target status to its audit action.
func statusAction(to entity.Status) audit.Action {
	switch to {
	case entity.StatusDone:
		return audit.ActionValidate
	case entity.StatusCanceled:
		return audit.ActionCancel
	default:
		return audit.ActionStatusChange
	}
}
