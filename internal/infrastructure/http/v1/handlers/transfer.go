package handlers

import (
	"github.com/gin-gonic/gin"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/domain/audit"
	"stocktrack/internal/domain/documents/transfer"
	"stocktrack/internal/infrastructure/http/v1/dto"
	"stocktrack/pkg/logger"
)

// TransferHandler handles HTTP requests for inter-warehouse transfers.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
	auditor audit.Trail
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *transfer.Service, auditor audit.Trail) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service, auditor: auditor}
}

// Create handles POST /documents/transfers
func (h *TransferHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTransferRequest
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
	h.Created(c, dto.FromTransfer(doc))
}

// Get handles GET /documents/transfers/:id
func (h *TransferHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(doc))
}

// GetByNumber handles GET /documents/transfers/number/:number
func (h *TransferHandler) GetByNumber(c *gin.Context) {
	doc, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransfer(doc))
}

// History handles GET /documents/transfers/:id/audit
func (h *TransferHandler) History(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}
	if _, err := h.service.GetByID(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.AuditHistory(c, h.auditor, "transfer", docID)
}

// List handles GET /documents/transfers
func (h *TransferHandler) List(c *gin.Context) {
	filter := h.ListFilterFromQuery(c)
	if status := c.Query("status"); status != "" {
		filter.Filters = map[string]any{"status": status}
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.TransferResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromTransfer(doc)
	}
	h.OK(c, dto.ListResponse[*dto.TransferResponse]{
		Items:  items,
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// SetStatus handles PUT /documents/transfers/:id/status
func (h *TransferHandler) SetStatus(c *gin.Context) {
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
	h.OK(c, dto.FromTransfer(doc))
}

func (h *TransferHandler) recordAudit(c *gin.Context, doc *transfer.Transfer, action audit.Action) {
	err := h.auditor.RecordChange(c.Request.Context(), "transfer", doc.ID, action, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "audit record failed", "error", err)
	}
}

// RegisterRoutes registers transfer routes on the group.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/number/:number", h.GetByNumber)
	rg.GET("/:id", h.Get)
	rg.GET("/:id/audit", h.History)
	rg.PUT("/:id/status", h.SetStatus)
}
