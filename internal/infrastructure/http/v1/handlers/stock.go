package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stocktrack/internal/core/apperror"
	"stocktrack/internal/core/entity"
	"stocktrack/internal/core/id"
	"stocktrack/internal/domain/stock"
	"stocktrack/internal/infrastructure/http/v1/dto"
)

// StockHandler handles read-only stock queries.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// Current handles GET /stock/current
func (h *StockHandler) Current(c *gin.Context) {
	filter := stock.BalanceFilter{
		ListFilter:  h.ListFilterFromQuery(c),
		NonZeroOnly: c.Query("nonZeroOnly") == "true",
	}

	if whStr := c.Query("warehouseId"); whStr != "" {
		parsed, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = parsed
	}
	if pStr := c.Query("productId"); pStr != "" {
		parsed, err := id.Parse(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = parsed
	}

	result, err := h.service.ListBalances(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockBalanceResponse, len(result.Items))
	for i, b := range result.Items {
		items[i] = dto.FromStockBalance(b)
	}
	h.OK(c, dto.ListResponse[dto.StockBalanceResponse]{
		Items:  items,
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Ledger handles GET /stock/ledger
func (h *StockHandler) Ledger(c *gin.Context) {
	filter := stock.LedgerFilter{
		ListFilter: h.ListFilterFromQuery(c),
	}

	if whStr := c.Query("warehouseId"); whStr != "" {
		parsed, err := id.Parse(whStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouseId format"))
			return
		}
		filter.WarehouseID = parsed
	}
	if pStr := c.Query("productId"); pStr != "" {
		parsed, err := id.Parse(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = parsed
	}
	if t := c.Query("type"); t != "" {
		filter.Type = entity.TransactionType(t)
	}
	if fromStr := c.Query("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from timestamp"))
			return
		}
		filter.From = parsed
	}
	if toStr := c.Query("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to timestamp"))
			return
		}
		filter.To = parsed
	}

	result, err := h.service.ListLedger(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, len(result.Items))
	for i, e := range result.Items {
		items[i] = dto.FromLedgerEntry(e)
	}
	h.OK(c, dto.ListResponse[dto.LedgerEntryResponse]{
		Items:  items,
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Reconcile handles GET /stock/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	var key stock.Key

	parsed, err := id.Parse(c.Query("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}
	key.ProductID = parsed

	parsed, err = id.Parse(c.Query("warehouseId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouseId format"))
		return
	}
	key.WarehouseID = parsed

	rec, err := h.service.Reconcile(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReconciliation(rec))
}
