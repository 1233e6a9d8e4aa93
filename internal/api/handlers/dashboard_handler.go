package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/export"
)

// DashboardReader is implemented by service.DashboardService.
type DashboardReader interface {
	Inventory(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryRow, error)
	InventoryDays(ctx context.Context, filter domain.DashboardFilter) ([]domain.InventoryDays, error)
	Classification(ctx context.Context, filter domain.DashboardFilter) ([]domain.ClassificationView, error)
	StockAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.StockAlert, error)
	Suggestions(ctx context.Context, filter domain.DashboardFilter) ([]domain.SuggestionRecord, error)
	SupplierCatalog(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierProduct, error)
	SupplierAlerts(ctx context.Context, filter domain.DashboardFilter) ([]domain.SupplierAlert, error)
	JobRuns(ctx context.Context, job string, limit int) ([]domain.JobRun, error)
	LookupClient(ctx context.Context, taxID string) (*domain.Client, error)
	ExportWorkbook(ctx context.Context, filter domain.DashboardFilter) ([]byte, error)
}

type DashboardHandler struct {
	service DashboardReader
	now     func() time.Time
}

func NewDashboardHandler(service DashboardReader) *DashboardHandler {
	return &DashboardHandler{service: service, now: time.Now}
}

// parseFilter binds the query string. ok is false when a response was
// already written.
func (h *DashboardHandler) parseFilter(c *gin.Context) (domain.DashboardFilter, bool) {
	var filter domain.DashboardFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return filter, false
	}
	filter.Warehouse = strings.TrimSpace(filter.Warehouse)
	filter.SKU = strings.TrimSpace(filter.SKU)
	filter.Normalize()
	return filter, true
}

// list serves a filtered read endpoint.
func list[T any](h *DashboardHandler, fetch func(context.Context, domain.DashboardFilter) ([]T, error), message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := h.parseFilter(c)
		if !ok {
			return
		}
		rows, err := fetch(c.Request.Context(), filter)
		if err != nil {
			respondErr(c, err, message)
			return
		}
		respondRows(c, rows)
	}
}

func (h *DashboardHandler) Inventory() gin.HandlerFunc {
	return list(h, h.service.Inventory, "failed to fetch inventory")
}

func (h *DashboardHandler) InventoryDays() gin.HandlerFunc {
	return list(h, h.service.InventoryDays, "failed to fetch inventory days")
}

func (h *DashboardHandler) Classification() gin.HandlerFunc {
	return list(h, h.service.Classification, "failed to fetch classification")
}

func (h *DashboardHandler) StockAlerts() gin.HandlerFunc {
	return list(h, h.service.StockAlerts, "failed to fetch stock alerts")
}

func (h *DashboardHandler) Suggestions() gin.HandlerFunc {
	return list(h, h.service.Suggestions, "failed to fetch suggestions")
}

func (h *DashboardHandler) SupplierCatalog() gin.HandlerFunc {
	return list(h, h.service.SupplierCatalog, "failed to fetch supplier catalog")
}

func (h *DashboardHandler) SupplierAlerts() gin.HandlerFunc {
	return list(h, h.service.SupplierAlerts, "failed to fetch supplier alerts")
}

func (h *DashboardHandler) JobRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.service.JobRuns(c.Request.Context(), strings.TrimSpace(c.Query("job")), limit)
	if err != nil {
		respondErr(c, err, "failed to fetch job runs")
		return
	}
	respondRows(c, runs)
}

// ExportSuggestions streams the suggestions workbook.
func (h *DashboardHandler) ExportSuggestions(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	data, err := h.service.ExportWorkbook(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err, "failed to export suggestions")
		return
	}

	name := fmt.Sprintf("sugerido-%s.xlsx", h.now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, export.ContentType, data)
}

type clientLookupRequest struct {
	TaxID  string `json:"tax_id" binding:"required_without=Cedula"`
	Cedula string `json:"cedula"`
}

// LookupClient finds a client by the tax id sent in the body.
func (h *DashboardHandler) LookupClient(c *gin.Context) {
	var req clientLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "tax_id is required")
		return
	}
	taxID := strings.TrimSpace(req.TaxID)
	if taxID == "" {
		taxID = strings.TrimSpace(req.Cedula)
	}

	client, err := h.service.LookupClient(c.Request.Context(), taxID)
	if err != nil {
		respondErr(c, err, "failed to look up client")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "client": client})
}
