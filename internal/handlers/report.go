package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/sales-app/httpx"
	"github.com/diewo77/sales-app/internal/models"
	"github.com/diewo77/sales-app/internal/services"
	"github.com/diewo77/sales-app/pdf"
)

// ReportHandler serves the dashboard aggregates and the two PDF
// exports.
type ReportHandler struct {
	DB    *gorm.DB
	Stats *services.StatsService
}

func NewReportHandler(db *gorm.DB, stats *services.StatsService) *ReportHandler {
	return &ReportHandler{DB: db, Stats: stats}
}

// Dashboard: GET /dashboard
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Dashboard()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_compute_stats", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

// Buyers: GET /reports/clients – clients with at least one purchase.
func (h *ReportHandler) Buyers(w http.ResponseWriter, r *http.Request) {
	buyers, err := h.Stats.Buyers()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_buyers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": buyers, "total": len(buyers)})
}

// ClientsPDF: GET /reports/clients/pdf
func (h *ReportHandler) ClientsPDF(w http.ResponseWriter, r *http.Request) {
	buyers, err := h.Stats.Buyers()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_buyers", nil)
		return
	}
	data := pdf.ClientsReportData{GeneratedAt: time.Now()}
	for _, b := range buyers {
		data.Clients = append(data.Clients, pdf.ClientRow{
			Nom:         b.Nom,
			Telephone:   b.Telephone,
			Email:       b.Email,
			SaleCount:   b.SaleCount,
			TotalAmount: b.TotalAmount,
		})
	}
	out, err := pdf.ClientsReport(data)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	httpx.PDF(w, "rapport_clients.pdf", out)
}

// SalesPDF: GET /reports/sales/pdf
func (h *ReportHandler) SalesPDF(w http.ResponseWriter, r *http.Request) {
	var sales []models.Sale
	if err := h.DB.Preload("Lines.Product").Preload("Client").
		Order("date desc").Find(&sales).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_sales", nil)
		return
	}
	var lineCount int64
	if err := h.DB.Model(&models.SaleLine{}).Count(&lineCount).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_count_lines", nil)
		return
	}
	data := pdf.SalesReportData{GeneratedAt: time.Now(), LineCount: lineCount}
	for i := range sales {
		s := &sales[i]
		clientName := "N/A"
		if s.Client != nil {
			clientName = s.Client.Nom
		}
		parts := make([]string, 0, len(s.Lines))
		for j := range s.Lines {
			parts = append(parts, fmt.Sprintf("%s (×%d)", s.Lines[j].Product.Name, s.Lines[j].Quantity))
		}
		data.Sales = append(data.Sales, pdf.SaleRow{
			Number:   s.ID,
			Client:   clientName,
			Date:     s.Date,
			Total:    s.Total,
			Products: strings.Join(parts, ", "),
		})
	}
	out, err := pdf.SalesReport(data)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	httpx.PDF(w, "rapport_ventes.pdf", out)
}
