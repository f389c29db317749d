package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/sales-app/httpx"
	"github.com/diewo77/sales-app/internal/models"
	"github.com/diewo77/sales-app/internal/services"
)

type SaleHandler struct {
	DB  *gorm.DB
	Svc *services.SaleService
}

func NewSaleHandler(db *gorm.DB, svc *services.SaleService) *SaleHandler {
	return &SaleHandler{DB: db, Svc: svc}
}

// List: GET /sales – newest first, lines and products preloaded.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	var sales []models.Sale
	if err := h.DB.Preload("Lines.Product").Preload("Client").
		Order("date desc").Find(&sales).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_sales", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": sales, "total": len(sales)})
}

// Create: POST /sales – runs the sale-creation workflow. Responses:
// 201 with id/total/warnings, 400 with every shortfall message, or 409
// when a concurrent sale won the stock race and the commit rolled back.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	type lineReq struct {
		ProductID uint    `json:"product_id"`
		Quantity  int     `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	}
	type createReq struct {
		ClientID *uint     `json:"client_id"`
		Paid     bool      `json:"paid"`
		Lines    []lineReq `json:"lines"`
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	sreq := services.SaleRequest{ClientID: req.ClientID, Paid: req.Paid}
	for _, l := range req.Lines {
		sreq.Lines = append(sreq.Lines, services.LineRequest{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	sale, warnings, err := h.Svc.Create(sreq)
	if err != nil {
		var insufficient *services.InsufficientStockError
		if errors.As(err, &insufficient) {
			httpx.JSONError(w, http.StatusBadRequest, "insufficient_stock", insufficient.Shortfalls)
			return
		}
		var race *services.StockRaceError
		if errors.As(err, &race) {
			httpx.JSONError(w, http.StatusConflict, "stock_conflict", race.Error())
			return
		}
		if errors.Is(err, services.ErrClientNotFound) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_client", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_sale", nil)
		return
	}
	warningMsgs := make([]string, 0, len(warnings))
	for _, wmsg := range warnings {
		warningMsgs = append(warningMsgs, wmsg.String())
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"id":       sale.ID,
		"total":    sale.Total,
		"warnings": warningMsgs,
	})
}

// Delete: POST /sales/delete?id= – cancellation: restores stock for
// every deducted line and removes the sale with its lines.
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Cancel(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "sale_delete_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
