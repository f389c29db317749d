package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/sales-app/httpx"
	"github.com/diewo77/sales-app/internal/models"
	"github.com/diewo77/sales-app/validation"
)

type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler { return &ProductHandler{DB: db} }

type productInput struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	UnitPrice      float64 `json:"unit_price"`
	Stock          int     `json:"stock"`
	AlertThreshold int     `json:"alert_threshold"`
}

func (in *productInput) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.PositiveFloat("unit_price", in.UnitPrice, v)
	validation.NonNegativeInt("stock", in.Stock, v)
	validation.NonNegativeInt("alert_threshold", in.AlertThreshold, v)
	return v
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	dbq := h.DB.Order("name asc")
	if query != "" {
		dbq = dbq.Where("lower(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	var products []models.Product
	if err := dbq.Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := input.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	p := models.Product{
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		UnitPrice:      input.UnitPrice,
		Stock:          input.Stock,
		AlertThreshold: input.AlertThreshold,
	}
	if err := h.DB.Create(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "product_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var p models.Product
	if err := h.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_product", nil)
		return
	}
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := input.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	// Stock stays under the ledger's control: direct product updates
	// may not change it.
	updates := map[string]any{
		"name":            strings.TrimSpace(input.Name),
		"description":     input.Description,
		"unit_price":      input.UnitPrice,
		"alert_threshold": input.AlertThreshold,
	}
	if err := h.DB.Model(&p).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "product_update_failed", nil)
		return
	}
	if err := h.DB.First(&p, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_product", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	// Referential protection: a product referenced by sale lines cannot
	// be removed.
	var lineCount int64
	if err := h.DB.Model(&models.SaleLine{}).Where("product_id = ?", id).Count(&lineCount).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_check_references", nil)
		return
	}
	if lineCount > 0 {
		httpx.JSONError(w, http.StatusConflict, "product_referenced_by_sales", nil)
		return
	}
	res := h.DB.Delete(&models.Product{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "product_delete_failed", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// idParam reads the id query parameter shared by update/delete routes.
func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr := r.URL.Query().Get("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}
