package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/sales-app/internal/models"
	srv "github.com/diewo77/sales-app/internal/server"
)

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := dbi.AutoMigrate(&models.Product{}, &models.Client{}, &models.Sale{}, &models.SaleLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbi
}

func TestHealthEndpoints(t *testing.T) {
	root := srv.New(setupRouterTestDB(t))
	for _, path := range []string{"/health", "/healthz"} {
		rr := httptest.NewRecorder()
		root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s expected 200 got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"ok"`) {
			t.Fatalf("%s unexpected body %s", path, rr.Body.String())
		}
	}
}

func TestMethodNotAllowedOnCollections(t *testing.T) {
	root := srv.New(setupRouterTestDB(t))
	for _, path := range []string{"/products", "/clients", "/sales"} {
		rr := httptest.NewRecorder()
		root.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s expected 405 got %d", path, rr.Code)
		}
		if allow := rr.Header().Get("Allow"); allow != "GET,POST" {
			t.Fatalf("%s Allow header %q", path, allow)
		}
	}
}

func TestSaleFlowThroughRouter(t *testing.T) {
	dbi := setupRouterTestDB(t)
	root := srv.New(dbi)

	// create product through the API
	rr := httptest.NewRecorder()
	body := `{"name":"Souris","unit_price":12.5,"stock":6,"alert_threshold":2}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	root.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("product create got %d body=%s", rr.Code, rr.Body.String())
	}

	// sell two of them
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/sales", strings.NewReader(`{"lines":[{"product_id":1,"quantity":2}]}`))
	req.Header.Set("Content-Type", "application/json")
	root.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("sale create got %d body=%s", rr.Code, rr.Body.String())
	}

	var p models.Product
	if err := dbi.First(&p, 1).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.Stock != 4 {
		t.Fatalf("expected stock 4 got %d", p.Stock)
	}

	// dashboard reflects the sale
	rr = httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"sale_count":1`) {
		t.Fatalf("dashboard body missing sale count: %s", rr.Body.String())
	}
}

func TestHealthzDegradedOnClosedDB(t *testing.T) {
	dbi := setupRouterTestDB(t)
	sqlDB, err := dbi.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	_ = sqlDB.Close()
	root := srv.New(dbi)
	rr := httptest.NewRecorder()
	root.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on closed db got %d", rr.Code)
	}
}
