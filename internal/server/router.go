package server

import (
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/sales-app/httpx"
	"github.com/diewo77/sales-app/internal/handlers"
	"github.com/diewo77/sales-app/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// Lightweight DB check (SELECT 1) – detailed errors stay out of the body
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Product endpoints. List/Create via /products. Update/Delete via
	// /products/update & /products/delete for simplicity.
	ph := handlers.NewProductHandler(db)
	mux.HandleFunc("/products", listCreate(ph.List, ph.Create))
	mux.HandleFunc("/products/update", ph.Update)
	mux.HandleFunc("/products/delete", ph.Delete)

	// Client endpoints
	ch := handlers.NewClientHandler(db)
	mux.HandleFunc("/clients", listCreate(ch.List, ch.Create))
	mux.HandleFunc("/clients/update", ch.Update)
	mux.HandleFunc("/clients/delete", ch.Delete)

	// Sale endpoints
	saleSvc := services.NewSaleService(db)
	sh := handlers.NewSaleHandler(db, saleSvc)
	mux.HandleFunc("/sales", listCreate(sh.List, sh.Create))
	mux.HandleFunc("/sales/delete", sh.Delete)

	// Dashboard & reports
	rh := handlers.NewReportHandler(db, services.NewStatsService(db))
	mux.HandleFunc("/dashboard", rh.Dashboard)
	mux.HandleFunc("/reports/clients", rh.Buyers)
	mux.HandleFunc("/reports/clients/pdf", rh.ClientsPDF)
	mux.HandleFunc("/reports/sales/pdf", rh.SalesPDF)

	// Root placeholder
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, werr := w.Write([]byte("Sales App API")); werr != nil {
			_ = werr
		}
	})
	//revive:enable:unused-parameter

	return withRecover(withLogging(mux))
}

// listCreate routes GET to list and POST to create on a collection path.
func listCreate(list, create http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
