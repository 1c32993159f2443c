package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"stock-pos/internal/app"
	"stock-pos/internal/core"
	"stock-pos/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// Handler holds the ApplicationService, the chi router, and the request validator.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	log       logrus.FieldLogger
	validate  *validator.Validate
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log logrus.FieldLogger) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log,
		validate:  newValidator(),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Health and metrics (public) ───────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20))
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/logout", h.logout)
	})

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Catalog
		r.Get("/api/products", h.apiListProducts)
		r.Post("/api/products", h.apiCreateProduct)
		r.Post("/api/products/restock", h.apiRestock)
		r.Get("/api/products/{id}", h.apiGetProduct)
		r.Post("/api/products/{id}", h.apiUpdateProduct)
		r.With(RequireRole(core.RoleAdmin)).Delete("/api/products/{id}", h.apiDeleteProduct)

		// Inventory
		r.Get("/api/inventory/alerts", h.apiLowStock)
		r.Get("/api/inventory/movements", h.apiListMovements)

		// Sales
		r.Get("/api/sales", h.apiListSales)
		r.Post("/api/sales", h.apiCreateSale)
		r.Get("/api/sales/{id}", h.apiGetSale)

		// Reporting
		r.Get("/api/dashboard/summary", h.apiDashboardSummary)
	})

	h.router = r
	return r
}

// health reports that the process is up.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeAndValidate decodes the body and runs the struct's validate tags.
// Validation failures answer 400 with a field -> failed tag map.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, r, "invalid request: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		writeErrorResponse(w, r, errorResponse{
			Error:  "request validation failed",
			Code:   "BAD_REQUEST",
			Fields: fields,
		}, http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses the {id} URL parameter. Writes 400 and returns false when it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id: "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter. Missing means 0.
func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, "invalid "+key+": "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// actorFrom returns the actor of the authenticated request.
func actorFrom(r *http.Request) core.Actor {
	if claims := authFromContext(r.Context()); claims != nil {
		return claims.Actor()
	}
	return core.Actor{}
}
