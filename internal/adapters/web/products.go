package web

import (
	"net/http"

	"stock-pos/internal/app"
	"stock-pos/internal/core"
)

// apiListProducts handles GET /api/products.
func (h *Handler) apiListProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "ListProducts", err)
		return
	}
	writeJSON(w, map[string]any{"products": result.Products})
}

// apiGetProduct handles GET /api/products/{id}.
func (h *Handler) apiGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "GetProduct", err)
		return
	}
	writeJSON(w, result.Product)
}

// apiCreateProduct handles POST /api/products.
func (h *Handler) apiCreateProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string     `json:"name" validate:"required"`
		UnitPrice    core.Money `json:"unit_price"`
		CurrentStock int        `json:"current_stock" validate:"gte=0,lte=2147483647"`
		MinimumStock int        `json:"minimum_stock" validate:"gte=0,lte=2147483647"`
	}
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	result, err := h.svc.CreateProduct(r.Context(), app.CreateProductRequest{
		Name:         body.Name,
		UnitPrice:    body.UnitPrice,
		CurrentStock: body.CurrentStock,
		MinimumStock: body.MinimumStock,
	})
	if err != nil {
		h.writeServiceError(w, r, "CreateProduct", err)
		return
	}
	writeCreated(w, result.Product)
}

// apiUpdateProduct handles POST /api/products/{id}.
// Omitted fields stay unchanged; a non-zero delta_stock writes one movement.
func (h *Handler) apiUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Name         *string     `json:"name"`
		UnitPrice    *core.Money `json:"unit_price"`
		MinimumStock *int        `json:"minimum_stock" validate:"omitempty,gte=0,lte=2147483647"`
		DeltaStock   int         `json:"delta_stock" validate:"gte=-2147483647,lte=2147483647"`
		Description  string      `json:"description"`
		Reason       string      `json:"reason"`
		Date         string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	}
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateProduct(r.Context(), app.UpdateProductRequest{
		ID:           id,
		Name:         body.Name,
		UnitPrice:    body.UnitPrice,
		MinimumStock: body.MinimumStock,
		DeltaStock:   body.DeltaStock,
		Description:  body.Description,
		Reason:       body.Reason,
		Date:         body.Date,
		Actor:        actorFrom(r),
	})
	if err != nil {
		h.writeServiceError(w, r, "UpdateProduct", err)
		return
	}
	writeJSON(w, result.Product)
}

// apiRestock handles POST /api/products/restock.
func (h *Handler) apiRestock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID *int64 `json:"product_id" validate:"required_without=Name"`
		Name      string `json:"name"`
		Quantity  int    `json:"quantity" validate:"required,gt=0,lte=2147483647"`
		Reason    string `json:"reason"`
		Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	}
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	result, err := h.svc.Restock(r.Context(), app.RestockRequest{
		ProductID: body.ProductID,
		Name:      body.Name,
		Quantity:  body.Quantity,
		Reason:    body.Reason,
		Date:      body.Date,
		Actor:     actorFrom(r),
	})
	if err != nil {
		h.writeServiceError(w, r, "Restock", err)
		return
	}
	writeCreated(w, result.Product)
}

// apiDeleteProduct handles DELETE /api/products/{id}?force=true. Admin only.
func (h *Handler) apiDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	force := r.URL.Query().Get("force") == "true"

	if err := h.svc.DeleteProduct(r.Context(), id, force); err != nil {
		h.writeServiceError(w, r, "DeleteProduct", err)
		return
	}

	type response struct {
		ID      int64 `json:"id"`
		Deleted bool  `json:"deleted"`
	}
	writeJSON(w, response{ID: id, Deleted: true})
}

// apiLowStock handles GET /api/inventory/alerts.
func (h *Handler) apiLowStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListLowStock(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "ListLowStock", err)
		return
	}
	writeJSON(w, result)
}
