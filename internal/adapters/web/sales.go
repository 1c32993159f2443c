package web

import (
	"net/http"
	"strconv"

	"stock-pos/internal/app"
	"stock-pos/internal/core"
)

type saleItemBody struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=2147483647"`
}

// apiCreateSale handles POST /api/sales.
// Insufficient stock answers 409 with one shortfall entry per short product.
func (h *Handler) apiCreateSale(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date      string         `json:"date" validate:"omitempty,datetime=2006-01-02"`
		BuyerName string         `json:"buyer_name"`
		Items     []saleItemBody `json:"items" validate:"required,min=1,dive"`
	}
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	items := make([]core.SaleItemInput, len(body.Items))
	for i, it := range body.Items {
		items[i] = core.SaleItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	result, err := h.svc.CreateSale(r.Context(), app.CreateSaleRequest{
		Date:      body.Date,
		BuyerName: body.BuyerName,
		Items:     items,
		Actor:     actorFrom(r),
	})
	if err != nil {
		h.writeServiceError(w, r, "CreateSale", err)
		return
	}
	writeCreated(w, result.Sale)
}

// apiGetSale handles GET /api/sales/{id}.
func (h *Handler) apiGetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "GetSale", err)
		return
	}
	writeJSON(w, result.Sale)
}

// apiListSales handles GET /api/sales?limit=N.
func (h *Handler) apiListSales(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	result, err := h.svc.ListSales(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, "ListSales", err)
		return
	}
	writeJSON(w, map[string]any{"sales": result.Sales, "count": len(result.Sales)})
}

// productIDQuery reads the optional product_id filter.
func productIDQuery(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("product_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid product_id: "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return &id, true
}
