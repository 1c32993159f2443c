package web

import (
	"net/http"

	"stock-pos/internal/app"
)

// apiListMovements handles GET /api/inventory/movements?product_id=&from=&to=&limit=.
func (h *Handler) apiListMovements(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDQuery(w, r)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.svc.ListMovements(r.Context(), app.ListMovementsRequest{
		ProductID: productID,
		From:      q.Get("from"),
		To:        q.Get("to"),
		Limit:     limit,
	})
	if err != nil {
		h.writeServiceError(w, r, "ListMovements", err)
		return
	}
	writeJSON(w, map[string]any{"movements": result.Movements, "count": len(result.Movements)})
}

// apiDashboardSummary handles GET /api/dashboard/summary.
func (h *Handler) apiDashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.DashboardSummary(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "DashboardSummary", err)
		return
	}
	writeJSON(w, summary)
}
