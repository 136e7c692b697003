package api

import "net/http"

type mockPayRequest struct {
	ItemCode string `json:"itemCode"`
	Amount   int64  `json:"amount"`
}

// POST /api/billing/mock-pay
func (rt *Router) handleMockPay(w http.ResponseWriter, r *http.Request) {
	var req mockPayRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	purchase, err := rt.billing.RecordPayment(r.Context(), callerSubject(r), req.ItemCode, req.Amount)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"purchaseId": purchase.ID,
		"status":     purchase.Status,
	})
}

// GET /api/billing/entitlements
func (rt *Router) handleListEntitlements(w http.ResponseWriter, r *http.Request) {
	entitlements, err := rt.billing.ListEntitlements(r.Context(), callerSubject(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := make([]map[string]string, 0, len(entitlements))
	for _, e := range entitlements {
		out = append(out, map[string]string{"itemCode": e.ItemCode})
	}
	writeJSON(w, http.StatusOK, out)
}
