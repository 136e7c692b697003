package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/findmelab/findme/internal/services"
)

type resultListItem struct {
	ID        string    `json:"id"`
	TestCode  string    `json:"testCode"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// GET /api/results?page=0&size=10 returns the caller's own results, newest
// first.
func (rt *Router) handleListResults(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	items, hasMore, err := rt.results.List(r.Context(), callerSubject(r), page, size)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := make([]resultListItem, 0, len(items))
	for _, res := range items {
		out = append(out, resultListItem{ID: res.ID, TestCode: res.TestCode, Score: res.Score, CreatedAt: res.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "hasMore": hasMore})
}

// GET /api/results/{id}
func (rt *Router) handleGetResult(w http.ResponseWriter, r *http.Request) {
	res, err := rt.results.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        res.ID,
		"testCode":  res.TestCode,
		"score":     res.Score,
		"traits":    res.Traits,
		"poem":      res.Attachment,
		"createdAt": res.CreatedAt,
	})
}

// GET /api/results/{id}/download returns a hi-res artifact descriptor, gated
// on the premium entitlement: anonymous callers get 401, unentitled callers
// 402.
func (rt *Router) handleDownloadResult(w http.ResponseWriter, r *http.Request) {
	subject := callerSubject(r)
	if subject == "" {
		rt.writeError(w, r, services.NewUnauthorizedError("login required for download"))
		return
	}
	res, err := rt.results.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	entitled, err := rt.billing.HasEntitlement(r.Context(), subject, PremiumDownloadItem)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if !entitled {
		rt.writeError(w, r, services.NewPaymentRequiredError("purchase required: "+PremiumDownloadItem))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resultId": res.ID,
		"item":     PremiumDownloadItem,
		"format":   "png",
		"dpi":      300,
		"url":      fmt.Sprintf("/static/hires/%s.png", res.ID),
	})
}
