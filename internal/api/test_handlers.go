package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/findmelab/findme/internal/models"
	"github.com/findmelab/findme/internal/services"
)

type questionView struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

type testView struct {
	Code      string         `json:"code"`
	Title     string         `json:"title"`
	Questions []questionView `json:"questions"`
}

// GET /api/tests/{code} serves the public view of the active definition.
// Reverse flags and scoring rules stay server-side.
func (rt *Router) handleGetTest(w http.ResponseWriter, r *http.Request) {
	def, err := rt.definitions.GetActive(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := testView{Code: def.Code, Title: def.Title, Questions: make([]questionView, 0, len(def.Questions))}
	for _, q := range def.Questions {
		out.Questions = append(out.Questions, questionView{ID: q.ID, Body: q.Body})
	}
	writeJSON(w, http.StatusOK, out)
}

type submitRequest struct {
	Answers []models.Answer `json:"answers"`
	Poem    string          `json:"poem"`
}

// POST /api/tests/{code}/submit
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	result, err := rt.submissions.Submit(r.Context(), chi.URLParam(r, "code"), callerSubject(r), req.Answers, req.Poem)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"resultId": result.ID,
		"score":    result.Score,
		"traits":   result.Traits,
	})
}

// POST /api/admin/tests
func (rt *Router) handleImportDefinition(w http.ResponseWriter, r *http.Request) {
	var req services.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	def, err := rt.definitions.Import(r.Context(), req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, definitionView(def))
}

// GET /api/admin/tests/{code}/versions
func (rt *Router) handleListVersions(w http.ResponseWriter, r *http.Request) {
	defs, err := rt.definitions.ListVersions(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(defs))
	for _, d := range defs {
		out = append(out, definitionView(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": out})
}

// POST /api/admin/tests/{code}/versions/{version}/publish
func (rt *Router) handlePublish(w http.ResponseWriter, r *http.Request) {
	code, version, err := pathCodeVersion(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.definitions.Publish(r.Context(), code, version); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /api/admin/tests/{code}/versions/{version}/archive
func (rt *Router) handleArchive(w http.ResponseWriter, r *http.Request) {
	code, version, err := pathCodeVersion(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	if err := rt.definitions.Archive(r.Context(), code, version); err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func pathCodeVersion(r *http.Request) (string, int, error) {
	code := chi.URLParam(r, "code")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		return "", 0, services.NewInvalidError("version: must be an integer")
	}
	return code, version, nil
}

func definitionView(d *models.TestDefinition) map[string]any {
	return map[string]any{
		"code":      d.Code,
		"version":   d.Version,
		"status":    d.Status,
		"title":     d.Title,
		"questions": d.Questions,
		"scoring":   d.Scoring,
		"createdAt": d.CreatedAt,
		"updatedAt": d.UpdatedAt,
	}
}
