package store

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgkit/orgchart/internal/model"
)

// RegisterRoutes mounts chart and theme endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Get("/api/charts", listChartsHandler(store))
	r.Post("/api/charts", createChartHandler(store))
	r.Post("/api/charts/bulk-delete", bulkDeleteHandler(store))
	r.Post("/api/charts/bulk-duplicate", bulkDuplicateHandler(store))
	r.Get("/api/charts/{id}", getChartHandler(store))
	r.Put("/api/charts/{id}", updateChartHandler(store))
	r.Delete("/api/charts/{id}", deleteChartHandler(store))
	r.Get("/api/charts/{id}/elements", listElementsHandler(store))
	r.Post("/api/charts/{id}/elements", addElementHandler(store))
	r.Get("/api/charts/{id}/elements/{elementID}", getElementHandler(store))
	r.Put("/api/charts/{id}/elements/{elementID}", updateElementHandler(store))
	r.Delete("/api/charts/{id}/elements/{elementID}", deleteElementHandler(store))
	r.Post("/api/charts/{id}/elements/{elementID}/move", moveElementHandler(store))
	r.Post("/api/charts/{id}/elements/{elementID}/duplicate", duplicateElementHandler(store))
	r.Post("/api/charts/{id}/save", saveChartHandler(store))
	r.Post("/api/charts/{id}/duplicate", duplicateChartHandler(store))
	r.Post("/api/charts/{id}/rename", renameChartHandler(store))
	r.Get("/api/stats", statsHandler(store))
	r.Get("/api/shortcode-data", shortcodeDataHandler(store))

	r.Get("/api/themes", listThemesHandler(store))
	r.Post("/api/themes", createThemeHandler(store))
	r.Get("/api/themes/{id}", getThemeHandler(store))
	r.Put("/api/themes/{id}", updateThemeHandler(store))
	r.Delete("/api/themes/{id}", deleteThemeHandler(store))
}

func listChartsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		charts, err := store.ListCharts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if charts == nil {
			charts = []Chart{}
		}
		writeJSON(w, http.StatusOK, charts)
	}
}

func createChartHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Chart
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if c.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := store.CreateChart(r.Context(), &c); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func getChartHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data, err := store.LoadChart(r.Context(), id)
		if err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func updateChartHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var c Chart
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		c.ID = id
		if err := store.UpdateChart(r.Context(), &c); err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteChartHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.DeleteChart(r.Context(), id); err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func listElementsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		elements, err := store.ListElements(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if elements == nil {
			elements = []model.Element{}
		}
		writeJSON(w, http.StatusOK, elements)
	}
}

func addElementHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chartID := chi.URLParam(r, "id")
		var el model.Element
		if err := json.NewDecoder(r.Body).Decode(&el); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if el.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		if err := store.AddElement(r.Context(), chartID, &el); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, el)
	}
}

func getElementHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		el, err := store.GetElement(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "elementID"))
		if err != nil {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, el)
	}
}

func updateElementHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chartID := chi.URLParam(r, "id")
		var el model.Element
		if err := json.NewDecoder(r.Body).Decode(&el); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		el.ID = chi.URLParam(r, "elementID")
		if err := store.UpdateElement(r.Context(), chartID, &el); err != nil {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, el)
	}
}

func deleteElementHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := store.DeleteElement(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "elementID"))
		if err != nil {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "removed": removed})
	}
}

func moveElementHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			X int `json:"x"`
			Y int `json:"y"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		err := store.MoveElement(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "elementID"), req.X, req.Y)
		if err != nil {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func duplicateElementHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dup, err := store.DuplicateElement(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "elementID"))
		if err != nil {
			http.Error(w, "element not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusCreated, dup)
	}
}

type saveChartRequest struct {
	Elements []model.Element `json:"elements"`
}

func saveChartHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req saveChartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		result, err := store.SaveChart(r.Context(), id, req.Elements)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !result.Success {
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func duplicateChartHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Name string `json:"name"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}
		}
		dup, err := store.DuplicateChart(r.Context(), id, req.Name)
		if err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusCreated, dup)
	}
}

func renameChartHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := store.RenameChart(r.Context(), id, req.Name); err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func bulkDeleteHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		deleted, err := store.DeleteCharts(r.Context(), req.IDs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
	}
}

func bulkDuplicateHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		copies := make([]Chart, 0, len(req.IDs))
		for _, id := range req.IDs {
			dup, err := store.DuplicateChart(r.Context(), id, "")
			if err != nil {
				http.Error(w, "chart not found: "+id, http.StatusNotFound)
				return
			}
			copies = append(copies, *dup)
		}
		writeJSON(w, http.StatusCreated, copies)
	}
}

// ref is the id/name pair the shortcode generator dialog lists.
type ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func shortcodeDataHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		charts, err := store.ListCharts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		themes, err := store.ListThemes(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		payload := struct {
			Charts []ref `json:"charts"`
			Themes []ref `json:"themes"`
		}{Charts: []ref{}, Themes: []ref{}}
		for _, c := range charts {
			payload.Charts = append(payload.Charts, ref{ID: c.ID, Name: c.Name})
		}
		for _, t := range themes {
			payload.Themes = append(payload.Themes, ref{ID: t.ID, Name: t.Name})
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func statsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Stats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func listThemesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		themes, err := store.ListThemes(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if themes == nil {
			themes = []Theme{}
		}
		writeJSON(w, http.StatusOK, themes)
	}
}

func createThemeHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t Theme
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if t.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := store.CreateTheme(r.Context(), &t); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func getThemeHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		theme, err := store.GetTheme(r.Context(), id)
		if err != nil {
			http.Error(w, "theme not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, theme)
	}
}

func updateThemeHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var t Theme
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		t.ID = id
		if err := store.UpdateTheme(r.Context(), &t); err != nil {
			http.Error(w, "theme not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteThemeHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.DeleteTheme(r.Context(), id); err != nil {
			http.Error(w, "theme not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
