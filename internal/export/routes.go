package export

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgkit/orgchart/internal/store"
)

// RegisterRoutes mounts export download and import endpoints.
func RegisterRoutes(r chi.Router, st *store.Store) {
	r.Get("/api/charts/{id}/export", exportHandler(st))
	r.Post("/api/charts/import", importHandler(st))
}

func exportHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		format, err := ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := st.LoadChart(r.Context(), id)
		if err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", Filename(data.Chart.Name, format)))
		if err := Write(w, data, format); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func importHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := ReadJSON(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		chart := &store.Chart{Name: doc.Name, Description: doc.Description}
		if err := st.CreateChart(r.Context(), chart); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := st.SaveElements(r.Context(), chart.ID, doc.Elements); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		chart.ElementCount = len(doc.Elements)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(chart)
	}
}
