package render

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orgkit/orgchart/internal/geometry"
	"github.com/orgkit/orgchart/internal/model"
	"github.com/orgkit/orgchart/internal/shortcode"
	"github.com/orgkit/orgchart/internal/store"
	"github.com/orgkit/orgchart/internal/viewer"
)

// RegisterRoutes mounts the embed data endpoint, the shortcode
// processor, and the admin preview page.
func RegisterRoutes(r chi.Router, st *store.Store, renderer *Renderer) {
	r.Get("/api/charts/{id}/embed", embedDataHandler(st))
	r.Post("/api/shortcode/render", shortcodeHandler(st, renderer))
	r.Get("/charts/{id}/preview", previewHandler(st, renderer))
}

// embedPayload is what the embed script bootstraps from: the chart, a
// viewing session's initial transform and connector geometry, and the
// images the lazy-loading observer should watch.
type embedPayload struct {
	Chart      *store.Chart             `json:"chart"`
	Elements   []model.Element          `json:"elements"`
	Display    model.DisplayConfig      `json:"display"`
	Transform  viewer.Transform         `json:"transform"`
	Connectors []geometry.ConnectorLine `json:"connectors"`
	LazyImages []string                 `json:"lazy_images,omitempty"`
}

// embedDataHandler serves a chart plus its resolved display settings.
// Query parameters act as per-embed overrides on top of the chart's
// theme; viewport_width/viewport_height give the embed's container
// size so the initial transform fits the chart into it.
func embedDataHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data, err := st.LoadChart(r.Context(), id)
		if err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}

		attrs := make(map[string]string)
		for key, vals := range r.URL.Query() {
			if len(vals) > 0 {
				attrs[key] = vals[0]
			}
		}
		display, err := resolveDisplay(r, st, data.Chart, attrs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		col := model.NewCollection(id)
		col.Load(data.Elements)
		vw := viewer.New(display, col)
		transform := vw.Transform()
		if wpx, hpx := queryFloat(r, "viewport_width"), queryFloat(r, "viewport_height"); wpx > 0 && hpx > 0 {
			vw.SetViewport(viewer.Viewport{W: wpx, H: hpx})
			transform = vw.FitToView()
		}

		writeJSON(w, http.StatusOK, embedPayload{
			Chart:      data.Chart,
			Elements:   data.Elements,
			Display:    display,
			Transform:  transform,
			Connectors: vw.Connectors(),
			LazyImages: vw.PendingLazyImages(),
		})
	}
}

func queryFloat(r *http.Request, key string) float64 {
	f, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return 0
	}
	return f
}

type shortcodeRequest struct {
	Text string `json:"text"`
}

type shortcodeResponse struct {
	HTML string `json:"html"`
}

// shortcodeHandler replaces org_chart tokens in a content body with
// rendered chart markup.
func shortcodeHandler(st *store.Store, renderer *Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shortcodeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		out := shortcode.ProcessTokens(req.Text, func(sc *shortcode.Shortcode) (string, error) {
			data, err := st.LoadChart(r.Context(), sc.ChartID)
			if err != nil {
				return "", err
			}
			display, err := resolveDisplay(r, st, data.Chart, sc.Attrs)
			if err != nil {
				return "", err
			}
			html, err := renderer.Chart(data, display)
			if err != nil {
				return "", err
			}
			return string(html), nil
		})
		writeJSON(w, http.StatusOK, shortcodeResponse{HTML: out})
	}
}

func previewHandler(st *store.Store, renderer *Renderer) http.HandlerFunc {
	tmpl := template.Must(template.New("preview").Parse(previewTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		data, err := st.LoadChart(r.Context(), id)
		if err != nil {
			http.Error(w, "chart not found", http.StatusNotFound)
			return
		}
		display, err := resolveDisplay(r, st, data.Chart, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body, err := renderer.Chart(data, display)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		tmpl.Execute(w, struct {
			Title string
			Body  template.HTML
		}{Title: data.Chart.Name, Body: body})
	}
}

// resolveDisplay layers the chart's theme settings and the given
// attributes over the display defaults. A theme attribute picks a
// different theme by name.
func resolveDisplay(r *http.Request, st *store.Store, chart *store.Chart, attrs map[string]string) (model.DisplayConfig, error) {
	var settings json.RawMessage
	themeID := chart.ThemeID
	if name, ok := attrs["theme"]; ok && name != "" {
		themes, err := st.ListThemes(r.Context())
		if err != nil {
			return model.DefaultDisplayConfig(), err
		}
		for _, t := range themes {
			if t.Name == name {
				themeID = t.ID
				break
			}
		}
	}
	if themeID != "" {
		theme, err := st.GetTheme(r.Context(), themeID)
		if err == nil {
			settings = theme.Settings
		}
	}
	return shortcode.ResolveDisplay(settings, attrs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
