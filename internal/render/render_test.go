package render

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/geometry"
	"github.com/orgkit/orgchart/internal/model"
	"github.com/orgkit/orgchart/internal/store"
)

func setupRenderTest(t *testing.T) (*store.Store, *Renderer, *store.Chart) {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	st := store.NewStore(d)

	c := &store.Chart{Name: "Engineering"}
	if err := st.CreateChart(context.Background(), c); err != nil {
		t.Fatalf("CreateChart: %v", err)
	}
	rootID := model.NewTempID()
	_, err = st.SaveElements(context.Background(), c.ID, []model.Element{
		{ID: rootID, Title: "CEO", Description: "Runs **everything**", ImageURL: "/uploads/ceo.png", PositionX: 100, PositionY: 100},
		{ID: model.NewTempID(), ParentID: rootID, Title: "CTO", LinkURL: "https://example.com/cto", PositionX: 350, PositionY: 250, Weight: 1},
	})
	if err != nil {
		t.Fatalf("SaveElements: %v", err)
	}

	renderer, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return st, renderer, c
}

func TestDescriptionMarkdown(t *testing.T) {
	_, renderer, _ := setupRenderTest(t)

	out, err := renderer.Description("Runs **everything** and `deploys`")
	if err != nil {
		t.Fatalf("Description: %v", err)
	}
	if !strings.Contains(string(out), "<strong>everything</strong>") {
		t.Errorf("bold not rendered: %s", out)
	}
	if !strings.Contains(string(out), "<code>deploys</code>") {
		t.Errorf("inline code not rendered: %s", out)
	}

	empty, err := renderer.Description("")
	if err != nil || empty != "" {
		t.Errorf("empty description = %q, %v", empty, err)
	}
}

func TestChartMarkup(t *testing.T) {
	st, renderer, c := setupRenderTest(t)
	data, err := st.LoadChart(context.Background(), c.ID)
	if err != nil {
		t.Fatal(err)
	}

	out, err := renderer.Chart(data, model.DefaultDisplayConfig())
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	html := string(out)

	if !strings.Contains(html, `<h3 class="orgchart-title">Engineering</h3>`) {
		t.Error("title missing")
	}
	if !strings.Contains(html, "left: 100px; top: 100px") {
		t.Error("root node not positioned at (100, 100)")
	}
	if !strings.Contains(html, "left: 350px; top: 250px") {
		t.Error("child node not positioned at (350, 250)")
	}
	if !strings.Contains(html, `x1="225.0" y1="220.0" x2="475.0" y2="250.0"`) {
		t.Errorf("connector line missing or mispositioned:\n%s", html)
	}
	if !strings.Contains(html, `loading="lazy"`) {
		t.Error("lazy loading attribute missing")
	}
	if !strings.Contains(html, `href="https://example.com/cto"`) {
		t.Error("node link missing")
	}
	if !strings.Contains(html, "<strong>everything</strong>") {
		t.Error("markdown description not rendered")
	}
	if !strings.Contains(html, "orgchart-fullscreen") {
		t.Error("fullscreen control missing with default config")
	}
}

func TestChartRespectsDisplayConfig(t *testing.T) {
	st, renderer, c := setupRenderTest(t)
	data, _ := st.LoadChart(context.Background(), c.ID)

	cfg := model.DefaultDisplayConfig()
	cfg.ShowTitle = false
	cfg.ShowControls = false
	cfg.LazyLoading = false

	out, err := renderer.Chart(data, cfg)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	if strings.Contains(html, "orgchart-title") {
		t.Error("title rendered despite show_title=false")
	}
	if strings.Contains(html, "orgchart-controls") {
		t.Error("controls rendered despite show_controls=false")
	}
	if strings.Contains(html, `loading="lazy"`) {
		t.Error("lazy attribute rendered despite lazy_loading=false")
	}
}

func TestConnectorSVG(t *testing.T) {
	svg := string(ConnectorSVG([]geometry.ConnectorLine{
		{ParentID: "a", ChildID: "b", Line: geometry.Line{X1: 225, Y1: 220, X2: 475, Y2: 250}},
	}, 800, 600))

	if !strings.Contains(svg, `width="800" height="600"`) {
		t.Errorf("svg not sized to canvas: %s", svg)
	}
	if !strings.Contains(svg, `<line x1="225.0" y1="220.0" x2="475.0" y2="250.0"`) {
		t.Errorf("line missing: %s", svg)
	}
}

func setupRenderRouter(t *testing.T) (*store.Store, chi.Router, *store.Chart) {
	t.Helper()
	st, renderer, c := setupRenderTest(t)
	r := chi.NewRouter()
	RegisterRoutes(r, st, renderer)
	return st, r, c
}

func TestEmbedDataRoute(t *testing.T) {
	_, r, c := setupRenderRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/charts/"+c.ID+"/embed?show_title=false", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var payload embedPayload
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Chart.ID != c.ID || len(payload.Elements) != 2 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.Display.ShowTitle {
		t.Error("query override show_title=false not applied")
	}
	if !payload.Display.ShowControls {
		t.Error("untouched display keys should keep their defaults")
	}
	if payload.Transform.Zoom != 1.0 || payload.Transform.PanX != 0 {
		t.Errorf("transform without a viewport = %+v, want identity", payload.Transform)
	}
	if len(payload.Connectors) != 1 {
		t.Errorf("%d connectors, want 1", len(payload.Connectors))
	}
	if len(payload.LazyImages) != 1 {
		t.Errorf("lazy images = %v, want just the element with an image", payload.LazyImages)
	}
}

func TestEmbedDataRouteFitsViewport(t *testing.T) {
	_, r, c := setupRenderRouter(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/charts/"+c.ID+"/embed?viewport_width=450&viewport_height=243", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var payload embedPayload
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// Content spans (100,100)-(600,370): 500x270. Fit scale is
	// min(450/500, 243/270, 1) with the margin, and content centers.
	if !approxf(payload.Transform.Zoom, 0.81) {
		t.Errorf("fit zoom = %v, want 0.81", payload.Transform.Zoom)
	}
	if !approxf(payload.Transform.PanX, -58.5) || !approxf(payload.Transform.PanY, -68.85) {
		t.Errorf("fit pan = (%v, %v), want (-58.5, -68.85)",
			payload.Transform.PanX, payload.Transform.PanY)
	}
}

func approxf(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func TestEmbedDataRouteAppliesTheme(t *testing.T) {
	st, r, c := setupRenderRouter(t)
	theme := &store.Theme{Name: "minimal", Settings: json.RawMessage(`{"show_controls": false}`)}
	if err := st.CreateTheme(context.Background(), theme); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/charts/"+c.ID+"/embed?theme=minimal", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var payload embedPayload
	json.NewDecoder(w.Body).Decode(&payload)
	if payload.Display.ShowControls {
		t.Error("theme settings not applied")
	}
}

func TestShortcodeRoute(t *testing.T) {
	_, r, c := setupRenderRouter(t)

	body, _ := json.Marshal(shortcodeRequest{
		Text: "Before\n\n[org_chart chart_id=" + c.ID + " show_title=false]\n\n[org_chart chart_id=missing]\n\nAfter",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/shortcode/render", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp shortcodeResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !strings.Contains(resp.HTML, "orgchart-embed") {
		t.Error("valid token not replaced with chart markup")
	}
	if strings.Contains(resp.HTML, "orgchart-title") {
		t.Error("show_title=false attribute not honored")
	}
	if !strings.Contains(resp.HTML, "[org_chart chart_id=missing]") {
		t.Error("token for a missing chart should pass through untouched")
	}
	if !strings.Contains(resp.HTML, "Before") || !strings.Contains(resp.HTML, "After") {
		t.Error("surrounding text must be preserved")
	}
}

func TestPreviewRoute(t *testing.T) {
	_, r, c := setupRenderRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/charts/"+c.ID+"/preview", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	html := w.Body.String()
	if !strings.Contains(html, "<!DOCTYPE html>") || !strings.Contains(html, "orgchart-embed") {
		t.Errorf("preview page malformed:\n%s", html)
	}

	missing := httptest.NewRequest(http.MethodGet, "/charts/nope/preview", nil)
	mw := httptest.NewRecorder()
	r.ServeHTTP(mw, missing)
	if mw.Code != http.StatusNotFound {
		t.Errorf("status for missing chart = %d, want 404", mw.Code)
	}
}
