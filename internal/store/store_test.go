package store

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d)
}

func seedChart(t *testing.T, store *Store) *Chart {
	t.Helper()
	c := &Chart{Name: "Engineering", Description: "Engineering org"}
	if err := store.CreateChart(context.Background(), c); err != nil {
		t.Fatalf("CreateChart: %v", err)
	}
	return c
}

// --- Store CRUD tests ---

func TestCreateAndGetChart(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	c := seedChart(t, store)
	if c.ID == "" {
		t.Fatal("expected chart ID to be set")
	}

	got, err := store.GetChart(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetChart: %v", err)
	}
	if got.Name != "Engineering" {
		t.Errorf("got name %q, want %q", got.Name, "Engineering")
	}
	if got.ElementCount != 0 {
		t.Errorf("got element_count %d, want 0", got.ElementCount)
	}
}

func TestListChartsOrderedByName(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.CreateChart(ctx, &Chart{Name: "Zeta"})
	store.CreateChart(ctx, &Chart{Name: "Alpha"})

	charts, err := store.ListCharts(ctx)
	if err != nil {
		t.Fatalf("ListCharts: %v", err)
	}
	if len(charts) != 2 {
		t.Fatalf("got %d charts, want 2", len(charts))
	}
	if charts[0].Name != "Alpha" || charts[1].Name != "Zeta" {
		t.Errorf("charts not ordered by name: %v, %v", charts[0].Name, charts[1].Name)
	}
}

func TestRenameChart(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)

	if err := store.RenameChart(ctx, c.ID, "Platform"); err != nil {
		t.Fatalf("RenameChart: %v", err)
	}
	got, _ := store.GetChart(ctx, c.ID)
	if got.Name != "Platform" {
		t.Errorf("got name %q, want %q", got.Name, "Platform")
	}
	if err := store.RenameChart(ctx, "nope", "x"); err == nil {
		t.Error("expected error renaming unknown chart")
	}
}

func TestDeleteChartCascadesToElements(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)

	_, err := store.SaveElements(ctx, c.ID, []model.Element{
		{ID: model.NewTempID(), Title: "CEO", PositionX: 100, PositionY: 100},
	})
	if err != nil {
		t.Fatalf("SaveElements: %v", err)
	}

	if err := store.DeleteChart(ctx, c.ID); err != nil {
		t.Fatalf("DeleteChart: %v", err)
	}
	elements, err := store.ListElements(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("got %d orphaned elements, want 0", len(elements))
	}
}

func TestSaveElementsReplacesTempIDs(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)

	rootID := model.NewTempID()
	childID := model.NewTempID()
	persisted, err := store.SaveElements(ctx, c.ID, []model.Element{
		{ID: rootID, Title: "CEO", PositionX: 100, PositionY: 100},
		{ID: childID, ParentID: rootID, Title: "CTO", PositionX: 350, PositionY: 250, Weight: 1},
	})
	if err != nil {
		t.Fatalf("SaveElements: %v", err)
	}
	if len(persisted) != 2 {
		t.Fatalf("got %d persisted elements, want 2", len(persisted))
	}
	for _, el := range persisted {
		if model.IsTempID(el.ID) {
			t.Errorf("element %q kept its temporary id", el.Title)
		}
	}
	// The child's parent reference follows the id replacement.
	if persisted[1].ParentID != persisted[0].ID {
		t.Errorf("child parent = %q, want %q", persisted[1].ParentID, persisted[0].ID)
	}

	stored, err := store.ListElements(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("got %d stored elements, want 2", len(stored))
	}
}

func TestSaveElementsIsFullReplace(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)

	first, err := store.SaveElements(ctx, c.ID, []model.Element{
		{ID: model.NewTempID(), Title: "CEO"},
		{ID: model.NewTempID(), Title: "CTO"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Saving a smaller batch supersedes the old one entirely.
	_, err = store.SaveElements(ctx, c.ID, []model.Element{first[0]})
	if err != nil {
		t.Fatal(err)
	}
	stored, _ := store.ListElements(ctx, c.ID)
	if len(stored) != 1 || stored[0].Title != "CEO" {
		t.Errorf("stored after replace = %+v, want just CEO", stored)
	}
}

func TestSaveElementsRejectsUnknownParent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)

	_, err := store.SaveElements(ctx, c.ID, []model.Element{
		{ID: model.NewTempID(), ParentID: "not-in-batch", Title: "Orphan"},
	})
	if err == nil {
		t.Fatal("expected error for parent outside the batch")
	}
	// The failed save must not have partially applied.
	stored, _ := store.ListElements(ctx, c.ID)
	if len(stored) != 0 {
		t.Errorf("failed save left %d elements behind", len(stored))
	}
}

func TestSaveElementsUnknownChart(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.SaveElements(context.Background(), "nope", []model.Element{
		{ID: model.NewTempID(), Title: "CEO"},
	})
	if err == nil {
		t.Fatal("expected error saving to unknown chart")
	}
}

func TestSaveChartAdapter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)

	result, err := store.SaveChart(ctx, c.ID, []model.Element{
		{ID: model.NewTempID(), Title: "CEO"},
	})
	if err != nil {
		t.Fatalf("SaveChart: %v", err)
	}
	if !result.Success || len(result.Elements) != 1 {
		t.Errorf("result = %+v, want success with 1 element", result)
	}

	result, err = store.SaveChart(ctx, "nope", nil)
	if err != nil {
		t.Fatalf("SaveChart: %v", err)
	}
	if result.Success || result.Message == "" {
		t.Errorf("result = %+v, want failure with message", result)
	}
}

func TestLoadChart(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)
	store.SaveElements(ctx, c.ID, []model.Element{{ID: model.NewTempID(), Title: "CEO"}})
	store.CreateTheme(ctx, &Theme{Name: "Corporate"})

	data, err := store.LoadChart(ctx, c.ID)
	if err != nil {
		t.Fatalf("LoadChart: %v", err)
	}
	if data.Chart.ID != c.ID {
		t.Errorf("got chart %q, want %q", data.Chart.ID, c.ID)
	}
	if len(data.Elements) != 1 || len(data.Themes) != 1 {
		t.Errorf("got %d elements and %d themes, want 1 and 1", len(data.Elements), len(data.Themes))
	}
}

func TestDuplicateChart(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := seedChart(t, store)

	rootID := model.NewTempID()
	store.SaveElements(ctx, c.ID, []model.Element{
		{ID: rootID, Title: "CEO", PositionX: 100, PositionY: 100},
		{ID: model.NewTempID(), ParentID: rootID, Title: "CTO", PositionX: 350, PositionY: 250, Weight: 1},
	})

	dup, err := store.DuplicateChart(ctx, c.ID, "")
	if err != nil {
		t.Fatalf("DuplicateChart: %v", err)
	}
	if dup.Name != "Engineering (Copy)" {
		t.Errorf("got name %q, want %q", dup.Name, "Engineering (Copy)")
	}
	if dup.ID == c.ID {
		t.Error("duplicate must get its own id")
	}

	copied, _ := store.ListElements(ctx, dup.ID)
	original, _ := store.ListElements(ctx, c.ID)
	if len(copied) != 2 || len(original) != 2 {
		t.Fatalf("got %d copied and %d original elements", len(copied), len(original))
	}
	if copied[0].ID == original[0].ID {
		t.Error("copied elements must get fresh ids")
	}
	if copied[1].ParentID != copied[0].ID {
		t.Error("copied hierarchy must point at the copied parent, not the original")
	}
	if copied[0].PositionX != 150 || copied[0].PositionY != 150 {
		t.Errorf("copied root at (%d, %d), want offset (150, 150)", copied[0].PositionX, copied[0].PositionY)
	}
}

func TestThemeCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	theme := &Theme{Name: "Dark", Settings: json.RawMessage(`{"show_title": false}`)}
	if err := store.CreateTheme(ctx, theme); err != nil {
		t.Fatalf("CreateTheme: %v", err)
	}

	got, err := store.GetTheme(ctx, theme.ID)
	if err != nil {
		t.Fatalf("GetTheme: %v", err)
	}
	var settings map[string]any
	if err := json.Unmarshal(got.Settings, &settings); err != nil {
		t.Fatalf("settings round trip: %v", err)
	}
	if settings["show_title"] != false {
		t.Errorf("settings = %v", settings)
	}

	got.Name = "Darker"
	if err := store.UpdateTheme(ctx, got); err != nil {
		t.Fatalf("UpdateTheme: %v", err)
	}
	themes, _ := store.ListThemes(ctx)
	if len(themes) != 1 || themes[0].Name != "Darker" {
		t.Errorf("themes = %+v", themes)
	}

	if err := store.DeleteTheme(ctx, got.ID); err != nil {
		t.Fatalf("DeleteTheme: %v", err)
	}
	if _, err := store.GetTheme(ctx, got.ID); err == nil {
		t.Error("expected error getting deleted theme")
	}
}

func TestCreateThemeRejectsInvalidSettings(t *testing.T) {
	store := setupTestStore(t)
	err := store.CreateTheme(context.Background(), &Theme{Name: "Broken", Settings: json.RawMessage(`{nope`)})
	if err == nil {
		t.Fatal("expected error for invalid settings JSON")
	}
}

func TestStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := seedChart(t, store)
	store.CreateChart(ctx, &Chart{Name: "Sales"})
	store.SaveElements(ctx, a.ID, []model.Element{
		{ID: model.NewTempID(), Title: "CEO"},
		{ID: model.NewTempID(), Title: "CTO"},
	})
	store.CreateTheme(ctx, &Theme{Name: "Corporate"})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalCharts != 2 || stats.TotalElements != 2 || stats.TotalThemes != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.RecentCharts) != 2 {
		t.Errorf("got %d recent charts, want 2", len(stats.RecentCharts))
	}
}

func TestDeleteCharts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	a := seedChart(t, store)
	b := &Chart{Name: "Sales"}
	store.CreateChart(ctx, b)

	deleted, err := store.DeleteCharts(ctx, []string{a.ID, b.ID, "nope"})
	if err != nil {
		t.Fatalf("DeleteCharts: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	charts, _ := store.ListCharts(ctx)
	if len(charts) != 0 {
		t.Errorf("%d charts survived bulk delete", len(charts))
	}
}

// --- Route tests ---

func setupTestRouter(t *testing.T) (*Store, chi.Router) {
	t.Helper()
	store := setupTestStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return store, r
}

func TestCreateChartRoute(t *testing.T) {
	_, r := setupTestRouter(t)

	body := bytes.NewBufferString(`{"name": "Engineering"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/charts", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var c Chart
	if err := json.NewDecoder(w.Body).Decode(&c); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if c.ID == "" || c.Name != "Engineering" {
		t.Errorf("chart = %+v", c)
	}
}

func TestCreateChartRouteRequiresName(t *testing.T) {
	_, r := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/charts", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSaveChartRoute(t *testing.T) {
	store, r := setupTestRouter(t)
	c := seedChart(t, store)

	payload := saveChartRequest{Elements: []model.Element{
		{ID: model.NewTempID(), Title: "CEO", PositionX: 100, PositionY: 100},
	}}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/charts/"+c.ID+"/save", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var result struct {
		Success  bool            `json:"success"`
		Elements []model.Element `json:"elements"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !result.Success || len(result.Elements) != 1 {
		t.Errorf("result = %+v", result)
	}
	if model.IsTempID(result.Elements[0].ID) {
		t.Error("response should carry persisted ids")
	}
}

func TestSaveChartRouteFailure(t *testing.T) {
	_, r := setupTestRouter(t)

	body, _ := json.Marshal(saveChartRequest{Elements: []model.Element{{ID: model.NewTempID()}}})
	req := httptest.NewRequest(http.MethodPost, "/api/charts/nope/save", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGetChartRouteReturnsFullPayload(t *testing.T) {
	store, r := setupTestRouter(t)
	c := seedChart(t, store)
	store.SaveElements(context.Background(), c.ID, []model.Element{{ID: model.NewTempID(), Title: "CEO"}})

	req := httptest.NewRequest(http.MethodGet, "/api/charts/"+c.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var data ChartData
	if err := json.NewDecoder(w.Body).Decode(&data); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if data.Chart == nil || len(data.Elements) != 1 {
		t.Errorf("payload = %+v", data)
	}
}

func TestDuplicateChartRoute(t *testing.T) {
	store, r := setupTestRouter(t)
	c := seedChart(t, store)

	req := httptest.NewRequest(http.MethodPost, "/api/charts/"+c.ID+"/duplicate", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var dup Chart
	json.NewDecoder(w.Body).Decode(&dup)
	if dup.Name != "Engineering (Copy)" {
		t.Errorf("got name %q", dup.Name)
	}
}

func TestBulkDeleteRoute(t *testing.T) {
	store, r := setupTestRouter(t)
	a := seedChart(t, store)

	body, _ := json.Marshal(map[string][]string{"ids": {a.ID}})
	req := httptest.NewRequest(http.MethodPost, "/api/charts/bulk-delete", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]int
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["deleted"] != 1 {
		t.Errorf("deleted = %d, want 1", resp["deleted"])
	}
}

func TestBulkDuplicateRoute(t *testing.T) {
	store, r := setupTestRouter(t)
	a := seedChart(t, store)

	body, _ := json.Marshal(map[string][]string{"ids": {a.ID}})
	req := httptest.NewRequest(http.MethodPost, "/api/charts/bulk-duplicate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var copies []Chart
	json.NewDecoder(w.Body).Decode(&copies)
	if len(copies) != 1 || copies[0].Name != "Engineering (Copy)" {
		t.Errorf("copies = %+v", copies)
	}
}

func TestShortcodeDataRoute(t *testing.T) {
	store, r := setupTestRouter(t)
	c := seedChart(t, store)
	theme := &Theme{Name: "Corporate"}
	if err := store.CreateTheme(context.Background(), theme); err != nil {
		t.Fatalf("CreateTheme: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/shortcode-data", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var payload struct {
		Charts []ref `json:"charts"`
		Themes []ref `json:"themes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Charts) != 1 || payload.Charts[0].ID != c.ID {
		t.Errorf("charts = %+v", payload.Charts)
	}
	if len(payload.Themes) != 1 || payload.Themes[0].Name != "Corporate" {
		t.Errorf("themes = %+v", payload.Themes)
	}
}

func TestStatsRoute(t *testing.T) {
	store, r := setupTestRouter(t)
	seedChart(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var stats Stats
	json.NewDecoder(w.Body).Decode(&stats)
	if stats.TotalCharts != 1 {
		t.Errorf("total_charts = %d, want 1", stats.TotalCharts)
	}
}
