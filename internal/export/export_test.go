package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/orgkit/orgchart/internal/db"
	"github.com/orgkit/orgchart/internal/model"
	"github.com/orgkit/orgchart/internal/store"
)

func setupExportTest(t *testing.T) (*store.Store, *store.ChartData) {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	st := store.NewStore(d)

	ctx := context.Background()
	c := &store.Chart{Name: "Engineering Org", Description: "for export"}
	if err := st.CreateChart(ctx, c); err != nil {
		t.Fatal(err)
	}
	rootID := model.NewTempID()
	_, err = st.SaveElements(ctx, c.ID, []model.Element{
		{ID: rootID, Title: "CEO", PositionX: 100, PositionY: 100},
		{ID: model.NewTempID(), ParentID: rootID, Title: "CTO, Platform", PositionX: 350, PositionY: 250, Weight: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := st.LoadChart(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	return st, data
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{"xml", FormatXML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	_, data := setupExportTest(t)

	var buf bytes.Buffer
	if err := Write(&buf, data, FormatJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}

	doc, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if doc.Name != "Engineering Org" || len(doc.Elements) != 2 {
		t.Errorf("doc = %+v", doc)
	}
	// Imported ids are fresh temporaries with the hierarchy intact.
	for _, el := range doc.Elements {
		if !model.IsTempID(el.ID) {
			t.Errorf("imported element id %q should be temporary", el.ID)
		}
	}
	if doc.Elements[1].ParentID != doc.Elements[0].ID {
		t.Error("imported hierarchy broken")
	}
}

func TestWriteCSV(t *testing.T) {
	_, data := setupExportTest(t)

	var buf bytes.Buffer
	if err := Write(&buf, data, FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}
	if records[0][0] != "id" || records[0][2] != "title" {
		t.Errorf("header = %v", records[0])
	}
	// The comma in the title survives CSV quoting.
	if records[2][2] != "CTO, Platform" {
		t.Errorf("title = %q", records[2][2])
	}
	if records[1][6] != "100" || records[2][8] != "1" {
		t.Errorf("numeric columns wrong: %v / %v", records[1], records[2])
	}
}

func TestWriteXML(t *testing.T) {
	_, data := setupExportTest(t)

	var buf bytes.Buffer
	if err := Write(&buf, data, FormatXML); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<?xml") {
		t.Error("missing XML header")
	}
	if !strings.Contains(out, "<name>Engineering Org</name>") {
		t.Errorf("chart name missing:\n%s", out)
	}
	if !strings.Contains(out, "<title>CEO</title>") || !strings.Contains(out, "<position_x>100</position_x>") {
		t.Errorf("element data missing:\n%s", out)
	}
}

func TestReadJSONErrors(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader(`{broken`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := ReadJSON(strings.NewReader(`{"elements": []}`)); err == nil {
		t.Error("expected error when name is missing")
	}
	bad := `{"name": "x", "elements": [{"id": "a", "parent_id": "ghost", "title": "orphan"}]}`
	if _, err := ReadJSON(strings.NewReader(bad)); err == nil {
		t.Error("expected error for unknown parent reference")
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{"Engineering Org", FormatJSON, "engineering-org.json"},
		{"Sales & Marketing (2026)", FormatCSV, "sales-marketing-2026.csv"},
		{"///", FormatXML, "chart.xml"},
	}
	for _, tt := range tests {
		if got := Filename(tt.name, tt.format); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExportRoute(t *testing.T) {
	st, data := setupExportTest(t)
	r := chi.NewRouter()
	RegisterRoutes(r, st)

	req := httptest.NewRequest(http.MethodGet, "/api/charts/"+data.Chart.ID+"/export?format=csv", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="engineering-org.csv"`) {
		t.Errorf("content disposition = %q", cd)
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/charts/"+data.Chart.ID+"/export?format=pdf", nil)
	bw := httptest.NewRecorder()
	r.ServeHTTP(bw, bad)
	if bw.Code != http.StatusBadRequest {
		t.Errorf("status for bad format = %d, want 400", bw.Code)
	}
}

func TestImportRoute(t *testing.T) {
	st, data := setupExportTest(t)
	r := chi.NewRouter()
	RegisterRoutes(r, st)

	var buf bytes.Buffer
	if err := Write(&buf, data, FormatJSON); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/charts/import", &buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var created store.Chart
	json.NewDecoder(w.Body).Decode(&created)
	if created.ID == data.Chart.ID {
		t.Error("import must create a new chart")
	}
	if created.ElementCount != 2 {
		t.Errorf("element count = %d, want 2", created.ElementCount)
	}

	elements, err := st.ListElements(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(elements) != 2 {
		t.Fatalf("got %d imported elements, want 2", len(elements))
	}
	for _, el := range elements {
		if model.IsTempID(el.ID) {
			t.Error("stored import should have persisted ids")
		}
	}
}
