// Package export serializes charts to downloadable JSON, CSV, and XML
// files, and imports charts back from JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/orgkit/orgchart/internal/model"
	"github.com/orgkit/orgchart/internal/store"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// ParseFormat validates a format string; empty defaults to JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXML:
		return FormatXML, nil
	}
	return "", fmt.Errorf("parsing export format: unsupported format %q", s)
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXML:
		return "application/xml"
	default:
		return "application/json"
	}
}

// Document is the portable chart representation used by JSON export
// and import.
type Document struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Elements    []model.Element `json:"elements"`
}

// Write serializes the chart in the given format.
func Write(w io.Writer, data *store.ChartData, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, data)
	case FormatCSV:
		return writeCSV(w, data)
	case FormatXML:
		return writeXML(w, data)
	}
	return fmt.Errorf("exporting chart: unsupported format %q", format)
}

func writeJSON(w io.Writer, data *store.ChartData) error {
	doc := Document{
		Name:        data.Chart.Name,
		Description: data.Chart.Description,
		Elements:    data.Elements,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("exporting JSON: %w", err)
	}
	return nil
}

var csvHeader = []string{"id", "parent_id", "title", "description", "image_url", "link_url", "position_x", "position_y", "weight"}

func writeCSV(w io.Writer, data *store.ChartData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("exporting CSV: %w", err)
	}
	for _, el := range data.Elements {
		record := []string{
			el.ID,
			el.ParentID,
			el.Title,
			el.Description,
			el.ImageURL,
			el.LinkURL,
			strconv.Itoa(el.PositionX),
			strconv.Itoa(el.PositionY),
			strconv.Itoa(el.Weight),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("exporting CSV: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type xmlElement struct {
	ID          string `xml:"id,attr"`
	ParentID    string `xml:"parent_id,attr,omitempty"`
	Title       string `xml:"title"`
	Description string `xml:"description,omitempty"`
	ImageURL    string `xml:"image_url,omitempty"`
	LinkURL     string `xml:"link_url,omitempty"`
	PositionX   int    `xml:"position_x"`
	PositionY   int    `xml:"position_y"`
	Weight      int    `xml:"weight"`
}

type xmlChart struct {
	XMLName     xml.Name     `xml:"chart"`
	ID          string       `xml:"id,attr"`
	Name        string       `xml:"name"`
	Description string       `xml:"description,omitempty"`
	Elements    []xmlElement `xml:"elements>element"`
}

func writeXML(w io.Writer, data *store.ChartData) error {
	doc := xmlChart{
		ID:          data.Chart.ID,
		Name:        data.Chart.Name,
		Description: data.Chart.Description,
	}
	for _, el := range data.Elements {
		doc.Elements = append(doc.Elements, xmlElement{
			ID:          el.ID,
			ParentID:    el.ParentID,
			Title:       el.Title,
			Description: el.Description,
			ImageURL:    el.ImageURL,
			LinkURL:     el.LinkURL,
			PositionX:   el.PositionX,
			PositionY:   el.PositionY,
			Weight:      el.Weight,
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("exporting XML: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("exporting XML: %w", err)
	}
	return enc.Close()
}

// ReadJSON parses a previously exported JSON document. Element ids are
// rewritten to temporary ids so SaveElements mints fresh ones, with
// parent references remapped alongside.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("importing chart: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("importing chart: name is required")
	}

	idMap := make(map[string]string, len(doc.Elements))
	for _, el := range doc.Elements {
		if el.ID == "" {
			return nil, fmt.Errorf("importing chart: element without id")
		}
		idMap[el.ID] = model.NewTempID()
	}
	for i := range doc.Elements {
		doc.Elements[i].ID = idMap[doc.Elements[i].ID]
		if pid := doc.Elements[i].ParentID; pid != "" {
			mapped, ok := idMap[pid]
			if !ok {
				return nil, fmt.Errorf("importing chart: element references unknown parent %s", pid)
			}
			doc.Elements[i].ParentID = mapped
		}
	}
	return &doc, nil
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds a safe download filename from a chart name.
func Filename(chartName string, format Format) string {
	name := unsafeFilenameRe.ReplaceAllString(strings.ToLower(chartName), "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "chart"
	}
	return name + "." + string(format)
}
