// Package render produces the embeddable HTML for charts: positioned
// node markup, SVG connector lines, and markdown-formatted
// descriptions.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/orgkit/orgchart/internal/geometry"
	"github.com/orgkit/orgchart/internal/model"
	"github.com/orgkit/orgchart/internal/store"
)

// canvasMargin is the padding added around the outermost nodes.
const canvasMargin = 100

// Renderer renders charts to HTML.
type Renderer struct {
	md   goldmark.Markdown
	tmpl *template.Template
}

// New creates a chart renderer.
func New() (*Renderer, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	tmpl, err := template.New("chart").Parse(chartTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing chart template: %w", err)
	}
	return &Renderer{md: md, tmpl: tmpl}, nil
}

// Description converts an element's markdown description to HTML.
func (r *Renderer) Description(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering description: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// nodeView is one positioned node in the rendered chart.
type nodeView struct {
	ID          string
	Title       string
	Short       string
	Description template.HTML
	ImageURL    string
	LinkURL     string
	X, Y, W, H  int
}

// chartPage is the data handed to the chart template.
type chartPage struct {
	Chart        *store.Chart
	Config       model.DisplayConfig
	Nodes        []nodeView
	ConnectorSVG template.HTML
	CanvasW      int
	CanvasH      int
}

// Chart renders a full chart embed: positioned nodes over an SVG
// connector layer, honoring the display configuration.
func (r *Renderer) Chart(data *store.ChartData, cfg model.DisplayConfig) (template.HTML, error) {
	col := model.NewCollection(data.Chart.ID)
	col.Load(data.Elements)

	layout := make(geometry.Layout, len(data.Elements))
	var edges []geometry.Edge
	var rects []geometry.Rect
	nodes := make([]nodeView, 0, len(data.Elements))
	for _, el := range col.All() {
		rect := geometry.Rect{
			X: float64(el.PositionX),
			Y: float64(el.PositionY),
			W: geometry.NodeWidth,
			H: geometry.NodeHeight,
		}
		layout[el.ID] = rect
		rects = append(rects, rect)
		if el.ParentID != "" {
			edges = append(edges, geometry.Edge{ParentID: el.ParentID, ChildID: el.ID})
		}

		desc, err := r.Description(el.Description)
		if err != nil {
			return "", err
		}
		nodes = append(nodes, nodeView{
			ID:          el.ID,
			Title:       el.DisplayTitle(),
			Short:       el.ShortDescription(),
			Description: desc,
			ImageURL:    el.ImageURL,
			LinkURL:     el.LinkURL,
			X:           el.PositionX,
			Y:           el.PositionY,
			W:           geometry.NodeWidth,
			H:           geometry.NodeHeight,
		})
	}

	canvasW, canvasH := 0, 0
	if bounds, ok := geometry.ContentBounds(rects); ok {
		canvasW = int(bounds.X+bounds.W) + canvasMargin
		canvasH = int(bounds.Y+bounds.H) + canvasMargin
	}

	page := chartPage{
		Chart:        data.Chart,
		Config:       cfg,
		Nodes:        nodes,
		ConnectorSVG: ConnectorSVG(geometry.Connectors(edges, layout, geometry.View{}), canvasW, canvasH),
		CanvasW:      canvasW,
		CanvasH:      canvasH,
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// ConnectorSVG draws connector lines as an SVG layer sized to the
// canvas.
func ConnectorSVG(lines []geometry.ConnectorLine, w, h int) template.HTML {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="orgchart-connectors" width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, w, h)
	for _, l := range lines {
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#94a3b8" stroke-width="2"/>`,
			l.X1, l.Y1, l.X2, l.Y2)
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}
