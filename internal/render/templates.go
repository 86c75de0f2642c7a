package render

// chartTemplate is the Go html/template for one chart embed. The
// inline styles carry the per-embed display configuration; everything
// else comes from the site stylesheet.
const chartTemplate = `<div class="orgchart-embed" data-chart-id="{{.Chart.ID}}" style="max-width: {{.Config.MaxWidth}}; max-height: {{.Config.MaxHeight}};{{if .Config.HorizontalScroll}} overflow-x: auto;{{end}}">
{{- if .Config.ShowTitle}}
  <h3 class="orgchart-title">{{.Chart.Name}}</h3>
{{- end}}
{{- if .Config.ShowControls}}
  <div class="orgchart-controls">
    <button class="orgchart-zoom-in" aria-label="Zoom in">+</button>
    <button class="orgchart-zoom-out" aria-label="Zoom out">&minus;</button>
    <button class="orgchart-zoom-reset" aria-label="Reset zoom">1:1</button>
    <button class="orgchart-fit" aria-label="Fit to view">Fit</button>
{{- if .Config.EnableFullscreen}}
    <button class="orgchart-fullscreen" aria-label="Toggle fullscreen">&#x26F6;</button>
{{- end}}
  </div>
{{- end}}
  <div class="orgchart-canvas" style="width: {{.CanvasW}}px; height: {{.CanvasH}}px;"{{if .Config.AnimationEnabled}} data-animation-duration="{{.Config.AnimationDuration}}"{{end}}>
    {{.ConnectorSVG}}
{{- range .Nodes}}
    <div class="orgchart-node" data-node-id="{{.ID}}" style="left: {{.X}}px; top: {{.Y}}px; width: {{.W}}px; height: {{.H}}px;">
{{- if .ImageURL}}
      <img class="orgchart-node-image"{{if $.Config.LazyLoading}} loading="lazy"{{end}} src="{{.ImageURL}}" alt="{{.Title}}">
{{- end}}
{{- if .LinkURL}}
      <a class="orgchart-node-title" href="{{.LinkURL}}">{{.Title}}</a>
{{- else}}
      <span class="orgchart-node-title">{{.Title}}</span>
{{- end}}
{{- if .Short}}
      <span class="orgchart-node-summary">{{.Short}}</span>
{{- end}}
{{- if .Description}}
      <div class="orgchart-node-detail" hidden>{{.Description}}</div>
{{- end}}
    </div>
{{- end}}
  </div>
</div>
`

// previewTemplate wraps a rendered chart in a minimal standalone page
// for the admin preview.
const previewTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} — Preview</title>
</head>
<body>
{{.Body}}
</body>
</html>
`
