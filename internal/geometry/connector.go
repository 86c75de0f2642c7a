package geometry

// Layout maps element ids to their rendered boxes in viewport
// coordinates.
type Layout map[string]Rect

// Edge is a parent/child relationship to draw a connector for.
type Edge struct {
	ParentID string
	ChildID  string
}

// ConnectorLine is a computed connector, tagged with the edge it draws.
type ConnectorLine struct {
	ParentID string `json:"from"`
	ChildID  string `json:"to"`
	Line
}

// Connectors computes connector lines for every edge whose endpoints
// are both present in the layout. Edges with an unrendered endpoint are
// skipped silently. Output order follows input order, so recomputation
// over an unchanged layout yields identical results.
func Connectors(edges []Edge, layout Layout, view View) []ConnectorLine {
	lines := make([]ConnectorLine, 0, len(edges))
	for _, e := range edges {
		parent, ok := layout[e.ParentID]
		if !ok {
			continue
		}
		child, ok := layout[e.ChildID]
		if !ok {
			continue
		}
		lines = append(lines, ConnectorLine{
			ParentID: e.ParentID,
			ChildID:  e.ChildID,
			Line:     Connector(parent, child, view),
		})
	}
	return lines
}
