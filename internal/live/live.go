// Package live runs builder edit sessions over a WebSocket. Each
// connection gets its own engine; the client sends edit intents and
// receives state snapshots back.
package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/orgkit/orgchart/internal/builder"
	"github.com/orgkit/orgchart/internal/geometry"
	"github.com/orgkit/orgchart/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChartService is what the gateway needs from persistence: loading a
// chart's elements and saving them back.
type ChartService interface {
	ListElements(ctx context.Context, chartID string) ([]model.Element, error)
	SaveChart(ctx context.Context, chartID string, elements []model.Element) (builder.SaveResult, error)
}

// Gateway upgrades builder connections and drives their engines.
type Gateway struct {
	svc ChartService
	cfg builder.Config
}

// NewGateway creates a builder gateway.
func NewGateway(svc ChartService, cfg builder.Config) *Gateway {
	return &Gateway{svc: svc, cfg: cfg}
}

// RegisterRoutes mounts the builder WebSocket endpoint.
func RegisterRoutes(r chi.Router, g *Gateway) {
	r.Get("/ws/builder", g.handleWebSocket)
}

// builderRequest is the incoming WebSocket message format.
type builderRequest struct {
	Type      string               `json:"type"`
	ChartID   string               `json:"chart_id,omitempty"`
	ID        string               `json:"id,omitempty"`
	X         int                  `json:"x,omitempty"`
	Y         int                  `json:"y,omitempty"`
	Fields    *model.ElementUpdate `json:"fields,omitempty"`
	Confirmed bool                 `json:"confirmed,omitempty"`
	Key       string               `json:"key,omitempty"`
	Ctrl      bool                 `json:"ctrl,omitempty"`
	InText    bool                 `json:"in_text,omitempty"`
}

// builderResponse is the outgoing WebSocket message format.
type builderResponse struct {
	Type       string                   `json:"type"` // "state", "action", or "error"
	ChartID    string                   `json:"chart_id,omitempty"`
	Elements   []model.Element          `json:"elements,omitempty"`
	Selected   string                   `json:"selected,omitempty"`
	Dirty      bool                     `json:"dirty"`
	Connectors []geometry.ConnectorLine `json:"connectors,omitempty"`
	Removed    []string                 `json:"removed,omitempty"`
	Action     string                   `json:"action,omitempty"`
	Message    string                   `json:"message,omitempty"`
}

func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	var (
		engine  *builder.Engine
		chartID string
	)
	defer func() {
		if engine != nil {
			engine.Close()
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("live: websocket read: %v", err)
			}
			return
		}

		var req builderRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			sendError(conn, "invalid message format")
			continue
		}

		if req.Type == "open" {
			if req.ChartID == "" {
				sendError(conn, "chart_id is required")
				continue
			}
			elements, err := g.svc.ListElements(r.Context(), req.ChartID)
			if err != nil {
				sendError(conn, "loading chart: "+err.Error())
				continue
			}
			if engine != nil {
				engine.Close()
			}
			col := model.NewCollection(req.ChartID)
			col.Load(elements)
			engine = builder.New(g.cfg, col, g.svc)
			engine.StartAutosave()
			chartID = req.ChartID
			sendState(conn, chartID, engine, nil)
			continue
		}

		if engine == nil {
			sendError(conn, "no chart open")
			continue
		}
		g.dispatch(conn, r, engine, chartID, req)
	}
}

func (g *Gateway) dispatch(conn *websocket.Conn, r *http.Request, engine *builder.Engine, chartID string, req builderRequest) {
	switch req.Type {
	case "select":
		if _, err := engine.Select(req.ID); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "deselect":
		engine.Deselect()
	case "add_root":
		if _, err := engine.AddRoot(); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "add_child":
		if _, err := engine.AddChild(req.ID); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "update":
		if req.Fields == nil {
			sendError(conn, "fields is required")
			return
		}
		if _, err := engine.CommitEdit(*req.Fields); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "delete":
		removed := engine.DeleteSelected(req.Confirmed)
		sendState(conn, chartID, engine, removed)
		return
	case "duplicate":
		if _, err := engine.DuplicateSelected(); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "drag_start":
		if err := engine.StartDrag(req.ID, req.X, req.Y); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "drag_move":
		if _, err := engine.DragMove(req.X, req.Y); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "drag_end":
		if _, err := engine.EndDrag(req.X, req.Y); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "save":
		if err := engine.Save(r.Context()); err != nil {
			sendError(conn, err.Error())
			return
		}
	case "key":
		action := engine.HandleKey(builder.KeyEvent{Key: req.Key, Ctrl: req.Ctrl, InTextField: req.InText})
		send(conn, builderResponse{
			Type:    "action",
			ChartID: chartID,
			Action:  actionName(action),
			Dirty:   engine.Dirty(),
		})
		return
	default:
		sendError(conn, "unknown message type: "+req.Type)
		return
	}
	sendState(conn, chartID, engine, nil)
}

func actionName(a builder.Action) string {
	switch a {
	case builder.ActionConfirmDelete:
		return "confirm_delete"
	case builder.ActionDeselected:
		return "deselected"
	case builder.ActionSave:
		return "save"
	default:
		return "none"
	}
}

func sendState(conn *websocket.Conn, chartID string, engine *builder.Engine, removed []string) {
	resp := builderResponse{
		Type:       "state",
		ChartID:    chartID,
		Elements:   engine.Elements(),
		Dirty:      engine.Dirty(),
		Connectors: engine.Connectors(),
		Removed:    removed,
	}
	if sel, ok := engine.Selected(); ok {
		resp.Selected = sel.ID
	}
	send(conn, resp)
}

func sendError(conn *websocket.Conn, message string) {
	send(conn, builderResponse{Type: "error", Message: message})
}

func send(conn *websocket.Conn, resp builderResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("live: websocket write: %v", err)
	}
}
