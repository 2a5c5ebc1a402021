// Package transport broadcasts an engine's mutation stream to connected
// websocket viewers. Grounded on sheetcore/spreadsheet/server.go's
// Server/HandleWebSocket shape, adapted from rebroadcasting a whole cell
// table on every change to the façade's version-counter model: a client
// gets a full snapshot once on connect, then only the affected-cell
// deltas engine.Engine.Subscribe already computes.
package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"sheetcore/engine"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// UpdateMessage is the wire shape pushed to every connected client.
type UpdateMessage struct {
	Type     string           `json:"type"`
	Version  int64            `json:"version,omitempty"`
	Affected []CellUpdate     `json:"affected,omitempty"`
	Snapshot *engine.WireWorkbook `json:"snapshot,omitempty"`
}

// CellUpdate is one changed cell's current rendered value.
type CellUpdate struct {
	Sheet string      `json:"sheet"`
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	Value interface{} `json:"value,omitempty"`
}

// Server upgrades HTTP connections to websockets and fans out engine
// mutations to every connected client.
type Server struct {
	eng     *engine.Engine
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewServer subscribes to eng's mutation stream immediately.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{eng: eng, clients: make(map[*websocket.Conn]bool)}
	eng.Subscribe(s.onMutation)
	return s
}

func (s *Server) onMutation(version int64, affected []engine.CellKey) {
	updates := make([]CellUpdate, 0, len(affected))
	for _, k := range affected {
		v := s.eng.GetCellDisplayValue(k.Row, k.Col)
		updates = append(updates, CellUpdate{Sheet: k.Sheet, Row: k.Row, Col: k.Col, Value: v})
	}
	s.broadcast(UpdateMessage{Type: "update", Version: version, Affected: updates})
}

func (s *Server) broadcast(msg UpdateMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if err := client.WriteJSON(msg); err != nil {
			log.Printf("transport: write failed: %v", err)
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}

// HandleWebSocket upgrades the request and holds the connection open,
// sending a full snapshot on connect and nothing else — all further
// pushes come from onMutation via Subscribe.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("transport: upgrade error:", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	snap := s.eng.Serialize()
	if err := conn.WriteJSON(UpdateMessage{Type: "snapshot", Version: s.eng.GetVersion(), Snapshot: &snap}); err != nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req cellEditRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Println("transport: bad request:", err)
			continue
		}
		s.handleEdit(req)
	}
}

type cellEditRequest struct {
	Type    string `json:"type"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Value   string `json:"value"`
	Formula bool   `json:"formula"`
}

func (s *Server) handleEdit(req cellEditRequest) {
	if req.Type != "update_cell" {
		return
	}
	var v interface{} = req.Value
	if req.Formula {
		v = "=" + req.Value
	}
	if _, err := s.eng.SetCellValue(req.Row, req.Col, v); err != nil {
		log.Printf("transport: set cell (%d,%d) failed: %v", req.Row, req.Col, err)
	}
}
