package telemetry

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// event is the wire format broadcast to connected debug clients: a
// tagged union keyed by Kind so a single JSON stream carries every Sink
// event type.
type event struct {
	Kind           string  `json:"kind"`
	TrackID        string  `json:"track_id,omitempty"`
	ClassID        int     `json:"class_id,omitempty"`
	DetectionIndex int     `json:"detection_index,omitempty"`
	X              float32 `json:"x,omitempty"`
	Y              float32 `json:"y,omitempty"`
	W              float32 `json:"w,omitempty"`
	H              float32 `json:"h,omitempty"`
	Radius         float32 `json:"radius,omitempty"`
	Cost           float32 `json:"cost,omitempty"`
	Accepted       bool    `json:"accepted,omitempty"`
	PredX          float32 `json:"pred_x,omitempty"`
	PredY          float32 `json:"pred_y,omitempty"`
	MeasX          float32 `json:"meas_x,omitempty"`
	MeasY          float32 `json:"meas_y,omitempty"`
	Residual       float32 `json:"residual,omitempty"`
}

// WebSocketSink broadcasts frame telemetry as JSON to every connected
// debug client over a gorilla/websocket hub. It is enabled only once at
// least one client has connected, so a host with no attached debugger
// pays only the IsEnabled() check.
type WebSocketSink struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewWebSocketSink constructs an empty hub; call ServeHTTP from an
// http.ServeMux to accept debug-client connections.
func NewWebSocketSink() *WebSocketSink {
	return &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades an incoming request to a websocket connection and
// registers it as a telemetry subscriber until it disconnects.
func (s *WebSocketSink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer s.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *WebSocketSink) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *WebSocketSink) broadcast(e event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(s.clients, conn)
			conn.Close()
		}
	}
}

// IsEnabled reports whether at least one debug client is connected.
func (s *WebSocketSink) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients) > 0
}

func (s *WebSocketSink) RecordPrediction(trackID string, classID int, x, y, w, h float32) {
	s.broadcast(event{Kind: "prediction", TrackID: trackID, ClassID: classID, X: x, Y: y, W: w, H: h})
}

func (s *WebSocketSink) RecordAssociation(detectionIndex int, trackID string, cost float32, accepted bool) {
	s.broadcast(event{Kind: "association", DetectionIndex: detectionIndex, TrackID: trackID, Cost: cost, Accepted: accepted})
}

func (s *WebSocketSink) RecordGatingRegion(trackID string, centerX, centerY, radius float32) {
	s.broadcast(event{Kind: "gating_region", TrackID: trackID, X: centerX, Y: centerY, Radius: radius})
}

func (s *WebSocketSink) RecordInnovation(trackID string, predX, predY, measX, measY, residual float32) {
	s.broadcast(event{
		Kind: "innovation", TrackID: trackID,
		PredX: predX, PredY: predY, MeasX: measX, MeasY: measY, Residual: residual,
	})
}
