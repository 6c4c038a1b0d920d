package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"echo-loop/internal/game"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	writeWait = 2 * time.Second
)

// Codec selects how snapshots are framed for a client
type Codec uint8

const (
	CodecJSON    Codec = iota // text frames {"event":"game:state","data":{...}}
	CodecMsgpack              // binary frames holding a bare msgpack snapshot
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// Commander receives control messages sent by WebSocket clients
type Commander interface {
	SetInput(in game.Input)
	TogglePause()
	ConfirmNextLoop()
}

// clientMessage is a command from a client
type clientMessage struct {
	Type  string     `json:"type"` // "input", "pause", "confirm"
	Input game.Input `json:"input"`
}

type wsClient struct {
	conn  *websocket.Conn
	ip    string
	codec Codec
}

// outbound is one broadcast, pre-encoded for each codec. A nil binary
// payload sends the text frame to every client.
type outbound struct {
	text   []byte
	binary []byte
}

// WebSocketHub fans out loop events and snapshots to connected clients.
// It implements game.PresentationSink and game.FeedbackSink; both only
// enqueue and never block the tick.
type WebSocketHub struct {
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan outbound
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	commander Commander
	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a new hub with connection limiting
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}
}

// SetCommander routes client commands to c. Call before Run.
func (h *WebSocketHub) SetCommander(c Commander) {
	h.commander = c
}

// Run services registrations and broadcasts until Stop
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.wsLimiter.Release(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			h.drop(conn)
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				var err error
				if client.codec == CodecMsgpack && msg.binary != nil {
					err = conn.WriteMessage(websocket.BinaryMessage, msg.binary)
				} else {
					err = conn.WriteMessage(websocket.TextMessage, msg.text)
				}
				if err != nil {
					h.drop(conn)
				}
			}
			count := len(h.clients)
			h.mu.Unlock()
			UpdateWSConnections(count)
			IncrementWSMessages()
		}
	}
}

// drop must be called with mu held
func (h *WebSocketHub) drop(conn *websocket.Conn) {
	if client, ok := h.clients[conn]; ok {
		h.wsLimiter.Release(client.ip)
		delete(h.clients, conn)
		conn.Close()
	}
}

// Stop closes every connection and ends Run
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends a JSON event to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	jsonBytes, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return
	}
	h.enqueue(outbound{text: jsonBytes})
}

// BroadcastSnapshot sends a snapshot in each client's codec
func (h *WebSocketHub) BroadcastSnapshot(snap game.GameSnapshot) {
	text, err := json.Marshal(map[string]interface{}{
		"event": "game:state",
		"data":  snap,
	})
	if err != nil {
		return
	}
	binary, err := msgpack.Marshal(&snap)
	if err != nil {
		return
	}
	h.enqueue(outbound{text: text, binary: binary})
}

func (h *WebSocketHub) enqueue(msg outbound) {
	select {
	case h.broadcast <- msg:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LoopIntro implements game.PresentationSink
func (h *WebSocketHub) LoopIntro(loop int, weaponName string) {
	h.Broadcast("loop:intro", map[string]interface{}{
		"loop":   loop,
		"weapon": weaponName,
	})
}

// WinSummary implements game.PresentationSink
func (h *WebSocketHub) WinSummary(baseScore int, timeLeft float64, total int) {
	h.Broadcast("loop:win", map[string]interface{}{
		"baseScore": baseScore,
		"timeLeft":  timeLeft,
		"total":     total,
	})
}

// GameOver implements game.PresentationSink
func (h *WebSocketHub) GameOver(finalScore, loopsSurvived, highScore int, isNewRecord bool) {
	h.Broadcast("loop:gameover", map[string]interface{}{
		"finalScore":    finalScore,
		"loopsSurvived": loopsSurvived,
		"highScore":     highScore,
		"newRecord":     isNewRecord,
	})
}

// Notify implements game.FeedbackSink
func (h *WebSocketHub) Notify(c game.Cue) {
	h.Broadcast("cue", map[string]interface{}{
		"kind":  c.Kind.String(),
		"sound": c.Sound,
		"x":     c.Position.X(),
		"y":     c.Position.Y(),
		"shake": c.Shake,
	})
}

// SnapshotSource is the part of the engine the broadcast loop reads
type SnapshotSource interface {
	GetSnapshot() game.GameSnapshot
}

// StartBroadcastLoop pushes snapshots at the given interval until Stop
func (h *WebSocketHub) StartBroadcastLoop(src SnapshotSource, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
				snap := src.GetSnapshot()
				UpdateEchoCount(snap.AliveEchoes)
				if h.ClientCount() == 0 {
					continue
				}
				h.BroadcastSnapshot(snap)
			}
		}
	}()
}

// HandleWebSocket upgrades a connection. ?codec=msgpack selects binary snapshots.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	codec := CodecJSON
	if r.URL.Query().Get("codec") == "msgpack" {
		codec = CodecMsgpack
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip, codec: codec}
	select {
	case h.register <- client:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.readLoop(conn, ip)
}

func (h *WebSocketHub) readLoop(conn *websocket.Conn, ip string) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.stopChan:
		}
	}()

	conn.SetReadLimit(4096)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if h.commander == nil {
			continue
		}

		switch msg.Type {
		case "input":
			h.commander.SetInput(msg.Input)
		case "pause":
			h.commander.TogglePause()
		case "confirm":
			h.commander.ConfirmNextLoop()
		default:
			log.Printf("📨 Unknown WebSocket message type %q from %s", msg.Type, ip)
		}
	}
}
