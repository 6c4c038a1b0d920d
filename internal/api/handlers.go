package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"echo-loop/internal/game"

	"github.com/go-chi/chi/v5"
)

// maxEventsPerRequest caps /api/events?limit=
const maxEventsPerRequest = 256

// Handler methods for routerHandlers

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSnapshot())
}

func (h *routerHandlers) handleGetLoops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.LoopHistory())
}

func (h *routerHandlers) handleGetLoop(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		writeError(w, "Invalid loop number", http.StatusBadRequest)
		return
	}
	rec, ok := h.engine.LoopRecord(n)
	if !ok {
		writeError(w, "Loop not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"loop":        n,
		"weaponIndex": rec.WeaponIndex(),
		"frames":      rec.Frames(),
	})
}

func (h *routerHandlers) handleGetWeapons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Arsenal())
}

func (h *routerHandlers) handleGetHighScore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"highScore": h.engine.HighScore()})
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxEventsPerRequest {
		limit = maxEventsPerRequest
	}
	writeJSON(w, h.engine.RecentEvents(limit))
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"eventLog":  h.engine.GetEventLogStats(),
		"rateLimit": h.limiter.GetStats(),
	})
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Rendering disabled", http.StatusNotImplemented)
		return
	}

	var buf bytes.Buffer
	start := time.Now()
	err := h.renderer.RenderPNG(&buf, h.engine.GetSnapshot())
	RecordRender(time.Since(start))
	if err != nil {
		log.Printf("❌ Frame render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleLoopStart(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.StartNewLoop(); err != nil {
		writeError(w, err.Error(), statusForLoopError(err))
		return
	}
	h.writeStateAck(w)
}

func (h *routerHandlers) handleLoopConfirm(w http.ResponseWriter, r *http.Request) {
	h.engine.ConfirmNextLoop()
	h.writeStateAck(w)
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, r *http.Request) {
	h.engine.TogglePause()
	h.writeStateAck(w)
}

func (h *routerHandlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Restart requested via API")
	if err := h.engine.Restart(); err != nil {
		writeError(w, err.Error(), statusForLoopError(err))
		return
	}
	h.writeStateAck(w)
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var in game.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&in); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	h.engine.SetInput(in)
	writeJSON(w, map[string]bool{"success": true})
}

// writeStateAck answers control calls with the resulting state
func (h *routerHandlers) writeStateAck(w http.ResponseWriter) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"success": true,
		"state":   snap.State,
		"loop":    snap.Loop,
	})
}

// statusForLoopError maps refuse-to-start configuration errors
func statusForLoopError(err error) int {
	switch {
	case errors.Is(err, game.ErrEmptyArsenal),
		errors.Is(err, game.ErrInvalidSpawnBounds),
		errors.Is(err, game.ErrInvalidTickRate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
