package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"whitehill-server/internal/domain"
	"whitehill-server/internal/engine"
)

// DebugHandler предоставляет доступ к внутреннему состоянию движка
type DebugHandler struct {
	Service *engine.GameService
}

func NewDebugHandler(s *engine.GameService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/world", h.handleWorld)
	mux.HandleFunc("/debug/entities", h.handleDumpEntities)
	mux.HandleFunc("/debug/bins", h.handleBin)
}

// WorldSummary - ответ /debug/world
type WorldSummary struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	PixelWidth  int     `json:"pixel_width"`
	PixelHeight int     `json:"pixel_height"`
	Tick        uint64  `json:"tick"`
	Elapsed     float64 `json:"elapsed"`
	EntityCount int     `json:"entity_count"`
	Sessions    int     `json:"sessions"`
}

// /debug/world - размер мира, тик и число сущностей
func (h *DebugHandler) handleWorld(w http.ResponseWriter, r *http.Request) {
	var summary WorldSummary
	h.Service.WithWorld(func(world *domain.GameWorld) {
		px := world.PixelSize()
		clock := world.Clock()
		summary = WorldSummary{
			Width:       world.Width,
			Height:      world.Height,
			PixelWidth:  px.X,
			PixelHeight: px.Y,
			Tick:        clock.Tick,
			Elapsed:     clock.Elapsed,
			EntityCount: world.Len(),
		}
	})
	summary.Sessions = h.Service.Hub.SubscriberCount()
	writeJSON(w, summary)
}

// /debug/entities - полный дамп сущностей, включая маски
func (h *DebugHandler) handleDumpEntities(w http.ResponseWriter, r *http.Request) {
	var data []byte
	var err error
	// Сериализуем под замком: сущности меняются на каждом тике
	h.Service.WithWorld(func(world *domain.GameWorld) {
		data, err = json.Marshal(world.Entities())
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	setHeaders(w)
	_, _ = w.Write(data)
}

// /debug/bins?x=3&y=4 - ID сущностей в одном бине
func (h *DebugHandler) handleBin(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be integers", http.StatusBadRequest)
		return
	}

	ids := make([]domain.EntityID, 0)
	inside := false
	h.Service.WithWorld(func(world *domain.GameWorld) {
		if x < 0 || y < 0 || x >= world.Width || y >= world.Height {
			return
		}
		inside = true
		ids = append(ids, world.BinAt(x, y)...)
	})
	if !inside {
		http.Error(w, "bin out of range", http.StatusNotFound)
		return
	}
	writeJSON(w, ids)
}

func setHeaders(w http.ResponseWriter) {
	// Разрешаем запросы с любого источника (нужно для локального debug_client.html)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	setHeaders(w)
	_ = json.NewEncoder(w).Encode(data)
}
