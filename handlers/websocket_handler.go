package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/courtside/community-league/live"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: ограничить origin списком доверенных хостов перед продом.
		return true
	},
}

type WebSocketHandler struct {
	hub *live.Hub
}

func NewWebSocketHandler(hub *live.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeMatch подписывает клиента на события обычного матча.
func (h *WebSocketHandler) ServeMatch(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "id", live.MatchRoom)
}

// ServeTournament подписывает клиента на события матчей турнира.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "id", live.TournamentRoom)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, param string, room func(int) string) {
	idStr := chi.URLParam(r, param)
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room(id),
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
