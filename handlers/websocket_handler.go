package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/tilewise/scrabble-director/pairings"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub *pairings.Hub
}

func NewWebSocketHandler(hub *pairings.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes the caller to a tournament's live event stream.
// Clients connect to /ws/tournaments/{tournamentID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentIDStr := chi.URLParam(r, "tournamentID")
	if tournamentIDStr == "" {
		http.Error(w, "Missing tournamentID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		log.Printf("Failed to upgrade connection for tournament %s: %v", tournamentIDStr, err)
		return
	}

	roomID := "tournament_" + tournamentIDStr

	client := &pairings.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
