package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "oddservices/internal/infrastructure/websocket"
	"oddservices/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Listings are anonymous and public; the feed is open.
		return true
	},
}

// LiveFeedHandler streams the full listing collection over WebSocket: the
// current snapshot on attach, then a new full snapshot after every change.
type LiveFeedHandler struct {
	hub *ws.Hub
}

func NewLiveFeedHandler(hub *ws.Hub) *LiveFeedHandler {
	return &LiveFeedHandler{
		hub: hub,
	}
}

func (h *LiveFeedHandler) HandleFeed(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("feed upgrade failed: %v", err)
		return err
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
