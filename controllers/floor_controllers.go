package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/gamezone-pos/hub"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

type FloorController struct {
	Hub     *hub.Hub
	Monitor *services.FloorMonitor
	// Upgrader.CheckOrigin diisi dari daftar CORS origin saat router dibuat.
	Upgrader websocket.Upgrader
}

func NewFloorController(h *hub.Hub, monitor *services.FloorMonitor, checkOrigin func(r *http.Request) bool) *FloorController {
	return &FloorController{
		Hub:      h,
		Monitor:  monitor,
		Upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// FloorSocket -> endpoint WebSocket untuk layar kasir dan display lantai
func (fc *FloorController) FloorSocket(c *gin.Context) {
	screen := c.DefaultQuery("screen", "floor")

	ws, err := fc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	// Snapshot awal dikirim sebelum Register: setelah itu hanya hub yang menulis ke conn.
	if fc.Monitor != nil {
		if snapshot, err := fc.Monitor.Snapshot(c.Request.Context()); err == nil {
			_ = ws.WriteJSON(hub.Message{Event: hub.EventFloorSnapshot, Data: snapshot})
		}
	}

	fc.Hub.Register(ws, screen)
	utils.InfoLogger.WithField("screen", screen).Info("screen connected")

	// Baca pesan sampai client disconnect
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	fc.Hub.Unregister(ws)
}

// GetFloorSnapshot -> versi HTTP dari snapshot yang dikirim lewat websocket
func (fc *FloorController) GetFloorSnapshot(c *gin.Context) {
	snapshot, err := fc.Monitor.Snapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Floor snapshot", snapshot)
}
