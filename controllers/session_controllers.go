package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

type SessionController struct {
	Sessions *services.SessionService
}

func NewSessionController(sessions *services.SessionService) *SessionController {
	return &SessionController{Sessions: sessions}
}

// StartSession -> buka sesi di device
func (sc *SessionController) StartSession(c *gin.Context) {
	var req services.OpenSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.Sessions.Open(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session started", result)
}

// EndSession -> tutup sesi dan hitung biaya
func (sc *SessionController) EndSession(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}

	result, err := sc.Sessions.Close(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session ended", result)
}

// UpdatePlayers -> ubah jumlah pemain (Frame)
func (sc *SessionController) UpdatePlayers(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}
	var body struct {
		PlayerCount int `json:"player_count" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.UpdatePlayers(c.Request.Context(), id, body.PlayerCount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Player count updated", session)
}

func (sc *SessionController) GetSession(c *gin.Context) {
	id, ok := parseID(c, "session_id")
	if !ok {
		return
	}
	session, err := sc.Sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

func (sc *SessionController) GetTodaySessions(c *gin.Context) {
	sessions, err := sc.Sessions.Today(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Today's sessions", sessions)
}

func (sc *SessionController) GetActiveSessions(c *gin.Context) {
	sessions, err := sc.Sessions.Active(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active sessions", sessions)
}
