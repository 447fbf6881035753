package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

type TokenController struct {
	Tokens *services.TokenService
}

func NewTokenController(tokens *services.TokenService) *TokenController {
	return &TokenController{Tokens: tokens}
}

// GetTodayTokens -> token hari ini beserta order dan sesinya
func (tc *TokenController) GetTodayTokens(c *gin.Context) {
	tokens, err := tc.Tokens.Today(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Today's tokens", tokens)
}
