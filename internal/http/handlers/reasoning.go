package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examiner-backend/internal/http/response"
	"github.com/yungbote/examiner-backend/internal/reasoning"
)

const reasoningPingTimeout = 15 * time.Second

type ReasoningHandler struct {
	gateway reasoning.Gateway
}

func NewReasoningHandler(gateway reasoning.Gateway) *ReasoningHandler {
	return &ReasoningHandler{gateway: gateway}
}

// GET /api/reasoning/health
func (h *ReasoningHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), reasoningPingTimeout)
	defer cancel()
	if err := h.gateway.Ping(ctx); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "ok", "provider": h.gateway.Info().Provider})
}

// GET /api/reasoning/info
func (h *ReasoningHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.gateway.Info())
}
