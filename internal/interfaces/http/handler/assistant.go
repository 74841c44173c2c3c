package handler

import (
	"github.com/gin-gonic/gin"
	assistantapp "github.com/marketplace/backend/internal/application/assistant"
)

// AssistantHandler handles the help assistant chat
type AssistantHandler struct {
	BaseHandler
	assistantService *assistantapp.Service
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(assistantService *assistantapp.Service) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// Send godoc
// @ID           sendAssistantMessage
// @Summary      Ask the assistant
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body assistantapp.SendRequest true "Question"
// @Success      200 {object} APIResponse[assistantapp.SendResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /assistant/messages [post]
func (h *AssistantHandler) Send(c *gin.Context) {
	var req assistantapp.SendRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.assistantService.Send(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// History godoc
// @ID           getAssistantHistory
// @Summary      Assistant history
// @Tags         assistant
// @Produce      json
// @Success      200 {object} APIResponse[assistantapp.HistoryResponse]
// @Security     BearerAuth
// @Router       /assistant/messages [get]
func (h *AssistantHandler) History(c *gin.Context) {
	out, err := h.assistantService.History(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Clear godoc
// @ID           clearAssistantHistory
// @Summary      Clear assistant history
// @Tags         assistant
// @Success      204
// @Security     BearerAuth
// @Router       /assistant/messages [delete]
func (h *AssistantHandler) Clear(c *gin.Context) {
	if err := h.assistantService.Clear(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
