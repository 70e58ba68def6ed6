package pin

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

type VerifyDTO struct {
	PIN string `json:"pin" binding:"required"`
}

type gateResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type Handler struct{ gate *Gate }

func NewHandler(gate *Gate) *Handler { return &Handler{gate: gate} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/pin", h.verify)
}

func (h *Handler) verify(c *gin.Context) {
	var dto VerifyDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, err := h.gate.Verify(c.Request.Context(), c.ClientIP(), dto.PIN)
	if err != nil {
		var locked *LockedError
		switch {
		case errors.As(err, &locked):
			response.TooManyRequests(c, err.Error(), locked.RetryAfter)
		case errors.Is(err, ErrWrongPIN):
			response.UnauthorizedMsg(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gateResponse{Token: token, ExpiresIn: int(GateTokenTTL.Seconds())})
}
