package public

import (
	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the public endpoints. mw runs before every route (the HTTP
// cache in production).
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	g := rg.Group("", mw...)
	g.GET("/solutions", h.solutions)
	g.GET("/solutions/:id", h.solution)
	g.GET("/company", h.company)
	g.GET("/contacts", h.contacts)
	g.GET("/statistics", h.statistics)
	g.GET("/overview", h.overview)
}

func (h *Handler) solutions(c *gin.Context) {
	response.OK(c, h.svc.Solutions(c.Request.Context()))
}

func (h *Handler) solution(c *gin.Context) {
	sol, err := h.svc.Solution(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if sol == nil {
		response.NotFoundMsg(c, "solution not found")
		return
	}
	response.OK(c, sol)
}

func (h *Handler) company(c *gin.Context) {
	row, err := h.svc.Company(c.Request.Context())
	single(c, row, err)
}

func (h *Handler) contacts(c *gin.Context) {
	row, err := h.svc.Contacts(c.Request.Context())
	single(c, row, err)
}

func (h *Handler) statistics(c *gin.Context) {
	row, err := h.svc.Statistics(c.Request.Context())
	single(c, row, err)
}

func (h *Handler) overview(c *gin.Context) {
	out, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, out)
}

// single writes a singleton row; an empty table is {}.
func single[T any](c *gin.Context, row *T, err error) {
	switch {
	case err != nil:
		response.InternalError(c, err)
	case row == nil:
		response.OK(c, gin.H{})
	default:
		response.OK(c, row)
	}
}
