package singleton

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

// Handler exposes a form under /admin/<name>. The id carried in the body decides
// between insert and update.
type Handler[E any, P Record[E]] struct{ form *Form[E, P] }

func NewHandler[E any, P Record[E]](form *Form[E, P]) *Handler[E, P] {
	return &Handler[E, P]{form: form}
}

func (h *Handler[E, P]) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin/"+h.form.Name(), authMW)
	g.GET("", h.load)
	g.PUT("", h.save)
}

func (h *Handler[E, P]) load(c *gin.Context) {
	row, err := h.form.Load(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if row == nil {
		response.OK(c, gin.H{})
		return
	}
	response.OK(c, row)
}

func (h *Handler[E, P]) save(c *gin.Context) {
	var body E
	if err := c.ShouldBindJSON(P(&body)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	row, err := h.form.Save(c.Request.Context(), P(&body).Identity(), body)
	switch {
	case errors.Is(err, ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, h.form.Name()+" row no longer exists")
	case err != nil:
		response.InternalError(c, err)
	default:
		response.OK(c, row)
	}
}
