package solution

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/modules/asset"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

// imageRequest references an existing image by id or url, or names the multipart
// field carrying a new file.
type imageRequest struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
	File    string `json:"file"`
}

type createRequest struct {
	Fields
	ID     string         `json:"id"`
	Images []imageRequest `json:"images"`
}

type updateRequest struct {
	Fields
	Images     []imageRequest `json:"images"`
	RemoveIcon bool           `json:"remove_icon"`
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin/solutions", authMW)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.ListContext(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]solutionResponse, len(items))
	for i := range items {
		out[i] = toResponse(&items[i])
	}
	response.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	sol, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if sol == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(sol))
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	form, err := bindRequest(c, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	images, err := resolveImages(form, req.Images)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	icon, err := formFile(form, "icon")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sol, err := h.svc.Create(c.Request.Context(), CreateInput{Fields: req.Fields, ID: req.ID, Images: images, Icon: icon})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, toResponse(sol))
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	form, err := bindRequest(c, &req)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	images, err := resolveImages(form, req.Images)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	icon, err := formFile(form, "icon")
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sol, err := h.svc.Update(c.Request.Context(), c.Param("id"), UpdateInput{
		Fields: req.Fields, Images: images, Icon: icon, RemoveIcon: req.RemoveIcon,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	if sol == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(sol))
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c)
	default:
		response.InternalError(c, err)
	}
}

// bindRequest decodes a JSON body, or the "payload" field of a multipart form.
func bindRequest(c *gin.Context, dst any) (*multipart.Form, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, c.ShouldBindJSON(dst)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	payload := form.Value["payload"]
	if len(payload) == 0 {
		return nil, errors.New("payload field is required")
	}
	if err := json.Unmarshal([]byte(payload[0]), dst); err != nil {
		return nil, err
	}
	return form, nil
}

// resolveImages maps requests to inputs, loading named multipart files. A nil request
// list stays nil.
func resolveImages(form *multipart.Form, reqs []imageRequest) ([]ImageInput, error) {
	if reqs == nil {
		return nil, nil
	}
	out := make([]ImageInput, len(reqs))
	for i, r := range reqs {
		out[i] = ImageInput{ID: r.ID, URL: r.URL, Caption: r.Caption}
		if r.File == "" {
			continue
		}
		f, err := formFile(form, r.File)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, errors.New("missing file field " + r.File)
		}
		out[i].File = f
	}
	return out, nil
}

func formFile(form *multipart.Form, field string) (*asset.File, error) {
	if form == nil || len(form.File[field]) == 0 {
		return nil, nil
	}
	f, err := asset.ReadFormFile(form.File[field][0])
	if err != nil {
		return nil, err
	}
	return &f, nil
}
