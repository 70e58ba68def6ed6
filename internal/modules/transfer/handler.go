package transfer

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

const maxImportBytes = 5 << 20

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin/transfer", authMW)
	g.GET("/solutions.json", h.exportJSON)
	g.GET("/solutions.xlsx", h.exportXLSX)
	g.GET("/singletons.json", h.exportSingletons)
	g.POST("/solutions", h.importJSON)
}

func stamp() string { return time.Now().UTC().Format("20060102-150405") }

func (h *Handler) exportJSON(c *gin.Context) {
	body, err := h.svc.ExportSolutionsJSON(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Attachment(c, "solutions-"+stamp()+".json", "application/json", body)
}

func (h *Handler) exportXLSX(c *gin.Context) {
	body, err := h.svc.ExportSolutionsXLSX(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Attachment(c, "solutions-"+stamp()+".xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", body)
}

func (h *Handler) exportSingletons(c *gin.Context) {
	body, err := h.svc.ExportSingletonsJSON(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Attachment(c, "singletons-"+stamp()+".json", "application/json", body)
}

// importJSON accepts the raw JSON body or a multipart "file" field.
func (h *Handler) importJSON(c *gin.Context) {
	var reader io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		defer f.Close()
		reader = f
	}
	data, err := io.ReadAll(io.LimitReader(reader, maxImportBytes+1))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if len(data) > maxImportBytes {
		response.BadRequest(c, "import file is too large")
		return
	}

	ids, err := h.svc.ImportSolutions(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"imported": len(ids), "ids": ids})
}
