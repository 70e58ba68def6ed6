package asset

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/pkg/pagination"
	"github.com/microsolutions/showcase/internal/pkg/response"
)

// MaxUploadBytes caps a single uploaded file.
const MaxUploadBytes = 10 << 20

// Folders accepted by the standalone upload endpoint.
const (
	FolderIcons     = "icons"
	FolderLogos     = "logos"
	FolderSolutions = "solutions"
)

var (
	ErrNoFile       = errors.New("file is required")
	ErrFileTooLarge = fmt.Errorf("file exceeds %d bytes", MaxUploadBytes)
)

// ReadFormFile loads an uploaded multipart file into memory.
func ReadFormFile(fh *multipart.FileHeader) (File, error) {
	if fh == nil {
		return File{}, ErrNoFile
	}
	if fh.Size > MaxUploadBytes {
		return File{}, ErrFileTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return File{}, err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, MaxUploadBytes+1))
	if err != nil {
		return File{}, err
	}
	if len(data) > MaxUploadBytes {
		return File{}, ErrFileTooLarge
	}
	if len(data) == 0 {
		return File{}, ErrNoFile
	}
	return File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

type Handler struct {
	mgr *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/assets", authMW)
	g.POST("/upload", h.upload)
	g.GET("/orphans", h.listOrphans)
	g.POST("/orphans/cleanup", h.cleanupOrphans)
}

func (h *Handler) upload(c *gin.Context) {
	folder := strings.ToLower(strings.TrimSpace(c.DefaultQuery("folder", FolderIcons)))
	if folder != FolderIcons && folder != FolderLogos {
		response.BadRequest(c, "folder must be icons or logos")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, ErrNoFile.Error())
		return
	}
	f, err := ReadFormFile(fh)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	a, err := h.mgr.Upload(c.Request.Context(), f, ObjectKey(folder, "", f.Name))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, a)
}

func (h *Handler) listOrphans(c *gin.Context) {
	refs, pag, err := h.mgr.ListOrphans(c.Request.Context(), pagination.FromContext(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Paged(c, refs, pag)
}

func (h *Handler) cleanupOrphans(c *gin.Context) {
	maxAgeMinutes := 60
	if raw := strings.TrimSpace(c.Query("max_age_minutes")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			maxAgeMinutes = v
		}
	}
	deleted, err := h.mgr.CleanupOrphans(c.Request.Context(), time.Duration(maxAgeMinutes)*time.Minute)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}
