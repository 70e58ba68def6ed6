package adminuser

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/pkg/events"
	"github.com/microsolutions/showcase/internal/pkg/response"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("admin user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type CreateDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateDTO leaves the password unchanged when it is empty.
type UpdateDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at"`
	Created     time.Time  `json:"created"`
}

func toResponse(u *models.AdminUserModel) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, LastLoginAt: u.LastLoginAt, Created: u.CreatedAt}
}

type Service struct {
	db     *gorm.DB
	events events.Publisher
}

func NewService(db *gorm.DB, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{db: db, events: pub}
}

func (s *Service) List(ctx context.Context) ([]models.AdminUserModel, error) {
	var users []models.AdminUserModel
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.AdminUserModel, error) {
	var u models.AdminUserModel
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail matches the address case-insensitively.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.AdminUserModel, error) {
	var u models.AdminUserModel
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) Create(ctx context.Context, dto CreateDTO) (*models.AdminUserModel, error) {
	email, err := validEmail(dto.Email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(dto.Password)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	u := models.AdminUserModel{Name: strings.TrimSpace(dto.Name), Email: email, PasswordHash: hash}
	if u.Name == "" {
		u.Name = email
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.AdminUsersUpdate, map[string]any{"action": "create", "id": u.ID})
	return &u, nil
}

func (s *Service) Update(ctx context.Context, id string, dto UpdateDTO) (*models.AdminUserModel, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil || u == nil {
		return u, err
	}
	email, err := validEmail(dto.Email)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, email, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"name": strings.TrimSpace(dto.Name), "email": email}
	if dto.Password != "" {
		hash, err := hashPassword(dto.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.AdminUsersUpdate, map[string]any{"action": "update", "id": id})
	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.AdminUserModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.events.Publish(ctx, events.AdminUsersUpdate, map[string]any{"action": "delete", "id": id})
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(u *models.AdminUserModel, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// TouchLogin stamps last_login_at.
func (s *Service) TouchLogin(ctx context.Context, u *models.AdminUserModel, at time.Time) error {
	if err := s.db.WithContext(ctx).Model(u).Update("last_login_at", at).Error; err != nil {
		return err
	}
	u.LastLoginAt = &at
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	q := s.db.WithContext(ctx).Model(&models.AdminUserModel{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrEmailTaken
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email %q", ErrValidation, raw)
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/admin/users", authMW)
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	out := make([]userResponse, len(users))
	for i := range users {
		out[i] = toResponse(&users[i])
	}
	response.OK(c, out)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Create(c.Request.Context(), dto)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, toResponse(u))
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Update(c.Request.Context(), c.Param("id"), dto)
	if err != nil {
		writeError(c, err)
		return
	}
	if u == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, toResponse(u))
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
	case errors.Is(err, ErrEmailTaken):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c)
	default:
		response.InternalError(c, err)
	}
}
