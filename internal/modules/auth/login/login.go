// Package login signs the configured admin in with email and password.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/middleware"
	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/adminuser"
	"github.com/microsolutions/showcase/internal/pkg/jwt"
	"github.com/microsolutions/showcase/internal/pkg/response"
	"go.uber.org/zap"
)

const SessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAllowed         = errors.New("this account may not sign in to the dashboard")
)

type LoginDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"`
	User      userResponse `json:"user"`
}

type userResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

type Service struct {
	users      *adminuser.Service
	signer     *jwt.Signer
	adminEmail string
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(users *adminuser.Service, signer *jwt.Signer, adminEmail string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      users,
		signer:     signer,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		logger:     logger.Named("login"),
		now:        time.Now,
	}
}

// Login checks the credentials and returns an admin token. Only the configured admin
// email may sign in.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.AdminUserModel, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != s.adminEmail {
		s.logger.Warn("sign-in refused for non-admin email", zap.String("email", email))
		return "", nil, ErrNotAllowed
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if u == nil || !adminuser.CheckPassword(u, password) {
		return "", nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLogin(ctx, u, s.now()); err != nil {
		s.logger.Warn("update last login failed", zap.String("user", u.ID), zap.Error(err))
	}
	token, err := s.signer.Sign(jwt.Claims{UserID: u.ID, Email: u.Email, Scope: jwt.ScopeAdmin}, SessionTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

type Handler struct {
	svc    *Service
	signer *jwt.Signer
}

func NewHandler(svc *Service, signer *jwt.Signer) *Handler {
	return &Handler{svc: svc, signer: signer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/auth/login", middleware.RequireGate(h.signer), h.login)
	rg.GET("/auth/session", authMW, h.session)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, u, err := h.svc.Login(c.Request.Context(), dto.Email, dto.Password)
	switch {
	case errors.Is(err, ErrNotAllowed):
		response.ForbiddenMsg(c, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		response.UnauthorizedMsg(c, err.Error())
	case err != nil:
		response.InternalError(c, err)
	default:
		response.OK(c, loginResponse{
			Token:     token,
			ExpiresIn: int(SessionTTL.Seconds()),
			User:      userResponse{ID: u.ID, Name: u.Name, Email: u.Email, LastLoginAt: u.LastLoginAt},
		})
	}
}

func (h *Handler) session(c *gin.Context) {
	response.OK(c, gin.H{"user_id": middleware.CurrentUserID(c), "email": middleware.CurrentEmail(c)})
}
