package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/notifications"
	"github.com/aura-webinar/storefront/pkg/errs"
	"github.com/aura-webinar/storefront/pkg/queue"
	"github.com/aura-webinar/storefront/pkg/response"
	"github.com/aura-webinar/storefront/pkg/utils"
)

const sessionCookie = "session"

// UserStore is the user persistence the auth handler needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName, phone *string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Mailer hands rendered emails to the outgoing queue.
type Mailer interface {
	Dispatch(ctx context.Context, msg queue.EmailPayload) error
}

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the body for POST /auth/password/forgot.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the body for POST /auth/password/reset.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// UpdateProfileRequest is the body for PATCH /me.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1"`
	Phone    *string `json:"phone"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users        UserStore
	jwt          *JWTService
	mailer       Mailer
	resetURL     string
	cookieSecure bool
	logger       *zap.Logger
}

// NewHandler creates an auth handler. resetURL is the page that accepts the
// reset token as a query parameter.
func NewHandler(users UserStore, jwt *JWTService, mailer Mailer, resetURL string, cookieSecure bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, jwt: jwt, mailer: mailer, resetURL: resetURL, cookieSecure: cookieSecure, logger: logger}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), &models.User{
		Email:    NormalizeEmail(req.Email),
		Password: hash,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     models.RoleUser,
	})
	if err != nil {
		if !errs.Is(err, ErrEmailTaken) {
			h.logger.Error("create user failed", zap.Error(err))
		}
		response.Error(c, err)
		return
	}

	h.issueSession(c, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errs.Is(err, ErrUserNotFound) {
			h.logger.Error("load user failed", zap.Error(err))
			response.Internal(c, "login failed")
			return
		}
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	h.issueSession(c, http.StatusOK, user)
}

func (h *Handler) issueSession(c *gin.Context, status int, user *models.User) {
	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(h.jwt.SessionTTL().Seconds()), "/", "", h.cookieSecure, true)
	c.JSON(status, response.Body{Success: true, Data: TokenResponse{Token: token, User: user.ToPublic()}})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.cookieSecure, true)
	response.OK(c, gin.H{"message": "logged out"})
}

// ForgotPassword handles POST /auth/password/forgot. The reply is the same
// whether or not the account exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	const msg = "if the account exists, a reset link has been sent"

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errs.Is(err, ErrUserNotFound) {
			h.logger.Error("load user for reset failed", zap.Error(err))
		}
		response.OK(c, gin.H{"message": msg})
		return
	}

	token, err := h.jwt.GenerateReset(user.ID, user.Email, user.Password)
	if err != nil {
		h.logger.Error("generate reset token failed", zap.Error(err))
		response.OK(c, gin.H{"message": msg})
		return
	}
	email, err := notifications.PasswordReset(notifications.Recipient{Email: user.Email, Name: user.FullName}, h.resetURL+"?token="+url.QueryEscape(token))
	if err == nil && h.mailer != nil {
		err = h.mailer.Dispatch(ctx, email)
	}
	if err != nil {
		h.logger.Error("send reset email failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	response.OK(c, gin.H{"message": msg})
}

// ResetPassword handles POST /auth/password/reset.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	const invalid = "reset link is invalid or has expired"

	claims, err := h.jwt.ValidateReset(req.Token)
	if err != nil {
		response.BadRequest(c, invalid)
		return
	}
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errs.Is(err, ErrUserNotFound) {
			response.BadRequest(c, invalid)
			return
		}
		response.Error(c, err)
		return
	}
	if Stamp(user.Password) != claims.Stamp {
		response.BadRequest(c, invalid)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		h.logger.Error("update password failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

// Me handles GET /me.
func (h *Handler) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), id.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user.ToPublic())
}

// UpdateMe handles PATCH /me.
func (h *Handler) UpdateMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			response.BadRequest(c, "full_name cannot be empty")
			return
		}
		req.FullName = &name
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), id.UserID, req.FullName, req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user.ToPublic())
}

func identity(c *gin.Context) (Identity, bool) {
	id, ok := FromContext(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		c.Abort()
	}
	return id, ok
}
