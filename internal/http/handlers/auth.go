package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborview/homehub/internal/accounts"
	"github.com/harborview/homehub/internal/config"
	"github.com/harborview/homehub/internal/domain/account"
	"github.com/harborview/homehub/internal/http/middlewares"
	"github.com/harborview/homehub/internal/observability"
)

// AuthService is the slice of the accounts service this handler consumes.
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (account.Public, error)
	Signin(ctx context.Context, email, password string) (account.Public, string, error)
	FederatedSignin(ctx context.Context, email, displayName, avatarURL string) (account.Public, string, error)
}

type AuthHandler struct {
	svc     AuthService
	cfg     config.Config
	metrics *observability.Prom
}

func NewAuthHandler(svc AuthService, cfg config.Config, metrics *observability.Prom) *AuthHandler {
	return &AuthHandler{
		svc:     svc,
		cfg:     cfg,
		metrics: metrics,
	}
}

type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Photo string `json:"photo" binding:"omitempty,url"`
}

func (h *AuthHandler) Signup(ctx *gin.Context) {
	var req SignupRequest

	if !BindJSON(ctx, &req) {
		h.record("signup", "invalid")
		return
	}

	// bcrypt plus one insert; generous ceiling
	cctx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	_, err := h.svc.Signup(cctx, req.Username, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			h.record("signup", "conflict")
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, account.ErrUsernameTaken):
			h.record("signup", "conflict")
			RespondConflict(ctx, "username_taken", "Username is already in use.")
		case errors.Is(err, accounts.ErrInvalidInput):
			h.record("signup", "invalid")
			RespondBadRequest(ctx, err.Error(), nil)
		default:
			h.record("signup", "error")
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	h.record("signup", "ok")

	// no session on signup; the client signs in separately
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
	})
}

func (h *AuthHandler) Signin(ctx *gin.Context) {
	var req SigninRequest

	if !BindJSON(ctx, &req) {
		h.record("signin", "invalid")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	pub, token, err := h.svc.Signin(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		// unknown email and wrong password are deliberately distinct
		case errors.Is(err, account.ErrNotFound):
			h.record("signin", "not_found")
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, accounts.ErrWrongPassword):
			h.record("signin", "wrong_password")
			RespondUnAuthorized(ctx, "invalid_credentials", "Wrong credentials.")
		default:
			h.record("signin", "error")
			RespondInternal(ctx, "Could not sign in")
		}
		return
	}

	h.record("signin", "ok")

	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusOK, pub)
}

// Google handles the federated signin-or-register flow. The provider's
// email assertion is trusted as-is.
func (h *AuthHandler) Google(ctx *gin.Context) {
	var req GoogleRequest

	if !BindJSON(ctx, &req) {
		h.record("federated", "invalid")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	pub, token, err := h.svc.FederatedSignin(cctx, req.Email, req.Name, req.Photo)

	if err != nil {
		if errors.Is(err, accounts.ErrInvalidInput) {
			h.record("federated", "invalid")
			RespondBadRequest(ctx, err.Error(), nil)
			return
		}

		h.record("federated", "error")
		RespondInternal(ctx, "Could not sign in with provider")
		return
	}

	h.record("federated", "ok")

	h.setSessionCookie(ctx, token)

	ctx.JSON(http.StatusOK, pub)
}

func (h *AuthHandler) Signout(ctx *gin.Context) {
	h.clearSessionCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User has been logged out",
	})
}

// Helper functions

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, token string) {
	secure := h.cfg.Env == "prod"

	// matches the token: a TTL of zero keeps the cookie for the browser
	// session and the token itself never expires
	maxAge := h.cfg.SessionTTLMinutes * 60

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		middlewares.SessionCookie,
		token,
		maxAge,
		"/",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.SessionCookie,
		"",
		-1,
		"/",
		"",
		secure,
		true,
	)
}

func (h *AuthHandler) record(op, result string) {
	if h.metrics != nil {
		h.metrics.AuthOutcomes.WithLabelValues(op, result).Inc()
	}
}
