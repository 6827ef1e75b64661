package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborview/homehub/internal/config"
	"github.com/harborview/homehub/internal/domain/account"
	"github.com/harborview/homehub/internal/domain/listing"
	"github.com/harborview/homehub/internal/http/middlewares"
	"github.com/harborview/homehub/internal/security"
)

type AccountsStore interface {
	FindByID(ctx context.Context, id string) (account.Account, error)
	Update(ctx context.Context, id string, username, email, passwordHash, avatarURL string) (account.Account, error)
	Delete(ctx context.Context, id string) error
}

type OwnerListings interface {
	ListByOwner(ctx context.Context, ownerID string) ([]listing.Listing, error)
}

type UsersHandler struct {
	accounts AccountsStore
	listings OwnerListings
	cfg      config.Config
}

func NewUsersHandler(accountsStore AccountsStore, listings OwnerListings, cfg config.Config) *UsersHandler {
	return &UsersHandler{accounts: accountsStore, listings: listings, cfg: cfg}
}

type UpdateUserRequest struct {
	Username string `json:"username" binding:"omitempty"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty"`
	Avatar   string `json:"avatar" binding:"omitempty,url"`
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	a, err := h.accounts.FindByID(cctx, id)

	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, a.Public())
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !requireSelf(ctx, id, "You can only update your own account") {
		return
	}

	var req UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	existing, err := h.accounts.FindByID(cctx, id)

	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update user")
		return
	}

	// partial update: untouched fields keep their stored values
	username := existing.Username
	email := existing.Email
	passwordHash := existing.PasswordHash
	avatar := existing.AvatarURL

	if req.Username != "" {
		username = req.Username
	}

	if req.Email != "" {
		email = req.Email
	}

	if req.Avatar != "" {
		avatar = req.Avatar
	}

	if req.Password != "" {
		passwordHash, err = security.HashPassword(req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}
	}

	updated, err := h.accounts.Update(cctx, id, username, email, passwordHash, avatar)

	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		case errors.Is(err, account.ErrUsernameTaken):
			RespondConflict(ctx, "username_taken", "Username is already in use.")
		case errors.Is(err, account.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated.Public())
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")

	if !requireSelf(ctx, id, "You can only delete your own account") {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.accounts.Delete(cctx, id); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	// the session references a row that no longer exists
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.SessionCookie, "", -1, "/", "", secure, true)

	ctx.JSON(http.StatusOK, gin.H{"message": "User has been deleted"})
}

func (h *UsersHandler) GetUserListings(ctx *gin.Context) {
	id := ctx.Param("id")

	if !requireSelf(ctx, id, "You can only view your own listings") {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.listings.ListByOwner(cctx, id)

	if err != nil {
		RespondInternal(ctx, "Could not list listings")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func requireSelf(ctx *gin.Context, id, forbiddenMsg string) bool {
	accountID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing session")
		return false
	}

	if accountID != id {
		RespondForbidden(ctx, forbiddenMsg)
		return false
	}

	return true
}
