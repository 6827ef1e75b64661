package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborview/homehub/internal/cache"
	"github.com/harborview/homehub/internal/config"
	"github.com/harborview/homehub/internal/domain/listing"
	"github.com/harborview/homehub/internal/http/middlewares"
	"github.com/harborview/homehub/internal/observability"
)

const defaultSearchLimit = 9

type ListingsStore interface {
	Create(ctx context.Context, req listing.CreateListingRequest, ownerID string) (listing.Listing, error)
	GetByID(ctx context.Context, id string) (listing.Listing, error)
	Search(ctx context.Context, f listing.SearchFilter) ([]listing.Listing, int, error)
	Update(ctx context.Context, id string, req listing.UpdateListingRequest) (listing.Listing, error)
	Delete(ctx context.Context, id string) error
}

// SearchCache is the byte-level cache for serialized search pages. May be
// absent (nil handler field) in tests and minimal deployments.
type SearchCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	InvalidateAll(ctx context.Context) error
}

type ListingsHandler struct {
	repo    ListingsStore
	cache   SearchCache
	metrics *observability.Prom
}

func NewListingsHandler(repo ListingsStore, searchCache SearchCache, metrics *observability.Prom) *ListingsHandler {
	return &ListingsHandler{repo: repo, cache: searchCache, metrics: metrics}
}

func (h *ListingsHandler) CreateListing(ctx *gin.Context) {
	ownerID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing session")
		return
	}

	var req listing.CreateListingRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, req, ownerID)

	if err != nil {
		RespondInternal(ctx, "Could not create listing")
		return
	}

	h.invalidateSearch(cctx)

	ctx.JSON(http.StatusCreated, created)
}

func (h *ListingsHandler) GetListingById(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	l, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
			return
		}
		RespondInternal(ctx, "Could not fetch listing")
		return
	}

	ctx.JSON(http.StatusOK, l)
}

func (h *ListingsHandler) SearchListings(ctx *gin.Context) {
	filter, ok := parseSearchFilter(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	cacheKey := cache.Key(ctx.Request.URL.RawQuery)

	if body, hit := h.cachedSearch(cctx, cacheKey); hit {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	items, total, err := h.repo.Search(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not search listings")
		return
	}

	payload := gin.H{
		"items": items,
		"count": len(items),
		"total": total,
	}

	if h.cache != nil {
		if body, err := json.Marshal(payload); err == nil {
			// best effort; a failed write just means a store hit next time
			_ = h.cache.Set(cctx, cacheKey, body)
		}
	}

	ctx.JSON(http.StatusOK, payload)
}

func (h *ListingsHandler) UpdateListing(ctx *gin.Context) {
	id := ctx.Param("id")

	existing, ok := h.requireOwned(ctx, id, "You can only update your own listings")

	if !ok {
		return
	}

	var req listing.UpdateListingRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.repo.Update(cctx, existing.ID, req)

	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
			return
		}
		RespondInternal(ctx, "Could not update listing")
		return
	}

	h.invalidateSearch(cctx)

	ctx.JSON(http.StatusOK, updated)
}

func (h *ListingsHandler) DeleteListing(ctx *gin.Context) {
	id := ctx.Param("id")

	existing, ok := h.requireOwned(ctx, id, "You can only delete your own listings")

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, existing.ID); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
			return
		}
		RespondInternal(ctx, "Could not delete listing")
		return
	}

	h.invalidateSearch(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Listing has been deleted"})
}

// requireOwned loads the listing and verifies the session account owns it.
func (h *ListingsHandler) requireOwned(ctx *gin.Context, id, forbiddenMsg string) (listing.Listing, bool) {
	accountID, ok := middlewares.AccountIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing session")
		return listing.Listing{}, false
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
			return listing.Listing{}, false
		}
		RespondInternal(ctx, "Could not fetch listing")
		return listing.Listing{}, false
	}

	if existing.OwnerID != accountID {
		RespondForbidden(ctx, forbiddenMsg)
		return listing.Listing{}, false
	}

	return existing, true
}

func (h *ListingsHandler) cachedSearch(ctx context.Context, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}

	body, hit, err := h.cache.Get(ctx, key)

	switch {
	case err != nil:
		h.recordCache("error")
		return nil, false
	case !hit:
		h.recordCache("miss")
		return nil, false
	}

	h.recordCache("hit")
	return body, true
}

func (h *ListingsHandler) invalidateSearch(ctx context.Context) {
	if h.cache != nil {
		_ = h.cache.InvalidateAll(ctx)
	}
}

func (h *ListingsHandler) recordCache(result string) {
	if h.metrics != nil {
		h.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

// parseSearchFilter maps the query string onto a SearchFilter. A boolean
// param filters only when explicitly "true"; absent or "false" matches both,
// and "all" (or absence) for type matches both sale and rent.
func parseSearchFilter(ctx *gin.Context) (listing.SearchFilter, bool) {
	var f listing.SearchFilter

	if term := ctx.Query("searchTerm"); term != "" {
		f.Term = &term
	}

	if t := ctx.Query("type"); t != "" && t != "all" {
		if t != "sale" && t != "rent" {
			RespondBadRequest(ctx, "type must be one of all, sale, rent", nil)
			return f, false
		}

		f.Type = &t
	}

	truthy := true

	if ctx.Query("offer") == "true" {
		f.Offer = &truthy
	}

	if ctx.Query("parking") == "true" {
		f.Parking = &truthy
	}

	if ctx.Query("furnished") == "true" {
		f.Furnished = &truthy
	}

	switch sort := ctx.DefaultQuery("sort", "created_at"); sort {
	case "created_at", "regular_price":
		f.SortKey = sort
	default:
		RespondBadRequest(ctx, "sort must be one of created_at, regular_price", nil)
		return f, false
	}

	f.SortDesc = ctx.DefaultQuery("order", "desc") != "asc"

	f.Limit = defaultSearchLimit

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 || n > 100 {
			RespondBadRequest(ctx, "limit must be an integer between 1 and 100", nil)
			return f, false
		}

		f.Limit = n
	}

	if raw := ctx.Query("startIndex"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 0 {
			RespondBadRequest(ctx, "startIndex must be a non-negative integer", nil)
			return f, false
		}

		f.Offset = n
	}

	return f, true
}
