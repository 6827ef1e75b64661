package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harborview/homehub/internal/domain/listing"
	"github.com/harborview/homehub/internal/http/handlers"
	"github.com/harborview/homehub/internal/http/middlewares"
)

// Fake implementation of the handlers.ListingsStore interface

type fakeListingsRepo struct {
	createFn func(ctx context.Context, req listing.CreateListingRequest, ownerID string) (listing.Listing, error)
	getFn    func(ctx context.Context, id string) (listing.Listing, error)
	searchFn func(ctx context.Context, f listing.SearchFilter) ([]listing.Listing, int, error)
	updateFn func(ctx context.Context, id string, req listing.UpdateListingRequest) (listing.Listing, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeListingsRepo) Create(ctx context.Context, req listing.CreateListingRequest, ownerID string) (listing.Listing, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req, ownerID)
	}

	return listing.Listing{}, nil
}

func (f *fakeListingsRepo) GetByID(ctx context.Context, id string) (listing.Listing, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}

	return listing.Listing{}, nil
}

func (f *fakeListingsRepo) Search(ctx context.Context, filter listing.SearchFilter) ([]listing.Listing, int, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, filter)
	}

	return nil, 0, nil
}

func (f *fakeListingsRepo) Update(ctx context.Context, id string, req listing.UpdateListingRequest) (listing.Listing, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}

	return listing.Listing{}, nil
}

func (f *fakeListingsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

// fakeSearchCache records lookups and invalidations in memory.

type fakeSearchCache struct {
	data        map[string][]byte
	invalidated int
}

func newFakeSearchCache() *fakeSearchCache {
	return &fakeSearchCache{data: map[string][]byte{}}
}

func (f *fakeSearchCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := f.data[key]
	return b, ok, nil
}

func (f *fakeSearchCache) Set(_ context.Context, key string, val []byte) error {
	f.data[key] = val
	return nil
}

func (f *fakeSearchCache) InvalidateAll(_ context.Context) error {
	f.invalidated++
	f.data = map[string][]byte{}
	return nil
}

// setupAuthedRouter mounts the handler behind a stub session middleware.

func setupAuthedRouter(method, path, accountID string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(ctx *gin.Context) {
		if accountID != "" {
			ctx.Set(middlewares.CtxAccountID, accountID)
		}
		ctx.Next()
	}, h)

	return r
}

const validListingBody = `{
	"name": "Sunny Bungalow",
	"description": "Two bed bungalow near the waterfront",
	"address": "12 Harbor Rd",
	"type": "rent",
	"bedrooms": 2,
	"bathrooms": 1,
	"regularPrice": 1800,
	"discountPrice": 1600,
	"offer": true,
	"parking": false,
	"furnished": true,
	"imageUrls": ["https://img.example.com/1.jpg"]
}`

func TestCreateListingHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		accountID      string
		body           string
		repoSetUp      func(*fakeListingsRepo)
		wantStatusCode int
		wantInvalidate int
	}{
		{
			name:      "success",
			accountID: "owner-1",
			body:      validListingBody,
			repoSetUp: func(f *fakeListingsRepo) {
				f.createFn = func(ctx context.Context, req listing.CreateListingRequest, ownerID string) (listing.Listing, error) {
					if ownerID != "owner-1" {
						return listing.Listing{}, errors.New("wrong owner propagated")
					}
					return listing.Listing{
						ID:        newUUID(),
						Name:      req.Name,
						Type:      req.Type,
						OwnerID:   ownerID,
						CreatedAt: now,
						UpdatedAt: now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantInvalidate: 1,
		},
		{
			name:           "no_session",
			accountID:      "",
			body:           validListingBody,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "validation_error",
			accountID:      "owner-1",
			body:           `{"name": "x", "type": "lease"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:      "repo_error",
			accountID: "owner-1",
			body:      validListingBody,
			repoSetUp: func(f *fakeListingsRepo) {
				f.createFn = func(ctx context.Context, req listing.CreateListingRequest, ownerID string) (listing.Listing, error) {
					return listing.Listing{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeListingsRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			searchCache := newFakeSearchCache()
			h := handlers.NewListingsHandler(repo, searchCache, nil)

			r := setupAuthedRouter(http.MethodPost, "/api/listing/create", tt.accountID, h.CreateListing)

			req := httptest.NewRequest(http.MethodPost, "/api/listing/create", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if searchCache.invalidated != tt.wantInvalidate {
				t.Fatalf("cache invalidations: got %d, want %d", searchCache.invalidated, tt.wantInvalidate)
			}
		})
	}
}

func TestGetListingByIdHandler(t *testing.T) {
	tests := []struct {
		name           string
		repoSetUp      func(*fakeListingsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			repoSetUp: func(f *fakeListingsRepo) {
				f.getFn = func(ctx context.Context, id string) (listing.Listing, error) {
					return listing.Listing{ID: id, Name: "Sunny Bungalow"}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			repoSetUp: func(f *fakeListingsRepo) {
				f.getFn = func(ctx context.Context, id string) (listing.Listing, error) {
					return listing.Listing{}, listing.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "repo_error",
			repoSetUp: func(f *fakeListingsRepo) {
				f.getFn = func(ctx context.Context, id string) (listing.Listing, error) {
					return listing.Listing{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeListingsRepo{}
			tt.repoSetUp(repo)

			h := handlers.NewListingsHandler(repo, nil, nil)

			r := setupRouter(http.MethodGet, "/api/listing/get/:id", h.GetListingById)

			req := httptest.NewRequest(http.MethodGet, "/api/listing/get/"+newUUID(), nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestSearchListingsHandler(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		repoSetUp      func(*fakeListingsRepo)
		wantStatusCode int
		wantCount      int
	}{
		{
			name: "defaults",
			url:  "/api/listing/get",
			repoSetUp: func(f *fakeListingsRepo) {
				f.searchFn = func(ctx context.Context, filter listing.SearchFilter) ([]listing.Listing, int, error) {
					if filter.Limit != 9 {
						return nil, 0, errors.New("default limit not applied")
					}
					if filter.SortKey != "created_at" || !filter.SortDesc {
						return nil, 0, errors.New("default sort not applied")
					}
					if filter.Type != nil || filter.Offer != nil || filter.Parking != nil || filter.Furnished != nil {
						return nil, 0, errors.New("absent boolean params must not filter")
					}
					return []listing.Listing{{ID: "l1"}, {ID: "l2"}}, 2, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name: "filters_applied",
			url:  "/api/listing/get?searchTerm=bungalow&type=rent&offer=true&furnished=true&sort=regular_price&order=asc&limit=5&startIndex=10",
			repoSetUp: func(f *fakeListingsRepo) {
				f.searchFn = func(ctx context.Context, filter listing.SearchFilter) ([]listing.Listing, int, error) {
					switch {
					case filter.Term == nil || *filter.Term != "bungalow":
						return nil, 0, errors.New("searchTerm not propagated")
					case filter.Type == nil || *filter.Type != "rent":
						return nil, 0, errors.New("type not propagated")
					case filter.Offer == nil || !*filter.Offer:
						return nil, 0, errors.New("offer not propagated")
					case filter.Parking != nil:
						return nil, 0, errors.New("absent parking must not filter")
					case filter.SortKey != "regular_price" || filter.SortDesc:
						return nil, 0, errors.New("sort not propagated")
					case filter.Limit != 5 || filter.Offset != 10:
						return nil, 0, errors.New("pagination not propagated")
					}
					return []listing.Listing{{ID: "l1"}}, 1, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      1,
		},
		{
			name: "offer_false_matches_both",
			url:  "/api/listing/get?offer=false",
			repoSetUp: func(f *fakeListingsRepo) {
				f.searchFn = func(ctx context.Context, filter listing.SearchFilter) ([]listing.Listing, int, error) {
					if filter.Offer != nil {
						return nil, 0, errors.New("offer=false must not filter")
					}
					return nil, 0, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name:           "bad_type",
			url:            "/api/listing/get?type=lease",
			repoSetUp:      func(f *fakeListingsRepo) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_sort",
			url:            "/api/listing/get?sort=price",
			repoSetUp:      func(f *fakeListingsRepo) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_limit",
			url:            "/api/listing/get?limit=0",
			repoSetUp:      func(f *fakeListingsRepo) {},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			url:  "/api/listing/get",
			repoSetUp: func(f *fakeListingsRepo) {
				f.searchFn = func(ctx context.Context, filter listing.SearchFilter) ([]listing.Listing, int, error) {
					return nil, 0, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeListingsRepo{}
			tt.repoSetUp(repo)

			h := handlers.NewListingsHandler(repo, nil, nil)

			r := setupRouter(http.MethodGet, "/api/listing/get", h.SearchListings)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				Count int `json:"count"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Count != tt.wantCount {
				t.Fatalf("count: got %d, want %d", resp.Count, tt.wantCount)
			}
		})
	}
}

func TestSearchListings_CacheHit(t *testing.T) {
	repo := &fakeListingsRepo{
		searchFn: func(ctx context.Context, filter listing.SearchFilter) ([]listing.Listing, int, error) {
			return nil, 0, errors.New("store must not be reached on a cache hit")
		},
	}

	searchCache := newFakeSearchCache()
	searchCache.data["search:limit=5"] = []byte(`{"items":[],"count":0,"total":0}`)

	h := handlers.NewListingsHandler(repo, searchCache, nil)

	r := setupRouter(http.MethodGet, "/api/listing/get", h.SearchListings)

	req := httptest.NewRequest(http.MethodGet, "/api/listing/get?limit=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestUpdateListingHandler_Ownership(t *testing.T) {
	tests := []struct {
		name           string
		accountID      string
		ownerID        string
		wantStatusCode int
	}{
		{
			name:           "owner_can_update",
			accountID:      "owner-1",
			ownerID:        "owner-1",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "stranger_forbidden",
			accountID:      "intruder",
			ownerID:        "owner-1",
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "no_session",
			accountID:      "",
			ownerID:        "owner-1",
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeListingsRepo{
				getFn: func(ctx context.Context, id string) (listing.Listing, error) {
					return listing.Listing{ID: id, OwnerID: tt.ownerID}, nil
				},
				updateFn: func(ctx context.Context, id string, req listing.UpdateListingRequest) (listing.Listing, error) {
					return listing.Listing{ID: id, Name: req.Name, OwnerID: tt.ownerID}, nil
				},
			}

			h := handlers.NewListingsHandler(repo, nil, nil)

			r := setupAuthedRouter(http.MethodPost, "/api/listing/update/:id", tt.accountID, h.UpdateListing)

			req := httptest.NewRequest(http.MethodPost, "/api/listing/update/"+newUUID(), bytes.NewBufferString(validListingBody))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteListingHandler(t *testing.T) {
	tests := []struct {
		name           string
		accountID      string
		repoSetUp      func(*fakeListingsRepo)
		wantStatusCode int
		wantInvalidate int
	}{
		{
			name:      "success",
			accountID: "owner-1",
			repoSetUp: func(f *fakeListingsRepo) {
				f.getFn = func(ctx context.Context, id string) (listing.Listing, error) {
					return listing.Listing{ID: id, OwnerID: "owner-1"}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantInvalidate: 1,
		},
		{
			name:      "not_found",
			accountID: "owner-1",
			repoSetUp: func(f *fakeListingsRepo) {
				f.getFn = func(ctx context.Context, id string) (listing.Listing, error) {
					return listing.Listing{}, listing.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:      "stranger_forbidden",
			accountID: "intruder",
			repoSetUp: func(f *fakeListingsRepo) {
				f.getFn = func(ctx context.Context, id string) (listing.Listing, error) {
					return listing.Listing{ID: id, OwnerID: "owner-1"}, nil
				}
			},
			wantStatusCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeListingsRepo{}
			tt.repoSetUp(repo)

			searchCache := newFakeSearchCache()
			h := handlers.NewListingsHandler(repo, searchCache, nil)

			r := setupAuthedRouter(http.MethodDelete, "/api/listing/delete/:id", tt.accountID, h.DeleteListing)

			req := httptest.NewRequest(http.MethodDelete, "/api/listing/delete/"+newUUID(), nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if searchCache.invalidated != tt.wantInvalidate {
				t.Fatalf("cache invalidations: got %d, want %d", searchCache.invalidated, tt.wantInvalidate)
			}
		})
	}
}
