package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harborview/homehub/internal/config"
	"github.com/harborview/homehub/internal/domain/account"
	"github.com/harborview/homehub/internal/domain/listing"
	"github.com/harborview/homehub/internal/http/handlers"
)

// Fake implementation of the handlers.AccountsStore interface

type fakeAccountsStore struct {
	findFn   func(ctx context.Context, id string) (account.Account, error)
	updateFn func(ctx context.Context, id, username, email, passwordHash, avatarURL string) (account.Account, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeAccountsStore) FindByID(ctx context.Context, id string) (account.Account, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}

	return account.Account{}, nil
}

func (f *fakeAccountsStore) Update(ctx context.Context, id string, username, email, passwordHash, avatarURL string) (account.Account, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, username, email, passwordHash, avatarURL)
	}

	return account.Account{}, nil
}

func (f *fakeAccountsStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

type fakeOwnerListings struct {
	listFn func(ctx context.Context, ownerID string) ([]listing.Listing, error)
}

func (f *fakeOwnerListings) ListByOwner(ctx context.Context, ownerID string) ([]listing.Listing, error) {
	if f.listFn != nil {
		return f.listFn(ctx, ownerID)
	}

	return nil, nil
}

func TestGetUserHandler(t *testing.T) {
	tests := []struct {
		name           string
		storeSetUp     func(*fakeAccountsStore)
		wantStatusCode int
	}{
		{
			name: "success",
			storeSetUp: func(f *fakeAccountsStore) {
				f.findFn = func(ctx context.Context, id string) (account.Account, error) {
					return account.Account{ID: id, Username: "sally", Email: "sally@example.com", PasswordHash: "$2a$10$secret"}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "not_found",
			storeSetUp: func(f *fakeAccountsStore) {
				f.findFn = func(ctx context.Context, id string) (account.Account, error) {
					return account.Account{}, account.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "store_error",
			storeSetUp: func(f *fakeAccountsStore) {
				f.findFn = func(ctx context.Context, id string) (account.Account, error) {
					return account.Account{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeAccountsStore{}
			tt.storeSetUp(store)

			h := handlers.NewUsersHandler(store, &fakeOwnerListings{}, config.Config{})

			r := setupRouter(http.MethodGet, "/api/user/get/:id", h.GetUser)

			req := httptest.NewRequest(http.MethodGet, "/api/user/get/"+newUUID(), nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if strings.Contains(w.Body.String(), "$2a$") {
				t.Fatalf("response leaks the credential hash: %s", w.Body.String())
			}
		})
	}
}

func TestUpdateUserHandler(t *testing.T) {
	accountID := newUUID()

	stored := account.Account{
		ID:           accountID,
		Username:     "sally",
		Email:        "sally@example.com",
		PasswordHash: "$2a$10$oldhash",
		AvatarURL:    "https://img.example.com/old.png",
	}

	tests := []struct {
		name           string
		sessionID      string
		body           string
		storeSetUp     func(*fakeAccountsStore)
		wantStatusCode int
	}{
		{
			name:      "partial_update_keeps_old_fields",
			sessionID: accountID,
			body:      `{"username": "sal"}`,
			storeSetUp: func(f *fakeAccountsStore) {
				f.findFn = func(ctx context.Context, id string) (account.Account, error) {
					return stored, nil
				}
				f.updateFn = func(ctx context.Context, id, username, email, passwordHash, avatarURL string) (account.Account, error) {
					if username != "sal" {
						return account.Account{}, errors.New("new username not applied")
					}
					if email != stored.Email || passwordHash != stored.PasswordHash || avatarURL != stored.AvatarURL {
						return account.Account{}, errors.New("untouched fields must keep stored values")
					}
					out := stored
					out.Username = username
					return out, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:      "password_change_is_rehashed",
			sessionID: accountID,
			body:      `{"password": "newpw"}`,
			storeSetUp: func(f *fakeAccountsStore) {
				f.findFn = func(ctx context.Context, id string) (account.Account, error) {
					return stored, nil
				}
				f.updateFn = func(ctx context.Context, id, username, email, passwordHash, avatarURL string) (account.Account, error) {
					if passwordHash == stored.PasswordHash || passwordHash == "newpw" {
						return account.Account{}, errors.New("password must be stored as a fresh hash")
					}
					return stored, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "not_self_forbidden",
			sessionID:      "someone-else",
			body:           `{"username": "sal"}`,
			storeSetUp:     func(f *fakeAccountsStore) {},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "no_session",
			sessionID:      "",
			body:           `{"username": "sal"}`,
			storeSetUp:     func(f *fakeAccountsStore) {},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:      "email_conflict",
			sessionID: accountID,
			body:      `{"email": "taken@example.com"}`,
			storeSetUp: func(f *fakeAccountsStore) {
				f.findFn = func(ctx context.Context, id string) (account.Account, error) {
					return stored, nil
				}
				f.updateFn = func(ctx context.Context, id, username, email, passwordHash, avatarURL string) (account.Account, error) {
					return account.Account{}, account.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeAccountsStore{}
			tt.storeSetUp(store)

			h := handlers.NewUsersHandler(store, &fakeOwnerListings{}, config.Config{})

			r := setupAuthedRouter(http.MethodPost, "/api/user/update/:id", tt.sessionID, h.UpdateUser)

			req := httptest.NewRequest(http.MethodPost, "/api/user/update/"+accountID, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestDeleteUserHandler(t *testing.T) {
	accountID := newUUID()

	t.Run("success_clears_cookie", func(t *testing.T) {
		store := &fakeAccountsStore{}

		h := handlers.NewUsersHandler(store, &fakeOwnerListings{}, config.Config{})

		r := setupAuthedRouter(http.MethodDelete, "/api/user/delete/:id", accountID, h.DeleteUser)

		req := httptest.NewRequest(http.MethodDelete, "/api/user/delete/"+accountID, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}

		c := sessionCookie(w.Result())
		if c == nil || c.Value != "" || c.MaxAge >= 0 {
			t.Fatalf("delete should clear the session cookie, got %+v", c)
		}
	})

	t.Run("not_self_forbidden", func(t *testing.T) {
		h := handlers.NewUsersHandler(&fakeAccountsStore{}, &fakeOwnerListings{}, config.Config{})

		r := setupAuthedRouter(http.MethodDelete, "/api/user/delete/:id", "someone-else", h.DeleteUser)

		req := httptest.NewRequest(http.MethodDelete, "/api/user/delete/"+accountID, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want %d", w.Code, http.StatusForbidden)
		}
	})
}

func TestGetUserListingsHandler(t *testing.T) {
	accountID := newUUID()

	listings := &fakeOwnerListings{
		listFn: func(ctx context.Context, ownerID string) ([]listing.Listing, error) {
			if ownerID != accountID {
				return nil, errors.New("wrong owner propagated")
			}
			return []listing.Listing{{ID: "l1", OwnerID: ownerID}}, nil
		},
	}

	h := handlers.NewUsersHandler(&fakeAccountsStore{}, listings, config.Config{})

	r := setupAuthedRouter(http.MethodGet, "/api/user/listings/:id", accountID, h.GetUserListings)

	req := httptest.NewRequest(http.MethodGet, "/api/user/listings/"+accountID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}
