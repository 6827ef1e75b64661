// Package memory holds map-backed repositories with the same error contract
// as the postgres ones. Used by tests and local bring-up.
package memory

import (
	"context"
	"sync"

	"github.com/harborview/homehub/internal/domain/account"
)

type AccountsRepo struct {
	mu      sync.Mutex
	byID    map[string]account.Account
	byEmail map[string]string // email -> id
	byName  map[string]string // username -> id
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		byID:    make(map[string]account.Account),
		byEmail: make(map[string]string),
		byName:  make(map[string]string),
	}
}

func (r *AccountsRepo) FindByEmail(_ context.Context, email string) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	return r.byID[id], nil
}

func (r *AccountsRepo) FindByID(_ context.Context, id string) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	return a, nil
}

func (r *AccountsRepo) Create(_ context.Context, draft account.Draft) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createLocked(draft)
}

func (r *AccountsRepo) createLocked(draft account.Draft) (account.Account, error) {
	if _, ok := r.byEmail[draft.Email]; ok {
		return account.Account{}, account.ErrEmailTaken
	}

	if _, ok := r.byName[draft.Username]; ok {
		return account.Account{}, account.ErrUsernameTaken
	}

	a := account.NewFromDraft(draft)

	r.byID[a.ID] = a
	r.byEmail[a.Email] = a.ID
	r.byName[a.Username] = a.ID

	return a, nil
}

func (r *AccountsRepo) FindOrCreateByEmail(_ context.Context, draft account.Draft) (account.Account, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byEmail[draft.Email]; ok {
		return r.byID[id], false, nil
	}

	a, err := r.createLocked(draft)

	if err != nil {
		return account.Account{}, false, err
	}

	return a, true, nil
}

func (r *AccountsRepo) Update(_ context.Context, id string, username, email, passwordHash, avatarURL string) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	if other, taken := r.byEmail[email]; taken && other != id {
		return account.Account{}, account.ErrEmailTaken
	}

	if other, taken := r.byName[username]; taken && other != id {
		return account.Account{}, account.ErrUsernameTaken
	}

	delete(r.byEmail, a.Email)
	delete(r.byName, a.Username)

	a.Username = username
	a.Email = email
	a.PasswordHash = passwordHash
	a.AvatarURL = avatarURL

	r.byID[id] = a
	r.byEmail[email] = id
	r.byName[username] = id

	return a, nil
}

func (r *AccountsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]

	if !ok {
		return account.ErrNotFound
	}

	delete(r.byID, id)
	delete(r.byEmail, a.Email)
	delete(r.byName, a.Username)

	return nil
}

// Count reports the number of stored accounts. Test helper.
func (r *AccountsRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byID)
}
