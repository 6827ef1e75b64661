// Package accounts implements signup, signin, and federated
// signin-or-register on top of a credential store and a token issuer.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/harborview/homehub/internal/domain/account"
	"github.com/harborview/homehub/internal/security"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrWrongPassword = errors.New("wrong credentials")
)

// Store is the slice of the credential store this service consumes.
// Uniqueness of email and username is enforced by the store; concurrent
// creates for the same identity resolve to exactly one winner.
type Store interface {
	FindByEmail(ctx context.Context, email string) (account.Account, error)
	Create(ctx context.Context, draft account.Draft) (account.Account, error)
	// FindOrCreateByEmail inserts the draft unless an account with its email
	// already exists, and returns the surviving row either way.
	FindOrCreateByEmail(ctx context.Context, draft account.Draft) (account.Account, bool, error)
}

type TokenIssuer interface {
	Issue(accountID string) (string, error)
}

type Service struct {
	store  Store
	tokens TokenIssuer
}

func NewService(store Store, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// Signup creates a local account. No session is issued; callers sign in
// separately.
func (s *Service) Signup(ctx context.Context, username, email, password string) (account.Public, error) {
	if strings.TrimSpace(username) == "" {
		return account.Public{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	if err := validateEmail(email); err != nil {
		return account.Public{}, err
	}

	// Non-empty is the only password rule enforced here.
	if password == "" {
		return account.Public{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return account.Public{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.Create(ctx, account.Draft{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})

	if err != nil {
		return account.Public{}, err
	}

	return created.Public(), nil
}

// Signin verifies a local credential and mints a session token.
// An unknown email yields account.ErrNotFound, a bad password
// ErrWrongPassword; the two are deliberately distinguishable.
func (s *Service) Signin(ctx context.Context, email, password string) (account.Public, string, error) {
	found, err := s.store.FindByEmail(ctx, email)

	if err != nil {
		return account.Public{}, "", err
	}

	if err := security.CheckPassword(found.PasswordHash, password); err != nil {
		return account.Public{}, "", ErrWrongPassword
	}

	token, err := s.tokens.Issue(found.ID)

	if err != nil {
		return account.Public{}, "", fmt.Errorf("issue session token: %w", err)
	}

	return found.Public(), token, nil
}

// FederatedSignin trusts the asserted email and signs the account in,
// registering it first if this is the first time the email is seen. Email is
// the sole identity key, so a federated assertion for an email that already
// has a password account signs in to that same account without a credential
// check.
func (s *Service) FederatedSignin(ctx context.Context, email, displayName, avatarURL string) (account.Public, string, error) {
	if err := validateEmail(email); err != nil {
		return account.Public{}, "", err
	}

	if strings.TrimSpace(displayName) == "" {
		return account.Public{}, "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	found, err := s.store.FindByEmail(ctx, email)

	switch {
	case err == nil:
		// already registered; federation asserts identity out-of-band

	case errors.Is(err, account.ErrNotFound):
		found, err = s.registerFederated(ctx, email, displayName, avatarURL)

		if err != nil {
			return account.Public{}, "", err
		}

	default:
		return account.Public{}, "", err
	}

	token, err := s.tokens.Issue(found.ID)

	if err != nil {
		return account.Public{}, "", fmt.Errorf("issue session token: %w", err)
	}

	return found.Public(), token, nil
}

func (s *Service) registerFederated(ctx context.Context, email, displayName, avatarURL string) (account.Account, error) {
	username, err := synthesizeUsername(displayName)

	if err != nil {
		return account.Account{}, err
	}

	// Every account carries a credential hash. Federated accounts get a
	// random placeholder secret that is never revealed or usable for
	// password login.
	secret, err := security.GenerateSecret()

	if err != nil {
		return account.Account{}, err
	}

	hash, err := security.HashPassword(secret)

	if err != nil {
		return account.Account{}, fmt.Errorf("hash placeholder secret: %w", err)
	}

	// Two federated logins racing on a brand-new email both land here; the
	// store's uniqueness constraint picks the single surviving row.
	created, _, err := s.store.FindOrCreateByEmail(ctx, account.Draft{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    avatarURL,
	})

	if err != nil {
		return account.Account{}, err
	}

	return created, nil
}

// synthesizeUsername strips whitespace from the display name, lower-cases
// it, and appends a short random suffix so two people with the same name get
// distinct usernames.
func synthesizeUsername(displayName string) (string, error) {
	base := strings.ToLower(strings.Join(strings.Fields(displayName), ""))

	suffix, err := security.RandomBase36(4)

	if err != nil {
		return "", err
	}

	return base + suffix, nil
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}

	return nil
}
