package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultAvatarURL is used for accounts created without a profile picture.
const DefaultAvatarURL = "https://cdn.homehub.dev/static/blank-profile.png"

var (
	ErrNotFound      = errors.New("account not found")
	ErrEmailTaken    = errors.New("email already in use")
	ErrUsernameTaken = errors.New("username already in use")
)

type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	AvatarURL    string    `json:"avatar"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Draft carries the caller-supplied fields for a new account. IDs and
// timestamps are assigned by NewFromDraft.
type Draft struct {
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    string
}

func NewFromDraft(d Draft) Account {
	now := time.Now().UTC()

	avatar := d.AvatarURL

	if avatar == "" {
		avatar = DefaultAvatarURL
	}

	return Account{
		ID:           uuid.NewString(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		AvatarURL:    avatar,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Public is the outbound projection of an Account. The password hash is
// stripped here, in one place, rather than at every response site.
type Public struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a Account) Public() Public {
	return Public{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		AvatarURL: a.AvatarURL,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
