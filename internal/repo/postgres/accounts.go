package postgres

import (
	"context"
	"errors"

	"github.com/harborview/homehub/internal/domain/account"
	"github.com/harborview/homehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{pool: pool, prom: prom}
}

func (r *AccountsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const accountColumns = `id, username, email, password_hash, avatar_url, created_at, updated_at`

func scanAccount(row pgx.Row) (account.Account, error) {
	var a account.Account

	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.AvatarURL,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (r *AccountsRepo) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	var a account.Account

	err := r.observe("accounts.find_by_email", func() error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(
			ctx,
			`SELECT `+accountColumns+`
	         FROM accounts
	         WHERE email = $1`,
			email,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return a, nil
}

func (r *AccountsRepo) FindByID(ctx context.Context, id string) (account.Account, error) {
	var a account.Account

	err := r.observe("accounts.find_by_id", func() error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(
			ctx,
			`SELECT `+accountColumns+`
	         FROM accounts
	         WHERE id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return a, nil
}

func (r *AccountsRepo) Create(ctx context.Context, draft account.Draft) (account.Account, error) {
	a := account.NewFromDraft(draft)

	err := r.observe("accounts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO accounts (id, username, email, password_hash, avatar_url, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.Username, a.Email, a.PasswordHash, a.AvatarURL, a.CreatedAt, a.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return account.Account{}, mapUniqueViolation(err)
	}

	return a, nil
}

// FindOrCreateByEmail is the idempotent upsert behind federated signin. The
// insert and the lookup race through the unique index on email, so exactly
// one row survives no matter how many concurrent callers present the same
// new email.
func (r *AccountsRepo) FindOrCreateByEmail(ctx context.Context, draft account.Draft) (account.Account, bool, error) {
	a := account.NewFromDraft(draft)

	var inserted account.Account

	err := r.observe("accounts.find_or_create", func() error {
		var err error
		inserted, err = scanAccount(r.pool.QueryRow(ctx,
			`INSERT INTO accounts (id, username, email, password_hash, avatar_url, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (email) DO NOTHING
			 RETURNING `+accountColumns,
			a.ID, a.Username, a.Email, a.PasswordHash, a.AvatarURL, a.CreatedAt, a.UpdatedAt,
		))
		return err
	})

	if err == nil {
		return inserted, true, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		// a username collision still surfaces as 23505
		return account.Account{}, false, mapUniqueViolation(err)
	}

	existing, err := r.FindByEmail(ctx, draft.Email)

	if err != nil {
		return account.Account{}, false, err
	}

	return existing, false, nil
}

func (r *AccountsRepo) Update(ctx context.Context, id string, username, email, passwordHash, avatarURL string) (account.Account, error) {
	var a account.Account

	err := r.observe("accounts.update", func() error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(
			ctx,
			`UPDATE accounts
				SET username = $2,
						email = $3,
						password_hash = $4,
						avatar_url = $5,
						updated_at = NOW()
			WHERE id = $1
			RETURNING `+accountColumns,
			id, username, email, passwordHash, avatarURL,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, mapUniqueViolation(err)
	}

	return a, nil
}

func (r *AccountsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("accounts.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}

	return nil
}

// mapUniqueViolation turns a 23505 into the matching domain conflict error;
// anything else passes through untouched.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError

	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}

	switch pgErr.ConstraintName {
	case "accounts_username_key":
		return account.ErrUsernameTaken
	default:
		return account.ErrEmailTaken
	}
}
