package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harborview/homehub/internal/domain/listing"
	"github.com/harborview/homehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ListingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewListingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ListingsRepo {
	return &ListingsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *ListingsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const listingColumns = `id, name, description, address, type, bedrooms, bathrooms,
	regular_price, discount_price, offer, parking, furnished, image_urls,
	owner_id, created_at, updated_at`

func scanListing(row pgx.Row) (listing.Listing, error) {
	var l listing.Listing

	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Description,
		&l.Address,
		&l.Type,
		&l.Bedrooms,
		&l.Bathrooms,
		&l.RegularPrice,
		&l.DiscountPrice,
		&l.Offer,
		&l.Parking,
		&l.Furnished,
		&l.ImageURLs,
		&l.OwnerID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	return l, err
}

func (r *ListingsRepo) Create(ctx context.Context, req listing.CreateListingRequest, ownerID string) (listing.Listing, error) {
	l := listing.NewFromCreateRequest(req, ownerID)

	err := r.observe("listings.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO listings (id, name, description, address, type, bedrooms, bathrooms,
				regular_price, discount_price, offer, parking, furnished, image_urls,
				owner_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
			l.ID, l.Name, l.Description, l.Address, l.Type, l.Bedrooms, l.Bathrooms,
			l.RegularPrice, l.DiscountPrice, l.Offer, l.Parking, l.Furnished, l.ImageURLs,
			l.OwnerID, l.CreatedAt, l.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return listing.Listing{}, err
	}

	return l, nil
}

func (r *ListingsRepo) GetByID(ctx context.Context, id string) (listing.Listing, error) {
	var l listing.Listing

	err := r.observe("listings.get", func() error {
		var err error
		l, err = scanListing(r.pool.QueryRow(ctx,
			`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}

		return listing.Listing{}, err
	}

	return l, nil
}

func (r *ListingsRepo) Search(ctx context.Context, f listing.SearchFilter) ([]listing.Listing, int, error) {
	baseQuery := `SELECT ` + listingColumns + `,
		COUNT(*) OVER() AS total
	FROM listings
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	// filtered conditional checks.
	if f.Term != nil {
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", argsPosition))
		args = append(args, "%"+*f.Term+"%")
		argsPosition++
	}

	if f.Type != nil {
		conds = append(conds, fmt.Sprintf("type = $%d", argsPosition))
		args = append(args, *f.Type)
		argsPosition++
	}

	if f.Offer != nil {
		conds = append(conds, fmt.Sprintf("offer = $%d", argsPosition))
		args = append(args, *f.Offer)
		argsPosition++
	}

	if f.Parking != nil {
		conds = append(conds, fmt.Sprintf("parking = $%d", argsPosition))
		args = append(args, *f.Parking)
		argsPosition++
	}

	if f.Furnished != nil {
		conds = append(conds, fmt.Sprintf("furnished = $%d", argsPosition))
		args = append(args, *f.Furnished)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// sort key is whitelisted, never interpolated from raw input
	sortKey := "created_at"

	if f.SortKey == "regular_price" {
		sortKey = "regular_price"
	}

	direction := "ASC"

	if f.SortDesc {
		direction = "DESC"
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d", sortKey, direction, argsPosition, argsPosition+1)

	args = append(args, f.Limit, f.Offset)

	output := make([]listing.Listing, 0, f.Limit)
	total := 0

	err := r.observe("listings.search", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var l listing.Listing
			var t int

			err = rows.Scan(
				&l.ID, &l.Name, &l.Description, &l.Address, &l.Type, &l.Bedrooms,
				&l.Bathrooms, &l.RegularPrice, &l.DiscountPrice, &l.Offer, &l.Parking,
				&l.Furnished, &l.ImageURLs, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt, &t,
			)

			if err != nil {
				return err
			}

			total = t
			output = append(output, l)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *ListingsRepo) ListByOwner(ctx context.Context, ownerID string) ([]listing.Listing, error) {
	var output []listing.Listing

	err := r.observe("listings.list_by_owner", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+listingColumns+` FROM listings WHERE owner_id = $1 ORDER BY created_at DESC, id ASC`,
			ownerID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var l listing.Listing

			err = rows.Scan(
				&l.ID, &l.Name, &l.Description, &l.Address, &l.Type, &l.Bedrooms,
				&l.Bathrooms, &l.RegularPrice, &l.DiscountPrice, &l.Offer, &l.Parking,
				&l.Furnished, &l.ImageURLs, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt,
			)

			if err != nil {
				return err
			}

			output = append(output, l)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *ListingsRepo) Update(ctx context.Context, id string, req listing.UpdateListingRequest) (listing.Listing, error) {
	var l listing.Listing

	err := r.observe("listings.update", func() error {
		var err error
		l, err = scanListing(r.pool.QueryRow(
			ctx,
			`UPDATE listings
			SET name = $2,
					description = $3,
					address = $4,
					type = $5,
					bedrooms = $6,
					bathrooms = $7,
					regular_price = $8,
					discount_price = $9,
					offer = $10,
					parking = $11,
					furnished = $12,
					image_urls = $13,
					updated_at = NOW()
		WHERE id = $1
		RETURNING `+listingColumns,
			id,
			req.Name,
			req.Description,
			req.Address,
			req.Type,
			req.Bedrooms,
			req.Bathrooms,
			req.RegularPrice,
			req.DiscountPrice,
			req.Offer,
			req.Parking,
			req.Furnished,
			req.ImageURLs,
		))
		return err
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return listing.Listing{}, listing.ErrNotFound
		}
		// if it is any other type of error
		return listing.Listing{}, err
	}

	return l, nil
}

func (r *ListingsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("listings.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `
			DELETE FROM listings WHERE id = $1
		`, id)
		return err
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag.RowsAffected() == 0 {
		return listing.ErrNotFound
	}

	return nil
}
