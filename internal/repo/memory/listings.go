package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/harborview/homehub/internal/domain/listing"
)

type ListingsRepo struct {
	mu   sync.Mutex
	byID map[string]listing.Listing
}

func NewListingsRepo() *ListingsRepo {
	return &ListingsRepo{byID: make(map[string]listing.Listing)}
}

func (r *ListingsRepo) Create(_ context.Context, req listing.CreateListingRequest, ownerID string) (listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l := listing.NewFromCreateRequest(req, ownerID)
	r.byID[l.ID] = l

	return l, nil
}

func (r *ListingsRepo) GetByID(_ context.Context, id string) (listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]

	if !ok {
		return listing.Listing{}, listing.ErrNotFound
	}

	return l, nil
}

func (r *ListingsRepo) Search(_ context.Context, f listing.SearchFilter) ([]listing.Listing, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []listing.Listing

	for _, l := range r.byID {
		if f.Term != nil && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(*f.Term)) {
			continue
		}

		if f.Type != nil && l.Type != *f.Type {
			continue
		}

		if f.Offer != nil && l.Offer != *f.Offer {
			continue
		}

		if f.Parking != nil && l.Parking != *f.Parking {
			continue
		}

		if f.Furnished != nil && l.Furnished != *f.Furnished {
			continue
		}

		matched = append(matched, l)
	}

	sort.Slice(matched, func(i, j int) bool {
		var less bool

		if f.SortKey == "regular_price" {
			less = matched[i].RegularPrice < matched[j].RegularPrice
		} else {
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}

		if f.SortDesc {
			return !less
		}

		return less
	})

	total := len(matched)

	if f.Offset >= total {
		return []listing.Listing{}, total, nil
	}

	end := f.Offset + f.Limit

	if end > total {
		end = total
	}

	return matched[f.Offset:end], total, nil
}

func (r *ListingsRepo) ListByOwner(_ context.Context, ownerID string) ([]listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []listing.Listing

	for _, l := range r.byID {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}

	return out, nil
}

func (r *ListingsRepo) Update(_ context.Context, id string, req listing.UpdateListingRequest) (listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byID[id]

	if !ok {
		return listing.Listing{}, listing.ErrNotFound
	}

	l.Name = req.Name
	l.Description = req.Description
	l.Address = req.Address
	l.Type = req.Type
	l.Bedrooms = req.Bedrooms
	l.Bathrooms = req.Bathrooms
	l.RegularPrice = req.RegularPrice
	l.DiscountPrice = req.DiscountPrice
	l.Offer = req.Offer
	l.Parking = req.Parking
	l.Furnished = req.Furnished
	l.ImageURLs = req.ImageURLs

	r.byID[id] = l

	return l, nil
}

func (r *ListingsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return listing.ErrNotFound
	}

	delete(r.byID, id)

	return nil
}
