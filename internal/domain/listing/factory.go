package listing

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateListingRequest, ownerID string) Listing {
	now := time.Now().UTC()

	return Listing{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   req.Description,
		Address:       req.Address,
		Type:          req.Type,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		RegularPrice:  req.RegularPrice,
		DiscountPrice: req.DiscountPrice,
		Offer:         req.Offer,
		Parking:       req.Parking,
		Furnished:     req.Furnished,
		ImageURLs:     req.ImageURLs,
		OwnerID:       ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
