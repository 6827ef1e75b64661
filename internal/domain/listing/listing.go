package listing

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("listing not found")

type Listing struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Type          string    `json:"type"` // "sale" or "rent"
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	RegularPrice  int       `json:"regularPrice"`
	DiscountPrice int       `json:"discountPrice"`
	Offer         bool      `json:"offer"`
	Parking       bool      `json:"parking"`
	Furnished     bool      `json:"furnished"`
	ImageURLs     []string  `json:"imageUrls"`
	OwnerID       string    `json:"userRef"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type CreateListingRequest struct {
	Name          string   `json:"name" binding:"required,min=3,max=120"`
	Description   string   `json:"description" binding:"required,max=2000"`
	Address       string   `json:"address" binding:"required,max=300"`
	Type          string   `json:"type" binding:"required,oneof=sale rent"`
	Bedrooms      int      `json:"bedrooms" binding:"required,min=1,max=50"`
	Bathrooms     int      `json:"bathrooms" binding:"required,min=1,max=50"`
	RegularPrice  int      `json:"regularPrice" binding:"required,min=0"`
	DiscountPrice int      `json:"discountPrice" binding:"min=0"`
	Offer         bool     `json:"offer"`
	Parking       bool     `json:"parking"`
	Furnished     bool     `json:"furnished"`
	ImageURLs     []string `json:"imageUrls" binding:"required,min=1,max=6,dive,url"`
}

// a full update payload, same shape as create.
type UpdateListingRequest struct {
	Name          string   `json:"name" binding:"required,min=3,max=120"`
	Description   string   `json:"description" binding:"required,max=2000"`
	Address       string   `json:"address" binding:"required,max=300"`
	Type          string   `json:"type" binding:"required,oneof=sale rent"`
	Bedrooms      int      `json:"bedrooms" binding:"required,min=1,max=50"`
	Bathrooms     int      `json:"bathrooms" binding:"required,min=1,max=50"`
	RegularPrice  int      `json:"regularPrice" binding:"required,min=0"`
	DiscountPrice int      `json:"discountPrice" binding:"min=0"`
	Offer         bool     `json:"offer"`
	Parking       bool     `json:"parking"`
	Furnished     bool     `json:"furnished"`
	ImageURLs     []string `json:"imageUrls" binding:"required,min=1,max=6,dive,url"`
}

// with pointers if optional, it will be nil
type SearchFilter struct {
	Term      *string
	Type      *string // "sale" or "rent"; nil means both
	Offer     *bool
	Parking   *bool
	Furnished *bool
	SortKey   string // "regular_price" or "created_at"
	SortDesc  bool
	Limit     int
	Offset    int
}
