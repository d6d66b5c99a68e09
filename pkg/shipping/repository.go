package shipping

import (
	"context"
)

// Repository is the persistence port for shipment aggregates. The lifecycle
// service is the only writer.
type Repository interface {
	// Add persists a new shipment and assigns its id.
	Add(ctx context.Context, detail *ShippingDetail) error

	// GetByID loads a full aggregate including products and logs, or
	// ErrNotFound.
	GetByID(ctx context.Context, id int64) (*ShippingDetail, error)

	// UpdateStatus moves a shipment to a new status, bumps updated_at, and
	// appends a log entry. Returns ErrNotFound for an unknown id.
	UpdateStatus(ctx context.Context, id int64, status Status, log ShippingLog) error

	// List returns the filtered, created_at-descending page of shipments
	// together with the total count before pagination.
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*ShippingDetail, int, error)
}

// AddressRepository resolves and stores deduplicated addresses.
type AddressRepository interface {
	// FindExisting returns the address matching the exact tuple, or nil
	// when no match exists.
	FindExisting(ctx context.Context, key AddressKey) (*Address, error)

	// Add inserts a new address and assigns its id.
	Add(ctx context.Context, addr *Address) error

	// GetByID loads one address.
	GetByID(ctx context.Context, id int64) (*Address, error)
}

// LocalityRepository is the read-only locality directory.
type LocalityRepository interface {
	// GetByCompositeKey returns the locality for (postal code, name), or
	// nil when no such locality exists. Absence is data, not an error.
	GetByCompositeKey(ctx context.Context, postalCode, localityName string) (*Locality, error)

	// GetByPostalCode returns every locality sharing a postal code.
	GetByPostalCode(ctx context.Context, postalCode string) ([]Locality, error)
}

// TravelRepository allocates travel legs with reuse pooling.
type TravelRepository interface {
	// CurrentTravel returns the open travel for the (center, method) pair,
	// creating one only when none exists.
	CurrentTravel(ctx context.Context, distributionCenterID, transportMethodID int64) (*Travel, error)

	// GetByID loads one travel.
	GetByID(ctx context.Context, id int64) (*Travel, error)

	// TransportMethod loads the method bound to a travel leg.
	TransportMethod(ctx context.Context, id int64) (*TransportMethod, error)

	// DistributionCenter loads a shipping origin.
	DistributionCenter(ctx context.Context, id int64) (*DistributionCenter, error)
}
