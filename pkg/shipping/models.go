// Package shipping holds the shipment domain model and the lifecycle service.
package shipping

import (
	"time"
)

// Status represents the lifecycle state of a shipment.
type Status string

const (
	StatusCreated        Status = "created"
	StatusReserved       Status = "reserved"
	StatusInTransit      Status = "in_transit"
	StatusInDistribution Status = "in_distribution"
	StatusArrived        Status = "arrived"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Terminal reports whether no further transitions are permitted out of s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ParseStatus converts a string into a Status, reporting whether it is known.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusCreated, StatusReserved, StatusInTransit, StatusInDistribution,
		StatusArrived, StatusDelivered, StatusCancelled:
		return Status(raw), true
	}
	return "", false
}

// TransportType represents the transport mode of a travel leg.
type TransportType string

const (
	TransportTruck TransportType = "truck"
	TransportPlane TransportType = "plane"
	TransportBoat  TransportType = "boat"
)

// Locality is a named place keyed by (postal code, locality name).
// Postal codes are coarser than localities, so several localities may
// share one code.
type Locality struct {
	PostalCode   string
	LocalityName string
	StateName    string
	Country      string
	Lat          float64
	Lon          float64
}

// Address is a deduplicated street address referencing a Locality by its
// composite key.
type Address struct {
	ID           int64
	Street       string
	Number       int
	PostalCode   string
	LocalityName string
}

// Key returns the tuple used for address deduplication.
func (a Address) Key() AddressKey {
	return AddressKey{
		Street:       a.Street,
		Number:       a.Number,
		PostalCode:   a.PostalCode,
		LocalityName: a.LocalityName,
	}
}

// AddressKey identifies an address by its exact tuple.
type AddressKey struct {
	Street       string
	Number       int
	PostalCode   string
	LocalityName string
}

// DistributionCenter is a shipping origin wrapping one address.
type DistributionCenter struct {
	ID        int64
	AddressID int64
}

// TransportMethod is an enumerated transport mode with capacity attributes.
type TransportMethod struct {
	ID           int64
	Type         TransportType
	AverageSpeed float64
	MaxCapacity  float64
	Available    bool
}

// Travel is a transport leg binding one method to one distribution center.
// Many shipments may share a travel.
type Travel struct {
	ID                   int64
	TransportMethodID    int64
	DistributionCenterID int64
	DepartureTime        time.Time
	ArrivalTime          *time.Time
}

// Open reports whether the travel can still pool new shipments.
func (t Travel) Open() bool {
	return t.ArrivalTime == nil
}

// ProductQty is a shipment line item. Quantity below 1 is invalid.
type ProductQty struct {
	ProductID int64
	Quantity  int
}

// Valid reports whether the line item satisfies the quantity invariant.
func (p ProductQty) Valid() bool {
	return p.Quantity >= 1
}

// ProductDetail holds the physical shipping attributes of a product as
// resolved from the stock service. It is never persisted by this system.
// Weight is in grams, dimensions in centimeters.
type ProductDetail struct {
	ProductID        int64
	Weight           float64
	Length           float64
	Width            float64
	Height           float64
	OriginPostalCode string // empty when stock does not expose a warehouse
}

// Volume returns the unit volume in cubic centimeters.
func (d ProductDetail) Volume() float64 {
	return d.Length * d.Width * d.Height
}

// ShippingLog is an append-only entry in a shipment's history.
type ShippingLog struct {
	Timestamp time.Time
	Status    Status
	Message   string
}

// ShippingDetail is the shipment aggregate. It is created once, mutated only
// through the lifecycle service, and never physically deleted.
type ShippingDetail struct {
	ID                  int64
	OrderID             int64
	UserID              int64
	DeliveryAddressID   int64
	TravelID            int64
	Products            []ProductQty
	Status              Status
	TrackingNumber      string
	CarrierName         string
	TotalCost           float64
	Currency            string
	EstimatedDeliveryAt time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Logs                []ShippingLog
}

// ============================================================================
// Request/Response Types
// ============================================================================

// DeliveryAddress is the caller-supplied destination of a shipment.
type DeliveryAddress struct {
	Street       string
	Number       int
	PostalCode   string
	LocalityName string
}

// CreateRequest is the request for creating a shipment.
type CreateRequest struct {
	OrderID         int64
	UserID          int64
	DeliveryAddress DeliveryAddress
	Products        []ProductQty
	TransportType   TransportType
}

// CreateResponse is the minimal creation response.
type CreateResponse struct {
	ShippingID          int64
	Status              Status
	TransportType       TransportType
	EstimatedDeliveryAt time.Time
}

// CancelResponse acknowledges a successful cancellation.
type CancelResponse struct {
	ShippingID  int64
	Status      Status
	CancelledAt time.Time
}

// DetailResponse is the full read projection of one shipment.
type DetailResponse struct {
	ShippingID          int64
	OrderID             int64
	UserID              int64
	Status              Status
	TransportType       TransportType
	TrackingNumber      string
	CarrierName         string
	TotalCost           float64
	Currency            string
	EstimatedDeliveryAt time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeliveryAddress     Address
	DepartureAddress    Address
	Products            []ProductQty
	Logs                []ShippingLog
}

// ProductCost is the cost share of one line item in a quote.
type ProductCost struct {
	ProductID int64
	Cost      float64
}

// CostQuote is the result of a shipping cost estimation.
type CostQuote struct {
	Currency      string
	TotalCost     float64
	TransportType TransportType
	Products      []ProductCost
}

// ListFilter narrows a shipment listing. Nil fields are ignored.
type ListFilter struct {
	UserID   *int64
	Status   *Status
	FromDate *time.Time
	ToDate   *time.Time
}

// Summary is one row of a shipment listing.
type Summary struct {
	ShippingID          int64
	OrderID             int64
	UserID              int64
	Products            []ProductQty
	Status              Status
	TransportType       TransportType
	EstimatedDeliveryAt time.Time
	CreatedAt           time.Time
}

// Pagination describes the slice returned by List.
type Pagination struct {
	CurrentPage  int
	TotalPages   int
	TotalItems   int
	ItemsPerPage int
}

// ListResponse is a page of shipment summaries plus pagination metadata.
type ListResponse struct {
	Shipments  []Summary
	Pagination Pagination
}
