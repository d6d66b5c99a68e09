// Package store provides the persistence implementations behind the
// shipping repository ports: a Postgres-backed store for production and an
// in-memory store for tests and ephemeral runs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pampacargo/logistica/pkg/shipping"
)

type localityKey struct {
	postalCode   string
	localityName string
}

// Memory is a mutex-guarded in-memory store. Each port is exposed through an
// accessor so one instance backs all four repositories. State does not
// survive a restart.
type Memory struct {
	mu sync.RWMutex

	nextShippingID int64
	nextAddressID  int64
	nextTravelID   int64

	shipments  map[int64]*shipping.ShippingDetail
	addresses  map[int64]*shipping.Address
	localities map[localityKey]shipping.Locality
	byPostal   map[string][]localityKey
	travels    map[int64]*shipping.Travel
	methods    map[int64]*shipping.TransportMethod
	centers    map[int64]*shipping.DistributionCenter
}

// NewMemory creates an in-memory store seeded with the default distribution
// center and transport method the lifecycle service assigns.
func NewMemory() *Memory {
	m := &Memory{
		shipments:  make(map[int64]*shipping.ShippingDetail),
		addresses:  make(map[int64]*shipping.Address),
		localities: make(map[localityKey]shipping.Locality),
		byPostal:   make(map[string][]localityKey),
		travels:    make(map[int64]*shipping.Travel),
		methods:    make(map[int64]*shipping.TransportMethod),
		centers:    make(map[int64]*shipping.DistributionCenter),
	}

	m.SeedLocality(shipping.Locality{
		PostalCode: "H3500", LocalityName: "Resistencia",
		StateName: "Chaco", Country: "Argentina",
		Lat: -27.45, Lon: -58.99,
	})

	m.nextAddressID++
	depot := &shipping.Address{
		ID:     m.nextAddressID,
		Street: "Av. Sarmiento", Number: 1800,
		PostalCode: "H3500", LocalityName: "Resistencia",
	}
	m.addresses[depot.ID] = depot

	m.methods[1] = &shipping.TransportMethod{
		ID: 1, Type: shipping.TransportTruck,
		AverageSpeed: 80, MaxCapacity: 12000, Available: true,
	}
	m.centers[1] = &shipping.DistributionCenter{ID: 1, AddressID: depot.ID}

	return m
}

// SeedLocality registers a locality in the directory.
func (m *Memory) SeedLocality(l shipping.Locality) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := localityKey{l.PostalCode, l.LocalityName}
	if _, exists := m.localities[key]; !exists {
		m.byPostal[l.PostalCode] = append(m.byPostal[l.PostalCode], key)
	}
	m.localities[key] = l
}

// Shipments exposes the store as a shipping.Repository.
func (m *Memory) Shipments() shipping.Repository { return memoryShipments{m} }

// Addresses exposes the store as a shipping.AddressRepository.
func (m *Memory) Addresses() shipping.AddressRepository { return memoryAddresses{m} }

// Localities exposes the store as a shipping.LocalityRepository.
func (m *Memory) Localities() shipping.LocalityRepository { return memoryLocalities{m} }

// Travels exposes the store as a shipping.TravelRepository.
func (m *Memory) Travels() shipping.TravelRepository { return memoryTravels{m} }

// ============================================================================
// shipping.Repository
// ============================================================================

type memoryShipments struct{ m *Memory }

func (r memoryShipments) Add(_ context.Context, detail *shipping.ShippingDetail) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextShippingID++
	detail.ID = r.m.nextShippingID
	r.m.shipments[detail.ID] = copyDetail(detail)
	return nil
}

func (r memoryShipments) GetByID(_ context.Context, id int64) (*shipping.ShippingDetail, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	detail, ok := r.m.shipments[id]
	if !ok {
		return nil, shipping.ErrNotFound
	}
	return copyDetail(detail), nil
}

func (r memoryShipments) UpdateStatus(_ context.Context, id int64, status shipping.Status, log shipping.ShippingLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	detail, ok := r.m.shipments[id]
	if !ok {
		return shipping.ErrNotFound
	}
	detail.Status = status
	detail.UpdatedAt = log.Timestamp
	detail.Logs = append(detail.Logs, log)
	return nil
}

func (r memoryShipments) List(_ context.Context, filter shipping.ListFilter, page, limit int) ([]*shipping.ShippingDetail, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	matched := make([]*shipping.ShippingDetail, 0, len(r.m.shipments))
	for _, d := range r.m.shipments {
		if filter.UserID != nil && d.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		if filter.FromDate != nil && d.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && d.CreatedAt.After(*filter.ToDate) {
			continue
		}
		matched = append(matched, d)
	}

	// created_at descending, id descending as a stable tie-break.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := (page - 1) * limit
	if start >= total {
		return []*shipping.ShippingDetail{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	slice := make([]*shipping.ShippingDetail, 0, end-start)
	for _, d := range matched[start:end] {
		slice = append(slice, copyDetail(d))
	}
	return slice, total, nil
}

func copyDetail(d *shipping.ShippingDetail) *shipping.ShippingDetail {
	out := *d
	out.Products = append([]shipping.ProductQty(nil), d.Products...)
	out.Logs = append([]shipping.ShippingLog(nil), d.Logs...)
	return &out
}

// ============================================================================
// shipping.AddressRepository
// ============================================================================

type memoryAddresses struct{ m *Memory }

func (r memoryAddresses) FindExisting(_ context.Context, key shipping.AddressKey) (*shipping.Address, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, a := range r.m.addresses {
		if a.Key() == key {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (r memoryAddresses) Add(_ context.Context, addr *shipping.Address) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextAddressID++
	addr.ID = r.m.nextAddressID
	stored := *addr
	r.m.addresses[addr.ID] = &stored
	return nil
}

func (r memoryAddresses) GetByID(_ context.Context, id int64) (*shipping.Address, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if a, ok := r.m.addresses[id]; ok {
		out := *a
		return &out, nil
	}
	return nil, nil
}

// ============================================================================
// shipping.LocalityRepository
// ============================================================================

type memoryLocalities struct{ m *Memory }

func (r memoryLocalities) GetByCompositeKey(_ context.Context, postalCode, localityName string) (*shipping.Locality, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if l, ok := r.m.localities[localityKey{postalCode, localityName}]; ok {
		out := l
		return &out, nil
	}
	return nil, nil
}

func (r memoryLocalities) GetByPostalCode(_ context.Context, postalCode string) ([]shipping.Locality, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	keys := r.m.byPostal[postalCode]
	out := make([]shipping.Locality, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.m.localities[k])
	}
	return out, nil
}

// ============================================================================
// shipping.TravelRepository
// ============================================================================

type memoryTravels struct{ m *Memory }

func (r memoryTravels) CurrentTravel(_ context.Context, distributionCenterID, transportMethodID int64) (*shipping.Travel, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, t := range r.m.travels {
		if t.DistributionCenterID == distributionCenterID &&
			t.TransportMethodID == transportMethodID && t.Open() {
			out := *t
			return &out, nil
		}
	}

	r.m.nextTravelID++
	travel := &shipping.Travel{
		ID:                   r.m.nextTravelID,
		TransportMethodID:    transportMethodID,
		DistributionCenterID: distributionCenterID,
		DepartureTime:        time.Now().UTC(),
	}
	r.m.travels[travel.ID] = travel
	out := *travel
	return &out, nil
}

func (r memoryTravels) GetByID(_ context.Context, id int64) (*shipping.Travel, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if t, ok := r.m.travels[id]; ok {
		out := *t
		return &out, nil
	}
	return nil, nil
}

func (r memoryTravels) TransportMethod(_ context.Context, id int64) (*shipping.TransportMethod, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if tm, ok := r.m.methods[id]; ok {
		out := *tm
		return &out, nil
	}
	return nil, nil
}

func (r memoryTravels) DistributionCenter(_ context.Context, id int64) (*shipping.DistributionCenter, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if c, ok := r.m.centers[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, nil
}
