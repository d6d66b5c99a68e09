package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pampacargo/logistica/pkg/shipping"
)

// Postgres implements every repository port over a lib/pq connection pool.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to the database and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Shipments exposes the store as a shipping.Repository.
func (p *Postgres) Shipments() shipping.Repository { return pgShipments{p.db} }

// Addresses exposes the store as a shipping.AddressRepository.
func (p *Postgres) Addresses() shipping.AddressRepository { return pgAddresses{p.db} }

// Localities exposes the store as a shipping.LocalityRepository.
func (p *Postgres) Localities() shipping.LocalityRepository { return pgLocalities{p.db} }

// Travels exposes the store as a shipping.TravelRepository.
func (p *Postgres) Travels() shipping.TravelRepository { return pgTravels{p.db} }

// ============================================================================
// shipping.Repository
// ============================================================================

type pgShipments struct {
	db *sql.DB
}

func (r pgShipments) Add(ctx context.Context, detail *shipping.ShippingDetail) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO shippings (
			order_id, user_id, delivery_address_id, travel_id, status,
			tracking_number, carrier_name, total_cost, currency,
			estimated_delivery_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING shipping_id
	`,
		detail.OrderID,
		detail.UserID,
		detail.DeliveryAddressID,
		detail.TravelID,
		string(detail.Status),
		detail.TrackingNumber,
		detail.CarrierName,
		detail.TotalCost,
		detail.Currency,
		detail.EstimatedDeliveryAt,
		detail.CreatedAt,
		detail.UpdatedAt,
	).Scan(&detail.ID)
	if err != nil {
		return fmt.Errorf("inserting shipping: %w", err)
	}

	for _, pq := range detail.Products {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shipping_products (shipping_id, product_id, quantity)
			VALUES ($1, $2, $3)
		`, detail.ID, pq.ProductID, pq.Quantity); err != nil {
			return fmt.Errorf("inserting shipping product: %w", err)
		}
	}

	for _, log := range detail.Logs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shipping_logs (shipping_id, logged_at, status, message)
			VALUES ($1, $2, $3, $4)
		`, detail.ID, log.Timestamp, string(log.Status), log.Message); err != nil {
			return fmt.Errorf("inserting shipping log: %w", err)
		}
	}

	return tx.Commit()
}

func (r pgShipments) GetByID(ctx context.Context, id int64) (*shipping.ShippingDetail, error) {
	detail := &shipping.ShippingDetail{}
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT shipping_id, order_id, user_id, delivery_address_id, travel_id,
		       status, tracking_number, carrier_name, total_cost, currency,
		       estimated_delivery_at, created_at, updated_at
		FROM shippings
		WHERE shipping_id = $1
	`, id).Scan(
		&detail.ID,
		&detail.OrderID,
		&detail.UserID,
		&detail.DeliveryAddressID,
		&detail.TravelID,
		&status,
		&detail.TrackingNumber,
		&detail.CarrierName,
		&detail.TotalCost,
		&detail.Currency,
		&detail.EstimatedDeliveryAt,
		&detail.CreatedAt,
		&detail.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shipping.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting shipping: %w", err)
	}
	detail.Status = shipping.Status(status)

	if detail.Products, err = r.products(ctx, id); err != nil {
		return nil, err
	}
	if detail.Logs, err = r.logs(ctx, id); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r pgShipments) products(ctx context.Context, shippingID int64) ([]shipping.ProductQty, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM shipping_products
		WHERE shipping_id = $1
		ORDER BY product_id
	`, shippingID)
	if err != nil {
		return nil, fmt.Errorf("selecting shipping products: %w", err)
	}
	defer rows.Close()

	var products []shipping.ProductQty
	for rows.Next() {
		var p shipping.ProductQty
		if err := rows.Scan(&p.ProductID, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scanning shipping product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r pgShipments) logs(ctx context.Context, shippingID int64) ([]shipping.ShippingLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT logged_at, status, message
		FROM shipping_logs
		WHERE shipping_id = $1
		ORDER BY logged_at, log_id
	`, shippingID)
	if err != nil {
		return nil, fmt.Errorf("selecting shipping logs: %w", err)
	}
	defer rows.Close()

	var logs []shipping.ShippingLog
	for rows.Next() {
		var l shipping.ShippingLog
		var status string
		if err := rows.Scan(&l.Timestamp, &status, &l.Message); err != nil {
			return nil, fmt.Errorf("scanning shipping log: %w", err)
		}
		l.Status = shipping.Status(status)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r pgShipments) UpdateStatus(ctx context.Context, id int64, status shipping.Status, log shipping.ShippingLog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE shippings
		SET status = $2, updated_at = $3
		WHERE shipping_id = $1
	`, id, string(status), log.Timestamp)
	if err != nil {
		return fmt.Errorf("updating shipping status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if affected == 0 {
		return shipping.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO shipping_logs (shipping_id, logged_at, status, message)
		VALUES ($1, $2, $3, $4)
	`, id, log.Timestamp, string(log.Status), log.Message); err != nil {
		return fmt.Errorf("inserting shipping log: %w", err)
	}

	return tx.Commit()
}

func (r pgShipments) List(ctx context.Context, filter shipping.ListFilter, page, limit int) ([]*shipping.ShippingDetail, int, error) {
	where := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		where = append(where, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM shippings " + clause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting shippings: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`
		SELECT shipping_id, order_id, user_id, delivery_address_id, travel_id,
		       status, tracking_number, carrier_name, total_cost, currency,
		       estimated_delivery_at, created_at, updated_at
		FROM shippings
		%s
		ORDER BY created_at DESC, shipping_id DESC
		LIMIT $%d OFFSET $%d
	`, clause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("selecting shippings: %w", err)
	}
	defer rows.Close()

	var details []*shipping.ShippingDetail
	for rows.Next() {
		detail := &shipping.ShippingDetail{}
		var status string
		if err := rows.Scan(
			&detail.ID,
			&detail.OrderID,
			&detail.UserID,
			&detail.DeliveryAddressID,
			&detail.TravelID,
			&status,
			&detail.TrackingNumber,
			&detail.CarrierName,
			&detail.TotalCost,
			&detail.Currency,
			&detail.EstimatedDeliveryAt,
			&detail.CreatedAt,
			&detail.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning shipping: %w", err)
		}
		detail.Status = shipping.Status(status)
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, d := range details {
		if d.Products, err = r.products(ctx, d.ID); err != nil {
			return nil, 0, err
		}
	}
	return details, total, nil
}

// ============================================================================
// shipping.AddressRepository
// ============================================================================

type pgAddresses struct {
	db *sql.DB
}

func (r pgAddresses) FindExisting(ctx context.Context, key shipping.AddressKey) (*shipping.Address, error) {
	addr := &shipping.Address{}
	err := r.db.QueryRowContext(ctx, `
		SELECT address_id, street, number, postal_code, locality_name
		FROM addresses
		WHERE street = $1 AND number = $2 AND postal_code = $3 AND locality_name = $4
	`, key.Street, key.Number, key.PostalCode, key.LocalityName).Scan(
		&addr.ID, &addr.Street, &addr.Number, &addr.PostalCode, &addr.LocalityName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting address: %w", err)
	}
	return addr, nil
}

func (r pgAddresses) Add(ctx context.Context, addr *shipping.Address) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO addresses (street, number, postal_code, locality_name)
		VALUES ($1, $2, $3, $4)
		RETURNING address_id
	`, addr.Street, addr.Number, addr.PostalCode, addr.LocalityName).Scan(&addr.ID)
	if err != nil {
		return fmt.Errorf("inserting address: %w", err)
	}
	return nil
}

func (r pgAddresses) GetByID(ctx context.Context, id int64) (*shipping.Address, error) {
	addr := &shipping.Address{}
	err := r.db.QueryRowContext(ctx, `
		SELECT address_id, street, number, postal_code, locality_name
		FROM addresses
		WHERE address_id = $1
	`, id).Scan(&addr.ID, &addr.Street, &addr.Number, &addr.PostalCode, &addr.LocalityName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting address: %w", err)
	}
	return addr, nil
}

// ============================================================================
// shipping.LocalityRepository
// ============================================================================

type pgLocalities struct {
	db *sql.DB
}

func (r pgLocalities) GetByCompositeKey(ctx context.Context, postalCode, localityName string) (*shipping.Locality, error) {
	l := &shipping.Locality{}
	err := r.db.QueryRowContext(ctx, `
		SELECT postal_code, locality_name, state_name, country, lat, lon
		FROM localities
		WHERE postal_code = $1 AND locality_name = $2
	`, postalCode, localityName).Scan(
		&l.PostalCode, &l.LocalityName, &l.StateName, &l.Country, &l.Lat, &l.Lon,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting locality: %w", err)
	}
	return l, nil
}

func (r pgLocalities) GetByPostalCode(ctx context.Context, postalCode string) ([]shipping.Locality, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT postal_code, locality_name, state_name, country, lat, lon
		FROM localities
		WHERE postal_code = $1
	`, postalCode)
	if err != nil {
		return nil, fmt.Errorf("selecting localities: %w", err)
	}
	defer rows.Close()

	var localities []shipping.Locality
	for rows.Next() {
		var l shipping.Locality
		if err := rows.Scan(&l.PostalCode, &l.LocalityName, &l.StateName, &l.Country, &l.Lat, &l.Lon); err != nil {
			return nil, fmt.Errorf("scanning locality: %w", err)
		}
		localities = append(localities, l)
	}
	return localities, rows.Err()
}

// ============================================================================
// shipping.TravelRepository
// ============================================================================

type pgTravels struct {
	db *sql.DB
}

func (r pgTravels) CurrentTravel(ctx context.Context, distributionCenterID, transportMethodID int64) (*shipping.Travel, error) {
	travel, err := r.openTravel(ctx, distributionCenterID, transportMethodID)
	if err != nil {
		return nil, err
	}
	if travel != nil {
		return travel, nil
	}

	travel = &shipping.Travel{
		TransportMethodID:    transportMethodID,
		DistributionCenterID: distributionCenterID,
		DepartureTime:        time.Now().UTC(),
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO travels (transport_method_id, distribution_center_id, departure_time)
		VALUES ($1, $2, $3)
		RETURNING travel_id
	`, transportMethodID, distributionCenterID, travel.DepartureTime).Scan(&travel.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting travel: %w", err)
	}
	return travel, nil
}

func (r pgTravels) openTravel(ctx context.Context, centerID, methodID int64) (*shipping.Travel, error) {
	travel := &shipping.Travel{}
	var arrival sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT travel_id, transport_method_id, distribution_center_id, departure_time, arrival_time
		FROM travels
		WHERE distribution_center_id = $1 AND transport_method_id = $2 AND arrival_time IS NULL
		ORDER BY travel_id
		LIMIT 1
	`, centerID, methodID).Scan(
		&travel.ID, &travel.TransportMethodID, &travel.DistributionCenterID,
		&travel.DepartureTime, &arrival,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting open travel: %w", err)
	}
	if arrival.Valid {
		travel.ArrivalTime = &arrival.Time
	}
	return travel, nil
}

func (r pgTravels) GetByID(ctx context.Context, id int64) (*shipping.Travel, error) {
	travel := &shipping.Travel{}
	var arrival sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT travel_id, transport_method_id, distribution_center_id, departure_time, arrival_time
		FROM travels
		WHERE travel_id = $1
	`, id).Scan(
		&travel.ID, &travel.TransportMethodID, &travel.DistributionCenterID,
		&travel.DepartureTime, &arrival,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting travel: %w", err)
	}
	if arrival.Valid {
		travel.ArrivalTime = &arrival.Time
	}
	return travel, nil
}

func (r pgTravels) TransportMethod(ctx context.Context, id int64) (*shipping.TransportMethod, error) {
	tm := &shipping.TransportMethod{}
	var transportType string
	err := r.db.QueryRowContext(ctx, `
		SELECT transport_method_id, transport_type, average_speed, max_capacity, available
		FROM transport_methods
		WHERE transport_method_id = $1
	`, id).Scan(&tm.ID, &transportType, &tm.AverageSpeed, &tm.MaxCapacity, &tm.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting transport method: %w", err)
	}
	tm.Type = shipping.TransportType(transportType)
	return tm, nil
}

func (r pgTravels) DistributionCenter(ctx context.Context, id int64) (*shipping.DistributionCenter, error) {
	c := &shipping.DistributionCenter{}
	err := r.db.QueryRowContext(ctx, `
		SELECT distribution_center_id, address_id
		FROM distribution_centers
		WHERE distribution_center_id = $1
	`, id).Scan(&c.ID, &c.AddressID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting distribution center: %w", err)
	}
	return c, nil
}
