package shipping

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pampacargo/logistica/internal/telemetry"
	"github.com/pampacargo/logistica/pkg/purchasing"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// CostEstimator quotes a shipment without creating any resources.
type CostEstimator interface {
	Estimate(ctx context.Context, delivery DeliveryAddress, items []ProductQty) (*CostQuote, error)
}

// Defaults applied on creation until carrier assignment and routing exist.
const (
	defaultEstimatedDays = 3
	carrierPlaceholder   = "PENDIENTE"
)

// notifyTimeout bounds the detached cancellation notification.
const notifyTimeout = 15 * time.Second

// ServiceConfig holds lifecycle service configuration.
type ServiceConfig struct {
	// DefaultDistributionCenterID is the fixed shipping origin used until
	// per-order routing exists.
	DefaultDistributionCenterID int64

	// DefaultTransportMethodID is the transport method travels are pooled
	// under.
	DefaultTransportMethodID int64
}

// Service is the shipment lifecycle manager. It is the only component with
// write access to persisted shipment state.
type Service struct {
	config     ServiceConfig
	cost       CostEstimator
	shipments  Repository
	addresses  AddressRepository
	localities LocalityRepository
	travels    TravelRepository
	notifier   purchasing.Notifier
	logger     *otelzap.Logger
	metrics    *telemetry.Metrics

	now func() time.Time
}

// NewService creates the lifecycle service.
func NewService(
	cfg ServiceConfig,
	cost CostEstimator,
	shipments Repository,
	addresses AddressRepository,
	localities LocalityRepository,
	travels TravelRepository,
	notifier purchasing.Notifier,
	logger *otelzap.Logger,
) *Service {
	if cfg.DefaultDistributionCenterID == 0 {
		cfg.DefaultDistributionCenterID = 1
	}
	if cfg.DefaultTransportMethodID == 0 {
		cfg.DefaultTransportMethodID = 1
	}
	return &Service{
		config:     cfg,
		cost:       cost,
		shipments:  shipments,
		addresses:  addresses,
		localities: localities,
		travels:    travels,
		notifier:   notifier,
		logger:     logger,
		metrics:    telemetry.NewMetrics(),
		now:        time.Now,
	}
}

// Create validates the request, quotes its cost, resolves address and travel,
// and persists a new shipment in the created state. Validation failures
// reject before any write.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	if len(req.Products) == 0 {
		return nil, ErrEmptyProducts
	}
	for _, p := range req.Products {
		if !p.Valid() {
			return nil, ErrInvalidQuantity
		}
	}

	quote, err := s.cost.Estimate(ctx, req.DeliveryAddress, req.Products)
	if err != nil {
		return nil, err
	}

	// Data-quality gate: the delivery locality must exist before any row
	// is written.
	locality, err := s.localities.GetByCompositeKey(ctx,
		req.DeliveryAddress.PostalCode, req.DeliveryAddress.LocalityName)
	if err != nil {
		return nil, err
	}
	if locality == nil {
		return nil, ErrUnknownLocality
	}

	addressID, err := s.findOrCreateAddress(ctx, req.DeliveryAddress)
	if err != nil {
		return nil, err
	}

	travel, err := s.travels.CurrentTravel(ctx,
		s.config.DefaultDistributionCenterID, s.config.DefaultTransportMethodID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	detail := &ShippingDetail{
		OrderID:             req.OrderID,
		UserID:              req.UserID,
		DeliveryAddressID:   addressID,
		TravelID:            travel.ID,
		Products:            req.Products,
		Status:              StatusCreated,
		TrackingNumber:      uuid.New().String(),
		CarrierName:         carrierPlaceholder,
		TotalCost:           quote.TotalCost,
		Currency:            quote.Currency,
		EstimatedDeliveryAt: now.AddDate(0, 0, defaultEstimatedDays),
		CreatedAt:           now,
		UpdatedAt:           now,
		Logs: []ShippingLog{
			{Timestamp: now, Status: StatusCreated, Message: "Shipping created."},
		},
	}

	if err := s.shipments.Add(ctx, detail); err != nil {
		return nil, err
	}

	s.logger.Info("Shipping created",
		zap.Int64("shipping_id", detail.ID),
		zap.Int64("order_id", req.OrderID),
		zap.Int64("user_id", req.UserID),
		zap.Float64("total_cost", detail.TotalCost),
	)

	return &CreateResponse{
		ShippingID:          detail.ID,
		Status:              detail.Status,
		TransportType:       req.TransportType,
		EstimatedDeliveryAt: detail.EstimatedDeliveryAt,
	}, nil
}

// findOrCreateAddress looks the tuple up first and inserts only on a miss,
// so identical tuples reuse the existing row.
func (s *Service) findOrCreateAddress(ctx context.Context, d DeliveryAddress) (int64, error) {
	key := AddressKey{
		Street:       d.Street,
		Number:       d.Number,
		PostalCode:   d.PostalCode,
		LocalityName: d.LocalityName,
	}

	existing, err := s.addresses.FindExisting(ctx, key)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	addr := &Address{
		Street:       d.Street,
		Number:       d.Number,
		PostalCode:   d.PostalCode,
		LocalityName: d.LocalityName,
	}
	if err := s.addresses.Add(ctx, addr); err != nil {
		return 0, err
	}
	return addr.ID, nil
}

// GetByID returns the full read projection of one shipment, including both
// delivery and departure addresses and the complete log history. It mutates
// nothing.
func (s *Service) GetByID(ctx context.Context, id int64) (*DetailResponse, error) {
	detail, err := s.shipments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &DetailResponse{
		ShippingID:          detail.ID,
		OrderID:             detail.OrderID,
		UserID:              detail.UserID,
		Status:              detail.Status,
		TrackingNumber:      detail.TrackingNumber,
		CarrierName:         detail.CarrierName,
		TotalCost:           detail.TotalCost,
		Currency:            detail.Currency,
		EstimatedDeliveryAt: detail.EstimatedDeliveryAt,
		CreatedAt:           detail.CreatedAt,
		UpdatedAt:           detail.UpdatedAt,
		Products:            detail.Products,
		Logs:                detail.Logs,
	}

	if addr, err := s.addresses.GetByID(ctx, detail.DeliveryAddressID); err == nil && addr != nil {
		resp.DeliveryAddress = *addr
	}

	if travel, err := s.travels.GetByID(ctx, detail.TravelID); err == nil && travel != nil {
		if method, err := s.travels.TransportMethod(ctx, travel.TransportMethodID); err == nil && method != nil {
			resp.TransportType = method.Type
		}
		if center, err := s.travels.DistributionCenter(ctx, travel.DistributionCenterID); err == nil && center != nil {
			if addr, err := s.addresses.GetByID(ctx, center.AddressID); err == nil && addr != nil {
				resp.DepartureAddress = *addr
			}
		}
	}

	return resp, nil
}

// Cancel moves a shipment to cancelled and dispatches a detached,
// best-effort notification to purchasing. The notification's failure is
// logged only; the cancellation stands regardless.
func (s *Service) Cancel(ctx context.Context, id int64, now time.Time) (*CancelResponse, error) {
	detail, err := s.shipments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if detail.Status.Terminal() {
		return nil, &TransitionError{ShippingID: id, From: detail.Status, To: StatusCancelled}
	}

	log := ShippingLog{
		Timestamp: now,
		Status:    StatusCancelled,
		Message:   "Shipping cancelled.",
	}
	if err := s.shipments.UpdateStatus(ctx, id, StatusCancelled, log); err != nil {
		return nil, err
	}

	s.logger.Info("Shipping cancelled",
		zap.Int64("shipping_id", id),
		zap.String("previous_status", string(detail.Status)),
	)

	// Fire-and-forget; the caller's context may end as soon as we return.
	go s.notifyCancellation(id)

	return &CancelResponse{
		ShippingID:  id,
		Status:      StatusCancelled,
		CancelledAt: now,
	}, nil
}

func (s *Service) notifyCancellation(id int64) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyCancellation(ctx, id); err != nil {
		s.logger.Error("Purchasing cancellation notification failed",
			zap.Int64("shipping_id", id),
			zap.Error(err),
		)
		s.metrics.RecordDependencyError("purchasing")
		return
	}
	s.logger.Info("Purchasing notified of cancellation", zap.Int64("shipping_id", id))
}

// List returns a filtered, created_at-descending page of shipment summaries.
// Page and limit fall back to 1 and 20 when unset or non-positive. A page
// beyond the last yields an empty slice, not an error.
func (s *Service) List(ctx context.Context, filter ListFilter, page, limit int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	details, total, err := s.shipments.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(details))
	for _, d := range details {
		summary := Summary{
			ShippingID:          d.ID,
			OrderID:             d.OrderID,
			UserID:              d.UserID,
			Products:            d.Products,
			Status:              d.Status,
			TransportType:       TransportTruck,
			EstimatedDeliveryAt: d.EstimatedDeliveryAt,
			CreatedAt:           d.CreatedAt,
		}
		if travel, err := s.travels.GetByID(ctx, d.TravelID); err == nil && travel != nil {
			if method, err := s.travels.TransportMethod(ctx, travel.TransportMethodID); err == nil && method != nil {
				summary.TransportType = method.Type
			}
		}
		summaries = append(summaries, summary)
	}

	return &ListResponse{
		Shipments: summaries,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   int(math.Ceil(float64(total) / float64(limit))),
			TotalItems:   total,
			ItemsPerPage: limit,
		},
	}, nil
}
