package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/pampacargo/logistica/pkg/shipping"
	"go.uber.org/zap"
)

// Wire DTOs. Field names follow the public API contract, not the
// domain structs.

type deliveryAddressDTO struct {
	Street       string `json:"street"`
	Number       int    `json:"number"`
	PostalCode   string `json:"postal_code"`
	LocalityName string `json:"locality_name"`
}

type productQtyDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type quoteRequest struct {
	DeliveryAddress deliveryAddressDTO `json:"delivery_address"`
	Products        []productQtyDTO    `json:"products"`
}

type productCostDTO struct {
	ProductID int64   `json:"product_id"`
	Cost      float64 `json:"cost"`
}

type quoteResponse struct {
	Currency      string           `json:"currency"`
	TotalCost     float64          `json:"total_cost"`
	TransportType string           `json:"transport_type"`
	Products      []productCostDTO `json:"products"`
}

type createRequest struct {
	OrderID         int64              `json:"order_id"`
	UserID          int64              `json:"user_id"`
	DeliveryAddress deliveryAddressDTO `json:"delivery_address"`
	Products        []productQtyDTO    `json:"products"`
	TransportType   string             `json:"transport_type,omitempty"`
}

type createResponse struct {
	ShippingID          int64     `json:"shipping_id"`
	Status              string    `json:"status"`
	TransportType       string    `json:"transport_type"`
	EstimatedDeliveryAt time.Time `json:"estimated_delivery_at"`
}

type addressDTO struct {
	Street       string `json:"street"`
	Number       int    `json:"number"`
	PostalCode   string `json:"postal_code"`
	LocalityName string `json:"locality_name"`
}

type logDTO struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
}

type detailResponse struct {
	ShippingID          int64           `json:"shipping_id"`
	OrderID             int64           `json:"order_id"`
	UserID              int64           `json:"user_id"`
	Status              string          `json:"status"`
	TransportType       string          `json:"transport_type"`
	TrackingNumber      string          `json:"tracking_number"`
	CarrierName         string          `json:"carrier_name"`
	TotalCost           float64         `json:"total_cost"`
	Currency            string          `json:"currency"`
	EstimatedDeliveryAt time.Time       `json:"estimated_delivery_at"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeliveryAddress     addressDTO      `json:"delivery_address"`
	DepartureAddress    addressDTO      `json:"departure_address"`
	Products            []productQtyDTO `json:"products"`
	Logs                []logDTO        `json:"logs"`
}

type cancelResponse struct {
	ShippingID  int64     `json:"shipping_id"`
	Status      string    `json:"status"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type summaryDTO struct {
	ShippingID          int64           `json:"shipping_id"`
	OrderID             int64           `json:"order_id"`
	UserID              int64           `json:"user_id"`
	Products            []productQtyDTO `json:"products"`
	Status              string          `json:"status"`
	TransportType       string          `json:"transport_type"`
	EstimatedDeliveryAt time.Time       `json:"estimated_delivery_at"`
	CreatedAt           time.Time       `json:"created_at"`
}

type paginationDTO struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalItems   int `json:"total_items"`
	ItemsPerPage int `json:"items_per_page"`
}

type listResponse struct {
	Shipments  []summaryDTO  `json:"shipments"`
	Pagination paginationDTO `json:"pagination"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	quote, err := s.quotes.Estimate(r.Context(), toDeliveryAddress(req.DeliveryAddress), toProducts(req.Products))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	products := make([]productCostDTO, 0, len(quote.Products))
	for _, p := range quote.Products {
		products = append(products, productCostDTO{ProductID: p.ProductID, Cost: p.Cost})
	}

	s.writeJSON(w, http.StatusOK, quoteResponse{
		Currency:      quote.Currency,
		TotalCost:     quote.TotalCost,
		TransportType: string(quote.TransportType),
		Products:      products,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	result, err := s.service.Create(r.Context(), shipping.CreateRequest{
		OrderID:         req.OrderID,
		UserID:          req.UserID,
		DeliveryAddress: toDeliveryAddress(req.DeliveryAddress),
		Products:        toProducts(req.Products),
		TransportType:   shipping.TransportType(req.TransportType),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createResponse{
		ShippingID:          result.ShippingID,
		Status:              string(result.Status),
		TransportType:       string(result.TransportType),
		EstimatedDeliveryAt: result.EstimatedDeliveryAt,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid shipping id")
		return
	}

	detail, err := s.service.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	logs := make([]logDTO, 0, len(detail.Logs))
	for _, l := range detail.Logs {
		logs = append(logs, logDTO{Timestamp: l.Timestamp, Status: string(l.Status), Message: l.Message})
	}

	s.writeJSON(w, http.StatusOK, detailResponse{
		ShippingID:          detail.ShippingID,
		OrderID:             detail.OrderID,
		UserID:              detail.UserID,
		Status:              string(detail.Status),
		TransportType:       string(detail.TransportType),
		TrackingNumber:      detail.TrackingNumber,
		CarrierName:         detail.CarrierName,
		TotalCost:           detail.TotalCost,
		Currency:            detail.Currency,
		EstimatedDeliveryAt: detail.EstimatedDeliveryAt,
		CreatedAt:           detail.CreatedAt,
		UpdatedAt:           detail.UpdatedAt,
		DeliveryAddress:     toAddressDTO(detail.DeliveryAddress),
		DepartureAddress:    toAddressDTO(detail.DepartureAddress),
		Products:            toProductDTOs(detail.Products),
		Logs:                logs,
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid shipping id")
		return
	}

	result, err := s.service.Cancel(r.Context(), id, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, cancelResponse{
		ShippingID:  result.ShippingID,
		Status:      string(result.Status),
		CancelledAt: result.CancelledAt,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter shipping.ListFilter
	if raw := query.Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = &userID
	}
	if raw := query.Get("status"); raw != "" {
		status, ok := shipping.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	if raw := query.Get("from_date"); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid from_date")
			return
		}
		filter.FromDate = &from
	}
	if raw := query.Get("to_date"); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid to_date")
			return
		}
		filter.ToDate = &to
	}

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	result, err := s.service.List(r.Context(), filter, page, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	shipments := make([]summaryDTO, 0, len(result.Shipments))
	for _, sum := range result.Shipments {
		shipments = append(shipments, summaryDTO{
			ShippingID:          sum.ShippingID,
			OrderID:             sum.OrderID,
			UserID:              sum.UserID,
			Products:            toProductDTOs(sum.Products),
			Status:              string(sum.Status),
			TransportType:       string(sum.TransportType),
			EstimatedDeliveryAt: sum.EstimatedDeliveryAt,
			CreatedAt:           sum.CreatedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, listResponse{
		Shipments: shipments,
		Pagination: paginationDTO{
			CurrentPage:  result.Pagination.CurrentPage,
			TotalPages:   result.Pagination.TotalPages,
			TotalItems:   result.Pagination.TotalItems,
			ItemsPerPage: result.Pagination.ItemsPerPage,
		},
	})
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func toDeliveryAddress(d deliveryAddressDTO) shipping.DeliveryAddress {
	return shipping.DeliveryAddress{
		Street:       d.Street,
		Number:       d.Number,
		PostalCode:   d.PostalCode,
		LocalityName: d.LocalityName,
	}
}

func toProducts(items []productQtyDTO) []shipping.ProductQty {
	products := make([]shipping.ProductQty, 0, len(items))
	for _, p := range items {
		products = append(products, shipping.ProductQty{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	return products
}

func toProductDTOs(items []shipping.ProductQty) []productQtyDTO {
	products := make([]productQtyDTO, 0, len(items))
	for _, p := range items {
		products = append(products, productQtyDTO{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	return products
}

func toAddressDTO(a shipping.Address) addressDTO {
	return addressDTO{
		Street:       a.Street,
		Number:       a.Number,
		PostalCode:   a.PostalCode,
		LocalityName: a.LocalityName,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Encoding response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps domain errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shipping.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shipping.ErrInvalidTransition):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shipping.ErrEmptyProducts),
		errors.Is(err, shipping.ErrInvalidQuantity),
		errors.Is(err, shipping.ErrUnknownLocality):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Request failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
