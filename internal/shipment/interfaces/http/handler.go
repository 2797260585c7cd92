// Package http exposes the shipment ledger over REST.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"looptrust-ledger/internal/audit"
	"looptrust-ledger/internal/auth"
	"looptrust-ledger/internal/chain"
	"looptrust-ledger/internal/display"
	"looptrust-ledger/internal/observability/metrics"
	ledgerapp "looptrust-ledger/internal/shipment/application"
	shipment "looptrust-ledger/internal/shipment/domain"
)

// ShipmentHandler handles shipment ledger routes.
type ShipmentHandler struct {
	service     *ledgerapp.LedgerService
	auditLogger audit.Logger
}

// NewShipmentHandler constructs a handler.
func NewShipmentHandler(service *ledgerapp.LedgerService, auditLogger audit.Logger) (*ShipmentHandler, error) {
	if service == nil {
		return nil, errors.New("shipment handler: nil service")
	}
	return &ShipmentHandler{service: service, auditLogger: auditLogger}, nil
}

// shipmentDTO is the wire form of a ledger entry. Timestamps travel
// as unix milliseconds; zero means not yet set.
type shipmentDTO struct {
	Index        int     `json:"index"`
	Sender       string  `json:"sender"`
	Receiver     string  `json:"receiver"`
	PickupTime   int64   `json:"pickupTime"`
	DeliveryTime int64   `json:"deliveryTime"`
	Distance     float64 `json:"distance"`
	Price        string  `json:"price"`
	Status       int     `json:"status"`
	StatusLabel  string  `json:"statusLabel"`
	StatusColor  string  `json:"statusColor"`
	IsPaid       bool    `json:"isPaid"`
}

func toDTO(index int, s *shipment.Shipment) shipmentDTO {
	dto := shipmentDTO{
		Index:       index,
		Sender:      s.Sender,
		Receiver:    s.Receiver,
		Distance:    s.Distance,
		Price:       s.Price,
		Status:      int(s.Status),
		StatusLabel: display.StatusLabel(int(s.Status)),
		StatusColor: display.StatusColor(int(s.Status)),
		IsPaid:      s.IsPaid,
	}
	if !s.PickupTime.IsZero() {
		dto.PickupTime = s.PickupTime.UnixMilli()
	}
	if !s.DeliveryTime.IsZero() {
		dto.DeliveryTime = s.DeliveryTime.UnixMilli()
	}
	return dto
}

// ServeHTTP handles routes under /api/v1/shipments.
func (h *ShipmentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/shipments" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
		case http.MethodGet:
			h.handleList(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	if path == "/api/v1/shipments/count" && r.Method == http.MethodGet {
		h.handleCount(w, r)
		return
	}
	if path == "/api/v1/shipments/export.pdf" && r.Method == http.MethodGet {
		h.handleExport(w, r, "pdf")
		return
	}
	if path == "/api/v1/shipments/export.xlsx" && r.Method == http.MethodGet {
		h.handleExport(w, r, "xlsx")
		return
	}
	if strings.HasPrefix(path, "/api/v1/shipments/") {
		h.handleByIndex(w, r, strings.TrimPrefix(path, "/api/v1/shipments/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ShipmentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sender     string  `json:"sender"`
		Receiver   string  `json:"receiver"`
		PickupTime string  `json:"pickupTime"`
		Distance   float64 `json:"distance"`
		Price      string  `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	caller := callerWallet(r, req.Sender)

	record, index, err := h.service.CreateShipment(r.Context(), caller, req.Receiver, req.PickupTime, req.Distance, req.Price)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toDTO(index, record))
	h.logAudit(r, caller, strconv.Itoa(index), "shipment.create", map[string]any{
		"receiver": req.Receiver,
		"distance": req.Distance,
		"price":    req.Price,
	})
}

func (h *ShipmentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListShipments(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	dtos := make([]shipmentDTO, len(list))
	for i, s := range list {
		dtos[i] = toDTO(i, s)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dtos)
}

func (h *ShipmentHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.ShipmentCount(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"count": count})
}

func (h *ShipmentHandler) handleByIndex(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	index, err := strconv.Atoi(parts[0])
	if err != nil || index < 0 {
		http.Error(w, "invalid shipment index", http.StatusBadRequest)
		return
	}

	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, index)
		return
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "start":
			h.handleTransition(w, r, index, "shipment.start", h.service.StartShipment)
			return
		case "complete":
			h.handleTransition(w, r, index, "shipment.complete", h.service.CompleteShipment)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *ShipmentHandler) handleGet(w http.ResponseWriter, r *http.Request, index int) {
	caller := callerWallet(r, r.URL.Query().Get("sender"))
	record, err := h.service.GetShipment(r.Context(), caller, index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTO(index, record))
}

type transitionFunc func(ctx context.Context, caller string, index int) (*shipment.Shipment, error)

func (h *ShipmentHandler) handleTransition(w http.ResponseWriter, r *http.Request, index int, action string, apply transitionFunc) {
	var req struct {
		Sender string `json:"sender"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	caller := callerWallet(r, req.Sender)

	record, err := apply(r.Context(), caller, index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toDTO(index, record))
	h.logAudit(r, caller, strconv.Itoa(index), action, map[string]any{
		"status": record.Status.String(),
	})
}

func (h *ShipmentHandler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	list, err := h.service.ListShipments(r.Context())
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}

	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = BuildManifestPDF(list)
		contentType = "application/pdf"
	case "xlsx":
		data, err = BuildManifestXLSX(list)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, callerWallet(r, ""), "", "shipment.export", map[string]any{"format": format})
}

func (h *ShipmentHandler) logAudit(r *http.Request, wallet, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Wallet:       wallet,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "shipment",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// callerWallet resolves the acting wallet: the authenticated identity
// wins, the request-supplied sender is the unauthenticated fallback.
func callerWallet(r *http.Request, fallback string) string {
	if wallet := auth.WalletFromContext(r.Context()); wallet != "" {
		return wallet
	}
	return fallback
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, shipment.ErrUnauthenticated):
		http.Error(w, "wallet required", http.StatusUnauthorized)
	case errors.Is(err, shipment.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, shipment.ErrNotFound):
		http.Error(w, "shipment not found", http.StatusNotFound)
	case errors.Is(err, shipment.ErrUnauthorized):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, shipment.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, chain.ErrConfirmationTimeout):
		http.Error(w, "confirmation timed out", http.StatusGatewayTimeout)
	case errors.Is(err, chain.ErrTxRejected):
		http.Error(w, "transaction rejected", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
