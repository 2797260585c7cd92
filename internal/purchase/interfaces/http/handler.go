// Package http exposes the service catalog and purchase records over REST.
package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"looptrust-ledger/internal/audit"
	"looptrust-ledger/internal/auth"
	"looptrust-ledger/internal/chain"
	"looptrust-ledger/internal/display"
	"looptrust-ledger/internal/observability/metrics"
	purchaseapp "looptrust-ledger/internal/purchase/application"
	purchase "looptrust-ledger/internal/purchase/domain"
)

// PurchaseHandler handles catalog and purchase routes.
type PurchaseHandler struct {
	service     *purchaseapp.PurchaseService
	auditLogger audit.Logger
}

// NewPurchaseHandler constructs a handler.
func NewPurchaseHandler(service *purchaseapp.PurchaseService, auditLogger audit.Logger) (*PurchaseHandler, error) {
	if service == nil {
		return nil, errors.New("purchase handler: nil service")
	}
	return &PurchaseHandler{service: service, auditLogger: auditLogger}, nil
}

type purchaseDTO struct {
	ID               string `json:"id,omitempty"`
	ServiceID        int    `json:"serviceId"`
	ServiceName      string `json:"serviceName"`
	PlanType         string `json:"planType"`
	BusinessType     int    `json:"businessType"`
	BusinessTypeName string `json:"businessTypeName"`
	PurchaseDate     int64  `json:"purchaseDate"`
	PurchaseDateText string `json:"purchaseDateText"`
}

func toPurchaseDTO(r *purchase.Record) purchaseDTO {
	var millis int64
	if !r.PurchaseDate.IsZero() {
		millis = r.PurchaseDate.UnixMilli()
	}
	return purchaseDTO{
		ID:               r.ID,
		ServiceID:        r.ServiceID,
		ServiceName:      display.ServiceName(r.ServiceID),
		PlanType:         string(r.Plan),
		BusinessType:     r.BusinessType,
		BusinessTypeName: display.BusinessTypeName(r.BusinessType),
		PurchaseDate:     millis,
		PurchaseDateText: display.FormatDate(millis),
	}
}

// ServeHTTP handles catalog, purchase, and purchase-export routes.
func (h *PurchaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/catalog" && r.Method == http.MethodGet:
		h.handleCatalog(w, r)
	case r.URL.Path == "/api/v1/purchases" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case r.URL.Path == "/api/v1/purchases" && r.Method == http.MethodPost:
		h.handlePurchase(w, r)
	case r.URL.Path == "/api/v1/exports/purchases.csv" && r.Method == http.MethodGet:
		h.handleExportCSV(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *PurchaseHandler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	type tierDTO struct {
		Price    string   `json:"price"`
		PriceWei string   `json:"priceWei"`
		Features []string `json:"features"`
	}
	type serviceDTO struct {
		ID          int                `json:"id"`
		Title       string             `json:"title"`
		Description string             `json:"description"`
		Benefits    string             `json:"benefits"`
		Pricing     map[string]tierDTO `json:"pricing"`
	}

	cat := h.service.Catalog()
	services := cat.Services()
	out := make([]serviceDTO, 0, len(services))
	for _, svc := range services {
		dto := serviceDTO{
			ID:          svc.ID,
			Title:       svc.Title,
			Description: svc.Description,
			Benefits:    svc.Benefits,
			Pricing:     make(map[string]tierDTO, len(svc.Pricing)),
		}
		for plan, tier := range svc.Pricing {
			wei, err := cat.PriceWei(svc.ID, plan)
			if err != nil {
				wei = "0"
			}
			dto.Pricing[string(plan)] = tierDTO{Price: tier.Price, PriceWei: wei, Features: tier.Features}
		}
		out = append(out, dto)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *PurchaseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	records := h.service.ListPurchases(r.Context())
	dtos := make([]purchaseDTO, len(records))
	for i, record := range records {
		dtos[i] = toPurchaseDTO(record)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dtos)
}

func (h *PurchaseHandler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wallet       string `json:"wallet"`
		ServiceID    int    `json:"serviceId"`
		PlanType     string `json:"planType"`
		BusinessType int    `json:"businessType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	wallet := auth.WalletFromContext(r.Context())
	if wallet == "" {
		wallet = req.Wallet
	}

	record, err := h.service.RecordPurchase(r.Context(), wallet, req.ServiceID, req.PlanType, req.BusinessType)
	if err != nil && !errors.Is(err, purchase.ErrPersistence) {
		respondPurchaseError(w, err)
		return
	}
	status := http.StatusCreated
	if err != nil {
		// Settled on chain but not saved; the client should retry the
		// listing later rather than pay again.
		status = http.StatusAccepted
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(toPurchaseDTO(record))
	h.logAudit(r, wallet, record.ID, "purchase.record", map[string]any{
		"serviceId":    req.ServiceID,
		"planType":     req.PlanType,
		"businessType": req.BusinessType,
	})
}

func (h *PurchaseHandler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("csv", result, time.Since(start))
	}()

	records := h.service.ListPurchases(r.Context())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"id",
		"service_id",
		"service_name",
		"plan_type",
		"business_type",
		"business_type_name",
		"purchase_date",
	})
	for _, record := range records {
		_ = writer.Write([]string{
			record.ID,
			strconv.Itoa(record.ServiceID),
			display.ServiceName(record.ServiceID),
			string(record.Plan),
			strconv.Itoa(record.BusinessType),
			display.BusinessTypeName(record.BusinessType),
			display.FormatTime(record.PurchaseDate),
		})
	}
	writer.Flush()
}

func (h *PurchaseHandler) logAudit(r *http.Request, wallet, resourceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Wallet:       wallet,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "purchase",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondPurchaseError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, purchase.ErrUnauthenticated):
		http.Error(w, "wallet required", http.StatusUnauthorized)
	case errors.Is(err, purchase.ErrUnknownService),
		errors.Is(err, purchase.ErrUnknownPlan),
		errors.Is(err, purchase.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, chain.ErrConfirmationTimeout):
		http.Error(w, "confirmation timed out", http.StatusGatewayTimeout)
	case errors.Is(err, chain.ErrTxRejected):
		http.Error(w, "transaction rejected", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
