package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"looptrust-ledger/internal/chain"
	purchaseapp "looptrust-ledger/internal/purchase/application"
	"looptrust-ledger/internal/purchase/catalog"
	"looptrust-ledger/internal/purchase/infrastructure/memory"
)

func newTestHandler(t *testing.T) *PurchaseHandler {
	t.Helper()
	service, err := purchaseapp.NewPurchaseService(memory.NewStore(), catalog.Default(), chain.Immediate{}, nil, purchaseapp.SystemClock{}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler, err := NewPurchaseHandler(service, nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestHandler_Catalog(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var services []struct {
		ID      int `json:"id"`
		Pricing map[string]struct {
			Price    string `json:"price"`
			PriceWei string `json:"priceWei"`
		} `json:"pricing"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &services); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(services) != 8 {
		t.Fatalf("expected 8 services, got %d", len(services))
	}
	std, ok := services[0].Pricing["standard"]
	if !ok {
		t.Fatal("missing standard tier")
	}
	if std.PriceWei != "50000000000000000" {
		t.Fatalf("unexpected wei price %s", std.PriceWei)
	}
}

func TestHandler_PurchaseFlow(t *testing.T) {
	handler := newTestHandler(t)

	resp := postJSON(t, handler, "/api/v1/purchases", map[string]any{
		"wallet": "0xA11CE", "serviceId": 7, "planType": "premium", "businessType": 2,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("purchase: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var dto purchaseDTO
	if err := json.Unmarshal(resp.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto.ServiceName != "Invoice Financing" || dto.BusinessTypeName != "Logistics and Freight Company" {
		t.Fatalf("unexpected display names: %+v", dto)
	}
	if dto.PurchaseDate == 0 || dto.PurchaseDateText == "Not available" {
		t.Fatalf("unexpected purchase date: %+v", dto)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/purchases", nil)
	listResp := httptest.NewRecorder()
	handler.ServeHTTP(listResp, req)
	var list []purchaseDTO
	if err := json.Unmarshal(listResp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != dto.ID {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestHandler_PurchaseValidation(t *testing.T) {
	handler := newTestHandler(t)

	resp := postJSON(t, handler, "/api/v1/purchases", map[string]any{
		"serviceId": 1, "planType": "basic", "businessType": 1,
	})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing wallet: expected 401, got %d", resp.Code)
	}

	resp = postJSON(t, handler, "/api/v1/purchases", map[string]any{
		"wallet": "0xA11CE", "serviceId": 99, "planType": "basic", "businessType": 1,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown service: expected 400, got %d", resp.Code)
	}

	resp = postJSON(t, handler, "/api/v1/purchases", map[string]any{
		"wallet": "0xA11CE", "serviceId": 1, "planType": "gold", "businessType": 1,
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown plan: expected 400, got %d", resp.Code)
	}
}

func TestHandler_ExportCSV(t *testing.T) {
	handler := newTestHandler(t)
	resp := postJSON(t, handler, "/api/v1/purchases", map[string]any{
		"wallet": "0xA11CE", "serviceId": 3, "planType": "basic", "businessType": 4,
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("purchase: expected 201, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exports/purchases.csv", nil)
	exportResp := httptest.NewRecorder()
	handler.ServeHTTP(exportResp, req)
	if exportResp.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", exportResp.Code)
	}
	body := exportResp.Body.String()
	if !strings.Contains(body, "service_name") || !strings.Contains(body, "Decentralized Marketplace") {
		t.Fatalf("unexpected csv body: %s", body)
	}
	if got := exportResp.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("unexpected content type %q", got)
	}
}
