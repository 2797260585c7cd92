package display

import "testing"

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{0, "PENDING"},
		{1, "IN_TRANSIT"},
		{2, "DELIVERED"},
		{3, "UNKNOWN"},
		{-1, "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := StatusLabel(tc.status); got != tc.want {
			t.Errorf("StatusLabel(%d) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusColor(t *testing.T) {
	if got := StatusColor(1); got != "yellow" {
		t.Fatalf("expected yellow, got %q", got)
	}
	if got := StatusColor(9); got != "gray" {
		t.Fatalf("expected gray fallback, got %q", got)
	}
}

func TestServiceName(t *testing.T) {
	if got := ServiceName(7); got != "Invoice Financing" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := ServiceName(0); got != "Unknown Service" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestBusinessTypeName(t *testing.T) {
	if got := BusinessTypeName(2); got != "Logistics and Freight Company" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := BusinessTypeName(99); got != "Unknown Business Type" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(0); got != "Not available" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := FormatDate(1735689600000); got != "2025-01-01 00:00:00" {
		t.Fatalf("unexpected date %q", got)
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0.05", "0.05 ETH"},
		{"50000000000000000", "0.050000 ETH"},
		{"1500000000000000000", "1.500000 ETH"},
		{"free tier", "free tier"},
	}
	for _, tc := range cases {
		if got := FormatPrice(tc.in); got != tc.want {
			t.Errorf("FormatPrice(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
