// Package display holds presentation helpers shared by the HTTP layer
// and the export writers. Every function is total: unknown or missing
// values map to an explicit fallback label instead of an error.
package display

import (
	"fmt"
	"strconv"
	"time"
)

// weiThreshold separates wei-denominated amounts from plain ETH amounts.
const weiThreshold = 1e10

var statusLabels = map[int]string{
	0: "PENDING",
	1: "IN_TRANSIT",
	2: "DELIVERED",
}

var statusColors = map[int]string{
	0: "red",
	1: "yellow",
	2: "green",
}

var serviceNames = map[int]string{
	1: "Tokenized Supply Chain Goods",
	2: "Automated Supply Chain Smart Contracts",
	3: "Decentralized Marketplace",
	4: "Supply Chain Data Marketplaces",
	5: "Supply Chain Insurance",
	6: "Cross-Border Payment Solutions",
	7: "Invoice Financing",
	8: "Automated Supply Chain Financing Pools",
}

var businessTypeNames = map[int]string{
	1: "Small and Medium Enterprise (SME)",
	2: "Logistics and Freight Company",
	3: "E-commerce Business",
	4: "Tech Startup",
}

// StatusLabel renders a numeric shipment status. Codes outside the
// known lifecycle render as UNKNOWN.
func StatusLabel(status int) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return "UNKNOWN"
}

// StatusColor returns the display color associated with a status code.
func StatusColor(status int) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "gray"
}

// ServiceName resolves a catalog service identifier to its name.
func ServiceName(serviceID int) string {
	if name, ok := serviceNames[serviceID]; ok {
		return name
	}
	return "Unknown Service"
}

// BusinessTypeName resolves a business type identifier to its name.
func BusinessTypeName(businessType int) string {
	if name, ok := businessTypeNames[businessType]; ok {
		return name
	}
	return "Unknown Business Type"
}

// FormatDate renders a unix-millisecond timestamp. Zero means the
// event has not happened yet.
func FormatDate(millis int64) string {
	if millis == 0 {
		return "Not available"
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02 15:04:05")
}

// FormatTime renders a time value with the same fallback as FormatDate.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "Not available"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// FormatPrice renders a price amount. Large values are treated as wei
// and converted to ETH with six decimals; small numeric values are
// labelled as ETH directly. Non-numeric input passes through verbatim.
func FormatPrice(price string) string {
	amount, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return price
	}
	if amount > weiThreshold {
		return fmt.Sprintf("%.6f ETH", amount/1e18)
	}
	return trimTrailingZeros(amount) + " ETH"
}

func trimTrailingZeros(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
