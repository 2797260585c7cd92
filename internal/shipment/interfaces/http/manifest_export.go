package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"looptrust-ledger/internal/display"
	shipment "looptrust-ledger/internal/shipment/domain"
)

// BuildManifestPDF renders the shipment collection as a PDF manifest.
func BuildManifestPDF(shipments []*shipment.Shipment) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Shipment Manifest")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Shipments: %d", len(shipments)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(12, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, 6, "Sender", "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, 6, "Receiver", "1", 0, "C", false, 0, "")
	pdf.CellFormat(38, 6, "Pickup", "1", 0, "C", false, 0, "")
	pdf.CellFormat(38, 6, "Delivery", "1", 0, "C", false, 0, "")
	pdf.CellFormat(24, 6, "Distance (km)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(32, 6, "Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(26, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(14, 6, "Paid", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for i, s := range shipments {
		paid := "no"
		if s.IsPaid {
			paid = "yes"
		}
		pdf.CellFormat(12, 6, fmt.Sprintf("%d", i), "1", 0, "C", false, 0, "")
		pdf.CellFormat(48, 6, s.Sender, "1", 0, "L", false, 0, "")
		pdf.CellFormat(48, 6, s.Receiver, "1", 0, "L", false, 0, "")
		pdf.CellFormat(38, 6, display.FormatTime(s.PickupTime), "1", 0, "C", false, 0, "")
		pdf.CellFormat(38, 6, display.FormatTime(s.DeliveryTime), "1", 0, "C", false, 0, "")
		pdf.CellFormat(24, 6, fmt.Sprintf("%.1f", s.Distance), "1", 0, "R", false, 0, "")
		pdf.CellFormat(32, 6, display.FormatPrice(s.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, display.StatusLabel(int(s.Status)), "1", 0, "C", false, 0, "")
		pdf.CellFormat(14, 6, paid, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildManifestXLSX renders the shipment collection as a workbook.
func BuildManifestXLSX(shipments []*shipment.Shipment) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "shipments"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Index", "Sender", "Receiver", "Pickup", "Delivery", "Distance (km)", "Price", "Status", "Paid"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}
	for i, s := range shipments {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), s.Sender)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), s.Receiver)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), display.FormatTime(s.PickupTime))
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), display.FormatTime(s.DeliveryTime))
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), s.Distance)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), display.FormatPrice(s.Price))
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), display.StatusLabel(int(s.Status)))
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), s.IsPaid)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
