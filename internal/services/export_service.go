package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	billingRepo repository.BillingRepository
}

func NewExportService(billingRepo repository.BillingRepository) *ExportService {
	return &ExportService{billingRepo: billingRepo}
}

// ExportBillingXLSX renders one wing's monthly billing sheet as a workbook:
// the shared-cost config on top, one row per bill line below
func (s *ExportService) ExportBillingXLSX(ctx context.Context, monthKey, wing string) ([]byte, string, error) {
	monthKey, err := models.NormalizeMonthKey(monthKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	wing = models.NormalizeWing(wing)

	config, err := s.billingRepo.GetConfig(ctx, monthKey, wing)
	if err != nil {
		return nil, "", fmt.Errorf("%w: no billing for %s wing %s", ErrNotFound, monthKey, wing)
	}
	lines, err := s.billingRepo.FindBillLines(ctx, monthKey, wing)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Billing"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Billing %s — Wing %s", monthKey, wing))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Electricity Rate")
	_ = f.SetCellValue(sheet, "B3", config.ElectricityRate)
	_ = f.SetCellValue(sheet, "A4", "Sweeping / Flat")
	_ = f.SetCellValue(sheet, "B4", config.SweepingPerFlat)
	_ = f.SetCellValue(sheet, "A5", "Motor Prev")
	_ = f.SetCellValue(sheet, "B5", config.MotorPrev)
	_ = f.SetCellValue(sheet, "A6", "Motor New")
	_ = f.SetCellValue(sheet, "B6", config.MotorNew)
	_ = f.SetCellValue(sheet, "A7", "Motor Units")
	_ = f.SetCellValue(sheet, "B7", config.MotorUnits())

	columns := []string{"Tenant", "Unit", "Rent", "Units", "Electricity", "Motor Share", "Sweeping", "Total", "Paid", "Remaining", "Status"}
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 9)
		_ = f.SetCellValue(sheet, cell, col)
		_ = f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 10
	for i := range lines {
		line := &lines[i]
		state := SummarizeBillLine(line)

		tenantName := ""
		unitName := ""
		if line.Tenancy.ID != 0 {
			tenantName = line.Tenancy.Tenant.FullName
			unitName = line.Tenancy.Unit.Name
		}
		status := "due"
		if state.IsPaid {
			status = "paid"
		}

		values := []any{
			tenantName, unitName,
			line.RentAmount, line.ElectricityUnits, line.ElectricityAmount,
			line.MotorShareAmount, line.SweepAmount, line.TotalAmount,
			state.AmountPaid, state.Remaining, status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("billing_%s_%s.xlsx", monthKey, wing)
	return buf.Bytes(), filename, nil
}

// ExportCollectionPDF summarizes collections for one month across wings:
// per wing the billed, collected and pending totals
func (s *ExportService) ExportCollectionPDF(ctx context.Context, monthKey string) ([]byte, string, error) {
	monthKey, err := models.NormalizeMonthKey(monthKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	query := &repository.BillLineQuery{
		ListQuery: repository.NewListQuery(),
		MonthKey:  monthKey,
	}
	query.PerPage = 10000

	lines, _, err := s.billingRepo.ListBillLines(ctx, query)
	if err != nil {
		return nil, "", err
	}

	type wingTotals struct {
		billed    float64
		collected float64
		pending   float64
		count     int
	}
	totals := make(map[string]*wingTotals)
	order := []string{}
	for i := range lines {
		line := &lines[i]
		state := SummarizeBillLine(line)
		wt, ok := totals[line.Wing]
		if !ok {
			wt = &wingTotals{}
			totals[line.Wing] = wt
			order = append(order, line.Wing)
		}
		wt.billed += line.TotalAmount
		wt.collected += state.AmountPaid
		wt.pending += state.Remaining
		wt.count++
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Collection Summary %s", monthKey))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(25, 8, "Wing")
	pdf.Cell(25, 8, "Bills")
	pdf.Cell(40, 8, "Billed")
	pdf.Cell(40, 8, "Collected")
	pdf.Cell(40, 8, "Pending")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	var grand wingTotals
	for _, wing := range order {
		wt := totals[wing]
		pdf.Cell(25, 8, wing)
		pdf.Cell(25, 8, fmt.Sprintf("%d", wt.count))
		pdf.Cell(40, 8, fmt.Sprintf("%.2f", wt.billed))
		pdf.Cell(40, 8, fmt.Sprintf("%.2f", wt.collected))
		pdf.Cell(40, 8, fmt.Sprintf("%.2f", wt.pending))
		pdf.Ln(6)
		grand.billed += wt.billed
		grand.collected += wt.collected
		grand.pending += wt.pending
		grand.count += wt.count
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(25, 8, "Total")
	pdf.Cell(25, 8, fmt.Sprintf("%d", grand.count))
	pdf.Cell(40, 8, fmt.Sprintf("%.2f", grand.billed))
	pdf.Cell(40, 8, fmt.Sprintf("%.2f", grand.collected))
	pdf.Cell(40, 8, fmt.Sprintf("%.2f", grand.pending))

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("collection_%s_%s.pdf", monthKey, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
