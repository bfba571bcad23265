package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html/template"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
)

type ReportService struct {
	billingRepo repository.BillingRepository
	paymentRepo repository.PaymentRepository
}

func NewReportService(billingRepo repository.BillingRepository, paymentRepo repository.PaymentRepository) *ReportService {
	return &ReportService{
		billingRepo: billingRepo,
		paymentRepo: paymentRepo,
	}
}

// GenerateDuesCSV generates a CSV of unpaid bill lines for a month,
// optionally filtered to one wing
func (s *ReportService) GenerateDuesCSV(ctx context.Context, monthKey, wing string) (*bytes.Buffer, error) {
	monthKey, err := models.NormalizeMonthKey(monthKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	query := &repository.BillLineQuery{
		ListQuery: repository.NewListQuery(),
		MonthKey:  monthKey,
		Wing:      models.NormalizeWing(wing),
		Unpaid:    true,
	}
	// Dues reports are not paginated
	query.PerPage = 10000

	lines, _, err := s.billingRepo.ListBillLines(ctx, query)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"Bill ID", "Month", "Wing", "Tenant", "Rent", "Electricity", "Motor Share", "Sweeping", "Total", "Paid", "Remaining", "Payable Date"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for i := range lines {
		line := &lines[i]
		state := SummarizeBillLine(line)

		tenantName := ""
		if line.Tenancy.Tenant.ID != 0 {
			tenantName = line.Tenancy.Tenant.FullName
		}
		payableDate := ""
		if line.PayableDate != nil {
			payableDate = line.PayableDate.Format("2006-01-02")
		}

		record := []string{
			fmt.Sprintf("%d", line.ID),
			line.MonthKey,
			line.Wing,
			tenantName,
			fmt.Sprintf("%.2f", line.RentAmount),
			fmt.Sprintf("%.2f", line.ElectricityAmount),
			fmt.Sprintf("%.2f", line.MotorShareAmount),
			fmt.Sprintf("%.2f", line.SweepAmount),
			fmt.Sprintf("%.2f", line.TotalAmount),
			fmt.Sprintf("%.2f", state.AmountPaid),
			fmt.Sprintf("%.2f", state.Remaining),
			payableDate,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

// statementTemplate renders one bill with its payments as a printable page
const statementTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; font-size: 13px; color: #222; }
  h1 { font-size: 20px; margin-bottom: 2px; }
  .muted { color: #777; }
  table { border-collapse: collapse; width: 100%; margin-top: 14px; }
  th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
  th { background: #f0f0f0; }
  td.num, th.num { text-align: right; }
  .total td { font-weight: bold; }
  .badge { display: inline-block; padding: 2px 8px; border-radius: 3px; font-size: 11px; }
  .paid { background: #d4edda; color: #155724; }
  .due { background: #f8d7da; color: #721c24; }
</style>
</head>
<body>
  <h1>Rent Statement — {{.MonthKey}}</h1>
  <p class="muted">{{.TenantName}} · {{.UnitName}} (Wing {{.Wing}})</p>
  <p>
    {{if .IsPaid}}<span class="badge paid">PAID</span>
    {{else}}<span class="badge due">DUE {{.Remaining}}</span>{{end}}
  </p>

  <table>
    <tr><th>Charge</th><th class="num">Amount</th></tr>
    <tr><td>Rent</td><td class="num">{{.Rent}}</td></tr>
    <tr><td>Electricity ({{.Units}} units)</td><td class="num">{{.Electricity}}</td></tr>
    <tr><td>Motor share</td><td class="num">{{.MotorShare}}</td></tr>
    <tr><td>Sweeping</td><td class="num">{{.Sweeping}}</td></tr>
    <tr class="total"><td>Total</td><td class="num">{{.Total}}</td></tr>
  </table>

  {{if .Payments}}
  <table>
    <tr><th>Payment Date</th><th>Mode</th><th>Reference</th><th class="num">Amount</th></tr>
    {{range .Payments}}
    <tr><td>{{.Date}}</td><td>{{.Mode}}</td><td>{{.Reference}}</td><td class="num">{{.Amount}}</td></tr>
    {{end}}
  </table>
  {{end}}
</body>
</html>`

// GenerateStatementPDF renders a bill line as a PDF statement for the tenant
func (s *ReportService) GenerateStatementPDF(ctx context.Context, billLineID uint) (*bytes.Buffer, error) {
	bill, err := s.billingRepo.FindBillLineByID(ctx, billLineID)
	if err != nil {
		return nil, fmt.Errorf("%w: bill line %d", ErrNotFound, billLineID)
	}

	state := SummarizeBillLine(bill)

	type paymentRow struct {
		Date      string
		Mode      string
		Reference string
		Amount    string
	}
	payments := make([]paymentRow, 0, len(bill.Payments))
	for _, p := range bill.Payments {
		ref := ""
		if p.Reference != nil {
			ref = *p.Reference
		}
		payments = append(payments, paymentRow{
			Date:      p.PaymentDate.Format("2006-01-02"),
			Mode:      p.Mode,
			Reference: ref,
			Amount:    fmt.Sprintf("%.2f", p.Amount),
		})
	}

	tenantName := ""
	unitName := ""
	if bill.Tenancy.ID != 0 {
		tenantName = bill.Tenancy.Tenant.FullName
		unitName = bill.Tenancy.Unit.Name
	}

	data := map[string]any{
		"MonthKey":    bill.MonthKey,
		"TenantName":  tenantName,
		"UnitName":    unitName,
		"Wing":        bill.Wing,
		"Rent":        fmt.Sprintf("%.2f", bill.RentAmount),
		"Units":       fmt.Sprintf("%.2f", bill.ElectricityUnits),
		"Electricity": fmt.Sprintf("%.2f", bill.ElectricityAmount),
		"MotorShare":  fmt.Sprintf("%.2f", bill.MotorShareAmount),
		"Sweeping":    fmt.Sprintf("%.2f", bill.SweepAmount),
		"Total":       fmt.Sprintf("%.2f", bill.TotalAmount),
		"IsPaid":      state.IsPaid,
		"Remaining":   fmt.Sprintf("%.2f", state.Remaining),
		"Payments":    payments,
	}

	return renderHTMLToPDF(statementTemplate, data)
}

// renderHTMLToPDF executes an HTML template and converts it with wkhtmltopdf
func renderHTMLToPDF(tmplText string, data any) (*bytes.Buffer, error) {
	tmpl, err := template.New("report").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(buf.Bytes()))
	page.EnableLocalFileAccess.Set(true)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create pdf: %w", err)
	}

	return pdfg.Buffer(), nil
}
