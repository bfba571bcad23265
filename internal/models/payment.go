package models

import (
	"strings"
	"time"
)

// Payment represents money received against a bill line. Payments are
// append-only; deleting one is an explicit admin action that triggers
// reconciliation of the affected bill.
type Payment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BillLineID  uint      `gorm:"not null;index" json:"bill_line_id"`
	TenantID    uint      `gorm:"not null;index" json:"tenant_id"`
	Amount      float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Mode        string    `gorm:"default:cash" json:"mode"`
	Reference   *string   `json:"reference"`
	PaymentDate time.Time `gorm:"type:date;not null;index" json:"payment_date"`
	ReceiptPath *string   `json:"-"` // Receipt file path
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	BillLine BillLine `gorm:"foreignKey:BillLineID" json:"-"`
	Tenant   Tenant   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}

// TableName specifies the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// Payment mode constants
const (
	PaymentModeCash   = "cash"
	PaymentModeUPI    = "upi"
	PaymentModeBank   = "bank"
	PaymentModeCheque = "cheque"
)

// PaymentResponse is the JSON response format for payments
type PaymentResponse struct {
	ID          uint      `json:"id"`
	BillLineID  uint      `json:"bill_line_id"`
	TenantID    uint      `json:"tenant_id"`
	Amount      float64   `json:"amount"`
	Mode        string    `json:"mode"`
	Reference   *string   `json:"reference"`
	PaymentDate time.Time `json:"payment_date"`
	Notes       *string   `json:"notes"`
	HasReceipt  bool      `json:"has_receipt"`
	IsPDF       bool      `json:"is_pdf"`
	TenantName  string    `json:"tenant_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts Payment to PaymentResponse
func (p *Payment) ToResponse() PaymentResponse {
	resp := PaymentResponse{
		ID:          p.ID,
		BillLineID:  p.BillLineID,
		TenantID:    p.TenantID,
		Amount:      p.Amount,
		Mode:        p.Mode,
		Reference:   p.Reference,
		PaymentDate: p.PaymentDate,
		Notes:       p.Notes,
		HasReceipt:  p.ReceiptPath != nil && *p.ReceiptPath != "",
		IsPDF:       p.ReceiptPath != nil && strings.HasSuffix(strings.ToLower(*p.ReceiptPath), ".pdf"),
		CreatedAt:   p.CreatedAt,
	}
	if p.Tenant.ID != 0 {
		resp.TenantName = p.Tenant.FullName
	}
	return resp
}
