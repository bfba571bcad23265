package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/money"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/internal/storage"
	"github.com/rentora/rentora-api/pkg/logger"
	"gorm.io/gorm"
)

// PaymentService records payments against bill lines and keeps each bill's
// stored payment state consistent with its payment rows.
type PaymentService struct {
	paymentRepo     repository.PaymentRepository
	billingRepo     repository.BillingRepository
	notificationSvc *NotificationService
	storage         *storage.LocalStorage
	imageSvc        *ImageService
}

// NewPaymentService creates a new payment service
func NewPaymentService(paymentRepo repository.PaymentRepository, billingRepo repository.BillingRepository, notificationSvc *NotificationService, store *storage.LocalStorage, imageSvc *ImageService) *PaymentService {
	return &PaymentService{
		paymentRepo:     paymentRepo,
		billingRepo:     billingRepo,
		notificationSvc: notificationSvc,
		storage:         store,
		imageSvc:        imageSvc,
	}
}

// RecordPaymentInput is the payload for recording a payment
type RecordPaymentInput struct {
	BillLineID  uint    `json:"bill_line_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Mode        string  `json:"mode"`
	Reference   *string `json:"reference"`
	PaymentDate *string `json:"payment_date"` // YYYY-MM-DD, defaults to today
	Notes       *string `json:"notes"`
}

// RecordPayment appends a payment to a bill line and reconciles the bill's
// stored state from the new payment set.
func (s *PaymentService) RecordPayment(ctx context.Context, input *RecordPaymentInput) (*models.Payment, error) {
	if math.IsNaN(input.Amount) || input.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}

	bill, err := s.billingRepo.FindBillLineByID(ctx, input.BillLineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bill line %d", ErrNotFound, input.BillLineID)
		}
		return nil, err
	}

	paymentDate := time.Now().UTC().Truncate(24 * time.Hour)
	if input.PaymentDate != nil && *input.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", *input.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: payment date must be YYYY-MM-DD", ErrInvalidInput)
		}
		paymentDate = parsed
	}

	mode := input.Mode
	if mode == "" {
		mode = models.PaymentModeCash
	}

	payment := &models.Payment{
		BillLineID:  bill.ID,
		TenantID:    bill.Tenancy.TenantID,
		Amount:      input.Amount,
		Mode:        mode,
		Reference:   input.Reference,
		PaymentDate: paymentDate,
		Notes:       input.Notes,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	if err := s.ReconcileBillLine(ctx, bill.ID); err != nil {
		return nil, err
	}

	s.notificationSvc.NotifyAdmins(ctx,
		"Payment recorded",
		fmt.Sprintf("Payment of %.2f received for %s (bill #%d)", payment.Amount, bill.MonthKey, bill.ID),
		models.NotificationTypePaymentRecorded)

	return payment, nil
}

// AttachReceipt stores a receipt file for a payment. Image receipts are
// re-encoded to bound their size; PDFs are stored as-is. Callers treat a
// failure here as non-fatal: the payment stands without its receipt.
func (s *PaymentService) AttachReceipt(ctx context.Context, paymentID uint, file multipart.File, header *multipart.FileHeader) error {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return err
	}

	contentType := header.Header.Get("Content-Type")
	if !storage.IsValidContentType(contentType) {
		return fmt.Errorf("%w: unsupported receipt type %s", ErrInvalidInput, contentType)
	}
	if header.Size > storage.MaxFileSize() {
		return fmt.Errorf("%w: receipt exceeds maximum size", ErrInvalidInput)
	}

	var relPath string
	if contentType == "application/pdf" {
		relPath, err = s.storage.Upload(file, header, "receipts")
	} else {
		var data []byte
		var filename string
		data, filename, err = s.imageSvc.ProcessReceipt(file, header)
		if err == nil {
			relPath, err = s.storage.UploadFromBytes(data, filename, "receipts")
		}
	}
	if err != nil {
		return fmt.Errorf("failed to store receipt: %w", err)
	}

	if payment.ReceiptPath != nil && *payment.ReceiptPath != "" {
		if err := s.storage.Delete(*payment.ReceiptPath); err != nil {
			logger.Warn("Failed to remove replaced receipt", "path", *payment.ReceiptPath, "error", err)
		}
	}
	payment.ReceiptPath = &relPath
	return s.paymentRepo.Update(ctx, payment)
}

// GetReceiptPath returns the stored receipt path for a payment
func (s *PaymentService) GetReceiptPath(ctx context.Context, paymentID uint) (string, error) {
	payment, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: payment %d", ErrNotFound, paymentID)
		}
		return "", err
	}
	if payment.ReceiptPath == nil || *payment.ReceiptPath == "" {
		return "", fmt.Errorf("%w: payment %d has no receipt", ErrNotFound, paymentID)
	}
	return s.storage.GetFullPath(*payment.ReceiptPath), nil
}

// DeletePayment removes a payment and reconciles the affected bill. The
// receipt file, if any, is removed best-effort.
func (s *PaymentService) DeletePayment(ctx context.Context, id uint) error {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: payment %d", ErrNotFound, id)
		}
		return err
	}

	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return err
	}

	if payment.ReceiptPath != nil && *payment.ReceiptPath != "" {
		if err := s.storage.Delete(*payment.ReceiptPath); err != nil {
			logger.Warn("Failed to remove receipt of deleted payment", "path", *payment.ReceiptPath, "error", err)
		}
	}

	if err := s.ReconcileBillLine(ctx, payment.BillLineID); err != nil {
		return err
	}

	s.notificationSvc.NotifyAdmins(ctx,
		"Payment deleted",
		fmt.Sprintf("Payment of %.2f (bill #%d) was deleted", payment.Amount, payment.BillLineID),
		models.NotificationTypePaymentDeleted)
	return nil
}

// ReconcileBillLine recomputes a bill's stored payment state from its
// payment rows: amount paid is the rounded payment sum, and the bill is
// paid when that sum covers the total within the half-cent tolerance.
// Zero-total bills are always settled.
func (s *PaymentService) ReconcileBillLine(ctx context.Context, billLineID uint) error {
	bill, err := s.billingRepo.FindBillLineByID(ctx, billLineID)
	if err != nil {
		return err
	}

	sum, err := s.paymentRepo.SumByBillLine(ctx, billLineID)
	if err != nil {
		return err
	}

	amountPaid := money.Round2(sum)
	isPaid := bill.TotalAmount <= 0 || money.Covers(amountPaid, bill.TotalAmount)
	return s.billingRepo.UpdatePaymentState(ctx, billLineID, amountPaid, isPaid)
}

// ReconcileBillLinesSince reconciles every bill touched by payments created
// after the given time. The nightly sweep uses this to repair bills whose
// inline reconciliation was lost to a crash.
func (s *PaymentService) ReconcileBillLinesSince(ctx context.Context, since time.Time) (int, error) {
	ids, err := s.paymentRepo.BillLineIDsWithPaymentsSince(ctx, since)
	if err != nil {
		return 0, err
	}
	reconciled := 0
	for _, id := range ids {
		if err := s.ReconcileBillLine(ctx, id); err != nil {
			logger.Error("Failed to reconcile bill line", "bill_line_id", id, "error", err)
			continue
		}
		reconciled++
	}
	return reconciled, nil
}

// CheckOverdueBills notifies admins about unpaid bills past their payable
// date. Runs daily as a scheduled job.
func (s *PaymentService) CheckOverdueBills(ctx context.Context) error {
	query := &repository.BillLineQuery{
		ListQuery: repository.NewListQuery(),
		Unpaid:    true,
	}
	query.PerPage = 10000

	lines, _, err := s.billingRepo.ListBillLines(ctx, query)
	if err != nil {
		return err
	}

	now := time.Now()
	overdue := 0
	for i := range lines {
		if lines[i].PayableDate != nil && lines[i].PayableDate.Before(now) {
			overdue++
		}
	}
	if overdue > 0 {
		s.notificationSvc.NotifyAdmins(ctx,
			"Overdue bills",
			fmt.Sprintf("%d bills are unpaid past their payable date", overdue),
			models.NotificationTypeBillOverdue)
	}
	return nil
}

// ListPayments returns payments matching the query with pagination
func (s *PaymentService) ListPayments(ctx context.Context, query *repository.PaymentQuery) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(ctx, query)
}

// FindPayment returns a payment by id
func (s *PaymentService) FindPayment(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %d", ErrNotFound, id)
		}
		return nil, err
	}
	return payment, nil
}

// BillPaymentState is the derived payment standing of one bill line
type BillPaymentState struct {
	TotalAmount float64 `json:"total_amount"`
	AmountPaid  float64 `json:"amount_paid"`
	IsPaid      bool    `json:"is_paid"`
	Remaining   float64 `json:"remaining"`
}

// paymentStateResolver derives a state for a bill, or returns nil to pass
// to the next resolver
type paymentStateResolver func(bill *models.BillLine, payments []models.Payment) *BillPaymentState

// paymentStateResolvers, in precedence order. Explicitly stored state wins
// outright; a zero total is settled by definition; a stored paid amount
// beats re-summing; summing the payment rows is the fallback and always
// resolves.
var paymentStateResolvers = []paymentStateResolver{
	resolveExplicitState,
	resolveZeroTotal,
	resolveStoredAmount,
	resolvePaymentSum,
}

// DeriveBillPaymentState computes a bill's payment standing from its stored
// fields and payment rows
func DeriveBillPaymentState(bill *models.BillLine, payments []models.Payment) BillPaymentState {
	for _, resolve := range paymentStateResolvers {
		if state := resolve(bill, payments); state != nil {
			return *state
		}
	}
	// resolvePaymentSum never returns nil
	panic("unreachable")
}

func resolveExplicitState(bill *models.BillLine, payments []models.Payment) *BillPaymentState {
	if !bill.HasExplicitState() {
		return nil
	}
	return newBillPaymentState(bill.TotalAmount, *bill.AmountPaid, *bill.IsPaid)
}

func resolveZeroTotal(bill *models.BillLine, payments []models.Payment) *BillPaymentState {
	if bill.TotalAmount > 0 {
		return nil
	}
	paid := sumPayments(payments)
	if bill.AmountPaid != nil {
		paid = *bill.AmountPaid
	}
	return newBillPaymentState(bill.TotalAmount, paid, true)
}

func resolveStoredAmount(bill *models.BillLine, payments []models.Payment) *BillPaymentState {
	if bill.AmountPaid == nil {
		return nil
	}
	paid := *bill.AmountPaid
	return newBillPaymentState(bill.TotalAmount, paid, money.Covers(paid, bill.TotalAmount))
}

func resolvePaymentSum(bill *models.BillLine, payments []models.Payment) *BillPaymentState {
	paid := sumPayments(payments)
	return newBillPaymentState(bill.TotalAmount, paid, money.Covers(paid, bill.TotalAmount))
}

func newBillPaymentState(total, paid float64, isPaid bool) *BillPaymentState {
	remaining := money.Round2(total - paid)
	if remaining < 0 {
		remaining = 0
	}
	return &BillPaymentState{
		TotalAmount: total,
		AmountPaid:  paid,
		IsPaid:      isPaid,
		Remaining:   remaining,
	}
}

func sumPayments(payments []models.Payment) float64 {
	sum := 0.0
	for _, p := range payments {
		sum += p.Amount
	}
	return money.Round2(sum)
}
