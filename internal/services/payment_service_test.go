package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/repository"
	"github.com/rentora/rentora-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBillRepoForPayments struct {
	repository.BillingRepository
	bill *models.BillLine

	updatedID     uint
	updatedPaid   float64
	updatedIsPaid bool
	updates       int
}

func (f *fakeBillRepoForPayments) FindBillLineByID(ctx context.Context, id uint) (*models.BillLine, error) {
	if f.bill == nil || f.bill.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.bill, nil
}

func (f *fakeBillRepoForPayments) UpdatePaymentState(ctx context.Context, billLineID uint, amountPaid float64, isPaid bool) error {
	f.updatedID = billLineID
	f.updatedPaid = amountPaid
	f.updatedIsPaid = isPaid
	f.updates++
	return nil
}

type fakePaymentRepo struct {
	repository.PaymentRepository
	payments []models.Payment
	nextID   uint
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	f.nextID++
	payment.ID = f.nextID
	f.payments = append(f.payments, *payment)
	return nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	for i := range f.payments {
		if f.payments[i].ID == id {
			p := f.payments[i]
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) Delete(ctx context.Context, id uint) error {
	for i := range f.payments {
		if f.payments[i].ID == id {
			f.payments = append(f.payments[:i], f.payments[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) SumByBillLine(ctx context.Context, billLineID uint) (float64, error) {
	sum := 0.0
	for _, p := range f.payments {
		if p.BillLineID == billLineID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (f *fakePaymentRepo) BillLineIDsWithPaymentsSince(ctx context.Context, since time.Time) ([]uint, error) {
	seen := make(map[uint]bool)
	var ids []uint
	for _, p := range f.payments {
		if !seen[p.BillLineID] {
			seen[p.BillLineID] = true
			ids = append(ids, p.BillLineID)
		}
	}
	return ids, nil
}

type fakeUserRepoForNotifications struct {
	repository.UserRepository
}

func (f *fakeUserRepoForNotifications) FindAdmins(ctx context.Context) ([]models.User, error) {
	return nil, nil
}

func newPaymentServiceForTest(billRepo *fakeBillRepoForPayments, paymentRepo *fakePaymentRepo) *PaymentService {
	logger.Setup("test")
	notificationSvc := NewNotificationService(nil, &fakeUserRepoForNotifications{})
	return NewPaymentService(paymentRepo, billRepo, notificationSvc, nil, NewImageService())
}

func testBill(id uint, total float64) *models.BillLine {
	return &models.BillLine{
		ID:          id,
		MonthKey:    "2024-05",
		Wing:        "A",
		TenancyID:   1,
		TotalAmount: total,
		Tenancy:     models.Tenancy{ID: 1, TenantID: 10},
	}
}

func TestPaymentService_RecordPayment_Reconciles(t *testing.T) {
	billRepo := &fakeBillRepoForPayments{bill: testBill(7, 5800)}
	paymentRepo := &fakePaymentRepo{}
	svc := newPaymentServiceForTest(billRepo, paymentRepo)

	payment, err := svc.RecordPayment(context.Background(), &RecordPaymentInput{
		BillLineID: 7,
		Amount:     3000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(10), payment.TenantID, "tenant comes from the bill's tenancy")
	assert.Equal(t, models.PaymentModeCash, payment.Mode)

	assert.Equal(t, 1, billRepo.updates)
	assert.Equal(t, uint(7), billRepo.updatedID)
	assert.Equal(t, 3000.0, billRepo.updatedPaid)
	assert.False(t, billRepo.updatedIsPaid)
}

func TestPaymentService_RecordPayment_ToleranceSettles(t *testing.T) {
	billRepo := &fakeBillRepoForPayments{bill: testBill(7, 5800)}
	paymentRepo := &fakePaymentRepo{}
	svc := newPaymentServiceForTest(billRepo, paymentRepo)

	// two payments whose float sum is 5799.996: within half a cent of the total
	_, err := svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 7, Amount: 2899.998})
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 7, Amount: 2899.998})
	require.NoError(t, err)

	assert.True(t, billRepo.updatedIsPaid)
	assert.Equal(t, 5800.0, billRepo.updatedPaid)
}

func TestPaymentService_RecordPayment_Validation(t *testing.T) {
	billRepo := &fakeBillRepoForPayments{bill: testBill(7, 5800)}
	svc := newPaymentServiceForTest(billRepo, &fakePaymentRepo{})

	_, err := svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 7, Amount: 0})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 7, Amount: -50})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 99, Amount: 100})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPaymentService_DeletePayment_Reconciles(t *testing.T) {
	billRepo := &fakeBillRepoForPayments{bill: testBill(7, 1000)}
	paymentRepo := &fakePaymentRepo{}
	svc := newPaymentServiceForTest(billRepo, paymentRepo)

	p1, err := svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 7, Amount: 600})
	require.NoError(t, err)
	_, err = svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 7, Amount: 400})
	require.NoError(t, err)
	assert.True(t, billRepo.updatedIsPaid)

	require.NoError(t, svc.DeletePayment(context.Background(), p1.ID))
	assert.Equal(t, 400.0, billRepo.updatedPaid)
	assert.False(t, billRepo.updatedIsPaid)
}

func TestDeriveBillPaymentState_Precedence(t *testing.T) {
	paid := func(v float64) *float64 { return &v }
	flag := func(v bool) *bool { return &v }
	payments := []models.Payment{{Amount: 3000}}

	t.Run("explicit stored state wins", func(t *testing.T) {
		bill := testBill(1, 5800)
		bill.AmountPaid = paid(5800)
		bill.IsPaid = flag(true)
		state := DeriveBillPaymentState(bill, payments)
		assert.True(t, state.IsPaid)
		assert.Equal(t, 5800.0, state.AmountPaid)
		assert.Zero(t, state.Remaining)
	})

	t.Run("explicit unpaid flag is honored even when covered", func(t *testing.T) {
		bill := testBill(1, 5800)
		bill.AmountPaid = paid(5800)
		bill.IsPaid = flag(false)
		state := DeriveBillPaymentState(bill, nil)
		assert.False(t, state.IsPaid)
	})

	t.Run("zero total is settled", func(t *testing.T) {
		bill := testBill(1, 0)
		state := DeriveBillPaymentState(bill, nil)
		assert.True(t, state.IsPaid)
		assert.Zero(t, state.Remaining)
	})

	t.Run("stored amount beats re-summing", func(t *testing.T) {
		bill := testBill(1, 5800)
		bill.AmountPaid = paid(3000)
		state := DeriveBillPaymentState(bill, []models.Payment{{Amount: 5800}})
		assert.False(t, state.IsPaid)
		assert.Equal(t, 3000.0, state.AmountPaid)
		assert.Equal(t, 2800.0, state.Remaining)
	})

	t.Run("payment sum is the fallback", func(t *testing.T) {
		bill := testBill(1, 5800)
		state := DeriveBillPaymentState(bill, payments)
		assert.False(t, state.IsPaid)
		assert.Equal(t, 3000.0, state.AmountPaid)
		assert.Equal(t, 2800.0, state.Remaining)
	})

	t.Run("sum within tolerance settles", func(t *testing.T) {
		bill := testBill(1, 5800)
		state := DeriveBillPaymentState(bill, []models.Payment{{Amount: 2899.998}, {Amount: 2899.998}})
		assert.True(t, state.IsPaid)
	})

	t.Run("sum a full cent short stays due", func(t *testing.T) {
		bill := testBill(1, 5800)
		state := DeriveBillPaymentState(bill, []models.Payment{{Amount: 5799.99}})
		assert.False(t, state.IsPaid)
		assert.Equal(t, 0.01, state.Remaining)
	})

	t.Run("overpayment clamps remaining at zero", func(t *testing.T) {
		bill := testBill(1, 5800)
		state := DeriveBillPaymentState(bill, []models.Payment{{Amount: 6000}})
		assert.True(t, state.IsPaid)
		assert.Zero(t, state.Remaining)
	})
}

// SummarizeBillLine is the read-path twin of DeriveBillPaymentState; the two
// must agree for any bill regardless of which stored fields are present.
func TestSummarizeBillLine_AgreesWithDerive(t *testing.T) {
	paid := func(v float64) *float64 { return &v }
	flag := func(v bool) *bool { return &v }

	bills := []*models.BillLine{
		testBill(1, 5800),
		testBill(2, 0),
		testBill(3, -25),
	}
	var variants []*models.BillLine
	for _, base := range bills {
		for _, amountPaid := range []*float64{nil, paid(0), paid(3000), paid(5800), paid(5799.996)} {
			for _, isPaid := range []*bool{nil, flag(true), flag(false)} {
				for _, payments := range [][]models.Payment{
					nil,
					{{Amount: 3000}},
					{{Amount: 2899.998}, {Amount: 2899.998}},
					{{Amount: 6000}},
				} {
					b := *base
					b.AmountPaid = amountPaid
					b.IsPaid = isPaid
					b.Payments = payments
					variants = append(variants, &b)
				}
			}
		}
	}

	for _, bill := range variants {
		server := DeriveBillPaymentState(bill, bill.Payments)
		client := SummarizeBillLine(bill)
		assert.Equal(t, server, client,
			"total=%v amountPaid=%v isPaid=%v payments=%v",
			bill.TotalAmount, bill.AmountPaid, bill.IsPaid, bill.Payments)
	}
}

func TestPaymentService_ReconcileBillLinesSince(t *testing.T) {
	billRepo := &fakeBillRepoForPayments{bill: testBill(7, 1000)}
	paymentRepo := &fakePaymentRepo{}
	svc := newPaymentServiceForTest(billRepo, paymentRepo)

	_, err := svc.RecordPayment(context.Background(), &RecordPaymentInput{BillLineID: 7, Amount: 1000})
	require.NoError(t, err)
	updatesAfterRecord := billRepo.updates

	reconciled, err := svc.ReconcileBillLinesSince(context.Background(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, reconciled)
	assert.Equal(t, updatesAfterRecord+1, billRepo.updates)
	assert.True(t, billRepo.updatedIsPaid)
}
