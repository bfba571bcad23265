package services

import (
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/internal/money"
)

// SummarizeBillLine derives a bill's payment standing from a fully loaded
// row, using its preloaded payments. This is the read-path summarizer used
// when rendering lists and exports; it must agree with
// DeriveBillPaymentState for any bill, which the tests pin down.
func SummarizeBillLine(bill *models.BillLine) BillPaymentState {
	total := bill.TotalAmount

	if bill.IsPaid != nil && bill.AmountPaid != nil {
		return *newBillPaymentState(total, *bill.AmountPaid, *bill.IsPaid)
	}

	if total <= 0 {
		paid := sumPayments(bill.Payments)
		if bill.AmountPaid != nil {
			paid = *bill.AmountPaid
		}
		return *newBillPaymentState(total, paid, true)
	}

	if bill.AmountPaid != nil {
		paid := *bill.AmountPaid
		return *newBillPaymentState(total, paid, money.Covers(paid, total))
	}

	paid := sumPayments(bill.Payments)
	return *newBillPaymentState(total, paid, money.Covers(paid, total))
}

// ToBillLineResponse renders a bill line with its derived payment state
func ToBillLineResponse(bill *models.BillLine) models.BillLineResponse {
	state := SummarizeBillLine(bill)
	resp := models.BillLineResponse{
		ID:                bill.ID,
		MonthKey:          bill.MonthKey,
		TenancyID:         bill.TenancyID,
		Wing:              bill.Wing,
		RentAmount:        bill.RentAmount,
		ElectricityUnits:  bill.ElectricityUnits,
		ElectricityAmount: bill.ElectricityAmount,
		MotorShareAmount:  bill.MotorShareAmount,
		SweepAmount:       bill.SweepAmount,
		TotalAmount:       bill.TotalAmount,
		PayableDate:       bill.PayableDate,
		AmountPaid:        state.AmountPaid,
		IsPaid:            state.IsPaid,
		Remaining:         state.Remaining,
	}
	if bill.Tenancy.ID != 0 {
		if bill.Tenancy.Tenant.ID != 0 {
			resp.TenantName = bill.Tenancy.Tenant.FullName
		}
		if bill.Tenancy.Unit.ID != 0 {
			resp.UnitName = bill.Tenancy.Unit.Name
		}
	}
	return resp
}
