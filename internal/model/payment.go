package model

// PaymentState tracks progress toward paying the total fee.
type PaymentState struct {
	TotalFee              float64
	PaidAmount            float64
	SelectedPaymentAmount float64
}

// Remaining returns the unpaid part of the total fee, never negative.
func (p PaymentState) Remaining() float64 {
	return max(p.TotalFee-p.PaidAmount, 0)
}

// PaidFraction returns the paid share of the total fee in [0, 1].
func (p PaymentState) PaidFraction() float64 {
	if p.TotalFee <= 0 {
		return 0
	}
	return p.PaidAmount / p.TotalFee
}

// RemainingFraction returns the unpaid share of the total fee in [0, 1].
func (p PaymentState) RemainingFraction() float64 {
	if p.TotalFee <= 0 {
		return 0
	}
	return 1 - p.PaidFraction()
}

// IsSettled reports whether nothing remains to be paid.
func (p PaymentState) IsSettled() bool {
	return p.Remaining() <= 0
}
