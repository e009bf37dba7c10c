package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentFractions(t *testing.T) {
	tests := []struct {
		name          string
		payment       PaymentState
		wantRemaining float64
		wantPaid      float64
		wantLeft      float64
	}{
		{name: "nothing paid", payment: PaymentState{TotalFee: 2700}, wantRemaining: 2700, wantLeft: 1},
		{name: "partial", payment: PaymentState{TotalFee: 2700, PaidAmount: 1000}, wantRemaining: 1700, wantPaid: 1000.0 / 2700, wantLeft: 1700.0 / 2700},
		{name: "settled", payment: PaymentState{TotalFee: 300, PaidAmount: 300}, wantPaid: 1},
		{name: "free service", payment: PaymentState{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantRemaining, tt.payment.Remaining(), 1e-9)
			assert.InDelta(t, tt.wantPaid, tt.payment.PaidFraction(), 1e-9)
			assert.InDelta(t, tt.wantLeft, tt.payment.RemainingFraction(), 1e-9)
		})
	}
}

func TestParseServiceKind(t *testing.T) {
	for _, kind := range AllServiceKinds {
		got, err := ParseServiceKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := ParseServiceKind("boat_license")
	assert.Error(t, err)
}
