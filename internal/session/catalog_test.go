package session

import (
	"testing"

	"github.com/Veraticus/absher-session/internal/demodata"
	"github.com/Veraticus/absher-session/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCatalog(t *testing.T) {
	catalog := NewServiceCatalog(demodata.Default())

	t.Run("driving license", func(t *testing.T) {
		d := catalog.Details(model.ServiceDrivingLicense)
		assert.Equal(t, "تجديد رخصة القيادة", d.Title)
		assert.InDelta(t, 2700, d.FeeAmount, 0)
		assert.InDelta(t, 2700, d.BaseFee, 0)
		assert.Equal(t, 25, d.TimeSavingsMinutes)
		assert.True(t, d.RequiresPayment())
	})

	t.Run("passport", func(t *testing.T) {
		d := catalog.Details(model.ServicePassport)
		assert.Equal(t, "تجديد جواز السفر", d.Title)
		assert.InDelta(t, 300, d.FeeAmount, 0)
		assert.Equal(t, "غير مطلوب", d.MedicalCheckStatus)
	})

	t.Run("dependents reuse the driving license record", func(t *testing.T) {
		assert.Equal(t, catalog.Details(model.ServiceDrivingLicense), catalog.Details(model.ServiceDependents))
	})

	t.Run("national id on time is free", func(t *testing.T) {
		d := catalog.Details(model.ServiceNationalID)
		assert.Equal(t, "تجديد الهوية الوطنية", d.Title)
		assert.False(t, d.IsLate)
		assert.False(t, d.RequiresPayment())
		assert.Equal(t, "مجاني", d.FeesText)
	})

	t.Run("expired national id carries the late fee", func(t *testing.T) {
		expired, err := demodata.Default().WithDocumentStatus(model.DocumentNationalID, model.DocumentExpired)
		require.NoError(t, err)

		d := NewServiceCatalog(expired).Details(model.ServiceNationalID)
		assert.True(t, d.IsLate)
		assert.InDelta(t, 100, d.FeeAmount, 0)
		assert.InDelta(t, 100, d.LateFee, 0)
		assert.InDelta(t, 0, d.BaseFee, 0)
		assert.True(t, d.RequiresPayment())
	})

	t.Run("without documents", func(t *testing.T) {
		d := NewServiceCatalog(nil).Details(model.ServiceNationalID)
		assert.False(t, d.IsLate)
	})
}
