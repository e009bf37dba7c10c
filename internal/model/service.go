package model

import "fmt"

// ServiceKind enumerates the services a session can act on.
type ServiceKind string

// Service kinds.
const (
	ServiceDrivingLicense ServiceKind = "driving_license_renewal"
	ServicePassport       ServiceKind = "passport_renewal"
	ServiceNationalID     ServiceKind = "national_id_renewal"
	ServiceDependents     ServiceKind = "dependents"
)

// AllServiceKinds lists every service kind in display order.
var AllServiceKinds = []ServiceKind{
	ServiceDrivingLicense,
	ServicePassport,
	ServiceNationalID,
	ServiceDependents,
}

// ParseServiceKind converts a string into a ServiceKind.
func ParseServiceKind(s string) (ServiceKind, error) {
	for _, kind := range AllServiceKinds {
		if string(kind) == s {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown service kind: %q", s)
}

// ServiceDetails describes a service as shown on the review screen.
// It is derived from the selected ServiceKind and never stored.
type ServiceDetails struct {
	Title              string
	BeneficiaryStatus  string
	FeesText           string
	PaymentMethod      string
	RequirementsStatus string
	MedicalCheckStatus string
	FeeAmount          float64
	BaseFee            float64
	LateFee            float64
	TimeSavingsMinutes int
	IsLate             bool
}

// RequiresPayment reports whether approving the service involves a payment.
func (d ServiceDetails) RequiresPayment() bool {
	return d.FeeAmount > 0
}
