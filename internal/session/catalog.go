package session

import (
	"github.com/Veraticus/absher-session/internal/model"
	"github.com/Veraticus/absher-session/internal/service"
)

const (
	drivingLicenseFee = 2700
	passportFee       = 300
	nationalIDLateFee = 100

	requirementsReady = "جميع المتطلبات جاهزة وموثقة"
	readyForSadad     = "جاهز للدفع عبر سداد"
	noViolations      = "لا توجد مخالفات"
	notRequired       = "غير مطلوب"
)

// ServiceCatalog derives ServiceDetails for a service kind. National ID
// renewal is free unless the national ID document has already expired.
type ServiceCatalog struct {
	documents service.DocumentSource
}

// NewServiceCatalog creates a catalog. documents may be nil, in which case
// the national ID is treated as not expired.
func NewServiceCatalog(documents service.DocumentSource) *ServiceCatalog {
	return &ServiceCatalog{documents: documents}
}

// Details returns the review-screen record for kind.
func (c *ServiceCatalog) Details(kind model.ServiceKind) model.ServiceDetails {
	switch kind {
	case model.ServicePassport:
		return model.ServiceDetails{
			Title:              "تجديد جواز السفر",
			BeneficiaryStatus:  noViolations,
			FeesText:           "٣٠٠ ريال",
			PaymentMethod:      readyForSadad,
			RequirementsStatus: requirementsReady,
			MedicalCheckStatus: notRequired,
			TimeSavingsMinutes: 20,
			FeeAmount:          passportFee,
			BaseFee:            passportFee,
		}
	case model.ServiceNationalID:
		return c.nationalID()
	case model.ServiceDrivingLicense, model.ServiceDependents:
		return drivingLicense()
	default:
		return drivingLicense()
	}
}

func drivingLicense() model.ServiceDetails {
	return model.ServiceDetails{
		Title:              "تجديد رخصة القيادة",
		BeneficiaryStatus:  "يوجد مخالفات مرورية",
		FeesText:           "٢٬٧٠٠ ريال",
		PaymentMethod:      readyForSadad,
		RequirementsStatus: requirementsReady,
		MedicalCheckStatus: "الفحص الطبي تم التحقق منه",
		TimeSavingsMinutes: 25,
		FeeAmount:          drivingLicenseFee,
		BaseFee:            drivingLicenseFee,
	}
}

func (c *ServiceCatalog) nationalID() model.ServiceDetails {
	details := model.ServiceDetails{
		Title:              "تجديد الهوية الوطنية",
		BeneficiaryStatus:  noViolations,
		FeesText:           "مجاني",
		PaymentMethod:      "لا يوجد رسوم",
		RequirementsStatus: requirementsReady,
		MedicalCheckStatus: notRequired,
		TimeSavingsMinutes: 15,
	}

	if !c.nationalIDExpired() {
		return details
	}

	details.BeneficiaryStatus = "متأخر - يوجد رسوم تأخير"
	details.FeesText = "١٠٠ ريال (رسوم تأخير)"
	details.PaymentMethod = readyForSadad
	details.FeeAmount = nationalIDLateFee
	details.LateFee = nationalIDLateFee
	details.IsLate = true
	return details
}

func (c *ServiceCatalog) nationalIDExpired() bool {
	if c == nil || c.documents == nil {
		return false
	}
	doc, ok := c.documents.Document(model.DocumentNationalID)
	return ok && doc.Status == model.DocumentExpired
}
