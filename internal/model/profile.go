package model

import "fmt"

// Alert is a proactive notice about an upcoming service deadline.
// ServiceCategory holds the service name as the upstream system spells it.
type Alert struct {
	ID              string `yaml:"id"`
	Icon            string `yaml:"icon"`
	Title           string `yaml:"title"`
	ServiceCategory string `yaml:"service_category"`
	Message         string `yaml:"message"`
	ActionText      string `yaml:"action_text"`
	DaysRemaining   int    `yaml:"days_remaining"`
}

// Dependent is a family member with an upcoming service deadline.
type Dependent struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Relationship  string `yaml:"relationship"`
	ServiceType   string `yaml:"service_type"`
	DaysRemaining int    `yaml:"days_remaining"`
}

// AlertText is the message shown in chat for the dependent's deadline.
func (d Dependent) AlertText() string {
	return fmt.Sprintf("%s %s باقي له %d يوم على %s", d.Relationship, d.Name, d.DaysRemaining, d.ServiceType)
}

// Profile is the signed-in user.
type Profile struct {
	Name     string `yaml:"name"`
	IDNumber string `yaml:"id_number"`
}

// DocumentType identifies a digital document.
type DocumentType string

// Document types.
const (
	DocumentNationalID DocumentType = "national_id"
	DocumentPassport   DocumentType = "passport"
	DocumentLicense    DocumentType = "license"
)

// DocumentStatus is the validity of a digital document.
type DocumentStatus string

// Document statuses.
const (
	DocumentValid        DocumentStatus = "valid"
	DocumentExpiringSoon DocumentStatus = "expiring_soon"
	DocumentExpired      DocumentStatus = "expired"
)

// Document is a digital document held by the user.
type Document struct {
	DaysRemaining *int           `yaml:"days_remaining"`
	ID            string         `yaml:"id"`
	Type          DocumentType   `yaml:"type"`
	Title         string         `yaml:"title"`
	Status        DocumentStatus `yaml:"status"`
}
