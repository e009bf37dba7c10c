// Package service defines the interfaces for the session's external collaborators.
package service

import (
	"context"

	"github.com/Veraticus/absher-session/internal/model"
)

// VerificationProvider fetches verification proofs for a subject from the
// upstream identity system. The verification cache is its only caller.
type VerificationProvider interface {
	FetchVerification(ctx context.Context, subjectID string) (*model.VerificationSnapshot, error)
}

// AlertSource supplies the current proactive alerts.
type AlertSource interface {
	Alerts() []model.Alert
}

// DependentSource supplies dependents and the one with an active alert, if any.
type DependentSource interface {
	Dependents() []model.Dependent
	ActiveDependentAlert() (model.Dependent, bool)
}

// ProfileSource supplies the signed-in user's profile.
type ProfileSource interface {
	Profile() model.Profile
}

// DocumentSource supplies the user's digital documents.
type DocumentSource interface {
	Documents() []model.Document
	Document(docType model.DocumentType) (model.Document, bool)
}

// DataSource bundles every read-only collaborator the session consumes.
type DataSource interface {
	AlertSource
	DependentSource
	ProfileSource
	DocumentSource
}
