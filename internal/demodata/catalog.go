// Package demodata provides the read-only profile, alert, dependent and
// document records the session runs against.
package demodata

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/Veraticus/absher-session/internal/common"
	"github.com/Veraticus/absher-session/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned when catalog data fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

type catalogFile struct {
	Profile         model.Profile     `yaml:"profile"`
	ActiveDependent string            `yaml:"active_dependent"`
	Alerts          []model.Alert     `yaml:"alerts"`
	Dependents      []model.Dependent `yaml:"dependents"`
	Documents       []model.Document  `yaml:"documents"`
}

// Catalog is an in-memory data source. It is never mutated after loading,
// so it is safe for concurrent use.
type Catalog struct {
	profile         model.Profile
	activeDependent string
	alerts          []model.Alert
	dependents      []model.Dependent
	documents       []model.Document
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}

	return &Catalog{
		profile:         file.Profile,
		activeDependent: file.ActiveDependent,
		alerts:          file.Alerts,
		dependents:      file.Dependents,
		documents:       file.Documents,
	}, nil
}

func (f *catalogFile) validate() error {
	if f.Profile.IDNumber == "" {
		return fmt.Errorf("%w: profile id_number is required", ErrInvalidCatalog)
	}

	alertIDs := make(map[string]bool, len(f.Alerts))
	for i, alert := range f.Alerts {
		if alert.ID == "" {
			return fmt.Errorf("%w: alert %d has no id", ErrInvalidCatalog, i)
		}
		if alertIDs[alert.ID] {
			return fmt.Errorf("%w: duplicate alert id %q", ErrInvalidCatalog, alert.ID)
		}
		alertIDs[alert.ID] = true
	}

	dependentIDs := make(map[string]bool, len(f.Dependents))
	for i, dependent := range f.Dependents {
		if dependent.ID == "" {
			return fmt.Errorf("%w: dependent %d has no id", ErrInvalidCatalog, i)
		}
		if dependentIDs[dependent.ID] {
			return fmt.Errorf("%w: duplicate dependent id %q", ErrInvalidCatalog, dependent.ID)
		}
		dependentIDs[dependent.ID] = true
	}
	if f.ActiveDependent != "" && !dependentIDs[f.ActiveDependent] {
		return fmt.Errorf("%w: active_dependent %q is not a dependent", ErrInvalidCatalog, f.ActiveDependent)
	}

	for _, doc := range f.Documents {
		switch doc.Type {
		case model.DocumentNationalID, model.DocumentPassport, model.DocumentLicense:
		default:
			return fmt.Errorf("%w: document %q has unknown type %q", ErrInvalidCatalog, doc.ID, doc.Type)
		}
		switch doc.Status {
		case model.DocumentValid, model.DocumentExpiringSoon, model.DocumentExpired:
		default:
			return fmt.Errorf("%w: document %q has unknown status %q", ErrInvalidCatalog, doc.ID, doc.Status)
		}
	}

	return nil
}

// Profile returns the signed-in user.
func (c *Catalog) Profile() model.Profile {
	return c.profile
}

// Alerts returns the proactive alerts in display order.
func (c *Catalog) Alerts() []model.Alert {
	return slices.Clone(c.alerts)
}

// Dependents returns every dependent.
func (c *Catalog) Dependents() []model.Dependent {
	return slices.Clone(c.dependents)
}

// ActiveDependentAlert returns the dependent whose alert is shown after an
// alert reply.
func (c *Catalog) ActiveDependentAlert() (model.Dependent, bool) {
	if c.activeDependent == "" {
		return model.Dependent{}, false
	}
	i := slices.IndexFunc(c.dependents, func(d model.Dependent) bool {
		return d.ID == c.activeDependent
	})
	if i < 0 {
		return model.Dependent{}, false
	}
	return c.dependents[i], true
}

// Documents returns the digital documents.
func (c *Catalog) Documents() []model.Document {
	return slices.Clone(c.documents)
}

// Document returns the first document of the given type.
func (c *Catalog) Document(docType model.DocumentType) (model.Document, bool) {
	i := slices.IndexFunc(c.documents, func(d model.Document) bool {
		return d.Type == docType
	})
	if i < 0 {
		return model.Document{}, false
	}
	return c.documents[i], true
}

// WithDocumentStatus returns a copy of the catalog where the document of the
// given type has status. It fails with common.ErrNotFound if there is no
// such document.
func (c *Catalog) WithDocumentStatus(docType model.DocumentType, status model.DocumentStatus) (*Catalog, error) {
	i := slices.IndexFunc(c.documents, func(d model.Document) bool {
		return d.Type == docType
	})
	if i < 0 {
		return nil, fmt.Errorf("document %s: %w", docType, common.ErrNotFound)
	}

	clone := *c
	clone.documents = slices.Clone(c.documents)
	clone.documents[i].Status = status
	return &clone, nil
}
