package certificate

import (
	"strings"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/shared"
)

// Template is a certificate markup layout, either global or scoped to one course.
// It is the aggregate root for template administration.
type Template struct {
	shared.Versioned
	Name               string
	CourseID           *uuid.UUID // nil for global templates
	IsGlobal           bool
	HTMLContent        string // markup with {{token}} placeholders
	SignerName         string // overrides the settings signer when set
	SignerTitle        string
	SignatureProfileID *uuid.UUID
	Active             bool
}

// NewTemplate creates an inactive template.
// Exactly one of courseID and global must be supplied.
func NewTemplate(name, content string, courseID *uuid.UUID, global bool) (*Template, error) {
	if err := validateTemplateName(name); err != nil {
		return nil, err
	}
	if err := validateTemplateContent(content); err != nil {
		return nil, err
	}
	if err := validateScope(courseID, global); err != nil {
		return nil, err
	}

	t := &Template{
		Versioned:   shared.NewVersioned(),
		Name:        strings.TrimSpace(name),
		IsGlobal:    global,
		HTMLContent: content,
	}
	if courseID != nil {
		id := *courseID
		t.CourseID = &id
	}
	return t, nil
}

// UpdateContent replaces the template markup
func (t *Template) UpdateContent(name, content string) error {
	if err := validateTemplateName(name); err != nil {
		return err
	}
	if err := validateTemplateContent(content); err != nil {
		return err
	}

	t.Name = strings.TrimSpace(name)
	t.HTMLContent = content
	t.Touch()
	return nil
}

// SetSigner sets the signer override and signature profile
func (t *Template) SetSigner(name, title string, profileID *uuid.UUID) {
	t.SignerName = strings.TrimSpace(name)
	t.SignerTitle = strings.TrimSpace(title)
	if profileID != nil && *profileID != uuid.Nil {
		id := *profileID
		t.SignatureProfileID = &id
	} else {
		t.SignatureProfileID = nil
	}
	t.Touch()
}

// Activate makes the template eligible for rendering.
// The caller deactivates the other active templates of the same scope.
func (t *Template) Activate() error {
	if t.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "Template is already active")
	}
	t.Active = true
	t.Touch()
	return nil
}

// Deactivate removes the template from selection
func (t *Template) Deactivate() error {
	if !t.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Template is already inactive")
	}
	t.Active = false
	t.Touch()
	return nil
}

// AppliesTo reports whether the template is eligible for a course
func (t *Template) AppliesTo(courseID uuid.UUID) bool {
	if !t.Active {
		return false
	}
	if t.IsGlobal {
		return true
	}
	return t.CourseID != nil && *t.CourseID == courseID
}

// SameScope reports whether two templates compete for the same course slot
func (t *Template) SameScope(other *Template) bool {
	if t.IsGlobal || other.IsGlobal {
		return t.IsGlobal && other.IsGlobal
	}
	return t.CourseID != nil && other.CourseID != nil && *t.CourseID == *other.CourseID
}

// SelectTemplate picks the template that applies to a course.
// Course-scoped templates win over global ones; among equals the first in
// candidates wins. Returns nil when no active template applies.
func SelectTemplate(candidates []Template, courseID uuid.UUID) *Template {
	var global *Template
	for i := range candidates {
		c := &candidates[i]
		if !c.AppliesTo(courseID) {
			continue
		}
		if !c.IsGlobal {
			return c
		}
		if global == nil {
			global = c
		}
	}
	return global
}

func validateTemplateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_NAME", "Template name cannot be empty")
	}
	if len(trimmed) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Template name cannot exceed 100 characters")
	}
	return nil
}

func validateTemplateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return shared.NewDomainError("INVALID_CONTENT", "Template content cannot be empty")
	}
	if len(content) > 1024*1024 {
		return shared.NewDomainError("INVALID_CONTENT", "Template content cannot exceed 1MB")
	}
	return nil
}

func validateScope(courseID *uuid.UUID, global bool) error {
	hasCourse := courseID != nil && *courseID != uuid.Nil
	if hasCourse == global {
		return shared.NewDomainError("INVALID_SCOPE", "Template must be either global or scoped to one course")
	}
	return nil
}
