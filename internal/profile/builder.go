// Package profile builds, validates and stores SNMP connection profiles.
package profile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// Lister returns the names of the profiles that already exist
type Lister interface {
	Names(ctx context.Context) ([]string, error)
}

// Creator persists one JSON-encoded profile
type Creator interface {
	Create(ctx context.Context, data []byte) error
}

// Fields holds the raw form input, one string per input widget
type Fields struct {
	Name      string
	Target    string
	Port      string
	Timeout   string
	Transport string
	Retries   string
	Version   string

	Community string

	SecurityModel  string
	UserName       string
	AuthProtocol   string
	AuthPassphrase string
	PrivProtocol   string
	PrivPassphrase string
}

// NameState is the validation state of the profile name field
type NameState int

const (
	NameEmpty NameState = iota
	NameDuplicate
	NameValid
)

// Message returns the feedback shown under the name field
func (s NameState) Message() string {
	switch s {
	case NameEmpty:
		return "name can't be empty"
	case NameDuplicate:
		return "name already used"
	default:
		return ""
	}
}

// CanSave reports whether the save action is enabled
func (s NameState) CanSave() bool {
	return s == NameValid
}

// CheckName evaluates a name against a known list of profile names. The
// duplicate check is case-sensitive.
func CheckName(name string, existing []string) NameState {
	if strings.TrimSpace(name) == "" {
		return NameEmpty
	}
	for _, n := range existing {
		if n == name {
			return NameDuplicate
		}
	}
	return NameValid
}

// Builder assembles ConnectionProfiles from form fields
type Builder struct {
	lister  Lister
	creator Creator
}

// NewBuilder creates a builder backed by the given collaborators
func NewBuilder(lister Lister, creator Creator) *Builder {
	return &Builder{lister: lister, creator: creator}
}

// ValidateName re-fetches the profile names and evaluates name against them
func (b *Builder) ValidateName(ctx context.Context, name string) (NameState, error) {
	names, err := b.lister.Names(ctx)
	if err != nil {
		return NameEmpty, fmt.Errorf("failed to list profiles: %w", err)
	}
	return CheckName(name, names), nil
}

// Build validates fields and returns the profile they describe
func (b *Builder) Build(ctx context.Context, f Fields) (models.ConnectionProfile, error) {
	state, err := b.ValidateName(ctx, f.Name)
	if err != nil {
		return models.ConnectionProfile{}, err
	}
	if !state.CanSave() {
		return models.ConnectionProfile{}, models.NewValidationError("name", state.Message())
	}

	p := models.ConnectionProfile{
		Name:      f.Name,
		Target:    strings.TrimSpace(f.Target),
		Transport: models.Transport(strings.ToLower(strings.TrimSpace(f.Transport))),
		Version:   models.SNMPVersion(strings.TrimSpace(f.Version)),
	}

	if p.Port, err = parseInt("port", f.Port); err != nil {
		return models.ConnectionProfile{}, err
	}
	if p.Timeout, err = parseInt("timeout", f.Timeout); err != nil {
		return models.ConnectionProfile{}, err
	}
	if p.Retries, err = parseInt("retries", f.Retries); err != nil {
		return models.ConnectionProfile{}, err
	}

	switch p.Version {
	case models.Version1, models.Version2c:
		p.Community = f.Community
	case models.Version3:
		p.SecurityModel = f.SecurityModel
		if p.SecurityModel == "" {
			p.SecurityModel = models.SecurityModelUSM
		}
		p.SecurityParameters = models.SecurityParameters{
			UserName:                 f.UserName,
			AuthenticationProtocol:   orDefault(f.AuthProtocol, models.AuthProtocols[0]),
			AuthenticationPassphrase: f.AuthPassphrase,
			PrivacyProtocol:          orDefault(f.PrivProtocol, models.PrivProtocols[0]),
			PrivacyPassphrase:        f.PrivPassphrase,
		}
	}

	if err := p.Validate(); err != nil {
		return models.ConnectionProfile{}, err
	}
	return p, nil
}

// Submit builds the profile and hands it to the Creator. On success the
// caller closes its form.
func (b *Builder) Submit(ctx context.Context, f Fields) (models.ConnectionProfile, error) {
	p, err := b.Build(ctx, f)
	if err != nil {
		return models.ConnectionProfile{}, err
	}

	data, err := models.EncodeConnectionProfile(p)
	if err != nil {
		return models.ConnectionProfile{}, err
	}
	if err := b.creator.Create(ctx, data); err != nil {
		return models.ConnectionProfile{}, fmt.Errorf("failed to save profile %q: %w", p.Name, err)
	}
	return p, nil
}

// parseInt parses an optional integer field. Empty means zero, which the
// profile later replaces with its default.
func parseInt(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(field, fmt.Sprintf("%q is not an integer", raw))
	}
	return n, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
