package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SNMPVersion selects the protocol version and, with it, the security payload
type SNMPVersion string

const (
	Version1  SNMPVersion = "1"
	Version2c SNMPVersion = "2"
	Version3  SNMPVersion = "3"
)

// Transport is the socket type used to reach the agent
type Transport string

const (
	TransportUDP Transport = "udp"
	TransportTCP Transport = "tcp"
)

// SecurityModelUSM is the only v3 security model the console offers
const SecurityModelUSM = "SnmpV3SecurityModel"

// Authentication protocol names as presented in the profile form
var AuthProtocols = []string{"No Auth", "MD5", "SHA", "SHA224", "SHA256", "SHA384", "SHA512"}

// Privacy protocol names as presented in the profile form
var PrivProtocols = []string{"No Priv", "DES", "AES", "AES192", "AES256", "AES192C", "AES256C"}

// Defaults applied when a profile leaves a field unset
const (
	DefaultTarget    = "127.0.0.1"
	DefaultPort      = 161
	DefaultTimeout   = 10
	DefaultRetries   = 3
	DefaultCommunity = "public"
)

// SecurityParameters holds the SNMPv3 user security model credentials
type SecurityParameters struct {
	UserName                 string `json:"user_name" yaml:"user_name"`
	AuthenticationProtocol   string `json:"authentication_protocol" yaml:"authentication_protocol"`
	AuthenticationPassphrase string `json:"authentication_passphrase,omitempty" yaml:"-"`
	PrivacyProtocol          string `json:"privacy_protocol" yaml:"privacy_protocol"`
	PrivacyPassphrase        string `json:"privacy_passphrase,omitempty" yaml:"-"`
}

// IsZero reports whether no v3 credential field is set
func (s SecurityParameters) IsZero() bool {
	return s == SecurityParameters{}
}

// ConnectionProfile is a named set of parameters for reaching one SNMP agent.
// Community is only meaningful for v1/v2c; SecurityModel and SecurityParameters
// only for v3.
type ConnectionProfile struct {
	Name      string      `json:"name" yaml:"name"`
	Target    string      `json:"target,omitempty" yaml:"target"`
	Port      int         `json:"port,omitempty" yaml:"port"`
	Timeout   int         `json:"timeout,omitempty" yaml:"timeout"`
	Transport Transport   `json:"transport,omitempty" yaml:"transport"`
	Retries   int         `json:"retries,omitempty" yaml:"retries"`
	Version   SNMPVersion `json:"version" yaml:"version"`

	// v1 / v2c
	Community string `json:"community,omitempty" yaml:"-"`

	// v3
	SecurityModel      string             `json:"security_model,omitempty" yaml:"security_model,omitempty"`
	SecurityParameters SecurityParameters `json:"security_parameters,omitempty" yaml:"security_parameters,omitempty"`
}

// ErrValidation is wrapped by every ValidationError
var ErrValidation = errors.New("validation failed")

// ValidationError reports bad user input for a single field
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for field
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// Validate checks the profile shape: a name, a known version and exactly one
// security payload matching that version
func (p ConnectionProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "name can't be empty")
	}
	if p.Port < 0 || p.Port > 65535 {
		return NewValidationError("port", "port must be between 0 and 65535")
	}
	if p.Timeout < 0 {
		return NewValidationError("timeout", "timeout can't be negative")
	}
	if p.Retries < 0 {
		return NewValidationError("retries", "retries can't be negative")
	}
	switch p.Transport {
	case "", TransportUDP, TransportTCP:
	default:
		return NewValidationError("transport", fmt.Sprintf("unknown transport %q", p.Transport))
	}

	switch p.Version {
	case Version1, Version2c:
		if p.SecurityModel != "" || !p.SecurityParameters.IsZero() {
			return NewValidationError("version", "v1/v2 profiles can't carry v3 security parameters")
		}
	case Version3:
		if p.Community != "" {
			return NewValidationError("version", "v3 profiles can't carry a community string")
		}
		if p.SecurityModel == "" {
			return NewValidationError("security_model", "security model is required for v3")
		}
		if !contains(AuthProtocols, p.SecurityParameters.AuthenticationProtocol) {
			return NewValidationError("authentication_protocol",
				fmt.Sprintf("unknown authentication protocol %q", p.SecurityParameters.AuthenticationProtocol))
		}
		if !contains(PrivProtocols, p.SecurityParameters.PrivacyProtocol) {
			return NewValidationError("privacy_protocol",
				fmt.Sprintf("unknown privacy protocol %q", p.SecurityParameters.PrivacyProtocol))
		}
	default:
		return NewValidationError("version", fmt.Sprintf("unknown SNMP version %q", p.Version))
	}

	return nil
}

// WithDefaults returns a copy with unset connection fields filled in
func (p ConnectionProfile) WithDefaults() ConnectionProfile {
	if p.Target == "" {
		p.Target = DefaultTarget
	}
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	if p.Retries == 0 {
		p.Retries = DefaultRetries
	}
	if p.Transport == "" {
		p.Transport = TransportUDP
	}
	if p.Version != Version3 && p.Community == "" {
		p.Community = DefaultCommunity
	}
	return p
}

// Address returns target:port for display
func (p ConnectionProfile) Address() string {
	d := p.WithDefaults()
	return fmt.Sprintf("%s:%d", d.Target, d.Port)
}

// DecodeConnectionProfile parses a JSON-encoded profile and rejects malformed shapes
func DecodeConnectionProfile(data []byte) (ConnectionProfile, error) {
	var p ConnectionProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return ConnectionProfile{}, fmt.Errorf("failed to parse connection profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return ConnectionProfile{}, err
	}
	return p, nil
}

// EncodeConnectionProfile serializes a validated profile
func EncodeConnectionProfile(p ConnectionProfile) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
