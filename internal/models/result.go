package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResultColumns lists the displayed ResultRow fields in table order
var ResultColumns = []string{"Time", "OID", "Name", "Type", "Value"}

// ResultRow is one observed variable binding. Rows are immutable once they
// reach the result sink.
type ResultRow struct {
	Time  time.Time `json:"Time"`
	OID   string    `json:"OID"`
	Name  string    `json:"Name"`
	Type  string    `json:"Type"`
	Value string    `json:"Value"`

	// Op identifies the operation that produced the row
	Op string `json:"Op,omitempty"`
	// Stale marks rows that arrived after their session was closed
	Stale bool `json:"Stale,omitempty"`
}

// NewResultRow builds a row, normalizing and validating the OID
func NewResultRow(at time.Time, oid, name, typ, value string) (ResultRow, error) {
	norm, err := NormalizeOID(oid)
	if err != nil {
		return ResultRow{}, err
	}
	return ResultRow{
		Time:  at,
		OID:   norm,
		Name:  name,
		Type:  typ,
		Value: value,
	}, nil
}

// DecodeResultRow parses a JSON-encoded row pushed by the transport
func DecodeResultRow(data []byte) (ResultRow, error) {
	var raw struct {
		Time  string `json:"Time"`
		OID   string `json:"OID"`
		Name  string `json:"Name"`
		Type  string `json:"Type"`
		Value string `json:"Value"`
		Op    string `json:"Op"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ResultRow{}, fmt.Errorf("failed to parse result row: %w", err)
	}

	at := time.Now()
	if raw.Time != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw.Time)
		if err != nil {
			return ResultRow{}, NewValidationError("Time", fmt.Sprintf("invalid timestamp %q", raw.Time))
		}
		at = parsed
	}

	row, err := NewResultRow(at, raw.OID, raw.Name, raw.Type, raw.Value)
	if err != nil {
		return ResultRow{}, err
	}
	row.Op = raw.Op
	return row, nil
}

// Field returns the display value of a column by name (case-insensitive)
func (r ResultRow) Field(column string) string {
	switch strings.ToLower(column) {
	case "time":
		return r.Time.Format("2006-01-02 15:04:05.000")
	case "oid":
		return r.OID
	case "name":
		return r.Name
	case "type":
		return r.Type
	case "value":
		return r.Value
	default:
		return ""
	}
}

// Cells returns the displayed fields in ResultColumns order
func (r ResultRow) Cells() []string {
	cells := make([]string, len(ResultColumns))
	for i, col := range ResultColumns {
		cells[i] = r.Field(col)
	}
	return cells
}

// NormalizeOID validates a dotted numeric OID and strips a leading dot
func NormalizeOID(oid string) (string, error) {
	oid = strings.TrimSpace(oid)
	oid = strings.TrimPrefix(oid, ".")
	if oid == "" {
		return "", NewValidationError("OID", "OID can't be empty")
	}

	for _, arc := range strings.Split(oid, ".") {
		if arc == "" {
			return "", NewValidationError("OID", fmt.Sprintf("malformed OID %q", oid))
		}
		for _, c := range arc {
			if c < '0' || c > '9' {
				return "", NewValidationError("OID", fmt.Sprintf("malformed OID %q", oid))
			}
		}
	}
	return oid, nil
}

// OIDHasPrefix reports whether oid lies in the subtree rooted at prefix
func OIDHasPrefix(oid, prefix string) bool {
	oid = strings.TrimPrefix(oid, ".")
	prefix = strings.TrimPrefix(prefix, ".")
	if oid == prefix {
		return true
	}
	return strings.HasPrefix(oid, prefix+".")
}
