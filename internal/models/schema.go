package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaNode is one OID node defined by a MIB module
type SchemaNode struct {
	Name        string `json:"Name"`
	OID         string `json:"Oid"`
	Kind        string `json:"Kind,omitempty"`
	Description string `json:"Description,omitempty"`
}

// SchemaType is one type definition (textual convention) of a MIB module
type SchemaType struct {
	Name        string `json:"Name"`
	BaseType    string `json:"BaseType,omitempty"`
	Description string `json:"Description,omitempty"`
}

// SchemaModule describes one loaded MIB module
type SchemaModule struct {
	Name         string       `json:"Name"`
	Language     string       `json:"Language,omitempty"`
	Organization string       `json:"Organization,omitempty"`
	Path         string       `json:"Path,omitempty"`
	Reference    string       `json:"Reference,omitempty"`
	Description  string       `json:"Description,omitempty"`
	ContactInfo  string       `json:"ContactInfo,omitempty"`
	Nodes        []SchemaNode `json:"Nodes,omitempty"`
	Types        []SchemaType `json:"Types,omitempty"`
}

// schemaEnvelope mirrors the per-module payload of the schema fetch:
// {"Module": {...}, "Nodes": [...], "Types": [...]}
type schemaEnvelope struct {
	Module SchemaModule `json:"Module"`
	Nodes  []SchemaNode `json:"Nodes"`
	Types  []SchemaType `json:"Types"`
}

// DecodeSchemaModules parses the JSON mapping of module key → module payload.
// Modules without a name are rejected.
func DecodeSchemaModules(data []byte) (map[string]SchemaModule, error) {
	var raw map[string]schemaEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema modules: %w", err)
	}

	modules := make(map[string]SchemaModule, len(raw))
	for key, env := range raw {
		m := env.Module
		if strings.TrimSpace(m.Name) == "" {
			return nil, NewValidationError("Module.Name", fmt.Sprintf("module %q has no name", key))
		}
		if len(env.Nodes) > 0 {
			m.Nodes = env.Nodes
		}
		if len(env.Types) > 0 {
			m.Types = env.Types
		}
		modules[key] = m
	}
	return modules, nil
}

// EncodeSchemaModules is the inverse of DecodeSchemaModules
func EncodeSchemaModules(modules map[string]SchemaModule) ([]byte, error) {
	raw := make(map[string]schemaEnvelope, len(modules))
	for key, m := range modules {
		env := schemaEnvelope{Nodes: m.Nodes, Types: m.Types}
		m.Nodes, m.Types = nil, nil
		env.Module = m
		raw[key] = env
	}
	return json.Marshal(raw)
}
