package models

import "time"

// Operation names a query the console can issue
type Operation string

const (
	OpGet      Operation = "get"
	OpGetNext  Operation = "getnext"
	OpBulkWalk Operation = "bulkwalk"
)

// Bookmark is a saved OID with the operation to run on it
type Bookmark struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	OID         string    `yaml:"oid" json:"oid"`
	Operation   Operation `yaml:"operation" json:"operation"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	LastUsed    time.Time `yaml:"last_used,omitempty" json:"last_used,omitempty"`
	UsageCount  int       `yaml:"usage_count" json:"usage_count"`
}
