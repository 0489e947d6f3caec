package domain

import (
	"encoding/json"
	"time"
)

// AuditOperation is the kind of mutation an audit record describes.
type AuditOperation string

const (
	AuditCreate AuditOperation = "CREATE"
	AuditUpdate AuditOperation = "UPDATE"
	AuditDelete AuditOperation = "DELETE"
)

// AuditEntry is written inside the same unit of work as the mutation it
// records. A failed audit write aborts the mutation.
type AuditEntry struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actorId"`
	Table     string          `json:"table"`
	RecordID  string          `json:"recordId"`
	Operation AuditOperation  `json:"operation"`
	OldValues json.RawMessage `json:"oldValues,omitempty"`
	NewValues json.RawMessage `json:"newValues,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
