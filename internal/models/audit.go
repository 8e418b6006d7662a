package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource types referenced by audit entries.
const (
	ResourceDocument  = "document"
	ResourceWorkspace = "workspace"
	ResourceUser      = "user"
	ResourceFolder    = "folder"
	ResourceComment   = "comment"
	ResourceMeeting   = "meeting"
)

var validResourceTypes = map[string]bool{
	ResourceDocument:  true,
	ResourceWorkspace: true,
	ResourceUser:      true,
	ResourceFolder:    true,
	ResourceComment:   true,
	ResourceMeeting:   true,
}

// IsValidResourceType reports whether t belongs to the closed resource
// type set.
func IsValidResourceType(t string) bool {
	return validResourceTypes[t]
}

// AuditEntry is an immutable record of one authenticated action.
// Entries are created exactly once by the audit service and never
// mutated or deleted by this system.
type AuditEntry struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	UserName     string         `json:"user_name"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   *uuid.UUID     `json:"resource_id,omitempty"`
	ResourceName *string        `json:"resource_name,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	CreatedAt    time.Time      `json:"created_at"`
}
