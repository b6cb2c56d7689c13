package workspace

import (
	"time"
)

// Status is the document lifecycle state. Exactly one active value per
// document; transitions via Apply are the only legal mutators.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusValidated Status = "validated"
	StatusSent      Status = "sent"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is one of the four lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusValidated, StatusSent, StatusArchived:
		return true
	}
	return false
}

// ReadOnly reports whether documents in this state reject content mutations.
// Sent and archived documents are rendered exclusively in preview mode.
func (s Status) ReadOnly() bool {
	return s == StatusSent || s == StatusArchived
}

// Action is a user-triggered lifecycle transition.
type Action string

const (
	ActionValidate Action = "validate"
	ActionEdit     Action = "edit"
	ActionArchive  Action = "archive"
	ActionSend     Action = "send"
	ActionResend   Action = "resend"
	ActionRestore  Action = "restore"
)

// RequiresExport reports whether the action is gated on a successful
// export artifact (send and resend produce a PDF).
func (a Action) RequiresExport() bool {
	return a == ActionSend || a == ActionResend
}

// transitions is the lifecycle table: from-state -> action -> to-state.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionValidate: StatusValidated,
	},
	StatusValidated: {
		ActionEdit:    StatusDraft,
		ActionArchive: StatusArchived,
		ActionSend:    StatusSent,
	},
	StatusSent: {
		ActionArchive: StatusArchived,
		ActionResend:  StatusSent,
	},
	StatusArchived: {
		ActionRestore: StatusDraft,
	},
}

// Apply returns the state reached by performing the action from s.
// ok is false when the transition is not in the lifecycle table.
func (s Status) Apply(a Action) (next Status, ok bool) {
	next, ok = transitions[s][a]
	return next, ok
}

// ActionTo returns the action that moves s to target, if the lifecycle
// table contains one.
func (s Status) ActionTo(target Status) (Action, bool) {
	for action, next := range transitions[s] {
		if next == target {
			return action, true
		}
	}
	return "", false
}

// Document is the persisted workspace document record. Content holds the
// DocModel stored in the content_json JSONB column.
type Document struct {
	ID              string    `json:"id" db:"id"`
	TenantID        string    `json:"tenant_id" db:"tenant_id"`
	AssistantID     *string   `json:"assistant_id,omitempty" db:"assistant_id"`
	Title           string    `json:"title" db:"title"`
	DocType         string    `json:"doc_type" db:"doc_type"`
	Status          Status    `json:"status" db:"status"`
	Content         *DocModel `json:"content_json" db:"content_json"`
	Version         int       `json:"version" db:"version"`
	LastExportedURL *string   `json:"last_exported_url,omitempty" db:"last_exported_url"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Defaults carried over from the stored record shape.
const (
	DefaultTitle   = "Sans titre"
	DefaultDocType = "generic"
)
