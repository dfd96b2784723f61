package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeAction is the kind of mutation a change record describes.
type ChangeAction string

const (
	ChangeActionCreated  ChangeAction = "CREATED"
	ChangeActionUpdated  ChangeAction = "UPDATED"
	ChangeActionDisabled ChangeAction = "DISABLED"
	ChangeActionDeleted  ChangeAction = "DELETED"
)

// SystemActorLabel is how a record without an actor is rendered.
const SystemActorLabel = "System"

func (a ChangeAction) Valid() bool {
	switch a {
	case ChangeActionCreated, ChangeActionUpdated, ChangeActionDisabled, ChangeActionDeleted:
		return true
	}
	return false
}

// FieldChange holds the stringified old and new value of one field.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangePayload is either a field diff or a descriptive message, never both
// and never empty.
type ChangePayload struct {
	Message string
	Fields  map[string]FieldChange
}

func MessagePayload(message string) ChangePayload {
	return ChangePayload{Message: message}
}

func (p ChangePayload) IsDiff() bool {
	return p.Message == "" && len(p.Fields) > 0
}

func (p ChangePayload) MarshalJSON() ([]byte, error) {
	if p.IsDiff() {
		return json.Marshal(p.Fields)
	}
	return json.Marshal(map[string]string{"message": p.Message})
}

func (p *ChangePayload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid change payload: %w", err)
	}

	if msg, ok := raw["message"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			p.Message = s
			p.Fields = nil
			return nil
		}
	}

	fields := make(map[string]FieldChange, len(raw))
	for name, value := range raw {
		var fc FieldChange
		if err := json.Unmarshal(value, &fc); err != nil {
			return fmt.Errorf("invalid change for field %s: %w", name, err)
		}
		fields[name] = fc
	}
	p.Message = ""
	p.Fields = fields
	return nil
}

// ChangeRecord is an append-only audit entry for one product mutation.
type ChangeRecord struct {
	ID        string        `json:"id"`
	ProductID string        `json:"product_id"`
	Action    ChangeAction  `json:"action"`
	ChangedBy *string       `json:"changed_by"`
	ChangedAt time.Time     `json:"changed_at"`
	Changes   ChangePayload `json:"changes"`
}

// ActorLabel renders the actor, falling back to "System".
func (r *ChangeRecord) ActorLabel() string {
	if r.ChangedBy == nil || *r.ChangedBy == "" {
		return SystemActorLabel
	}
	return *r.ChangedBy
}

// ChangeLogFilter narrows audit queries. Results are newest first.
type ChangeLogFilter struct {
	ProductID string
	Action    ChangeAction
	ChangedBy string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
