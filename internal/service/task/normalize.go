package task

import (
	"encoding/json"
	"strings"

	"github.com/Anveeka07/TaskManager/internal/domain"
)

var statusSynonyms = map[string]domain.Status{
	"pending":     domain.StatusPending,
	"incomplete":  domain.StatusPending,
	"todo":        domain.StatusPending,
	"in progress": domain.StatusInProgress,
	"inprogress":  domain.StatusInProgress,
	"progress":    domain.StatusInProgress,
	"completed":   domain.StatusCompleted,
	"complete":    domain.StatusCompleted,
	"done":        domain.StatusCompleted,
}

var prioritySynonyms = map[string]domain.Priority{
	"low":      domain.PriorityLow,
	"medium":   domain.PriorityMedium,
	"med":      domain.PriorityMedium,
	"high":     domain.PriorityHigh,
	"urgent":   domain.PriorityHigh,
	"critical": domain.PriorityHigh,
}

// NormalizeStatus maps a loose status spelling onto its canonical form.
// Unrecognized input is returned unchanged so that validation can reject it.
func NormalizeStatus(raw string) string {
	if status, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return string(status)
	}
	return raw
}

// NormalizePriority maps a loose priority spelling onto its canonical form.
// Unrecognized input is returned unchanged so that validation can reject it.
func NormalizePriority(raw string) string {
	if priority, ok := prioritySynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return string(priority)
	}
	return raw
}

// Field is one optional member of a task payload. It records whether the key
// was present and keeps the raw JSON so a string can be told apart from null
// or any other JSON type.
type Field struct {
	set bool
	raw json.RawMessage
}

// Text returns a present Field holding a JSON string.
func Text(s string) Field {
	raw, _ := json.Marshal(s)
	return Field{set: true, raw: raw}
}

// UnmarshalJSON is called for every present key, including explicit nulls.
func (f *Field) UnmarshalJSON(data []byte) error {
	f.set = true
	f.raw = append(f.raw[:0], data...)
	return nil
}

// Set reports whether the key was present in the payload.
func (f Field) Set() bool { return f.set }

// Null reports whether the key was present with an explicit JSON null.
func (f Field) Null() bool { return f.set && string(f.raw) == "null" }

// StringValue returns the value when it is a JSON string.
func (f Field) StringValue() (string, bool) {
	if !f.set || len(f.raw) == 0 || f.raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(f.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (f Field) mapString(fn func(string) string) Field {
	s, ok := f.StringValue()
	if !ok {
		return f
	}
	return Text(fn(s))
}

// Payload is the whitelisted body of a create or update request. Unknown keys
// are ignored by the decoder.
type Payload struct {
	Title       Field `json:"title"`
	Description Field `json:"description"`
	Status      Field `json:"status"`
	Priority    Field `json:"priority"`
}

// Empty reports whether no editable key was supplied.
func (p Payload) Empty() bool {
	return !p.Title.Set() && !p.Description.Set() && !p.Status.Set() && !p.Priority.Set()
}

// Normalize rewrites status and priority synonyms and trims title and description.
// Values that are not strings are left for Validate to reject.
func (p Payload) Normalize() Payload {
	p.Title = p.Title.mapString(strings.TrimSpace)
	p.Description = p.Description.mapString(strings.TrimSpace)
	p.Status = p.Status.mapString(NormalizeStatus)
	p.Priority = p.Priority.mapString(NormalizePriority)
	return p
}
