package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Issue is a tracker issue as received from the search endpoint: an identifier plus a
// sparse bag of raw field values keyed by field id. The core never mutates it.
type Issue struct {
	ID     string                     `json:"id,omitempty"`
	Key    string                     `json:"key"`
	Fields map[string]json.RawMessage `json:"fields,omitempty"`
}

// named is the shape shared by status, priority and issuetype values.
type named struct {
	Name           string `json:"name"`
	StatusCategory *struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"statusCategory"`
}

// LookupField returns the decoded value of field id. Missing fields and JSON null
// report ok == false.
func (i Issue) LookupField(id string) (any, bool) {
	raw, ok := i.Fields[id]
	if !ok || len(raw) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}

// stringField returns a plain string field, or "" when absent or not a string.
func (i Issue) stringField(id string) string {
	raw, ok := i.Fields[id]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (i Issue) namedField(id string) named {
	var n named
	if raw, ok := i.Fields[id]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	return n
}

// Summary returns the issue summary.
func (i Issue) Summary() string { return i.stringField("summary") }

// Created returns the raw creation timestamp.
func (i Issue) Created() string { return i.stringField("created") }

// Updated returns the raw last-update timestamp.
func (i Issue) Updated() string { return i.stringField("updated") }

// StatusName returns status.name, or "" when absent.
func (i Issue) StatusName() string { return i.namedField("status").Name }

// PriorityName returns priority.name, or "" when absent.
func (i Issue) PriorityName() string { return i.namedField("priority").Name }

// IssueType returns issuetype.name, or "" when absent.
func (i Issue) IssueType() string { return i.namedField("issuetype").Name }

// StatusCategoryKey returns status.statusCategory.key (new, indeterminate, done).
func (i Issue) StatusCategoryKey() string {
	n := i.namedField("status")
	if n.StatusCategory == nil {
		return ""
	}
	return n.StatusCategory.Key
}

// StatusCategoryName returns status.statusCategory.name.
func (i Issue) StatusCategoryName() string {
	n := i.namedField("status")
	if n.StatusCategory == nil {
		return ""
	}
	return n.StatusCategory.Name
}

// trackerTimeLayouts are the timestamp formats the tracker emits.
var trackerTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// ParseTime parses a tracker timestamp, reporting false when it is empty or malformed.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range trackerTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToSummary reduces the issue to a list row.
func (i Issue) ToSummary(withUpdated bool) IssueSummary {
	s := IssueSummary{
		Key:      i.Key,
		Summary:  i.Summary(),
		Status:   i.StatusName(),
		Priority: i.PriorityName(),
	}
	if withUpdated {
		s.Updated = i.Updated()
	}
	return s
}
