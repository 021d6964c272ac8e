package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CreateParams are the inputs of CreateTask.
type CreateParams struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Assignees   []string `json:"assignees"`
	ForceCreate bool     `json:"forceCreate"`
}

// UpdateParams are the inputs of UpdateTask.
type UpdateParams struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

// DeleteParams are the inputs of DeleteTask.
type DeleteParams struct {
	Title string `json:"title"`
}

// QueryParams are the inputs of QueryTask.
type QueryParams struct {
	Title string `json:"title"`
}

// ListParams are the inputs of ListTasks.
type ListParams struct {
	StartAt    Offset     `json:"startAt"`
	Statuses   StringList `json:"statuses"`
	Assignee   string     `json:"assignee"`
	Priorities StringList `json:"priorities"`
}

// StringList accepts either a single JSON string or an array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	default:
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("want a string or a list of strings: %w", err)
		}
		*l = list
		return nil
	}
}

// Offset is a zero-based result offset. It accepts a JSON number or a
// numeric string; negative values clamp to zero.
type Offset int

// UnmarshalJSON implements json.Unmarshaler.
func (o *Offset) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*o = 0
			return nil
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return fmt.Errorf("startAt must be a number, got %s", data)
		}
		n = int(f)
	}
	*o = Offset(max(n, 0))
	return nil
}
