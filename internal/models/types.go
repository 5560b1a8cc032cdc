package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray represents a PostgreSQL text[] type
type StringArray []string

// Scan implements the sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		// Handle PostgreSQL array format: {value1,value2,value3}
		if v == "{}" || v == "" {
			*s = StringArray{}
			return nil
		}

		// Remove outer braces and split by comma
		trimmed := strings.Trim(v, "{}")
		if trimmed == "" {
			*s = StringArray{}
			return nil
		}

		parts := strings.Split(trimmed, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			// Remove quotes if present
			result[i] = strings.Trim(strings.TrimSpace(part), "\"")
		}
		*s = result
		return nil
	case []byte:
		// Try to parse as JSON first
		var arr []string
		if err := json.Unmarshal(v, &arr); err == nil {
			*s = arr
			return nil
		}
		// Fallback to string parsing
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}

	// Format as PostgreSQL array: {value1,value2,value3}
	quoted := make([]string, len(s))
	for i, v := range s {
		// Escape quotes and wrap in quotes
		escaped := strings.ReplaceAll(v, "\"", "\\\"")
		quoted[i] = fmt.Sprintf("\"%s\"", escaped)
	}

	return fmt.Sprintf("{%s}", strings.Join(quoted, ",")), nil
}

// Contains reports whether v is one of the array's elements.
func (s StringArray) Contains(v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}
}

// ContentMap maps a language code to the versions generated for it, stored
// as a jsonb column. Versions are append-only: regeneration adds an entry,
// it never replaces one.
type ContentMap map[string][]ContentVersion

// Scan implements the sql.Scanner interface
func (c *ContentMap) Scan(value interface{}) error {
	*c = ContentMap{}
	return scanJSON(value, c)
}

// Value implements the driver.Valuer interface
func (c ContentMap) Value() (driver.Value, error) {
	if c == nil {
		c = ContentMap{}
	}
	return json.Marshal(c)
}

// ChannelStatusMap maps a channel name to its per-channel state record,
// stored as a jsonb column.
type ChannelStatusMap map[string]ChannelState

// Scan implements the sql.Scanner interface
func (m *ChannelStatusMap) Scan(value interface{}) error {
	*m = ChannelStatusMap{}
	return scanJSON(value, m)
}

// Value implements the driver.Valuer interface
func (m ChannelStatusMap) Value() (driver.Value, error) {
	if m == nil {
		m = ChannelStatusMap{}
	}
	return json.Marshal(m)
}
