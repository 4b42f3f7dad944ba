// Package entity provides base types shared by all domain entities.
package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// JSONMap represents a JSONB column as a generic map.
// Implements sql.Scanner and driver.Valuer for PostgreSQL JSONB mapping.
//
// Uses json.Number on decode to preserve numeric precision; the default
// decoder converts numbers to float64, which corrupts large integers and
// decimal constraints.
type JSONMap map[string]any

// Scan implements sql.Scanner for reading from PostgreSQL JSONB.
func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", src)
	}

	if len(source) == 0 {
		*m = nil
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	var result map[string]any
	if err := decoder.Decode(&result); err != nil {
		return fmt.Errorf("failed to decode JSONMap: %w", err)
	}

	*m = result
	return nil
}

// Value implements driver.Valuer for writing to PostgreSQL JSONB.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// --- Type-safe getters ---

// GetString returns string value or empty string if not found/wrong type.
func (m JSONMap) GetString(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// GetBool returns boolean value.
func (m JSONMap) GetBool(key string) bool {
	if m == nil {
		return false
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// GetDecimal returns the value as decimal.Decimal with full precision,
// and reports whether a usable numeric value was present.
func (m JSONMap) GetDecimal(key string) (decimal.Decimal, bool) {
	if m == nil {
		return decimal.Zero, false
	}
	switch v := m[key].(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Zero, false
}

// Has checks if key exists (including nil values).
func (m JSONMap) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m[key]
	return ok
}
