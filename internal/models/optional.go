package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OptionalInt decodes a JSON number or numeric string. Set records whether the
// key was present at all, Null an explicit null or blank string, and Valid
// whether the value parsed to an integer.
type OptionalInt struct {
	Set   bool
	Null  bool
	Valid bool
	Value int
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	*o = OptionalInt{Set: true}
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		o.Null = true
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			o.Null = true
			return nil
		}
		o.parse(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// booleans, objects and arrays are present but not numeric
		return nil
	}
	o.parse(n.String())
	return nil
}

func (o *OptionalInt) parse(s string) {
	if n, err := strconv.Atoi(s); err == nil {
		o.Value, o.Valid = n, true
		return
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		o.Value, o.Valid = int(f), true
	}
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(o.Value)), nil
}

// Ptr returns the parsed value, or nil when absent, null or unparsable
func (o OptionalInt) Ptr() *int {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// IntOf is a convenience constructor for a present, valid value
func IntOf(v int) OptionalInt {
	return OptionalInt{Set: true, Valid: true, Value: v}
}

// OptionalString distinguishes an absent key from an explicit null
type OptionalString struct {
	Set   bool
	Null  bool
	Value string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	*o = OptionalString{Set: true}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return fmt.Errorf("expected string or null: %w", err)
	}
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// StringOf is a convenience constructor for a present value
func StringOf(v string) OptionalString {
	return OptionalString{Set: true, Value: v}
}

// NullString is an explicit null, clearing the column on update
func NullString() OptionalString {
	return OptionalString{Set: true, Null: true}
}
