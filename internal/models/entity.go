package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Field is one named scalar of an Entity.
type Field struct {
	Name  string
	Value any
}

// Entity is an ordered mapping of field names to scalar values: strings,
// json.Number, bool or nil. Dates travel as strings. Field order is kept
// through JSON encoding so records read back exactly as written.
type Entity []Field

var ErrNonScalar = errors.New("entity field value must be a scalar")

// NewEntity builds an entity from alternating name/value pairs.
//
//	e := models.NewEntity("plate", "AB-123-CD", "year", 2019)
func NewEntity(pairs ...any) (Entity, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("odd number of name/value arguments: %d", len(pairs))
	}
	var e Entity
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("field name at position %d is %T, not string", i, pairs[i])
		}
		var err error
		if e, err = e.With(name, pairs[i+1]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Get returns the value of the named field.
func (e Entity) Get(name string) (any, bool) {
	for _, f := range e {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// String returns the named field rendered as text, or "" when absent.
func (e Entity) String(name string) string {
	v, ok := e.Get(name)
	if !ok || v == nil {
		return ""
	}
	switch value := v.(type) {
	case string:
		return value
	case json.Number:
		return value.String()
	default:
		return fmt.Sprint(value)
	}
}

// With returns a copy of e with name set to value. An existing field keeps
// its position; a new one is appended.
func (e Entity) With(name string, value any) (Entity, error) {
	v, err := normalizeScalar(value)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", name, err)
	}
	out := e.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Value = v
			return out, nil
		}
	}
	return append(out, Field{Name: name, Value: v}), nil
}

// Names lists field names in order.
func (e Entity) Names() []string {
	names := make([]string, len(e))
	for i, f := range e {
		names[i] = f.Name
	}
	return names
}

func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	copy(out, e)
	return out
}

// Equal compares names, order and values.
func (e Entity) Equal(other Entity) bool {
	if len(e) != len(other) {
		return false
	}
	for i := range e {
		if e[i].Name != other[i].Name || e[i].Value != other[i].Value {
			return false
		}
	}
	return true
}

// MarshalJSON writes the entity as a JSON object in field order.
func (e Entity) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object, keeping key order. Nested objects
// and arrays are rejected with ErrNonScalar.
func (e *Entity) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("entity must be a JSON object, got %v", tok)
	}

	out := Entity{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		value, err := dec.Token()
		if err != nil {
			return err
		}
		if _, isDelim := value.(json.Delim); isDelim {
			return fmt.Errorf("field %q: %w", name, ErrNonScalar)
		}
		out = append(out, Field{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = out
	return nil
}

// normalizeScalar folds Go numeric types into json.Number so values compare
// equal after a round trip through storage.
func normalizeScalar(v any) (any, error) {
	switch value := v.(type) {
	case nil, string, bool, json.Number:
		return value, nil
	case int:
		return json.Number(strconv.FormatInt(int64(value), 10)), nil
	case int32:
		return json.Number(strconv.FormatInt(int64(value), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(value, 10)), nil
	case uint:
		return json.Number(strconv.FormatUint(uint64(value), 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(value, 10)), nil
	case float32:
		return json.Number(strconv.FormatFloat(float64(value), 'f', -1, 32)), nil
	case float64:
		return json.Number(strconv.FormatFloat(value, 'f', -1, 64)), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNonScalar, v)
	}
}
