package models

import (
	"fmt"
	"sort"
)

// Schema declares the field list of a kind once, the natural key used to
// name its entities in the audit trail, and defaults for fields a caller
// leaves out.
type Schema struct {
	Kind     Kind
	Fields   []string
	Key      string
	Defaults map[string]any
}

// DefaultCurrency is recorded on purchases that do not state one.
const DefaultCurrency = "EUR (€)"

var schemas = map[Kind]Schema{
	KindVehicle: {
		Kind: KindVehicle,
		Fields: []string{
			"plate", "make", "model", "year", "type",
			"first_aid_kit", "extinguisher", "warning_triangle", "wheel_chock",
			"cleanliness", "inspection_date", "inspector", "status",
		},
		Key: "plate",
	},
	KindPurchase: {
		Kind: KindPurchase,
		Fields: []string{
			"date", "item", "category", "quantity", "unit_price",
			"total_price", "currency", "supplier", "owner", "status",
			"payment_method", "reference", "notes",
		},
		Key:      "item",
		Defaults: map[string]any{"currency": DefaultCurrency},
	},
	KindAnomaly: {
		Kind: KindAnomaly,
		Fields: []string{
			"reported_at", "type", "description", "vehicle", "priority",
			"status", "resolved_at", "owner", "actions_taken",
			"document_count", "documents",
		},
		Key: "type",
	},
	KindCredential: {
		Kind: KindCredential,
		Fields: []string{
			"employee", "credential_type", "number", "obtained_at",
			"expires_at", "issuer", "status", "verified_by", "verified_at",
			"days_remaining",
		},
		Key: "employee",
	},
}

// SchemaFor returns the declared schema of kind.
func SchemaFor(kind Kind) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// Build creates an entity in declared field order from values. Declared
// fields absent from values take their default, or are left out when there
// is none. Undeclared names are appended in sorted order.
func (s Schema) Build(values map[string]any) (Entity, error) {
	var (
		e   Entity
		err error
	)
	seen := make(map[string]bool, len(s.Fields))
	for _, name := range s.Fields {
		seen[name] = true
		v, ok := values[name]
		if !ok {
			if v, ok = s.Defaults[name]; !ok {
				continue
			}
		}
		if e, err = e.With(name, v); err != nil {
			return nil, err
		}
	}

	extra := make([]string, 0)
	for name := range values {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		if e, err = e.With(name, values[name]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// KeyOf returns the natural key of e, or "N/A" when the key field is empty.
func (s Schema) KeyOf(e Entity) string {
	if v := e.String(s.Key); v != "" {
		return v
	}
	return "N/A"
}

// EntityKey names e for the audit trail using its kind's schema.
func EntityKey(kind Kind, e Entity) string {
	s, ok := SchemaFor(kind)
	if !ok {
		return "N/A"
	}
	return s.KeyOf(e)
}

// Find returns the index of the first entity of kind whose natural key is key.
func (s Snapshot) Find(kind Kind, key string) (int, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return -1, fmt.Errorf("no schema for %q", kind)
	}
	for i, e := range s[kind] {
		if e.String(schema.Key) == key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s %q not found", kind, key)
}
