package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot maps every kind to its ordered entities. It is the unit of save
// and load. A well-formed snapshot has an entry for every kind in AllKinds;
// use NewSnapshot or Normalize to obtain one.
type Snapshot map[Kind][]Entity

// NewSnapshot returns a snapshot with an empty collection for every kind.
func NewSnapshot() Snapshot {
	s := make(Snapshot, len(AllKinds))
	for _, k := range AllKinds {
		s[k] = []Entity{}
	}
	return s
}

// Normalize returns a deep copy of s in which every kind is present.
// Unknown kinds are dropped.
func (s Snapshot) Normalize() Snapshot {
	out := NewSnapshot()
	for _, k := range AllKinds {
		for _, e := range s[k] {
			out[k] = append(out[k], e.Clone())
		}
	}
	return out
}

// Complete reports whether every kind has an entry.
func (s Snapshot) Complete() bool {
	for _, k := range AllKinds {
		if _, ok := s[k]; !ok {
			return false
		}
	}
	return true
}

// Counts returns the number of entities per kind.
func (s Snapshot) Counts() map[Kind]int {
	out := make(map[Kind]int, len(AllKinds))
	for _, k := range AllKinds {
		out[k] = len(s[k])
	}
	return out
}

// Total is the number of entities across all kinds.
func (s Snapshot) Total() int {
	n := 0
	for _, k := range AllKinds {
		n += len(s[k])
	}
	return n
}

// Equal compares two snapshots kind by kind. A missing kind equals an
// empty one.
func (s Snapshot) Equal(other Snapshot) bool {
	for _, k := range AllKinds {
		a, b := s[k], other[k]
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
	}
	return true
}

// Append returns a copy of s with e added at the end of kind's collection.
func (s Snapshot) Append(kind Kind, e Entity) Snapshot {
	out := s.Normalize()
	out[kind] = append(out[kind], e.Clone())
	return out
}

// Remove returns a copy of s without the entity at index i of kind, and the
// removed entity.
func (s Snapshot) Remove(kind Kind, i int) (Snapshot, Entity, error) {
	out := s.Normalize()
	items := out[kind]
	if i < 0 || i >= len(items) {
		return nil, nil, fmt.Errorf("%s: index %d out of range (%d entities)", kind, i, len(items))
	}
	removed := items[i]
	out[kind] = append(items[:i:i], items[i+1:]...)
	return out, removed, nil
}

// MarshalJSON writes one field per kind, in AllKinds order, each holding
// an array of flat objects.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range AllKinds {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", string(k))
		items := s[k]
		if items == nil {
			items = []Entity{}
		}
		b, err := json.Marshal(items)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the wire format. Missing kinds decode as empty;
// unknown keys are ignored.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	out := NewSnapshot()
	for _, k := range AllKinds {
		msg, ok := raw[string(k)]
		if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			continue
		}
		var items []Entity
		if err := json.Unmarshal(msg, &items); err != nil {
			return fmt.Errorf("decode %s: %w", k, err)
		}
		if items != nil {
			out[k] = items
		}
	}
	*s = out
	return nil
}

// DecodeSnapshot parses a stored snapshot value. An empty payload yields an
// empty snapshot.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return NewSnapshot(), nil
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s, nil
}
