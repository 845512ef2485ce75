// Package models defines the record types persisted by the storage layer:
// entity kinds, ordered entities, snapshots, audit entries and trash items.
package models

import (
	"fmt"

	"github.com/dmitrijs2005/recordkeeper/internal/common"
)

// Kind names one of the four flat record collections. The string value is
// the key used in the snapshot wire format.
type Kind string

const (
	KindVehicle    Kind = "vehicles"
	KindPurchase   Kind = "purchases"
	KindAnomaly    Kind = "anomalies"
	KindCredential Kind = "credentials"
)

// AllKinds lists every kind in wire order.
var AllKinds = []Kind{KindVehicle, KindPurchase, KindAnomaly, KindCredential}

// Valid reports whether k is one of AllKinds.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownKind, s)
	}
	return k, nil
}
