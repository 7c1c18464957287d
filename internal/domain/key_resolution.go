package domain

import "github.com/google/uuid"

// KeyState tags how an external id resolved against the store and the
// current batch.
type KeyState int

const (
	// KeyUnresolved means the external id matches nothing, persisted or
	// pending. The zero value, so absent index entries resolve to it.
	KeyUnresolved KeyState = iota

	// KeyPending means a valid place row in the current batch will create
	// the record; the internal id is unknown until the place phase runs.
	KeyPending

	// KeyResolved means a persisted record exists with a known internal id.
	KeyResolved
)

// KeyResolution is the tagged resolution of one external id. Only a
// Resolved value carries a usable internal id; Pending counts as resolvable
// for validation but never for writing.
type KeyResolution struct {
	State KeyState
	ID    uuid.UUID
}

// ResolvedKey builds a resolution backed by a persisted internal id.
func ResolvedKey(id uuid.UUID) KeyResolution {
	return KeyResolution{State: KeyResolved, ID: id}
}

// PendingKey builds a resolution for a record created later in this batch.
func PendingKey() KeyResolution {
	return KeyResolution{State: KeyPending}
}

// Resolvable reports whether the external id will exist by the end of the
// batch, assuming its create succeeds.
func (k KeyResolution) Resolvable() bool {
	return k.State != KeyUnresolved
}

// KeyIndex maps place external ids to their resolution.
type KeyIndex map[string]KeyResolution

// Resolve looks up an external id; missing entries are Unresolved.
func (idx KeyIndex) Resolve(externalID string) KeyResolution {
	return idx[externalID]
}
