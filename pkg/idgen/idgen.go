// Package idgen generates time-sortable ids for append-only records
// (ActionRecord and diagnostic ids in internal/actionlog). Grounded on
// the teacher's pkg/idwrap.IDWrap (packages/server/pkg/idwrap/idwrap.go),
// which wraps github.com/oklog/ulid/v2 the same way, adapted here to a
// bare string form since our callers store ids as the ac_actions.id text
// column rather than binary ULID bytes.
package idgen

import "github.com/oklog/ulid/v2"

// New returns a fresh, lexicographically sortable id.
func New() string {
	return ulid.Make().String()
}
