package viewdef

import "github.com/google/uuid"

// NewRunID returns a fresh identifier a caller can use to correlate one
// Run invocation with logs or traces at its own boundary. It plays no part
// in row evaluation or encoding, so two Runs of the same view over the same
// bundle still produce byte-identical output regardless of the IDs minted
// around them.
func NewRunID() string {
	return uuid.NewString()
}
