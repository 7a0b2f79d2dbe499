package a2a

import "github.com/google/uuid"

// NewID generates a UUID-shaped, globally-unique-with-overwhelming-
// probability identifier, used wherever the wire protocol requires a
// freshly generated id (message ids, task ids, JSON-RPC request ids).
func NewID() string {
	return uuid.NewString()
}
