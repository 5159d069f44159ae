// Package ledgerid centralizes process-unique id generation so every
// component mints ids the same way the teacher's wallet and economics
// packages do ad hoc (uuid.New().String()).
package ledgerid

import "github.com/google/uuid"

// New returns a fresh process-unique identifier.
func New() string {
	return uuid.New().String()
}
