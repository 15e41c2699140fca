package core

import (
	"github.com/google/uuid"
)

// IdentifierAcquire returns a unique identity for a GPU-side object, used in
// debug names and log lines so resources can be correlated across rebuilds.
func IdentifierAcquire() string {
	return uuid.NewString()
}
