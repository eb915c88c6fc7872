package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique, opaque run identifier.
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
