package bankapi

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewReference formats a reference id as prefix + timestamp + uuid fragment,
// e.g. REF20260831143015A1B2C3D4.
func NewReference(prefix string) string {
	ts := time.Now().UTC().Format("20060102150405")
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + ts + frag
}

// NewDisputeID mints the customer-facing dispute identifier.
func NewDisputeID() string {
	return NewReference("DSP")
}
