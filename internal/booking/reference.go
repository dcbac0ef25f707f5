package booking

import (
	"strings"

	"github.com/google/uuid"
)

// newBookingReference generates a human-readable booking reference of
// the form "BKG" plus eight uppercase hex characters drawn from a
// random UUID.  With 32 random bits the chance of a collision across
// a realistic ledger is negligible; the column's unique constraint is
// the final guard.
func newBookingReference() string {
	return "BKG" + strings.ToUpper(uuid.NewString()[:8])
}
