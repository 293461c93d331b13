package claim

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewProtocolNumber returns a claim protocol number: "SGR", the millisecond
// epoch padded to 13 digits and a 3-digit random suffix.
func NewProtocolNumber(now time.Time) string {
	return fmt.Sprintf("SGR%013d%03d", now.UnixMilli(), rand.IntN(1000))
}
