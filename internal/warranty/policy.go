package warranty

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const policyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewPolicyNumber returns a policy number of the form POL-<ms>-<9 chars>,
// where the suffix is upper-case base36.
func NewPolicyNumber(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = policyAlphabet[rand.IntN(len(policyAlphabet))]
	}
	return fmt.Sprintf("POL-%d-%s", now.UnixMilli(), suffix)
}

// ExpireIfLapsed persists the EXPIRED status of an active warranty whose end
// date has passed, updating w in place. It reports whether w is expired.
func ExpireIfLapsed(ctx context.Context, repo Repository, w *Warranty, now time.Time) (bool, error) {
	if w.Status == StatusExpired {
		return true, nil
	}
	if !w.HasLapsed(now) {
		return false, nil
	}
	if err := repo.UpdateStatus(ctx, w.ID, StatusExpired, now); err != nil {
		return false, fmt.Errorf("expire warranty: %w", err)
	}
	w.Status = StatusExpired
	w.UpdatedAt = now
	return true, nil
}
