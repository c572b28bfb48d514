// Package withdrawal runs the payout pipeline: guides request disbursements
// against their earned balance, the gateway or an admin resolves them.
package withdrawal

import (
	"fmt"
	"sync"
	"time"
)

// guideLocks serializes the validate-then-insert-then-submit window per
// guide. In-process only: running multiple instances requires moving this
// guard into the database.
type guideLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newGuideLocks() *guideLocks {
	return &guideLocks{locks: make(map[int64]*sync.Mutex)}
}

func (g *guideLocks) forGuide(guideID int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[guideID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[guideID] = lock
	}
	return lock
}

// GenerateReferenceNumber builds the disbursement reference sent to the
// payout API.
func GenerateReferenceNumber(withdrawalID int64, now time.Time) string {
	return fmt.Sprintf("WD-%d-%d", now.Unix(), withdrawalID)
}
