// Package common holds small helpers shared by the kyc, vault and property
// engines that do not belong to any single contract's domain model.
package common

import (
	"errors"
	"sync"
)

// ErrReentrant is returned when a caller re-enters an engine method while a
// prior call on the same instance has not yet released its guard.
var ErrReentrant = errors.New("native: reentrant call rejected")

// ReentrancyGuard is a per-engine-instance fallback for host runtimes that do
// not themselves forbid synchronous reentry into a contract already on the
// call stack (see the concurrency model's reentrancy note). It is deliberately
// advisory rather than a correctness mechanism for concurrent callers: engines
// are not safe for concurrent use against the same persistence handle
// regardless of whether this guard is held.
type ReentrancyGuard struct {
	mu sync.Mutex
}

// Enter acquires the guard and returns a release function. If the guard is
// already held it returns ErrReentrant and a nil release function.
func (g *ReentrancyGuard) Enter() (func(), error) {
	if g == nil {
		return func() {}, nil
	}
	if !g.mu.TryLock() {
		return nil, ErrReentrant
	}
	return g.mu.Unlock, nil
}
