package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationList tracks credentials invalidated before their natural
// expiry (logout, password change). Entries are pruned once the token's
// own expiry passes, so the set stays bounded by the number of tokens
// revoked within one expiration window.
type RevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		revoked: make(map[string]time.Time),
	}
}

// Revoke marks the credential as invalid until expiresAt, after which the
// token rejects itself and the entry is dropped.
func (l *RevocationList) Revoke(token string, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(time.Now())
	l.revoked[token] = expiresAt
}

func (l *RevocationList) IsRevoked(token string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	expiresAt, ok := l.revoked[token]
	if !ok {
		return false
	}
	// An entry past its token's expiry no longer matters; the expiry
	// check rejects the token on its own.
	return time.Now().Before(expiresAt)
}

// Len reports the number of live revocation entries.
func (l *RevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.revoked)
}

// StartSweeper prunes expired entries on the given interval until ctx is
// cancelled.
func (l *RevocationList) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.mu.Lock()
				l.pruneLocked(now)
				l.mu.Unlock()
			}
		}
	}()
}

func (l *RevocationList) pruneLocked(now time.Time) {
	for token, expiresAt := range l.revoked {
		if !now.Before(expiresAt) {
			delete(l.revoked, token)
		}
	}
}
