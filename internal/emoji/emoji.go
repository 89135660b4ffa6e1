// Package emoji picks a unique display symbol for each active user.
//
// Selection itself is pure; uniqueness under concurrent registration is
// enforced by the store's unique index, with the caller retrying on
// conflict (see service.UserService.Register).
package emoji

import (
	"fmt"

	"weeksuntil/internal/models"
)

// Assign returns a symbol for a new user. A preferred unused symbol wins;
// otherwise the first free pool entry is used. When the whole pool is
// taken, a fallback combining the base symbol with the active-user count
// is synthesized, so assignment never fails.
func Assign(pool []string, preferred string, taken map[string]bool) string {
	if len(pool) == 0 {
		pool = models.DefaultEmojiPool
	}

	if preferred != "" && !taken[preferred] {
		return preferred
	}

	for _, symbol := range pool {
		if !taken[symbol] {
			return symbol
		}
	}

	return Fallback(len(taken))
}

// Fallback synthesizes a symbol guaranteed to miss the fixed pool.
func Fallback(activeUsers int) string {
	return fmt.Sprintf("%s%d", models.DefaultEmoji, activeUsers)
}

// Candidates returns the retry order for a registration attempt: the
// preferred symbol first (if any), then the pool, then the synthesized
// fallback. Used by the conflict-retry loop at the call site.
func Candidates(pool []string, preferred string, activeUsers int) []string {
	if len(pool) == 0 {
		pool = models.DefaultEmojiPool
	}
	out := make([]string, 0, len(pool)+2)
	if preferred != "" {
		out = append(out, preferred)
	}
	for _, symbol := range pool {
		if symbol != preferred {
			out = append(out, symbol)
		}
	}
	return append(out, Fallback(activeUsers))
}
