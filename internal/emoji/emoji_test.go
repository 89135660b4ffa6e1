package emoji

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testPool = []string{"🎓", "📚", "🚀"}

func TestAssign_PreferredWhenFree(t *testing.T) {
	got := Assign(testPool, "🚀", map[string]bool{"🎓": true})
	assert.Equal(t, "🚀", got)
}

func TestAssign_PreferredTakenFallsToPool(t *testing.T) {
	got := Assign(testPool, "🎓", map[string]bool{"🎓": true})
	assert.Equal(t, "📚", got)
}

func TestAssign_NoPreference(t *testing.T) {
	got := Assign(testPool, "", map[string]bool{"🎓": true, "📚": true})
	assert.Equal(t, "🚀", got)
}

func TestAssign_PoolExhausted(t *testing.T) {
	taken := map[string]bool{"🎓": true, "📚": true, "🚀": true}
	got := Assign(testPool, "", taken)
	assert.NotContains(t, testPool, got)
	assert.Equal(t, "🎓3", got)
}

func TestAssign_EmptyTaken(t *testing.T) {
	got := Assign(testPool, "", nil)
	assert.Equal(t, "🎓", got)
}

func TestCandidates_PreferredFirstNoDuplicates(t *testing.T) {
	got := Candidates(testPool, "📚", 5)
	assert.Equal(t, []string{"📚", "🎓", "🚀", "🎓5"}, got)
}

func TestCandidates_WithoutPreference(t *testing.T) {
	got := Candidates(testPool, "", 0)
	assert.Equal(t, []string{"🎓", "📚", "🚀", "🎓0"}, got)
}
