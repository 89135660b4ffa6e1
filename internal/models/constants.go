package models

import "time"

const (
	// DateMode fixes whose dates and special periods feed the stats
	// calculator. The service runs in per-user mode: every user tracks
	// their own start/deadline and periods, completion is per-user too.
	DateModePerUser = "per_user"
	DateModeGlobal  = "global"

	// DefaultEmoji is assigned when the pool offers nothing better.
	DefaultEmoji = "🎓"

	// ReminderWeekday and ReminderHour define the default weekly sweep
	// trigger (Sunday evening, before the week closes).
	ReminderWeekday = time.Sunday
	ReminderHour    = 18

	// ReminderSendTimeout caps a single reminder dispatch so one slow
	// recipient cannot stall the sweep.
	ReminderSendTimeout = 10 * time.Second

	// DefaultStateTTL is the lifetime of a pending bot conversation step.
	DefaultStateTTL = 24 * time.Hour

	// RateLimitMessages / RateLimitWindow bound bot message throughput per chat.
	RateLimitMessages = 20
	RateLimitWindow   = 60 * time.Second

	// DaysPerWeek is the divisor for converting counted days into weeks.
	DaysPerWeek = 7
)

// DefaultEmojiPool is the ordered set of symbols handed out at registration.
var DefaultEmojiPool = []string{
	"🎓", "📚", "✏️", "🔬", "🧠", "💡", "🚀", "🌟", "🔥", "🏆",
	"🎯", "⚡", "🌈", "🦉", "🐝", "🌻", "🍀", "🎨", "🎸", "🧩",
}
