// Package gate implements the access-control checks run before any
// response logic
package gate

import "time"

// Reason describes why access was denied.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonBlocked
	ReasonPaused
	ReasonNotWhitelisted
)

// String returns a short human-readable label for the reason.
func (r Reason) String() string {
	switch r {
	case ReasonBlocked:
		return "blocked"
	case ReasonPaused:
		return "paused"
	case ReasonNotWhitelisted:
		return "not whitelisted"
	default:
		return "allowed"
	}
}

// Result is the outcome of one gate evaluation. Denied results carry
// a suggested display lifetime for the ephemeral notice.
type Result struct {
	Allowed     bool
	Reason      Reason
	DeleteAfter time.Duration
}

// Store is the slice of settings state the gate consults.
type Store interface {
	Reload() error
	IsBlocked(userID string) bool
	IsPaused(guildID string) bool
	Whitelist(guildID string) []string
}

// Gate evaluates block, pause, and whitelist state for inbound
// messages.
type Gate struct {
	store Store
}

// New creates a Gate backed by the given store.
func New(store Store) *Gate {
	return &Gate{store: store}
}

// Evaluate decides whether the bot may respond to a message from
// authorID in the given guild and channel. Direct messages (empty
// guildID) bypass every check. Settings are re-read from the backing
// store first so administrative changes take effect immediately.
func (g *Gate) Evaluate(authorID, guildID, channelID string) Result {
	if guildID == "" {
		return Result{Allowed: true}
	}

	// A failed reload falls back to the last known state.
	_ = g.store.Reload()

	if g.store.IsBlocked(authorID) {
		return Result{Reason: ReasonBlocked, DeleteAfter: 15 * time.Second}
	}

	if g.store.IsPaused(guildID) {
		return Result{Reason: ReasonPaused, DeleteAfter: 30 * time.Second}
	}

	whitelist := g.store.Whitelist(guildID)
	if len(whitelist) > 0 && !containsChannel(whitelist, channelID) {
		return Result{Reason: ReasonNotWhitelisted, DeleteAfter: 30 * time.Second}
	}

	return Result{Allowed: true}
}

func containsChannel(channels []string, channelID string) bool {
	for _, ch := range channels {
		if ch == channelID {
			return true
		}
	}
	return false
}
