// Package memory holds short-term conversation memory and per-channel
// activation state
package memory

import (
	"fmt"
	"sync"
)

const maxHistory = 40

// Message is a single remembered conversation turn.
type Message struct {
	Role    string
	Content string
}

// Memory tracks which channels are fully activated and the short-term
// conversation history per guild/channel pair.
type Memory struct {
	mutex  sync.RWMutex
	active map[string]bool
	stm    map[string][]Message
}

// New creates an empty Memory.
func New() *Memory {
	return &Memory{
		active: make(map[string]bool),
		stm:    make(map[string][]Message),
	}
}

// Key builds the short-term-memory key for a guild/channel pair.
func Key(guildID, channelID string) string {
	return fmt.Sprintf("%s_%s", guildID, channelID)
}

// IsChannelActive reports whether the bot responds to every message in
// the channel.
func (m *Memory) IsChannelActive(channelID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.active[channelID]
}

// ActivateChannel marks a channel as fully active. Idempotent.
func (m *Memory) ActivateChannel(channelID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.active[channelID] = true
}

// DeactivateChannel clears the channel's active flag. Idempotent.
func (m *Memory) DeactivateChannel(channelID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.active, channelID)
}

// HasEntry reports whether any short-term memory exists for the key.
func (m *Memory) HasEntry(key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.stm[key]
	return ok
}

// Append records a conversation turn, trimming the oldest turns once
// the history exceeds the cap.
func (m *Memory) Append(key, role, content string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	history := append(m.stm[key], Message{Role: role, Content: content})
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	m.stm[key] = history
}

// History returns a copy of the remembered turns for the key.
func (m *Memory) History(key string) []Message {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	history := m.stm[key]
	out := make([]Message, len(history))
	copy(out, history)
	return out
}

// Reset clears the short-term memory entry for the key. Channel
// activation is left untouched.
func (m *Memory) Reset(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.stm, key)
}
