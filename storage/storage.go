// Package storage handles persistent storage for bot settings and prefixes
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings represents the bot settings stored in the JSON file
type Settings struct {
	Logger         bool                `json:"logger"`
	Paused         []string            `json:"paused"`
	Blocked        []string            `json:"blocked"`
	ImgURLEnabled  bool                `json:"imgurl_enabled"`
	PingingEnabled map[string]bool     `json:"pinging_enabled"`
	Whitelist      map[string][]string `json:"whitelist"`
}

func defaultSettings() Settings {
	return Settings{
		Paused:         []string{},
		Blocked:        []string{},
		PingingEnabled: map[string]bool{},
		Whitelist:      map[string][]string{},
	}
}

// Store handles persistent storage of bot settings and custom prefixes.
// All reads hit the in-memory copy; every mutation writes through to disk.
type Store struct {
	settingsFile string
	prefixFile   string
	settings     Settings
	prefixes     map[string]string
	mutex        sync.RWMutex
}

// New creates a new Store instance, loading existing files or creating
// them with defaults.
func New(settingsFile, prefixFile string) (*Store, error) {
	s := &Store{
		settingsFile: settingsFile,
		prefixFile:   prefixFile,
		settings:     defaultSettings(),
		prefixes:     map[string]string{},
	}

	if err := s.loadSettings(); err != nil {
		if os.IsNotExist(err) {
			if err := s.saveSettings(); err != nil {
				return nil, fmt.Errorf("failed to create settings file: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
	}

	if err := s.loadPrefixes(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load prefixes: %w", err)
	}

	return s, nil
}

// Reload re-reads settings and prefixes from disk. Missing files are
// not an error; the in-memory state is kept as-is for them.
func (s *Store) Reload() error {
	if err := s.loadSettings(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reload settings: %w", err)
	}
	if err := s.loadPrefixes(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reload prefixes: %w", err)
	}
	return nil
}

func (s *Store) loadSettings() error {
	data, err := os.ReadFile(s.settingsFile)
	if err != nil {
		return err
	}

	settings := defaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if settings.PingingEnabled == nil {
		settings.PingingEnabled = map[string]bool{}
	}
	if settings.Whitelist == nil {
		settings.Whitelist = map[string][]string{}
	}

	s.mutex.Lock()
	s.settings = settings
	s.mutex.Unlock()

	return nil
}

func (s *Store) loadPrefixes() error {
	data, err := os.ReadFile(s.prefixFile)
	if err != nil {
		return err
	}

	prefixes := map[string]string{}
	if err := json.Unmarshal(data, &prefixes); err != nil {
		return fmt.Errorf("failed to unmarshal prefixes: %w", err)
	}

	s.mutex.Lock()
	s.prefixes = prefixes
	s.mutex.Unlock()

	return nil
}

func (s *Store) saveSettings() error {
	s.mutex.RLock()
	data, err := json.MarshalIndent(s.settings, "", "  ")
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return writeFile(s.settingsFile, data)
}

func (s *Store) savePrefixes() error {
	s.mutex.RLock()
	data, err := json.MarshalIndent(s.prefixes, "", "  ")
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal prefixes: %w", err)
	}
	return writeFile(s.prefixFile, data)
}

func writeFile(filename string, data []byte) error {
	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// IsBlocked reports whether the user is globally blocked.
func (s *Store) IsBlocked(userID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return contains(s.settings.Blocked, userID)
}

// Block adds a user to the global block list.
func (s *Store) Block(userID string) error {
	s.mutex.Lock()
	if !contains(s.settings.Blocked, userID) {
		s.settings.Blocked = append(s.settings.Blocked, userID)
	}
	s.mutex.Unlock()
	return s.saveSettings()
}

// Unblock removes a user from the global block list.
func (s *Store) Unblock(userID string) error {
	s.mutex.Lock()
	s.settings.Blocked = remove(s.settings.Blocked, userID)
	s.mutex.Unlock()
	return s.saveSettings()
}

// IsPaused reports whether the bot is paused in the given guild.
func (s *Store) IsPaused(guildID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return contains(s.settings.Paused, guildID)
}

// Pause marks the bot as inactive in the given guild.
func (s *Store) Pause(guildID string) error {
	s.mutex.Lock()
	if !contains(s.settings.Paused, guildID) {
		s.settings.Paused = append(s.settings.Paused, guildID)
	}
	s.mutex.Unlock()
	return s.saveSettings()
}

// Resume removes the pause for the given guild.
func (s *Store) Resume(guildID string) error {
	s.mutex.Lock()
	s.settings.Paused = remove(s.settings.Paused, guildID)
	s.mutex.Unlock()
	return s.saveSettings()
}

// Whitelist returns the whitelisted channel IDs for a guild. An empty
// result means the guild is unrestricted.
func (s *Store) Whitelist(guildID string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	channels := s.settings.Whitelist[guildID]
	out := make([]string, len(channels))
	copy(out, channels)
	return out
}

// AddWhitelistChannel adds a channel to the guild's whitelist.
func (s *Store) AddWhitelistChannel(guildID, channelID string) error {
	s.mutex.Lock()
	if !contains(s.settings.Whitelist[guildID], channelID) {
		s.settings.Whitelist[guildID] = append(s.settings.Whitelist[guildID], channelID)
	}
	s.mutex.Unlock()
	return s.saveSettings()
}

// RemoveWhitelistChannel removes a channel from the guild's whitelist.
func (s *Store) RemoveWhitelistChannel(guildID, channelID string) error {
	s.mutex.Lock()
	s.settings.Whitelist[guildID] = remove(s.settings.Whitelist[guildID], channelID)
	if len(s.settings.Whitelist[guildID]) == 0 {
		delete(s.settings.Whitelist, guildID)
	}
	s.mutex.Unlock()
	return s.saveSettings()
}

// PingEnabled reports whether replies in the guild should ping the
// author. Defaults to true when the guild has no explicit setting.
func (s *Store) PingEnabled(guildID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	enabled, ok := s.settings.PingingEnabled[guildID]
	if !ok {
		return true
	}
	return enabled
}

// SetPingEnabled sets the guild's ping-on-reply preference.
func (s *Store) SetPingEnabled(guildID string, enabled bool) error {
	s.mutex.Lock()
	s.settings.PingingEnabled[guildID] = enabled
	s.mutex.Unlock()
	return s.saveSettings()
}

// LoggerEnabled reports whether the command logger is enabled.
func (s *Store) LoggerEnabled() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.settings.Logger
}

// SetLoggerEnabled toggles the command logger.
func (s *Store) SetLoggerEnabled(enabled bool) error {
	s.mutex.Lock()
	s.settings.Logger = enabled
	s.mutex.Unlock()
	return s.saveSettings()
}

// Prefix returns the custom prefix for a guild, if one is set.
func (s *Store) Prefix(guildID string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	prefix, ok := s.prefixes[guildID]
	return prefix, ok
}

// SetPrefix sets a custom prefix for the guild. Prefixes are limited
// to 5 characters.
func (s *Store) SetPrefix(guildID, prefix string) error {
	if len(prefix) > 5 {
		return fmt.Errorf("prefix must be 5 characters or less")
	}

	s.mutex.Lock()
	s.prefixes[guildID] = prefix
	s.mutex.Unlock()
	return s.savePrefixes()
}

// Save writes both documents to disk.
func (s *Store) Save() error {
	if err := s.saveSettings(); err != nil {
		return err
	}
	return s.savePrefixes()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
