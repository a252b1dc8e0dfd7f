package bot

import (
	"path/filepath"
	"testing"

	"gachabot/memory"
	"gachabot/metadata"
	"gachabot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommandBot(t *testing.T) (*Bot, *fakePlatform) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.New(filepath.Join(dir, "settings.json"), filepath.Join(dir, "prefix.json"))
	require.NoError(t, err)

	platform := &fakePlatform{}
	b := &Bot{
		cfg:      Config{OwnerID: "owner", BotName: "gacha", DefaultPrefix: "+"},
		store:    store,
		memory:   memory.New(),
		metadata: metadata.New(),
		platform: platform,
		router: &Router{
			Settings:      store,
			Platform:      platform,
			OwnerID:       "owner",
			BotName:       "gacha",
			DefaultPrefix: "+",
		},
		knownGuilds: map[string]bool{},
	}
	return b, platform
}

func TestHandleCommandIgnoresUnprefixedMessages(t *testing.T) {
	b, platform := newCommandBot(t)
	b.handleCommand(guildMessage("user1", "just chatting"))
	assert.Empty(t, platform.texts)
}

func TestHelpCommand(t *testing.T) {
	b, platform := newCommandBot(t)
	b.handleCommand(guildMessage("user1", "+help"))

	require.Len(t, platform.texts, 1)
	assert.Contains(t, platform.texts[0].content, "Help")
	assert.Contains(t, platform.texts[0].content, "+setprefix")
}

func TestSetPrefixCommand(t *testing.T) {
	b, platform := newCommandBot(t)
	b.handleCommand(guildMessage("owner", "+setprefix !"))

	prefix, ok := b.store.Prefix("guild1")
	require.True(t, ok)
	assert.Equal(t, "!", prefix)
	require.Len(t, platform.texts, 1)
	assert.Contains(t, platform.texts[0].content, "`!`")

	// Commands now use the custom prefix.
	b.handleCommand(guildMessage("user1", "!help"))
	assert.Len(t, platform.texts, 2)
}

func TestSetPrefixRejectsLongPrefix(t *testing.T) {
	b, platform := newCommandBot(t)
	b.handleCommand(guildMessage("owner", "+setprefix toolong"))

	_, ok := b.store.Prefix("guild1")
	assert.False(t, ok)
	require.Len(t, platform.texts, 1)
	assert.Contains(t, platform.texts[0].content, "5 characters")
}

func TestSetPrefixRequiresAdmin(t *testing.T) {
	b, platform := newCommandBot(t)
	platform.admin = false
	b.handleCommand(guildMessage("user1", "+setprefix !"))

	_, ok := b.store.Prefix("guild1")
	assert.False(t, ok)
	require.Len(t, platform.texts, 1)
	assert.Contains(t, platform.texts[0].content, "administrator permissions")
}

func TestWhitelistCommand(t *testing.T) {
	b, platform := newCommandBot(t)

	// No channel argument defaults to the current channel.
	b.handleCommand(guildMessage("owner", "+whitelist add"))
	assert.Equal(t, []string{"chan1"}, b.store.Whitelist("guild1"))

	b.handleCommand(guildMessage("owner", "+whitelist add <#chan9>"))
	assert.Equal(t, []string{"chan1", "chan9"}, b.store.Whitelist("guild1"))

	b.handleCommand(guildMessage("owner", "+whitelist list"))
	assert.Contains(t, platform.texts[len(platform.texts)-1].content, "<#chan1>")

	b.handleCommand(guildMessage("owner", "+whitelist remove <#chan9>"))
	b.handleCommand(guildMessage("owner", "+whitelist remove"))
	assert.Empty(t, b.store.Whitelist("guild1"))
}

func TestPingingCommand(t *testing.T) {
	b, platform := newCommandBot(t)

	b.handleCommand(guildMessage("owner", "+pinging off"))
	assert.False(t, b.store.PingEnabled("guild1"))

	b.handleCommand(guildMessage("owner", "+pinging"))
	assert.Contains(t, platform.texts[len(platform.texts)-1].content, "off")

	b.handleCommand(guildMessage("owner", "+pinging on"))
	assert.True(t, b.store.PingEnabled("guild1"))
}

func TestPauseResumeOwnerOnly(t *testing.T) {
	b, platform := newCommandBot(t)

	// Non-owners are silently ignored, even admins.
	platform.admin = true
	b.handleCommand(guildMessage("user1", "+pause"))
	assert.False(t, b.store.IsPaused("guild1"))
	assert.Empty(t, platform.texts)

	b.handleCommand(guildMessage("owner", "+pause"))
	assert.True(t, b.store.IsPaused("guild1"))

	b.handleCommand(guildMessage("owner", "+resume"))
	assert.False(t, b.store.IsPaused("guild1"))
}

func TestBlockCommand(t *testing.T) {
	b, platform := newCommandBot(t)

	b.handleCommand(guildMessage("user1", "+block <@123>"))
	assert.False(t, b.store.IsBlocked("123"))
	assert.Empty(t, platform.texts)

	b.handleCommand(guildMessage("owner", "+block <@123>"))
	assert.True(t, b.store.IsBlocked("123"))

	// Bare IDs work as well as mentions.
	b.handleCommand(guildMessage("owner", "+unblock 123"))
	assert.False(t, b.store.IsBlocked("123"))
}

func TestLoggerCommand(t *testing.T) {
	b, _ := newCommandBot(t)

	b.handleCommand(guildMessage("owner", "+logger on"))
	assert.True(t, b.store.LoggerEnabled())

	b.handleCommand(guildMessage("owner", "+logger off"))
	assert.False(t, b.store.LoggerEnabled())
}

func TestParseChannelMention(t *testing.T) {
	assert.Equal(t, "123", parseChannelMention("<#123>"))
	assert.Equal(t, "123", parseChannelMention("123"))
	assert.Empty(t, parseChannelMention("<@&123>"))
	assert.Empty(t, parseChannelMention(""))
}

func TestParseUserMention(t *testing.T) {
	assert.Equal(t, "42", parseUserMention("<@42>"))
	assert.Equal(t, "42", parseUserMention("<@!42>"))
	assert.Equal(t, "42", parseUserMention("42"))
	assert.Empty(t, parseUserMention("<#42>"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Gacha", capitalize("gacha"))
	assert.Equal(t, "", capitalize(""))
}
