package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/fatih/color"
)

var (
	cmdLogColor  = color.New(color.FgYellow)
	noteLogColor = color.New(color.FgYellow)
)

// handleCommand processes prefixed administrative commands. It runs
// only for messages the router handed back.
func (b *Bot) handleCommand(m *discordgo.Message) {
	prefix := b.router.prefixFor(m.GuildID)
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, prefix) {
		return
	}

	args := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(args) == 0 {
		return
	}

	if b.store.LoggerEnabled() {
		cmdLogColor.Printf("[CMD] %s (%s) used '%s' in guild %s\n",
			m.Author.Username, m.Author.ID, content, m.GuildID)
	}

	command := strings.ToLower(args[0])
	args = args[1:]

	switch command {
	case "help":
		b.handleHelpCommand(m, prefix)
	case "setprefix":
		b.handleSetPrefixCommand(m, prefix, args)
	case "whitelist":
		b.handleWhitelistCommand(m, args)
	case "pinging":
		b.handlePingingCommand(m, args)
	case "pause":
		b.handleOwnerCommand(m, func() error { return b.store.Pause(m.GuildID) }, "Bot paused in this server.")
	case "resume":
		b.handleOwnerCommand(m, func() error { return b.store.Resume(m.GuildID) }, "Bot resumed in this server.")
	case "block":
		b.handleBlockCommand(m, args, true)
	case "unblock":
		b.handleBlockCommand(m, args, false)
	case "logger":
		b.handleLoggerCommand(m, args)
	}
}

func (b *Bot) handleHelpCommand(m *discordgo.Message, prefix string) {
	helpText := fmt.Sprintf("## 🤖 %s Help\n\n"+
		"*AI chat, image generation, and web search, right in your server!*\n\n"+
		"### ✨ Talking to the bot\n"+
		"• Mention my name in a message and I'll answer\n"+
		"• `@%s activate` — respond to **every** message in this channel (admin)\n"+
		"• `@%s deactivate` — back to normal mode (admin)\n"+
		"• `@%s wack` — clear my short-term memory for this server (admin)\n\n"+
		"### 🎨 Image features\n"+
		"• Ask me to draw something — I'll generate an image\n"+
		"• Attach an image and describe an edit — I'll edit it\n"+
		"• Attach 2+ images and say merge — I'll combine them\n"+
		"• Attach an image with no request — I'll describe it\n\n"+
		"### 🔧 Admin Commands\n"+
		"`%ssetprefix <prefix>` — change the bot prefix (≤5 chars)\n"+
		"`%swhitelist add/remove/list [#channel]` — manage allowed channels\n"+
		"`%spinging on/off` — toggle reply pings",
		capitalize(b.cfg.BotName), b.cfg.BotName, b.cfg.BotName, b.cfg.BotName,
		prefix, prefix, prefix)

	if _, err := b.platform.SendText(m.ChannelID, helpText, nil, false); err != nil {
		fmt.Printf("Warning: failed to send help: %v\n", err)
	}
}

func (b *Bot) handleSetPrefixCommand(m *discordgo.Message, prefix string, args []string) {
	if m.GuildID == "" {
		return
	}
	if !b.isAdmin(m) {
		b.sendPlain(m, "You need administrator permissions to change the prefix.")
		return
	}

	if len(args) == 0 {
		b.sendPlain(m, fmt.Sprintf("Current prefix: `%s`\nUse `%ssetprefix <new_prefix>` to change it.", prefix, prefix))
		return
	}

	newPrefix := args[0]
	if len(newPrefix) > 5 {
		b.sendPlain(m, "Prefix must be 5 characters or less.")
		return
	}

	if err := b.store.SetPrefix(m.GuildID, newPrefix); err != nil {
		b.sendPlain(m, fmt.Sprintf("Failed to save prefix: %v", err))
		return
	}

	b.sendPlain(m, fmt.Sprintf("Prefix has been set to `%s` for this server.", newPrefix))

	if b.store.LoggerEnabled() {
		noteLogColor.Printf("[LOG] %s (%s) set prefix to '%s' in guild %s\n",
			m.Author.Username, m.Author.ID, newPrefix, m.GuildID)
	}
}

func (b *Bot) handleWhitelistCommand(m *discordgo.Message, args []string) {
	if m.GuildID == "" {
		return
	}
	if !b.isAdmin(m) {
		b.sendPlain(m, "You need administrator permissions to manage the whitelist.")
		return
	}
	if len(args) == 0 {
		b.sendPlain(m, "Usage: `whitelist add/remove <#channel>` or `whitelist list`")
		return
	}

	switch strings.ToLower(args[0]) {
	case "list":
		channels := b.store.Whitelist(m.GuildID)
		if len(channels) == 0 {
			b.sendPlain(m, "No channels whitelisted.")
			return
		}
		mentions := make([]string, len(channels))
		for i, ch := range channels {
			mentions[i] = channelMention(ch)
		}
		b.sendPlain(m, strings.Join(mentions, ", "))
	case "add", "remove":
		channelID := m.ChannelID
		if len(args) > 1 {
			channelID = parseChannelMention(args[1])
		}
		if channelID == "" {
			b.sendPlain(m, "Could not parse the channel. Mention it like `#general`.")
			return
		}

		var err error
		var verb string
		if args[0] == "add" {
			err = b.store.AddWhitelistChannel(m.GuildID, channelID)
			verb = "added to"
		} else {
			err = b.store.RemoveWhitelistChannel(m.GuildID, channelID)
			verb = "removed from"
		}
		if err != nil {
			b.sendPlain(m, fmt.Sprintf("Failed to update whitelist: %v", err))
			return
		}
		b.sendPlain(m, fmt.Sprintf("%s %s the whitelist.", channelMention(channelID), verb))
	default:
		b.sendPlain(m, "Usage: `whitelist add/remove <#channel>` or `whitelist list`")
	}
}

func (b *Bot) handlePingingCommand(m *discordgo.Message, args []string) {
	if m.GuildID == "" {
		return
	}
	if !b.isAdmin(m) {
		b.sendPlain(m, "You need administrator permissions to change pinging.")
		return
	}
	if len(args) == 0 {
		state := "on"
		if !b.store.PingEnabled(m.GuildID) {
			state = "off"
		}
		b.sendPlain(m, fmt.Sprintf("Reply pinging is currently **%s**.", state))
		return
	}

	enabled := strings.ToLower(args[0]) == "on"
	if err := b.store.SetPingEnabled(m.GuildID, enabled); err != nil {
		b.sendPlain(m, fmt.Sprintf("Failed to update pinging: %v", err))
		return
	}
	state := "off"
	if enabled {
		state = "on"
	}
	b.sendPlain(m, fmt.Sprintf("Reply pinging is now **%s**.", state))
}

func (b *Bot) handleOwnerCommand(m *discordgo.Message, action func() error, confirmation string) {
	if m.Author.ID != b.cfg.OwnerID {
		return
	}
	if m.GuildID == "" {
		return
	}
	if err := action(); err != nil {
		b.sendPlain(m, fmt.Sprintf("Failed: %v", err))
		return
	}
	b.sendPlain(m, confirmation)
}

func (b *Bot) handleBlockCommand(m *discordgo.Message, args []string, block bool) {
	if m.Author.ID != b.cfg.OwnerID {
		return
	}
	if len(args) == 0 {
		b.sendPlain(m, "Mention the user or give their ID.")
		return
	}

	userID := parseUserMention(args[0])
	if userID == "" {
		b.sendPlain(m, "Could not parse the user.")
		return
	}

	var err error
	var verb string
	if block {
		err = b.store.Block(userID)
		verb = "blocked"
	} else {
		err = b.store.Unblock(userID)
		verb = "unblocked"
	}
	if err != nil {
		b.sendPlain(m, fmt.Sprintf("Failed: %v", err))
		return
	}
	b.sendPlain(m, fmt.Sprintf("User <@%s> %s.", userID, verb))
}

func (b *Bot) handleLoggerCommand(m *discordgo.Message, args []string) {
	if m.Author.ID != b.cfg.OwnerID {
		return
	}
	if len(args) == 0 {
		return
	}
	enabled := strings.ToLower(args[0]) == "on"
	if err := b.store.SetLoggerEnabled(enabled); err != nil {
		b.sendPlain(m, fmt.Sprintf("Failed: %v", err))
		return
	}
	state := "off"
	if enabled {
		state = "on"
	}
	b.sendPlain(m, fmt.Sprintf("Command logger is now **%s**.", state))
}

func (b *Bot) isAdmin(m *discordgo.Message) bool {
	if m.Author.ID == b.cfg.OwnerID {
		return true
	}
	isAdmin, err := b.platform.IsAdmin(m.GuildID, m.ChannelID, m.Author.ID)
	if err != nil {
		return false
	}
	return isAdmin
}

func (b *Bot) sendPlain(m *discordgo.Message, content string) {
	if _, err := b.platform.SendText(m.ChannelID, content, nil, false); err != nil {
		fmt.Printf("Warning: failed to send message: %v\n", err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseChannelMention(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, "<#"), ">")
	if s == "" || strings.ContainsAny(s, "<>@&!") {
		return ""
	}
	return s
}

func parseUserMention(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "<@"), "!")
	s = strings.TrimSuffix(s, ">")
	if s == "" || strings.ContainsAny(s, "<>@&#") {
		return ""
	}
	return s
}
