// Package bot wires the Discord session to the message router and the
// AI capabilities
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gachabot/ai"
	"gachabot/gate"
	"gachabot/memory"
	"gachabot/metadata"
	"gachabot/storage"

	"github.com/bwmarrin/discordgo"
)

const botStatus = "your messages"

// Config holds everything needed to construct a Bot.
type Config struct {
	Token         string
	OwnerID       string
	BotName       string
	DefaultPrefix string
	SettingsFile  string
	PrefixFile    string
	AI            ai.Config
}

// Bot represents the Discord bot
type Bot struct {
	cfg      Config
	session  *discordgo.Session
	store    *storage.Store
	memory   *memory.Memory
	metadata *metadata.Store
	platform Platform
	router   *Router

	guildMutex  sync.Mutex
	knownGuilds map[string]bool
}

// New creates a new bot instance
func New(cfg Config) (*Bot, error) {
	if cfg.BotName == "" {
		cfg.BotName = "gacha"
	}
	cfg.BotName = strings.ToLower(cfg.BotName)
	if cfg.DefaultPrefix == "" {
		cfg.DefaultPrefix = "+"
	}
	if cfg.SettingsFile == "" {
		cfg.SettingsFile = "settings.json"
	}
	if cfg.PrefixFile == "" {
		cfg.PrefixFile = "config/prefix.json"
	}

	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent | discordgo.IntentsGuilds

	store, err := storage.New(cfg.SettingsFile, cfg.PrefixFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mem := memory.New()
	meta := metadata.New()
	platform := newSessionPlatform(dg)

	bot := &Bot{
		cfg:         cfg,
		session:     dg,
		store:       store,
		memory:      mem,
		metadata:    meta,
		platform:    platform,
		knownGuilds: make(map[string]bool),
	}

	bot.router = &Router{
		Gate:          gate.New(store),
		Settings:      store,
		Memory:        mem,
		Metadata:      meta,
		AI:            ai.NewClient(cfg.AI),
		Platform:      platform,
		OwnerID:       cfg.OwnerID,
		BotName:       cfg.BotName,
		DefaultPrefix: cfg.DefaultPrefix,
	}

	dg.AddHandler(bot.readyHandler)
	dg.AddHandler(bot.messageHandler)
	dg.AddHandler(bot.guildCreateHandler)

	return bot, nil
}

// Start opens the websocket connection
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	return nil
}

// Stop saves settings and closes the websocket connection
func (b *Bot) Stop(ctx context.Context) error {
	if err := b.store.Save(); err != nil {
		fmt.Printf("Warning: failed to save settings: %v\n", err)
	}
	return b.session.Close()
}

// Router exposes the message router, mainly for tests.
func (b *Bot) Router() *Router {
	return b.router
}

// readyHandler is called when the bot is ready
func (b *Bot) readyHandler(s *discordgo.Session, event *discordgo.Ready) {
	b.router.BotUserID = event.User.ID

	b.guildMutex.Lock()
	for _, guild := range event.Guilds {
		b.knownGuilds[guild.ID] = true
	}
	serverCount := len(b.knownGuilds)
	b.guildMutex.Unlock()

	printBanner(event.User.Username, event.User.ID, b.cfg.DefaultPrefix, serverCount)

	if err := s.UpdateListeningStatus(botStatus); err != nil {
		fmt.Printf("Failed to set status: %v\n", err)
	}
}

// messageHandler routes every inbound message; messages the router
// does not consume fall to prefixed-command processing.
func (b *Bot) messageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	if !b.router.Route(context.Background(), m.Message) {
		b.handleCommand(m.Message)
	}
}

// guildCreateHandler sends a welcome message when the bot joins a new
// guild. GuildCreate also fires for every known guild on connect;
// those are filtered out via the ready snapshot.
func (b *Bot) guildCreateHandler(s *discordgo.Session, event *discordgo.GuildCreate) {
	b.guildMutex.Lock()
	known := b.knownGuilds[event.ID]
	b.knownGuilds[event.ID] = true
	b.guildMutex.Unlock()
	if known {
		return
	}

	channelID := b.findWelcomeChannel(s, event.Guild)
	if channelID == "" {
		fmt.Printf("Warning: no suitable welcome channel in %s\n", event.Name)
		return
	}

	prefix := b.router.prefixFor(event.ID)
	embed := welcomeEmbed(capitalize(b.cfg.BotName), b.cfg.BotName, prefix)
	if _, err := b.platform.SendEmbed(channelID, embed, nil, 0); err != nil {
		fmt.Printf("Warning: failed to send welcome message to %s: %v\n", event.Name, err)
	}
}

var preferredWelcomeChannels = []string{"general", "chat", "main", "welcome", "lobby", "talk"}

// findWelcomeChannel picks the channel for the guild-join greeting:
// first a writable channel with a preferred name, then any writable
// text channel, then the system channel.
func (b *Bot) findWelcomeChannel(s *discordgo.Session, guild *discordgo.Guild) string {
	writable := func(channelID string) bool {
		perms, err := s.UserChannelPermissions(s.State.User.ID, channelID)
		return err == nil && perms&discordgo.PermissionSendMessages != 0
	}

	for _, ch := range guild.Channels {
		if ch.Type != discordgo.ChannelTypeGuildText {
			continue
		}
		for _, name := range preferredWelcomeChannels {
			if strings.EqualFold(ch.Name, name) && writable(ch.ID) {
				return ch.ID
			}
		}
	}

	for _, ch := range guild.Channels {
		if ch.Type == discordgo.ChannelTypeGuildText && writable(ch.ID) {
			return ch.ID
		}
	}

	if guild.SystemChannelID != "" && writable(guild.SystemChannelID) {
		return guild.SystemChannelID
	}
	return ""
}

func welcomeEmbed(botTitle, botName, prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("👋 Hello! I'm %s", botTitle),
		Description: "Thanks for adding me to your server! I'm an AI-powered bot with chat, image generation, and web search capabilities.",
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🚀 Quick Start",
				Value: fmt.Sprintf(
					"• **Mention my name** (`%s`) in a message to chat with me\n"+
						"• **Activate full mode**: `@%s activate` to make me respond to every message\n"+
						"• **Get help**: `%shelp` to see all commands",
					botName, botName, prefix),
				Inline: false,
			},
			{
				Name: "✨ Key Features",
				Value: "🤖 **AI Chat** - Intelligent conversations with memory\n" +
					"🎨 **Image Generation** - Create images from text\n" +
					"🌐 **Web Search** - Real-time web search with AI responses\n" +
					"🔧 **Customizable** - Set custom prefixes, whitelist channels",
				Inline: false,
			},
			{
				Name: "🔧 Admin Commands",
				Value: fmt.Sprintf(
					"`%ssetprefix <prefix>` - Change bot prefix\n"+
						"`%swhitelist add/remove <channel>` - Manage allowed channels\n"+
						"`@%s activate/deactivate` - Toggle full response mode",
					prefix, prefix, botName),
				Inline: false,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Use %shelp for a complete command list", prefix)},
	}
}
