package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gachabot/ai"
	"gachabot/gate"
	"gachabot/images"
	"gachabot/intent"
	"gachabot/memory"
	"gachabot/metadata"

	"github.com/bwmarrin/discordgo"
)

// Settings is the slice of persisted configuration the router reads.
type Settings interface {
	Reload() error
	IsBlocked(userID string) bool
	IsPaused(guildID string) bool
	Whitelist(guildID string) []string
	PingEnabled(guildID string) bool
	Prefix(guildID string) (string, bool)
}

// Capabilities are the external AI calls the dispatcher invokes.
type Capabilities interface {
	ClassifyPrompt(ctx context.Context, text string) (string, error)
	GenerateImage(ctx context.Context, prompt, authorID string) (*ai.GenerationResult, error)
	GenerateImageEditWithRetry(ctx context.Context, prompt, sourceURL string, seed int) ([]byte, string, error)
	GenerateImageMerge(ctx context.Context, prompt string, sourceURLs []string) ([]byte, string, error)
	GetSearchResults(ctx context.Context, query string) (string, error)
	GenerateChatCompletion(ctx context.Context, model string, messages []ai.Message, timeout time.Duration) (string, error)
	AnalyzeImage(ctx context.Context, imageData []byte) (string, error)
	DownloadImage(ctx context.Context, url string) ([]byte, error)
	ChatModel() string
}

// Router decides, for every inbound message, whether the bot responds
// and which capability handles it.
type Router struct {
	Gate          *gate.Gate
	Settings      Settings
	Memory        *memory.Memory
	Metadata      *metadata.Store
	AI            Capabilities
	Platform      Platform
	OwnerID       string
	BotName       string
	BotUserID     string
	DefaultPrefix string
}

// routeContext carries the per-message state through the pipeline.
type routeContext struct {
	msg       *discordgo.Message
	guildID   string
	channelID string
	cleanText string
	refMsg    *discordgo.Message
	col       images.Collection
	decision  intent.Decision
}

func (c *routeContext) reference() *discordgo.MessageReference {
	return &discordgo.MessageReference{
		MessageID: c.msg.ID,
		ChannelID: c.channelID,
		GuildID:   c.guildID,
	}
}

// Route runs the full pipeline for one inbound message. It returns
// true when the message was consumed (a response or notice was sent,
// or the message was definitively dropped); false hands the message
// to ordinary prefixed-command processing.
func (r *Router) Route(ctx context.Context, m *discordgo.Message) bool {
	if m.Author == nil || m.Author.Bot {
		return true
	}

	rc := &routeContext{
		msg:       m,
		guildID:   m.GuildID,
		channelID: m.ChannelID,
		cleanText: strings.TrimSpace(m.Content),
	}

	// Access gate runs before any classification or dispatch. Admin
	// mention commands are exempt from the whitelist check only; block
	// and pause still apply.
	result := r.Gate.Evaluate(m.Author.ID, rc.guildID, rc.channelID)
	if !result.Allowed {
		if result.Reason == gate.ReasonNotWhitelisted && r.mentionsBot(m) && r.handleMentionCommand(rc) {
			return true
		}
		r.sendDenialNotice(rc, result)
		return true
	}

	// Mention commands are terminal for the message.
	if r.mentionsBot(m) {
		if r.handleMentionCommand(rc) {
			return true
		}
	}

	// Prefixed and slash commands go to the command framework.
	prefix := r.prefixFor(rc.guildID)
	if strings.HasPrefix(rc.cleanText, prefix) || strings.HasPrefix(rc.cleanText, "/") {
		return false
	}

	rc.refMsg = r.resolveReference(m)
	rc.col = images.Collect(m, rc.refMsg)

	if !r.shouldRespond(rc) {
		return true
	}

	rc.decision = intent.Classify(rc.cleanText, rc.col.HasAny(), rc.col.Total())

	return r.dispatch(ctx, rc)
}

func (r *Router) mentionsBot(m *discordgo.Message) bool {
	for _, user := range m.Mentions {
		if user != nil && user.ID == r.BotUserID {
			return true
		}
	}
	return false
}

func (r *Router) prefixFor(guildID string) string {
	if guildID == "" {
		return r.DefaultPrefix
	}
	if prefix, ok := r.Settings.Prefix(guildID); ok {
		return prefix
	}
	return r.DefaultPrefix
}

// resolveReference fetches the replied-to message. Resolution failures
// are swallowed: referenced images degrade to empty.
func (r *Router) resolveReference(m *discordgo.Message) *discordgo.Message {
	if m.MessageReference == nil || m.MessageReference.MessageID == "" {
		return nil
	}
	channelID := m.MessageReference.ChannelID
	if channelID == "" {
		channelID = m.ChannelID
	}
	refMsg, err := r.Platform.ResolveReference(channelID, m.MessageReference.MessageID)
	if err != nil {
		return nil
	}
	return refMsg
}

// shouldRespond applies the trigger-eligibility rules: an activated
// channel always responds; otherwise the bot's name keyword must
// appear, and in guilds with a whitelist the channel must be listed.
// Direct messages always respond to the name keyword.
func (r *Router) shouldRespond(rc *routeContext) bool {
	if r.Memory.IsChannelActive(rc.channelID) {
		return true
	}

	if !strings.Contains(strings.ToLower(rc.msg.Content), r.BotName) {
		return false
	}

	if rc.guildID == "" {
		return true
	}

	whitelist := r.Settings.Whitelist(rc.guildID)
	if len(whitelist) == 0 {
		return true
	}
	for _, ch := range whitelist {
		if ch == rc.channelID {
			return true
		}
	}
	return false
}

func (r *Router) sendDenialNotice(rc *routeContext, result gate.Result) {
	guildName := r.guildName(rc.guildID)

	var embed *discordgo.MessageEmbed
	switch result.Reason {
	case gate.ReasonBlocked:
		embed = blockedEmbed(rc.msg.Author.Mention())
	case gate.ReasonPaused:
		embed = pausedEmbed(guildName)
	case gate.ReasonNotWhitelisted:
		embed = notWhitelistedEmbed(guildName, channelMention(rc.channelID))
	default:
		return
	}

	if _, err := r.Platform.SendEmbed(rc.channelID, embed, nil, result.DeleteAfter); err != nil {
		fmt.Printf("Warning: failed to send access notice: %v\n", err)
	}
}

var (
	activateRe   = regexp.MustCompile(`(?i)\bactivate\b`)
	deactivateRe = regexp.MustCompile(`(?i)\bdeactivate\b`)
	wackRe       = regexp.MustCompile(`(?i)\bwack\b`)
)

// handleMentionCommand scans a bot-mention message for the activate,
// deactivate, and wack keywords, in that priority; the first match
// wins and the rest are ignored. Keywords are matched on word
// boundaries so "deactivate" never triggers the activate branch.
// Returns false when no keyword was found so the message falls through
// to normal routing. Admin mention commands run regardless of the
// channel whitelist.
func (r *Router) handleMentionCommand(rc *routeContext) bool {
	switch {
	case activateRe.MatchString(rc.msg.Content):
		r.runMentionCommand(rc, r.activateChannel)
	case deactivateRe.MatchString(rc.msg.Content):
		r.runMentionCommand(rc, r.deactivateChannel)
	case wackRe.MatchString(rc.msg.Content):
		r.runMentionCommand(rc, r.wack)
	default:
		return false
	}
	return true
}

func (r *Router) runMentionCommand(rc *routeContext, cmd func(rc *routeContext)) {
	if !r.isAuthorized(rc) {
		r.replyEmbed(rc, adminOnlyEmbed(), 0)
		return
	}
	cmd(rc)
}

func (r *Router) isAuthorized(rc *routeContext) bool {
	if rc.msg.Author.ID == r.OwnerID {
		return true
	}
	if rc.guildID == "" {
		return false
	}
	isAdmin, err := r.Platform.IsAdmin(rc.guildID, rc.channelID, rc.msg.Author.ID)
	if err != nil {
		return false
	}
	return isAdmin
}

func (r *Router) activateChannel(rc *routeContext) {
	if r.Memory == nil {
		r.replyEmbed(rc, memoryUnavailableEmbed(), 0)
		return
	}
	r.Memory.ActivateChannel(rc.channelID)
	r.replyEmbed(rc, channelActivatedEmbed(channelMention(rc.channelID), r.BotName), 0)
}

func (r *Router) deactivateChannel(rc *routeContext) {
	if r.Memory == nil {
		r.replyEmbed(rc, memoryUnavailableEmbed(), 0)
		return
	}
	if !r.Memory.IsChannelActive(rc.channelID) {
		r.replyEmbed(rc, alreadyInactiveEmbed(channelMention(rc.channelID), r.BotName), 0)
		return
	}
	r.Memory.DeactivateChannel(rc.channelID)
	r.replyEmbed(rc, channelDeactivatedEmbed(channelMention(rc.channelID), r.BotName), 0)
}

// wack clears the short-term memory of every text channel in the
// guild. Channel activation state is deliberately left untouched.
func (r *Router) wack(rc *routeContext) {
	if r.Memory == nil {
		r.replyEmbed(rc, memoryUnavailableEmbed(), 0)
		return
	}

	channels, err := r.Platform.GuildTextChannels(rc.guildID)
	if err != nil {
		r.replyEmbed(rc, memoryUnavailableEmbed(), 0)
		return
	}

	cleared := 0
	for _, channelID := range channels {
		key := memory.Key(rc.guildID, channelID)
		if r.Memory.HasEntry(key) {
			r.Memory.Reset(key)
			cleared++
		}
	}

	r.replyEmbed(rc, wackEmbed(r.guildName(rc.guildID), cleared), 0)
}

func (r *Router) replyEmbed(rc *routeContext, embed *discordgo.MessageEmbed, deleteAfter time.Duration) {
	if _, err := r.Platform.SendEmbed(rc.channelID, embed, rc.reference(), deleteAfter); err != nil {
		fmt.Printf("Warning: failed to send embed: %v\n", err)
	}
}

func (r *Router) guildName(guildID string) string {
	if guildID == "" {
		return ""
	}
	name, err := r.Platform.GuildName(guildID)
	if err != nil {
		return guildID
	}
	return name
}

func channelMention(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}
