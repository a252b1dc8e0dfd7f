package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Platform is the narrow slice of chat-platform operations the router
// and dispatcher need. It exists so routing logic can be exercised
// without a live gateway connection.
type Platform interface {
	Typing(channelID string)
	// SendEmbed sends an embed, optionally as a reply, and deletes it
	// after the given lifetime when deleteAfter > 0.
	SendEmbed(channelID string, embed *discordgo.MessageEmbed, ref *discordgo.MessageReference, deleteAfter time.Duration) (string, error)
	// SendFiles sends file attachments as a reply. ping controls
	// whether the replied-to user is mentioned.
	SendFiles(channelID string, files []*discordgo.File, ref *discordgo.MessageReference, ping bool) (string, error)
	// SendText sends a plain text message, optionally as a reply.
	SendText(channelID, content string, ref *discordgo.MessageReference, ping bool) (string, error)
	ResolveReference(channelID, messageID string) (*discordgo.Message, error)
	GuildTextChannels(guildID string) ([]string, error)
	GuildName(guildID string) (string, error)
	IsAdmin(guildID, channelID, userID string) (bool, error)
}

// sessionPlatform implements Platform over a discordgo session.
type sessionPlatform struct {
	session *discordgo.Session
}

func newSessionPlatform(s *discordgo.Session) *sessionPlatform {
	return &sessionPlatform{session: s}
}

func (p *sessionPlatform) Typing(channelID string) {
	p.session.ChannelTyping(channelID)
}

func (p *sessionPlatform) SendEmbed(channelID string, embed *discordgo.MessageEmbed, ref *discordgo.MessageReference, deleteAfter time.Duration) (string, error) {
	msg, err := p.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{embed},
		Reference:       ref,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		return "", err
	}

	if deleteAfter > 0 {
		go p.scheduleMessageDeletion(channelID, msg.ID, deleteAfter)
	}
	return msg.ID, nil
}

func (p *sessionPlatform) SendFiles(channelID string, files []*discordgo.File, ref *discordgo.MessageReference, ping bool) (string, error) {
	msg, err := p.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Files:           files,
		Reference:       ref,
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: ping},
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (p *sessionPlatform) SendText(channelID, content string, ref *discordgo.MessageReference, ping bool) (string, error) {
	msg, err := p.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		Reference:       ref,
		AllowedMentions: &discordgo.MessageAllowedMentions{RepliedUser: ping},
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (p *sessionPlatform) ResolveReference(channelID, messageID string) (*discordgo.Message, error) {
	return p.session.ChannelMessage(channelID, messageID)
}

func (p *sessionPlatform) GuildTextChannels(guildID string) ([]string, error) {
	channels, err := p.session.GuildChannels(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild channels: %w", err)
	}

	var out []string
	for _, ch := range channels {
		switch ch.Type {
		case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews,
			discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread:
			out = append(out, ch.ID)
		}
	}
	return out, nil
}

func (p *sessionPlatform) GuildName(guildID string) (string, error) {
	if guild, err := p.session.State.Guild(guildID); err == nil {
		return guild.Name, nil
	}
	guild, err := p.session.Guild(guildID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve guild: %w", err)
	}
	return guild.Name, nil
}

func (p *sessionPlatform) IsAdmin(guildID, channelID, userID string) (bool, error) {
	perms, err := p.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	return perms&discordgo.PermissionAdministrator != 0, nil
}

func (p *sessionPlatform) scheduleMessageDeletion(channelID, messageID string, after time.Duration) {
	time.Sleep(after)
	if err := p.session.ChannelMessageDelete(channelID, messageID); err != nil {
		// Deletion failures are expected when users remove the notice
		// themselves or the bot lacks permission.
		return
	}
}

// Discord API error code for "explicit content cannot be sent to the
// desired recipient(s)".
const errCodeExplicitContent = 20009

// isExplicitContentError reports whether a send failed because the
// platform's own content filter rejected the payload. This is kept
// distinct from generic send failures.
func isExplicitContentError(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	return restErr.Message != nil && restErr.Message.Code == errCodeExplicitContent
}
