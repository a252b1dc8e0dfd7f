package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Embed colors, matching the platform's standard palette.
const (
	colorRed    = 0xED4245
	colorOrange = 0xE67E22
	colorGreen  = 0x57F287
	colorBlue   = 0x3498DB
)

func blockedEmbed(userMention string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🚫 User Blocked",
		Description: "❌ **You are blocked from using this bot.**\n\n📧 Contact the bot owner if you believe this is an error.",
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🔍 Status", Value: "Blocked", Inline: true},
			{Name: "👤 User", Value: userMention, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "User block is active."},
	}
}

func pausedEmbed(guildName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⏸️ Bot is Currently Paused",
		Description: "🚫 **The bot is currently paused and not responding to commands.**\n\n✨ This is a temporary state set by the bot administrator.",
		Color:       colorOrange,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🔍 Status", Value: "Paused", Inline: true},
			{Name: "📋 Server", Value: guildName, Inline: true},
			{Name: "💡 Info", Value: "The bot will resume when the administrator releases it", Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Bot pause is active in this server."},
	}
}

func notWhitelistedEmbed(guildName, channelMention string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔒 Channel Not Whitelisted",
		Description: fmt.Sprintf("❌ **This channel is not allowed for bot commands.**\n\n🏠 **Server:** %s\n📝 **Channel:** %s", guildName, channelMention),
		Color:       colorOrange,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ℹ️ Info", Value: "Contact an administrator to add this channel to the whitelist", Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Channel restriction is active."},
	}
}

func adminOnlyEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔒 Admin Only Command",
		Description: "You need administrator permissions to use this command!",
		Color:       colorRed,
		Footer:      &discordgo.MessageEmbedFooter{Text: "This command is restricted to administrators."},
	}
}

func memoryUnavailableEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Error",
		Description: "Could not access memory system. Please try again.",
		Color:       colorRed,
	}
}

func channelActivatedEmbed(channelMention, botName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🟢 Channel Activated",
		Description: fmt.Sprintf("✅ Bot will now **respond to ALL messages** in %s\n\n📝 **Note:** Bot can still respond in other channels when mentioned by name.", channelMention),
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🏠 Channel", Value: channelMention, Inline: true},
			{Name: "📊 Status", Value: "Fully Active", Inline: true},
			{Name: "🔧 How to Deactivate", Value: fmt.Sprintf("Use `@%s deactivate`", botName), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Channel activation via mention successful."},
	}
}

func channelDeactivatedEmbed(channelMention, botName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔴 Channel Deactivated",
		Description: fmt.Sprintf("✅ Bot will **no longer respond to all messages** in %s\n\n📝 **Note:** Bot can still respond when mentioned by name.", channelMention),
		Color:       colorOrange,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🏠 Channel", Value: channelMention, Inline: true},
			{Name: "📊 Status", Value: "Normal Mode", Inline: true},
			{Name: "🔧 How to Reactivate", Value: fmt.Sprintf("Use `@%s activate`", botName), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Channel deactivation via mention successful."},
	}
}

func alreadyInactiveEmbed(channelMention, botName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "ℹ️ Already Inactive",
		Description: fmt.Sprintf("%s is not currently activated.", channelMention),
		Color:       colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💡 Tip", Value: fmt.Sprintf("Use `@%s activate` to make bot respond to all messages", botName), Inline: false},
		},
	}
}

func wackEmbed(guildName string, clearedChannels int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔄 Server Reload Complete",
		Description: fmt.Sprintf("✅ Bot has been **reloaded** for **%s**\n\n🧠 **STM (Short-term memory) cleared** for all channels", guildName),
		Color:       colorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🏠 Server", Value: guildName, Inline: true},
			{Name: "🧹 Channels Cleared", Value: fmt.Sprintf("%d channels", clearedChannels), Inline: true},
			{Name: "📊 Memory Status", Value: "Fresh start", Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Server-level reload via mention successful. Bot memory refreshed."},
	}
}

func nsfwDetectedEmbed(requestKind string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🚫 NSFW Content Detected",
		Description: fmt.Sprintf("NSFW content detected in %s request.", requestKind),
		Color:       colorRed,
	}
}

func contentBlockedEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🚫 Content Blocked",
		Description: description,
		Color:       colorRed,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🛡️ Content Policy", Value: "Please try a different prompt that complies with content guidelines", Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Content moderation is active to ensure safe usage"},
	}
}

func failureEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       colorRed,
	}
}

func noImageFoundEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ No Image Found",
		Description: "Image editing requires an image to be attached or referenced. Please attach an image or reply to a message with an image.",
		Color:       colorRed,
	}
}

func needTwoImagesEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Need at least 2 images to merge",
		Description: "Image merging requires 2 or more images. Please attach multiple images or reply to messages with images.",
		Color:       colorRed,
	}
}

func insufficientImagesEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "❌ Insufficient Images",
		Description: "Image merging requires 2 or more images. Please attach multiple images or reply to messages with images.",
		Color:       colorRed,
	}
}

func partialEditEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Partial Success",
		Description: description,
		Color:       colorOrange,
	}
}
