package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gachabot/ai"
	"gachabot/intent"
	"gachabot/memory"
	"gachabot/metadata"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// noticeLifetime is the auto-dismiss delay for failure and corrective
// notices.
const noticeLifetime = 30 * time.Second

const searchCompletionTimeout = 30 * time.Second

const maxMessageLength = 2000

// dispatch walks the capability branches in strict priority order.
// The first matching branch is terminal. Returns false only when the
// message should fall through to ordinary command processing.
func (r *Router) dispatch(ctx context.Context, rc *routeContext) bool {
	d := rc.decision

	switch {
	case d.Merge && rc.col.Total() >= 2:
		r.dispatchMerge(ctx, rc)
	case d.Edit && rc.col.Total() >= 2 && !d.Merge:
		r.dispatchBatchEdit(ctx, rc)
	case d.Edit && rc.col.Total() == 1:
		r.dispatchSingleEdit(ctx, rc)
	case d.Edit && !rc.col.HasAny():
		r.replyEmbed(rc, noImageFoundEmbed(), noticeLifetime)
	case d.Merge && rc.col.Total() == 1:
		r.replyEmbed(rc, needTwoImagesEmbed(), noticeLifetime)
	case d.Merge && rc.col.Total() < 2:
		r.replyEmbed(rc, insufficientImagesEmbed(), noticeLifetime)
	case d.Generate:
		r.dispatchGeneration(ctx, rc)
	case d.WebSearch:
		// No results or a failed completion falls through silently.
		return r.dispatchWebSearch(ctx, rc)
	default:
		return r.dispatchFallback(ctx, rc)
	}
	return true
}

// dispatchFallback covers the two lowest-priority branches: image
// analysis for messages that carry images without any other intent,
// then the conversational reply for activated channels. Returns false
// to hand the message to command processing.
func (r *Router) dispatchFallback(ctx context.Context, rc *routeContext) bool {
	d := rc.decision
	if rc.col.HasAny() && !d.Edit && !d.Merge && !d.Generate {
		if r.dispatchImageAnalysis(ctx, rc) {
			return true
		}
	}
	if rc.cleanText != "" && !rc.col.HasAny() {
		return r.dispatchChat(ctx, rc)
	}
	return false
}

// dispatchMerge handles merge intent with at least two images.
func (r *Router) dispatchMerge(ctx context.Context, rc *routeContext) {
	r.Platform.Typing(rc.channelID)

	urls := rc.col.URLs()
	prompt := intent.StripMergeKeyword(rc.cleanText)

	if r.nsfwBlocked(ctx, rc, prompt, "merge") {
		return
	}

	data, _, err := r.AI.GenerateImageMerge(ctx, prompt, urls)
	if err != nil || len(data) == 0 {
		r.replyEmbed(rc, failureEmbed("❌ Merge Failed",
			fmt.Sprintf("Failed to merge images: %s", errorText(err))), noticeLifetime)
		return
	}

	file := &discordgo.File{
		Name:        fmt.Sprintf("merged_%s.png", shortID()),
		ContentType: "image/png",
		Reader:      bytes.NewReader(data),
	}

	msgID, err := r.Platform.SendFiles(rc.channelID, []*discordgo.File{file}, rc.reference(), r.pingEnabled(rc))
	if err != nil {
		r.reportSendFailure(rc, err, "❌ Merge Failed",
			"❌ **NSFW content detected by Discord**\n\nThe merged image contains explicit content that cannot be sent.")
		return
	}

	r.Metadata.Record(msgID, metadata.Entry{
		Prompt:       prompt,
		Type:         metadata.TypeMerge,
		SourceImages: urls,
	})
}

// dispatchBatchEdit handles editing intent with two or more images.
// Each image is edited independently; per-image failures are reported
// in aggregate.
func (r *Router) dispatchBatchEdit(ctx context.Context, rc *routeContext) {
	r.Platform.Typing(rc.channelID)

	if r.nsfwBlocked(ctx, rc, rc.cleanText, "editing") {
		return
	}

	urls := rc.col.URLs()
	var files []*discordgo.File
	var failures []string

	for i, url := range urls {
		seed := randomEditSeed()
		data, _, err := r.AI.GenerateImageEditWithRetry(ctx, rc.cleanText, url, seed)
		if err != nil || len(data) == 0 {
			failures = append(failures, fmt.Sprintf("Image %d: %s", i+1, errorText(err)))
			continue
		}
		files = append(files, &discordgo.File{
			Name:        fmt.Sprintf("edited_image_%d.png", i+1),
			ContentType: "image/png",
			Reader:      bytes.NewReader(data),
		})
	}

	if len(files) == 0 {
		errorList := strings.Join(truncateList(failures, 5, "more errors"), "\n")
		r.replyEmbed(rc, failureEmbed("❌ Batch Editing Failed",
			fmt.Sprintf("Failed to edit any images:\n%s", errorList)), noticeLifetime)
		return
	}

	msgID, err := r.Platform.SendFiles(rc.channelID, files, rc.reference(), r.pingEnabled(rc))
	if err != nil {
		r.reportSendFailure(rc, err, "❌ Batch Editing Failed",
			"❌ **NSFW content detected by Discord**\n\nOne or more edited images contain explicit content that cannot be sent.")
		return
	}

	r.Metadata.Record(msgID, metadata.Entry{
		Prompt:       rc.cleanText,
		Type:         metadata.TypeBatchEdit,
		SourceImages: urls,
		TotalImages:  len(files),
		FailedCount:  len(failures),
	})

	if len(failures) > 0 {
		summary := "⚠️ Some images failed to edit:\n" + strings.Join(truncateList(failures, 3, "more"), "\n")
		if _, err := r.Platform.SendEmbed(rc.channelID, partialEditEmbed(summary), nil, noticeLifetime); err != nil {
			fmt.Printf("Warning: failed to send partial edit summary: %v\n", err)
		}
	}
}

// dispatchSingleEdit handles editing intent with exactly one image.
// The current message's attachment takes priority over the referenced
// message's.
func (r *Router) dispatchSingleEdit(ctx context.Context, rc *routeContext) {
	r.Platform.Typing(rc.channelID)

	if r.nsfwBlocked(ctx, rc, rc.cleanText, "editing") {
		return
	}

	url, ok := rc.col.First()
	if !ok {
		r.replyEmbed(rc, noImageFoundEmbed(), noticeLifetime)
		return
	}

	seed := randomEditSeed()
	data, _, err := r.AI.GenerateImageEditWithRetry(ctx, rc.cleanText, url, seed)
	if err != nil || len(data) == 0 {
		r.replyEmbed(rc, failureEmbed("❌ Editing Failed",
			fmt.Sprintf("Failed to edit image: %s", errorText(err))), noticeLifetime)
		return
	}

	file := &discordgo.File{
		Name:        fmt.Sprintf("edited_%s.png", shortID()),
		ContentType: "image/png",
		Reader:      bytes.NewReader(data),
	}

	msgID, err := r.Platform.SendFiles(rc.channelID, []*discordgo.File{file}, rc.reference(), r.pingEnabled(rc))
	if err != nil {
		r.reportSendFailure(rc, err, "❌ Editing Failed",
			"❌ **NSFW content detected by Discord**\n\nThe edited image contains explicit content that cannot be sent.")
		return
	}

	r.Metadata.Record(msgID, metadata.Entry{
		Prompt:         rc.cleanText,
		Seed:           seed,
		HasSeed:        true,
		Type:           metadata.TypeImg2Img,
		ReferenceImage: url,
	})
}

// dispatchGeneration handles text-to-image generation intent.
func (r *Router) dispatchGeneration(ctx context.Context, rc *routeContext) {
	if r.nsfwBlocked(ctx, rc, rc.cleanText, "generation") {
		return
	}

	r.Platform.Typing(rc.channelID)

	result, err := r.AI.GenerateImage(ctx, rc.cleanText, rc.msg.Author.ID)
	if err != nil || result == nil || len(result.Data) == 0 {
		description := "Failed to generate image. Please try again."
		if err != nil && !errors.Is(err, ai.ErrNSFW) {
			description = fmt.Sprintf("Failed to generate image: %s", errorText(err))
		}
		r.replyEmbed(rc, failureEmbed("❌ Generation Failed", description), noticeLifetime)
		return
	}

	file := &discordgo.File{
		Name:        fmt.Sprintf("generated_%s.png", shortID()),
		ContentType: "image/png",
		Reader:      bytes.NewReader(result.Data),
	}

	msgID, err := r.Platform.SendFiles(rc.channelID, []*discordgo.File{file}, rc.reference(), r.pingEnabled(rc))
	if err != nil {
		r.reportSendFailure(rc, err, "❌ Generation Failed",
			"❌ **NSFW content detected by Discord**\n\nThe generated image contains explicit content that cannot be sent.")
		return
	}

	r.Metadata.Record(msgID, metadata.Entry{
		Prompt:   rc.cleanText,
		Seed:     result.Seed,
		HasSeed:  true,
		Type:     metadata.TypeGeneration,
		AIParams: result.Params,
	})
}

// dispatchWebSearch handles web-search intent. Returns false when
// there are no results or the completion fails, so the message can
// fall through silently.
func (r *Router) dispatchWebSearch(ctx context.Context, rc *routeContext) bool {
	r.Platform.Typing(rc.channelID)

	results, err := r.AI.GetSearchResults(ctx, rc.cleanText)
	if err != nil || results == "" {
		return false
	}

	now := time.Now().UTC()
	messages := []ai.Message{
		{Role: "system", Content: webSearchSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(
			"Current date: %s, Current time: %s. User query: %s\n\n"+
				"SEARCH RESULTS (TRUST THESE COMPLETELY):\n%s\n\n"+
				"Answer the user's question using ONLY the search results above. "+
				"Trust the search results completely, even if they seem unusual.",
			now.Format("2006-01-02"), now.Format("2006-01-02 15:04:05.000")+" UTC",
			rc.cleanText, results)},
	}

	response, err := r.AI.GenerateChatCompletion(ctx, r.AI.ChatModel(), messages, searchCompletionTimeout)
	if err != nil || response == "" {
		return false
	}

	r.sendLongMessage(rc, response)
	return true
}

const webSearchSystemPrompt = "You are a helpful AI assistant. Your ONLY job is to provide accurate information based on the search results provided. " +
	"CRITICAL RULES:\n" +
	"1. Use ONLY the information from the search results\n" +
	"2. Never contradict or modify the search results\n" +
	"3. If search results say something, accept it as fact\n" +
	"4. Do not use your own knowledge that conflicts with search results\n" +
	"5. Present the information exactly as found in the search results\n" +
	"6. If unsure, quote the search results directly"

// dispatchImageAnalysis handles messages that carry images without
// any other matched intent. Returns false on any transport failure so
// the message falls through to ordinary processing.
func (r *Router) dispatchImageAnalysis(ctx context.Context, rc *routeContext) bool {
	r.Platform.Typing(rc.channelID)

	url, ok := rc.col.First()
	if !ok {
		return false
	}

	data, err := r.AI.DownloadImage(ctx, url)
	if err != nil {
		return false
	}

	analysis, err := r.AI.AnalyzeImage(ctx, data)
	if err != nil || analysis == "" {
		return false
	}

	reply := analysis
	if rc.cleanText != "" {
		combined := fmt.Sprintf(
			"User message: %s\n\nImage analysis: %s\n\nPlease respond to the user's message with the image context in mind.",
			rc.cleanText, analysis)
		response, err := r.AI.GenerateChatCompletion(ctx, r.AI.ChatModel(),
			[]ai.Message{{Role: "user", Content: combined}}, 0)
		if err != nil || response == "" {
			return false
		}
		reply = response
	}

	if _, err := r.Platform.SendText(rc.channelID, clampMessage(reply), rc.reference(), r.pingEnabled(rc)); err != nil {
		return false
	}
	return true
}

// dispatchChat produces a conversational reply backed by the
// channel's short-term memory. Returns false when the completion
// fails so the message falls through to command processing.
func (r *Router) dispatchChat(ctx context.Context, rc *routeContext) bool {
	r.Platform.Typing(rc.channelID)

	key := memory.Key(rc.guildID, rc.channelID)

	messages := []ai.Message{{Role: "system", Content: chatSystemPrompt(r.BotName)}}
	for _, turn := range r.Memory.History(key) {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.Message{Role: "user", Content: rc.cleanText})

	response, err := r.AI.GenerateChatCompletion(ctx, r.AI.ChatModel(), messages, 0)
	if err != nil || response == "" {
		return false
	}

	r.Memory.Append(key, "user", rc.cleanText)
	r.Memory.Append(key, "assistant", response)

	r.sendLongMessage(rc, response)
	return true
}

func chatSystemPrompt(botName string) string {
	return fmt.Sprintf("You are %s, a friendly Discord bot. Keep replies short and conversational.", botName)
}

// nsfwBlocked runs the NSFW pre-check. Classification errors are
// non-blocking: the request proceeds.
func (r *Router) nsfwBlocked(ctx context.Context, rc *routeContext, prompt, requestKind string) bool {
	verdict, err := r.AI.ClassifyPrompt(ctx, prompt)
	if err != nil {
		return false
	}
	if verdict != ai.VerdictNSFW {
		return false
	}
	r.replyEmbed(rc, nsfwDetectedEmbed(requestKind), noticeLifetime)
	return true
}

// reportSendFailure distinguishes the platform's explicit-content
// rejection from generic send failures.
func (r *Router) reportSendFailure(rc *routeContext, err error, failTitle, blockedDescription string) {
	if isExplicitContentError(err) {
		r.replyEmbed(rc, contentBlockedEmbed(blockedDescription), 0)
		return
	}
	r.replyEmbed(rc, failureEmbed(failTitle, fmt.Sprintf("Failed to send result: %v", err)), 0)
}

// sendLongMessage splits a long response into Discord-sized chunks.
// Only the first chunk is a reply honoring the ping preference.
func (r *Router) sendLongMessage(rc *routeContext, content string) {
	chunks := splitMessage(content, maxMessageLength)
	for i, chunk := range chunks {
		var ref *discordgo.MessageReference
		ping := false
		if i == 0 {
			ref = rc.reference()
			ping = r.pingEnabled(rc)
		}
		if _, err := r.Platform.SendText(rc.channelID, chunk, ref, ping); err != nil {
			fmt.Printf("Warning: failed to send message part %d/%d: %v\n", i+1, len(chunks), err)
			return
		}
	}
}

func (r *Router) pingEnabled(rc *routeContext) bool {
	if rc.guildID == "" {
		return true
	}
	return r.Settings.PingEnabled(rc.guildID)
}

// splitMessage breaks content into chunks no longer than limit,
// preferring newline boundaries.
func splitMessage(content string, limit int) []string {
	if len(content) <= limit {
		return []string{content}
	}

	var chunks []string
	for len(content) > limit {
		cut := strings.LastIndex(content[:limit], "\n")
		if cut <= 0 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimSpace(content[:cut]))
		content = strings.TrimSpace(content[cut:])
	}
	if content != "" {
		chunks = append(chunks, content)
	}
	return chunks
}

func clampMessage(content string) string {
	if len(content) <= maxMessageLength {
		return content
	}
	return content[:maxMessageLength]
}

// truncateList keeps the first n entries and summarizes the rest.
func truncateList(items []string, n int, noun string) []string {
	if len(items) <= n {
		return items
	}
	out := make([]string, n, n+1)
	copy(out, items[:n])
	return append(out, fmt.Sprintf("... and %d %s", len(items)-n, noun))
}

func errorText(err error) string {
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}

func randomEditSeed() int {
	return 100000 + rand.Intn(900000)
}

func shortID() string {
	return uuid.NewString()[:8]
}
