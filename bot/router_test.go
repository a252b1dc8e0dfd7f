package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gachabot/ai"
	"gachabot/gate"
	"gachabot/memory"
	"gachabot/metadata"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmbed struct {
	channelID   string
	embed       *discordgo.MessageEmbed
	ref         *discordgo.MessageReference
	deleteAfter time.Duration
}

type sentFiles struct {
	channelID string
	files     []*discordgo.File
	ref       *discordgo.MessageReference
	ping      bool
}

type sentText struct {
	channelID string
	content   string
	ref       *discordgo.MessageReference
	ping      bool
}

type fakePlatform struct {
	embeds []sentEmbed
	files  []sentFiles
	texts  []sentText

	typingCalls int

	refMsg *discordgo.Message
	refErr error

	guildChannels []string
	admin         bool
	adminErr      error

	sendFilesErr error
	sendTextErr  error

	nextID int
}

func (p *fakePlatform) messageID() string {
	p.nextID++
	return fmt.Sprintf("sent-%d", p.nextID)
}

func (p *fakePlatform) Typing(channelID string) {
	p.typingCalls++
}

func (p *fakePlatform) SendEmbed(channelID string, embed *discordgo.MessageEmbed, ref *discordgo.MessageReference, deleteAfter time.Duration) (string, error) {
	p.embeds = append(p.embeds, sentEmbed{channelID, embed, ref, deleteAfter})
	return p.messageID(), nil
}

func (p *fakePlatform) SendFiles(channelID string, files []*discordgo.File, ref *discordgo.MessageReference, ping bool) (string, error) {
	if p.sendFilesErr != nil {
		return "", p.sendFilesErr
	}
	p.files = append(p.files, sentFiles{channelID, files, ref, ping})
	return p.messageID(), nil
}

func (p *fakePlatform) SendText(channelID, content string, ref *discordgo.MessageReference, ping bool) (string, error) {
	if p.sendTextErr != nil {
		return "", p.sendTextErr
	}
	p.texts = append(p.texts, sentText{channelID, content, ref, ping})
	return p.messageID(), nil
}

func (p *fakePlatform) ResolveReference(channelID, messageID string) (*discordgo.Message, error) {
	if p.refErr != nil {
		return nil, p.refErr
	}
	return p.refMsg, nil
}

func (p *fakePlatform) GuildTextChannels(guildID string) ([]string, error) {
	return p.guildChannels, nil
}

func (p *fakePlatform) GuildName(guildID string) (string, error) {
	return "Test Guild", nil
}

func (p *fakePlatform) IsAdmin(guildID, channelID, userID string) (bool, error) {
	return p.admin, p.adminErr
}

func (p *fakePlatform) lastEmbed(t *testing.T) sentEmbed {
	t.Helper()
	require.NotEmpty(t, p.embeds)
	return p.embeds[len(p.embeds)-1]
}

type fakeSettings struct {
	blocked   map[string]bool
	paused    map[string]bool
	whitelist map[string][]string
	pingOff   map[string]bool
	prefixes  map[string]string
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{
		blocked:   map[string]bool{},
		paused:    map[string]bool{},
		whitelist: map[string][]string{},
		pingOff:   map[string]bool{},
		prefixes:  map[string]string{},
	}
}

func (s *fakeSettings) Reload() error { return nil }

func (s *fakeSettings) IsBlocked(userID string) bool { return s.blocked[userID] }

func (s *fakeSettings) IsPaused(guildID string) bool { return s.paused[guildID] }
func (s *fakeSettings) Whitelist(guildID string) []string {
	return s.whitelist[guildID]
}
func (s *fakeSettings) PingEnabled(guildID string) bool { return !s.pingOff[guildID] }
func (s *fakeSettings) Prefix(guildID string) (string, bool) {
	prefix, ok := s.prefixes[guildID]
	return prefix, ok
}

type editCall struct {
	prompt string
	url    string
	seed   int
}

type fakeAI struct {
	verdict     string
	classifyErr error
	classified  []string

	genResult *ai.GenerationResult
	genErr    error
	genCalls  int

	editData   []byte
	editErr    error
	editFailBy map[string]error
	editCalls  []editCall

	mergeData   []byte
	mergeErr    error
	mergePrompt string
	mergeCalls  [][]string

	searchResults string
	searchErr     error
	searchCalls   []string

	chatResponse string
	chatErr      error
	chatCalls    [][]ai.Message

	analysis   string
	analyzeErr error

	downloadData []byte
	downloadErr  error
	downloads    []string
}

func newFakeAI() *fakeAI {
	return &fakeAI{verdict: ai.VerdictSafe}
}

func (a *fakeAI) ClassifyPrompt(ctx context.Context, text string) (string, error) {
	a.classified = append(a.classified, text)
	return a.verdict, a.classifyErr
}

func (a *fakeAI) GenerateImage(ctx context.Context, prompt, authorID string) (*ai.GenerationResult, error) {
	a.genCalls++
	return a.genResult, a.genErr
}

func (a *fakeAI) GenerateImageEditWithRetry(ctx context.Context, prompt, sourceURL string, seed int) ([]byte, string, error) {
	a.editCalls = append(a.editCalls, editCall{prompt: prompt, url: sourceURL, seed: seed})
	if err, ok := a.editFailBy[sourceURL]; ok {
		return nil, "", err
	}
	if a.editErr != nil {
		return nil, "", a.editErr
	}
	return a.editData, "", nil
}

func (a *fakeAI) GenerateImageMerge(ctx context.Context, prompt string, sourceURLs []string) ([]byte, string, error) {
	a.mergePrompt = prompt
	a.mergeCalls = append(a.mergeCalls, sourceURLs)
	return a.mergeData, "", a.mergeErr
}

func (a *fakeAI) GetSearchResults(ctx context.Context, query string) (string, error) {
	a.searchCalls = append(a.searchCalls, query)
	return a.searchResults, a.searchErr
}

func (a *fakeAI) GenerateChatCompletion(ctx context.Context, model string, messages []ai.Message, timeout time.Duration) (string, error) {
	a.chatCalls = append(a.chatCalls, messages)
	return a.chatResponse, a.chatErr
}

func (a *fakeAI) AnalyzeImage(ctx context.Context, imageData []byte) (string, error) {
	return a.analysis, a.analyzeErr
}

func (a *fakeAI) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	a.downloads = append(a.downloads, url)
	return a.downloadData, a.downloadErr
}

func (a *fakeAI) ChatModel() string { return "test-model" }

type routerEnv struct {
	router   *Router
	platform *fakePlatform
	settings *fakeSettings
	ai       *fakeAI
	memory   *memory.Memory
	metadata *metadata.Store
}

func newRouterEnv() *routerEnv {
	settings := newFakeSettings()
	platform := &fakePlatform{}
	aiFake := newFakeAI()
	mem := memory.New()
	meta := metadata.New()

	router := &Router{
		Gate:          gate.New(settings),
		Settings:      settings,
		Memory:        mem,
		Metadata:      meta,
		AI:            aiFake,
		Platform:      platform,
		OwnerID:       "owner",
		BotName:       "gacha",
		BotUserID:     "bot-user",
		DefaultPrefix: "+",
	}

	return &routerEnv{
		router:   router,
		platform: platform,
		settings: settings,
		ai:       aiFake,
		memory:   mem,
		metadata: meta,
	}
}

func (e *routerEnv) route(m *discordgo.Message) bool {
	return e.router.Route(context.Background(), m)
}

func guildMessage(authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "msg1",
		GuildID:   "guild1",
		ChannelID: "chan1",
		Content:   content,
		Author:    &discordgo.User{ID: authorID},
	}
}

func withImages(m *discordgo.Message, urls ...string) *discordgo.Message {
	for i, u := range urls {
		m.Attachments = append(m.Attachments, &discordgo.MessageAttachment{
			Filename: fmt.Sprintf("img%d.png", i+1),
			URL:      u,
		})
	}
	return m
}

func mentioning(m *discordgo.Message) *discordgo.Message {
	m.Mentions = append(m.Mentions, &discordgo.User{ID: "bot-user"})
	return m
}

func TestRouteIgnoresBotAuthors(t *testing.T) {
	env := newRouterEnv()
	m := guildMessage("other-bot", "gacha hello")
	m.Author.Bot = true

	assert.True(t, env.route(m))
	assert.Empty(t, env.platform.embeds)
	assert.Empty(t, env.platform.texts)
}

func TestRouteBlockedUserGetsNotice(t *testing.T) {
	env := newRouterEnv()
	env.settings.blocked["user1"] = true

	assert.True(t, env.route(guildMessage("user1", "gacha draw a cat")))

	sent := env.platform.lastEmbed(t)
	assert.Equal(t, "🚫 User Blocked", sent.embed.Title)
	assert.Equal(t, 15*time.Second, sent.deleteAfter)
	assert.Zero(t, env.ai.genCalls)
	assert.Empty(t, env.ai.classified)
}

func TestRoutePausedGuildGetsNotice(t *testing.T) {
	env := newRouterEnv()
	env.settings.paused["guild1"] = true

	assert.True(t, env.route(guildMessage("user1", "gacha hello")))

	sent := env.platform.lastEmbed(t)
	assert.Equal(t, "⏸️ Bot is Currently Paused", sent.embed.Title)
	assert.Equal(t, 30*time.Second, sent.deleteAfter)
}

func TestRouteNotWhitelistedChannelGetsNotice(t *testing.T) {
	env := newRouterEnv()
	env.settings.whitelist["guild1"] = []string{"other-chan"}

	assert.True(t, env.route(guildMessage("user1", "gacha hello")))

	sent := env.platform.lastEmbed(t)
	assert.Equal(t, "🔒 Channel Not Whitelisted", sent.embed.Title)
	assert.Equal(t, 30*time.Second, sent.deleteAfter)
}

func TestRouteDirectMessagesBypassGate(t *testing.T) {
	env := newRouterEnv()
	env.settings.blocked["user1"] = true
	env.ai.chatResponse = "hello!"

	m := guildMessage("user1", "gacha how are you?")
	m.GuildID = ""

	assert.True(t, env.route(m))
	require.Len(t, env.platform.texts, 1)
	assert.Equal(t, "hello!", env.platform.texts[0].content)
}

func TestRoutePrefixedCommandFallsThrough(t *testing.T) {
	env := newRouterEnv()

	assert.False(t, env.route(guildMessage("user1", "+help")))
	assert.False(t, env.route(guildMessage("user1", "/imagine something")))
	assert.Empty(t, env.platform.embeds)
	assert.Empty(t, env.platform.texts)
}

func TestRouteCustomPrefixFallsThrough(t *testing.T) {
	env := newRouterEnv()
	env.settings.prefixes["guild1"] = "?"

	assert.False(t, env.route(guildMessage("user1", "?help")))

	// With a custom prefix set, the default prefix is plain text.
	assert.True(t, env.route(guildMessage("user1", "+hello")))
}

func TestRouteUntriggeredMessageIsDropped(t *testing.T) {
	env := newRouterEnv()

	// Generation phrase, but the channel is inactive and the bot's name
	// does not appear.
	assert.True(t, env.route(guildMessage("user1", "draw a cat")))
	assert.Zero(t, env.ai.genCalls)
	assert.Empty(t, env.platform.embeds)
	assert.Empty(t, env.platform.files)
}

func TestRouteNameKeywordTriggersResponse(t *testing.T) {
	env := newRouterEnv()
	env.ai.chatResponse = "hi there!"

	assert.True(t, env.route(guildMessage("user1", "hey gacha, how is it going?")))
	require.Len(t, env.platform.texts, 1)
	assert.Equal(t, "hi there!", env.platform.texts[0].content)
}

func TestRouteActivatedChannelRespondsToEverything(t *testing.T) {
	env := newRouterEnv()
	env.memory.ActivateChannel("chan1")
	env.ai.chatResponse = "sure thing"

	assert.True(t, env.route(guildMessage("user1", "hello there, anyone around?")))
	require.Len(t, env.platform.texts, 1)
	assert.Equal(t, "sure thing", env.platform.texts[0].content)
}

func TestMentionActivate(t *testing.T) {
	env := newRouterEnv()

	assert.True(t, env.route(mentioning(guildMessage("owner", "activate"))))
	assert.True(t, env.memory.IsChannelActive("chan1"))
	assert.Equal(t, "🟢 Channel Activated", env.platform.lastEmbed(t).embed.Title)

	// The activated channel now responds to plain messages.
	env.ai.chatResponse = "hello!"
	assert.True(t, env.route(guildMessage("user1", "hello")))
	require.Len(t, env.platform.texts, 1)
}

func TestMentionActivateRequiresAuthorization(t *testing.T) {
	env := newRouterEnv()
	env.platform.admin = false

	assert.True(t, env.route(mentioning(guildMessage("user1", "activate"))))
	assert.False(t, env.memory.IsChannelActive("chan1"))
	assert.Equal(t, "🔒 Admin Only Command", env.platform.lastEmbed(t).embed.Title)
}

func TestMentionActivateAllowsGuildAdmins(t *testing.T) {
	env := newRouterEnv()
	env.platform.admin = true

	assert.True(t, env.route(mentioning(guildMessage("user1", "activate"))))
	assert.True(t, env.memory.IsChannelActive("chan1"))
}

func TestMentionDeactivate(t *testing.T) {
	env := newRouterEnv()
	env.memory.ActivateChannel("chan1")

	assert.True(t, env.route(mentioning(guildMessage("owner", "deactivate"))))
	assert.False(t, env.memory.IsChannelActive("chan1"))
	assert.Equal(t, "🔴 Channel Deactivated", env.platform.lastEmbed(t).embed.Title)
}

func TestMentionDeactivateAlreadyInactive(t *testing.T) {
	env := newRouterEnv()

	assert.True(t, env.route(mentioning(guildMessage("owner", "deactivate"))))
	assert.False(t, env.memory.IsChannelActive("chan1"))
	assert.Equal(t, "ℹ️ Already Inactive", env.platform.lastEmbed(t).embed.Title)
}

func TestMentionDeactivateNotHijackedByActivate(t *testing.T) {
	env := newRouterEnv()
	env.memory.ActivateChannel("chan1")

	// "deactivate" contains "activate" as a substring; the keyword scan
	// must still pick the deactivate branch.
	assert.True(t, env.route(mentioning(guildMessage("owner", "please deactivate this channel"))))
	assert.False(t, env.memory.IsChannelActive("chan1"))
}

func TestMentionKeywordPriority(t *testing.T) {
	env := newRouterEnv()
	env.memory.Append(memory.Key("guild1", "chan1"), "user", "remembered")
	env.platform.guildChannels = []string{"chan1"}

	// activate wins over wack; the memory entry must survive.
	assert.True(t, env.route(mentioning(guildMessage("owner", "activate and wack"))))
	assert.True(t, env.memory.IsChannelActive("chan1"))
	assert.True(t, env.memory.HasEntry(memory.Key("guild1", "chan1")))
}

func TestMentionWackClearsMemoryNotActivation(t *testing.T) {
	env := newRouterEnv()
	env.platform.guildChannels = []string{"chan1", "chan2", "chan3"}
	env.memory.ActivateChannel("chan1")
	env.memory.Append(memory.Key("guild1", "chan1"), "user", "one")
	env.memory.Append(memory.Key("guild1", "chan2"), "user", "two")

	assert.True(t, env.route(mentioning(guildMessage("owner", "wack"))))

	assert.False(t, env.memory.HasEntry(memory.Key("guild1", "chan1")))
	assert.False(t, env.memory.HasEntry(memory.Key("guild1", "chan2")))
	assert.True(t, env.memory.IsChannelActive("chan1"), "wack must not deactivate channels")

	sent := env.platform.lastEmbed(t)
	assert.Equal(t, "🔄 Server Reload Complete", sent.embed.Title)
	assert.Contains(t, sent.embed.Fields[1].Value, "2 channels")
}

func TestMentionCommandBypassesWhitelist(t *testing.T) {
	env := newRouterEnv()
	env.settings.whitelist["guild1"] = []string{"other-chan"}

	assert.True(t, env.route(mentioning(guildMessage("owner", "activate"))))
	assert.True(t, env.memory.IsChannelActive("chan1"))
	assert.Equal(t, "🟢 Channel Activated", env.platform.lastEmbed(t).embed.Title)
}

func TestMentionCommandStillBlockedForBlockedUsers(t *testing.T) {
	env := newRouterEnv()
	env.settings.blocked["owner"] = true

	assert.True(t, env.route(mentioning(guildMessage("owner", "activate"))))
	assert.False(t, env.memory.IsChannelActive("chan1"))
	assert.Equal(t, "🚫 User Blocked", env.platform.lastEmbed(t).embed.Title)
}

func TestMentionWithoutKeywordFallsThroughToRouting(t *testing.T) {
	env := newRouterEnv()
	env.ai.chatResponse = "hey!"

	assert.True(t, env.route(mentioning(guildMessage("user1", "gacha say hi"))))
	require.Len(t, env.platform.texts, 1)
	assert.Equal(t, "hey!", env.platform.texts[0].content)
}
