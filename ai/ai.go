// Package ai wraps the external AI capabilities the bot dispatches to:
// chat completion, prompt safety classification, image analysis, image
// generation/editing/merging, and web search.
package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Classification results returned by ClassifyPrompt.
const (
	VerdictNSFW = "NSFW"
	VerdictSafe = "SAFE"
)

const classifySystemPrompt = "You are a content safety classifier. " +
	"Reply with exactly one word: NSFW if the prompt requests sexual, " +
	"gory, or otherwise explicit imagery, otherwise SAFE."

const analyzeSystemPrompt = "Describe the image concisely. Mention the " +
	"main subject, setting, and any readable text."

// Message is one chat-completion turn.
type Message struct {
	Role    string
	Content string
}

// Client bundles every AI capability behind one value.
type Client struct {
	oai         *openai.Client
	chatModel   string
	visionModel string
	images      *ImageClient
	search      *SearchClient
}

// Config holds the knobs for constructing a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	VisionModel string
	ImageAPIURL string
	SearchURL   string
	UserAgent   string
}

// NewClient creates a Client from config. ChatModel and VisionModel
// fall back to sensible defaults when empty.
func NewClient(cfg Config) *Client {
	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = chatModel
	}

	return &Client{
		oai:         openai.NewClientWithConfig(oaiCfg),
		chatModel:   chatModel,
		visionModel: visionModel,
		images:      NewImageClient(cfg.ImageAPIURL, cfg.UserAgent),
		search:      NewSearchClient(cfg.SearchURL, cfg.UserAgent),
	}
}

// ChatModel returns the default chat model name.
func (c *Client) ChatModel() string {
	return c.chatModel
}

// ClassifyPrompt runs the NSFW pre-check on a prompt. Returns
// VerdictNSFW or VerdictSafe; callers treat errors as non-blocking.
func (c *Client) ClassifyPrompt(ctx context.Context, text string) (string, error) {
	resp, err := c.oai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   4,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to classify prompt: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("classification returned no choices")
	}

	verdict := strings.ToUpper(strings.TrimSpace(resp.Choices[0].Message.Content))
	if strings.Contains(verdict, VerdictNSFW) {
		return VerdictNSFW, nil
	}
	return VerdictSafe, nil
}

// GenerateChatCompletion calls the chat model with a bounded timeout.
func (c *Client) GenerateChatCompletion(ctx context.Context, model string, messages []Message, timeout time.Duration) (string, error) {
	if model == "" {
		model = c.chatModel
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.oai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: converted,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// AnalyzeImage sends the image to the vision model and returns a
// textual description.
func (c *Client) AnalyzeImage(ctx context.Context, imageData []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(imageData)
	resp, err := c.oai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analyzeSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: "data:image/png;base64," + encoded,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("image analysis failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("image analysis returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateImage forwards to the image client.
func (c *Client) GenerateImage(ctx context.Context, prompt, authorID string) (*GenerationResult, error) {
	return c.images.GenerateImage(ctx, prompt, authorID)
}

// GenerateImageEditWithRetry forwards to the image client.
func (c *Client) GenerateImageEditWithRetry(ctx context.Context, prompt, sourceURL string, seed int) ([]byte, string, error) {
	return c.images.GenerateImageEditWithRetry(ctx, prompt, sourceURL, seed)
}

// GenerateImageMerge forwards to the image client.
func (c *Client) GenerateImageMerge(ctx context.Context, prompt string, sourceURLs []string) ([]byte, string, error) {
	return c.images.GenerateImageMerge(ctx, prompt, sourceURLs)
}

// DownloadImage forwards to the image client.
func (c *Client) DownloadImage(ctx context.Context, url string) ([]byte, error) {
	return c.images.Download(ctx, url)
}

// GetSearchResults forwards to the search client.
func (c *Client) GetSearchResults(ctx context.Context, query string) (string, error) {
	return c.search.GetSearchResults(ctx, query)
}
