package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultImageAPIURL = "https://image.pollinations.ai"

// ErrNSFW is the sentinel returned when the image backend refuses a
// prompt for content-policy reasons.
var ErrNSFW = errors.New("prompt rejected as NSFW")

const (
	editRetries   = 3
	editRetryWait = 2 * time.Second
)

// GenerationResult is the outcome of one text-to-image call.
type GenerationResult struct {
	Data     []byte
	Seed     int
	FinalURL string
	Params   map[string]string
}

// ImageClient calls the image generation backend.
type ImageClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewImageClient creates an image generation client. An empty baseURL
// falls back to the public endpoint.
func NewImageClient(baseURL, userAgent string) *ImageClient {
	if baseURL == "" {
		baseURL = defaultImageAPIURL
	}
	return &ImageClient{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// GenerateImage renders an image from a text prompt. The author ID is
// forwarded as an attribution parameter. Returns ErrNSFW when the
// backend refuses the prompt.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt, authorID string) (*GenerationResult, error) {
	seed := randomSeed()
	params := map[string]string{
		"model": "flux",
		"seed":  fmt.Sprintf("%d", seed),
	}

	endpoint := fmt.Sprintf("%s/prompt/%s?model=flux&seed=%d&nologo=true&referrer=%s",
		c.baseURL, url.PathEscape(prompt), seed, url.QueryEscape(authorID))

	data, finalURL, err := c.fetchImage(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return &GenerationResult{
		Data:     data,
		Seed:     seed,
		FinalURL: finalURL,
		Params:   params,
	}, nil
}

// GenerateImageEditWithRetry edits a source image with the prompt,
// retrying transient failures. Content-policy rejections are not
// retried.
func (c *ImageClient) GenerateImageEditWithRetry(ctx context.Context, prompt, sourceURL string, seed int) ([]byte, string, error) {
	endpoint := fmt.Sprintf("%s/prompt/%s?model=kontext&seed=%d&nologo=true&image=%s",
		c.baseURL, url.PathEscape(prompt), seed, url.QueryEscape(sourceURL))

	var lastErr error
	for attempt := 1; attempt <= editRetries; attempt++ {
		data, finalURL, err := c.fetchImage(ctx, endpoint)
		if err == nil {
			return data, finalURL, nil
		}
		if errors.Is(err, ErrNSFW) || ctx.Err() != nil {
			return nil, "", err
		}
		lastErr = err

		if attempt < editRetries {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(time.Duration(attempt) * editRetryWait):
			}
		}
	}

	return nil, "", fmt.Errorf("image edit failed after %d attempts: %w", editRetries, lastErr)
}

// GenerateImageMerge combines two or more source images guided by the
// prompt.
func (c *ImageClient) GenerateImageMerge(ctx context.Context, prompt string, sourceURLs []string) ([]byte, string, error) {
	if len(sourceURLs) < 2 {
		return nil, "", fmt.Errorf("merge requires at least 2 images, got %d", len(sourceURLs))
	}

	endpoint := fmt.Sprintf("%s/prompt/%s?model=kontext&seed=%d&nologo=true&image=%s",
		c.baseURL, url.PathEscape(prompt), randomSeed(), url.QueryEscape(strings.Join(sourceURLs, ",")))

	return c.fetchImageWithRetry(ctx, endpoint)
}

// Download fetches raw image bytes from an arbitrary URL.
func (c *ImageClient) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return data, nil
}

func (c *ImageClient) fetchImageWithRetry(ctx context.Context, endpoint string) ([]byte, string, error) {
	var lastErr error
	for attempt := 1; attempt <= editRetries; attempt++ {
		data, finalURL, err := c.fetchImage(ctx, endpoint)
		if err == nil {
			return data, finalURL, nil
		}
		if errors.Is(err, ErrNSFW) || ctx.Err() != nil {
			return nil, "", err
		}
		lastErr = err

		if attempt < editRetries {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(time.Duration(attempt) * editRetryWait):
			}
		}
	}
	return nil, "", fmt.Errorf("image request failed after %d attempts: %w", editRetries, lastErr)
}

func (c *ImageClient) fetchImage(ctx context.Context, endpoint string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isContentRejection(resp.StatusCode, body) {
			return nil, "", ErrNSFW
		}
		return nil, "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("API returned empty image")
	}

	finalURL := endpoint
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return data, finalURL, nil
}

func isContentRejection(status int, body []byte) bool {
	if status != http.StatusBadRequest && status != http.StatusForbidden {
		return false
	}
	lower := strings.ToLower(string(body))
	return strings.Contains(lower, "nsfw") || strings.Contains(lower, "content policy") ||
		strings.Contains(lower, "safety")
}

func randomSeed() int {
	return 100000 + rand.Intn(900000)
}
