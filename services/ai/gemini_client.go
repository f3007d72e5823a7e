package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var ErrNotConfigured = errors.New("gemini api key not configured")

// GeminiClient resolves free-text descriptions to a single canonical title
// via the Gemini generateContent API.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	httpc   *http.Client
	limiter *rate.Limiter
}

func NewGeminiClient(apiKey string, httpc *http.Client) *GeminiClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: geminiBaseURL,
		model:   "gemini-2.0-flash",
		httpc:   httpc,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// SuggestTitle asks Gemini for the single best-guess canonical title matching
// the free-text description. One call, no streaming; the caller renders the
// result as a "did you mean" prompt only.
func (c *GeminiClient) SuggestTitle(ctx context.Context, freeText string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	freeText = strings.TrimSpace(freeText)
	if freeText == "" {
		return "", errors.New("empty query")
	}

	prompt := fmt.Sprintf(`You are a movie and TV show identification engine. A user describes a title they cannot name:

"%s"

Respond with ONLY the exact canonical title of the single most likely movie or TV show, no other text, no quotes, no punctuation around it.`, freeText)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.2,
			MaxOutputTokens: 64,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("[gemini] http error (attempt %d/3): %v", attempt+1, err)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("gemini request failed: status %d", resp.StatusCode)
			log.Printf("[gemini] rate limited or server error (attempt %d/3): status %d", attempt+1, resp.StatusCode)
			time.Sleep(backoff)
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(body))
		}

		var geminiResp geminiResponse
		err = json.NewDecoder(resp.Body).Decode(&geminiResp)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("decode gemini response: %w", err)
		}

		if geminiResp.Error != nil {
			return "", fmt.Errorf("gemini API error: %s", geminiResp.Error.Message)
		}

		if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
			return "", errors.New("gemini returned empty response")
		}

		title := cleanTitle(geminiResp.Candidates[0].Content.Parts[0].Text)
		if title == "" {
			return "", errors.New("gemini returned empty title")
		}
		return title, nil
	}

	return "", fmt.Errorf("gemini request failed after 3 attempts: %w", lastErr)
}

// cleanTitle strips markdown fences, surrounding quotes, and trailing lines
// that models sometimes wrap around a plain-text answer.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}
