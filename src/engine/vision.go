package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	maxRetries      = 3
	initialDelay    = 1 * time.Second
)

// recognitionPrompt asks the vision model for machine-readable output.
// Confidence is the model's own estimate per line; the coordinator applies
// the threshold.
const recognitionPrompt = `Extract all readable text from this image.
Respond with ONLY a JSON object, no markdown, no explanations:
{"lines":[{"text":"...","confidence":0.0-1.0,"box":[x,y,width,height]}]}
Order lines top-to-bottom, left-to-right as visually laid out.
If the image contains no readable text (photo, drawing, UI chrome), respond with:
{"non_text":true}`

// Config configures the vision client.
type Config struct {
	APIKey    string
	Model     string
	Providers []string
	Endpoint  string
}

// VisionClient implements Engine against an OpenRouter-compatible chat
// completions endpoint with a vision-capable model.
type VisionClient struct {
	cfg    Config
	client *http.Client
}

func NewVisionClient(cfg Config) (*VisionClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return &VisionClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 45 * time.Second},
	}, nil
}

// Chat completions request/response structures.
type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type providerPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []chatMessage        `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *providerPreferences `json:"provider,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // string or number depending on provider
}

// lineResult is the JSON shape the prompt requests from the model.
type recognitionPayload struct {
	Lines   []lineResult `json:"lines"`
	NonText bool         `json:"non_text"`
}

type lineResult struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box"`
}

func (v *VisionClient) providerPrefs() *providerPreferences {
	if len(v.cfg.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &providerPreferences{
		Order:          v.cfg.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// Recognize submits the PNG image and parses the model's JSON reply.
// Transient failures are retried with backoff; the context deadline wins.
func (v *VisionClient) Recognize(ctx context.Context, imageData []byte) (Output, error) {
	request := chatRequest{
		Model: v.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "text", Text: recognitionPrompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(imageData)),
					}},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
		Provider:    v.providerPrefs(),
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(initialDelay) * (1.5 * float64(attempt)))
			select {
			case <-ctx.Done():
				return Output{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		content, err := v.makeRequest(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return Output{}, ctx.Err()
			}
			lastErr = err
			log.Printf("Engine: attempt %d failed: %v", attempt+1, err)
			continue
		}

		out, err := parseRecognition(content)
		if err != nil {
			lastErr = err
			log.Printf("Engine: attempt %d returned unparseable content: %v", attempt+1, err)
			continue
		}
		return out, nil
	}
	return Output{}, fmt.Errorf("recognition failed after %d attempts: %w", maxRetries, lastErr)
}

func (v *VisionClient) makeRequest(ctx context.Context, request chatRequest) (string, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", v.cfg.APIKey))
	req.Header.Set("X-Title", "Circle Search")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}
	return response.Choices[0].Message.Content, nil
}

// parseRecognition decodes the model's reply into an Output. Models wrap
// JSON in markdown fences often enough that we strip them first.
func parseRecognition(content string) (Output, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var payload recognitionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return Output{}, fmt.Errorf("invalid recognition payload: %w", err)
	}

	out := Output{NonText: payload.NonText}
	for _, l := range payload.Lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		line := Line{Text: text, Confidence: l.Confidence}
		if len(l.Box) == 4 {
			line.Box = Box{
				X:      int(l.Box[0]),
				Y:      int(l.Box[1]),
				Width:  int(l.Box[2]),
				Height: int(l.Box[3]),
			}
		}
		out.Lines = append(out.Lines, line)
	}
	return out, nil
}

// Ping verifies the endpoint accepts our credentials with a minimal
// text-only request. Used as a startup check.
func (v *VisionClient) Ping(ctx context.Context) error {
	request := chatRequest{
		Model: v.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: []chatContent{{Type: "text", Text: "ping"}}},
		},
		Temperature: 0,
		MaxTokens:   1,
	}
	_, err := v.makeRequest(ctx, request)
	return err
}
