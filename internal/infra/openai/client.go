package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ImageGenerator produces one image for a prompt. The HTTP client below is
// the production implementation; tests substitute a fake.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req GenerateRequest) (*GeneratedImage, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

type GenerateRequest struct {
	Prompt  string
	Quality string // "standard" | "hd"
	Size    string // defaults to 1024x1024
}

type GeneratedImage struct {
	URL           string
	RevisedPrompt string
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		// Image generation is slow; well above the usual API timeout.
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type generationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality,omitempty"`
}

type generationResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *Client) GenerateImage(ctx context.Context, req GenerateRequest) (*GeneratedImage, error) {
	if c.apiKey == "" {
		return nil, errors.New("openai api key not configured")
	}

	size := req.Size
	if size == "" {
		size = "1024x1024"
	}

	payload, err := json.Marshal(generationRequest{
		Model:   "dall-e-3",
		Prompt:  req.Prompt,
		N:       1,
		Size:    size,
		Quality: req.Quality,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	var out generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("openai response decode failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("openai error (%s): %s", out.Error.Type, out.Error.Message)
		}
		return nil, fmt.Errorf("openai returned status %d", resp.StatusCode)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return nil, errors.New("no image generated")
	}

	return &GeneratedImage{
		URL:           out.Data[0].URL,
		RevisedPrompt: out.Data[0].RevisedPrompt,
	}, nil
}

// FetchImage downloads the generated image from OpenAI's short-lived URL.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
