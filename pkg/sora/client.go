// Package sora is a minimal client for the OpenAI video-generation API and
// the chat-completions endpoint used for metadata generation.
package sora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the video-generation model.
	DefaultModel = "sora-2"
)

// Video statuses reported by the provider.
const (
	VideoQueued     = "queued"
	VideoInProgress = "in_progress"
	VideoCompleted  = "completed"
	VideoFailed     = "failed"
)

// Video is the provider's view of a submitted generation job.
type Video struct {
	ID     string    `json:"id"`
	Status string    `json:"status"`
	Error  *APIError `json:"error,omitempty"`
}

// APIError carries the provider's failure detail.
type APIError struct {
	Message string `json:"message"`
}

// CreateVideoRequest are the parameters of a generation submission. Size and
// Seconds must already be mapped to the provider's allowed values.
type CreateVideoRequest struct {
	Prompt  string
	Size    string
	Seconds string
}

// Config configures a Client. Zero fields get defaults.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	TextModel  string
	HTTPClient *http.Client
}

// Client calls the provider. All methods honor the request context and the
// underlying HTTP client timeout, so every call has a bounded wait.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	textModel  string
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		httpClient: cfg.HTTPClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		textModel:  cfg.TextModel,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.textModel == "" {
		c.textModel = "gpt-4o-mini"
	}
	return c
}

// CreateVideo submits a generation request and returns the provider's opaque
// handle wrapped in a Video.
func (c *Client) CreateVideo(ctx context.Context, req CreateVideoRequest) (*Video, error) {
	payload := map[string]string{
		"model":   c.model,
		"prompt":  req.Prompt,
		"size":    req.Size,
		"seconds": req.Seconds,
	}
	var video Video
	if err := c.postJSON(ctx, c.baseURL+"/videos", payload, &video); err != nil {
		return nil, fmt.Errorf("sora: create video: %w", err)
	}
	return &video, nil
}

// RetrieveVideo fetches the current status of a submitted generation.
func (c *Client) RetrieveVideo(ctx context.Context, id string) (*Video, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+id, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sora: retrieve video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sora: retrieve video: status %d: %s", resp.StatusCode, snippet(resp.Body))
	}

	var video Video
	if err := json.NewDecoder(resp.Body).Decode(&video); err != nil {
		return nil, fmt.Errorf("sora: retrieve video: decode: %w", err)
	}
	return &video, nil
}

// VideoContent streams the finished asset. The caller must close the reader.
func (c *Client) VideoContent(ctx context.Context, id string) (io.ReadCloser, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos/"+id+"/content", nil)
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("sora: fetch content: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, "", fmt.Errorf("sora: fetch content: status %d: %s", resp.StatusCode, snippet(resp.Body))
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "video/mp4"
	}
	return resp.Body, ct, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet(resp.Body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// snippet reads a truncated diagnostic excerpt from a response body.
func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 200))
	return string(b)
}
