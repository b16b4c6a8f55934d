package sora

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
	"github.com/xingyangJP/youtuberGCP/pkg/meta"
)

const metaSystemPrompt = "You write YouTube metadata for short AI-generated music videos. " +
	"Respond with a JSON object {\"title\",\"description\",\"tags\"} where tags is a comma-separated string. " +
	"Title under 60 characters, ASCII only."

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateVideoMeta asks the chat-completions endpoint for upload metadata.
// Any transport error or malformed response is returned to the caller, which
// falls back to the local builder.
func (c *Client) GenerateVideoMeta(ctx context.Context, cfg core.ContentConfig) (*core.VideoMeta, error) {
	user := fmt.Sprintf("Action: %s. Theme: %s. Genre: %s. Language: %s. Length: %ds. Aspect ratio: %s.",
		meta.ActionLabel(cfg.Video.Action), cfg.Video.Theme, cfg.Music.Genre,
		cfg.Music.Language, cfg.Video.Duration, cfg.Video.AspectRatio)

	payload := map[string]any{
		"model": c.textModel,
		"messages": []map[string]string{
			{"role": "system", "content": metaSystemPrompt},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	var resp chatResponse
	if err := c.postJSON(ctx, c.baseURL+"/chat/completions", payload, &resp); err != nil {
		return nil, fmt.Errorf("sora: generate metadata: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("sora: generate metadata: empty response")
	}

	var m core.VideoMeta
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &m); err != nil {
		return nil, fmt.Errorf("sora: generate metadata: malformed content: %w", err)
	}
	if strings.TrimSpace(m.Title) == "" {
		return nil, fmt.Errorf("sora: generate metadata: missing title")
	}
	return &m, nil
}

var _ meta.TextGenerator = (*Client)(nil)
