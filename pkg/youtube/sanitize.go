package youtube

import (
	"strings"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
	"github.com/xingyangJP/youtuberGCP/pkg/sanitize"
)

// Platform limits enforced on upload metadata.
const (
	MaxTitleLength       = 60
	MaxDescriptionLength = 4000
	MaxTags              = 8
	MaxTagLength         = 30
)

// Fallbacks used when title or description are empty after trimming.
const (
	fallbackTitle       = "Test Upload from API"
	fallbackDescription = "AI generated short video."
)

// SanitizeMeta enforces the platform's metadata limits: title capped at 60,
// description at 4000, at most 8 tags of 30 characters each, with fixed
// defaults for empty title/description.
func SanitizeMeta(m core.VideoMeta) (title, description string, tags []string) {
	title = strings.TrimSpace(m.Title)
	if title == "" {
		title = fallbackTitle
	}
	title = sanitize.Truncate(title, MaxTitleLength)

	description = strings.TrimSpace(m.Description)
	if description == "" {
		description = fallbackDescription
	}
	description = sanitize.Truncate(description, MaxDescriptionLength)

	for _, t := range strings.Split(m.Tags, ",") {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		tags = append(tags, sanitize.Truncate(t, MaxTagLength))
		if len(tags) == MaxTags {
			break
		}
	}
	return title, description, tags
}
