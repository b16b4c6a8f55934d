package youtube

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

func TestSanitizeMetaPassThrough(t *testing.T) {
	title, desc, tags := SanitizeMeta(core.VideoMeta{
		Title:       "[AI] pop singing | sunset drive",
		Description: "A short clip.",
		Tags:        "AI generated, pop, Shorts",
	})
	assert.Equal(t, "[AI] pop singing | sunset drive", title)
	assert.Equal(t, "A short clip.", desc)
	assert.Equal(t, []string{"AI generated", "pop", "Shorts"}, tags)
}

func TestSanitizeMetaFallbacks(t *testing.T) {
	title, desc, tags := SanitizeMeta(core.VideoMeta{Title: "  ", Description: ""})
	assert.Equal(t, "Test Upload from API", title)
	assert.Equal(t, "AI generated short video.", desc)
	assert.Empty(t, tags)
}

func TestSanitizeMetaTruncation(t *testing.T) {
	title, desc, _ := SanitizeMeta(core.VideoMeta{
		Title:       strings.Repeat("t", 100),
		Description: strings.Repeat("d", 5000),
	})
	assert.Len(t, title, MaxTitleLength)
	assert.Len(t, desc, MaxDescriptionLength)
}

func TestSanitizeMetaTagLimits(t *testing.T) {
	parts := make([]string, 12)
	for i := range parts {
		parts[i] = strings.Repeat("x", 40)
	}
	_, _, tags := SanitizeMeta(core.VideoMeta{Title: "t", Tags: strings.Join(parts, ", ")})

	assert.Len(t, tags, MaxTags)
	for _, tag := range tags {
		assert.LessOrEqual(t, len(tag), MaxTagLength)
	}
}

func TestSanitizeMetaSkipsEmptyTags(t *testing.T) {
	_, _, tags := SanitizeMeta(core.VideoMeta{Title: "t", Tags: "a, , b,,c"})
	assert.Equal(t, []string{"a", "b", "c"}, tags)
}
