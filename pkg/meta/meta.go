// Package meta builds hosting-platform metadata (title, description, tags)
// from a content configuration.
//
// Two builders share the core.VideoMeta shape: BuildLocal is deterministic
// and network-free, Builder.Build prefers an AI text-generation collaborator
// and falls back to a local phrase-pool variant on any failure.
package meta

import (
	"fmt"
	"strings"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
	"github.com/xingyangJP/youtuberGCP/pkg/sanitize"
)

// fallbackToken replaces theme/genre values the upload platform would reject.
const fallbackToken = "vibe"

// actionLabels maps actions to reader-facing labels.
var actionLabels = map[string]string{
	"singing":           "singing",
	"dancing":           "dancing",
	"talking":           "talking",
	"playing":           "playing music",
	"behind-the-scenes": "behind-the-scenes on set",
	"art":               "art creation",
	"sport":             "sports trick",
	"cooking":           "cooking",
}

// ActionLabel returns the display label for an action, or "video" for
// unknown actions.
func ActionLabel(action string) string {
	if l, ok := actionLabels[action]; ok {
		return l
	}
	return "video"
}

func safeTheme(cfg core.ContentConfig) string {
	raw := cfg.Video.Theme
	if raw == "" {
		raw = fallbackToken
	}
	return sanitize.ASCIIOr(sanitize.FirstSegment(raw, fallbackToken), fallbackToken)
}

func safeGenre(cfg core.ContentConfig) string {
	raw := cfg.Music.Genre
	if raw == "" {
		raw = "pop"
	}
	return sanitize.ASCIIOr(raw, fallbackToken)
}

func lengthText(cfg core.ContentConfig) string {
	d := cfg.Video.Duration
	if d == 0 {
		d = 8
	}
	return fmt.Sprintf("%ds", d)
}

func formatText(cfg core.ContentConfig) string {
	if cfg.Video.AspectRatio == "9:16" {
		return "YouTube Shorts (9:16)"
	}
	return "YouTube (16:9)"
}

func formatTag(cfg core.ContentConfig) string {
	if cfg.Video.AspectRatio == "9:16" {
		return "Shorts"
	}
	return "YouTube"
}

func languageTag(cfg core.ContentConfig) string {
	if cfg.Music.Language == "japanese" {
		return "Japanese"
	}
	return "English"
}

func instrumentFor(cfg core.ContentConfig) string {
	if (cfg.Video.Action == "playing" || cfg.Video.Action == "singing") && cfg.Video.Instrument != "" {
		return cfg.Video.Instrument
	}
	return ""
}

func buildTags(cfg core.ContentConfig, genre, theme string) string {
	tags := []string{"AI generated", "AI music", genre, theme}
	if instr := instrumentFor(cfg); instr != "" {
		tags = append(tags, instr)
	}
	tags = append(tags, formatTag(cfg), languageTag(cfg))

	for i, t := range tags {
		tags[i] = sanitize.ASCIIOr(t, "AI")
	}
	return strings.Join(tags, ", ")
}

// BuildLocal is the deterministic local metadata builder: two calls with the
// same configuration produce byte-identical output.
func BuildLocal(cfg core.ContentConfig) core.VideoMeta {
	action := cfg.Video.Action
	if action == "" {
		action = "video"
	}
	theme := safeTheme(cfg)
	genre := safeGenre(cfg)

	instrumentLine := ""
	if instr := instrumentFor(cfg); instr != "" {
		instrumentLine = fmt.Sprintf("Instrument: with %s\n", instr)
	}

	title := fmt.Sprintf("[AI] %s %s | %s", genre, action, theme)
	description := fmt.Sprintf(
		"AI-generated short.\n\nTheme: %s\nGenre: %s\n%sLength: %s\nFormat: %s\n\n#AI #%s #%s #music #shorts #AIGenerated",
		theme, genre, instrumentLine, lengthText(cfg), formatText(cfg), genre, theme)

	return core.VideoMeta{
		Title:       title,
		Description: description,
		Tags:        buildTags(cfg, genre, theme),
	}
}
