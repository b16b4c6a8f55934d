// Package prompt builds natural-language generation prompts from a content
// configuration.
package prompt

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

const framingClause = "camera framing: medium shot (upper body), avoid extreme close-up, keep stable composition"

// Performance-style clauses keyed by action. Actions without an entry get the
// default clause.
const (
	singingClause = ", character is singing to camera, strict lip-sync to vocals, mouth shapes match audio, holds mic or instrument naturally"
	dancingClause = ", character is dancing and singing with clear lip-sync to the vocals, choreography synced to music, expressive performance, mouth shapes must match the vocals"
	talkingClause = ", character is speaking to camera with clear lip-sync and expressive facial animation, mouth shapes synchronized to speech"
	playingClause = ", focus on instrument performance and hand movement, optional light lip-sync if vocals present"
	defaultClause = ", natural movement, no lip-sync required"
)

// SplitThemePool splits a theme pool on newlines and commas (including the
// ideographic comma) into trimmed, non-empty entries.
func SplitThemePool(pool string) []string {
	parts := strings.FieldsFunc(pool, func(r rune) bool {
		return r == '\n' || r == ',' || r == '、'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Builder turns content configurations into generation prompts.
//
// Mood selection is randomized per call to add prompt variety, so Build is
// deliberately not idempotent. Tests inject a seeded rand to pin the output.
type Builder struct {
	rng *rand.Rand
}

// NewBuilder creates a Builder. A nil rng gets a time-seeded source.
func NewBuilder(rng *rand.Rand) *Builder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Builder{rng: rng}
}

// Build produces the generation prompt for cfg. It never fails; missing
// optional fields fall back to defaults.
func (b *Builder) Build(cfg core.ContentConfig) string {
	var sb strings.Builder

	switch {
	case cfg.Character.Mode == "prompt" && cfg.Character.Prompt != "":
		fmt.Fprintf(&sb, "character description: %s, ", cfg.Character.Prompt)
	case cfg.Character.Mode == "upload" && cfg.Character.ImageURL != "":
		fmt.Fprintf(&sb, "character reference image: %s, ", cfg.Character.ImageURL)
	}

	instrumentText := ""
	if (cfg.Video.Action == "playing" || cfg.Video.Action == "singing") && cfg.Video.Instrument != "" {
		instrumentText = fmt.Sprintf("with %s ", cfg.Video.Instrument)
	}

	moodText := strings.Join(b.pickMoods(cfg.Video.Theme, cfg.Video.ThemePool), ", ")

	fmt.Fprintf(&sb, "action: %s %s, %s mood, %s music style, %s language, ",
		cfg.Video.Action, instrumentText, moodText, cfg.Music.Genre, cfg.Music.Language)
	fmt.Fprintf(&sb, "length %d seconds, aspect ratio %s, ", cfg.Video.Duration, cfg.Video.AspectRatio)
	sb.WriteString(framingClause)

	switch cfg.Video.Action {
	case "singing":
		sb.WriteString(singingClause)
	case "dancing":
		sb.WriteString(dancingClause)
	case "talking":
		sb.WriteString(talkingClause)
	case "playing":
		sb.WriteString(playingClause)
	default:
		sb.WriteString(defaultClause)
	}

	return sb.String()
}

// pickMoods gathers the deduplicated union of the base theme and the theme
// pool, shuffles it, and selects between 2 and min(3, pool size) entries.
func (b *Builder) pickMoods(theme, pool string) []string {
	base := strings.TrimSpace(theme)
	if base == "" {
		base = "vibe"
	}

	seen := map[string]bool{base: true}
	uniq := []string{base}
	for _, t := range SplitThemePool(pool) {
		if !seen[t] {
			seen[t] = true
			uniq = append(uniq, t)
		}
	}

	b.rng.Shuffle(len(uniq), func(i, j int) {
		uniq[i], uniq[j] = uniq[j], uniq[i]
	})

	count := min(3, max(2, len(uniq)))
	if count > len(uniq) {
		count = len(uniq)
	}
	return uniq[:count]
}
