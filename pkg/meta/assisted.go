package meta

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

// TextGenerator is the optional remote AI collaborator producing metadata
// from a content configuration. Implementations are best-effort; any error
// or empty result triggers the local fallback.
type TextGenerator interface {
	GenerateVideoMeta(ctx context.Context, cfg core.ContentConfig) (*core.VideoMeta, error)
}

var openers = []string{
	"Dive into this AI-crafted short.",
	"Experience a fresh AI-generated clip.",
	"Here is a brand-new AI-powered short.",
}

var closers = []string{
	"Enjoy the vibes and leave a comment!",
	"Hope you like it—subscribe for more AI shorts.",
	"Turn on captions and enjoy the ride.",
}

// Builder is the AI-assisted metadata builder. It consults the remote
// generator first and falls back to a phrase-pool variant built locally.
type Builder struct {
	remote TextGenerator
	rng    *rand.Rand
	logger *slog.Logger
}

// NewBuilder creates a Builder. remote may be nil, in which case only the
// phrase-pool variant is used. A nil rng gets a time-seeded source.
func NewBuilder(remote TextGenerator, rng *rand.Rand) *Builder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Builder{remote: remote, rng: rng, logger: slog.Default()}
}

// SetLogger overrides the default logger.
func (b *Builder) SetLogger(l *slog.Logger) { b.logger = l }

// Build produces metadata for cfg. It never fails: remote errors and
// malformed responses degrade to the local phrase-pool variant.
func (b *Builder) Build(ctx context.Context, cfg core.ContentConfig) core.VideoMeta {
	if b.remote != nil {
		m, err := b.remote.GenerateVideoMeta(ctx, cfg)
		if err == nil && m != nil && strings.TrimSpace(m.Title) != "" {
			return *m
		}
		if err != nil {
			b.logger.Warn("remote metadata generation failed, using local fallback", "error", err)
		}
	}
	return b.buildPhrasePool(cfg)
}

// buildPhrasePool is the assisted builder's local variant: deterministic
// except for the opener/closer phrases drawn from fixed pools.
func (b *Builder) buildPhrasePool(cfg core.ContentConfig) core.VideoMeta {
	theme := safeTheme(cfg)
	genre := safeGenre(cfg)
	action := cfg.Video.Action
	if action == "" {
		action = "video"
	}

	instrumentLine := ""
	if instr := instrumentFor(cfg); instr != "" {
		instrumentLine = fmt.Sprintf("\nInstrument: with %s", instr)
	}

	intro := openers[b.rng.Intn(len(openers))]
	outro := closers[b.rng.Intn(len(closers))]

	title := fmt.Sprintf("[AI] %s %s | %s", genre, ActionLabel(action), theme)
	description := fmt.Sprintf(
		"%s\n\nTheme: %s\nGenre: %s%s\nLength: %s\nFormat: %s\n\n%s\n\n#AI #%s #%s #music #shorts #AIGenerated",
		intro, theme, genre, instrumentLine, lengthText(cfg), formatText(cfg), outro, genre, theme)

	return core.VideoMeta{
		Title:       title,
		Description: description,
		Tags:        buildTags(cfg, genre, theme),
	}
}
