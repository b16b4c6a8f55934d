package meta

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

type fakeGenerator struct {
	meta *core.VideoMeta
	err  error
}

func (f *fakeGenerator) GenerateVideoMeta(ctx context.Context, cfg core.ContentConfig) (*core.VideoMeta, error) {
	return f.meta, f.err
}

func TestBuildPrefersRemote(t *testing.T) {
	remote := &fakeGenerator{meta: &core.VideoMeta{Title: "Remote Title", Description: "d", Tags: "a, b"}}
	b := NewBuilder(remote, rand.New(rand.NewSource(1)))

	m := b.Build(context.Background(), testConfig())
	assert.Equal(t, "Remote Title", m.Title)
}

func TestBuildFallsBackOnRemoteError(t *testing.T) {
	remote := &fakeGenerator{err: errors.New("upstream 500")}
	b := NewBuilder(remote, rand.New(rand.NewSource(1)))

	m := b.Build(context.Background(), testConfig())
	assert.Equal(t, "[AI] pop singing | sunset drive", m.Title)
	assert.NotEmpty(t, m.Description)
}

func TestBuildFallsBackOnEmptyRemoteTitle(t *testing.T) {
	remote := &fakeGenerator{meta: &core.VideoMeta{Title: "   "}}
	b := NewBuilder(remote, rand.New(rand.NewSource(1)))

	m := b.Build(context.Background(), testConfig())
	assert.Equal(t, "[AI] pop singing | sunset drive", m.Title)
}

func TestBuildWithoutRemote(t *testing.T) {
	b := NewBuilder(nil, rand.New(rand.NewSource(1)))

	cfg := testConfig()
	cfg.Video.Action = "playing"
	m := b.Build(context.Background(), cfg)
	assert.Equal(t, "[AI] pop playing music | sunset drive", m.Title)
	assert.Contains(t, m.Description, "Instrument: with guitar")
	assert.Contains(t, m.Description, "#AI #pop #sunset drive")
}

func TestPhrasePoolUsesKnownOpeners(t *testing.T) {
	b := NewBuilder(nil, rand.New(rand.NewSource(3)))
	m := b.Build(context.Background(), testConfig())

	found := false
	for _, o := range openers {
		if len(m.Description) >= len(o) && m.Description[:len(o)] == o {
			found = true
		}
	}
	assert.True(t, found, "description should start with a pool opener: %q", m.Description)
}
