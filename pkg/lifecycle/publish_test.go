package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

type fakeFetcher struct {
	body        []byte
	contentType string
	status      int
	err         error
	lastURL     string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, string, int, error) {
	f.lastURL = url
	if f.err != nil {
		return nil, "", 0, f.err
	}
	return io.NopCloser(bytes.NewReader(f.body)), f.contentType, f.status, nil
}

func completedJob(t *testing.T, store *fakeStore, m *Manager, mutate func(*core.ContentConfig)) *core.Job {
	t.Helper()
	cfg := portraitConfig()
	cfg.Schedule = &core.ScheduleContext{Enabled: true}
	cfg.YouTube = &core.VideoMeta{Title: "Short", Description: "d", Tags: "a"}
	if mutate != nil {
		mutate(&cfg)
	}
	id, err := m.Create(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, store.UpdateJob(context.Background(), id, map[string]any{
		"status": core.StatusCompleted,
	}))
	job, err := store.GetJob(context.Background(), id)
	require.NoError(t, err)
	return job
}

func TestPublishIdempotentWhenAlreadyUploaded(t *testing.T) {
	store := newFakeStore()
	uploader := &fakeUploader{videoID: "new_id"}
	m := newTestManager(store, &fakeProvider{}, uploader)

	job := completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.YouTubeUploaded = true
		cfg.YouTubeVideoID = "yt_existing"
	})

	id, err := m.Publish(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "yt_existing", id)
	assert.Zero(t, uploader.calls)
}

func TestPublishFetchesProxyURLFromProvider(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{content: []byte("mp4-bytes")}
	uploader := &fakeUploader{videoID: "yt_1"}
	m := newTestManager(store, provider, uploader)

	job := completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.VideoID = "video_abc"
	})
	job.VideoURL = "https://app.example.com/api/video/video_abc/content"

	id, err := m.Publish(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "yt_1", id)
	assert.Equal(t, []byte("mp4-bytes"), uploader.lastData)
}

func TestPublishDerivesProxyURLFromVideoID(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{content: []byte("mp4")}
	uploader := &fakeUploader{videoID: "yt_1"}
	m := newTestManager(store, provider, uploader)

	job := completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.VideoID = "video_xyz"
	})
	job.VideoURL = ""

	_, err := m.Publish(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, uploader.calls)
}

func TestPublishFailsWithoutAnyURL(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeProvider{}, &fakeUploader{})

	job := completedJob(t, store, m, nil)
	job.VideoURL = ""

	_, err := m.Publish(context.Background(), job)
	assert.Error(t, err)
}

func TestPublishExternalURLRequiresVideoContentType(t *testing.T) {
	store := newFakeStore()
	uploader := &fakeUploader{videoID: "yt_1"}
	m := newTestManager(store, &fakeProvider{}, uploader)

	fetcher := &fakeFetcher{
		body:        []byte(`{"error":"not found"}`),
		contentType: "application/json",
		status:      http.StatusOK,
	}
	m.SetContentFetcher(fetcher)

	job := completedJob(t, store, m, nil)
	job.VideoURL = "https://cdn.example.com/clip.mp4"

	_, err := m.Publish(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application/json")
	assert.Contains(t, err.Error(), "not found")
	assert.Zero(t, uploader.calls)
}

func TestPublishExternalURLRejectsNon200(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store, &fakeProvider{}, &fakeUploader{})

	fetcher := &fakeFetcher{body: nil, contentType: "video/mp4", status: http.StatusBadGateway}
	m.SetContentFetcher(fetcher)

	job := completedJob(t, store, m, nil)
	job.VideoURL = "https://cdn.example.com/clip.mp4"

	_, err := m.Publish(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestPublishExternalURLSuccess(t *testing.T) {
	store := newFakeStore()
	uploader := &fakeUploader{videoID: "yt_9"}
	m := newTestManager(store, &fakeProvider{}, uploader)

	fetcher := &fakeFetcher{body: []byte("external-bytes"), contentType: "video/mp4", status: http.StatusOK}
	m.SetContentFetcher(fetcher)

	job := completedJob(t, store, m, nil)
	job.VideoURL = "https://cdn.example.com/clip.mp4"

	id, err := m.Publish(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "yt_9", id)
	assert.Equal(t, "https://cdn.example.com/clip.mp4", fetcher.lastURL)
	assert.Equal(t, []byte("external-bytes"), uploader.lastData)
}

func TestPublishDefaultsPrivacyToPublic(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{content: []byte("mp4")}
	uploader := &fakeUploader{videoID: "yt_1"}
	m := newTestManager(store, provider, uploader)

	job := completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.VideoID = "video_abc"
		cfg.Schedule = &core.ScheduleContext{Enabled: true}
	})

	_, err := m.Publish(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "public", uploader.lastPrivacy)
}

func TestRetryUploadsFiltersAndRecords(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{content: []byte("mp4")}
	uploader := &fakeUploader{videoID: "yt_retry"}
	m := newTestManager(store, provider, uploader)

	// Eligible: completed, schedule enabled, metadata present, not uploaded.
	eligible := completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.VideoID = "video_1"
	})

	// Already uploaded: skipped.
	completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.VideoID = "video_2"
		cfg.YouTubeUploaded = true
		cfg.YouTubeVideoID = "yt_done"
	})

	// No schedule context: skipped.
	completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.VideoID = "video_3"
		cfg.Schedule = nil
	})

	result, err := m.RetryUploads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.Retried)
	assert.Equal(t, 1, result.Succeeded)

	job, _ := store.GetJob(context.Background(), eligible.ID)
	cfg := job.ContentConfig()
	assert.True(t, cfg.YouTubeUploaded)
	assert.Equal(t, "yt_retry", cfg.YouTubeVideoID)
}

func TestRetryUploadsFailureNeverFailsJob(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{content: []byte("mp4")}
	uploader := &fakeUploader{err: errors.New("still broken")}
	m := newTestManager(store, provider, uploader)

	job := completedJob(t, store, m, func(cfg *core.ContentConfig) {
		cfg.VideoID = "video_1"
	})

	result, err := m.RetryUploads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Retried)
	assert.Equal(t, 0, result.Succeeded)

	got, _ := store.GetJob(context.Background(), job.ID)
	assert.Equal(t, core.StatusCompleted, got.Status)
	cfg := got.ContentConfig()
	assert.False(t, cfg.YouTubeUploaded)
	assert.Contains(t, cfg.YouTubeUploadError, "still broken")
}

func TestRetryUploadsCapsBatch(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{content: []byte("mp4")}
	uploader := &fakeUploader{videoID: "yt"}
	m := newTestManager(store, provider, uploader)

	for i := 0; i < 7; i++ {
		completedJob(t, store, m, func(cfg *core.ContentConfig) {
			cfg.VideoID = "video_n"
		})
	}

	result, err := m.RetryUploads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Scanned)
	assert.Equal(t, 5, result.Retried)
}
