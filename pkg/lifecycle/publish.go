package lifecycle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
	"github.com/xingyangJP/youtuberGCP/pkg/meta"
)

// proxyURLPattern recognizes the durable content URL embedding the provider
// handle, so publish can fetch the asset straight from the provider.
var proxyURLPattern = regexp.MustCompile(`/api/video/(.+)/content`)

// ContentFetcher fetches an asset from an arbitrary (non-proxy) URL.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, string, int, error)
}

type httpFetcher struct {
	client *http.Client
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, string, int, error) {
	if f.client == nil {
		f.client = &http.Client{Timeout: 2 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	return resp.Body, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

// Publish uploads a completed job's asset to the hosting platform and
// returns the assigned content id. It is idempotent for jobs already marked
// uploaded. The asset comes from the provider when the job's URL is the
// internal proxy form, otherwise from the URL as given, in which case the
// response must claim a video content type.
func (m *Manager) Publish(ctx context.Context, job *core.Job) (string, error) {
	cfg := job.ContentConfig()
	if cfg.YouTubeUploaded {
		return cfg.YouTubeVideoID, nil
	}

	videoURL := job.VideoURL
	if videoURL == "" && cfg.VideoID != "" {
		videoURL = m.proxyURL(cfg.VideoID)
	}
	if videoURL == "" {
		return "", fmt.Errorf("lifecycle: job %s has no video URL", job.ID)
	}

	data, err := m.fetchAsset(ctx, videoURL)
	if err != nil {
		return "", err
	}

	videoMeta := cfg.YouTube
	if videoMeta == nil {
		local := meta.BuildLocal(cfg)
		videoMeta = &local
	}

	privacy := "public"
	if cfg.Schedule != nil && cfg.Schedule.Privacy != "" {
		privacy = cfg.Schedule.Privacy
	}

	return m.uploader.Upload(ctx, data, *videoMeta, privacy)
}

func (m *Manager) fetchAsset(ctx context.Context, videoURL string) ([]byte, error) {
	if match := proxyURLPattern.FindStringSubmatch(videoURL); match != nil {
		rc, _, err := m.provider.VideoContent(ctx, match[1])
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	rc, contentType, status, err := m.fetcher.Fetch(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: fetch video: %w", err)
	}
	defer rc.Close()

	if status != http.StatusOK {
		return nil, fmt.Errorf("lifecycle: fetch video: status %d", status)
	}
	if !strings.Contains(contentType, "video") {
		body, _ := io.ReadAll(io.LimitReader(rc, 200))
		return nil, fmt.Errorf("lifecycle: unexpected content-type %q (status %d): %s",
			contentType, status, string(body))
	}
	return io.ReadAll(rc)
}

// RetryResult summarizes one publish-retry sweep.
type RetryResult struct {
	Scanned   int `json:"scanned"`
	Retried   int `json:"retried"`
	Succeeded int `json:"succeeded"`
}

// RetryUploads scans the 20 newest completed jobs, filters to those whose
// schedule asked for publishing, that have metadata and are not yet
// uploaded, and retries up to 5. A failed upload only annotates the config
// with the last error; the job never leaves completed.
func (m *Manager) RetryUploads(ctx context.Context) (*RetryResult, error) {
	jobs, err := m.store.QueryCompletedDesc(ctx, retryScanSize)
	if err != nil {
		return nil, err
	}

	result := &RetryResult{Scanned: len(jobs)}
	for _, job := range jobs {
		if result.Retried == retryBatchSize {
			break
		}
		cfg := job.ContentConfig()
		if cfg.Schedule == nil || !cfg.Schedule.Enabled || cfg.YouTube == nil || cfg.YouTubeUploaded {
			continue
		}
		result.Retried++
		if m.publishAndRecord(ctx, job, cfg) {
			result.Succeeded++
		}
	}
	return result, nil
}
