// Package lifecycle orchestrates the job state machine: creation, dispatch to
// the generation provider, completion polling, and publishing.
//
// States move pending -> processing -> completed | failed, with a direct
// pending -> failed edge for dispatch-time errors. Transitions are monotone;
// no state is re-entered once left.
package lifecycle

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
	"github.com/xingyangJP/youtuberGCP/pkg/meta"
	"github.com/xingyangJP/youtuberGCP/pkg/prompt"
	"github.com/xingyangJP/youtuberGCP/pkg/sanitize"
	"github.com/xingyangJP/youtuberGCP/pkg/sora"
)

// Batch sizes per periodic trigger invocation.
const (
	dispatchBatchSize = 5
	pollBatchSize     = 10
	retryScanSize     = 20
	retryBatchSize    = 5
)

// Store is the persistence surface the manager needs.
type Store interface {
	CreateJob(ctx context.Context, job *core.Job) error
	GetJob(ctx context.Context, id string) (*core.Job, error)
	UpdateJob(ctx context.Context, id string, fields map[string]any) error
	SaveJobConfig(ctx context.Context, id string, cfg core.ContentConfig) error
	QueryByStatus(ctx context.Context, status core.JobStatus, limit int) ([]*core.Job, error)
	QueryProcessing(ctx context.Context, limit int) ([]*core.Job, error)
	QueryCompletedDesc(ctx context.Context, limit int) ([]*core.Job, error)
}

// Provider is the generation provider surface (satisfied by *sora.Client).
type Provider interface {
	CreateVideo(ctx context.Context, req sora.CreateVideoRequest) (*sora.Video, error)
	RetrieveVideo(ctx context.Context, id string) (*sora.Video, error)
	VideoContent(ctx context.Context, id string) (io.ReadCloser, string, error)
}

// Uploader is the hosting-platform surface (satisfied by *youtube.Uploader).
type Uploader interface {
	Upload(ctx context.Context, data []byte, m core.VideoMeta, privacy string) (string, error)
}

// Manager drives jobs through their lifecycle.
//
// Overlapping invocations of Dispatch or Poll are not mutually excluded; when
// two invocations race on the same job, both may call the provider and the
// later field merge wins. The store offers no conditional writes, so this
// double-dispatch window is an accepted risk rather than a guarded one.
type Manager struct {
	store    Store
	provider Provider
	uploader Uploader
	prompts  *prompt.Builder

	// baseURL prefixes durable proxy video URLs; empty yields relative URLs.
	baseURL string

	fetcher     ContentFetcher
	logger      *slog.Logger
	now         func() time.Time
	callTimeout time.Duration
}

// NewManager creates a Manager.
func NewManager(store Store, provider Provider, uploader Uploader, prompts *prompt.Builder, baseURL string) *Manager {
	m := &Manager{
		store:       store,
		provider:    provider,
		uploader:    uploader,
		prompts:     prompts,
		baseURL:     baseURL,
		logger:      slog.Default(),
		now:         time.Now,
		callTimeout: 60 * time.Second,
	}
	m.fetcher = &httpFetcher{}
	return m
}

// SetLogger overrides the default logger.
func (m *Manager) SetLogger(l *slog.Logger) { m.logger = l }

// SetNow overrides the clock, for tests.
func (m *Manager) SetNow(now func() time.Time) { m.now = now }

// SetCallTimeout bounds each external provider call.
func (m *Manager) SetCallTimeout(d time.Duration) { m.callTimeout = d }

// SetContentFetcher overrides the HTTP fetcher used for non-proxy video URLs.
func (m *Manager) SetContentFetcher(f ContentFetcher) { m.fetcher = f }

func (m *Manager) nowMs() int64 {
	return m.now().UnixMilli()
}

// Create builds the generation prompt for cfg, persists a pending job, and
// returns its id immediately. The expensive provider work is deferred to
// Dispatch, decoupling request latency from generation latency.
func (m *Manager) Create(ctx context.Context, cfg core.ContentConfig) (string, error) {
	job := &core.Job{
		ID:        uuid.New().String(),
		Status:    core.StatusPending,
		Prompt:    m.prompts.Build(cfg),
		CreatedAt: m.nowMs(),
	}
	if err := job.SetContentConfig(cfg); err != nil {
		return "", err
	}
	if err := m.store.CreateJob(ctx, job); err != nil {
		return "", err
	}
	m.logger.Info("job created", "job_id", job.ID, "action", cfg.Video.Action)
	return job.ID, nil
}

// DispatchResult summarizes one dispatch batch.
type DispatchResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Dispatch takes up to 5 oldest pending jobs and submits each to the
// generation provider. A job is marked processing before the provider call
// so a crash mid-call still leaves a provider-attempt record. Provider
// errors fail the job; per-job failures never abort the batch.
func (m *Manager) Dispatch(ctx context.Context) (*DispatchResult, error) {
	jobs, err := m.store.QueryByStatus(ctx, core.StatusPending, dispatchBatchSize)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{}
	for _, job := range jobs {
		if err := m.dispatchOne(ctx, job); err != nil {
			m.logger.Error("dispatch failed", "job_id", job.ID, "error", err)
			m.failJob(ctx, job.ID, err)
			result.Failed++
			continue
		}
		result.Processed++
	}
	return result, nil
}

func (m *Manager) dispatchOne(ctx context.Context, job *core.Job) error {
	started := m.nowMs()
	if err := m.store.UpdateJob(ctx, job.ID, map[string]any{
		"status":     core.StatusProcessing,
		"started_at": started,
	}); err != nil {
		return err
	}

	cfg := job.ContentConfig()
	size := SoraSize(cfg.Video.AspectRatio)
	seconds := SoraSeconds(cfg.Video.Duration)

	callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	video, err := m.provider.CreateVideo(callCtx, sora.CreateVideoRequest{
		Prompt:  job.Prompt,
		Size:    size,
		Seconds: seconds,
	})
	if err != nil {
		return err
	}

	cfg.VideoID = video.ID
	cfg.Size = size
	if err := m.store.SaveJobConfig(ctx, job.ID, cfg); err != nil {
		return err
	}
	m.logger.Info("generation started", "job_id", job.ID, "video_id", video.ID, "size", size, "seconds", seconds)
	return nil
}

// PollResult summarizes one poll batch.
type PollResult struct {
	Checked   int `json:"checked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Poll takes up to 10 oldest processing jobs and reconciles them against the
// provider. Completed generations get a durable proxy URL, metadata if none
// was attached, and an inline publish attempt when their schedule context
// asks for one. Transport errors leave the job processing for the next
// cycle; only a provider-reported failure is terminal.
func (m *Manager) Poll(ctx context.Context) (*PollResult, error) {
	jobs, err := m.store.QueryProcessing(ctx, pollBatchSize)
	if err != nil {
		return nil, err
	}

	result := &PollResult{}
	for _, job := range jobs {
		result.Checked++
		cfg := job.ContentConfig()
		if cfg.VideoID == "" {
			// Dispatch has not finished the create-handle round trip.
			m.logger.Warn("no provider handle yet", "job_id", job.ID)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, m.callTimeout)
		video, err := m.provider.RetrieveVideo(callCtx, cfg.VideoID)
		cancel()
		if err != nil {
			m.logger.Warn("status check failed, will retry next cycle", "job_id", job.ID, "error", err)
			continue
		}

		switch video.Status {
		case sora.VideoCompleted:
			if err := m.completeJob(ctx, job, cfg); err != nil {
				m.logger.Error("completion handling failed", "job_id", job.ID, "error", err)
				continue
			}
			result.Completed++
		case sora.VideoFailed:
			msg := "Video generation failed"
			if video.Error != nil && video.Error.Message != "" {
				msg = video.Error.Message
			}
			m.failJobMsg(ctx, job.ID, msg)
			result.Failed++
		default:
			m.logger.Debug("still processing", "job_id", job.ID, "provider_status", video.Status)
		}
	}
	return result, nil
}

func (m *Manager) completeJob(ctx context.Context, job *core.Job, cfg core.ContentConfig) error {
	videoURL := m.proxyURL(cfg.VideoID)
	if err := m.store.UpdateJob(ctx, job.ID, map[string]any{
		"status":       core.StatusCompleted,
		"video_url":    videoURL,
		"completed_at": m.nowMs(),
	}); err != nil {
		return err
	}
	m.logger.Info("generation completed", "job_id", job.ID, "video_url", videoURL)

	if cfg.YouTube == nil {
		local := meta.BuildLocal(cfg)
		cfg.YouTube = &local
		if err := m.store.SaveJobConfig(ctx, job.ID, cfg); err != nil {
			return err
		}
	}

	if cfg.Schedule != nil && cfg.Schedule.Enabled && cfg.YouTube != nil && !cfg.YouTubeUploaded {
		job.VideoURL = videoURL
		// Publish reads the job's config document; sync it so the upload
		// reuses the metadata recorded above instead of re-deriving it.
		if err := job.SetContentConfig(cfg); err != nil {
			return err
		}
		m.publishAndRecord(ctx, job, cfg)
	}
	return nil
}

// publishAndRecord attempts a publish and merges the outcome into the job's
// config. Upload failures only annotate the config; the generation success
// state is never poisoned.
func (m *Manager) publishAndRecord(ctx context.Context, job *core.Job, cfg core.ContentConfig) bool {
	videoID, err := m.Publish(ctx, job)
	if err != nil {
		m.logger.Warn("publish failed", "job_id", job.ID, "error", err)
		cfg.YouTubeUploadError = sanitize.ErrorMessage(err.Error())
		if saveErr := m.store.SaveJobConfig(ctx, job.ID, cfg); saveErr != nil {
			m.logger.Error("recording publish failure failed", "job_id", job.ID, "error", saveErr)
		}
		return false
	}

	cfg.YouTubeUploaded = true
	cfg.YouTubeVideoID = videoID
	cfg.YouTubeUploadError = ""
	if err := m.store.SaveJobConfig(ctx, job.ID, cfg); err != nil {
		m.logger.Error("recording publish success failed", "job_id", job.ID, "error", err)
		return false
	}
	m.logger.Info("published", "job_id", job.ID, "youtube_video_id", videoID)
	return true
}

func (m *Manager) failJob(ctx context.Context, id string, cause error) {
	m.failJobMsg(ctx, id, cause.Error())
}

func (m *Manager) failJobMsg(ctx context.Context, id string, msg string) {
	if err := m.store.UpdateJob(ctx, id, map[string]any{
		"status":        core.StatusFailed,
		"error_message": sanitize.ErrorMessage(msg),
		"completed_at":  m.nowMs(),
	}); err != nil {
		m.logger.Error("marking job failed failed", "job_id", id, "error", err)
	}
}

func (m *Manager) proxyURL(videoID string) string {
	return m.baseURL + "/api/video/" + videoID + "/content"
}
