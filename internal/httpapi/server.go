// Package httpapi exposes the job, schedule, and settings operations over a
// JSON HTTP boundary.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
	"github.com/xingyangJP/youtuberGCP/pkg/lifecycle"
	"github.com/xingyangJP/youtuberGCP/pkg/scheduler"
)

// Store is the persistence surface the handlers read and write.
type Store interface {
	GetJob(ctx context.Context, id string) (*core.Job, error)
	GetSchedule(ctx context.Context) (*core.Schedule, error)
	SaveSchedule(ctx context.Context, sched *core.Schedule) error
	GetSettingsRaw(ctx context.Context) (json.RawMessage, error)
	SaveSettings(ctx context.Context, raw json.RawMessage) error
	RecentJobs(ctx context.Context, limit int) ([]*core.Job, error)
	RecentRuns(ctx context.Context, limit int) ([]*core.ScheduleRun, error)
}

// JobService drives the job lifecycle.
type JobService interface {
	Create(ctx context.Context, cfg core.ContentConfig) (string, error)
	Dispatch(ctx context.Context) (*lifecycle.DispatchResult, error)
	Poll(ctx context.Context) (*lifecycle.PollResult, error)
	RetryUploads(ctx context.Context) (*lifecycle.RetryResult, error)
}

// ScheduleRunner evaluates the posting schedule once.
type ScheduleRunner interface {
	Run(ctx context.Context) (*scheduler.RunResult, error)
}

// MetaBuilder produces upload metadata for a configuration.
type MetaBuilder interface {
	Build(ctx context.Context, cfg core.ContentConfig) core.VideoMeta
}

// ContentProvider streams generated video bytes.
type ContentProvider interface {
	VideoContent(ctx context.Context, id string) (io.ReadCloser, string, error)
}

// Server wires the HTTP handlers to the domain services.
type Server struct {
	store    Store
	jobs     JobService
	sched    ScheduleRunner
	metas    MetaBuilder
	provider ContentProvider
	logger   *slog.Logger
}

// NewServer creates a Server.
func NewServer(store Store, jobs JobService, sched ScheduleRunner, metas MetaBuilder, provider ContentProvider) *Server {
	return &Server{
		store:    store,
		jobs:     jobs,
		sched:    sched,
		metas:    metas,
		provider: provider,
		logger:   slog.Default(),
	}
}

// SetLogger overrides the default logger.
func (s *Server) SetLogger(l *slog.Logger) { s.logger = l }

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("handler panic", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "internal server error",
		})
	}))
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.POST("/generate", s.handleGenerate)
		api.GET("/job/:jobID", s.handleJobStatus)
		api.GET("/video/:videoID/content", s.handleVideoContent)

		api.GET("/schedule", s.handleGetSchedule)
		api.POST("/save-schedule", s.handleSaveSchedule)

		api.GET("/settings", s.handleGetSettings)
		api.POST("/settings", s.handleSaveSettings)
		api.POST("/generate-youtube-settings", s.handleGenerateMeta)

		cron := api.Group("/cron")
		{
			cron.POST("/run-schedule", s.handleRunSchedule)
			cron.GET("/run-schedule", s.handleRunSchedule)
			cron.POST("/process-jobs", s.handleProcessJobs)
			cron.GET("/process-jobs", s.handleProcessJobs)
			cron.POST("/check-jobs", s.handleCheckJobs)
			cron.GET("/check-jobs", s.handleCheckJobs)
			cron.POST("/retry-uploads", s.handleRetryUploads)
			cron.GET("/retry-uploads", s.handleRetryUploads)
		}

		debug := api.Group("/debug")
		{
			debug.GET("/jobs", s.handleDebugJobs)
			debug.GET("/schedule-runs", s.handleDebugRuns)
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
