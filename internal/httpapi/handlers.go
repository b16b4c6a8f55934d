package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

const (
	debugJobLimit = 50
	debugRunLimit = 50
)

func (s *Server) handleGenerate(c *gin.Context) {
	var cfg core.ContentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	if cfg.YouTube == nil {
		m := s.metas.Build(c.Request.Context(), cfg)
		cfg.YouTube = &m
	}

	jobID, err := s.jobs.Create(c.Request.Context(), cfg)
	if err != nil {
		s.logger.Error("job creation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobId": jobID})
}

func (s *Server) handleJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")
	job, err := s.store.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, core.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "job": jobView(job)})
}

func (s *Server) handleVideoContent(c *gin.Context) {
	videoID := c.Param("videoID")
	body, contentType, err := s.provider.VideoContent(c.Request.Context(), videoID)
	if err != nil {
		s.logger.Error("video content fetch failed", "video_id", videoID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	defer body.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		s.logger.Warn("video content stream interrupted", "video_id", videoID, "error", err)
	}
}

func (s *Server) handleGetSchedule(c *gin.Context) {
	sched, err := s.store.GetSchedule(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "schedule": sched})
}

type saveScheduleRequest struct {
	Enabled      *bool   `json:"enabled"`
	Slot1Enabled *bool   `json:"slot1Enabled"`
	Time         *string `json:"time"`
	Slot2Enabled *bool   `json:"slot2Enabled"`
	Time2        *string `json:"time2"`
	Privacy      *string `json:"privacy"`
}

func (s *Server) handleSaveSchedule(c *gin.Context) {
	var req saveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}

	sched, err := s.store.GetSchedule(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	// Last write wins: present fields replace, absent fields keep the
	// stored values.
	if req.Enabled != nil {
		sched.Enabled = *req.Enabled
	}
	if req.Slot1Enabled != nil {
		sched.Slot1Enabled = *req.Slot1Enabled
	}
	if req.Time != nil {
		sched.Slot1Time = *req.Time
	}
	if req.Slot2Enabled != nil {
		sched.Slot2Enabled = *req.Slot2Enabled
	}
	if req.Time2 != nil {
		sched.Slot2Time = *req.Time2
	}
	if req.Privacy != nil {
		sched.Privacy = *req.Privacy
	}

	if err := s.store.SaveSchedule(c.Request.Context(), sched); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "schedule": sched})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	raw, err := s.store.GetSettingsRaw(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if raw == nil {
		raw = json.RawMessage("{}")
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": raw})
}

func (s *Server) handleSaveSettings(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if err := s.store.SaveSettings(c.Request.Context(), raw); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGenerateMeta(c *gin.Context) {
	var cfg core.ContentConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	m := s.metas.Build(c.Request.Context(), cfg)
	c.JSON(http.StatusOK, gin.H{"success": true, "youtube": m})
}

func (s *Server) handleRunSchedule(c *gin.Context) {
	result, err := s.sched.Run(c.Request.Context())
	if err != nil {
		s.logger.Error("schedule run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if result.Disabled {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Scheduler disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "now": result.Now, "date": result.Date, "results": result.Results})
}

func (s *Server) handleProcessJobs(c *gin.Context) {
	result, err := s.jobs.Dispatch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "processed": result.Processed, "failed": result.Failed})
}

func (s *Server) handleCheckJobs(c *gin.Context) {
	result, err := s.jobs.Poll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "checked": result.Checked, "completed": result.Completed, "failed": result.Failed})
}

func (s *Server) handleRetryUploads(c *gin.Context) {
	result, err := s.jobs.RetryUploads(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scanned": result.Scanned, "retried": result.Retried, "succeeded": result.Succeeded})
}

func (s *Server) handleDebugJobs(c *gin.Context) {
	jobs, err := s.store.RecentJobs(c.Request.Context(), debugJobLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	views := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, jobView(job))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": views})
}

func (s *Server) handleDebugRuns(c *gin.Context) {
	runs, err := s.store.RecentRuns(c.Request.Context(), debugRunLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "runs": runs})
}

func jobView(job *core.Job) gin.H {
	view := gin.H{
		"id":        job.ID,
		"status":    job.Status,
		"createdAt": job.CreatedAt,
	}
	if job.StartedAt != nil {
		view["startedAt"] = *job.StartedAt
	}
	if job.CompletedAt != nil {
		view["completedAt"] = *job.CompletedAt
	}
	if job.VideoURL != "" {
		view["videoUrl"] = job.VideoURL
	}
	if job.ErrorMessage != "" {
		view["error"] = job.ErrorMessage
	}
	cfg := job.ContentConfig()
	view["config"] = cfg
	return view
}
