// Package core provides the domain models shared by the video pipeline packages.
package core

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JobStatus represents the current state of a generation job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further status transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one unit of generation-to-publish work.
//
// Timestamps are epoch milliseconds. StartedAt is set when the job reaches
// processing, CompletedAt when it reaches a terminal status; each is written
// exactly once.
type Job struct {
	ID           string         `gorm:"primaryKey;size:64" json:"job_id"`
	Status       JobStatus      `gorm:"index;size:20;default:'pending'" json:"status"`
	Prompt       string         `gorm:"type:text" json:"prompt"`
	Config       datatypes.JSON `json:"config"`
	VideoURL     string         `gorm:"type:text" json:"video_url,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    int64          `gorm:"index;not null" json:"created_at"`
	StartedAt    *int64         `gorm:"index" json:"started_at,omitempty"`
	CompletedAt  *int64         `gorm:"index" json:"completed_at,omitempty"`
}

// ContentConfig decodes the job's config document. An empty or unreadable
// config yields the zero value; callers treat missing fields as defaults.
func (j *Job) ContentConfig() ContentConfig {
	var cfg ContentConfig
	if len(j.Config) > 0 {
		_ = json.Unmarshal(j.Config, &cfg)
	}
	return cfg
}

// SetContentConfig re-encodes cfg into the job's config document.
func (j *Job) SetContentConfig(cfg ContentConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	j.Config = datatypes.JSON(raw)
	return nil
}
