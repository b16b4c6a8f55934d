// Package storage provides the GORM-backed document store for jobs, the
// schedule, run markers and settings.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
)

// isoMillis is the stamp layout for the schedule and run-marker version
// fields. Millisecond precision keeps the supersede comparison strict when a
// schedule update lands in the same second as the recorded run.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// GormStore implements the four persisted collections over a single GORM
// connection. Field merges are last-write-wins; no conditional writes are
// attempted (accepted race, see the lifecycle manager).
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

// SetNow overrides the clock, for tests.
func (s *GormStore) SetNow(now func() time.Time) {
	s.now = now
}

// Migrate creates the necessary tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&core.Job{}, &core.Schedule{}, &core.ScheduleRun{}, &core.SettingsDoc{},
	)
}

// --- Jobs ---

// CreateJob inserts a new job. Returns core.ErrJobExists when the id is
// already present; an existing job is never clobbered.
func (s *GormStore) CreateJob(ctx context.Context, job *core.Job) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&core.Job{}).Where("id = ?", job.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return core.ErrJobExists
		}
		return tx.Create(job).Error
	})
}

// GetJob retrieves a job by id, or core.ErrJobNotFound.
func (s *GormStore) GetJob(ctx context.Context, id string) (*core.Job, error) {
	var job core.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJob applies a partial field merge to a job in a single UPDATE, so
// concurrent readers never observe partial-field visibility. Transition
// legality is the lifecycle manager's concern, not the store's.
func (s *GormStore) UpdateJob(ctx context.Context, id string, fields map[string]any) error {
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrJobNotFound
	}
	return nil
}

// SaveJobConfig replaces a job's config document.
func (s *GormStore) SaveJobConfig(ctx context.Context, id string, cfg core.ContentConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.UpdateJob(ctx, id, map[string]any{"config": datatypes.JSON(raw)})
}

// QueryByStatus returns up to limit jobs in the given status, oldest first.
func (s *GormStore) QueryByStatus(ctx context.Context, status core.JobStatus, limit int) ([]*core.Job, error) {
	var jobs []*core.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// QueryProcessing returns up to limit processing jobs ordered by dispatch
// time, oldest first.
func (s *GormStore) QueryProcessing(ctx context.Context, limit int) ([]*core.Job, error) {
	var jobs []*core.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", core.StatusProcessing).
		Order("started_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// QueryCompletedDesc returns up to limit completed jobs, newest completion
// first. Used by the publish retrier.
func (s *GormStore) QueryCompletedDesc(ctx context.Context, limit int) ([]*core.Job, error) {
	var jobs []*core.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", core.StatusCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// RecentJobs returns up to limit jobs, newest first.
func (s *GormStore) RecentJobs(ctx context.Context, limit int) ([]*core.Job, error) {
	var jobs []*core.Job
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// --- Schedule ---

// GetSchedule returns the singleton schedule, or the documented default when
// nothing has been saved yet.
func (s *GormStore) GetSchedule(ctx context.Context) (*core.Schedule, error) {
	var sched core.Schedule
	err := s.db.WithContext(ctx).First(&sched, "id = ?", core.ScheduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.DefaultSchedule(), nil
	}
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

// SaveSchedule upserts the singleton schedule and stamps UpdatedAt, which
// acts as the logical version for the scheduler's supersede rule.
func (s *GormStore) SaveSchedule(ctx context.Context, sched *core.Schedule) error {
	sched.ID = core.ScheduleID
	sched.UpdatedAt = s.now().UTC().Format(isoMillis)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(sched).Error
}

// --- Schedule runs ---

// GetRun returns the run marker for (slot, dateKey), or nil when absent.
func (s *GormStore) GetRun(ctx context.Context, slot core.Slot, dateKey string) (*core.ScheduleRun, error) {
	var run core.ScheduleRun
	err := s.db.WithContext(ctx).First(&run, "id = ?", core.RunID(slot, dateKey)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// PutRun records that a slot fired on a calendar day.
func (s *GormStore) PutRun(ctx context.Context, slot core.Slot, dateKey string) error {
	run := &core.ScheduleRun{
		ID:        core.RunID(slot, dateKey),
		Slot:      string(slot),
		RunDate:   dateKey,
		CreatedAt: s.now().UTC().Format(isoMillis),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(run).Error
}

// DeleteRun removes a superseded run marker.
func (s *GormStore) DeleteRun(ctx context.Context, slot core.Slot, dateKey string) error {
	return s.db.WithContext(ctx).
		Delete(&core.ScheduleRun{}, "id = ?", core.RunID(slot, dateKey)).Error
}

// RecentRuns returns up to limit run markers, newest first.
func (s *GormStore) RecentRuns(ctx context.Context, limit int) ([]*core.ScheduleRun, error) {
	var runs []*core.ScheduleRun
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// --- Settings ---

// GetSettings decodes the singleton settings document, or returns nil when
// none has been saved. Unknown fields are ignored; every read field defaults.
func (s *GormStore) GetSettings(ctx context.Context) (*core.Settings, error) {
	raw, err := s.GetSettingsRaw(ctx)
	if err != nil || raw == nil {
		return nil, err
	}
	var settings core.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// GetSettingsRaw returns the stored settings JSON untouched, or nil.
func (s *GormStore) GetSettingsRaw(ctx context.Context) (json.RawMessage, error) {
	var doc core.SettingsDoc
	err := s.db.WithContext(ctx).First(&doc, "id = ?", core.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(doc.Data), nil
}

// SaveSettings stores the settings JSON as an opaque document.
func (s *GormStore) SaveSettings(ctx context.Context, raw json.RawMessage) error {
	doc := &core.SettingsDoc{
		ID:        core.SettingsID,
		Data:      datatypes.JSON(raw),
		UpdatedAt: s.now().UTC().Format(isoMillis),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(doc).Error
}
