// Package scheduler computes due posting slots, enforces once-per-slot-per-day
// execution, and triggers job creation from the saved settings.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/xingyangJP/youtuberGCP/pkg/core"
	"github.com/xingyangJP/youtuberGCP/pkg/prompt"
	"github.com/xingyangJP/youtuberGCP/pkg/sanitize"
)

// DefaultTimezone is used when no zone is configured.
const DefaultTimezone = "Asia/Tokyo"

// Store is the persistence surface the scheduler needs.
type Store interface {
	GetSchedule(ctx context.Context) (*core.Schedule, error)
	GetSettings(ctx context.Context) (*core.Settings, error)
	GetRun(ctx context.Context, slot core.Slot, dateKey string) (*core.ScheduleRun, error)
	PutRun(ctx context.Context, slot core.Slot, dateKey string) error
	DeleteRun(ctx context.Context, slot core.Slot, dateKey string) error
}

// JobCreator creates a job from a synthesized configuration.
type JobCreator interface {
	Create(ctx context.Context, cfg core.ContentConfig) (string, error)
}

// MetaBuilder attaches upload metadata to a configuration before the job is
// created. Implementations never fail; remote errors degrade internally.
type MetaBuilder interface {
	Build(ctx context.Context, cfg core.ContentConfig) core.VideoMeta
}

// SlotResult records the outcome of one slot in a scheduler run.
type SlotResult struct {
	Slot    core.Slot `json:"slot"`
	JobID   string    `json:"jobId,omitempty"`
	Skipped bool      `json:"skipped,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// RunResult is the outcome of one scheduler invocation.
type RunResult struct {
	Disabled bool         `json:"disabled,omitempty"`
	Now      string       `json:"now"`
	Date     string       `json:"date"`
	Results  []SlotResult `json:"results"`
}

// Scheduler fires due slots at most once per slot per day.
type Scheduler struct {
	store  Store
	jobs   JobCreator
	metas  MetaBuilder
	loc    *time.Location
	rng    *rand.Rand
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Scheduler. A nil location falls back to the default
// timezone (UTC if that zone is unavailable); a nil rng gets a time-seeded
// source.
func New(store Store, jobs JobCreator, metas MetaBuilder, loc *time.Location, rng *rand.Rand) *Scheduler {
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{
		store:  store,
		jobs:   jobs,
		metas:  metas,
		loc:    loc,
		rng:    rng,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Scheduler) SetNow(now func() time.Time) { s.now = now }

// SetLogger overrides the default logger.
func (s *Scheduler) SetLogger(l *slog.Logger) { s.logger = l }

// MinutesOfDay parses an HH:MM wall-clock string into minutes since
// midnight. Unparseable values yield 0.
func MinutesOfDay(t string) int {
	h, m, ok := strings.Cut(t, ":")
	if !ok {
		return 0
	}
	hour, err1 := strconv.Atoi(h)
	minute, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil {
		return 0
	}
	return hour*60 + minute
}

// DueSlots returns the slots that are due at the given local time: a slot is
// due iff it is enabled and the local minutes-since-midnight have reached
// its configured time. Both slots may be due in one invocation.
func DueSlots(sched *core.Schedule, local time.Time) []core.Slot {
	currentMinutes := local.Hour()*60 + local.Minute()
	var due []core.Slot
	for _, slot := range []core.Slot{core.Slot1, core.Slot2} {
		if sched.SlotEnabled(slot) && currentMinutes >= MinutesOfDay(sched.SlotTime(slot)) {
			due = append(due, slot)
		}
	}
	return due
}

// Run evaluates the schedule once. Each due slot is deduped against its run
// marker, fired independently, and recorded; one slot's failure never blocks
// the other slot's attempt.
func (s *Scheduler) Run(ctx context.Context) (*RunResult, error) {
	sched, err := s.store.GetSchedule(ctx)
	if err != nil {
		return nil, err
	}

	local := s.now().In(s.loc)
	result := &RunResult{
		Now:     local.Format("15:04"),
		Date:    local.Format("2006-01-02"),
		Results: []SlotResult{},
	}

	if !sched.Enabled {
		result.Disabled = true
		return result, nil
	}

	due := DueSlots(sched, local)
	if len(due) == 0 {
		return result, nil
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &core.Settings{}
	}

	for _, slot := range due {
		result.Results = append(result.Results, s.fire(ctx, sched, settings, slot, result.Date))
	}
	return result, nil
}

// fire runs the dedupe check and, when the slot may fire, synthesizes a
// configuration, attaches metadata, and creates the job. The run marker is
// written only after successful job creation, so a failed attempt retries on
// the next trigger.
func (s *Scheduler) fire(ctx context.Context, sched *core.Schedule, settings *core.Settings, slot core.Slot, dateKey string) SlotResult {
	run, err := s.store.GetRun(ctx, slot, dateKey)
	if err != nil {
		return SlotResult{Slot: slot, Error: err.Error()}
	}
	if run != nil {
		// The supersede rule: a schedule saved after the recorded run
		// re-enables same-day firing; the stale marker is dropped.
		if isoToMs(sched.UpdatedAt) <= isoToMs(run.CreatedAt) {
			return SlotResult{Slot: slot, Skipped: true, Reason: "already executed"}
		}
		if err := s.store.DeleteRun(ctx, slot, dateKey); err != nil {
			return SlotResult{Slot: slot, Error: err.Error()}
		}
	}

	cfg := BuildConfig(settings, sched, slot, s.rng)
	m := s.metas.Build(ctx, cfg)
	cfg.YouTube = &m

	jobID, err := s.jobs.Create(ctx, cfg)
	if err != nil {
		s.logger.Error("slot firing failed", "slot", slot, "error", err)
		return SlotResult{Slot: slot, Error: sanitize.ErrorMessage(err.Error())}
	}

	if err := s.store.PutRun(ctx, slot, dateKey); err != nil {
		s.logger.Error("recording schedule run failed", "slot", slot, "error", err)
	}
	s.logger.Info("slot fired", "slot", slot, "job_id", jobID, "date", dateKey)
	return SlotResult{Slot: slot, JobID: jobID}
}

// BuildConfig synthesizes a content configuration from the saved settings
// and the active slot. Unless randomization is disabled, each non-empty
// candidate list contributes a uniform random pick; fixed base values fill
// the gaps.
func BuildConfig(settings *core.Settings, sched *core.Schedule, slot core.Slot, rng *rand.Rand) core.ContentConfig {
	useRandom := settings.RandomEnabled()

	baseAction := settings.Action
	if baseAction == "" {
		baseAction = "singing"
	}
	baseTheme := settings.Theme
	if baseTheme == "" {
		baseTheme = "vibe"
	}
	baseDuration := settings.Duration
	if baseDuration == "" {
		baseDuration = "8"
	}

	action := baseAction
	instrument := settings.Instrument
	theme := baseTheme
	length := baseDuration
	if useRandom {
		action = pick(rng, nonEmpty(settings.ActionCandidates), baseAction)
		instrument = pick(rng, nonEmpty(settings.InstrumentCandidates), settings.Instrument)
		theme = pick(rng, prompt.SplitThemePool(settings.ThemePool), baseTheme)
		length = pick(rng, nonEmpty(settings.LengthCandidates), baseDuration)
	}
	if action != "playing" && action != "singing" {
		instrument = ""
	}

	duration, err := strconv.Atoi(strings.TrimSpace(length))
	if err != nil || duration <= 0 {
		duration = 8
	}

	aspect := settings.Aspect
	if aspect == "" {
		aspect = "9:16"
	}
	genre := settings.Genre
	if genre == "" {
		genre = "pop"
	}
	language := settings.Language
	if language == "" {
		language = "english"
	}

	scheduleCtx := &core.ScheduleContext{
		Enabled:       sched.Enabled,
		Slot1Enabled:  sched.Slot1Enabled,
		Slot2Enabled:  sched.Slot2Enabled,
		Time:          sched.Slot1Time,
		Time2:         sched.Slot2Time,
		Privacy:       sched.Privacy,
		TriggeredSlot: string(slot),
	}
	if scheduleCtx.Privacy == "" {
		scheduleCtx.Privacy = "public"
	}
	if slot == core.Slot2 && sched.Slot2Time != "" {
		scheduleCtx.Time = sched.Slot2Time
	}

	return core.ContentConfig{
		Character: core.CharacterConfig{
			Mode:   "prompt",
			Prompt: settings.CharacterPrompt,
		},
		Video: core.VideoConfig{
			Action:      action,
			Instrument:  instrument,
			Theme:       theme,
			ThemePool:   settings.ThemePool,
			AspectRatio: aspect,
			Duration:    duration,
		},
		Music: core.MusicConfig{
			Genre:    genre,
			Language: language,
			Lyrics:   settings.Lyrics,
		},
		Schedule: scheduleCtx,
	}
}

func pick(rng *rand.Rand, candidates []string, fallback string) string {
	if len(candidates) == 0 {
		return fallback
	}
	return candidates[rng.Intn(len(candidates))]
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// isoToMs parses an ISO-ish timestamp to epoch milliseconds, tolerating a
// space separator and a missing zone. Unparseable values compare as 0.
func isoToMs(s string) int64 {
	if s == "" {
		return 0
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UnixMilli()
	}
	iso := strings.Replace(s, " ", "T", 1)
	if !strings.HasSuffix(iso, "Z") {
		iso += "Z"
	}
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t.UnixMilli()
	}
	return 0
}
