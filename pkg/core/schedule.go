package core

import "gorm.io/datatypes"

// ScheduleID is the fixed key of the singleton schedule document.
const ScheduleID = "default"

// SettingsID is the fixed key of the singleton settings document.
const SettingsID = "default"

// Slot names one of the two configurable daily posting times.
type Slot string

const (
	Slot1 Slot = "slot1"
	Slot2 Slot = "slot2"
)

// Schedule is the singleton posting-schedule configuration.
// UpdatedAt is an ISO 8601 string and doubles as a logical version: the
// scheduler compares it against run markers to decide whether a slot that
// already fired today may fire again after a reconfiguration.
type Schedule struct {
	ID           string `gorm:"primaryKey;size:32" json:"-"`
	Enabled      bool   `json:"enabled"`
	Slot1Enabled bool   `json:"slot1Enabled"`
	Slot1Time    string `gorm:"size:5" json:"slot1Time"`
	Slot2Enabled bool   `json:"slot2Enabled"`
	Slot2Time    string `gorm:"size:5" json:"slot2Time"`
	Privacy      string `gorm:"size:16" json:"privacy"`
	UpdatedAt    string `gorm:"size:40" json:"updatedAt"`
}

// DefaultSchedule is what reads yield before the first save.
func DefaultSchedule() *Schedule {
	return &Schedule{
		ID:           ScheduleID,
		Enabled:      false,
		Slot1Enabled: true,
		Slot1Time:    "09:00",
		Slot2Enabled: false,
		Slot2Time:    "18:00",
		Privacy:      "public",
	}
}

// SlotEnabled reports whether the given slot is switched on.
func (s *Schedule) SlotEnabled(slot Slot) bool {
	if slot == Slot2 {
		return s.Slot2Enabled
	}
	return s.Slot1Enabled
}

// SlotTime returns the HH:MM wall-clock time configured for the slot.
func (s *Schedule) SlotTime(slot Slot) string {
	if slot == Slot2 {
		return s.Slot2Time
	}
	return s.Slot1Time
}

// ScheduleRun is the dedupe marker recording that a slot fired on a calendar
// day. At most one exists per (slot, date) unless superseded by a schedule
// update.
type ScheduleRun struct {
	ID        string `gorm:"primaryKey;size:48" json:"-"`
	Slot      string `gorm:"size:8" json:"slot"`
	RunDate   string `gorm:"size:10" json:"run_date"`
	CreatedAt string `gorm:"size:40" json:"created_at"`
}

// RunID builds the composite key of a ScheduleRun.
func RunID(slot Slot, dateKey string) string {
	return string(slot) + "_" + dateKey
}

// SettingsDoc is the stored form of the singleton user settings.
type SettingsDoc struct {
	ID        string         `gorm:"primaryKey;size:32"`
	Data      datatypes.JSON `json:"data"`
	UpdatedAt string         `gorm:"size:40" json:"updated_at"`
}

// Settings are the user-editable content-generation defaults consumed by the
// scheduler when it fires a slot. Every field is optional; the zero value is
// a usable configuration.
type Settings struct {
	Random               *bool    `json:"random,omitempty"`
	ActionCandidates     []string `json:"actionCandidates,omitempty"`
	InstrumentCandidates []string `json:"instrumentCandidates,omitempty"`
	LengthCandidates     []string `json:"lengthCandidates,omitempty"`
	ThemePool            string   `json:"themePool,omitempty"`
	CharacterPrompt      string   `json:"characterPrompt,omitempty"`
	Action               string   `json:"action,omitempty"`
	Instrument           string   `json:"instrument,omitempty"`
	Theme                string   `json:"theme,omitempty"`
	Aspect               string   `json:"aspect,omitempty"`
	Duration             string   `json:"duration,omitempty"`
	Genre                string   `json:"genre,omitempty"`
	Language             string   `json:"language,omitempty"`
	Lyrics               string   `json:"lyrics,omitempty"`
}

// RandomEnabled reports whether candidate-pool random selection is active.
// It is on unless explicitly disabled.
func (s *Settings) RandomEnabled() bool {
	return s.Random == nil || *s.Random
}
