package core

// CharacterConfig describes how the on-screen character is specified.
// Mode is either "prompt" (free-text description) or "upload" (image reference).
type CharacterConfig struct {
	Mode     string `json:"mode"`
	Prompt   string `json:"prompt,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// VideoConfig holds the visual parameters of a generation request.
type VideoConfig struct {
	Action      string `json:"action"`
	Instrument  string `json:"instrument,omitempty"`
	Theme       string `json:"theme,omitempty"`
	ThemePool   string `json:"themePool,omitempty"`
	AspectRatio string `json:"aspectRatio"`
	Duration    int    `json:"duration"`
}

// MusicConfig holds the audio parameters of a generation request.
type MusicConfig struct {
	Genre    string `json:"genre"`
	Language string `json:"language"`
	Lyrics   string `json:"lyrics,omitempty"`
}

// ScheduleContext is the schedule snapshot attached to a job when the
// scheduler fires a slot. Enabled gates the automatic publish step.
type ScheduleContext struct {
	Enabled       bool   `json:"enabled"`
	Slot1Enabled  bool   `json:"slot1Enabled"`
	Slot2Enabled  bool   `json:"slot2Enabled"`
	Time          string `json:"time"`
	Time2         string `json:"time2"`
	Privacy       string `json:"privacy"`
	TriggeredSlot string `json:"triggeredSlot,omitempty"`
}

// VideoMeta is the hosting-platform metadata for a published video.
// Tags is a comma-space joined list.
type VideoMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`
}

// ContentConfig is the full content configuration of a job. The first three
// sections are supplied at creation and immutable in practice; the remaining
// fields are filled in additively over the job lifecycle.
type ContentConfig struct {
	Character CharacterConfig  `json:"character"`
	Video     VideoConfig      `json:"video"`
	Music     MusicConfig      `json:"music"`
	Schedule  *ScheduleContext `json:"schedule,omitempty"`
	YouTube   *VideoMeta       `json:"youtube,omitempty"`

	VideoID            string `json:"videoId,omitempty"`
	Size               string `json:"size,omitempty"`
	YouTubeUploaded    bool   `json:"youtubeUploaded,omitempty"`
	YouTubeVideoID     string `json:"youtubeVideoId,omitempty"`
	YouTubeUploadError string `json:"youtubeUploadError,omitempty"`
}
