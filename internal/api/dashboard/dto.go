package dashboard

import "Focus2026/internal/entity"

const (
	DevotionalEmptyFallback = "Failed to receive wisdom."
	DevotionalErrorFallback = "Heaven's gateway is blocked. Check your API key."
	ProgressReportFallback  = "Progress report unavailable. Check your API key."
)

type LoadingState struct {
	Devotional     bool `json:"devotional"`
	ProgressReport bool `json:"progress_report"`
}

type DashboardResponse struct {
	Day              string                 `json:"day"`
	WeeklyTargets    []entity.WeeklyTarget  `json:"weekly_targets"`
	ProgressPercent  int                    `json:"progress_percent"`
	DailyOS          []entity.ChecklistItem `json:"daily_os"`
	SpiritualRules   []entity.ChecklistItem `json:"spiritual_rules"`
	FocusRatings     []entity.FocusRating   `json:"focus_ratings"`
	DeepWorkSessions int                    `json:"deep_work_sessions"`
	Loading          LoadingState           `json:"loading"`
}

type SetRatingRequest struct {
	Title  string `json:"title" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

type DevotionalResponse struct {
	Day        string `json:"day"`
	Devotional string `json:"devotional"`
	Cached     bool   `json:"cached"`
	Fallback   bool   `json:"fallback"`
}

// ProgressReportResponse carries the spoken report as base64 PCM16 so the
// device can schedule it like any other output segment.
type ProgressReportResponse struct {
	ProgressPercent  int      `json:"progress_percent"`
	Completed        []string `json:"completed"`
	DeepWorkSessions int      `json:"deep_work_sessions"`
	Audio            string   `json:"audio,omitempty"`
	MIMEType         string   `json:"mime_type,omitempty"`
	SampleRate       int      `json:"sample_rate,omitempty"`
	Duration         float64  `json:"duration"`
	AudioURL         string   `json:"audio_url,omitempty"`
	Fallback         bool     `json:"fallback"`
	Message          string   `json:"message,omitempty"`
	ErrorCode        string   `json:"error_code,omitempty"`
}
