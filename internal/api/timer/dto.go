package timer

// EventTimer carries a pomodoro snapshot to device subscribers.
const (
	EventTimer    = "timer"
	EventDeepWork = "deep_work"
)

// UpdateSettingsRequest leaves a phase untouched when its field is omitted.
// Values below one are coerced to one minute.
type UpdateSettingsRequest struct {
	FocusMinutes *int `json:"focus_minutes" validate:"omitempty,lte=1440"`
	BreakMinutes *int `json:"break_minutes" validate:"omitempty,lte=1440"`
}

type DeepWorkPayload struct {
	Sessions int `json:"sessions"`
}
