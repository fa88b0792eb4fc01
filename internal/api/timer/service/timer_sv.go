package timerService

import (
	"Focus2026/internal/api/timer"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/log"
	"Focus2026/pkg/pomodoro"
	"context"

	"github.com/sirupsen/logrus"
)

func (s *timerService) Snapshot() pomodoro.Snapshot {
	return s.timer.Snapshot()
}

func (s *timerService) Toggle(ctx context.Context) pomodoro.Snapshot {
	snap := s.timer.Toggle()
	s.logTransition(ctx, "toggle", snap)
	return snap
}

func (s *timerService) Start(ctx context.Context) pomodoro.Snapshot {
	snap := s.timer.Start()
	s.logTransition(ctx, "start", snap)
	return snap
}

func (s *timerService) Pause(ctx context.Context) pomodoro.Snapshot {
	snap := s.timer.Pause()
	s.logTransition(ctx, "pause", snap)
	return snap
}

func (s *timerService) Reset(ctx context.Context) pomodoro.Snapshot {
	snap := s.timer.Reset()
	s.logTransition(ctx, "reset", snap)
	return snap
}

func (s *timerService) UpdateSettings(ctx context.Context, req timer.UpdateSettingsRequest) pomodoro.Snapshot {
	current := s.timer.Snapshot()
	focus, brk := current.FocusMinutes, current.BreakMinutes
	if req.FocusMinutes != nil {
		focus = *req.FocusMinutes
	}
	if req.BreakMinutes != nil {
		brk = *req.BreakMinutes
	}

	snap := s.timer.SetDurations(focus, brk)
	s.logTransition(ctx, "settings", snap)
	return snap
}

func (s *timerService) Close() {
	s.timer.Close()
}

func (s *timerService) focusComplete() {
	if s.recorder == nil {
		return
	}

	logger := log.WithComponent(s.log, "pomodoro")

	sessions, err := s.recorder.RecordDeepWorkSession(context.Background())
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to record deep work session")
		return
	}

	logger.WithField("sessions", sessions).Info("Deep work session completed")
	s.hub.Broadcast(timer.EventDeepWork, timer.DeepWorkPayload{Sessions: sessions})
}

func (s *timerService) logTransition(ctx context.Context, action string, snap pomodoro.Snapshot) {
	s.log.WithFields(logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"action":     action,
		"phase":      snap.Phase,
		"remaining":  snap.Remaining,
		"running":    snap.Running,
	}).Debug("Timer updated")
}
