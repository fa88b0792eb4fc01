package timerService

import (
	"Focus2026/internal/api/timer"
	"Focus2026/pkg/clock"
	"Focus2026/pkg/pomodoro"
	websocketPkg "Focus2026/pkg/websocket"
	"context"

	"github.com/sirupsen/logrus"
)

type ITimerService interface {
	Snapshot() pomodoro.Snapshot
	Toggle(ctx context.Context) pomodoro.Snapshot
	Start(ctx context.Context) pomodoro.Snapshot
	Pause(ctx context.Context) pomodoro.Snapshot
	Reset(ctx context.Context) pomodoro.Snapshot
	UpdateSettings(ctx context.Context, req timer.UpdateSettingsRequest) pomodoro.Snapshot
	Close()
}

// DeepWorkRecorder counts finished focus phases.
type DeepWorkRecorder interface {
	RecordDeepWorkSession(ctx context.Context) (int, error)
}

type timerService struct {
	log      *logrus.Logger
	hub      websocketPkg.IHub
	recorder DeepWorkRecorder
	timer    *pomodoro.Timer
}

func NewTimerService(
	log *logrus.Logger,
	hub websocketPkg.IHub,
	recorder DeepWorkRecorder,
	clk clock.Clock,
) ITimerService {
	if clk == nil {
		clk = clock.SystemClock{}
	}

	s := &timerService{
		log:      log,
		hub:      hub,
		recorder: recorder,
	}
	s.timer = pomodoro.New(
		pomodoro.WithTicker(clk.NewTicker),
		pomodoro.WithCue(websocketPkg.NewCue(hub, "timer")),
		pomodoro.WithFocusComplete(s.focusComplete),
		pomodoro.WithChange(func(snap pomodoro.Snapshot) {
			hub.Broadcast(timer.EventTimer, snap)
		}),
	)
	return s
}
