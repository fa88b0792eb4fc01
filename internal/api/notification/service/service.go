package notificationService

import (
	"Focus2026/internal/entity"
	"Focus2026/pkg/clock"
	websocketPkg "Focus2026/pkg/websocket"
	"Focus2026/pkg/whatsapp"
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultWelcomeDelay  = 2 * time.Second
	DefaultAlertInterval = 3 * time.Minute
	DefaultLifetime      = 8 * time.Second

	// AlertVolume is the chime volume for alert entries.
	AlertVolume = 0.3
)

type INotificationService interface {
	Start(ctx context.Context)
	Stop()
	Add(ctx context.Context, message string, kind entity.NotificationType) entity.Notification
	Remove(ctx context.Context, id int64) error
	List() []entity.Notification
}

type Config struct {
	Welcome       string
	Alerts        []string
	WelcomeDelay  time.Duration
	AlertInterval time.Duration
	Lifetime      time.Duration

	// Phone receives alert entries over WhatsApp when Sender is set.
	Phone  string
	Sender whatsapp.IWhatsappSender

	Clock clock.Clock
	Pick  func(n int) int
}

type notificationService struct {
	log *logrus.Logger
	hub websocketPkg.IHub
	cue *websocketPkg.Cue
	cfg Config

	mu      sync.Mutex
	items   []entity.Notification
	expiry  map[int64]clock.Timer
	lastID  int64
	welcome clock.Timer
	stop    chan struct{}
	done    chan struct{}
}

func NewNotificationService(log *logrus.Logger, hub websocketPkg.IHub, cfg Config) INotificationService {
	if cfg.WelcomeDelay <= 0 {
		cfg.WelcomeDelay = DefaultWelcomeDelay
	}
	if cfg.AlertInterval <= 0 {
		cfg.AlertInterval = DefaultAlertInterval
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}
	if cfg.Pick == nil {
		cfg.Pick = rand.IntN
	}

	return &notificationService{
		log:    log,
		hub:    hub,
		cue:    websocketPkg.NewCue(hub, "notification"),
		cfg:    cfg,
		expiry: make(map[int64]clock.Timer),
	}
}
