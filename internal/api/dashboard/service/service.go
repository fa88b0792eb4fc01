package dashboardService

import (
	"Focus2026/internal/api/dashboard"
	dashboardRepository "Focus2026/internal/api/dashboard/repository"
	"Focus2026/internal/entity"
	"Focus2026/pkg/clock"
	"Focus2026/pkg/redis"
	"Focus2026/pkg/roadmap"
	"Focus2026/pkg/s3"
	"Focus2026/pkg/utils"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	devotionalCacheTTL = 24 * time.Hour
	reportFileName     = "progress-report.wav"
)

type IDashboardService interface {
	GetRoadmap() *roadmap.Roadmap
	Seed(ctx context.Context) error
	GetDashboard(ctx context.Context) (dashboard.DashboardResponse, error)
	ToggleTarget(ctx context.Context, id string) (entity.WeeklyTarget, error)
	ToggleChecklistItem(ctx context.Context, list entity.ChecklistList, index int) (entity.ChecklistItem, error)
	SetFocusRating(ctx context.Context, req dashboard.SetRatingRequest) (entity.FocusRating, error)
	RecordDeepWorkSession(ctx context.Context) (int, error)
	GenerateDevotional(ctx context.Context, refresh bool) (dashboard.DevotionalResponse, error)
	GenerateProgressReport(ctx context.Context) (dashboard.ProgressReportResponse, error)
}

// Generator is the slice of the Gemini client the one-shot requests need.
type Generator interface {
	HasCredential() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, prompt string) ([]byte, error)
}

// Config holds the optional collaborators. A nil Cache disables devotional
// caching and a nil Archive skips uploading reports.
type Config struct {
	Cache   redis.IRedis
	Archive s3.ItfS3
	Clock   clock.Clock
}

type requestKind string

const (
	kindDevotional     requestKind = "devotional"
	kindProgressReport requestKind = "progress_report"
)

type dashboardService struct {
	log           *logrus.Logger
	dashboardRepo dashboardRepository.Repository
	generator     Generator
	roadmap       *roadmap.Roadmap
	utils         utils.IUtils
	cache         redis.IRedis
	archive       s3.ItfS3
	clock         clock.Clock

	mu       sync.Mutex
	inflight map[requestKind]bool
}

func NewDashboardService(
	log *logrus.Logger,
	dashboardRepo dashboardRepository.Repository,
	generator Generator,
	rm *roadmap.Roadmap,
	utils utils.IUtils,
	cfg Config,
) IDashboardService {
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock{}
	}

	return &dashboardService{
		log:           log,
		dashboardRepo: dashboardRepo,
		generator:     generator,
		roadmap:       rm,
		utils:         utils,
		cache:         cfg.Cache,
		archive:       cfg.Archive,
		clock:         cfg.Clock,
		inflight:      make(map[requestKind]bool),
	}
}

// begin marks kind as in flight. It returns false when one is already running.
func (s *dashboardService) begin(kind requestKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[kind] {
		return false
	}
	s.inflight[kind] = true
	return true
}

func (s *dashboardService) end(kind requestKind) {
	s.mu.Lock()
	delete(s.inflight, kind)
	s.mu.Unlock()
}

func (s *dashboardService) loading() dashboard.LoadingState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return dashboard.LoadingState{
		Devotional:     s.inflight[kindDevotional],
		ProgressReport: s.inflight[kindProgressReport],
	}
}
