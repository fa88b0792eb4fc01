package dashboardService

import (
	"Focus2026/internal/api/dashboard"
	"Focus2026/internal/entity"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/roadmap"
	"context"

	"github.com/sirupsen/logrus"
)

func (s *dashboardService) GetRoadmap() *roadmap.Roadmap {
	return s.roadmap
}

// Seed inserts the roadmap's weekly targets that are not stored yet.
// Existing completion state is left untouched.
func (s *dashboardService) Seed(ctx context.Context) error {
	client, err := s.dashboardRepo.NewClient(false)
	if err != nil {
		return err
	}

	targets := make([]entity.WeeklyTarget, 0, len(s.roadmap.WeeklyTargets))
	for _, t := range s.roadmap.WeeklyTargets {
		targets = append(targets, entity.WeeklyTarget{
			ID:       t.ID,
			Task:     t.Task,
			Category: t.Category,
		})
	}

	if err := client.Targets.SeedTargets(ctx, targets); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to seed weekly targets")
		return err
	}
	return nil
}

func (s *dashboardService) GetDashboard(ctx context.Context) (dashboard.DashboardResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	client, err := s.dashboardRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to create new client")
		return dashboard.DashboardResponse{}, err
	}

	targets, err := client.Targets.ListTargets(ctx)
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}

	dailyOS, err := s.checklist(ctx, client.Checklists, entity.ChecklistDailyOS)
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}
	spiritual, err := s.checklist(ctx, client.Checklists, entity.ChecklistSpiritual)
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}

	stored, err := client.Ratings.ListRatings(ctx)
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}
	ratings := make([]entity.FocusRating, 0, len(s.roadmap.FocusAreas))
	for _, area := range s.roadmap.FocusAreas {
		ratings = append(ratings, entity.FocusRating{Title: area.Title, Rating: stored[area.Title]})
	}

	day := s.utils.DayKey(s.clock.Now())
	sessions, err := client.DeepWork.GetDeepWorkCount(ctx, day)
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}

	done, _ := completed(targets)

	return dashboard.DashboardResponse{
		Day:              day,
		WeeklyTargets:    targets,
		ProgressPercent:  s.utils.CompletionPercent(done, len(targets)),
		DailyOS:          dailyOS,
		SpiritualRules:   spiritual,
		FocusRatings:     ratings,
		DeepWorkSessions: sessions,
		Loading:          s.loading(),
	}, nil
}

func (s *dashboardService) ToggleTarget(ctx context.Context, id string) (entity.WeeklyTarget, error) {
	client, err := s.dashboardRepo.NewClient(false)
	if err != nil {
		return entity.WeeklyTarget{}, err
	}

	target, err := client.Targets.ToggleTarget(ctx, id)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"target_id":  id,
			"error":      err.Error(),
		}).Warn("Failed to toggle weekly target")
		return entity.WeeklyTarget{}, err
	}
	return target, nil
}

func (s *dashboardService) ToggleChecklistItem(ctx context.Context, list entity.ChecklistList, index int) (entity.ChecklistItem, error) {
	labels := s.labels(list)
	if index < 0 || index >= len(labels) {
		return entity.ChecklistItem{}, dashboard.ErrChecklistItemNotFound
	}

	client, err := s.dashboardRepo.NewClient(false)
	if err != nil {
		return entity.ChecklistItem{}, err
	}

	checked, err := client.Checklists.ToggleChecklistItem(ctx, list, index)
	if err != nil {
		return entity.ChecklistItem{}, err
	}

	return entity.ChecklistItem{
		List:    list,
		Index:   index,
		Label:   labels[index],
		Checked: checked,
	}, nil
}

func (s *dashboardService) SetFocusRating(ctx context.Context, req dashboard.SetRatingRequest) (entity.FocusRating, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return entity.FocusRating{}, dashboard.ErrInvalidRating
	}

	known := false
	for _, area := range s.roadmap.FocusAreas {
		if area.Title == req.Title {
			known = true
			break
		}
	}
	if !known {
		return entity.FocusRating{}, dashboard.ErrUnknownFocusArea
	}

	client, err := s.dashboardRepo.NewClient(false)
	if err != nil {
		return entity.FocusRating{}, err
	}

	if err := client.Ratings.SetRating(ctx, req.Title, req.Rating); err != nil {
		return entity.FocusRating{}, err
	}
	return entity.FocusRating{Title: req.Title, Rating: req.Rating}, nil
}

// RecordDeepWorkSession bumps today's counter. The timer calls it when a
// focus phase completes.
func (s *dashboardService) RecordDeepWorkSession(ctx context.Context) (int, error) {
	client, err := s.dashboardRepo.NewClient(false)
	if err != nil {
		return 0, err
	}

	return client.DeepWork.IncrementDeepWork(ctx, s.utils.DayKey(s.clock.Now()))
}

func (s *dashboardService) labels(list entity.ChecklistList) []string {
	switch list {
	case entity.ChecklistDailyOS:
		return s.roadmap.DailyOS
	case entity.ChecklistSpiritual:
		return s.roadmap.SpiritualRules
	default:
		return nil
	}
}

func (s *dashboardService) checklist(ctx context.Context, repo interface {
	ListChecked(ctx context.Context, list entity.ChecklistList) (map[int]bool, error)
}, list entity.ChecklistList) ([]entity.ChecklistItem, error) {
	checked, err := repo.ListChecked(ctx, list)
	if err != nil {
		return nil, err
	}

	labels := s.labels(list)
	items := make([]entity.ChecklistItem, len(labels))
	for i, label := range labels {
		items[i] = entity.ChecklistItem{List: list, Index: i, Label: label, Checked: checked[i]}
	}
	return items, nil
}

func completed(targets []entity.WeeklyTarget) (int, []string) {
	var tasks []string
	for _, t := range targets {
		if t.IsCompleted {
			tasks = append(tasks, t.Task)
		}
	}
	return len(tasks), tasks
}
