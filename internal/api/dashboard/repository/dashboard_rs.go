package dashboardRepository

import (
	"Focus2026/internal/api/dashboard"
	"Focus2026/internal/entity"
	contextPkg "Focus2026/pkg/context"
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func named(q SQLExecutor, query string, arg interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.Named(query, arg)
	if err != nil {
		return "", nil, err
	}
	return q.Rebind(query), args, nil
}

func (r *targetRepository) SeedTargets(ctx context.Context, targets []entity.WeeklyTarget) error {
	requestID := contextPkg.GetRequestID(ctx)

	for i, t := range targets {
		query, args, err := named(r.q, querySeedTarget, map[string]interface{}{
			"id":       t.ID,
			"task":     t.Task,
			"category": t.Category,
			"position": i,
		})
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to build SQL query for SeedTargets")
			return err
		}

		if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"target_id":  t.ID,
				"error":      err.Error(),
			}).Error("Database error when seeding weekly target")
			return err
		}
	}

	return nil
}

func (r *targetRepository) ListTargets(ctx context.Context) ([]entity.WeeklyTarget, error) {
	var targets []entity.WeeklyTarget
	if err := r.q.SelectContext(ctx, &targets, queryListTargets); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Database error when listing weekly targets")
		return nil, err
	}
	return targets, nil
}

func (r *targetRepository) ToggleTarget(ctx context.Context, id string) (entity.WeeklyTarget, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := named(r.q, queryToggleTarget, map[string]interface{}{"id": id})
	if err != nil {
		return entity.WeeklyTarget{}, err
	}

	var target entity.WeeklyTarget
	if err := r.q.GetContext(ctx, &target, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.WeeklyTarget{}, dashboard.ErrTargetNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"target_id":  id,
			"error":      err.Error(),
		}).Error("Database error when toggling weekly target")
		return entity.WeeklyTarget{}, err
	}

	return target, nil
}

func (r *checklistRepository) ListChecked(ctx context.Context, list entity.ChecklistList) (map[int]bool, error) {
	query, args, err := named(r.q, queryListChecked, map[string]interface{}{"list": list})
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Index   int  `db:"item_index"`
		Checked bool `db:"checked"`
	}
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"list":       list,
			"error":      err.Error(),
		}).Error("Database error when listing checklist items")
		return nil, err
	}

	checked := make(map[int]bool, len(rows))
	for _, row := range rows {
		checked[row.Index] = row.Checked
	}
	return checked, nil
}

func (r *checklistRepository) ToggleChecklistItem(ctx context.Context, list entity.ChecklistList, index int) (bool, error) {
	query, args, err := named(r.q, queryToggleChecklistItem, map[string]interface{}{
		"list":       list,
		"item_index": index,
	})
	if err != nil {
		return false, err
	}

	var checked bool
	if err := r.q.GetContext(ctx, &checked, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"list":       list,
			"index":      index,
			"error":      err.Error(),
		}).Error("Database error when toggling checklist item")
		return false, err
	}
	return checked, nil
}

func (r *ratingRepository) ListRatings(ctx context.Context) (map[string]int, error) {
	var rows []entity.FocusRating
	if err := r.q.SelectContext(ctx, &rows, queryListRatings); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Database error when listing focus ratings")
		return nil, err
	}

	ratings := make(map[string]int, len(rows))
	for _, row := range rows {
		ratings[row.Title] = row.Rating
	}
	return ratings, nil
}

func (r *ratingRepository) SetRating(ctx context.Context, title string, rating int) error {
	query, args, err := named(r.q, queryUpsertRating, map[string]interface{}{
		"title":  title,
		"rating": rating,
	})
	if err != nil {
		return err
	}

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"title":      title,
			"error":      err.Error(),
		}).Error("Database error when saving focus rating")
		return err
	}
	return nil
}

func (r *deepWorkRepository) GetDeepWorkCount(ctx context.Context, day string) (int, error) {
	query, args, err := named(r.q, queryGetDeepWork, map[string]interface{}{"day": day})
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.q.GetContext(ctx, &count, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"day":        day,
			"error":      err.Error(),
		}).Error("Database error when reading deep work count")
		return 0, err
	}
	return count, nil
}

func (r *deepWorkRepository) IncrementDeepWork(ctx context.Context, day string) (int, error) {
	query, args, err := named(r.q, queryIncrementDeepWork, map[string]interface{}{"day": day})
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.q.GetContext(ctx, &count, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"day":        day,
			"error":      err.Error(),
		}).Error("Database error when incrementing deep work count")
		return 0, err
	}
	return count, nil
}
