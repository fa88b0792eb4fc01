package dashboardRepository

const (
	querySeedTarget = `
		INSERT INTO weekly_targets (
			id, task, category, position
		) VALUES (
			:id, :task, :category, :position
		)
		ON CONFLICT (id) DO NOTHING
	`

	queryListTargets = `
		SELECT id, task, category, position, completed, updated_at
		FROM weekly_targets
		ORDER BY position ASC
	`

	queryToggleTarget = `
		UPDATE weekly_targets
		SET completed = NOT completed, updated_at = NOW()
		WHERE id = :id
		RETURNING id, task, category, position, completed, updated_at
	`

	queryListChecked = `
		SELECT item_index, checked
		FROM checklist_items
		WHERE list = :list
	`

	queryToggleChecklistItem = `
		INSERT INTO checklist_items (
			list, item_index, checked
		) VALUES (
			:list, :item_index, TRUE
		)
		ON CONFLICT (list, item_index) DO UPDATE
		SET checked = NOT checklist_items.checked
		RETURNING checked
	`

	queryListRatings = `
		SELECT title, rating FROM focus_ratings
	`

	queryUpsertRating = `
		INSERT INTO focus_ratings (
			title, rating
		) VALUES (
			:title, :rating
		)
		ON CONFLICT (title) DO UPDATE
		SET rating = EXCLUDED.rating
	`

	queryGetDeepWork = `
		SELECT count FROM deep_work_sessions WHERE day = :day
	`

	queryIncrementDeepWork = `
		INSERT INTO deep_work_sessions (
			day, count
		) VALUES (
			:day, 1
		)
		ON CONFLICT (day) DO UPDATE
		SET count = deep_work_sessions.count + 1
		RETURNING count
	`
)
