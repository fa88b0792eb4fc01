package dashboardRepository

import (
	"Focus2026/internal/api/dashboard"
	"Focus2026/internal/entity"
	"context"
	"time"
)

// SeedTargets appends targets whose id is not stored yet, keeping the
// existing order.
func (m *memoryStore) SeedTargets(_ context.Context, targets []entity.WeeklyTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(m.targets))
	for _, t := range m.targets {
		seen[t.ID] = true
	}
	for _, t := range targets {
		if seen[t.ID] {
			continue
		}
		t.Position = len(m.targets)
		t.UpdatedAt = time.Now()
		m.targets = append(m.targets, t)
		seen[t.ID] = true
	}
	return nil
}

func (m *memoryStore) ListTargets(context.Context) ([]entity.WeeklyTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entity.WeeklyTarget, len(m.targets))
	copy(out, m.targets)
	return out, nil
}

func (m *memoryStore) ToggleTarget(_ context.Context, id string) (entity.WeeklyTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.targets {
		if m.targets[i].ID == id {
			m.targets[i].IsCompleted = !m.targets[i].IsCompleted
			m.targets[i].UpdatedAt = time.Now()
			return m.targets[i], nil
		}
	}
	return entity.WeeklyTarget{}, dashboard.ErrTargetNotFound
}

func (m *memoryStore) ListChecked(_ context.Context, list entity.ChecklistList) (map[int]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int]bool)
	for k, v := range m.checked {
		if k.list == list {
			out[k.index] = v
		}
	}
	return out, nil
}

func (m *memoryStore) ToggleChecklistItem(_ context.Context, list entity.ChecklistList, index int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := checklistKey{list: list, index: index}
	m.checked[k] = !m.checked[k]
	return m.checked[k], nil
}

func (m *memoryStore) ListRatings(context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int, len(m.ratings))
	for k, v := range m.ratings {
		out[k] = v
	}
	return out, nil
}

func (m *memoryStore) SetRating(_ context.Context, title string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[title] = rating
	return nil
}

func (m *memoryStore) GetDeepWorkCount(_ context.Context, day string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deepWork[day], nil
}

func (m *memoryStore) IncrementDeepWork(_ context.Context, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deepWork[day]++
	return m.deepWork[day], nil
}
