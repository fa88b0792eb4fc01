package dashboardRepository

import (
	"Focus2026/internal/entity"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type SQLExecutor interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// New keeps dashboard state in Postgres when db is set and in memory otherwise.
func New(db *sqlx.DB, log *logrus.Logger) Repository {
	if db == nil {
		return &memoryRepository{store: newMemoryStore()}
	}
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var sqlExecutor SQLExecutor
	var commitFunc, rollbackFunc func() error

	sqlExecutor = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		sqlExecutor = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Targets:    &targetRepository{q: sqlExecutor, log: r.log},
		Checklists: &checklistRepository{q: sqlExecutor, log: r.log},
		Ratings:    &ratingRepository{q: sqlExecutor, log: r.log},
		DeepWork:   &deepWorkRepository{q: sqlExecutor, log: r.log},
		Commit:     commitFunc,
		Rollback:   rollbackFunc,
	}, nil
}

type Client struct {
	Targets interface {
		SeedTargets(ctx context.Context, targets []entity.WeeklyTarget) error
		ListTargets(ctx context.Context) ([]entity.WeeklyTarget, error)
		ToggleTarget(ctx context.Context, id string) (entity.WeeklyTarget, error)
	}

	Checklists interface {
		ListChecked(ctx context.Context, list entity.ChecklistList) (map[int]bool, error)
		ToggleChecklistItem(ctx context.Context, list entity.ChecklistList, index int) (bool, error)
	}

	Ratings interface {
		ListRatings(ctx context.Context) (map[string]int, error)
		SetRating(ctx context.Context, title string, rating int) error
	}

	DeepWork interface {
		GetDeepWorkCount(ctx context.Context, day string) (int, error)
		IncrementDeepWork(ctx context.Context, day string) (int, error)
	}

	Commit   func() error
	Rollback func() error
}

type targetRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type checklistRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type ratingRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type deepWorkRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type memoryRepository struct {
	store *memoryStore
}

func (m *memoryRepository) NewClient(bool) (Client, error) {
	noop := func() error { return nil }
	return Client{
		Targets:    m.store,
		Checklists: m.store,
		Ratings:    m.store,
		DeepWork:   m.store,
		Commit:     noop,
		Rollback:   noop,
	}, nil
}

type checklistKey struct {
	list  entity.ChecklistList
	index int
}

type memoryStore struct {
	mu       sync.RWMutex
	targets  []entity.WeeklyTarget
	checked  map[checklistKey]bool
	ratings  map[string]int
	deepWork map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		checked:  make(map[checklistKey]bool),
		ratings:  make(map[string]int),
		deepWork: make(map[string]int),
	}
}
