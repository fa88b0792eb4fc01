package voiceRepository

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
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	Rebind(query string) string
}

// New keeps transcripts in Postgres when db is set and in memory otherwise.
func New(db *sqlx.DB, log *logrus.Logger) Repository {
	if db == nil {
		return &memoryRepository{store: &memoryTranscripts{}}
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
		Transcripts: &transcriptRepository{q: sqlExecutor, log: r.log},
		Commit:      commitFunc,
		Rollback:    rollbackFunc,
	}, nil
}

type Client struct {
	Transcripts interface {
		CreateTranscript(ctx context.Context, t entity.VoiceTranscript) error
		ListTranscripts(ctx context.Context, limit, offset int) ([]entity.VoiceTranscript, int, error)
	}

	Commit   func() error
	Rollback func() error
}

type transcriptRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type memoryRepository struct {
	store *memoryTranscripts
}

func (m *memoryRepository) NewClient(bool) (Client, error) {
	noop := func() error { return nil }
	return Client{
		Transcripts: m.store,
		Commit:      noop,
		Rollback:    noop,
	}, nil
}

type memoryTranscripts struct {
	mu   sync.RWMutex
	rows []entity.VoiceTranscript
}
