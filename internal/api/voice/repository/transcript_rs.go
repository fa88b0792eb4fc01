package voiceRepository

import (
	"Focus2026/internal/entity"
	contextPkg "Focus2026/pkg/context"
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func (r *transcriptRepository) CreateTranscript(ctx context.Context, t entity.VoiceTranscript) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":         t.ID,
		"transcript": t.Transcript,
		"started_at": t.StartedAt,
		"ended_at":   t.EndedAt,
	}

	query, args, err := sqlx.Named(queryCreateTranscript, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateTranscript")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating transcript")
		return err
	}

	return nil
}

func (r *transcriptRepository) ListTranscripts(ctx context.Context, limit, offset int) ([]entity.VoiceTranscript, int, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryListTranscripts, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListTranscripts named query preparation err")
		return nil, 0, err
	}
	query = r.q.Rebind(query)

	var rows []entity.VoiceTranscript
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when listing transcripts")
		return nil, 0, err
	}

	var total int
	if err := r.q.QueryRowxContext(ctx, queryCountTranscripts).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when counting transcripts")
		return nil, 0, err
	}

	return rows, total, nil
}

func (m *memoryTranscripts) CreateTranscript(_ context.Context, t entity.VoiceTranscript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, t)
	return nil
}

// ListTranscripts returns the newest first.
func (m *memoryTranscripts) ListTranscripts(_ context.Context, limit, offset int) ([]entity.VoiceTranscript, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := len(m.rows)
	out := make([]entity.VoiceTranscript, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.rows[i])
	}
	return out, total, nil
}
