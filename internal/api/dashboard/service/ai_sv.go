package dashboardService

import (
	"Focus2026/internal/api/dashboard"
	"Focus2026/pkg/audio"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/redis"
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

func devotionalCacheKey(day string) string {
	return "focus2026:devotional:" + day
}

// GenerateDevotional returns today's devotional. A cached copy is served
// unless refresh is set. Model failures come back as fallback text, not errors.
func (s *dashboardService) GenerateDevotional(ctx context.Context, refresh bool) (dashboard.DevotionalResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !s.generator.HasCredential() {
		return dashboard.DevotionalResponse{}, dashboard.ErrCredentialMissing
	}

	day := s.utils.DayKey(s.clock.Now())
	key := devotionalCacheKey(day)

	if !refresh && s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil && cached != "":
			return dashboard.DevotionalResponse{Day: day, Devotional: cached, Cached: true}, nil
		case err != nil && !errors.Is(err, redis.ErrCacheMiss):
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Devotional cache read failed")
		}
	}

	if !s.begin(kindDevotional) {
		return dashboard.DevotionalResponse{}, dashboard.ErrRequestInFlight
	}
	defer s.end(kindDevotional)

	text, err := s.generator.GenerateText(ctx, s.roadmap.DevotionalPrompt())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Devotional generation failed")
		return dashboard.DevotionalResponse{Day: day, Devotional: dashboard.DevotionalErrorFallback, Fallback: true}, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return dashboard.DevotionalResponse{Day: day, Devotional: dashboard.DevotionalEmptyFallback, Fallback: true}, nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text, devotionalCacheTTL); err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Devotional cache write failed")
		}
	}

	return dashboard.DevotionalResponse{Day: day, Devotional: text}, nil
}

// GenerateProgressReport speaks the current weekly progress. The audio is
// validated as 24 kHz mono PCM16 before it is handed back for playback.
func (s *dashboardService) GenerateProgressReport(ctx context.Context) (dashboard.ProgressReportResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if !s.generator.HasCredential() {
		return dashboard.ProgressReportResponse{}, dashboard.ErrCredentialMissing
	}

	if !s.begin(kindProgressReport) {
		return dashboard.ProgressReportResponse{}, dashboard.ErrRequestInFlight
	}
	defer s.end(kindProgressReport)

	client, err := s.dashboardRepo.NewClient(false)
	if err != nil {
		return dashboard.ProgressReportResponse{}, err
	}

	targets, err := client.Targets.ListTargets(ctx)
	if err != nil {
		return dashboard.ProgressReportResponse{}, err
	}
	sessions, err := client.DeepWork.GetDeepWorkCount(ctx, s.utils.DayKey(s.clock.Now()))
	if err != nil {
		return dashboard.ProgressReportResponse{}, err
	}

	done, tasks := completed(targets)
	res := dashboard.ProgressReportResponse{
		ProgressPercent:  s.utils.CompletionPercent(done, len(targets)),
		Completed:        tasks,
		DeepWorkSessions: sessions,
	}
	if res.Completed == nil {
		res.Completed = []string{}
	}

	prompt := s.roadmap.ProgressReportPrompt(res.ProgressPercent, tasks, sessions)
	pcm, err := s.generator.GenerateSpeech(ctx, prompt)
	if err != nil || len(pcm) == 0 {
		fields := logrus.Fields{"request_id": requestID}
		if err != nil {
			fields["error"] = err.Error()
		}
		s.log.WithFields(fields).Error("Progress report generation failed")
		return fallbackReport(res, ""), nil
	}

	buf, err := audio.DecodeAudioData(pcm, audio.OutputSampleRate, 1)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"bytes":      len(pcm),
			"error":      err.Error(),
		}).Error("Progress report audio could not be decoded")

		var decodeErr *audio.DecodeError
		if errors.As(err, &decodeErr) {
			return fallbackReport(res, "DECODE_ERROR"), nil
		}
		return fallbackReport(res, ""), nil
	}

	res.Audio = audio.Encode(pcm)
	res.MIMEType = audio.OutputMIMEType
	res.SampleRate = audio.OutputSampleRate
	res.Duration = buf.Duration()

	if s.archive != nil {
		url, err := s.archive.UploadBytes(ctx, reportFileName, "audio/wav", audio.EncodeWAV(pcm, audio.OutputSampleRate, 1))
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to archive progress report")
		} else {
			res.AudioURL = url
		}
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"percent":    res.ProgressPercent,
		"duration":   res.Duration,
	}).Info("Progress report generated")

	return res, nil
}

func fallbackReport(res dashboard.ProgressReportResponse, code string) dashboard.ProgressReportResponse {
	res.Fallback = true
	res.Message = dashboard.ProgressReportFallback
	res.ErrorCode = code
	return res
}
