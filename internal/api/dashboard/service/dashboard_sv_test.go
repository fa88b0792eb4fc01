package dashboardService

import (
	"Focus2026/internal/api/dashboard"
	dashboardRepository "Focus2026/internal/api/dashboard/repository"
	"Focus2026/internal/entity"
	"Focus2026/pkg/audio"
	"Focus2026/pkg/clock"
	"Focus2026/pkg/redis"
	"Focus2026/pkg/roadmap"
	"Focus2026/pkg/utils"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeGenerator struct {
	credential bool
	text       string
	textErr    error
	speech     []byte
	speechErr  error
	release    chan struct{}

	mu      sync.Mutex
	prompts []string
	calls   int
}

func (g *fakeGenerator) HasCredential() bool { return g.credential }

func (g *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.record(prompt)
	return g.text, g.textErr
}

func (g *fakeGenerator) GenerateSpeech(_ context.Context, prompt string) ([]byte, error) {
	g.record(prompt)
	if g.release != nil {
		<-g.release
	}
	return g.speech, g.speechErr
}

func (g *fakeGenerator) record(prompt string) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.calls++
	g.mu.Unlock()
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  time.Duration
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]string)
	}
	c.data[key] = value
	c.ttl = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type fakeArchive struct {
	name string
	data []byte
	err  error
}

func (a *fakeArchive) UploadBytes(_ context.Context, name, _ string, data []byte) (string, error) {
	a.name, a.data = name, data
	if a.err != nil {
		return "", a.err
	}
	return "https://bucket.example/progress-reports/" + name, nil
}

func (a *fakeArchive) PresignUrl(string) (string, error) { return "", nil }
func (a *fakeArchive) DeleteFile(string) error            { return nil }

func newTestService(t *testing.T, gen *fakeGenerator, cfg Config) IDashboardService {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if cfg.Clock == nil {
		cfg.Clock = clock.NewManual(time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local))
	}

	svc := NewDashboardService(logger, dashboardRepository.New(nil, logger), gen, roadmap.Default(), utils.New(), cfg)
	if err := svc.Seed(t.Context()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return svc
}

func TestDashboardProgressAndChecklists(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{}, Config{})
	ctx := t.Context()
	rm := svc.GetRoadmap()

	state, err := svc.GetDashboard(ctx)
	if err != nil {
		t.Fatalf("GetDashboard() error = %v", err)
	}
	if len(state.WeeklyTargets) != len(rm.WeeklyTargets) || state.ProgressPercent != 0 {
		t.Fatalf("initial state = %d targets, %d%%", len(state.WeeklyTargets), state.ProgressPercent)
	}
	if state.Day != "2026-01-05" {
		t.Fatalf("Day = %q", state.Day)
	}

	if _, err := svc.ToggleTarget(ctx, rm.WeeklyTargets[0].ID); err != nil {
		t.Fatalf("ToggleTarget() error = %v", err)
	}
	state, _ = svc.GetDashboard(ctx)
	want := utils.New().CompletionPercent(1, len(rm.WeeklyTargets))
	if state.ProgressPercent != want {
		t.Fatalf("ProgressPercent = %d, want %d", state.ProgressPercent, want)
	}

	if _, err := svc.ToggleTarget(ctx, "nope"); !errors.Is(err, dashboard.ErrTargetNotFound) {
		t.Fatalf("ToggleTarget(nope) error = %v", err)
	}

	item, err := svc.ToggleChecklistItem(ctx, entity.ChecklistSpiritual, 0)
	if err != nil || !item.Checked || item.Label != rm.SpiritualRules[0] {
		t.Fatalf("ToggleChecklistItem() = %+v, %v", item, err)
	}
	if _, err := svc.ToggleChecklistItem(ctx, entity.ChecklistDailyOS, len(rm.DailyOS)); !errors.Is(err, dashboard.ErrChecklistItemNotFound) {
		t.Fatalf("out of range error = %v", err)
	}
	if _, err := svc.ToggleChecklistItem(ctx, "weekly", 0); !errors.Is(err, dashboard.ErrChecklistItemNotFound) {
		t.Fatalf("unknown list error = %v", err)
	}

	state, _ = svc.GetDashboard(ctx)
	if !state.SpiritualRules[0].Checked || state.DailyOS[0].Checked {
		t.Fatalf("checklists = %+v / %+v", state.SpiritualRules[0], state.DailyOS[0])
	}
}

func TestFocusRatings(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{}, Config{})
	ctx := t.Context()
	title := svc.GetRoadmap().FocusAreas[0].Title

	tests := []struct {
		name string
		req  dashboard.SetRatingRequest
		err  error
	}{
		{name: "valid", req: dashboard.SetRatingRequest{Title: title, Rating: 4}},
		{name: "too high", req: dashboard.SetRatingRequest{Title: title, Rating: 6}, err: dashboard.ErrInvalidRating},
		{name: "zero", req: dashboard.SetRatingRequest{Title: title, Rating: 0}, err: dashboard.ErrInvalidRating},
		{name: "unknown area", req: dashboard.SetRatingRequest{Title: "Golf", Rating: 3}, err: dashboard.ErrUnknownFocusArea},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetFocusRating(ctx, tt.req)
			if !errors.Is(err, tt.err) {
				t.Fatalf("SetFocusRating() error = %v, want %v", err, tt.err)
			}
		})
	}

	state, _ := svc.GetDashboard(ctx)
	if state.FocusRatings[0].Rating != 4 {
		t.Fatalf("rating = %+v", state.FocusRatings[0])
	}
	if state.FocusRatings[1].Rating != 0 {
		t.Fatalf("unrated area = %+v", state.FocusRatings[1])
	}
}

func TestDeepWorkIsPerDay(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 1, 5, 23, 0, 0, 0, time.Local))
	svc := newTestService(t, &fakeGenerator{}, Config{Clock: clk})
	ctx := t.Context()

	for i := 1; i <= 2; i++ {
		if n, _ := svc.RecordDeepWorkSession(ctx); n != i {
			t.Fatalf("RecordDeepWorkSession() = %d, want %d", n, i)
		}
	}

	clk.Advance(2 * time.Hour)
	state, _ := svc.GetDashboard(ctx)
	if state.DeepWorkSessions != 0 {
		t.Fatalf("next day sessions = %d", state.DeepWorkSessions)
	}
}

func TestDevotional(t *testing.T) {
	ctx := t.Context()

	t.Run("missing credential", func(t *testing.T) {
		gen := &fakeGenerator{}
		svc := newTestService(t, gen, Config{})
		if _, err := svc.GenerateDevotional(ctx, false); !errors.Is(err, dashboard.ErrCredentialMissing) {
			t.Fatalf("error = %v", err)
		}
		if gen.callCount() != 0 {
			t.Fatal("generator called without credential")
		}
	})

	t.Run("empty text", func(t *testing.T) {
		svc := newTestService(t, &fakeGenerator{credential: true, text: "  "}, Config{})
		res, err := svc.GenerateDevotional(ctx, false)
		if err != nil || res.Devotional != dashboard.DevotionalEmptyFallback || !res.Fallback {
			t.Fatalf("res = %+v, %v", res, err)
		}
	})

	t.Run("model error", func(t *testing.T) {
		svc := newTestService(t, &fakeGenerator{credential: true, textErr: errors.New("403")}, Config{})
		res, err := svc.GenerateDevotional(ctx, false)
		if err != nil || res.Devotional != dashboard.DevotionalErrorFallback || !res.Fallback {
			t.Fatalf("res = %+v, %v", res, err)
		}
	})

	t.Run("cached per day", func(t *testing.T) {
		gen := &fakeGenerator{credential: true, text: "Proverbs 16:3"}
		cache := &fakeCache{}
		svc := newTestService(t, gen, Config{Cache: cache})

		first, _ := svc.GenerateDevotional(ctx, false)
		second, _ := svc.GenerateDevotional(ctx, false)
		if first.Cached || !second.Cached || second.Devotional != "Proverbs 16:3" {
			t.Fatalf("first = %+v, second = %+v", first, second)
		}
		if gen.callCount() != 1 {
			t.Fatalf("generator calls = %d, want 1", gen.callCount())
		}
		if cache.ttl != devotionalCacheTTL {
			t.Fatalf("ttl = %v", cache.ttl)
		}

		if _, err := svc.GenerateDevotional(ctx, true); err != nil {
			t.Fatal(err)
		}
		if gen.callCount() != 2 {
			t.Fatal("refresh did not bypass cache")
		}
		if !strings.Contains(gen.prompts[0], svc.GetRoadmap().Theme) {
			t.Fatalf("prompt = %q", gen.prompts[0])
		}
	})
}

func TestProgressReport(t *testing.T) {
	ctx := t.Context()

	t.Run("audio with archive", func(t *testing.T) {
		archive := &fakeArchive{}
		gen := &fakeGenerator{credential: true, speech: make([]byte, audio.OutputSampleRate*2)}
		svc := newTestService(t, gen, Config{Archive: archive})
		rm := svc.GetRoadmap()
		_, _ = svc.ToggleTarget(ctx, rm.WeeklyTargets[1].ID)
		_, _ = svc.RecordDeepWorkSession(ctx)

		res, err := svc.GenerateProgressReport(ctx)
		if err != nil {
			t.Fatalf("GenerateProgressReport() error = %v", err)
		}
		if res.Fallback || res.Duration != 1 || res.SampleRate != audio.OutputSampleRate {
			t.Fatalf("res = %+v", res)
		}
		if len(res.Completed) != 1 || res.Completed[0] != rm.WeeklyTargets[1].Task {
			t.Fatalf("Completed = %v", res.Completed)
		}
		if !strings.Contains(gen.prompts[0], "1 deep work sessions") {
			t.Fatalf("prompt = %q", gen.prompts[0])
		}
		if res.AudioURL == "" || len(archive.data) != 44+len(gen.speech) {
			t.Fatalf("archive = %q, %d bytes", res.AudioURL, len(archive.data))
		}
	})

	t.Run("archive failure keeps audio", func(t *testing.T) {
		gen := &fakeGenerator{credential: true, speech: make([]byte, 480)}
		svc := newTestService(t, gen, Config{Archive: &fakeArchive{err: errors.New("denied")}})

		res, err := svc.GenerateProgressReport(ctx)
		if err != nil || res.Fallback || res.Audio == "" || res.AudioURL != "" {
			t.Fatalf("res = %+v, %v", res, err)
		}
	})

	t.Run("odd byte count", func(t *testing.T) {
		svc := newTestService(t, &fakeGenerator{credential: true, speech: make([]byte, 481)}, Config{})
		res, err := svc.GenerateProgressReport(ctx)
		if err != nil || !res.Fallback || res.ErrorCode != "DECODE_ERROR" || res.Message != dashboard.ProgressReportFallback {
			t.Fatalf("res = %+v, %v", res, err)
		}
	})

	t.Run("model error", func(t *testing.T) {
		svc := newTestService(t, &fakeGenerator{credential: true, speechErr: errors.New("quota")}, Config{})
		res, err := svc.GenerateProgressReport(ctx)
		if err != nil || !res.Fallback || res.ErrorCode != "" {
			t.Fatalf("res = %+v, %v", res, err)
		}
	})

	t.Run("no audio part", func(t *testing.T) {
		svc := newTestService(t, &fakeGenerator{credential: true}, Config{})
		res, err := svc.GenerateProgressReport(ctx)
		if err != nil || !res.Fallback || res.Audio != "" || res.Message != dashboard.ProgressReportFallback {
			t.Fatalf("res = %+v, %v", res, err)
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		svc := newTestService(t, &fakeGenerator{}, Config{})
		if _, err := svc.GenerateProgressReport(ctx); !errors.Is(err, dashboard.ErrCredentialMissing) {
			t.Fatalf("error = %v", err)
		}
	})
}

func TestProgressReportInFlight(t *testing.T) {
	gen := &fakeGenerator{credential: true, speech: make([]byte, 480), release: make(chan struct{})}
	svc := newTestService(t, gen, Config{})
	ctx := t.Context()

	done := make(chan error, 1)
	go func() {
		_, err := svc.GenerateProgressReport(ctx)
		done <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for gen.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first request never reached the generator")
		}
		time.Sleep(time.Millisecond)
	}

	if state, _ := svc.GetDashboard(ctx); !state.Loading.ProgressReport {
		t.Fatal("loading flag not set while in flight")
	}
	if _, err := svc.GenerateProgressReport(ctx); !errors.Is(err, dashboard.ErrRequestInFlight) {
		t.Fatalf("second request error = %v", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first request error = %v", err)
	}
	if state, _ := svc.GetDashboard(ctx); state.Loading.ProgressReport {
		t.Fatal("loading flag not cleared")
	}
}
