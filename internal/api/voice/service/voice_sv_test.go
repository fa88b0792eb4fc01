package voiceService

import (
	voiceRepository "Focus2026/internal/api/voice/repository"
	"Focus2026/internal/api/voice/session"
	"Focus2026/internal/entity"
	"Focus2026/pkg/audio"
	"Focus2026/pkg/gemini"
	"Focus2026/pkg/roadmap"
	"Focus2026/pkg/utils"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeStream struct{}

func (fakeStream) Send(audio.Blob) error { return nil }
func (fakeStream) Receive() (*gemini.ServerMessage, error) { return nil, io.EOF }
func (fakeStream) Close() error { return nil }

type fakeGemini struct {
	hasKey      bool
	instruction string
	dialErr     error
}

func (f *fakeGemini) HasCredential() bool { return f.hasKey }

func (f *fakeGemini) GenerateText(context.Context, string) (string, error) { return "", nil }

func (f *fakeGemini) GenerateSpeech(context.Context, string) ([]byte, error) { return nil, nil }

func (f *fakeGemini) Connect(_ context.Context, systemInstruction string) (gemini.LiveStream, error) {
	f.instruction = systemInstruction
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	return fakeStream{}, nil
}

func (f *fakeGemini) Config() gemini.Config {
	return gemini.Config{LiveModel: "live-model", VoiceName: "Kore"}
}

func newTestService(t *testing.T) (*voiceService, voiceRepository.Repository, *fakeGemini) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := voiceRepository.New(nil, logger)
	gem := &fakeGemini{hasKey: true}
	svc := NewVoiceService(logger, repo, gem, roadmap.Default(), utils.New()).(*voiceService)
	return svc, repo, gem
}

func listAll(t *testing.T, repo voiceRepository.Repository) ([]entity.VoiceTranscript, int) {
	t.Helper()

	client, err := repo.NewClient(false)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	rows, total, err := client.Transcripts.ListTranscripts(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("ListTranscripts: %v", err)
	}
	return rows, total
}

func waitForRows(t *testing.T, repo voiceRepository.Repository, want int) []entity.VoiceTranscript {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, total := listAll(t, repo)
		if total == want {
			return rows
		}
		if time.Now().After(deadline) {
			t.Fatalf("transcript rows = %d, want %d", total, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func stateEvent(s session.State) session.Event {
	return session.Event{Type: session.EventState, State: s}
}

func TestSessionRecorder(t *testing.T) {
	t.Run("connect failure leaves count and history untouched", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		rec := &sessionRecorder{service: svc}

		rec.observe(stateEvent(session.StateConnecting))
		if got := svc.Status().ActiveSessions; got != 0 {
			t.Fatalf("active while connecting = %d, want 0", got)
		}
		rec.observe(stateEvent(session.StateIdle))

		if got := svc.Status().ActiveSessions; got != 0 {
			t.Fatalf("active after idle = %d, want 0", got)
		}
		time.Sleep(20 * time.Millisecond)
		if _, total := listAll(t, repo); total != 0 {
			t.Fatalf("saved %d transcripts, want 0", total)
		}
	})

	t.Run("active session is counted and saved on idle", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		rec := &sessionRecorder{service: svc}

		rec.observe(stateEvent(session.StateConnecting))
		rec.observe(stateEvent(session.StateActive))
		if got := svc.Status().ActiveSessions; got != 1 {
			t.Fatalf("active = %d, want 1", got)
		}

		rec.observe(session.Event{Type: session.EventTranscript, Text: "hello", Transcript: " hello"})
		rec.observe(stateEvent(session.StateClosing))
		rec.observe(stateEvent(session.StateIdle))

		if got := svc.Status().ActiveSessions; got != 0 {
			t.Fatalf("active after idle = %d, want 0", got)
		}

		rows := waitForRows(t, repo, 1)
		if rows[0].Transcript != "hello" {
			t.Fatalf("transcript = %q, want hello", rows[0].Transcript)
		}
		if rows[0].ID == "" {
			t.Fatal("transcript id is empty")
		}
		if rows[0].EndedAt.Before(rows[0].StartedAt) {
			t.Fatalf("ended %v before started %v", rows[0].EndedAt, rows[0].StartedAt)
		}
	})

	t.Run("silent session is not saved", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		rec := &sessionRecorder{service: svc}

		rec.observe(stateEvent(session.StateActive))
		rec.observe(session.Event{Type: session.EventTranscript, Transcript: "   "})
		rec.observe(stateEvent(session.StateIdle))

		time.Sleep(20 * time.Millisecond)
		if _, total := listAll(t, repo); total != 0 {
			t.Fatalf("saved %d transcripts, want 0", total)
		}
	})

	t.Run("a second run starts with an empty transcript", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		rec := &sessionRecorder{service: svc}

		rec.observe(stateEvent(session.StateActive))
		rec.observe(session.Event{Type: session.EventTranscript, Transcript: " first"})
		rec.observe(stateEvent(session.StateIdle))
		waitForRows(t, repo, 1)

		rec.observe(stateEvent(session.StateActive))
		rec.observe(stateEvent(session.StateIdle))

		time.Sleep(20 * time.Millisecond)
		if _, total := listAll(t, repo); total != 1 {
			t.Fatalf("saved %d transcripts, want 1", total)
		}
	})
}

func TestStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	a := &sessionRecorder{service: svc}
	b := &sessionRecorder{service: svc}
	a.observe(stateEvent(session.StateActive))
	b.observe(stateEvent(session.StateActive))

	got := svc.Status()
	if got.ActiveSessions != 2 {
		t.Fatalf("active = %d, want 2", got.ActiveSessions)
	}
	if !got.CredentialConfigured || got.Model != "live-model" || got.VoiceName != "Kore" {
		t.Fatalf("status = %+v", got)
	}

	b.observe(stateEvent(session.StateIdle))
	if got := svc.Status().ActiveSessions; got != 1 {
		t.Fatalf("active = %d, want 1", got)
	}
}

func TestGetHistoryPaging(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	client, err := repo.NewClient(false)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	for _, text := range []string{"one", "two", "three"} {
		if err := client.Transcripts.CreateTranscript(ctx, entity.VoiceTranscript{ID: text, Transcript: text}); err != nil {
			t.Fatalf("CreateTranscript: %v", err)
		}
	}

	tests := []struct {
		name  string
		page  int
		limit int
		want  []string
	}{
		{name: "first page newest first", page: 1, limit: 2, want: []string{"three", "two"}},
		{name: "second page", page: 2, limit: 2, want: []string{"one"}},
		{name: "past the end", page: 5, limit: 2, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := svc.GetHistory(ctx, tt.page, tt.limit)
			if err != nil {
				t.Fatalf("GetHistory: %v", err)
			}
			if total != 3 {
				t.Fatalf("total = %d, want 3", total)
			}
			if len(rows) != len(tt.want) {
				t.Fatalf("rows = %d, want %d", len(rows), len(tt.want))
			}
			for i, row := range rows {
				if row.Transcript != tt.want[i] {
					t.Fatalf("row %d = %q, want %q", i, row.Transcript, tt.want[i])
				}
			}
		})
	}
}

func TestGeminiDialer(t *testing.T) {
	gem := &fakeGemini{hasKey: true}
	d := geminiDialer{client: gem}

	if !d.HasCredential() {
		t.Fatal("HasCredential() = false, want true")
	}

	stream, err := d.Dial(context.Background(), "be brief")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if stream == nil {
		t.Fatal("Dial returned a nil stream")
	}
	if gem.instruction != "be brief" {
		t.Fatalf("instruction = %q, want be brief", gem.instruction)
	}

	gem.dialErr = errors.New("refused")
	if stream, err := d.Dial(context.Background(), ""); err == nil || stream != nil {
		t.Fatalf("Dial() = %v, %v, want nil stream and error", stream, err)
	}
}
