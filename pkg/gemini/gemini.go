package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"google.golang.org/genai"
)

const (
	DefaultLiveModel   = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultTextModel   = "gemini-3-flash-preview"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVoiceName   = "Kore"
)

var (
	ErrMissingAPIKey = errors.New("gemini API key is required")
	ErrEmptyResponse = errors.New("no response from Gemini API")
)

type IGemini interface {
	HasCredential() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, prompt string) ([]byte, error)
	Connect(ctx context.Context, systemInstruction string) (LiveStream, error)
	Config() Config
}

type Config struct {
	APIKey      string
	LiveModel   string
	TextModel   string
	SpeechModel string
	VoiceName   string
}

// ConfigFromEnv reads GEMINI_API_KEY, falling back to API_KEY.
func ConfigFromEnv() Config {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}

	return Config{
		APIKey:      apiKey,
		LiveModel:   envOr("GEMINI_LIVE_MODEL", DefaultLiveModel),
		TextModel:   envOr("GEMINI_TEXT_MODEL", DefaultTextModel),
		SpeechModel: envOr("GEMINI_TTS_MODEL", DefaultSpeechModel),
		VoiceName:   envOr("GEMINI_VOICE_NAME", DefaultVoiceName),
	}
}

type geminiClient struct {
	cfg Config

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient never fails on a missing key; callers check HasCredential
// and every remote call reports ErrMissingAPIKey instead.
func NewGeminiClient(cfg Config) IGemini {
	return &geminiClient{cfg: cfg}
}

func (g *geminiClient) HasCredential() bool {
	return g.cfg.APIKey != ""
}

func (g *geminiClient) Config() Config {
	return g.cfg
}

func (g *geminiClient) genai(ctx context.Context) (*genai.Client, error) {
	if !g.HasCredential() {
		return nil, ErrMissingAPIKey
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

func (g *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	client, err := g.genai(ctx)
	if err != nil {
		return "", err
	}

	res, err := client.Models.GenerateContent(ctx, g.cfg.TextModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	return res.Text(), nil
}

// GenerateSpeech returns raw 24 kHz mono PCM16 from the first inline part.
func (g *geminiClient) GenerateSpeech(ctx context.Context, prompt string) ([]byte, error) {
	client, err := g.genai(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig:       g.speechConfig(),
	}

	res, err := client.Models.GenerateContent(ctx, g.cfg.SpeechModel, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate speech: %w", err)
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	part := res.Candidates[0].Content.Parts[0]
	if part.InlineData == nil || len(part.InlineData.Data) == 0 {
		return nil, ErrEmptyResponse
	}

	return part.InlineData.Data, nil
}

func (g *geminiClient) speechConfig() *genai.SpeechConfig {
	return &genai.SpeechConfig{
		VoiceConfig: &genai.VoiceConfig{
			PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.cfg.VoiceName},
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
