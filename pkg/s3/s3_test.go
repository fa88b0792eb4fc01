package s3

import (
	"testing"
	"time"
)

func TestGenerateUniqueKey(t *testing.T) {
	now := time.Date(2026, 1, 5, 9, 30, 15, 250_000_000, time.UTC)

	got := generateUniqueKey("progress-reports", "../report.wav", now)
	want := "progress-reports/2026-01-05/093015250-report.wav"
	if got != want {
		t.Fatalf("generateUniqueKey() = %q, want %q", got, want)
	}
}

func TestExtractKeyFromS3Url(t *testing.T) {
	tests := map[string]string{
		"https://bucket.s3.amazonaws.com/progress-reports/a.wav": "progress-reports/a.wav",
		"progress-reports/a.wav":                                 "progress-reports/a.wav",
	}
	for in, want := range tests {
		if got := extractKeyFromS3Url(in); got != want {
			t.Errorf("extractKeyFromS3Url(%q) = %q, want %q", in, got, want)
		}
	}
}
