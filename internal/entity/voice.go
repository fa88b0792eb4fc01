package entity

import "time"

// VoiceTranscript is what the agent said during one voice session.
type VoiceTranscript struct {
	ID         string    `db:"id" json:"id"`
	Transcript string    `db:"transcript" json:"transcript"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	EndedAt    time.Time `db:"ended_at" json:"ended_at"`
}
