package voiceRepository

const (
	queryCreateTranscript = `
		INSERT INTO voice_transcripts (
			id, transcript, started_at, ended_at
		) VALUES (
			:id, :transcript, :started_at, :ended_at
		)
	`

	queryListTranscripts = `
		SELECT id, transcript, started_at, ended_at
		FROM voice_transcripts
		ORDER BY ended_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountTranscripts = `
		SELECT COUNT(*) FROM voice_transcripts
	`
)
