package voice

// Client to server control messages on the device websocket. Binary frames
// carry little-endian float32 mono microphone samples.
const (
	ClientStart    = "start"
	ClientStop     = "stop"
	ClientMic      = "mic"
	ClientMicFrame = "mic_frame"
)

// Server to client messages.
const (
	ServerState           = "state"
	ServerTranscript      = "transcript"
	ServerInputTranscript = "input_transcript"
	ServerError           = "error"
	ServerMicRequest      = "mic_request"
	ServerAudioOpen       = "audio_open"
	ServerAudio           = "audio"
	ServerAudioStop       = "audio_stop"
	ServerInterrupted     = "interrupted"
)

type ClientMessage struct {
	Type       string `json:"type" validate:"required,oneof=start stop mic mic_frame"`
	Granted    bool   `json:"granted,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty" validate:"omitempty,min=8000,max=192000"`
	Data       string `json:"data,omitempty"`
}

type StateMessage struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

type TranscriptMessage struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	Transcript string `json:"transcript,omitempty"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

type MicRequestMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate"`
}

type AudioOpenMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate"`
}

type AudioMessage struct {
	Type     string  `json:"type"`
	ID       int64   `json:"id"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Data     string  `json:"data"`
	MIMEType string  `json:"mime_type"`
}

type AudioStopMessage struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

type SimpleMessage struct {
	Type string `json:"type"`
}

type StatusResponse struct {
	ActiveSessions       int64  `json:"active_sessions"`
	CredentialConfigured bool   `json:"credential_configured"`
	Model                string `json:"model"`
	VoiceName            string `json:"voice_name"`
}
