package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	InputSampleRate  = 16000
	OutputSampleRate = 24000

	bytesPerSample = 2
)

// InputMIMEType tags microphone payloads sent to the live API.
var InputMIMEType = fmt.Sprintf("audio/pcm;rate=%d", InputSampleRate)

// OutputMIMEType tags synthesized audio handed to playback devices.
var OutputMIMEType = fmt.Sprintf("audio/pcm;rate=%d", OutputSampleRate)

type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("audio: malformed base64 payload: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type DecodeError struct {
	Length    int
	FrameSize int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio: %d bytes is not a multiple of the %d byte frame size", e.Length, e.FrameSize)
}

// Blob is the wire payload accepted by the live API for realtime input.
type Blob struct {
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
}

// Buffer holds de-interleaved float samples ready for playback.
type Buffer struct {
	SampleRate int
	Channels   [][]float32
}

func (b *Buffer) NumberOfChannels() int {
	return len(b.Channels)
}

// Length is the number of frames per channel.
func (b *Buffer) Length() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Length()) / float64(b.SampleRate)
}

// Interleaved re-packs the buffer as signed 16-bit little-endian PCM.
func (b *Buffer) Interleaved() []byte {
	frames := b.Length()
	channels := b.NumberOfChannels()
	out := make([]byte, frames*channels*bytesPerSample)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * bytesPerSample
			binary.LittleEndian.PutUint16(out[off:], uint16(floatToInt16(b.Channels[ch][i])))
		}
	}
	return out
}

func Decode(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	return data, nil
}

func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeAudioData interprets data as interleaved signed 16-bit little-endian PCM.
func DecodeAudioData(data []byte, sampleRate, numChannels int) (*Buffer, error) {
	if numChannels <= 0 {
		numChannels = 1
	}
	frameSize := bytesPerSample * numChannels
	if len(data)%frameSize != 0 {
		return nil, &DecodeError{Length: len(data), FrameSize: frameSize}
	}

	frameCount := len(data) / frameSize
	buf := &Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, numChannels),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frameCount)
	}

	for i := 0; i < frameCount; i++ {
		for ch := 0; ch < numChannels; ch++ {
			off := (i*numChannels + ch) * bytesPerSample
			sample := int16(binary.LittleEndian.Uint16(data[off:]))
			buf.Channels[ch][i] = float32(sample) / 32768.0
		}
	}

	return buf, nil
}

// CreatePCMBlob packs microphone samples as 16 kHz mono PCM16 for the live API.
func CreatePCMBlob(samples []float32) Blob {
	return Blob{
		Data:     Encode(Float32ToPCM16(samples)),
		MIMEType: InputMIMEType,
	}
}

func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(floatToInt16(s)))
	}
	return out
}

func PCM16ToFloat32(data []byte) ([]float32, error) {
	buf, err := DecodeAudioData(data, 0, 1)
	if err != nil {
		return nil, err
	}
	return buf.Channels[0], nil
}

// Float32FromBytes reads little-endian IEEE-754 float32 samples, the framing
// used by browser microphones over the device websocket.
func Float32FromBytes(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, &DecodeError{Length: len(data), FrameSize: 4}
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

func Float32ToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

func floatToInt16(s float32) int16 {
	if s != s {
		return 0
	}
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}
