package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts mono float frames from a device rate to InputSampleRate.
// It keeps filter state between frames, so one instance belongs to one stream.
type Resampler struct {
	from int
	to   int
	rs   resampling.Resampler
}

func NewResampler(from, to int) (*Resampler, error) {
	r := &Resampler{from: from, to: to}
	if from == to {
		return r, nil
	}
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("audio: invalid resample rates %d -> %d", from, to)
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	r.rs = rs
	return r, nil
}

// Process returns frame unchanged when no conversion is needed.
func (r *Resampler) Process(frame []float32) ([]float32, error) {
	if r.rs == nil {
		return frame, nil
	}

	in := make([]float64, len(frame))
	for i, s := range frame {
		in[i] = float64(s)
	}

	out, err := r.rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	res := make([]float32, len(out))
	for i, s := range out {
		res[i] = float32(s)
	}
	return res, nil
}
