package websocketPkg

// EventCue asks connected devices to play the short notification chime.
const EventCue = "cue"

type CuePayload struct {
	Volume float64 `json:"volume"`
	Source string  `json:"source"`
}

// Cue plays sounds by broadcasting them to devices. Playback happens on the
// device so delivery is best-effort and Play never fails.
type Cue struct {
	hub    IHub
	source string
}

func NewCue(hub IHub, source string) *Cue {
	return &Cue{hub: hub, source: source}
}

func (c *Cue) Play(volume float64) error {
	c.hub.Broadcast(EventCue, CuePayload{Volume: volume, Source: c.source})
	return nil
}
