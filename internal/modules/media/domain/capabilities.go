package domain

// NumberRange is a supported numeric interval. The zero value means the
// capability is not reported.
type NumberRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r NumberRange) IsZero() bool {
	return r == NumberRange{}
}

func (r NumberRange) Clamp(v float64) float64 {
	if r.IsZero() {
		return v
	}
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Capabilities describes what a live track can be constrained to.
type Capabilities struct {
	DeviceID         string      `json:"device_id,omitempty"`
	GroupID          string      `json:"group_id,omitempty"`
	FacingMode       []string    `json:"facing_mode,omitempty"`
	Width            NumberRange `json:"width"`
	Height           NumberRange `json:"height"`
	FrameRate        NumberRange `json:"frame_rate"`
	AspectRatio      NumberRange `json:"aspect_ratio"`
	Zoom             NumberRange `json:"zoom"`
	Torch            bool        `json:"torch,omitempty"`
	SampleRate       NumberRange `json:"sample_rate"`
	ChannelCount     NumberRange `json:"channel_count"`
	EchoCancellation []bool      `json:"echo_cancellation,omitempty"`
}

// IsEmpty reports the capability value returned when a track did not answer in
// time.
func (c Capabilities) IsEmpty() bool {
	return c.DeviceID == "" && c.GroupID == "" && len(c.FacingMode) == 0 &&
		c.Width.IsZero() && c.Height.IsZero() && c.FrameRate.IsZero() &&
		c.AspectRatio.IsZero() && c.Zoom.IsZero() && !c.Torch &&
		c.SampleRate.IsZero() && c.ChannelCount.IsZero() && len(c.EchoCancellation) == 0
}

type TrackKind string

const (
	TrackKindVideo TrackKind = "video"
	TrackKindAudio TrackKind = "audio"
)

// TrackCapabilities is the capability snapshot of one track.
type TrackCapabilities struct {
	TrackID      string           `json:"track_id"`
	Label        string           `json:"label"`
	Kind         TrackKind        `json:"kind"`
	Capabilities Capabilities     `json:"capabilities"`
	Settings     TrackConstraints `json:"settings"`
}

// Inspection groups capability snapshots by track kind.
type Inspection struct {
	Video []TrackCapabilities `json:"video"`
	Audio []TrackCapabilities `json:"audio"`
}
