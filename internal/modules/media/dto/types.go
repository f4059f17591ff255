package dto

import "vscan/internal/modules/media/domain"

type StartInput struct {
	// Init overrides the configured init constraints when set.
	Init *domain.InitConstraints
}

type TrackOutput struct {
	ID       string
	Kind     string
	Label    string
	Settings domain.TrackConstraints
}

type StreamOutput struct {
	StreamID string
	Phase    string
	Reused   bool
	Tracks   []TrackOutput
}

type InspectOutput struct {
	Stopped    bool
	Inspection domain.Inspection
}

type StatusOutput struct {
	Phase    string
	StreamID string
	Attach   string
}
