package domain

import (
	"time"

	mediadomain "vscan/internal/modules/media/domain"
	scandomain "vscan/internal/modules/scan/domain"
)

// Options is the whole engine configuration. The media controller watches
// the Media slice, scan sessions read the Scan slice every tick.
type Options struct {
	Media mediadomain.Options
	Scan  scandomain.Options
}

func DefaultOptions() Options {
	return Options{
		Media: mediadomain.DefaultOptions(),
		Scan:  scandomain.DefaultOptions(),
	}
}

// Option changes one part of Options.
type Option func(*Options)

func New(opts ...Option) Options {
	o := DefaultOptions()
	Apply(&o, opts...)
	return o
}

func Apply(o *Options, opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
}

func WithScanning(on bool) Option {
	return func(o *Options) { o.Scan.Scanning = on }
}

func WithScanThrottle(d time.Duration) Option {
	return func(o *Options) { o.Scan.ScanThrottle = d }
}

func WithNegativeDebounce(d time.Duration) Option {
	return func(o *Options) { o.Scan.NegativeDebounce = d }
}

func WithReaderOptions(r scandomain.ReaderOptions) Option {
	return func(o *Options) { o.Scan.ReaderOptions = r }
}

func WithFormats(formats ...scandomain.Format) Option {
	return func(o *Options) { o.Scan.ReaderOptions.Formats = formats }
}

func WithInitConstraints(c mediadomain.InitConstraints) Option {
	return func(o *Options) { o.Media.InitConstraints = c }
}

func WithVideoConstraints(c mediadomain.TrackConstraintsSource) Option {
	return func(o *Options) { o.Media.VideoConstraints = c }
}

func WithAudioConstraints(c mediadomain.TrackConstraintsSource) Option {
	return func(o *Options) { o.Media.AudioConstraints = c }
}

func WithCapabilitiesTimeout(d time.Duration) Option {
	return func(o *Options) { o.Media.GetCapabilitiesTimeout = d }
}

// ScanHooks sets the scan callbacks. Nil fields leave the current ones.
type ScanHooks struct {
	OnDetect  func([]scandomain.Detection)
	OnUpdate  func([]scandomain.Detection)
	OnStart   func()
	OnStop    func()
	OnClose   func()
	OnRepaint func()
	OnError   func(error)
}

func WithScanHooks(h ScanHooks) Option {
	return func(o *Options) {
		s := &o.Scan
		if h.OnDetect != nil {
			s.OnScanDetect = h.OnDetect
		}
		if h.OnUpdate != nil {
			s.OnScanUpdate = h.OnUpdate
		}
		if h.OnStart != nil {
			s.OnScanStart = h.OnStart
		}
		if h.OnStop != nil {
			s.OnScanStop = h.OnStop
		}
		if h.OnClose != nil {
			s.OnScanClose = h.OnClose
		}
		if h.OnRepaint != nil {
			s.OnRepaint = h.OnRepaint
		}
		if h.OnError != nil {
			s.OnScanError = h.OnError
		}
	}
}

// StreamHooks sets the media callbacks. Nil fields leave the current ones.
type StreamHooks struct {
	OnStart   func(mediadomain.Stream)
	OnStop    func()
	OnUpdate  func(mediadomain.Stream)
	OnInspect func(*mediadomain.Inspection)
	OnError   func(error)
}

func WithStreamHooks(h StreamHooks) Option {
	return func(o *Options) {
		m := &o.Media
		if h.OnStart != nil {
			m.OnStreamStart = h.OnStart
		}
		if h.OnStop != nil {
			m.OnStreamStop = h.OnStop
		}
		if h.OnUpdate != nil {
			m.OnStreamUpdate = h.OnUpdate
		}
		if h.OnInspect != nil {
			m.OnStreamInspect = h.OnInspect
		}
		if h.OnError != nil {
			m.OnStreamError = h.OnError
		}
	}
}
