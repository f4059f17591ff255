package domain

import "time"

const (
	DefaultScanThrottle     = 40 * time.Millisecond
	DefaultNegativeDebounce = time.Duration(0)
)

// Options is the scan slice of the engine configuration. The loop reads a
// fresh snapshot on every tick.
type Options struct {
	Scanning         bool
	ReaderOptions    ReaderOptions
	ScanThrottle     time.Duration
	NegativeDebounce time.Duration

	OnScanDetect func([]Detection)
	OnScanUpdate func([]Detection)
	OnScanStart  func()
	OnScanStop   func()
	OnScanClose  func()
	OnRepaint    func()
	OnScanError  func(error)
}

func DefaultOptions() Options {
	return Options{
		Scanning:         true,
		ReaderOptions:    DefaultReaderOptions(),
		ScanThrottle:     DefaultScanThrottle,
		NegativeDebounce: DefaultNegativeDebounce,
	}
}
