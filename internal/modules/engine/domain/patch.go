package domain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	mediadomain "vscan/internal/modules/media/domain"
	scandomain "vscan/internal/modules/scan/domain"
	apperrors "vscan/internal/platform/errors"
)

// Patch is the file form of Options. Only keys present in the document
// change anything; reader keys merge into the current reader options.
type Patch struct {
	Scanning            *bool                          `yaml:"scanning"`
	ScanThrottle        *time.Duration                 `yaml:"scan_throttle"`
	NegativeDebounce    *time.Duration                 `yaml:"negative_debounce"`
	Reader              yaml.Node                      `yaml:"reader"`
	Init                *mediadomain.StreamConstraints `yaml:"init"`
	Video               *mediadomain.TrackConstraints  `yaml:"video"`
	Audio               *mediadomain.TrackConstraints  `yaml:"audio"`
	CapabilitiesTimeout *time.Duration                 `yaml:"capabilities_timeout"`
}

func ParsePatch(raw []byte) (Patch, error) {
	var p Patch
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Patch{}, nil
		}
		return Patch{}, fmt.Errorf("%w: options: %v", apperrors.ErrInvalidInput, err)
	}
	if !p.Reader.IsZero() {
		var scratch scandomain.ReaderOptions
		if err := decodeStrict(&p.Reader, &scratch); err != nil {
			return Patch{}, fmt.Errorf("%w: options: reader: %v", apperrors.ErrInvalidInput, err)
		}
	}
	return p, nil
}

// decodeStrict decodes node into out rejecting unknown keys, which
// yaml.Node.Decode does not do on its own.
func decodeStrict(node *yaml.Node, out any) error {
	raw, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// Apply writes the patch onto o. o is left untouched on error.
func (p Patch) Apply(o *Options) error {
	next := *o
	if p.Scanning != nil {
		next.Scan.Scanning = *p.Scanning
	}
	if p.ScanThrottle != nil {
		if *p.ScanThrottle < 0 {
			return fmt.Errorf("%w: scan_throttle must not be negative", apperrors.ErrInvalidInput)
		}
		next.Scan.ScanThrottle = *p.ScanThrottle
	}
	if p.NegativeDebounce != nil {
		if *p.NegativeDebounce < 0 {
			return fmt.Errorf("%w: negative_debounce must not be negative", apperrors.ErrInvalidInput)
		}
		next.Scan.NegativeDebounce = *p.NegativeDebounce
	}
	if !p.Reader.IsZero() {
		reader := next.Scan.ReaderOptions
		reader.Formats = append([]scandomain.Format(nil), reader.Formats...)
		if err := decodeStrict(&p.Reader, &reader); err != nil {
			return fmt.Errorf("%w: reader: %v", apperrors.ErrInvalidInput, err)
		}
		if err := reader.Validate(); err != nil {
			return fmt.Errorf("%w: reader: %v", apperrors.ErrInvalidInput, err)
		}
		next.Scan.ReaderOptions = reader
	}
	if p.Init != nil {
		next.Media.InitConstraints = mediadomain.LiteralInit(*p.Init)
	}
	if p.Video != nil {
		next.Media.VideoConstraints = mediadomain.LiteralTrack(*p.Video)
	}
	if p.Audio != nil {
		next.Media.AudioConstraints = mediadomain.LiteralTrack(*p.Audio)
	}
	if p.CapabilitiesTimeout != nil {
		next.Media.GetCapabilitiesTimeout = *p.CapabilitiesTimeout
	}
	*o = next
	return nil
}
