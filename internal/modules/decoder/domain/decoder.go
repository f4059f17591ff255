package domain

import (
	"errors"
	"fmt"
	"regexp"

	scandomain "vscan/internal/modules/scan/domain"
)

// BuiltinName selects the in-process decoder instead of a plugin.
const BuiltinName = "builtin"

var (
	ErrDecoderDisabled   = errors.New("decoder is disabled")
	ErrDecoderNotFound   = errors.New("decoder not found")
	ErrChecksumMismatch  = errors.New("decoder checksum mismatch")
	ErrDecoderTimeout    = errors.New("decoder timeout")
	ErrFormatUnsupported = errors.New("decoder does not support format")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest describes a decoder plugin binary.
type Manifest struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Binary  string   `json:"binary"`
	SHA256  string   `json:"sha256"`
	Enabled bool     `json:"enabled"`
	Formats []string `json:"formats"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("decoder name is required")
	}
	if m.Name == BuiltinName {
		return fmt.Errorf("decoder name %q is reserved", BuiltinName)
	}
	if m.Version == "" {
		return fmt.Errorf("decoder version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("decoder binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("decoder sha256 must be lowercase 64-char hex")
	}
	if len(m.Formats) == 0 {
		return fmt.Errorf("decoder formats are required")
	}
	seen := map[scandomain.Format]struct{}{}
	for _, name := range m.Formats {
		f, err := scandomain.ParseFormat(name)
		if err != nil {
			return err
		}
		if _, ok := seen[f]; ok {
			return fmt.Errorf("duplicate format: %s", name)
		}
		seen[f] = struct{}{}
	}
	return nil
}

// ParsedFormats returns the declared formats. Call Validate first.
func (m Manifest) ParsedFormats() []scandomain.Format {
	out := make([]scandomain.Format, 0, len(m.Formats))
	for _, name := range m.Formats {
		if f, err := scandomain.ParseFormat(name); err == nil {
			out = append(out, f)
		}
	}
	return out
}

type Metadata struct {
	Name    string
	Version string
	Formats []scandomain.Format
}

// Supports reports whether every format in requested is decodable. An empty
// request asks for whatever the decoder offers.
func (m Metadata) Supports(requested []scandomain.Format) error {
	for _, f := range requested {
		found := false
		for _, have := range m.Formats {
			if have == f {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrFormatUnsupported, f)
		}
	}
	return nil
}
