package domain

import (
	"fmt"
	"slices"
)

type Binarizer string

const (
	BinarizerLocalAverage    Binarizer = "LocalAverage"
	BinarizerGlobalHistogram Binarizer = "GlobalHistogram"
	BinarizerFixedThreshold  Binarizer = "FixedThreshold"
	BinarizerBoolCast        Binarizer = "BoolCast"
)

type TextMode string

const (
	TextModePlain   TextMode = "Plain"
	TextModeECI     TextMode = "ECI"
	TextModeHRI     TextMode = "HRI"
	TextModeHex     TextMode = "Hex"
	TextModeEscaped TextMode = "Escaped"
)

type EanAddOnSymbol string

const (
	EanAddOnIgnore  EanAddOnSymbol = "Ignore"
	EanAddOnRead    EanAddOnSymbol = "Read"
	EanAddOnRequire EanAddOnSymbol = "Require"
)

// ReaderOptions are passed through to the decode backend unchanged. An empty
// Formats list means every format the backend supports.
type ReaderOptions struct {
	Formats                []Format       `yaml:"formats,omitempty" json:"formats,omitempty"`
	TryHarder              bool           `yaml:"try_harder" json:"try_harder"`
	TryRotate              bool           `yaml:"try_rotate" json:"try_rotate"`
	TryInvert              bool           `yaml:"try_invert" json:"try_invert"`
	TryDownscale           bool           `yaml:"try_downscale" json:"try_downscale"`
	Binarizer              Binarizer      `yaml:"binarizer" json:"binarizer"`
	IsPure                 bool           `yaml:"is_pure" json:"is_pure"`
	DownscaleFactor        int            `yaml:"downscale_factor" json:"downscale_factor"`
	DownscaleThreshold     int            `yaml:"downscale_threshold" json:"downscale_threshold"`
	MinLineCount           int            `yaml:"min_line_count" json:"min_line_count"`
	MaxNumberOfSymbols     int            `yaml:"max_number_of_symbols" json:"max_number_of_symbols"`
	ValidateCode39CheckSum bool           `yaml:"validate_code39_checksum" json:"validate_code39_checksum"`
	ValidateITFCheckSum    bool           `yaml:"validate_itf_checksum" json:"validate_itf_checksum"`
	ReturnCodabarStartEnd  bool           `yaml:"return_codabar_start_end" json:"return_codabar_start_end"`
	ReturnErrors           bool           `yaml:"return_errors" json:"return_errors"`
	EanAddOnSymbol         EanAddOnSymbol `yaml:"ean_add_on_symbol" json:"ean_add_on_symbol"`
	TextMode               TextMode       `yaml:"text_mode" json:"text_mode"`
	CharacterSet           string         `yaml:"character_set" json:"character_set"`
}

func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		TryHarder:          true,
		TryRotate:          true,
		TryInvert:          true,
		TryDownscale:       true,
		Binarizer:          BinarizerLocalAverage,
		DownscaleFactor:    3,
		DownscaleThreshold: 500,
		MinLineCount:       2,
		MaxNumberOfSymbols: 255,
		EanAddOnSymbol:     EanAddOnIgnore,
		TextMode:           TextModeHRI,
		CharacterSet:       "Unknown",
	}
}

func (o ReaderOptions) Validate() error {
	switch o.Binarizer {
	case "", BinarizerLocalAverage, BinarizerGlobalHistogram, BinarizerFixedThreshold, BinarizerBoolCast:
	default:
		return fmt.Errorf("unknown binarizer: %s", o.Binarizer)
	}
	switch o.TextMode {
	case "", TextModePlain, TextModeECI, TextModeHRI, TextModeHex, TextModeEscaped:
	default:
		return fmt.Errorf("unknown text mode: %s", o.TextMode)
	}
	switch o.EanAddOnSymbol {
	case "", EanAddOnIgnore, EanAddOnRead, EanAddOnRequire:
	default:
		return fmt.Errorf("unknown ean add-on mode: %s", o.EanAddOnSymbol)
	}
	if o.MaxNumberOfSymbols < 0 || o.MinLineCount < 0 || o.DownscaleFactor < 0 || o.DownscaleThreshold < 0 {
		return fmt.Errorf("reader option counts must not be negative")
	}
	return nil
}

// Accepts reports whether f is in the allow-list.
func (o ReaderOptions) Accepts(f Format) bool {
	return len(o.Formats) == 0 || slices.Contains(o.Formats, f)
}
