package domain

import (
	"fmt"
	"strings"
)

// Format is a barcode symbology. The ordinal is part of a result's signature
// and must not be reordered.
type Format int

const (
	FormatNone Format = iota
	FormatAztec
	FormatCodabar
	FormatCode39
	FormatCode93
	FormatCode128
	FormatDataBar
	FormatDataBarExpanded
	FormatDataBarLimited
	FormatDataMatrix
	FormatDXFilmEdge
	FormatEAN8
	FormatEAN13
	FormatITF
	FormatMaxiCode
	FormatPDF417
	FormatQRCode
	FormatMicroQRCode
	FormatRMQRCode
	FormatUPCA
	FormatUPCE
)

var formatNames = [...]string{
	FormatNone:            "None",
	FormatAztec:           "Aztec",
	FormatCodabar:         "Codabar",
	FormatCode39:          "Code39",
	FormatCode93:          "Code93",
	FormatCode128:         "Code128",
	FormatDataBar:         "DataBar",
	FormatDataBarExpanded: "DataBarExpanded",
	FormatDataBarLimited:  "DataBarLimited",
	FormatDataMatrix:      "DataMatrix",
	FormatDXFilmEdge:      "DXFilmEdge",
	FormatEAN8:            "EAN-8",
	FormatEAN13:           "EAN-13",
	FormatITF:             "ITF",
	FormatMaxiCode:        "MaxiCode",
	FormatPDF417:          "PDF417",
	FormatQRCode:          "QRCode",
	FormatMicroQRCode:     "MicroQRCode",
	FormatRMQRCode:        "rMQRCode",
	FormatUPCA:            "UPC-A",
	FormatUPCE:            "UPC-E",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat accepts a format name case-insensitively, with or without
// separators ("ean13", "EAN-13", "qr_code").
func ParseFormat(name string) (Format, error) {
	want := normalizeName(name)
	for f, n := range formatNames {
		if normalizeName(n) == want {
			return Format(f), nil
		}
	}
	switch want {
	case "qr":
		return FormatQRCode, nil
	case "linearcodes", "matrixcodes", "any":
		return FormatNone, fmt.Errorf("format group %q must be expanded", name)
	}
	return FormatNone, fmt.Errorf("unknown format %q", name)
}

func normalizeName(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ContentType classifies the decoded payload. Its ordinal is part of the
// signature.
type ContentType int

const (
	ContentText ContentType = iota
	ContentBinary
	ContentMixed
	ContentGS1
	ContentISO15434
	ContentUnknownECI
)

func (c ContentType) String() string {
	switch c {
	case ContentText:
		return "Text"
	case ContentBinary:
		return "Binary"
	case ContentMixed:
		return "Mixed"
	case ContentGS1:
		return "GS1"
	case ContentISO15434:
		return "ISO15434"
	case ContentUnknownECI:
		return "UnknownECI"
	default:
		return fmt.Sprintf("content(%d)", int(c))
	}
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Position is the quadrilateral around a symbol in frame coordinates.
type Position struct {
	TopLeft     Point `json:"top_left"`
	TopRight    Point `json:"top_right"`
	BottomRight Point `json:"bottom_right"`
	BottomLeft  Point `json:"bottom_left"`
}

// ReadResult is one decoded (or, with ReturnErrors, failed) symbol candidate.
type ReadResult struct {
	IsValid             bool        `json:"is_valid"`
	Error               string      `json:"error,omitempty"`
	Format              Format      `json:"format"`
	Text                string      `json:"text"`
	Bytes               []byte      `json:"bytes"`
	ECLevel             string      `json:"ec_level,omitempty"`
	ContentType         ContentType `json:"content_type"`
	HasECI              bool        `json:"has_eci"`
	Position            Position    `json:"position"`
	Orientation         int         `json:"orientation"`
	IsMirrored          bool        `json:"is_mirrored"`
	IsInverted          bool        `json:"is_inverted"`
	ReaderInit          bool        `json:"reader_init"`
	SymbologyIdentifier string      `json:"symbology_identifier"`
	Version             string      `json:"version"`
	SequenceSize        int         `json:"sequence_size"`
	SequenceIndex       int         `json:"sequence_index"`
	SequenceID          string      `json:"sequence_id,omitempty"`
	LineCount           int         `json:"line_count"`
}
