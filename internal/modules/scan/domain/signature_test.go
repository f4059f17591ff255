package domain_test

import (
	"testing"

	"vscan/internal/modules/scan/domain"
)

func sample() domain.ReadResult {
	return domain.ReadResult{
		IsValid:             true,
		Format:              domain.FormatQRCode,
		Text:                "ABC",
		Bytes:               []byte("ABC"),
		ContentType:         domain.ContentText,
		SymbologyIdentifier: "]Q1",
		Version:             "1",
		Position: domain.Position{
			TopLeft:     domain.Point{X: 10, Y: 10},
			TopRight:    domain.Point{X: 50, Y: 10},
			BottomRight: domain.Point{X: 50, Y: 50},
			BottomLeft:  domain.Point{X: 10, Y: 50},
		},
	}
}

func TestSignatureIgnoresPositionAndOrientation(t *testing.T) {
	t.Parallel()
	a := sample()
	b := sample()
	b.Position.TopLeft = domain.Point{X: 14, Y: 12}
	b.Orientation = 90
	if domain.Sign(a) != domain.Sign(b) {
		t.Fatalf("moved symbol must keep its signature")
	}
	if domain.Sign(a) != domain.Sign(sample()) {
		t.Fatalf("signature must be deterministic")
	}
}

func TestSignatureTracksContentAndFlags(t *testing.T) {
	t.Parallel()
	base := domain.Sign(sample())
	mutations := map[string]func(*domain.ReadResult){
		"bytes":      func(r *domain.ReadResult) { r.Bytes = []byte("ABD") },
		"format":     func(r *domain.ReadResult) { r.Format = domain.FormatDataMatrix },
		"content":    func(r *domain.ReadResult) { r.ContentType = domain.ContentBinary },
		"mirrored":   func(r *domain.ReadResult) { r.IsMirrored = true },
		"inverted":   func(r *domain.ReadResult) { r.IsInverted = true },
		"eci":        func(r *domain.ReadResult) { r.HasECI = true },
		"readerInit": func(r *domain.ReadResult) { r.ReaderInit = true },
		"valid":      func(r *domain.ReadResult) { r.IsValid = false },
		"version":    func(r *domain.ReadResult) { r.Version = "2" },
	}
	for name, mutate := range mutations {
		r := sample()
		mutate(&r)
		if domain.Sign(r) == base {
			t.Fatalf("%s change must alter the signature", name)
		}
	}
}

func TestSignatureLengthPrefixesIdentifier(t *testing.T) {
	t.Parallel()
	a := sample()
	a.SymbologyIdentifier, a.Version, a.Bytes = "]Q1", "", []byte("XABC")
	b := sample()
	b.SymbologyIdentifier, b.Version, b.Bytes = "]Q1X", "", []byte("ABC")
	if domain.Sign(a) == domain.Sign(b) {
		t.Fatalf("identifier and payload boundaries must not be ambiguous")
	}
	if len(domain.Sign(a).String()) != 64 {
		t.Fatalf("expected hex-encoded 32-byte signature")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]domain.Format{
		"QRCode":  domain.FormatQRCode,
		"qr_code": domain.FormatQRCode,
		"ean13":   domain.FormatEAN13,
		"EAN-13":  domain.FormatEAN13,
		"code128": domain.FormatCode128,
	} {
		got, err := domain.ParseFormat(name)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %v err=%v", name, got, err)
		}
	}
	if _, err := domain.ParseFormat("floppy"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
