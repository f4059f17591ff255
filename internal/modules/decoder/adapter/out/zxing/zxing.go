// Package zxing decodes barcodes in-process with gozxing. Plugins and the
// builtin host share it.
package zxing

import (
	"context"
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/image/draw"

	scandomain "vscan/internal/modules/scan/domain"
	apperrors "vscan/internal/platform/errors"
	"vscan/internal/platform/video"
)

const (
	Name    = "zxing"
	Version = "0.1.1"
)

type readerFactory func() gozxing.Reader

var readers = []struct {
	format  scandomain.Format
	factory readerFactory
}{
	{scandomain.FormatQRCode, func() gozxing.Reader { return qrcode.NewQRCodeReader() }},
	{scandomain.FormatDataMatrix, func() gozxing.Reader { return datamatrix.NewDataMatrixReader() }},
	{scandomain.FormatCode128, func() gozxing.Reader { return oned.NewCode128Reader() }},
	{scandomain.FormatCode39, func() gozxing.Reader { return oned.NewCode39Reader() }},
	{scandomain.FormatEAN13, func() gozxing.Reader { return oned.NewEAN13Reader() }},
	{scandomain.FormatEAN8, func() gozxing.Reader { return oned.NewEAN8Reader() }},
	{scandomain.FormatUPCA, func() gozxing.Reader { return oned.NewUPCAReader() }},
	{scandomain.FormatUPCE, func() gozxing.Reader { return oned.NewUPCEReader() }},
	{scandomain.FormatITF, func() gozxing.Reader { return oned.NewITFReader() }},
}

var formatOf = map[gozxing.BarcodeFormat]scandomain.Format{
	gozxing.BarcodeFormat_QR_CODE:     scandomain.FormatQRCode,
	gozxing.BarcodeFormat_DATA_MATRIX: scandomain.FormatDataMatrix,
	gozxing.BarcodeFormat_CODE_128:    scandomain.FormatCode128,
	gozxing.BarcodeFormat_CODE_39:     scandomain.FormatCode39,
	gozxing.BarcodeFormat_EAN_13:      scandomain.FormatEAN13,
	gozxing.BarcodeFormat_EAN_8:       scandomain.FormatEAN8,
	gozxing.BarcodeFormat_UPC_A:       scandomain.FormatUPCA,
	gozxing.BarcodeFormat_UPC_E:       scandomain.FormatUPCE,
	gozxing.BarcodeFormat_ITF:         scandomain.FormatITF,
}

// Formats lists the symbologies this decoder can read.
func Formats() []scandomain.Format {
	out := make([]scandomain.Format, 0, len(readers))
	for _, r := range readers {
		out = append(out, r.format)
	}
	return out
}

// Luminance converts an RGBA frame to 8-bit grey.
func Luminance(frame video.ImageData) (*image.Gray, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("%w: frame has no pixels", apperrors.ErrInvalidInput)
	}
	if len(frame.Data) < frame.Width*frame.Height*4 {
		return nil, fmt.Errorf("%w: frame buffer holds %d bytes, want %d", apperrors.ErrInvalidInput, len(frame.Data), frame.Width*frame.Height*4)
	}
	rect := image.Rect(0, 0, frame.Width, frame.Height)
	src := &image.RGBA{Pix: frame.Data, Stride: frame.Width * 4, Rect: rect}
	gray := image.NewGray(rect)
	draw.Draw(gray, rect, src, image.Point{}, draw.Src)
	return gray, nil
}

// Decode reads every accepted symbology from an RGBA frame.
func Decode(ctx context.Context, frame video.ImageData, opts scandomain.ReaderOptions) ([]scandomain.ReadResult, error) {
	gray, err := Luminance(frame)
	if err != nil {
		return nil, err
	}
	return DecodeGray(ctx, gray, opts)
}

// variant is one transformed copy of the input tried by the readers. Points
// found on it are mapped back through scale and rotation.
type variant struct {
	img      *image.Gray
	scale    int
	rotated  bool
	inverted bool
	origH    int
}

// DecodeGray reads every accepted symbology from a luminance image. At most
// one symbol per format is reported. A frame without symbols yields an empty
// slice; only malformed input or cancellation is an error.
func DecodeGray(ctx context.Context, gray *image.Gray, opts scandomain.ReaderOptions) ([]scandomain.ReadResult, error) {
	if gray == nil || gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty luminance image", apperrors.ErrInvalidInput)
	}
	hints := hintsFor(opts)
	limit := opts.MaxNumberOfSymbols
	if limit == 0 {
		limit = len(readers)
	}

	out := []scandomain.ReadResult{}
	found := map[scandomain.Format]struct{}{}
	for _, v := range variantsFor(gray, opts) {
		for _, r := range readers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if len(out) >= limit {
				return out, nil
			}
			if !opts.Accepts(r.format) {
				continue
			}
			if _, ok := found[r.format]; ok {
				continue
			}
			bmp, err := bitmapFor(v, opts.Binarizer)
			if err != nil {
				return nil, err
			}
			res, err := r.factory().Decode(bmp, hints)
			if err != nil {
				// NotFound, Format and Checksum exceptions all mean no symbol here.
				continue
			}
			result, ok := convert(res, v)
			if !ok || !opts.Accepts(result.Format) {
				continue
			}
			found[result.Format] = struct{}{}
			out = append(out, result)
		}
	}
	return out, nil
}

func variantsFor(gray *image.Gray, opts scandomain.ReaderOptions) []variant {
	base := variant{img: gray, scale: 1, origH: gray.Bounds().Dy()}
	if opts.TryDownscale && opts.DownscaleFactor > 1 && opts.DownscaleThreshold > 0 {
		b := gray.Bounds()
		if max(b.Dx(), b.Dy()) > opts.DownscaleThreshold {
			base = variant{img: downscale(gray, opts.DownscaleFactor), scale: opts.DownscaleFactor}
			base.origH = base.img.Bounds().Dy()
		}
	}
	out := []variant{base}
	if opts.TryRotate {
		out = append(out, variant{img: rotate90(base.img), scale: base.scale, rotated: true, origH: base.origH})
	}
	if opts.TryInvert {
		for _, v := range slices.Clone(out) {
			v.inverted = true
			out = append(out, v)
		}
	}
	return out
}

func bitmapFor(v variant, binarizer scandomain.Binarizer) (*gozxing.BinaryBitmap, error) {
	src := gozxing.NewLuminanceSourceFromImage(v.img)
	if v.inverted {
		src = src.Invert()
	}
	var b gozxing.Binarizer
	switch binarizer {
	case scandomain.BinarizerGlobalHistogram:
		b = gozxing.NewGlobalHistgramBinarizer(src)
	default:
		b = gozxing.NewHybridBinarizer(src)
	}
	bmp, err := gozxing.NewBinaryBitmap(b)
	if err != nil {
		return nil, fmt.Errorf("binary bitmap: %w", err)
	}
	return bmp, nil
}

func hintsFor(opts scandomain.ReaderOptions) map[gozxing.DecodeHintType]interface{} {
	hints := map[gozxing.DecodeHintType]interface{}{}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	if opts.IsPure {
		hints[gozxing.DecodeHintType_PURE_BARCODE] = true
	}
	if opts.CharacterSet != "" && !strings.EqualFold(opts.CharacterSet, "Unknown") {
		hints[gozxing.DecodeHintType_CHARACTER_SET] = opts.CharacterSet
	}
	if opts.ValidateCode39CheckSum {
		hints[gozxing.DecodeHintType_ASSUME_CODE_39_CHECK_DIGIT] = true
	}
	return hints
}

func convert(res *gozxing.Result, v variant) (scandomain.ReadResult, bool) {
	format, ok := formatOf[res.GetBarcodeFormat()]
	if !ok {
		return scandomain.ReadResult{}, false
	}
	out := scandomain.ReadResult{
		IsValid:     true,
		Format:      format,
		Text:        res.GetText(),
		Bytes:       []byte(res.GetText()),
		ContentType: scandomain.ContentText,
		Position:    positionOf(res.GetResultPoints(), v),
		IsInverted:  v.inverted,
	}
	if v.rotated {
		out.Orientation = 90
	}
	meta := res.GetResultMetadata()
	if level, ok := meta[gozxing.ResultMetadataType_ERROR_CORRECTION_LEVEL]; ok {
		out.ECLevel = fmt.Sprint(level)
	}
	if id, ok := meta[gozxing.ResultMetadataType_SYMBOLOGY_IDENTIFIER].(string); ok {
		out.SymbologyIdentifier = id
		if isGS1(id) {
			out.ContentType = scandomain.ContentGS1
		}
	}
	if o, ok := meta[gozxing.ResultMetadataType_ORIENTATION].(int); ok {
		out.Orientation = (out.Orientation + o) % 360
	}
	return out, true
}

// isGS1 matches the AIM modifiers that announce GS1 element strings.
func isGS1(symbologyID string) bool {
	switch symbologyID {
	case "]C1", "]Q3", "]d2", "]e0":
		return true
	}
	return false
}

// positionOf returns the axis-aligned box around the reported points in the
// coordinates of the original frame.
func positionOf(points []gozxing.ResultPoint, v variant) scandomain.Position {
	if len(points) == 0 {
		return scandomain.Position{}
	}
	minX, minY := int(^uint(0)>>1), int(^uint(0)>>1)
	maxX, maxY := 0, 0
	for _, p := range points {
		x, y := int(p.GetX()), int(p.GetY())
		if v.rotated {
			x, y = y, v.origH-1-x
		}
		x, y = x*v.scale, y*v.scale
		minX, minY = min(minX, x), min(minY, y)
		maxX, maxY = max(maxX, x), max(maxY, y)
	}
	return scandomain.Position{
		TopLeft:     scandomain.Point{X: minX, Y: minY},
		TopRight:    scandomain.Point{X: maxX, Y: minY},
		BottomRight: scandomain.Point{X: maxX, Y: maxY},
		BottomLeft:  scandomain.Point{X: minX, Y: maxY},
	}
}

func downscale(src *image.Gray, factor int) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, max(1, b.Dx()/factor), max(1, b.Dy()/factor)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// rotate90 turns src clockwise; (x, y) lands on (h-1-y, x).
func rotate90(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			dst.Pix[x*dst.Stride+(h-1-y)] = row[x]
		}
	}
	return dst
}
